// Package server exposes the mail gateway over HTTP. Every response uses a
// {success, data?, error?} envelope; caller identity arrives in the
// X-User-ID header set by the authenticating front layer.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/nwillis/mailgate/internal/mail"
	"github.com/nwillis/mailgate/internal/store"
	"github.com/nwillis/mailgate/internal/vault"
	"github.com/nwillis/mailgate/pkg/types"
)

// userHeader carries the authenticated user id injected by the surrounding
// application.
const userHeader = "X-User-ID"

type contextKey struct{ name string }

var userKey = &contextKey{"user"}

// Mailer is the protocol surface the handlers depend on; *mail.Gateway
// implements it and tests substitute a fake.
type Mailer interface {
	Probe(creds mail.Credentials) error
	ListFolders(creds mail.Credentials) ([]types.FolderNode, error)
	ListMessages(creds mail.Credentials, folder string, limit, offset int) ([]types.MessageSummary, int, error)
	ReadMessage(creds mail.Credentials, folder string, id uint32) (*types.MessageDetail, error)
	Send(creds mail.Credentials, from string, msg *mail.Message) error
}

// Server holds the HTTP handlers and their dependencies.
type Server struct {
	store  *store.Store
	vault  *vault.Vault
	mailer Mailer
	logger *logrus.Logger
}

// New creates a Server.
func New(st *store.Store, v *vault.Vault, mailer Mailer, logger *logrus.Logger) *Server {
	return &Server{store: st, vault: v, mailer: mailer, logger: logger}
}

// Router builds the chi router with all gateway routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(s.requireUser)

		r.Get("/account", s.handleGetAccount)
		r.Post("/account", s.handleSaveAccount)
		r.Delete("/account", s.handleDeleteAccount)
		r.Post("/test", s.handleTestAccount)

		r.Get("/folders", s.handleListFolders)
		r.Get("/emails/{folder}", s.handleListEmails)
		r.Get("/email/{folder}/{id}", s.handleGetEmail)
		r.Post("/send", s.handleSend)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, map[string]string{"status": "ok"})
}

// requireUser rejects requests without a caller identity and stashes the
// user id in the request context.
func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get(userHeader)
		if userID == "" {
			writeError(w, http.StatusUnauthorized, "missing user identity")
			return
		}
		ctx := context.WithValue(r.Context(), userKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func userID(r *http.Request) string {
	id, _ := r.Context().Value(userKey).(string)
	return id
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		s.logger.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   ww.Status(),
			"duration": time.Since(start).String(),
		}).Info("Request handled")
	})
}
