package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/nwillis/mailgate/internal/mail"
	"github.com/nwillis/mailgate/pkg/types"
)

// accountRequest is the account-setup payload. The password arrives in the
// clear over the authenticated channel and is encrypted before it touches
// the store.
type accountRequest struct {
	Email      string `json:"email"`
	IMAPHost   string `json:"imapHost"`
	IMAPPort   int    `json:"imapPort"`
	IMAPSecure *bool  `json:"imapSecure"`
	SMTPHost   string `json:"smtpHost"`
	SMTPPort   int    `json:"smtpPort"`
	SMTPSecure *bool  `json:"smtpSecure"`
	Username   string `json:"username"`
	Password   string `json:"password"`
}

func (req *accountRequest) validate() string {
	switch {
	case strings.TrimSpace(req.Email) == "":
		return "email is required"
	case strings.TrimSpace(req.IMAPHost) == "":
		return "imapHost is required"
	case strings.TrimSpace(req.SMTPHost) == "":
		return "smtpHost is required"
	case strings.TrimSpace(req.Username) == "":
		return "username is required"
	case req.Password == "":
		return "password is required"
	}
	return ""
}

// handleGetAccount returns the redacted account view, or null data when the
// user has no account configured yet.
func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	acct, err := s.store.GetAccount(r.Context(), userID(r))
	if err != nil {
		s.logger.WithError(err).Error("Account lookup failed")
		writeError(w, http.StatusInternalServerError, "account lookup failed")
		return
	}
	if acct == nil {
		writeData(w, http.StatusOK, nil)
		return
	}
	writeData(w, http.StatusOK, acct.View())
}

// handleSaveAccount validates the payload, probes the IMAP credentials
// against the live server, and persists the account with the password
// encrypted. A failed probe rejects the save.
func (s *Server) handleSaveAccount(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	if req.IMAPPort == 0 {
		req.IMAPPort = 993
	}
	if req.SMTPPort == 0 {
		req.SMTPPort = 465
	}
	imapSecure := req.IMAPSecure == nil || *req.IMAPSecure
	smtpSecure := req.SMTPSecure == nil || *req.SMTPSecure

	if err := s.mailer.Probe(mail.Credentials{
		Host:     req.IMAPHost,
		Port:     req.IMAPPort,
		Username: req.Username,
		Password: req.Password,
		TLS:      imapSecure,
	}); err != nil {
		writeMailError(w, err)
		return
	}

	encrypted, err := s.vault.Encrypt(req.Password)
	if err != nil {
		s.logger.WithError(err).Error("Password encryption failed")
		writeError(w, http.StatusInternalServerError, "could not secure credentials")
		return
	}

	id, err := s.store.UpsertAccount(r.Context(), &types.MailAccount{
		UserID:     userID(r),
		Email:      req.Email,
		IMAPHost:   req.IMAPHost,
		IMAPPort:   req.IMAPPort,
		IMAPSecure: imapSecure,
		SMTPHost:   req.SMTPHost,
		SMTPPort:   req.SMTPPort,
		SMTPSecure: smtpSecure,
		Username:   req.Username,
		Password:   encrypted,
	})
	if err != nil {
		s.logger.WithError(err).Error("Account save failed")
		writeError(w, http.StatusInternalServerError, "account save failed")
		return
	}

	s.logger.WithField("email", req.Email).Info("Mail account saved")
	writeData(w, http.StatusOK, map[string]interface{}{"id": id, "email": req.Email})
}

// handleDeleteAccount removes the user's account. Deleting a missing
// account succeeds.
func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteAccount(r.Context(), userID(r)); err != nil {
		s.logger.WithError(err).Error("Account delete failed")
		writeError(w, http.StatusInternalServerError, "account delete failed")
		return
	}
	writeData(w, http.StatusOK, map[string]interface{}{})
}

// handleTestAccount probes the submitted IMAP credentials without
// persisting anything, so the caller can verify settings before saving.
func (s *Server) handleTestAccount(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.IMAPHost) == "" {
		writeError(w, http.StatusBadRequest, "imapHost is required")
		return
	}
	if req.IMAPPort == 0 {
		req.IMAPPort = 993
	}

	if err := s.mailer.Probe(mail.Credentials{
		Host:     req.IMAPHost,
		Port:     req.IMAPPort,
		Username: req.Username,
		Password: req.Password,
		TLS:      req.IMAPSecure == nil || *req.IMAPSecure,
	}); err != nil {
		writeMailError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]bool{"connected": true})
}
