package server

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nwillis/mailgate/internal/mail"
	"github.com/nwillis/mailgate/pkg/types"
)

const defaultPageSize = 50

// credentials loads the caller's account and returns ready-to-use IMAP
// credentials with the password decrypted, plus the account itself.
func (s *Server) credentials(r *http.Request) (mail.Credentials, *types.MailAccount, error) {
	acct, err := s.store.GetAccount(r.Context(), userID(r))
	if err != nil {
		return mail.Credentials{}, nil, err
	}
	if acct == nil {
		return mail.Credentials{}, nil, mail.NewError(mail.KindConfiguration, "no mail account configured")
	}

	password, err := s.vault.Decrypt(acct.Password)
	if err != nil {
		return mail.Credentials{}, nil, err
	}

	return mail.Credentials{
		Host:     acct.IMAPHost,
		Port:     acct.IMAPPort,
		Username: acct.Username,
		Password: password,
		TLS:      acct.IMAPSecure,
	}, acct, nil
}

// folderParam extracts the folder path segment, tolerating URL-encoded
// hierarchy separators.
func folderParam(r *http.Request) string {
	raw := chi.URLParam(r, "folder")
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}

func (s *Server) handleListFolders(w http.ResponseWriter, r *http.Request) {
	creds, _, err := s.credentials(r)
	if err != nil {
		writeMailError(w, err)
		return
	}

	folders, err := s.mailer.ListFolders(creds)
	if err != nil {
		writeMailError(w, err)
		return
	}
	writeData(w, http.StatusOK, folders)
}

func (s *Server) handleListEmails(w http.ResponseWriter, r *http.Request) {
	creds, _, err := s.credentials(r)
	if err != nil {
		writeMailError(w, err)
		return
	}

	limit := defaultPageSize
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}
	offset := 0
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			offset = v
		}
	}

	emails, total, err := s.mailer.ListMessages(creds, folderParam(r), limit, offset)
	if err != nil {
		writeMailError(w, err)
		return
	}

	writeData(w, http.StatusOK, map[string]interface{}{
		"emails": emails,
		"total":  total,
		"offset": offset,
		"limit":  limit,
	})
}

func (s *Server) handleGetEmail(w http.ResponseWriter, r *http.Request) {
	creds, _, err := s.credentials(r)
	if err != nil {
		writeMailError(w, err)
		return
	}

	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 32)
	if err != nil {
		writeMailError(w, mail.NewError(mail.KindValidation, "invalid message id"))
		return
	}

	detail, err := s.mailer.ReadMessage(creds, folderParam(r), uint32(id))
	if err != nil {
		writeMailError(w, err)
		return
	}
	writeData(w, http.StatusOK, detail)
}
