package server

import (
	"encoding/json"
	"net/http"

	"github.com/nwillis/mailgate/internal/mail"
)

// handleSend dispatches an outbound message through the account's SMTP
// endpoint. The sender address is always the stored account email.
func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	var msg mail.Message
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := msg.Validate(); err != nil {
		writeMailError(w, err)
		return
	}

	imapCreds, acct, err := s.credentials(r)
	if err != nil {
		writeMailError(w, err)
		return
	}

	smtpCreds := mail.Credentials{
		Host:     acct.SMTPHost,
		Port:     acct.SMTPPort,
		Username: acct.Username,
		Password: imapCreds.Password,
		TLS:      acct.SMTPSecure,
	}

	if err := s.mailer.Send(smtpCreds, acct.Email, &msg); err != nil {
		writeMailError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]bool{"sent": true})
}
