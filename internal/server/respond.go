package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nwillis/mailgate/internal/mail"
	"github.com/nwillis/mailgate/internal/vault"
)

type dataEnvelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
}

type errorEnvelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func respond(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeData(w http.ResponseWriter, status int, data interface{}) {
	respond(w, status, dataEnvelope{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, message string) {
	respond(w, status, errorEnvelope{Success: false, Error: message})
}

// writeMailError maps a mail-tier failure onto the HTTP contract: 404 for a
// missed message lookup, 400 for everything else, with a caller-safe
// message. Corrupt stored credentials surface as a configuration problem.
func writeMailError(w http.ResponseWriter, err error) {
	if errors.Is(err, vault.ErrCorruptCredential) {
		writeError(w, http.StatusBadRequest, "stored mail credentials are unreadable, reconfigure the account")
		return
	}
	status := http.StatusBadRequest
	if mail.KindOf(err) == mail.KindNotFound {
		status = http.StatusNotFound
	}
	writeError(w, status, err.Error())
}
