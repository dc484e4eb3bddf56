package mail

import "strings"

// Kind buckets a mail error for the request boundary.
type Kind int

const (
	// KindProtocol is the generic bucket; the underlying message is passed
	// through for diagnosis.
	KindProtocol Kind = iota

	// KindConfiguration means no usable account is configured. Distinct
	// from a connection failure.
	KindConfiguration

	// KindRefused means the server actively refused the connection.
	KindRefused

	// KindTimeout means the server did not respond in time.
	KindTimeout

	// KindAuth means the server rejected the credentials.
	KindAuth

	// KindNotFound means a single-message lookup missed.
	KindNotFound

	// KindValidation means the request was rejected before any network
	// session was opened.
	KindValidation
)

// Error is a classified mail error. Message is safe to show to the caller.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError builds a mail error with an explicit classification.
func NewError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// KindOf returns the classification of err, or KindProtocol for anything
// that is not a mail error.
func KindOf(err error) Kind {
	if me, ok := err.(*Error); ok {
		return me.Kind
	}
	return KindProtocol
}

// User-facing messages for the connection-tier buckets.
const (
	msgRefused = "connection refused, check host/port"
	msgTimeout = "server not responding"
	msgAuth    = "check username/password"
)

// Classify maps a raw connection or protocol failure onto one of the error
// buckets by inspecting its text. Unmatched errors fall through to
// KindProtocol with the original message attached.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	if me, ok := err.(*Error); ok {
		return me
	}

	text := strings.ToLower(err.Error())

	switch {
	case strings.Contains(text, "connection refused") || strings.Contains(text, "econnrefused"):
		return &Error{Kind: KindRefused, Message: msgRefused, Err: err}
	case strings.Contains(text, "timeout") || strings.Contains(text, "timed out") ||
		strings.Contains(text, "deadline exceeded"):
		return &Error{Kind: KindTimeout, Message: msgTimeout, Err: err}
	case strings.Contains(text, "auth") || strings.Contains(text, "login") ||
		strings.Contains(text, "credential"):
		return &Error{Kind: KindAuth, Message: msgAuth, Err: err}
	default:
		return &Error{Kind: KindProtocol, Message: err.Error(), Err: err}
	}
}
