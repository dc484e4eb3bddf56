package types

import "time"

// MailAccount is the stored IMAP/SMTP credential set for one user. The
// password is kept encrypted at rest and never serialized to JSON.
type MailAccount struct {
	ID         int64     `db:"id" json:"id"`
	UserID     string    `db:"user_id" json:"-"`
	Email      string    `db:"email" json:"email"`
	IMAPHost   string    `db:"imap_host" json:"imapHost"`
	IMAPPort   int       `db:"imap_port" json:"imapPort"`
	IMAPSecure bool      `db:"imap_secure" json:"imapSecure"`
	SMTPHost   string    `db:"smtp_host" json:"smtpHost"`
	SMTPPort   int       `db:"smtp_port" json:"smtpPort"`
	SMTPSecure bool      `db:"smtp_secure" json:"smtpSecure"`
	Username   string    `db:"username" json:"username"`
	Password   string    `db:"password_enc" json:"-"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time `db:"updated_at" json:"updatedAt"`
}

// AccountView is the redacted account projection returned over HTTP.
// Password presence is signaled via HasPassword only.
type AccountView struct {
	ID          int64  `json:"id"`
	Email       string `json:"email"`
	IMAPHost    string `json:"imapHost"`
	IMAPPort    int    `json:"imapPort"`
	IMAPSecure  bool   `json:"imapSecure"`
	SMTPHost    string `json:"smtpHost"`
	SMTPPort    int    `json:"smtpPort"`
	SMTPSecure  bool   `json:"smtpSecure"`
	Username    string `json:"username"`
	HasPassword bool   `json:"hasPassword"`
}

// View returns the redacted projection of the account.
func (a *MailAccount) View() AccountView {
	return AccountView{
		ID:          a.ID,
		Email:       a.Email,
		IMAPHost:    a.IMAPHost,
		IMAPPort:    a.IMAPPort,
		IMAPSecure:  a.IMAPSecure,
		SMTPHost:    a.SMTPHost,
		SMTPPort:    a.SMTPPort,
		SMTPSecure:  a.SMTPSecure,
		Username:    a.Username,
		HasPassword: a.Password != "",
	}
}

// FolderNode is one mailbox in the flattened folder listing. Path joins the
// hierarchy segments with "/" regardless of the server's own delimiter.
type FolderNode struct {
	Name     string       `json:"name"`
	Path     string       `json:"path"`
	Children []FolderNode `json:"children"`
}

// MessageSummary is the per-message listing projection. ID is the
// server-assigned UID, stable within one mailbox only.
type MessageSummary struct {
	ID             uint32 `json:"id"`
	Subject        string `json:"subject"`
	From           string `json:"from"`
	To             string `json:"to"`
	Date           string `json:"date"`
	Seen           bool   `json:"seen"`
	HasAttachments bool   `json:"hasAttachments"`
}

// MessageDetail is the full single-message projection.
type MessageDetail struct {
	ID           uint32                 `json:"id"`
	Subject      string                 `json:"subject"`
	From         string                 `json:"from"`
	To           string                 `json:"to"`
	Cc           string                 `json:"cc"`
	Bcc          string                 `json:"bcc"`
	Date         string                 `json:"date"`
	Text         string                 `json:"text"`
	HTML         string                 `json:"html"`
	TextFromHTML string                 `json:"textFromHtml"`
	Attachments  []AttachmentDescriptor `json:"attachments"`
}

// AttachmentDescriptor carries attachment metadata only; content is never
// fetched on the listing or detail paths.
type AttachmentDescriptor struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}
