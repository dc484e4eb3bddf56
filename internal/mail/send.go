package mail

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"net"
	netmail "net/mail"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/jhillyerd/enmime"
)

// Message is one outbound email. Recipient lists are comma-separated
// strings as supplied by the caller.
type Message struct {
	To      string `json:"to"`
	Cc      string `json:"cc"`
	Bcc     string `json:"bcc"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	HTML    string `json:"html"`
}

// Validate rejects an unsendable message before any network session is
// opened.
func (m *Message) Validate() error {
	if strings.TrimSpace(m.To) == "" {
		return NewError(KindValidation, "recipient is required")
	}
	if strings.TrimSpace(m.Subject) == "" {
		return NewError(KindValidation, "subject is required")
	}
	if strings.TrimSpace(m.Body) == "" && strings.TrimSpace(m.HTML) == "" {
		return NewError(KindValidation, "message body is required")
	}
	return nil
}

// Send transmits one message over an authenticated SMTP session using the
// account's settings, with from fixed to the account's own address. There
// is no retry; a transport failure surfaces with the transport's text.
func (g *Gateway) Send(creds Credentials, from string, msg *Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	raw, err := buildMIME(from, msg)
	if err != nil {
		return NewError(KindValidation, err.Error())
	}

	recipients := splitAddresses(msg.To)
	recipients = append(recipients, splitAddresses(msg.Cc)...)
	recipients = append(recipients, splitAddresses(msg.Bcc)...)

	addr := net.JoinHostPort(creds.Host, strconv.Itoa(creds.Port))
	auth := smtp.PlainAuth("", creds.Username, creds.Password, creds.Host)

	c, err := g.dialSMTP(addr, creds)
	if err != nil {
		return Classify(err)
	}
	defer c.Close()

	if err := c.Auth(auth); err != nil {
		return Classify(err)
	}
	if err := c.Mail(from); err != nil {
		return Classify(err)
	}
	for _, rcpt := range recipients {
		if err := c.Rcpt(rcpt); err != nil {
			return Classify(fmt.Errorf("recipient %s rejected: %w", rcpt, err))
		}
	}

	w, err := c.Data()
	if err != nil {
		return Classify(err)
	}
	if _, err := w.Write(raw); err != nil {
		return Classify(err)
	}
	if err := w.Close(); err != nil {
		return Classify(err)
	}

	g.logger.WithField("recipients", len(recipients)).Info("Message sent")
	return c.Quit()
}

// dialSMTP opens the transport: implicit TLS for secure accounts, plain
// dial followed by STARTTLS otherwise. Certificate checks follow the
// gateway's VerifyTLS option.
func (g *Gateway) dialSMTP(addr string, creds Credentials) (*smtp.Client, error) {
	dialer := &net.Dialer{Timeout: g.opts.ConnectTimeout}

	if creds.TLS {
		conn, err := tls.DialWithDialer(dialer, "tcp", addr, g.tlsConfig(creds.Host))
		if err != nil {
			return nil, err
		}
		c, err := smtp.NewClient(conn, creds.Host)
		if err != nil {
			conn.Close()
			return nil, err
		}
		return c, nil
	}

	conn, err := dialer.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}
	c, err := smtp.NewClient(conn, creds.Host)
	if err != nil {
		conn.Close()
		return nil, err
	}
	if err := c.StartTLS(g.tlsConfig(creds.Host)); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

// buildMIME assembles the outbound message. Bcc recipients go on the
// envelope only, never into headers.
func buildMIME(from string, msg *Message) ([]byte, error) {
	b := enmime.Builder().
		From("", from).
		ToAddrs(toAddrList(msg.To)).
		Subject(msg.Subject)

	if cc := toAddrList(msg.Cc); len(cc) > 0 {
		b = b.CCAddrs(cc)
	}
	if msg.Body != "" {
		b = b.Text([]byte(msg.Body))
	}
	if msg.HTML != "" {
		b = b.HTML([]byte(msg.HTML))
	}

	root, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("building message: %w", err)
	}

	var buf bytes.Buffer
	if err := root.Encode(&buf); err != nil {
		return nil, fmt.Errorf("encoding message: %w", err)
	}
	return buf.Bytes(), nil
}

func splitAddresses(list string) []string {
	var out []string
	for _, part := range strings.Split(list, ",") {
		if addr := strings.TrimSpace(part); addr != "" {
			out = append(out, addr)
		}
	}
	return out
}

func toAddrList(list string) []netmail.Address {
	var out []netmail.Address
	for _, addr := range splitAddresses(list) {
		out = append(out, netmail.Address{Address: addr})
	}
	return out
}
