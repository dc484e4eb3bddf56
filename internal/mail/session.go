// Package mail implements the gateway's protocol core: ephemeral IMAP
// sessions for folder, listing and message operations, plus SMTP dispatch.
// Every operation opens its own authenticated session and tears it down
// before returning; nothing is pooled or reused across requests.
package mail

import (
	"crypto/tls"
	"net"
	"strconv"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/sirupsen/logrus"

	"github.com/nwillis/mailgate/pkg/types"
)

// Credentials identifies one mail server endpoint plus login.
type Credentials struct {
	Host     string
	Port     int
	Username string
	Password string
	TLS      bool
}

// Options bound the session handshake. ConnectTimeout covers the TCP/TLS
// dial, AuthTimeout every subsequent protocol command. VerifyTLS defaults
// to off; the historical behavior accepts any server certificate.
type Options struct {
	ConnectTimeout time.Duration
	AuthTimeout    time.Duration
	VerifyTLS      bool
}

// Gateway executes mail operations over short-lived sessions.
type Gateway struct {
	opts   Options
	logger *logrus.Logger
}

// NewGateway creates a gateway with the given session options.
func NewGateway(opts Options, logger *logrus.Logger) *Gateway {
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 15 * time.Second
	}
	if opts.AuthTimeout <= 0 {
		opts.AuthTimeout = 15 * time.Second
	}
	return &Gateway{opts: opts, logger: logger}
}

// Session is the slice of the IMAP client used by the gateway's operations.
// *client.Client satisfies it; tests substitute a fake.
type Session interface {
	Select(name string, readOnly bool) (*imap.MailboxStatus, error)
	List(ref, name string, ch chan *imap.MailboxInfo) error
	UidSearch(criteria *imap.SearchCriteria) ([]uint32, error)
	UidFetch(seqset *imap.SeqSet, items []imap.FetchItem, ch chan *imap.Message) error
	Logout() error
}

func (g *Gateway) tlsConfig(host string) *tls.Config {
	return &tls.Config{
		ServerName:         host,
		InsecureSkipVerify: !g.opts.VerifyTLS,
	}
}

// dial opens and authenticates an IMAP session. Both steps are bounded;
// on any failure after the socket is open the session is torn down before
// the classified error is returned.
func (g *Gateway) dial(creds Credentials) (Session, error) {
	addr := net.JoinHostPort(creds.Host, strconv.Itoa(creds.Port))
	dialer := &net.Dialer{Timeout: g.opts.ConnectTimeout}

	var (
		c   *client.Client
		err error
	)
	if creds.TLS {
		c, err = client.DialWithDialerTLS(dialer, addr, g.tlsConfig(creds.Host))
	} else {
		c, err = client.DialWithDialer(dialer, addr)
	}
	if err != nil {
		g.logger.WithError(err).WithField("addr", addr).Warn("IMAP dial failed")
		return nil, Classify(err)
	}

	c.Timeout = g.opts.AuthTimeout

	if err := c.Login(creds.Username, creds.Password); err != nil {
		_ = c.Logout()
		g.logger.WithError(err).WithField("addr", addr).Warn("IMAP login failed")
		return nil, Classify(err)
	}

	return c, nil
}

// Probe verifies that creds can open a session and select the inbox. Used
// by account setup and the credential test endpoint.
func (g *Gateway) Probe(creds Credentials) error {
	s, err := g.dial(creds)
	if err != nil {
		return err
	}
	defer func() { _ = s.Logout() }()

	if _, err := s.Select("INBOX", true); err != nil {
		return Classify(err)
	}
	return nil
}

// ListFolders opens a session and returns the flattened folder directory.
func (g *Gateway) ListFolders(creds Credentials) ([]types.FolderNode, error) {
	s, err := g.dial(creds)
	if err != nil {
		return nil, err
	}
	defer func() { _ = s.Logout() }()

	return resolveFolders(s)
}

// ListMessages opens a session and returns one page of message summaries
// for the folder, plus the total of the capped fetch set.
func (g *Gateway) ListMessages(creds Credentials, folder string, limit, offset int) ([]types.MessageSummary, int, error) {
	s, err := g.dial(creds)
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = s.Logout() }()

	return listMessages(s, folder, limit, offset)
}

// ReadMessage opens a session and fetches one message by UID.
func (g *Gateway) ReadMessage(creds Credentials, folder string, id uint32) (*types.MessageDetail, error) {
	s, err := g.dial(creds)
	if err != nil {
		return nil, err
	}
	defer func() { _ = s.Logout() }()

	return readMessage(s, folder, id)
}
