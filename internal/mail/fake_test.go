package mail

import (
	"bytes"

	"github.com/emersion/go-imap"
)

// fakeSession is a scripted Session for protocol-level tests.
type fakeSession struct {
	selectErr  error
	selected   string
	mailboxes  []*imap.MailboxInfo
	listErr    error
	searchUIDs []uint32
	searchErr  error
	messages   []*imap.Message
	fetchErr   error

	fetchCalls int
	fetchedSet *imap.SeqSet
	loggedOut  bool
}

func (f *fakeSession) Select(name string, readOnly bool) (*imap.MailboxStatus, error) {
	if f.selectErr != nil {
		return nil, f.selectErr
	}
	f.selected = name
	return &imap.MailboxStatus{Name: name}, nil
}

func (f *fakeSession) List(ref, name string, ch chan *imap.MailboxInfo) error {
	for _, m := range f.mailboxes {
		ch <- m
	}
	close(ch)
	return f.listErr
}

func (f *fakeSession) UidSearch(criteria *imap.SearchCriteria) ([]uint32, error) {
	return f.searchUIDs, f.searchErr
}

func (f *fakeSession) UidFetch(seqset *imap.SeqSet, items []imap.FetchItem, ch chan *imap.Message) error {
	f.fetchCalls++
	f.fetchedSet = seqset
	for _, m := range f.messages {
		ch <- m
	}
	close(ch)
	return f.fetchErr
}

func (f *fakeSession) Logout() error {
	f.loggedOut = true
	return nil
}

// fakeMessage builds a fetch result with header and text body literals.
// Body keys mirror server responses, which never carry the PEEK marker;
// Message.GetBody strips Peek from the requested section before matching.
func fakeMessage(uid uint32, header, text string, flags []string, structure *imap.BodyStructure) *imap.Message {
	return &imap.Message{
		Uid:           uid,
		Flags:         flags,
		BodyStructure: structure,
		Body: map[*imap.BodySectionName]imap.Literal{
			respSection(headerSection): bytes.NewBufferString(header),
			respSection(textSection):   bytes.NewBufferString(text),
		},
	}
}

// respSection copies a fetch section the way a server response stores it.
func respSection(s *imap.BodySectionName) *imap.BodySectionName {
	c := *s
	c.Peek = false
	return &c
}

func plainTextStructure() *imap.BodyStructure {
	return &imap.BodyStructure{MIMEType: "text", MIMESubType: "plain"}
}

func attachmentStructure(filename string, size uint32) *imap.BodyStructure {
	att := &imap.BodyStructure{
		MIMEType:    "application",
		MIMESubType: "pdf",
		Disposition: "attachment",
		Size:        size,
	}
	if filename != "" {
		att.DispositionParams = map[string]string{"filename": filename}
	}
	return &imap.BodyStructure{
		MIMEType:    "multipart",
		MIMESubType: "mixed",
		Parts: []*imap.BodyStructure{
			{MIMEType: "text", MIMESubType: "plain"},
			att,
		},
	}
}
