package mail

import (
	"bufio"
	"fmt"
	"io"
	"net/textproto"
	"strings"

	"github.com/emersion/go-imap"

	"github.com/nwillis/mailgate/pkg/types"
)

// listFetchCap bounds how many identifiers of the folder search are
// fetched. The cap applies BEFORE offset/limit, so the pagination universe
// is never larger than this many messages and the reported total counts
// the capped set, not the mailbox. Kept for compatibility with the
// existing consumers; see DESIGN.md before changing.
const listFetchCap = 50

// Body sections requested for both listing and reading. Peek avoids
// setting \Seen as a side effect of the gateway's own fetches.
var (
	headerSection = &imap.BodySectionName{
		BodyPartName: imap.BodyPartName{Specifier: imap.HeaderSpecifier},
		Peek:         true,
	}
	textSection = &imap.BodySectionName{
		BodyPartName: imap.BodyPartName{Specifier: imap.TextSpecifier},
		Peek:         true,
	}
)

// fetchedMessage is one message's raw fetch result before projection.
type fetchedMessage struct {
	uid       uint32
	header    textproto.MIMEHeader
	text      string
	flags     []string
	structure *imap.BodyStructure
}

// listMessages selects the folder, searches every message in it, fetches
// the capped identifier set and returns one reversed page of summaries
// plus the capped total.
func listMessages(s Session, folder string, limit, offset int) ([]types.MessageSummary, int, error) {
	if _, err := s.Select(folder, true); err != nil {
		return nil, 0, Classify(fmt.Errorf("opening folder %q: %w", folder, err))
	}

	criteria := imap.NewSearchCriteria()
	criteria.Uid = new(imap.SeqSet)
	criteria.Uid.AddRange(1, 0)

	uids, err := s.UidSearch(criteria)
	if err != nil {
		return nil, 0, Classify(fmt.Errorf("searching folder %q: %w", folder, err))
	}
	if len(uids) == 0 {
		return []types.MessageSummary{}, 0, nil
	}

	if len(uids) > listFetchCap {
		uids = uids[:listFetchCap]
	}

	fetched, err := fetchMessages(s, uids)
	if err != nil {
		return nil, 0, err
	}

	total := len(fetched)

	if offset < 0 {
		offset = 0
	}
	if offset > total {
		offset = total
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}

	page := make([]types.MessageSummary, 0, end-offset)
	// Most recently fetched first.
	for i := end - 1; i >= offset; i-- {
		page = append(page, summarize(fetched[i]))
	}

	return page, total, nil
}

// fetchMessages retrieves header, text body, flags and structure for every
// uid, preserving server return order.
func fetchMessages(s Session, uids []uint32) ([]fetchedMessage, error) {
	seqset := new(imap.SeqSet)
	seqset.AddNum(uids...)

	items := []imap.FetchItem{
		imap.FetchUid,
		imap.FetchFlags,
		imap.FetchBodyStructure,
		headerSection.FetchItem(),
		textSection.FetchItem(),
	}

	ch := make(chan *imap.Message, 10)
	done := make(chan error, 1)

	go func() {
		done <- s.UidFetch(seqset, items, ch)
	}()

	var fetched []fetchedMessage
	for msg := range ch {
		fetched = append(fetched, fetchedMessage{
			uid:       msg.Uid,
			header:    parseHeader(msg.GetBody(headerSection)),
			text:      readLiteral(msg.GetBody(textSection)),
			flags:     msg.Flags,
			structure: msg.BodyStructure,
		})
	}

	if err := <-done; err != nil {
		return nil, Classify(fmt.Errorf("fetching messages: %w", err))
	}

	return fetched, nil
}

// summarize projects one fetched message to its listing row. Header fields
// may be multi-valued; only the first value is used.
func summarize(m fetchedMessage) types.MessageSummary {
	return types.MessageSummary{
		ID:      m.uid,
		Subject: m.header.Get("Subject"),
		From:    m.header.Get("From"),
		To:      m.header.Get("To"),
		Date:    m.header.Get("Date"),
		// Historical quirk: this field carries the inverse of the \Seen
		// flag and consumers depend on the inverted value.
		Seen:           !hasFlag(m.flags, imap.SeenFlag),
		HasAttachments: hasAttachmentPart(m.structure),
	}
}

func hasFlag(flags []string, want string) bool {
	for _, f := range flags {
		if f == want {
			return true
		}
	}
	return false
}

// hasAttachmentPart reports whether any structural part declares an
// attachment disposition.
func hasAttachmentPart(bs *imap.BodyStructure) bool {
	if bs == nil {
		return false
	}
	if strings.EqualFold(bs.Disposition, "attachment") {
		return true
	}
	for _, part := range bs.Parts {
		if hasAttachmentPart(part) {
			return true
		}
	}
	return false
}

// parseHeader reads a raw RFC 5322 header block into a structured map.
// A nil or malformed block yields an empty map, never an error.
func parseHeader(literal imap.Literal) textproto.MIMEHeader {
	if literal == nil {
		return textproto.MIMEHeader{}
	}
	r := textproto.NewReader(bufio.NewReader(literal))
	hdr, err := r.ReadMIMEHeader()
	if err != nil && len(hdr) == 0 {
		return textproto.MIMEHeader{}
	}
	return hdr
}

// readLiteral drains a fetch literal into a string.
func readLiteral(literal imap.Literal) string {
	if literal == nil {
		return ""
	}
	b, err := io.ReadAll(literal)
	if err != nil {
		return ""
	}
	return string(b)
}
