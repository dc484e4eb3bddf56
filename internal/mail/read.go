package mail

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/emersion/go-imap"

	"github.com/nwillis/mailgate/pkg/types"
)

// fallbackAttachmentName is used when the server omits a filename for an
// attachment part.
const fallbackAttachmentName = "attachment"

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// readMessage fetches one message by UID. The identifier is confirmed by a
// search first; zero hits mean the message does not exist in this folder.
func readMessage(s Session, folder string, id uint32) (*types.MessageDetail, error) {
	if _, err := s.Select(folder, true); err != nil {
		return nil, Classify(fmt.Errorf("opening folder %q: %w", folder, err))
	}

	criteria := imap.NewSearchCriteria()
	criteria.Uid = new(imap.SeqSet)
	criteria.Uid.AddNum(id)

	uids, err := s.UidSearch(criteria)
	if err != nil {
		return nil, Classify(fmt.Errorf("searching for message %d: %w", id, err))
	}
	if len(uids) == 0 {
		return nil, NewError(KindNotFound, "message not found")
	}

	fetched, err := fetchMessages(s, uids[:1])
	if err != nil {
		return nil, err
	}
	if len(fetched) == 0 {
		return nil, NewError(KindNotFound, "message not found")
	}
	m := fetched[0]

	// Text and HTML are both filled from the same fetched text part; the
	// protocol layer does not walk multipart/alternative branches. The
	// stripped view is the plain-text fallback when no distinct HTML part
	// exists.
	return &types.MessageDetail{
		ID:           m.uid,
		Subject:      m.header.Get("Subject"),
		From:         m.header.Get("From"),
		To:           m.header.Get("To"),
		Cc:           m.header.Get("Cc"),
		Bcc:          m.header.Get("Bcc"),
		Date:         m.header.Get("Date"),
		Text:         m.text,
		HTML:         m.text,
		TextFromHTML: stripTags(m.text),
		Attachments:  attachmentsFrom(m.structure),
	}, nil
}

// stripTags removes angle-bracket tag sequences, a best-effort plain-text
// rendering of HTML bodies.
func stripTags(s string) string {
	return tagPattern.ReplaceAllString(s, "")
}

// attachmentsFrom collects metadata for every structural part with an
// attachment disposition.
func attachmentsFrom(bs *imap.BodyStructure) []types.AttachmentDescriptor {
	out := []types.AttachmentDescriptor{}

	var walk func(part *imap.BodyStructure)
	walk = func(part *imap.BodyStructure) {
		if part == nil {
			return
		}
		if strings.EqualFold(part.Disposition, "attachment") {
			out = append(out, types.AttachmentDescriptor{
				Filename:    attachmentName(part),
				ContentType: strings.ToLower(part.MIMEType + "/" + part.MIMESubType),
				Size:        int64(part.Size),
			})
		}
		for _, child := range part.Parts {
			walk(child)
		}
	}
	walk(bs)

	return out
}

func attachmentName(part *imap.BodyStructure) string {
	if name := paramValue(part.DispositionParams, "filename"); name != "" {
		return name
	}
	if name := paramValue(part.Params, "name"); name != "" {
		return name
	}
	return fallbackAttachmentName
}

// paramValue looks up a MIME parameter without assuming the server's key
// casing.
func paramValue(params map[string]string, key string) string {
	for k, v := range params {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}
