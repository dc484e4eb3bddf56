package mail

import (
	"errors"
	"fmt"
	"testing"

	"github.com/emersion/go-imap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleHeader = "Subject: Weekly report\r\n" +
	"From: alice@example.com\r\n" +
	"To: bob@example.com\r\n" +
	"Date: Mon, 02 Jan 2023 15:04:05 +0000\r\n" +
	"\r\n"

func uidsUpTo(n uint32) []uint32 {
	uids := make([]uint32, 0, n)
	for i := uint32(1); i <= n; i++ {
		uids = append(uids, i)
	}
	return uids
}

func messagesForUIDs(uids []uint32) []*imap.Message {
	msgs := make([]*imap.Message, 0, len(uids))
	for _, uid := range uids {
		header := fmt.Sprintf("Subject: msg-%d\r\n\r\n", uid)
		msgs = append(msgs, fakeMessage(uid, header, "body", nil, plainTextStructure()))
	}
	return msgs
}

func TestListMessagesEmptyFolder(t *testing.T) {
	s := &fakeSession{searchUIDs: nil}

	page, total, err := listMessages(s, "INBOX", 10, 0)
	require.NoError(t, err)

	assert.Empty(t, page)
	assert.Equal(t, 0, total)
	assert.Equal(t, 0, s.fetchCalls, "empty folder must not trigger a fetch")
}

func TestListMessagesCapsSearchResultBeforePagination(t *testing.T) {
	s := &fakeSession{
		searchUIDs: uidsUpTo(60),
		messages:   messagesForUIDs(uidsUpTo(50)),
	}

	_, total, err := listMessages(s, "INBOX", 10, 0)
	require.NoError(t, err)

	// The pagination universe is the first 50 identifiers, regardless of
	// the requested limit; total reports the capped set.
	assert.Equal(t, 50, total)
	require.NotNil(t, s.fetchedSet)
	assert.True(t, s.fetchedSet.Contains(50))
	assert.False(t, s.fetchedSet.Contains(51))
}

func TestListMessagesReversesPage(t *testing.T) {
	s := &fakeSession{
		searchUIDs: uidsUpTo(10),
		messages:   messagesForUIDs(uidsUpTo(10)),
	}

	page, total, err := listMessages(s, "INBOX", 10, 0)
	require.NoError(t, err)

	assert.Equal(t, 10, total)
	require.Len(t, page, 10)
	assert.Equal(t, uint32(10), page[0].ID, "last-fetched message comes first")
	assert.Equal(t, uint32(1), page[9].ID)
}

func TestListMessagesSliceThenReverse(t *testing.T) {
	s := &fakeSession{
		searchUIDs: uidsUpTo(15),
		messages:   messagesForUIDs(uidsUpTo(15)),
	}

	page, total, err := listMessages(s, "INBOX", 10, 0)
	require.NoError(t, err)

	// offset/limit slice the fetched set first, then the slice is
	// reversed: items 1..10 come back as 10..1.
	assert.Equal(t, 15, total)
	require.Len(t, page, 10)
	assert.Equal(t, uint32(10), page[0].ID)
	assert.Equal(t, uint32(1), page[9].ID)

	page, _, err = listMessages(s, "INBOX", 10, 10)
	require.NoError(t, err)
	require.Len(t, page, 5)
	assert.Equal(t, uint32(15), page[0].ID)
	assert.Equal(t, uint32(11), page[4].ID)
}

func TestListMessagesOffsetPastEnd(t *testing.T) {
	s := &fakeSession{
		searchUIDs: uidsUpTo(3),
		messages:   messagesForUIDs(uidsUpTo(3)),
	}

	page, total, err := listMessages(s, "INBOX", 10, 100)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Empty(t, page)
}

func TestListMessagesProjection(t *testing.T) {
	s := &fakeSession{
		searchUIDs: []uint32{7},
		messages: []*imap.Message{
			fakeMessage(7, sampleHeader, "body", nil, plainTextStructure()),
		},
	}

	page, _, err := listMessages(s, "INBOX", 10, 0)
	require.NoError(t, err)
	require.Len(t, page, 1)

	got := page[0]
	assert.Equal(t, uint32(7), got.ID)
	assert.Equal(t, "Weekly report", got.Subject)
	assert.Equal(t, "alice@example.com", got.From)
	assert.Equal(t, "bob@example.com", got.To)
	assert.Equal(t, "Mon, 02 Jan 2023 15:04:05 +0000", got.Date)
}

func TestListMessagesSeenFieldIsInverted(t *testing.T) {
	s := &fakeSession{
		searchUIDs: []uint32{1, 2},
		messages: []*imap.Message{
			fakeMessage(1, sampleHeader, "body", []string{imap.SeenFlag}, plainTextStructure()),
			fakeMessage(2, sampleHeader, "body", nil, plainTextStructure()),
		},
	}

	page, _, err := listMessages(s, "INBOX", 10, 0)
	require.NoError(t, err)
	require.Len(t, page, 2)

	byID := map[uint32]bool{}
	for _, m := range page {
		byID[m.ID] = m.Seen
	}
	// The field carries the inverse of the \Seen flag.
	assert.False(t, byID[1])
	assert.True(t, byID[2])
}

func TestListMessagesHasAttachments(t *testing.T) {
	s := &fakeSession{
		searchUIDs: []uint32{1, 2},
		messages: []*imap.Message{
			fakeMessage(1, sampleHeader, "body", nil, attachmentStructure("report.pdf", 1024)),
			fakeMessage(2, sampleHeader, "body", nil, plainTextStructure()),
		},
	}

	page, _, err := listMessages(s, "INBOX", 10, 0)
	require.NoError(t, err)
	require.Len(t, page, 2)

	byID := map[uint32]bool{}
	for _, m := range page {
		byID[m.ID] = m.HasAttachments
	}
	assert.True(t, byID[1])
	assert.False(t, byID[2])
}

func TestListMessagesFirstHeaderValueWins(t *testing.T) {
	header := "Subject: first\r\nSubject: second\r\n\r\n"
	s := &fakeSession{
		searchUIDs: []uint32{1},
		messages:   []*imap.Message{fakeMessage(1, header, "body", nil, plainTextStructure())},
	}

	page, _, err := listMessages(s, "INBOX", 10, 0)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "first", page[0].Subject)
}

func TestListMessagesFolderOpenFailure(t *testing.T) {
	s := &fakeSession{selectErr: errors.New("NO mailbox does not exist")}

	_, _, err := listMessages(s, "Missing", 10, 0)
	require.Error(t, err)
	assert.Equal(t, KindProtocol, KindOf(err))
	assert.Equal(t, 0, s.fetchCalls)
}
