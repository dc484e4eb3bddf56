package mail

import (
	"errors"
	"testing"

	"github.com/emersion/go-imap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nwillis/mailgate/pkg/types"
)

func TestResolveFoldersFlattensPreOrder(t *testing.T) {
	s := &fakeSession{
		mailboxes: []*imap.MailboxInfo{
			{Name: "A", Delimiter: "."},
			{Name: "A.B", Delimiter: "."},
			{Name: "A.B.C", Delimiter: "."},
		},
	}

	folders, err := resolveFolders(s)
	require.NoError(t, err)

	require.Len(t, folders, 3)
	assert.Equal(t, "A", folders[0].Name)
	assert.Equal(t, "A", folders[0].Path)
	assert.Equal(t, "B", folders[1].Name)
	assert.Equal(t, "A/B", folders[1].Path)
	assert.Equal(t, "C", folders[2].Name)
	assert.Equal(t, "A/B/C", folders[2].Path)
}

func TestResolveFoldersParentBeforeChildren(t *testing.T) {
	s := &fakeSession{
		mailboxes: []*imap.MailboxInfo{
			{Name: "INBOX", Delimiter: "/"},
			{Name: "Work", Delimiter: "/"},
			{Name: "Work/Invoices", Delimiter: "/"},
			{Name: "Archive", Delimiter: "/"},
		},
	}

	folders, err := resolveFolders(s)
	require.NoError(t, err)

	paths := make([]string, len(folders))
	for i, f := range folders {
		paths[i] = f.Path
	}
	assert.Equal(t, []string{"INBOX", "Work", "Work/Invoices", "Archive"}, paths)
}

func TestResolveFoldersLeafHasEmptyChildren(t *testing.T) {
	s := &fakeSession{
		mailboxes: []*imap.MailboxInfo{{Name: "INBOX", Delimiter: "/"}},
	}

	folders, err := resolveFolders(s)
	require.NoError(t, err)

	require.Len(t, folders, 1)
	assert.NotNil(t, folders[0].Children)
	assert.Empty(t, folders[0].Children)
}

func TestResolveFoldersEmptyListing(t *testing.T) {
	folders, err := resolveFolders(&fakeSession{})
	require.NoError(t, err)
	assert.Equal(t, []types.FolderNode{}, folders)
}

func TestResolveFoldersImplicitParent(t *testing.T) {
	// Some servers list only the deep mailbox; the missing parent still
	// materializes in the directory.
	s := &fakeSession{
		mailboxes: []*imap.MailboxInfo{{Name: "Work.Invoices", Delimiter: "."}},
	}

	folders, err := resolveFolders(s)
	require.NoError(t, err)

	require.Len(t, folders, 2)
	assert.Equal(t, "Work", folders[0].Path)
	assert.Equal(t, "Work/Invoices", folders[1].Path)
}

func TestResolveFoldersListFailure(t *testing.T) {
	s := &fakeSession{listErr: errors.New("LIST command failed")}

	_, err := resolveFolders(s)
	require.Error(t, err)
	assert.Equal(t, KindProtocol, KindOf(err))
}
