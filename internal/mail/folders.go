package mail

import (
	"fmt"
	"strings"

	"github.com/emersion/go-imap"

	"github.com/nwillis/mailgate/pkg/types"
)

// folderPathSep joins hierarchy segments in FolderNode paths, independent
// of the server's own delimiter. The UI reconstructs nesting by splitting
// on it.
const folderPathSep = "/"

// folderTree is the intermediate nested name->children structure built
// from the server listing.
type folderTree struct {
	name     string
	children []*folderTree
	index    map[string]*folderTree
}

func newFolderTree(name string) *folderTree {
	return &folderTree{name: name, index: make(map[string]*folderTree)}
}

func (t *folderTree) child(name string) *folderTree {
	if c, ok := t.index[name]; ok {
		return c
	}
	c := newFolderTree(name)
	t.index[name] = c
	t.children = append(t.children, c)
	return c
}

// resolveFolders lists the server's mailboxes and flattens them into
// parent-then-children (pre-order) sequence with "/"-joined paths.
func resolveFolders(s Session) ([]types.FolderNode, error) {
	ch := make(chan *imap.MailboxInfo, 10)
	done := make(chan error, 1)

	go func() {
		done <- s.List("", "*", ch)
	}()

	var infos []*imap.MailboxInfo
	for m := range ch {
		infos = append(infos, m)
	}

	if err := <-done; err != nil {
		return nil, Classify(fmt.Errorf("listing folders: %w", err))
	}

	return flattenFolders(buildFolderTree(infos)), nil
}

// buildFolderTree nests the flat listing by splitting each mailbox name on
// the server's delimiter. Entries with no delimiter become top-level nodes.
func buildFolderTree(infos []*imap.MailboxInfo) *folderTree {
	root := newFolderTree("")
	for _, info := range infos {
		if info == nil || info.Name == "" {
			continue
		}
		segments := []string{info.Name}
		if info.Delimiter != "" {
			segments = strings.Split(info.Name, info.Delimiter)
		}
		node := root
		for _, seg := range segments {
			if seg == "" {
				continue
			}
			node = node.child(seg)
		}
	}
	return root
}

// flattenFolders walks the tree depth-first, emitting each node before its
// children. A folder with no children still appears once, with an empty
// child set.
func flattenFolders(root *folderTree) []types.FolderNode {
	out := []types.FolderNode{}

	var walk func(node *folderTree, parentPath string)
	walk = func(node *folderTree, parentPath string) {
		for _, c := range node.children {
			path := c.name
			if parentPath != "" {
				path = parentPath + folderPathSep + c.name
			}
			out = append(out, types.FolderNode{
				Name:     c.name,
				Path:     path,
				Children: []types.FolderNode{},
			})
			walk(c, path)
		}
	}
	walk(root, "")

	return out
}
