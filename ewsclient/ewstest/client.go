// Package ewstest provides an in-memory implementation of
// ewsclient.Client for tests and demos. State is seeded through AddFolder
// and AddItem; sends, updates and deletes are recorded for assertions, and
// individual operations can be made to fail.
package ewstest

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/ewsmail/go-ews/ewsclient"
)

// Client is an in-memory remote mailbox. The zero value is not usable;
// call New.
type Client struct {
	mu sync.Mutex

	folders   map[ewsclient.FolderID]*folder
	items     map[ewsclient.ItemID]*item
	wellKnown map[ewsclient.WellKnownFolder]ewsclient.FolderID

	// Sent records every Send call in order.
	Sent []SentMessage
	// Updates records every UpdateItem call in order.
	Updates []UpdateRecord
	// Deleted records every DeleteItem call in order.
	Deleted []DeleteRecord

	// LoadErr makes LoadFullContent fail for specific items.
	LoadErr map[ewsclient.ItemID]error
	// SendErr makes every Send call fail.
	SendErr error
	// UpdateErr makes every UpdateItem call fail.
	UpdateErr error

	closed bool
}

type folder struct {
	info     ewsclient.FolderInfo
	childIDs []ewsclient.FolderID
	itemIDs  []ewsclient.ItemID
}

type item struct {
	info ewsclient.ItemInfo
	raw  []byte
}

// SentMessage is one recorded Send call.
type SentMessage struct {
	Msg      *ewsclient.OutgoingMessage
	SaveCopy bool
}

// UpdateRecord is one recorded UpdateItem call.
type UpdateRecord struct {
	ItemID     ewsclient.ItemID
	IsRead     bool
	Resolution ewsclient.ConflictResolution
}

// DeleteRecord is one recorded DeleteItem call.
type DeleteRecord struct {
	ItemID ewsclient.ItemID
	Mode   ewsclient.DeleteMode
}

var _ ewsclient.Client = (*Client)(nil)

// New returns a mailbox with the root and the standard well-known folders
// already present.
func New() *Client {
	c := &Client{
		folders:   make(map[ewsclient.FolderID]*folder),
		items:     make(map[ewsclient.ItemID]*item),
		wellKnown: make(map[ewsclient.WellKnownFolder]ewsclient.FolderID),
		LoadErr:   make(map[ewsclient.ItemID]error),
	}

	rootID := c.addFolderLocked("", "Top of Information Store")
	c.wellKnown[ewsclient.WellKnownRoot] = rootID

	for _, wk := range []struct {
		name ewsclient.WellKnownFolder
		disp string
	}{
		{ewsclient.WellKnownInbox, "Inbox"},
		{ewsclient.WellKnownDrafts, "Drafts"},
		{ewsclient.WellKnownSentItems, "Sent Items"},
		{ewsclient.WellKnownDeletedItems, "Deleted Items"},
		{ewsclient.WellKnownOutbox, "Outbox"},
		{ewsclient.WellKnownJunkEmail, "Junk Email"},
	} {
		c.wellKnown[wk.name] = c.addFolderLocked(rootID, wk.disp)
	}

	return c
}

// Dialer returns an ewsclient.Dialer handing out this client.
func (c *Client) Dialer() ewsclient.Dialer {
	return func(opts ewsclient.Options) (ewsclient.Client, error) {
		return c, nil
	}
}

// AddFolder seeds a child folder under parent and returns its id.
func (c *Client) AddFolder(parent ewsclient.FolderID, displayName string) ewsclient.FolderID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.addFolderLocked(parent, displayName)
}

func (c *Client) addFolderLocked(parent ewsclient.FolderID, displayName string) ewsclient.FolderID {
	id := ewsclient.FolderID(uuid.NewString())
	c.folders[id] = &folder{info: ewsclient.FolderInfo{
		ID:          id,
		ParentID:    parent,
		DisplayName: displayName,
	}}
	if p, ok := c.folders[parent]; ok {
		p.childIDs = append(p.childIDs, id)
	}
	return id
}

// AddItem seeds an item into a folder and returns its id. The ID and
// ParentID fields of info are filled in.
func (c *Client) AddItem(folderID ewsclient.FolderID, info ewsclient.ItemInfo, raw []byte) ewsclient.ItemID {
	c.mu.Lock()
	defer c.mu.Unlock()

	f, ok := c.folders[folderID]
	if !ok {
		panic(fmt.Sprintf("ewstest: unknown folder %s", folderID))
	}
	id := ewsclient.ItemID(uuid.NewString())
	info.ID = id
	info.ParentID = folderID
	c.items[id] = &item{info: info, raw: raw}
	f.itemIDs = append(f.itemIDs, id)
	return id
}

// WellKnownID returns the folder id backing a well-known folder.
func (c *Client) WellKnownID(name ewsclient.WellKnownFolder) ewsclient.FolderID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.wellKnown[name]
}

// ItemInfo returns the current state of an item, or nil if it no longer
// exists.
func (c *Client) ItemInfo(id ewsclient.ItemID) *ewsclient.ItemInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	it, ok := c.items[id]
	if !ok {
		return nil
	}
	info := it.info
	return &info
}

// FolderItemIDs returns the ordered item ids of a folder.
func (c *Client) FolderItemIDs(id ewsclient.FolderID) []ewsclient.ItemID {
	c.mu.Lock()
	defer c.mu.Unlock()
	f, ok := c.folders[id]
	if !ok {
		return nil
	}
	out := make([]ewsclient.ItemID, len(f.itemIDs))
	copy(out, f.itemIDs)
	return out
}

// Closed reports whether Close was called.
func (c *Client) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
