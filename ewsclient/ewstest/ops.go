package ewstest

import (
	"fmt"

	"github.com/ewsmail/go-ews/ewsclient"
)

// Bind implements ewsclient.Client.
func (c *Client) Bind(id ewsclient.FolderID) (*ewsclient.FolderInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	f, ok := c.folders[id]
	if !ok {
		return nil, fmt.Errorf("ewstest: no folder with id %s", id)
	}
	info := f.info
	info.TotalCount = len(f.itemIDs)
	info.ChildCount = len(f.childIDs)
	info.UnreadCount = 0
	for _, itemID := range f.itemIDs {
		if !c.items[itemID].info.IsRead {
			info.UnreadCount++
		}
	}
	return &info, nil
}

// BindWellKnown implements ewsclient.Client.
func (c *Client) BindWellKnown(name ewsclient.WellKnownFolder) (*ewsclient.FolderInfo, error) {
	c.mu.Lock()
	id, ok := c.wellKnown[name]
	c.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("ewstest: no well-known folder %q", name)
	}
	return c.Bind(id)
}

// FindFolders implements ewsclient.Client.
func (c *Client) FindFolders(parent ewsclient.FolderID, filter ewsclient.Filter, pageSize int) ([]*ewsclient.FolderInfo, error) {
	c.mu.Lock()
	p, ok := c.folders[parent]
	if !ok {
		c.mu.Unlock()
		return nil, fmt.Errorf("ewstest: no folder with id %s", parent)
	}
	childIDs := make([]ewsclient.FolderID, len(p.childIDs))
	copy(childIDs, p.childIDs)
	c.mu.Unlock()

	var out []*ewsclient.FolderInfo
	for _, id := range childIDs {
		if len(out) >= pageSize {
			break
		}
		info, err := c.Bind(id)
		if err != nil {
			return nil, err
		}
		if matchFolder(info, filter) {
			out = append(out, info)
		}
	}
	return out, nil
}

func matchFolder(info *ewsclient.FolderInfo, filter ewsclient.Filter) bool {
	switch f := filter.(type) {
	case nil:
		return true
	case ewsclient.DisplayNameFilter:
		return info.DisplayName == f.Name
	default:
		return false
	}
}

// FindItems implements ewsclient.Client.
func (c *Client) FindItems(folderID ewsclient.FolderID, filter ewsclient.Filter, pageSize int) ([]*ewsclient.ItemInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	f, ok := c.folders[folderID]
	if !ok {
		return nil, fmt.Errorf("ewstest: no folder with id %s", folderID)
	}
	var out []*ewsclient.ItemInfo
	for _, id := range f.itemIDs {
		if len(out) >= pageSize {
			break
		}
		it := c.items[id]
		if matchItem(&it.info, filter) {
			info := it.info
			out = append(out, &info)
		}
	}
	return out, nil
}

func matchItem(info *ewsclient.ItemInfo, filter ewsclient.Filter) bool {
	switch f := filter.(type) {
	case nil:
		return true
	case ewsclient.UnreadFilter:
		return !info.IsRead
	case ewsclient.ReceivedSinceFilter:
		return !info.DateTimeReceived.Before(f.Since)
	default:
		return false
	}
}

// LoadFullContent implements ewsclient.Client.
func (c *Client) LoadFullContent(id ewsclient.ItemID) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.LoadErr[id]; err != nil {
		return nil, err
	}
	it, ok := c.items[id]
	if !ok {
		return nil, fmt.Errorf("ewstest: no item with id %s", id)
	}
	raw := make([]byte, len(it.raw))
	copy(raw, it.raw)
	return raw, nil
}

// UpdateItem implements ewsclient.Client.
func (c *Client) UpdateItem(info *ewsclient.ItemInfo, resolution ewsclient.ConflictResolution) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.UpdateErr != nil {
		return c.UpdateErr
	}
	it, ok := c.items[info.ID]
	if !ok {
		return fmt.Errorf("ewstest: no item with id %s", info.ID)
	}
	it.info.IsRead = info.IsRead
	c.Updates = append(c.Updates, UpdateRecord{
		ItemID:     info.ID,
		IsRead:     info.IsRead,
		Resolution: resolution,
	})
	return nil
}

// DeleteItem implements ewsclient.Client.
func (c *Client) DeleteItem(id ewsclient.ItemID, mode ewsclient.DeleteMode) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	it, ok := c.items[id]
	if !ok {
		return fmt.Errorf("ewstest: no item with id %s", id)
	}
	c.detachItemLocked(id)
	if mode == ewsclient.MoveToDeletedItems {
		trashID := c.wellKnown[ewsclient.WellKnownDeletedItems]
		it.info.ParentID = trashID
		c.folders[trashID].itemIDs = append(c.folders[trashID].itemIDs, id)
	} else {
		delete(c.items, id)
	}
	c.Deleted = append(c.Deleted, DeleteRecord{ItemID: id, Mode: mode})
	return nil
}

// MoveItems implements ewsclient.Client.
func (c *Client) MoveItems(ids []ewsclient.ItemID, target ewsclient.FolderID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	t, ok := c.folders[target]
	if !ok {
		return fmt.Errorf("ewstest: no folder with id %s", target)
	}
	for _, id := range ids {
		it, ok := c.items[id]
		if !ok {
			return fmt.Errorf("ewstest: no item with id %s", id)
		}
		c.detachItemLocked(id)
		it.info.ParentID = target
		t.itemIDs = append(t.itemIDs, id)
	}
	return nil
}

func (c *Client) detachItemLocked(id ewsclient.ItemID) {
	parent := c.items[id].info.ParentID
	f, ok := c.folders[parent]
	if !ok {
		return
	}
	for i, other := range f.itemIDs {
		if other == id {
			f.itemIDs = append(f.itemIDs[:i], f.itemIDs[i+1:]...)
			break
		}
	}
}

// CreateFolder implements ewsclient.Client.
func (c *Client) CreateFolder(parent ewsclient.FolderID, displayName string) (*ewsclient.FolderInfo, error) {
	c.mu.Lock()
	if _, ok := c.folders[parent]; !ok {
		c.mu.Unlock()
		return nil, fmt.Errorf("ewstest: no folder with id %s", parent)
	}
	id := c.addFolderLocked(parent, displayName)
	c.mu.Unlock()
	return c.Bind(id)
}

// DeleteFolder implements ewsclient.Client.
func (c *Client) DeleteFolder(id ewsclient.FolderID, mode ewsclient.DeleteMode) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	f, ok := c.folders[id]
	if !ok {
		return fmt.Errorf("ewstest: no folder with id %s", id)
	}
	if p, ok := c.folders[f.info.ParentID]; ok {
		for i, other := range p.childIDs {
			if other == id {
				p.childIDs = append(p.childIDs[:i], p.childIDs[i+1:]...)
				break
			}
		}
	}
	for _, itemID := range f.itemIDs {
		delete(c.items, itemID)
	}
	delete(c.folders, id)
	return nil
}

// MoveFolder implements ewsclient.Client.
func (c *Client) MoveFolder(id ewsclient.FolderID, target ewsclient.FolderID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	f, ok := c.folders[id]
	if !ok {
		return fmt.Errorf("ewstest: no folder with id %s", id)
	}
	t, ok := c.folders[target]
	if !ok {
		return fmt.Errorf("ewstest: no folder with id %s", target)
	}
	if p, ok := c.folders[f.info.ParentID]; ok {
		for i, other := range p.childIDs {
			if other == id {
				p.childIDs = append(p.childIDs[:i], p.childIDs[i+1:]...)
				break
			}
		}
	}
	f.info.ParentID = target
	t.childIDs = append(t.childIDs, id)
	return nil
}

// Send implements ewsclient.Client.
func (c *Client) Send(msg *ewsclient.OutgoingMessage, saveCopy bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.SendErr != nil {
		return c.SendErr
	}
	c.Sent = append(c.Sent, SentMessage{Msg: msg, SaveCopy: saveCopy})
	return nil
}

// Close implements ewsclient.Client.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}
