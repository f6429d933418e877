package store

import (
	"errors"
	"fmt"
	"sync"
	"time"

	ews "github.com/ewsmail/go-ews"
	"github.com/ewsmail/go-ews/ewsclient"
)

// Folder is one folder of the remote mailbox. It owns the binding to the
// remote folder handle, the open-mode state machine and the message
// snapshot materialized at open time.
//
// Operations on a single Folder are serialized by an internal mutex, but
// the blocking remote calls they perform are not reentrant: a Folder must
// not be shared across goroutines that interleave mutating operations.
// Independent Folder instances of the same remote folder do not share
// state and race at the remote service.
type Folder struct {
	store *Store

	mu sync.Mutex

	// name is the display name used for lazy resolution while info is
	// still unbound, and the last known display name afterwards.
	name     string
	parentID ewsclient.FolderID
	info     *ewsclient.FolderInfo

	mode     ews.OpenMode
	messages []*ews.Message
	unread   []*ews.Message
	openedAt time.Time
}

func newBoundFolder(s *Store, info *ewsclient.FolderInfo) *Folder {
	return &Folder{
		store:    s,
		name:     info.DisplayName,
		parentID: info.ParentID,
		info:     info,
	}
}

func newNamedFolder(s *Store, name string, parent ewsclient.FolderID) *Folder {
	return &Folder{
		store:    s,
		name:     name,
		parentID: parent,
	}
}

// Name returns the folder display name.
func (f *Folder) Name() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.info != nil {
		return f.info.DisplayName
	}
	return f.name
}

// ID returns the remote folder id, or the empty id while the folder is
// unresolved.
func (f *Folder) ID() ewsclient.FolderID {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.info == nil {
		return ""
	}
	return f.info.ID
}

// Mode returns the current open mode.
func (f *Folder) Mode() ews.OpenMode {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mode
}

// IsOpen reports whether the folder is open in either mode.
func (f *Folder) IsOpen() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.isOpenLocked()
}

func (f *Folder) isOpenLocked() bool {
	return f.info != nil && f.mode != ews.ModeClosed
}

// Exists reports whether the folder exists on the remote service. A folder
// addressed only by name is resolved here: a bounded search (page size 1)
// by display name under the parent binds the handle on the first hit. A
// miss is not an error.
func (f *Folder) Exists() (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.existsLocked()
}

func (f *Folder) existsLocked() (bool, error) {
	if f.info != nil {
		return true, nil
	}
	parent := f.parentID
	if parent == "" {
		// Name-only folders without a known parent are resolved under
		// the inbox.
		inbox, err := f.store.client.BindWellKnown(ewsclient.WellKnownInbox)
		if err != nil {
			return false, &ews.RemoteFetchError{Op: "bind inbox", Cause: err}
		}
		parent = inbox.ID
	}
	infos, err := f.store.client.FindFolders(parent, ewsclient.DisplayNameFilter{Name: f.name}, 1)
	if err != nil {
		return false, &ews.RemoteFetchError{Op: fmt.Sprintf("find folder %q", f.name), Cause: err}
	}
	if len(infos) == 0 {
		return false, nil
	}
	f.info = infos[0]
	f.parentID = infos[0].ParentID
	return true, nil
}

// Open transitions the folder from closed to the given mode. The remote
// handle is rebound to pick up fresh metadata; with prefetching enabled
// the message snapshot is materialized with a single bounded find call,
// skipping (and logging) items that fail to convert. Opening an already
// open folder is not supported.
func (f *Folder) Open(mode ews.OpenMode) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if mode != ews.ModeReadOnly && mode != ews.ModeReadWrite {
		return fmt.Errorf("store: invalid open mode %v", mode)
	}
	if f.isOpenLocked() {
		return errors.New("store: folder already open")
	}

	ok, err := f.existsLocked()
	if err != nil {
		return err
	}
	if !ok {
		return &ews.FolderNotFoundError{Name: f.name}
	}

	info, err := f.store.client.Bind(f.info.ID)
	if err != nil {
		return &ews.RemoteFetchError{Op: fmt.Sprintf("bind folder %q", f.name), Cause: err}
	}
	f.info = info
	f.name = info.DisplayName

	if f.store.cfg.PrefetchItems {
		items, err := f.store.client.FindItems(info.ID, nil, f.store.cfg.ItemViewMaxItems)
		if err != nil {
			return &ews.RemoteFetchError{Op: fmt.Sprintf("find items of folder %q", f.name), Cause: err}
		}
		conv := ews.NewConverter(f.store.client)
		messages := make([]*ews.Message, 0, len(items))
		for _, item := range items {
			f.store.log.Infof("fetching content of item %s", item.ID)
			msg, err := conv.ToMessage(item, len(messages)+1)
			if err != nil {
				f.store.log.WithError(err).Warnf("skipping item %s", item.ID)
				continue
			}
			messages = append(messages, msg)
		}
		f.messages = messages
	}
	f.unread = nil

	f.mode = mode
	f.openedAt = time.Now()
	f.store.notifyConnection(ConnectionEvent{
		FolderID:   info.ID,
		FolderName: f.name,
		Type:       ConnectionOpened,
	})
	return nil
}

// Close ends the open session. Closing a folder that was never opened is a
// no-op. A read-write close first expunges when asked to, then writes the
// seen-flag delta of every snapshot message back to the remote service.
// Cleanup is best-effort: the handle is cleared and the closed
// notification fires even when the sync step failed, and the sync error is
// returned afterwards.
func (f *Folder) Close(expunge bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.mode == ews.ModeClosed {
		return nil
	}

	var syncErr error
	if f.mode == ews.ModeReadWrite {
		if expunge {
			_, syncErr = f.expungeLocked()
		}
		if syncErr == nil {
			syncErr = f.syncSeenLocked(f.messages)
		}
		if syncErr == nil {
			syncErr = f.syncSeenLocked(f.unread)
		}
	}

	id := f.info.ID
	name := f.info.DisplayName
	f.name = name
	f.info = nil
	f.mode = ews.ModeClosed
	f.messages = nil
	f.unread = nil
	f.store.notifyConnection(ConnectionEvent{
		FolderID:   id,
		FolderName: name,
		Type:       ConnectionClosed,
	})
	return syncErr
}

func (f *Folder) syncSeenLocked(messages []*ews.Message) error {
	for _, msg := range messages {
		if !msg.SeenModified() {
			continue
		}
		item := msg.Item()
		item.IsRead = msg.Flags.Has(ews.FlagSeen)
		if err := f.store.client.UpdateItem(item, f.store.cfg.ConflictResolution); err != nil {
			return &ews.RemoteWriteError{
				Op:    fmt.Sprintf("update read state of item %s", item.ID),
				Cause: err,
			}
		}
	}
	return nil
}

// Expunge removes every snapshot message flagged deleted from the remote
// store and from the in-memory snapshots, using the configured delete
// mode. The removed messages are returned and a single removal
// notification carrying the full removed set fires when it is non-empty.
// Messages without the deleted flag are untouched.
func (f *Folder) Expunge() ([]*ews.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.mode != ews.ModeReadWrite {
		return nil, errors.New("store: folder not open read-write")
	}
	return f.expungeLocked()
}

func (f *Folder) expungeLocked() ([]*ews.Message, error) {
	var removed []*ews.Message
	deleted := make(map[ewsclient.ItemID]bool)

	// The unread snapshot may hold separate Message instances for items
	// also present in the open snapshot; the deleted map keeps the remote
	// delete from running twice.
	for _, list := range []*[]*ews.Message{&f.unread, &f.messages} {
		msgs := *list
		// Backward, so removals keep the remaining index math stable.
		for i := len(msgs) - 1; i >= 0; i-- {
			msg := msgs[i]
			if !msg.Flags.Has(ews.FlagDeleted) {
				continue
			}
			id := msg.Item().ID
			if !deleted[id] {
				if err := f.store.client.DeleteItem(id, f.store.cfg.DeleteMode); err != nil {
					return removed, &ews.RemoteWriteError{
						Op:    fmt.Sprintf("delete item %s", id),
						Cause: err,
					}
				}
				deleted[id] = true
			}
			msgs = append(msgs[:i], msgs[i+1:]...)
			removed = append(removed, msg)
		}
		*list = msgs
	}

	if len(removed) > 0 {
		f.store.notifyMessagesRemoved(MessagesRemovedEvent{
			FolderID:   f.info.ID,
			FolderName: f.info.DisplayName,
			Messages:   removed,
		})
	}
	return removed, nil
}

// GetMessage returns the message at the 1-based position n of the open
// snapshot.
func (f *Folder) GetMessage(n int) (*ews.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.isOpenLocked() {
		return nil, errors.New("store: folder not open")
	}
	if n < 1 || n > len(f.messages) {
		return nil, fmt.Errorf("store: message number %d out of range [1, %d]", n, len(f.messages))
	}
	return f.messages[n-1], nil
}

// MessageCount returns the size of the open snapshot, or the remote total
// count when prefetching is disabled.
func (f *Folder) MessageCount() (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.isOpenLocked() {
		return 0, errors.New("store: folder not open")
	}
	if f.store.cfg.PrefetchItems {
		return len(f.messages), nil
	}
	return f.info.TotalCount, nil
}

// UnreadMessageCount counts unread items with a server-side read-state
// filter; message content is never fetched. The result is bounded by the
// configured page size.
func (f *Folder) UnreadMessageCount() (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.info == nil {
		return 0, errors.New("store: folder not resolved")
	}
	items, err := f.store.client.FindItems(f.info.ID, ewsclient.UnreadFilter{}, f.store.cfg.ItemViewMaxItems)
	if err != nil {
		return 0, &ews.RemoteFetchError{Op: fmt.Sprintf("count unread items of folder %q", f.name), Cause: err}
	}
	return len(items), nil
}

// HasNewMessages reports whether the folder received items since it was
// opened.
func (f *Folder) HasNewMessages() (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.isOpenLocked() {
		return false, errors.New("store: folder not open")
	}
	items, err := f.store.client.FindItems(f.info.ID, ewsclient.ReceivedSinceFilter{Since: f.openedAt}, f.store.cfg.ItemViewMaxItems)
	if err != nil {
		return false, &ews.RemoteFetchError{Op: fmt.Sprintf("find new items of folder %q", f.name), Cause: err}
	}
	return len(items) > 0, nil
}

// UnreadMessages populates the unread snapshot with a server-side unread
// query and returns it. max bounds the result; zero means the configured
// page size. Unlike the open prefetch, a conversion failure here aborts
// the call.
func (f *Folder) UnreadMessages(max int) ([]*ews.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.isOpenLocked() {
		return nil, errors.New("store: folder not open")
	}
	pageSize := f.store.cfg.ItemViewMaxItems
	if max > 0 && max < pageSize {
		pageSize = max
	}
	items, err := f.store.client.FindItems(f.info.ID, ewsclient.UnreadFilter{}, pageSize)
	if err != nil {
		return nil, &ews.RemoteFetchError{Op: fmt.Sprintf("find unread items of folder %q", f.name), Cause: err}
	}
	conv := ews.NewConverter(f.store.client)
	unread := make([]*ews.Message, 0, len(items))
	for _, item := range items {
		msg, err := conv.ToMessage(item, len(unread)+1)
		if err != nil {
			return nil, err
		}
		unread = append(unread, msg)
	}
	f.unread = unread
	return unread, nil
}

// Search evaluates a search term. The only supported predicate is the
// unset seen flag, translated into a server-side unread query; every other
// term fails with UnsupportedSearchError.
func (f *Folder) Search(term ews.SearchTerm) ([]*ews.Message, error) {
	if ft, ok := term.(ews.FlagTerm); ok && ft.Flag == ews.FlagSeen && !ft.Set {
		return f.UnreadMessages(0)
	}
	return nil, &ews.UnsupportedSearchError{Term: fmt.Sprintf("%v", term)}
}

// List returns the direct child folders matching pattern. The "%" pattern
// (or the empty pattern) lists every child; any other pattern is matched
// by exact display-name equality on the server. Wildcard matching beyond
// the "%" sentinel is not supported.
func (f *Folder) List(pattern string) ([]*Folder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listLocked(pattern)
}

func (f *Folder) listLocked(pattern string) ([]*Folder, error) {
	ok, err := f.existsLocked()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &ews.FolderNotFoundError{Name: f.name}
	}
	var filter ewsclient.Filter
	if pattern != "" && pattern != ews.ListAllPattern {
		filter = ewsclient.DisplayNameFilter{Name: pattern}
	}
	infos, err := f.store.client.FindFolders(f.info.ID, filter, f.store.cfg.ItemViewMaxItems)
	if err != nil {
		return nil, &ews.RemoteFetchError{Op: fmt.Sprintf("list folders of %q", f.name), Cause: err}
	}
	folders := make([]*Folder, len(infos))
	for i, info := range infos {
		folders[i] = newBoundFolder(f.store, info)
	}
	return folders, nil
}

// Folder resolves the direct child with the given display name, failing
// with FolderNotFoundError when it does not exist.
func (f *Folder) Folder(name string) (*Folder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	children, err := f.listLocked(name)
	if err != nil {
		return nil, err
	}
	if len(children) == 0 {
		return nil, &ews.FolderNotFoundError{Name: name}
	}
	return children[0], nil
}

// Create creates the folder on the remote service under its parent.
func (f *Folder) Create() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.info != nil {
		return fmt.Errorf("store: folder %q already exists", f.name)
	}
	parent := f.parentID
	if parent == "" {
		root, err := f.store.DefaultFolder()
		if err != nil {
			return err
		}
		parent = root.ID()
	}
	info, err := f.store.client.CreateFolder(parent, f.name)
	if err != nil {
		return &ews.RemoteWriteError{Op: fmt.Sprintf("create folder %q", f.name), Cause: err}
	}
	f.info = info
	f.parentID = info.ParentID
	f.store.notifyFolderChange(FolderEvent{
		FolderID:   info.ID,
		FolderName: info.DisplayName,
		Type:       FolderCreated,
	})
	return nil
}

// Delete removes the folder. The folder must be closed. Without recurse
// the call refuses (returning false) when the folder still holds
// messages; with recurse every child folder is deleted first.
func (f *Folder) Delete(recurse bool) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.isOpenLocked() {
		return false, errors.New("store: folder not closed")
	}
	ok, err := f.existsLocked()
	if err != nil {
		return false, err
	}
	if !ok {
		return false, &ews.FolderNotFoundError{Name: f.name}
	}

	if recurse {
		children, err := f.listLocked(ews.ListAllPattern)
		if err != nil {
			return false, err
		}
		for _, child := range children {
			if _, err := child.Delete(true); err != nil {
				return false, err
			}
		}
	} else {
		info, err := f.store.client.Bind(f.info.ID)
		if err != nil {
			return false, &ews.RemoteFetchError{Op: fmt.Sprintf("bind folder %q", f.name), Cause: err}
		}
		if info.TotalCount > 0 {
			return false, nil
		}
	}

	id := f.info.ID
	name := f.info.DisplayName
	if err := f.store.client.DeleteFolder(id, f.store.cfg.DeleteMode); err != nil {
		return false, &ews.RemoteWriteError{Op: fmt.Sprintf("delete folder %q", name), Cause: err}
	}
	f.info = nil
	f.store.notifyFolderChange(FolderEvent{
		FolderID:   id,
		FolderName: name,
		Type:       FolderDeleted,
	})
	return true, nil
}

// Rename moves the folder under target, the remote service's rename
// operation. The folder must be closed.
func (f *Folder) Rename(target *Folder) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.isOpenLocked() {
		return errors.New("store: folder must be closed")
	}
	ok, err := f.existsLocked()
	if err != nil {
		return err
	}
	if !ok {
		return &ews.FolderNotFoundError{Name: f.name}
	}
	targetOK, err := target.Exists()
	if err != nil {
		return err
	}
	if !targetOK {
		return &ews.FolderNotFoundError{Name: target.Name()}
	}

	if err := f.store.client.MoveFolder(f.info.ID, target.ID()); err != nil {
		return &ews.RemoteWriteError{Op: fmt.Sprintf("move folder %q", f.name), Cause: err}
	}
	f.parentID = target.ID()
	f.info.ParentID = target.ID()
	f.store.notifyFolderChange(FolderEvent{
		FolderID:   f.info.ID,
		FolderName: f.info.DisplayName,
		Type:       FolderRenamed,
	})
	return nil
}

// Parent returns the parent folder, or nil for the hierarchy root.
func (f *Folder) Parent() (*Folder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ok, err := f.existsLocked()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &ews.FolderNotFoundError{Name: f.name}
	}
	if _, err := f.store.DefaultFolder(); err != nil {
		return nil, err
	}
	if f.info.ID == f.store.rootID {
		return nil, nil
	}
	info, err := f.store.client.Bind(f.info.ParentID)
	if err != nil {
		return nil, &ews.RemoteFetchError{Op: fmt.Sprintf("bind parent of folder %q", f.name), Cause: err}
	}
	return newBoundFolder(f.store, info), nil
}

// FullName returns the slash-separated path of the folder from the
// hierarchy root.
func (f *Folder) FullName() (string, error) {
	parent, err := f.Parent()
	if err != nil {
		return "", err
	}
	if parent == nil {
		return f.Name(), nil
	}
	prefix, err := parent.FullName()
	if err != nil {
		return "", err
	}
	return prefix + "/" + f.Name(), nil
}

// MoveFailedItemTo quarantines one item into a sibling folder so that a
// batch fetch pipeline can park an unprocessable item without losing the
// rest of the batch. The sibling is looked up by name under the folder's
// parent and created when absent.
func (f *Folder) MoveFailedItemTo(id ewsclient.ItemID, folderName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	ok, err := f.existsLocked()
	if err != nil {
		return err
	}
	if !ok {
		return &ews.FolderNotFoundError{Name: f.name}
	}

	infos, err := f.store.client.FindFolders(f.info.ParentID, ewsclient.DisplayNameFilter{Name: folderName}, f.store.cfg.ItemViewMaxItems)
	if err != nil {
		return &ews.RemoteFetchError{Op: fmt.Sprintf("find folder %q", folderName), Cause: err}
	}
	var target ewsclient.FolderID
	if len(infos) > 0 {
		f.store.log.Debugf("folder %q found", folderName)
		target = infos[0].ID
	} else {
		f.store.log.Warnf("creating folder %q under %s", folderName, f.info.ParentID)
		info, err := f.store.client.CreateFolder(f.info.ParentID, folderName)
		if err != nil {
			return &ews.RemoteWriteError{Op: fmt.Sprintf("create folder %q", folderName), Cause: err}
		}
		target = info.ID
	}

	if err := f.store.client.MoveItems([]ewsclient.ItemID{id}, target); err != nil {
		return &ews.RemoteWriteError{Op: fmt.Sprintf("move item %s to folder %q", id, folderName), Cause: err}
	}
	return nil
}
