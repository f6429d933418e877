package store

import (
	"sync"

	ews "github.com/ewsmail/go-ews"
	"github.com/ewsmail/go-ews/ewsclient"
)

// ConnectionEventType enumerates folder connection transitions.
type ConnectionEventType int

const (
	ConnectionOpened ConnectionEventType = iota + 1
	ConnectionClosed
)

// ConnectionEvent is published when a folder opens or closes.
type ConnectionEvent struct {
	FolderID   ewsclient.FolderID
	FolderName string
	Type       ConnectionEventType
}

// FolderEventType enumerates folder lifecycle changes.
type FolderEventType int

const (
	FolderCreated FolderEventType = iota + 1
	FolderDeleted
	FolderRenamed
)

// FolderEvent is published when a folder is created, deleted or moved.
type FolderEvent struct {
	FolderID   ewsclient.FolderID
	FolderName string
	Type       FolderEventType
}

// MessagesRemovedEvent is published once per expunge that removed at least
// one message, carrying the full removed set.
type MessagesRemovedEvent struct {
	FolderID   ewsclient.FolderID
	FolderName string
	Messages   []*ews.Message
}

// listeners fans events out to registered callbacks. Folders address it
// through the owning store by folder id; there is no listener state on the
// folders themselves.
type listeners struct {
	mu         sync.Mutex
	connection []func(ConnectionEvent)
	folder     []func(FolderEvent)
	removed    []func(MessagesRemovedEvent)
}

// OnConnection registers a callback for folder open/close events.
func (s *Store) OnConnection(fn func(ConnectionEvent)) {
	s.listeners.mu.Lock()
	defer s.listeners.mu.Unlock()
	s.listeners.connection = append(s.listeners.connection, fn)
}

// OnFolderChange registers a callback for folder create/delete/rename
// events.
func (s *Store) OnFolderChange(fn func(FolderEvent)) {
	s.listeners.mu.Lock()
	defer s.listeners.mu.Unlock()
	s.listeners.folder = append(s.listeners.folder, fn)
}

// OnMessagesRemoved registers a callback for expunge removals.
func (s *Store) OnMessagesRemoved(fn func(MessagesRemovedEvent)) {
	s.listeners.mu.Lock()
	defer s.listeners.mu.Unlock()
	s.listeners.removed = append(s.listeners.removed, fn)
}

func (s *Store) notifyConnection(e ConnectionEvent) {
	s.listeners.mu.Lock()
	fns := append(([]func(ConnectionEvent))(nil), s.listeners.connection...)
	s.listeners.mu.Unlock()
	for _, fn := range fns {
		fn(e)
	}
}

func (s *Store) notifyFolderChange(e FolderEvent) {
	s.listeners.mu.Lock()
	fns := append(([]func(FolderEvent))(nil), s.listeners.folder...)
	s.listeners.mu.Unlock()
	for _, fn := range fns {
		fn(e)
	}
}

func (s *Store) notifyMessagesRemoved(e MessagesRemovedEvent) {
	s.listeners.mu.Lock()
	fns := append(([]func(MessagesRemovedEvent))(nil), s.listeners.removed...)
	s.listeners.mu.Unlock()
	for _, fn := range fns {
		fn(e)
	}
}
