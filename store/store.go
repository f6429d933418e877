// Package store implements the session side of the bridge: a Store owning
// one authenticated remote client, and Folders exposing the remote folder
// hierarchy with prefetched message snapshots, flag synchronization and
// expunge semantics.
//
// The model is synchronous blocking I/O. A Store and its Folders perform
// no retries and share no state with other Store instances; two stores
// opened on the same mailbox race at the remote service, which arbitrates
// last-write-wins.
package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	ews "github.com/ewsmail/go-ews"
	"github.com/ewsmail/go-ews/ewsclient"
)

// Store resolves folder names against one authenticated remote session.
type Store struct {
	cfg  *ews.Config
	dial ewsclient.Dialer
	log  logrus.FieldLogger

	client   ewsclient.Client
	username string

	defaultFolder *Folder
	rootID        ewsclient.FolderID

	listeners listeners
}

// New returns an unconnected store. A nil cfg selects the defaults.
func New(cfg *ews.Config, dial ewsclient.Dialer) *Store {
	if cfg == nil {
		cfg = ews.DefaultConfig()
	}
	return &Store{
		cfg:  cfg,
		dial: dial,
		log:  logrus.StandardLogger(),
	}
}

// SetLogger replaces the store's logger. It must be called before Connect.
func (s *Store) SetLogger(log logrus.FieldLogger) {
	s.log = log
}

// Connect establishes the authenticated remote session. When the
// configuration asks for it, the connection is verified by binding the
// inbox once; a verification failure surfaces as AuthenticationError.
//
// Connecting an already connected store is not supported and returns an
// error; close the store first.
func (s *Store) Connect(host, username, password string) error {
	if s.client != nil {
		return errors.New("store: already connected")
	}
	client, err := ews.Connect(s.dial, s.cfg, s.log, host, username, password)
	if err != nil {
		return err
	}
	s.client = client
	s.username = username
	return nil
}

// Connected reports whether the store holds an authenticated session.
func (s *Store) Connected() bool { return s.client != nil }

// Username returns the authenticated account name.
func (s *Store) Username() string { return s.username }

// Client exposes the underlying remote client.
func (s *Store) Client() ewsclient.Client { return s.client }

// Config returns the configuration the store was built with.
func (s *Store) Config() *ews.Config { return s.cfg }

// Close releases the remote session. The store can be connected again
// afterwards.
func (s *Store) Close() error {
	if s.client == nil {
		return nil
	}
	err := s.client.Close()
	s.client = nil
	s.username = ""
	s.defaultFolder = nil
	s.rootID = ""
	return err
}

// DefaultFolder returns the root of the mailbox folder hierarchy. The
// folder instance is memoized for the lifetime of the session.
func (s *Store) DefaultFolder() (*Folder, error) {
	if s.client == nil {
		return nil, errors.New("store: not connected")
	}
	if s.defaultFolder != nil {
		return s.defaultFolder, nil
	}
	info, err := s.client.BindWellKnown(ewsclient.WellKnownRoot)
	if err != nil {
		return nil, &ews.RemoteFetchError{Op: "bind root folder", Cause: err}
	}
	s.rootID = info.ID
	s.defaultFolder = newBoundFolder(s, info)
	return s.defaultFolder, nil
}

// Folder resolves a symbolic folder name. An exact (case-insensitive)
// well-known folder name takes priority; any other name is treated as a
// literal display name under the default folder and is resolved lazily on
// the first Exists or Open call. The empty name resolves to the default
// folder.
func (s *Store) Folder(name string) (*Folder, error) {
	if s.client == nil {
		return nil, errors.New("store: not connected")
	}
	if name == "" {
		return s.DefaultFolder()
	}
	if wk, ok := ewsclient.ParseWellKnownFolder(name); ok {
		s.log.Debugf("opening well-known folder matching %q", name)
		info, err := s.client.BindWellKnown(wk)
		if err != nil {
			return nil, &ews.RemoteFetchError{Op: fmt.Sprintf("bind well-known folder %s", wk), Cause: err}
		}
		return newBoundFolder(s, info), nil
	}
	root, err := s.DefaultFolder()
	if err != nil {
		return nil, err
	}
	return newNamedFolder(s, name, root.ID()), nil
}

// FolderByURL resolves a slash-separated folder path segment by segment,
// starting at the default folder. Resolution fails with
// FolderNotFoundError on the first unresolved segment; no partial result
// is ever returned.
func (s *Store) FolderByURL(path string) (*Folder, error) {
	current, err := s.DefaultFolder()
	if err != nil {
		return nil, err
	}
	for _, part := range strings.Split(path, "/") {
		if part == "" {
			continue
		}
		current, err = current.Folder(part)
		if err != nil {
			return nil, err
		}
	}
	return current, nil
}
