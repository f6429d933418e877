// Package ewsclient defines the remote mailbox service surface consumed by
// the store and transport layers: folder and item handles, search filters,
// and the Client interface that performs the actual service calls.
//
// The SOAP wire protocol itself is out of scope for this module; a Client
// implementation is expected to be provided by the embedding application
// (ewstest ships an in-memory one for tests and demos).
package ewsclient

import "time"

// FolderID is an opaque identifier for a folder on the remote service.
type FolderID string

// ItemID is an opaque identifier for a single item on the remote service.
type ItemID string

// WellKnownFolder names a distinguished folder of a mailbox. Matching
// against user-supplied names is case-insensitive, see ParseWellKnownFolder.
type WellKnownFolder string

const (
	WellKnownRoot         WellKnownFolder = "msgfolderroot"
	WellKnownInbox        WellKnownFolder = "inbox"
	WellKnownDrafts       WellKnownFolder = "drafts"
	WellKnownSentItems    WellKnownFolder = "sentitems"
	WellKnownDeletedItems WellKnownFolder = "deleteditems"
	WellKnownOutbox       WellKnownFolder = "outbox"
	WellKnownJunkEmail    WellKnownFolder = "junkemail"
)

var wellKnownFolders = []WellKnownFolder{
	WellKnownRoot,
	WellKnownInbox,
	WellKnownDrafts,
	WellKnownSentItems,
	WellKnownDeletedItems,
	WellKnownOutbox,
	WellKnownJunkEmail,
}

// ParseWellKnownFolder resolves name against the well-known folder
// enumeration, ignoring case and surrounding whitespace. The second return
// value reports whether name matched.
func ParseWellKnownFolder(name string) (WellKnownFolder, bool) {
	name = normalizeFolderName(name)
	for _, wk := range wellKnownFolders {
		if string(wk) == name {
			return wk, true
		}
	}
	return "", false
}

// DeleteMode selects how the remote service disposes of a deleted item or
// folder.
type DeleteMode string

const (
	// HardDelete removes the item permanently.
	HardDelete DeleteMode = "HardDelete"
	// SoftDelete moves the item to the dumpster, recoverable by the server.
	SoftDelete DeleteMode = "SoftDelete"
	// MoveToDeletedItems moves the item to the trash folder.
	MoveToDeletedItems DeleteMode = "MoveToDeletedItems"
)

// ConflictResolution selects the server-side strategy applied when an
// update races with a concurrent change.
type ConflictResolution string

const (
	ConflictNeverOverwrite  ConflictResolution = "NeverOverwrite"
	ConflictAutoResolve     ConflictResolution = "AutoResolve"
	ConflictAlwaysOverwrite ConflictResolution = "AlwaysOverwrite"
)

// EmailAddress is the remote service's address representation, with
// separate display-name and address-literal fields. Name may be empty.
type EmailAddress struct {
	Name    string
	Address string
}

// FolderInfo is the metadata snapshot returned when binding or finding a
// folder. It is a value fetched at bind time, not a live view.
type FolderInfo struct {
	ID          FolderID
	ParentID    FolderID
	DisplayName string

	TotalCount  int
	UnreadCount int
	ChildCount  int
}

// ItemInfo is the first-class property set of a single message item.
// Subject is a pointer because the service may report messages without a
// subject at all.
type ItemInfo struct {
	ID       ItemID
	ParentID FolderID

	Subject *string

	From          *EmailAddress
	ToRecipients  []EmailAddress
	CcRecipients  []EmailAddress
	BccRecipients []EmailAddress

	DateTimeSent     time.Time
	DateTimeReceived time.Time

	IsRead  bool
	IsDraft bool
}

// Client performs calls against the remote mailbox service. Every method
// blocks until the service responds or the implementation's configured
// timeout elapses; no retries are performed at this layer.
type Client interface {
	// Bind fetches fresh metadata for the folder with the given id.
	Bind(id FolderID) (*FolderInfo, error)
	// BindWellKnown fetches metadata for a distinguished folder.
	BindWellKnown(name WellKnownFolder) (*FolderInfo, error)

	// FindFolders searches the direct children of parent. A nil filter
	// matches every child. At most pageSize results are returned.
	FindFolders(parent FolderID, filter Filter, pageSize int) ([]*FolderInfo, error)
	// FindItems searches the items of a folder. A nil filter matches every
	// item. At most pageSize results are returned.
	FindItems(folder FolderID, filter Filter, pageSize int) ([]*ItemInfo, error)

	// LoadFullContent fetches the raw MIME serialization of an item.
	LoadFullContent(id ItemID) ([]byte, error)
	// UpdateItem writes the mutable item state (read flag) back to the
	// service using the given conflict resolution strategy.
	UpdateItem(item *ItemInfo, resolution ConflictResolution) error
	// DeleteItem removes an item using the given delete mode.
	DeleteItem(id ItemID, mode DeleteMode) error
	// MoveItems moves items into the target folder.
	MoveItems(ids []ItemID, target FolderID) error

	// CreateFolder creates a child folder under parent.
	CreateFolder(parent FolderID, displayName string) (*FolderInfo, error)
	// DeleteFolder removes a folder using the given delete mode.
	DeleteFolder(id FolderID, mode DeleteMode) error
	// MoveFolder reparents a folder under target.
	MoveFolder(id FolderID, target FolderID) error

	// Send submits an outgoing message. If saveCopy is set a copy is
	// stored in the sent-items folder.
	Send(msg *OutgoingMessage, saveCopy bool) error

	// Close releases the underlying connection. The client must not be
	// used afterwards.
	Close() error
}

// Options carries the connection parameters handed to a Dialer. Timeout is
// enforced by the Client implementation, not by the layers above it.
type Options struct {
	URL      string
	Username string
	Password string

	// Version pins the service protocol version; empty selects the
	// implementation default.
	Version string

	Timeout time.Duration

	// Trace enables request/response tracing in implementations that
	// support it.
	Trace bool
}

// A Dialer establishes an authenticated Client session.
type Dialer func(opts Options) (Client, error)
