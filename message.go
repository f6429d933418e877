package ews

import (
	"bytes"
	"time"

	"github.com/emersion/go-message"

	// Register extended charsets so non-UTF-8 bodies decode.
	_ "github.com/emersion/go-message/charset"

	"github.com/ewsmail/go-ews/ewsclient"
)

// Message is the generic in-memory representation of one mail message:
// parsed header values, a flag set, the raw MIME serialization and a
// back-reference to the remote item it was converted from.
//
// Messages are created by a Converter during folder open or an unread
// search and are dropped when the folder closes or reopens.
type Message struct {
	// SeqNum is the 1-based position of the message within the folder's
	// open snapshot. It is only stable within one open session and is
	// reassigned on every open.
	SeqNum int

	From *Address
	To   []Address
	Cc   []Address
	Bcc  []Address

	Subject string

	SentAt     time.Time
	ReceivedAt time.Time

	// Flags is mutable; the seen flag is written back to the remote item
	// when the owning folder closes read-write.
	Flags FlagSet

	item       *ewsclient.ItemInfo
	raw        []byte
	seenAtLoad bool
}

// Item returns the remote item the message was converted from.
func (m *Message) Item() *ewsclient.ItemInfo { return m.item }

// Raw returns the full MIME serialization of the message.
func (m *Message) Raw() []byte { return m.raw }

// Entity parses the raw content into a MIME entity. Each call returns a
// fresh entity whose body reads from the start.
func (m *Message) Entity() (*message.Entity, error) {
	e, err := message.Read(bytes.NewReader(m.raw))
	if err != nil && !message.IsUnknownCharset(err) {
		return nil, err
	}
	return e, nil
}

// SeenModified reports whether the seen flag differs from the read state
// the remote item had when the message was loaded.
func (m *Message) SeenModified() bool {
	return m.Flags.Has(FlagSeen) != m.seenAtLoad
}
