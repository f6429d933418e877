package ews

import (
	"bytes"
	"fmt"

	"github.com/emersion/go-message"

	"github.com/ewsmail/go-ews/ewsclient"
)

// Converter translates remote items into generic Messages. It is stateless
// per call and safe to reuse for every item of a folder.
type Converter struct {
	client ewsclient.Client
}

// NewConverter returns a converter fetching content through client.
func NewConverter(client ewsclient.Client) *Converter {
	return &Converter{client: client}
}

// ToMessage converts one remote item into a Message with the given
// sequence number.
//
// The full MIME content is fetched in a single call and parsed to validate
// its structure; the structured address, subject, date and flag fields of
// the remote item then take precedence over whatever the raw headers
// carry. Either a fully populated Message is returned or none at all.
func (c *Converter) ToMessage(item *ewsclient.ItemInfo, seqNum int) (*Message, error) {
	raw, err := c.client.LoadFullContent(item.ID)
	if err != nil {
		return nil, &RemoteFetchError{
			Op:    fmt.Sprintf("load content of item %s", item.ID),
			Cause: err,
		}
	}

	if _, err := message.Read(bytes.NewReader(raw)); err != nil && !message.IsUnknownCharset(err) {
		return nil, fmt.Errorf("ews: parsing content of item %s: %w", item.ID, err)
	}

	// The service reports messages without a subject; the generic header
	// is the empty string in that case, never absent.
	var subject string
	if item.Subject != nil {
		subject = *item.Subject
	}

	var from *Address
	if item.From != nil {
		a := AddressFromRemote(*item.From)
		from = &a
	}

	flags := NewFlagSet()
	if item.IsRead {
		flags.Add(FlagSeen)
	}
	if item.IsDraft {
		flags.Add(FlagDraft)
	}

	return &Message{
		SeqNum:     seqNum,
		From:       from,
		To:         AddressesFromRemote(item.ToRecipients),
		Cc:         AddressesFromRemote(item.CcRecipients),
		Bcc:        AddressesFromRemote(item.BccRecipients),
		Subject:    subject,
		SentAt:     item.DateTimeSent,
		ReceivedAt: item.DateTimeReceived,
		Flags:      flags,
		item:       item,
		raw:        raw,
		seenAtLoad: item.IsRead,
	}, nil
}
