// Package transport implements the outbound side of the bridge: it walks
// the MIME tree of an outgoing message, builds the remote body and
// attachment collection, resolves the recipient lists and submits the send
// call.
package transport

import (
	"errors"
	"fmt"
	"strings"

	"github.com/emersion/go-message"
	"github.com/emersion/go-message/mail"
	"github.com/sirupsen/logrus"

	ews "github.com/ewsmail/go-ews"
	"github.com/ewsmail/go-ews/ewsclient"
)

// sendOnBehalfDenied is the fixed substring the remote service puts into
// the error message when the authenticated account may not send on behalf
// of the From address.
const sendOnBehalfDenied = "does not have the right to send mail on behalf"

// Transport sends outgoing messages through one authenticated remote
// session.
type Transport struct {
	cfg  *ews.Config
	dial ewsclient.Dialer
	log  logrus.FieldLogger

	client   ewsclient.Client
	username string
}

// New returns an unconnected transport. A nil cfg selects the defaults.
func New(cfg *ews.Config, dial ewsclient.Dialer) *Transport {
	if cfg == nil {
		cfg = ews.DefaultConfig()
	}
	return &Transport{
		cfg:  cfg,
		dial: dial,
		log:  logrus.StandardLogger(),
	}
}

// SetLogger replaces the transport's logger. It must be called before
// Connect.
func (t *Transport) SetLogger(log logrus.FieldLogger) {
	t.log = log
}

// Connect establishes the authenticated remote session.
func (t *Transport) Connect(host, username, password string) error {
	if t.client != nil {
		return errors.New("transport: already connected")
	}
	client, err := ews.Connect(t.dial, t.cfg, t.log, host, username, password)
	if err != nil {
		return err
	}
	t.client = client
	t.username = username
	return nil
}

// Close releases the remote session.
func (t *Transport) Close() error {
	if t.client == nil {
		return nil
	}
	err := t.client.Close()
	t.client = nil
	t.username = ""
	return err
}

// Send maps the MIME entity onto a remote message and submits it.
//
// Recipients resolve per role: a non-empty explicit list fully replaces
// the addresses of the corresponding header, while an empty one falls back
// to them. The two sources are never merged. Whether a copy is saved to
// sent items is a configuration toggle, not a per-call choice.
//
// A rejection because the account may not send on behalf of the From
// address is returned as SendPermissionError carrying the sender and the
// full recipient list; any other send failure is a RemoteWriteError.
func (t *Transport) Send(e *message.Entity, to, cc, bcc []ews.Address) error {
	if t.client == nil {
		return errors.New("transport: not connected")
	}

	header := mail.Header{Header: e.Header}

	to, err := resolveRecipients(header, "To", to)
	if err != nil {
		return err
	}
	cc, err = resolveRecipients(header, "Cc", cc)
	if err != nil {
		return err
	}
	bcc, err = resolveRecipients(header, "Bcc", bcc)
	if err != nil {
		return err
	}

	from, err := fromAddress(header)
	if err != nil {
		return err
	}

	subject, err := header.Subject()
	if err != nil {
		return fmt.Errorf("transport: reading subject: %w", err)
	}

	out := &ewsclient.OutgoingMessage{
		ToRecipients:  ews.AddressesToRemote(to),
		CcRecipients:  ews.AddressesToRemote(cc),
		BccRecipients: ews.AddressesToRemote(bcc),
		Subject:       subject,
	}
	if from != nil {
		t.log.Debugf("sending on behalf of %s", from.Addr)
		ea := from.Remote()
		out.From = &ea
	}
	for _, a := range to {
		t.log.Infof("adding address %s as To recipient", a)
	}
	for _, a := range cc {
		t.log.Infof("adding address %s as Cc recipient", a)
	}
	for _, a := range bcc {
		t.log.Infof("adding address %s as Bcc recipient", a)
	}

	c := &composer{msg: out, log: t.log}
	body, err := c.walk(e)
	if err != nil {
		return err
	}
	out.Body = body

	if err := t.client.Send(out, t.cfg.SendAndSaveCopy); err != nil {
		if strings.Contains(err.Error(), sendOnBehalfDenied) {
			sender := ews.Address{Addr: t.username}
			if from != nil {
				sender = *from
			}
			var recipients []ews.Address
			recipients = append(recipients, to...)
			recipients = append(recipients, cc...)
			recipients = append(recipients, bcc...)
			return &ews.SendPermissionError{
				From:       sender,
				Recipients: recipients,
				Cause:      err,
			}
		}
		return &ews.RemoteWriteError{Op: "send message", Cause: err}
	}
	return nil
}

// resolveRecipients applies the replace-not-merge rule of one recipient
// role: explicit addresses win entirely when present, header addresses are
// used only when no explicit addresses were given.
func resolveRecipients(header mail.Header, key string, explicit []ews.Address) ([]ews.Address, error) {
	if len(explicit) > 0 {
		return explicit, nil
	}
	if !header.Has(key) {
		return nil, nil
	}
	list, err := header.AddressList(key)
	if err != nil {
		return nil, fmt.Errorf("transport: parsing %s header: %w", key, err)
	}
	return ews.AddressesFromMail(list), nil
}

// fromAddress returns the first From header address, or nil when the
// message carries none; the remote service then uses the authenticated
// identity.
func fromAddress(header mail.Header) (*ews.Address, error) {
	if !header.Has("From") {
		return nil, nil
	}
	list, err := header.AddressList("From")
	if err != nil {
		return nil, fmt.Errorf("transport: parsing From header: %w", err)
	}
	addrs := ews.AddressesFromMail(list)
	if len(addrs) == 0 {
		return nil, nil
	}
	return &addrs[0], nil
}
