package transport_test

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/emersion/go-message"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ews "github.com/ewsmail/go-ews"
	"github.com/ewsmail/go-ews/ewsclient"
	"github.com/ewsmail/go-ews/ewsclient/ewstest"
	"github.com/ewsmail/go-ews/transport"
)

func newTestTransport(t *testing.T) (*transport.Transport, *ewstest.Client) {
	t.Helper()

	mailbox := ewstest.New()
	cfg := ews.DefaultConfig()
	cfg.VerifyConnectionOnConnect = false

	log := logrus.New()
	log.SetOutput(io.Discard)

	tr := transport.New(cfg, mailbox.Dialer())
	tr.SetLogger(log)
	require.NoError(t, tr.Connect("https://mail.example.org/ews", "user@example.org", "secret"))
	return tr, mailbox
}

func parseEntity(t *testing.T, raw string) *message.Entity {
	t.Helper()
	e, err := message.Read(strings.NewReader(raw))
	require.NoError(t, err)
	return e
}

const plainRaw = "From: Alice <alice@example.org>\r\n" +
	"To: bob@example.org, carol@example.org\r\n" +
	"Cc: dave@example.org\r\n" +
	"Subject: Status\r\n" +
	"Content-Type: text/plain\r\n" +
	"\r\n" +
	"All good.\r\n"

const mixedRaw = "From: alice@example.org\r\n" +
	"To: bob@example.org\r\n" +
	"Subject: Report\r\n" +
	"Content-Type: multipart/mixed; boundary=frontier\r\n" +
	"\r\n" +
	"--frontier\r\n" +
	"Content-Type: text/plain\r\n" +
	"\r\n" +
	"Please find the report attached.\r\n" +
	"--frontier\r\n" +
	"Content-Type: application/pdf; name=\"report.pdf\"\r\n" +
	"Content-Disposition: attachment; filename=\"report.pdf\"\r\n" +
	"\r\n" +
	"%PDF-1.4\r\n" +
	"--frontier\r\n" +
	"Content-Type: image/png\r\n" +
	"Content-ID: <logo@example.org>\r\n" +
	"\r\n" +
	"PNGDATA\r\n" +
	"--frontier--\r\n"

func TestSendPlainText(t *testing.T) {
	tr, mailbox := newTestTransport(t)

	require.NoError(t, tr.Send(parseEntity(t, plainRaw), nil, nil, nil))

	require.Len(t, mailbox.Sent, 1)
	sent := mailbox.Sent[0]
	assert.True(t, sent.SaveCopy)

	msg := sent.Msg
	assert.Equal(t, "Status", msg.Subject)
	require.NotNil(t, msg.From)
	assert.Equal(t, ewsclient.EmailAddress{Name: "Alice", Address: "alice@example.org"}, *msg.From)
	assert.Equal(t, []ewsclient.EmailAddress{
		{Address: "bob@example.org"},
		{Address: "carol@example.org"},
	}, msg.ToRecipients)
	assert.Equal(t, []ewsclient.EmailAddress{{Address: "dave@example.org"}}, msg.CcRecipients)
	assert.Empty(t, msg.BccRecipients)
	assert.Equal(t, ewsclient.BodyTypeText, msg.Body.Type)
	assert.Equal(t, "All good.\r\n", msg.Body.Content)
	assert.Empty(t, msg.Attachments)
}

func TestSendExplicitRecipientsReplaceHeader(t *testing.T) {
	tr, mailbox := newTestTransport(t)

	explicit := []ews.Address{{Addr: "erin@example.org"}}
	require.NoError(t, tr.Send(parseEntity(t, plainRaw), explicit, nil, nil))

	require.Len(t, mailbox.Sent, 1)
	msg := mailbox.Sent[0].Msg
	// The explicit To list wins entirely; the header addresses are not
	// merged in. The untouched Cc role still falls back to its header.
	assert.Equal(t, []ewsclient.EmailAddress{{Address: "erin@example.org"}}, msg.ToRecipients)
	assert.Equal(t, []ewsclient.EmailAddress{{Address: "dave@example.org"}}, msg.CcRecipients)
}

func TestSendWithoutFromUsesAccountIdentity(t *testing.T) {
	tr, mailbox := newTestTransport(t)

	raw := "To: bob@example.org\r\n" +
		"Subject: Hi\r\n" +
		"Content-Type: text/plain\r\n" +
		"\r\n" +
		"Hello\r\n"
	require.NoError(t, tr.Send(parseEntity(t, raw), nil, nil, nil))

	require.Len(t, mailbox.Sent, 1)
	assert.Nil(t, mailbox.Sent[0].Msg.From)
}

func TestSendMultipartMixed(t *testing.T) {
	tr, mailbox := newTestTransport(t)

	require.NoError(t, tr.Send(parseEntity(t, mixedRaw), nil, nil, nil))

	require.Len(t, mailbox.Sent, 1)
	msg := mailbox.Sent[0].Msg

	assert.Equal(t, ewsclient.BodyTypeText, msg.Body.Type)
	assert.Equal(t, "Please find the report attached.", msg.Body.Content)

	require.Len(t, msg.Attachments, 2)

	pdf := msg.Attachments[0]
	assert.Equal(t, "report.pdf", pdf.Name)
	assert.Equal(t, "application/pdf", pdf.ContentType)
	assert.False(t, pdf.Inline)
	assert.Equal(t, []byte("%PDF-1.4"), pdf.Content)

	logo := msg.Attachments[1]
	assert.True(t, logo.Inline)
	assert.Equal(t, "logo@example.org", logo.ContentID)
	assert.Equal(t, []byte("PNGDATA"), logo.Content)
}

func TestSendUnnamedAttachmentGetsPositionalName(t *testing.T) {
	tr, mailbox := newTestTransport(t)

	raw := "Subject: Data\r\n" +
		"Content-Type: multipart/mixed; boundary=b\r\n" +
		"\r\n" +
		"--b\r\n" +
		"Content-Type: text/plain\r\n" +
		"\r\n" +
		"see attachment\r\n" +
		"--b\r\n" +
		"Content-Type: application/octet-stream\r\n" +
		"\r\n" +
		"DATA\r\n" +
		"--b--\r\n"
	require.NoError(t, tr.Send(parseEntity(t, raw), []ews.Address{{Addr: "bob@example.org"}}, nil, nil))

	require.Len(t, mailbox.Sent, 1)
	atts := mailbox.Sent[0].Msg.Attachments
	require.Len(t, atts, 1)
	assert.Equal(t, "1", atts[0].Name)
}

func TestSendAlternativePrefersHTML(t *testing.T) {
	tr, mailbox := newTestTransport(t)

	raw := "To: bob@example.org\r\n" +
		"Subject: Fancy\r\n" +
		"Content-Type: multipart/alternative; boundary=alt\r\n" +
		"\r\n" +
		"--alt\r\n" +
		"Content-Type: text/plain\r\n" +
		"\r\n" +
		"plain fallback\r\n" +
		"--alt\r\n" +
		"Content-Type: text/html\r\n" +
		"\r\n" +
		"<p>rich</p>\r\n" +
		"--alt--\r\n"
	require.NoError(t, tr.Send(parseEntity(t, raw), nil, nil, nil))

	require.Len(t, mailbox.Sent, 1)
	body := mailbox.Sent[0].Msg.Body
	assert.Equal(t, ewsclient.BodyTypeHTML, body.Type)
	assert.Equal(t, "<p>rich</p>", body.Content)
}

func TestSendAlternativePlainFallback(t *testing.T) {
	tr, mailbox := newTestTransport(t)

	raw := "To: bob@example.org\r\n" +
		"Subject: Plain\r\n" +
		"Content-Type: multipart/alternative; boundary=alt\r\n" +
		"\r\n" +
		"--alt\r\n" +
		"Content-Type: text/plain\r\n" +
		"\r\n" +
		"only text\r\n" +
		"--alt--\r\n"
	require.NoError(t, tr.Send(parseEntity(t, raw), nil, nil, nil))

	require.Len(t, mailbox.Sent, 1)
	body := mailbox.Sent[0].Msg.Body
	assert.Equal(t, ewsclient.BodyTypeText, body.Type)
	assert.Equal(t, "only text", body.Content)
}

func TestSendNonHTMLTextHandledAsHTML(t *testing.T) {
	tr, mailbox := newTestTransport(t)

	raw := "To: bob@example.org\r\n" +
		"Subject: Enriched\r\n" +
		"Content-Type: text/enriched\r\n" +
		"\r\n" +
		"<bold>hi</bold>\r\n"
	require.NoError(t, tr.Send(parseEntity(t, raw), nil, nil, nil))

	require.Len(t, mailbox.Sent, 1)
	assert.Equal(t, ewsclient.BodyTypeHTML, mailbox.Sent[0].Msg.Body.Type)
}

func TestSendPermissionDenied(t *testing.T) {
	tr, mailbox := newTestTransport(t)
	mailbox.SendErr = errors.New("ErrorSendAsDenied: The user account which was used to submit this request does not have the right to send mail on behalf of the specified sending account., Cannot submit message.")

	err := tr.Send(parseEntity(t, plainRaw), nil, nil, nil)

	var permErr *ews.SendPermissionError
	require.ErrorAs(t, err, &permErr)
	assert.Equal(t, ews.Address{Name: "Alice", Addr: "alice@example.org"}, permErr.From)
	assert.Equal(t, []ews.Address{
		{Addr: "bob@example.org"},
		{Addr: "carol@example.org"},
		{Addr: "dave@example.org"},
	}, permErr.Recipients)
	assert.ErrorIs(t, err, mailbox.SendErr)
}

func TestSendOtherFailure(t *testing.T) {
	tr, mailbox := newTestTransport(t)
	mailbox.SendErr = errors.New("mailbox quota exceeded")

	err := tr.Send(parseEntity(t, plainRaw), nil, nil, nil)

	var writeErr *ews.RemoteWriteError
	require.ErrorAs(t, err, &writeErr)
	assert.ErrorIs(t, err, mailbox.SendErr)
}

func TestSendSaveCopyToggle(t *testing.T) {
	mailbox := ewstest.New()
	cfg := ews.DefaultConfig()
	cfg.VerifyConnectionOnConnect = false
	cfg.SendAndSaveCopy = false

	log := logrus.New()
	log.SetOutput(io.Discard)

	tr := transport.New(cfg, mailbox.Dialer())
	tr.SetLogger(log)
	require.NoError(t, tr.Connect("https://mail.example.org/ews", "user@example.org", "secret"))

	require.NoError(t, tr.Send(parseEntity(t, plainRaw), nil, nil, nil))
	require.Len(t, mailbox.Sent, 1)
	assert.False(t, mailbox.Sent[0].SaveCopy)
}

func TestSendNotConnected(t *testing.T) {
	tr := transport.New(nil, ewstest.New().Dialer())
	assert.Error(t, tr.Send(parseEntity(t, plainRaw), nil, nil, nil))
}

func TestCloseReleasesSession(t *testing.T) {
	tr, mailbox := newTestTransport(t)
	require.NoError(t, tr.Close())
	assert.True(t, mailbox.Closed())
	assert.NoError(t, tr.Close())
}
