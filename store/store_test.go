package store_test

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ews "github.com/ewsmail/go-ews"
	"github.com/ewsmail/go-ews/ewsclient"
	"github.com/ewsmail/go-ews/ewsclient/ewstest"
	"github.com/ewsmail/go-ews/store"
)

const sampleRaw = "From: alice@example.org\r\n" +
	"To: bob@example.org\r\n" +
	"Subject: Greetings\r\n" +
	"Content-Type: text/plain\r\n" +
	"\r\n" +
	"Hello Bob\r\n"

func newTestStore(t *testing.T) (*store.Store, *ewstest.Client) {
	t.Helper()

	mailbox := ewstest.New()
	cfg := ews.DefaultConfig()
	cfg.VerifyConnectionOnConnect = false

	log := logrus.New()
	log.SetOutput(io.Discard)

	st := store.New(cfg, mailbox.Dialer())
	st.SetLogger(log)
	require.NoError(t, st.Connect("https://mail.example.org/ews", "user@example.org", "secret"))
	return st, mailbox
}

func TestConnectTwiceFails(t *testing.T) {
	st, _ := newTestStore(t)
	assert.Error(t, st.Connect("https://mail.example.org/ews", "user@example.org", "secret"))
}

func TestCloseReleasesSession(t *testing.T) {
	st, mailbox := newTestStore(t)

	require.NoError(t, st.Close())
	assert.True(t, mailbox.Closed())
	assert.False(t, st.Connected())
	assert.Empty(t, st.Username())

	// Closing again is a no-op.
	assert.NoError(t, st.Close())
}

func TestDefaultFolderIsMemoized(t *testing.T) {
	st, _ := newTestStore(t)

	first, err := st.DefaultFolder()
	require.NoError(t, err)
	second, err := st.DefaultFolder()
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, "Top of Information Store", first.Name())
}

func TestFolderResolvesWellKnownNames(t *testing.T) {
	st, mailbox := newTestStore(t)

	tests := []struct {
		name string
		want ewsclient.WellKnownFolder
	}{
		{"Inbox", ewsclient.WellKnownInbox},
		{"INBOX", ewsclient.WellKnownInbox},
		{"  inbox  ", ewsclient.WellKnownInbox},
		{"sentitems", ewsclient.WellKnownSentItems},
		{"DeletedItems", ewsclient.WellKnownDeletedItems},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			f, err := st.Folder(test.name)
			require.NoError(t, err)
			assert.Equal(t, mailbox.WellKnownID(test.want), f.ID())
		})
	}
}

func TestFolderResolvesDisplayNamesLazily(t *testing.T) {
	st, mailbox := newTestStore(t)

	f, err := st.Folder("Projects")
	require.NoError(t, err)
	// Nothing is bound until the folder is used.
	assert.Equal(t, ewsclient.FolderID(""), f.ID())

	ok, err := f.Exists()
	require.NoError(t, err)
	assert.False(t, ok)

	id := mailbox.AddFolder(mailbox.WellKnownID(ewsclient.WellKnownRoot), "Projects")
	ok, err = f.Exists()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, id, f.ID())
}

func TestFolderEmptyNameIsDefault(t *testing.T) {
	st, _ := newTestStore(t)

	f, err := st.Folder("")
	require.NoError(t, err)
	def, err := st.DefaultFolder()
	require.NoError(t, err)
	assert.Same(t, def, f)
}

func TestFolderByURL(t *testing.T) {
	st, mailbox := newTestStore(t)

	root := mailbox.WellKnownID(ewsclient.WellKnownRoot)
	projects := mailbox.AddFolder(root, "Projects")
	year := mailbox.AddFolder(projects, "2024")

	f, err := st.FolderByURL("Projects/2024")
	require.NoError(t, err)
	assert.Equal(t, year, f.ID())

	// Leading and trailing separators are tolerated.
	f, err = st.FolderByURL("/Projects/2024/")
	require.NoError(t, err)
	assert.Equal(t, year, f.ID())
}

func TestFolderByURLNotFound(t *testing.T) {
	st, mailbox := newTestStore(t)
	mailbox.AddFolder(mailbox.WellKnownID(ewsclient.WellKnownRoot), "Projects")

	_, err := st.FolderByURL("Projects/Nope")
	var notFound *ews.FolderNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "Nope", notFound.Name)
}
