package ews_test

import (
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ews "github.com/ewsmail/go-ews"
	"github.com/ewsmail/go-ews/ewsclient"
	"github.com/ewsmail/go-ews/ewsclient/ewstest"
)

func TestConnectMissingCredentials(t *testing.T) {
	mailbox := ewstest.New()
	cfg := ews.DefaultConfig()
	log := logrus.New()

	tests := []struct {
		name     string
		username string
		password string
	}{
		{"no username", "", "secret"},
		{"no password", "user@example.org", ""},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := ews.Connect(mailbox.Dialer(), cfg, log, "https://mail.example.org/ews", test.username, test.password)
			var authErr *ews.AuthenticationError
			assert.ErrorAs(t, err, &authErr)
		})
	}
}

func TestConnectDialFailure(t *testing.T) {
	cause := errors.New("endpoint unreachable")
	dial := func(ewsclient.Options) (ewsclient.Client, error) { return nil, cause }

	_, err := ews.Connect(dial, ews.DefaultConfig(), logrus.New(), "https://mail.example.org/ews", "user@example.org", "secret")
	var authErr *ews.AuthenticationError
	require.ErrorAs(t, err, &authErr)
	assert.ErrorIs(t, err, cause)
}

type failingBind struct {
	*ewstest.Client
}

func (f *failingBind) BindWellKnown(ewsclient.WellKnownFolder) (*ewsclient.FolderInfo, error) {
	return nil, errors.New("the account does not have permission to impersonate the requested user")
}

func TestConnectVerifyFailureClosesSession(t *testing.T) {
	mailbox := ewstest.New()
	dial := func(ewsclient.Options) (ewsclient.Client, error) {
		return &failingBind{Client: mailbox}, nil
	}

	_, err := ews.Connect(dial, ews.DefaultConfig(), logrus.New(), "https://mail.example.org/ews", "user@example.org", "secret")
	var authErr *ews.AuthenticationError
	require.ErrorAs(t, err, &authErr)
	assert.True(t, mailbox.Closed())
}

func TestConnectPassesOptions(t *testing.T) {
	cfg := ews.DefaultConfig()
	cfg.ExchangeVersion = "Exchange2010_SP2"
	cfg.VerifyConnectionOnConnect = false

	var got ewsclient.Options
	mailbox := ewstest.New()
	dial := func(opts ewsclient.Options) (ewsclient.Client, error) {
		got = opts
		return mailbox, nil
	}

	client, err := ews.Connect(dial, cfg, logrus.New(), "https://mail.example.org/ews", "user@example.org", "secret")
	require.NoError(t, err)
	assert.Same(t, mailbox, client)
	assert.Equal(t, "https://mail.example.org/ews", got.URL)
	assert.Equal(t, "user@example.org", got.Username)
	assert.Equal(t, "Exchange2010_SP2", got.Version)
	assert.Equal(t, cfg.ConnectionTimeout, got.Timeout)
}
