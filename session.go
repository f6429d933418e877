package ews

import (
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/ewsmail/go-ews/ewsclient"
)

// Connect dials an authenticated remote session with the connection
// parameters from cfg. When cfg asks for verification the inbox is bound
// once to validate the credentials; a failure there closes the session and
// surfaces as AuthenticationError. Both the store and the transport
// connect through this function.
func Connect(dial ewsclient.Dialer, cfg *Config, log logrus.FieldLogger, host, username, password string) (ewsclient.Client, error) {
	if username == "" || password == "" {
		return nil, &AuthenticationError{Cause: errors.New("missing credentials")}
	}

	client, err := dial(ewsclient.Options{
		URL:      host,
		Username: username,
		Password: password,
		Version:  cfg.ExchangeVersion,
		Timeout:  cfg.ConnectionTimeout,
		Trace:    cfg.EnableServiceTrace,
	})
	if err != nil {
		return nil, &AuthenticationError{Cause: err}
	}

	if cfg.VerifyConnectionOnConnect {
		log.Debug("verifying connection settings")
		if _, err := client.BindWellKnown(ewsclient.WellKnownInbox); err != nil {
			_ = client.Close()
			return nil, &AuthenticationError{Cause: err}
		}
		log.Info("connection settings verified")
	} else {
		log.Info("connection settings not verified yet")
	}
	return client, nil
}
