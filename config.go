package ews

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/ewsmail/go-ews/ewsclient"
)

// Config collects every tunable of the bridge. It is built once and handed
// to the store and transport at construction time; there is no ambient
// global configuration.
type Config struct {
	// ItemViewMaxItems bounds the page size of every find call.
	ItemViewMaxItems int

	// ConflictResolution is applied to item updates written back on
	// folder close.
	ConflictResolution ewsclient.ConflictResolution

	// DeleteMode is applied to item and folder deletions.
	DeleteMode ewsclient.DeleteMode

	// PrefetchItems makes Folder.Open materialize the message snapshot
	// eagerly with a single bounded find call.
	PrefetchItems bool

	// SendAndSaveCopy stores a copy of every sent message in the
	// sent-items folder.
	SendAndSaveCopy bool

	// VerifyConnectionOnConnect binds the inbox once during connect to
	// validate the credentials.
	VerifyConnectionOnConnect bool

	// EnableServiceTrace turns on request/response tracing in the remote
	// client, when supported.
	EnableServiceTrace bool

	// ExchangeVersion pins the remote protocol version; empty selects the
	// client default.
	ExchangeVersion string

	// ConnectionTimeout is passed through to the remote client. It is not
	// enforced by this layer.
	ConnectionTimeout time.Duration
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() *Config {
	return &Config{
		ItemViewMaxItems:          50,
		ConflictResolution:        ewsclient.ConflictAutoResolve,
		DeleteMode:                ewsclient.MoveToDeletedItems,
		PrefetchItems:             true,
		SendAndSaveCopy:           true,
		VerifyConnectionOnConnect: true,
		EnableServiceTrace:        false,
		ExchangeVersion:           "",
		ConnectionTimeout:         30 * time.Second,
	}
}

// LoadConfig builds a Config from an optional config file and the
// environment. Environment variables use the EWS_ prefix with the setting
// name upper-cased (EWS_ITEMVIEWMAXITEMS and so on) and override file
// values; unset keys fall back to DefaultConfig.
func LoadConfig(path string) (*Config, error) {
	def := DefaultConfig()

	v := viper.New()
	v.SetDefault("itemviewmaxitems", def.ItemViewMaxItems)
	v.SetDefault("conflictresolution", string(def.ConflictResolution))
	v.SetDefault("deletemode", string(def.DeleteMode))
	v.SetDefault("prefetchitems", def.PrefetchItems)
	v.SetDefault("sendandsavecopy", def.SendAndSaveCopy)
	v.SetDefault("verifyconnectiononconnect", def.VerifyConnectionOnConnect)
	v.SetDefault("enableservicetrace", def.EnableServiceTrace)
	v.SetDefault("exchangeversion", def.ExchangeVersion)
	v.SetDefault("connectiontimeout", def.ConnectionTimeout)

	v.SetEnvPrefix("EWS")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("ews: reading config %q: %w", path, err)
		}
	}

	cfg := &Config{
		ItemViewMaxItems:          v.GetInt("itemviewmaxitems"),
		ConflictResolution:        ewsclient.ConflictResolution(v.GetString("conflictresolution")),
		DeleteMode:                ewsclient.DeleteMode(v.GetString("deletemode")),
		PrefetchItems:             v.GetBool("prefetchitems"),
		SendAndSaveCopy:           v.GetBool("sendandsavecopy"),
		VerifyConnectionOnConnect: v.GetBool("verifyconnectiononconnect"),
		EnableServiceTrace:        v.GetBool("enableservicetrace"),
		ExchangeVersion:           v.GetString("exchangeversion"),
		ConnectionTimeout:         v.GetDuration("connectiontimeout"),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.ItemViewMaxItems <= 0 {
		return fmt.Errorf("ews: ItemViewMaxItems must be positive, got %d", c.ItemViewMaxItems)
	}
	switch c.ConflictResolution {
	case ewsclient.ConflictNeverOverwrite, ewsclient.ConflictAutoResolve, ewsclient.ConflictAlwaysOverwrite:
	default:
		return fmt.Errorf("ews: unknown conflict resolution %q", c.ConflictResolution)
	}
	switch c.DeleteMode {
	case ewsclient.HardDelete, ewsclient.SoftDelete, ewsclient.MoveToDeletedItems:
	default:
		return fmt.Errorf("ews: unknown delete mode %q", c.DeleteMode)
	}
	return nil
}
