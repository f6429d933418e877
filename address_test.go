package ews_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	ews "github.com/ewsmail/go-ews"
	"github.com/ewsmail/go-ews/ewsclient"
)

func TestAddressString(t *testing.T) {
	tests := []struct {
		name string
		addr ews.Address
		want string
	}{
		{"with personal name", ews.Address{Name: "Alice", Addr: "alice@example.org"}, "Alice <alice@example.org>"},
		{"quoted personal name", ews.Address{Name: "Alice B.", Addr: "alice@example.org"}, `"Alice B." <alice@example.org>`},
		{"literal only", ews.Address{Addr: "alice@example.org"}, "<alice@example.org>"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.want, test.addr.String())
		})
	}
}

func TestAddressFromRemote(t *testing.T) {
	tests := []struct {
		name   string
		remote ewsclient.EmailAddress
		want   ews.Address
	}{
		{"both fields", ewsclient.EmailAddress{Name: "Alice", Address: "alice@example.org"}, ews.Address{Name: "Alice", Addr: "alice@example.org"}},
		{"empty name stays empty", ewsclient.EmailAddress{Address: "alice@example.org"}, ews.Address{Addr: "alice@example.org"}},
		{"whitespace trimmed", ewsclient.EmailAddress{Name: " Alice ", Address: " alice@example.org "}, ews.Address{Name: "Alice", Addr: "alice@example.org"}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.want, ews.AddressFromRemote(test.remote))
		})
	}
}

func TestAddressesRoundTrip(t *testing.T) {
	remote := []ewsclient.EmailAddress{
		{Name: "Alice", Address: "alice@example.org"},
		{Address: "bob@example.org"},
	}

	addrs := ews.AddressesFromRemote(remote)
	assert.Equal(t, remote, ews.AddressesToRemote(addrs))

	assert.Nil(t, ews.AddressesFromRemote(nil))
	assert.Nil(t, ews.AddressesToRemote(nil))
}
