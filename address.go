package ews

import (
	"strings"

	"github.com/emersion/go-message/mail"

	"github.com/ewsmail/go-ews/ewsclient"
)

// Address is the generic mail address representation: an optional display
// name and the address literal.
type Address struct {
	Name string
	Addr string
}

// String renders the address in RFC 5322 form.
func (a Address) String() string {
	ma := mail.Address{Name: a.Name, Address: a.Addr}
	return ma.String()
}

// AddressFromRemote maps a remote address object onto the generic type.
// Both fields are trimmed; a missing display name degrades to an
// address-literal-only value.
func AddressFromRemote(ea ewsclient.EmailAddress) Address {
	return Address{
		Name: strings.TrimSpace(ea.Name),
		Addr: strings.TrimSpace(ea.Address),
	}
}

// AddressesFromRemote maps a remote address collection 1:1.
func AddressesFromRemote(eas []ewsclient.EmailAddress) []Address {
	if len(eas) == 0 {
		return nil
	}
	addrs := make([]Address, len(eas))
	for i, ea := range eas {
		addrs[i] = AddressFromRemote(ea)
	}
	return addrs
}

// Remote maps the address back onto the remote representation.
func (a Address) Remote() ewsclient.EmailAddress {
	return ewsclient.EmailAddress{Name: a.Name, Address: a.Addr}
}

// AddressesToRemote maps a generic address list onto the remote
// representation.
func AddressesToRemote(addrs []Address) []ewsclient.EmailAddress {
	if len(addrs) == 0 {
		return nil
	}
	eas := make([]ewsclient.EmailAddress, len(addrs))
	for i, a := range addrs {
		eas[i] = a.Remote()
	}
	return eas
}

// AddressesFromMail converts parsed header addresses into the generic type.
func AddressesFromMail(mas []*mail.Address) []Address {
	if len(mas) == 0 {
		return nil
	}
	addrs := make([]Address, 0, len(mas))
	for _, ma := range mas {
		if ma == nil {
			continue
		}
		addrs = append(addrs, Address{Name: ma.Name, Addr: ma.Address})
	}
	return addrs
}
