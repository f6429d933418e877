// Package ews provides the shared model of the Exchange Web Services mail
// bridge: message flags, addresses, configuration, the generic in-memory
// message representation and its converter from remote items.
//
// The bridge exposes a conventional store/folder/transport API on one side
// (package store, package transport) and talks to the remote mailbox
// service through the ewsclient.Client interface on the other.
package ews

// Flag is a message flag. The bridge supports the subset of system flags
// that can be represented on the remote item model.
type Flag string

const (
	FlagSeen    Flag = "\\Seen"
	FlagDeleted Flag = "\\Deleted"
	FlagDraft   Flag = "\\Draft"
	FlagFlagged Flag = "\\Flagged"
)

// FlagSet is a mutable set of message flags.
type FlagSet map[Flag]struct{}

// NewFlagSet returns a set containing the given flags.
func NewFlagSet(flags ...Flag) FlagSet {
	s := make(FlagSet, len(flags))
	for _, f := range flags {
		s.Add(f)
	}
	return s
}

func (s FlagSet) Add(f Flag)      { s[f] = struct{}{} }
func (s FlagSet) Remove(f Flag)   { delete(s, f) }
func (s FlagSet) Has(f Flag) bool { _, ok := s[f]; return ok }

// Slice returns the contained flags in the fixed system flag order.
func (s FlagSet) Slice() []Flag {
	var flags []Flag
	for _, f := range []Flag{FlagSeen, FlagDeleted, FlagDraft, FlagFlagged} {
		if s.Has(f) {
			flags = append(flags, f)
		}
	}
	return flags
}

// OpenMode is the access mode of an open folder.
type OpenMode int

const (
	// ModeClosed marks a folder that is not open.
	ModeClosed OpenMode = iota
	ModeReadOnly
	ModeReadWrite
)

func (m OpenMode) String() string {
	switch m {
	case ModeClosed:
		return "closed"
	case ModeReadOnly:
		return "read-only"
	case ModeReadWrite:
		return "read-write"
	default:
		return "unknown"
	}
}

// ListAllPattern is the single folder listing pattern with wildcard
// semantics: it matches every direct child. Any other pattern is matched by
// exact display-name equality; glob or regexp matching is not supported.
const ListAllPattern = "%"
