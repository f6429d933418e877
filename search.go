package ews

import "fmt"

// SearchTerm is a folder search predicate.
//
// The remote service cannot evaluate arbitrary predicates; folders support
// exactly one term shape, the seen-flag term, which is translated into a
// server-side unread-items query.
type SearchTerm interface {
	searchTerm()
}

var _ SearchTerm = FlagTerm{}

// FlagTerm matches messages by the state of a single flag.
type FlagTerm struct {
	Flag Flag
	Set  bool
}

func (FlagTerm) searchTerm() {}

func (t FlagTerm) String() string {
	return fmt.Sprintf("flag %s set=%v", t.Flag, t.Set)
}
