package ewsclient

import (
	"strings"
	"time"
)

// Filter restricts a FindFolders or FindItems call. Implementations are
// evaluated server-side; this layer only describes the predicate.
type Filter interface {
	filter()
}

var (
	_ Filter = DisplayNameFilter{}
	_ Filter = UnreadFilter{}
	_ Filter = ReceivedSinceFilter{}
)

// DisplayNameFilter matches folders whose display name is exactly equal to
// Name. No wildcard semantics of any kind.
type DisplayNameFilter struct {
	Name string
}

func (DisplayNameFilter) filter() {}

// UnreadFilter matches items whose read flag is unset.
type UnreadFilter struct{}

func (UnreadFilter) filter() {}

// ReceivedSinceFilter matches items received at or after Since.
type ReceivedSinceFilter struct {
	Since time.Time
}

func (ReceivedSinceFilter) filter() {}

func normalizeFolderName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
