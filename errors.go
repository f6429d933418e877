package ews

import "fmt"

// RemoteFetchError reports a failed read operation against the remote
// service (bind, find, content load).
type RemoteFetchError struct {
	Op    string
	Cause error
}

func (e *RemoteFetchError) Error() string {
	return fmt.Sprintf("ews: remote fetch failed: %s: %v", e.Op, e.Cause)
}

func (e *RemoteFetchError) Unwrap() error { return e.Cause }

// RemoteWriteError reports a failed mutating operation against the remote
// service (update, delete, move, send).
type RemoteWriteError struct {
	Op    string
	Cause error
}

func (e *RemoteWriteError) Error() string {
	return fmt.Sprintf("ews: remote write failed: %s: %v", e.Op, e.Cause)
}

func (e *RemoteWriteError) Unwrap() error { return e.Cause }

// FolderNotFoundError reports that a folder addressed by name or path
// could not be resolved on the remote service.
type FolderNotFoundError struct {
	Name string
}

func (e *FolderNotFoundError) Error() string {
	return fmt.Sprintf("ews: folder %q not found", e.Name)
}

// UnsupportedSearchError reports a search term the folder cannot evaluate.
// Only the seen-flag predicate is supported.
type UnsupportedSearchError struct {
	Term string
}

func (e *UnsupportedSearchError) Error() string {
	return fmt.Sprintf("ews: unsupported search term %s", e.Term)
}

// AuthenticationError reports that the connection could not be
// authenticated or verified during connect.
type AuthenticationError struct {
	Cause error
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("ews: authentication failed: %v", e.Cause)
}

func (e *AuthenticationError) Unwrap() error { return e.Cause }

// SendPermissionError reports a send rejected because the authenticated
// account may not send on behalf of the From address. It is distinguished
// from RemoteWriteError so callers can treat it as non-retryable.
type SendPermissionError struct {
	From       Address
	Recipients []Address
	Cause      error
}

func (e *SendPermissionError) Error() string {
	return fmt.Sprintf("ews: insufficient right to send on behalf of %q", e.From.Addr)
}

func (e *SendPermissionError) Unwrap() error { return e.Cause }
