package ews_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	ews "github.com/ewsmail/go-ews"
)

func TestErrorsWrapCause(t *testing.T) {
	cause := errors.New("connection reset")

	tests := []struct {
		name string
		err  error
	}{
		{"remote fetch", &ews.RemoteFetchError{Op: "bind folder", Cause: cause}},
		{"remote write", &ews.RemoteWriteError{Op: "update item", Cause: cause}},
		{"authentication", &ews.AuthenticationError{Cause: cause}},
		{"send permission", &ews.SendPermissionError{From: ews.Address{Addr: "a@b"}, Cause: cause}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.ErrorIs(t, test.err, cause)
			assert.NotEmpty(t, test.err.Error())
		})
	}
}

func TestFolderNotFoundErrorMessage(t *testing.T) {
	err := &ews.FolderNotFoundError{Name: "Archive/2024"}
	assert.Contains(t, err.Error(), `"Archive/2024"`)
}
