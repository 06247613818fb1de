// models/errors.go
package models

import (
	"errors"
	"fmt"
)

// Error kinds of a refresh run. Every kind is fatal to the run.
var (
	ErrSourceUnavailable   = errors.New("source unavailable")
	ErrParse               = errors.New("parse error")
	ErrRegistryUnavailable = errors.New("registry unavailable")
	ErrIncompleteData      = errors.New("incomplete data")
	ErrDownload            = errors.New("download error")
	ErrLoad                = errors.New("load error")
	ErrRegistryUpdate      = errors.New("registry update error")
	ErrCleanup             = errors.New("cleanup error")
	ErrCascade             = errors.New("cascade error")
	ErrConnection          = errors.New("connection error")
	ErrCommit              = errors.New("commit error")
)

var errorKinds = []error{
	ErrSourceUnavailable, ErrParse, ErrRegistryUnavailable, ErrIncompleteData,
	ErrDownload, ErrLoad, ErrRegistryUpdate, ErrCleanup, ErrCascade,
	ErrConnection, ErrCommit,
}

// RefreshError carries the kind of failure, the table it concerns (if any)
// and the underlying cause. errors.Is matches both Kind and Err.
type RefreshError struct {
	Kind  error
	Table string
	Err   error
}

func (e *RefreshError) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Kind.Error()
	if e.Table != "" {
		msg = fmt.Sprintf("%s: table %s", msg, e.Table)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *RefreshError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewRefreshError wraps err as kind. A nil err still produces an error.
func NewRefreshError(kind error, table string, err error) *RefreshError {
	return &RefreshError{Kind: kind, Table: table, Err: err}
}

// ErrorKind returns the refresh error kind carried by err, or nil.
func ErrorKind(err error) error {
	var re *RefreshError
	if errors.As(err, &re) {
		return re.Kind
	}
	for _, k := range errorKinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
