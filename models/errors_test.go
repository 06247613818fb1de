package models

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRefreshError_IsKindAndCause(t *testing.T) {
	err := fmt.Errorf("run failed: %w", NewRefreshError(ErrLoad, "pagelinks", io.ErrUnexpectedEOF))

	assert.ErrorIs(t, err, ErrLoad)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.NotErrorIs(t, err, ErrCascade)
	assert.Equal(t, ErrLoad, ErrorKind(err))
	assert.Equal(t, "run failed: load error: table pagelinks: unexpected EOF", err.Error())
}

func TestRefreshError_NoCause(t *testing.T) {
	err := NewRefreshError(ErrIncompleteData, "", nil)

	assert.ErrorIs(t, err, ErrIncompleteData)
	assert.Equal(t, "incomplete data", err.Error())
}

func TestErrorKind_Unknown(t *testing.T) {
	assert.Nil(t, ErrorKind(errors.New("boom")))
	assert.Nil(t, ErrorKind(nil))
	assert.Equal(t, ErrCommit, ErrorKind(fmt.Errorf("x: %w", ErrCommit)))
}
