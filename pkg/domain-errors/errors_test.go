package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errCause = errors.New("signature mismatch")

func TestWrap_PreservesCause(t *testing.T) {
	err := Wrap(errCause, CodeUnauthorized, "state rejected")

	require.Error(t, err)
	assert.ErrorIs(t, err, errCause)
	assert.True(t, HasCode(err, CodeUnauthorized))
	assert.Equal(t, "state rejected: signature mismatch", err.Error())
	assert.Equal(t, "state rejected", Message(err))
}

func TestWrap_NilIsNil(t *testing.T) {
	assert.NoError(t, Wrap(nil, CodeInternal, "nothing"))
}

func TestHasCode_ThroughFmtWrap(t *testing.T) {
	err := fmt.Errorf("verify: %w", New(CodeConflict, "identifier already exists"))

	assert.True(t, HasCode(err, CodeConflict))
	assert.False(t, HasCode(err, CodeNotFound))
	assert.Equal(t, CodeConflict, GetCode(err))
}

func TestHasCode_PlainError(t *testing.T) {
	assert.False(t, HasCode(errCause, CodeInternal))
	assert.False(t, HasCode(nil, CodeInternal))
	assert.Equal(t, Code(""), GetCode(errCause))
}

func TestErrorIs_ComparesCodeAndMessage(t *testing.T) {
	err := Wrap(errCause, CodeUnauthorized, "token has expired")

	assert.ErrorIs(t, err, New(CodeUnauthorized, "token has expired"))
	assert.NotErrorIs(t, err, New(CodeUnauthorized, "other"))
	assert.NotErrorIs(t, err, New(CodeBadRequest, "token has expired"))
}
