package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMatchesCodeThroughWrapping(t *testing.T) {
	base := New(CodeAlreadyActive, "session already active")
	wrapped := fmt.Errorf("starting session: %w", base)

	assert.True(t, Is(wrapped, CodeAlreadyActive))
	assert.False(t, Is(wrapped, CodeNotFound))
	assert.False(t, Is(errors.New("plain"), CodeAlreadyActive))
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(CodeStoreUnavailable, "saving session", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, CodeStoreUnavailable, CodeOf(err))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestCodeOfDefaultsToInternal(t *testing.T) {
	assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
	assert.Equal(t, "internal error", MessageOf(errors.New("boom")))
}

func TestToHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeValidation:       http.StatusBadRequest,
		CodeBadRequest:       http.StatusBadRequest,
		CodeNotFound:         http.StatusNotFound,
		CodeAlreadyActive:    http.StatusConflict,
		CodeAlreadyEnded:     http.StatusConflict,
		CodeAlreadyPaid:      http.StatusConflict,
		CodeStoreUnavailable: http.StatusServiceUnavailable,
		CodeInternal:         http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, ToHTTPStatus(code), string(code))
	}
}
