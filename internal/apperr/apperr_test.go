package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMatchesByKind(t *testing.T) {
	err := Newf(InsufficientStock, "Insufficient stock for %s", "Kettle")

	assert.True(t, errors.Is(err, ErrInsufficientStock))
	assert.False(t, errors.Is(err, ErrProductNotFound))
	assert.Equal(t, "Insufficient stock for Kettle", Message(err))

	wrapped := fmt.Errorf("commit: %w", err)
	assert.True(t, errors.Is(wrapped, ErrInsufficientStock))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(wrapped))
}

func TestStorageHidesCause(t *testing.T) {
	cause := errors.New("dial tcp 10.0.0.1:3306: connection refused")
	err := Storage(cause)

	assert.True(t, errors.Is(err, ErrStorage))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "Server error", Message(err))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(err))
	assert.Nil(t, Storage(nil))
}

func TestStorageKeepsTypedErrors(t *testing.T) {
	err := Storage(ErrAlreadyReturned)
	assert.Equal(t, AlreadyReturned, KindOf(err))
}

func TestHTTPStatus(t *testing.T) {
	cases := map[*Error]int{
		ErrInvalidIdentifier:   http.StatusBadRequest,
		ErrProductNotFound:     http.StatusNotFound,
		ErrInsufficientStock:   http.StatusBadRequest,
		ErrSaleNotFound:        http.StatusNotFound,
		ErrCannotReturnAReturn: http.StatusBadRequest,
		ErrAlreadyReturned:     http.StatusBadRequest,
		ErrValidation:          http.StatusBadRequest,
		ErrUnauthorized:        http.StatusUnauthorized,
		ErrForbidden:           http.StatusForbidden,
		ErrConflict:            http.StatusConflict,
		ErrUnavailable:         http.StatusServiceUnavailable,
	}
	for err, status := range cases {
		assert.Equal(t, status, HTTPStatus(err), string(err.Kind))
	}
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("boom")))
}
