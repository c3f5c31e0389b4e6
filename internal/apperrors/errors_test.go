package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	t.Run("Should classify wrapped errors", func(t *testing.T) {
		err := fmt.Errorf("toggle like: %w", Conflict(CodeRetryExhausted, "too many retries"))
		assert.Equal(t, KindConflict, KindOf(err))
		assert.True(t, errors.Is(err, ErrConflict))
		assert.False(t, errors.Is(err, ErrNotFound))
	})

	t.Run("Should treat foreign errors as internal", func(t *testing.T) {
		assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
		assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("boom")))
	})
}

func TestInvalidOperationIsValidation(t *testing.T) {
	err := InvalidOperation("cannot follow yourself")
	assert.True(t, errors.Is(err, ErrValidation))
	assert.True(t, errors.Is(err, &Error{Kind: KindValidation, Code: CodeInvalidOperation}))
	assert.False(t, errors.Is(err, &Error{Kind: KindValidation, Code: CodeEmptyText}))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(err))
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, HTTPStatus(NotFound("memo", "m1")))
	assert.Equal(t, http.StatusConflict, HTTPStatus(Conflict(CodeRetryExhausted, "x")))
	assert.Equal(t, http.StatusForbidden, HTTPStatus(Unauthorized(CodeNotOwner, "x")))
}

func TestErrorMessageIncludesCause(t *testing.T) {
	err := NotFound("user", "u1").WithCause(errors.New("missing"))
	assert.Contains(t, err.Error(), "missing")
	assert.Contains(t, err.Error(), `user "u1" not found`)
}
