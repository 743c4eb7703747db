package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataForKnownCodes(t *testing.T) {
	t.Parallel()

	cases := []struct {
		code   Code
		status int
	}{
		{CodeValidation, http.StatusBadRequest},
		{CodeEmptyCart, http.StatusBadRequest},
		{CodeSignature, http.StatusBadRequest},
		{CodeForbidden, http.StatusForbidden},
		{CodeNotFound, http.StatusNotFound},
		{CodeDependency, http.StatusInternalServerError},
		{CodeInternal, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.status, MetadataFor(tc.code).HTTPStatus, string(tc.code))
	}
}

func TestMetadataForUnknownCodeFallsBackToInternal(t *testing.T) {
	t.Parallel()

	meta := MetadataFor(Code("NOPE"))
	assert.Equal(t, http.StatusInternalServerError, meta.HTTPStatus)
}

func TestWrapPreservesCause(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection reset")
	err := Wrap(CodeDependency, cause, "create payment order")

	require.ErrorIs(t, err, cause)
	assert.Equal(t, CodeDependency, err.Code())
	assert.Equal(t, "DEPENDENCY_ERROR: create payment order", err.Error())
}

func TestAsUnwrapsThroughFmtErrorf(t *testing.T) {
	t.Parallel()

	inner := New(CodeSignature, "signature mismatch")
	wrapped := fmt.Errorf("verify payment: %w", inner)

	typed := As(wrapped)
	require.NotNil(t, typed)
	assert.Equal(t, CodeSignature, typed.Code())
	assert.True(t, HasCode(wrapped, CodeSignature))
	assert.False(t, HasCode(wrapped, CodeValidation))
}

func TestDumpCollectsChain(t *testing.T) {
	t.Parallel()

	err := Wrap(CodeInternal, errors.New("root"), "top")
	dump := Dump(err)

	assert.Equal(t, CodeInternal, dump.Code)
	assert.Len(t, dump.Chain, 2)
}
