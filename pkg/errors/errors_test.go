package errors

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatusCode(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"not found", fmt.Errorf("vector for 7: %w", ErrDocumentNotFound), http.StatusNotFound},
		{"invalid input", ErrInvalidInput, http.StatusBadRequest},
		{"not ready", ErrIndexNotReady, http.StatusServiceUnavailable},
		{"deadline", fmt.Errorf("ranking: %w", context.DeadlineExceeded), http.StatusGatewayTimeout},
		{"app error wins", New(ErrDocumentNotFound, http.StatusTeapot, "x"), http.StatusTeapot},
		{"vocabulary mismatch is internal", ErrVocabularyMismatch, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, HTTPStatusCode(tc.err))
		})
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	err := Newf(ErrInvalidInput, http.StatusBadRequest, "mode %q", "bm25")
	assert.True(t, Is(err, ErrInvalidInput))
	assert.Equal(t, `invalid input: mode "bm25"`, err.Error())
}
