package errors_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdholdren/newscat/internal/classify"
	nerrs "github.com/jdholdren/newscat/internal/errors"
	"github.com/jdholdren/newscat/internal/newscat"
)

func TestEConstructor(t *testing.T) {
	got := nerrs.E(
		"something went wrong",
		nerrs.Detail{Field: "titles", Error: "was empty"},
		http.StatusBadRequest,
	)
	want := &nerrs.Error{
		Err: errors.New("something went wrong"),
		Details: []nerrs.Detail{
			{Field: "titles", Error: "was empty"},
		},
		Status: http.StatusBadRequest,
	}

	assert.Equal(t, want, got)
}

func TestMarshalJSON(t *testing.T) {
	byts, err := json.Marshal(nerrs.E(http.StatusNotFound, "no such category"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"message":"no such category","details":null,"status":404}`, string(byts))

	byts, err = json.Marshal(nerrs.E(http.StatusTeapot))
	require.NoError(t, err)
	assert.JSONEq(t, `{"message":"I'm a teapot","details":null,"status":418}`, string(byts))
}

func TestFromDomain(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"already structured", nerrs.E(http.StatusBadRequest, "bad"), http.StatusBadRequest},
		{"wrapped structured", fmt.Errorf("outer: %w", nerrs.E(http.StatusNotFound, "gone")), http.StatusNotFound},
		{"rate limited", fmt.Errorf("%w: %w", newscat.ErrClassifierCallFailed, classify.ErrRateLimited), http.StatusTooManyRequests},
		{"classifier", fmt.Errorf("%w: boom", newscat.ErrClassifierCallFailed), http.StatusBadGateway},
		{"corrupt", newscat.ErrStoreCorrupt, http.StatusServiceUnavailable},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, nerrs.FromDomain(tt.err).Status)
		})
	}
}
