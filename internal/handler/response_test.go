package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/fantastictask/internal/apperr"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{apperr.Validation("bad"), http.StatusBadRequest},
		{apperr.Permission("verify_completions"), http.StatusForbidden},
		{apperr.NotFound("task", 1), http.StatusNotFound},
		{apperr.Conflict("rejected"), http.StatusConflict},
		{fmt.Errorf("spend: %w", apperr.ErrInsufficientPoints), http.StatusConflict},
		{errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}

func TestWriteErrHidesInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	writeErr(rec, slog.New(slog.NewTextHandler(io.Discard, nil)), "list tasks", errors.New("database is locked"))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var body envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotNil(t, body.Error)
	assert.Equal(t, "internal", body.Error.Code)
	assert.Equal(t, "failed to list tasks", body.Error.Message)
	assert.Nil(t, body.Data)
}

func TestWriteErrKnownKind(t *testing.T) {
	rec := httptest.NewRecorder()
	writeErr(rec, slog.Default(), "get task", apperr.NotFound("task", 9))

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"data":null,"error":{"code":"not_found","message":"not found: task 9"}}`, rec.Body.String())
}

func TestDecodeJSONEmptyBody(t *testing.T) {
	var v struct {
		PIN string `json:"pin"`
	}
	req := httptest.NewRequest("POST", "/", nil)
	require.NoError(t, decodeJSON(req, &v))
	assert.Empty(t, v.PIN)

	req = httptest.NewRequest("POST", "/", strings.NewReader(`{"pin":`))
	assert.Error(t, decodeJSON(req, &v))
}

func TestOptionalInt(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/bonus?base=10&bad=x", nil)

	n, err := optionalInt(req, "base")
	require.NoError(t, err)
	require.NotNil(t, n)
	assert.Equal(t, 10, *n)

	n, err = optionalInt(req, "missing")
	require.NoError(t, err)
	assert.Nil(t, n)

	_, err = optionalInt(req, "bad")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}
