package http_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-tinyioc/framework/container"
	gohttp "github.com/km-arc/go-tinyioc/framework/http"
)

// ── helpers ──────────────────────────────────────────────────────────────────

func newResponse(t *testing.T) (*gohttp.Response, *httptest.ResponseRecorder) {
	t.Helper()
	rr := httptest.NewRecorder()
	return gohttp.NewResponse(rr), rr
}

func decodeJSON(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&m))
	return m
}

// ── JSON ──────────────────────────────────────────────────────────────────────

func TestResponse_JSON(t *testing.T) {
	res, rr := newResponse(t)
	res.JSON(http.StatusOK, map[string]any{"key": "val"})

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.Equal(t, "val", decodeJSON(t, rr)["key"])
}

func TestResponse_Envelopes(t *testing.T) {
	tests := []struct {
		name   string
		send   func(*gohttp.Response)
		status int
	}{
		{"Success", func(r *gohttp.Response) { r.Success(map[string]any{"id": 1}) }, http.StatusOK},
		{"Created", func(r *gohttp.Response) { r.Created(map[string]any{"id": 1}) }, http.StatusCreated},
		{"Accepted", func(r *gohttp.Response) { r.Accepted(map[string]any{"id": 1}) }, http.StatusAccepted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, rr := newResponse(t)
			tt.send(res)

			assert.Equal(t, tt.status, rr.Code)
			data, ok := decodeJSON(t, rr)["data"].(map[string]any)
			require.True(t, ok, "expected data envelope")
			assert.Equal(t, float64(1), data["id"])
		})
	}
}

func TestResponse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		send    func(*gohttp.Response)
		status  int
		message string
	}{
		{"Error", func(r *gohttp.Response) { r.Error(http.StatusTeapot, "short and stout") }, http.StatusTeapot, "short and stout"},
		{"Unauthorized", func(r *gohttp.Response) { r.Unauthorized() }, http.StatusUnauthorized, "Unauthenticated."},
		{"NotFound", func(r *gohttp.Response) { r.NotFound() }, http.StatusNotFound, "Not found."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, rr := newResponse(t)
			tt.send(res)

			assert.Equal(t, tt.status, rr.Code)
			assert.Equal(t, tt.message, decodeJSON(t, rr)["message"])
		})
	}
}

// ── Fail ──────────────────────────────────────────────────────────────────────

func TestStatusFor(t *testing.T) {
	denied := &container.AuthorizationDeniedError{Bean: "adminService", Method: "DeleteUser", Required: "ADMIN"}

	assert.Equal(t, http.StatusForbidden, gohttp.StatusFor(denied))
	assert.Equal(t, http.StatusForbidden, gohttp.StatusFor(fmt.Errorf("wrapped: %w", denied)))
	assert.Equal(t, http.StatusNotFound, gohttp.StatusFor(container.ErrBeanNotFound))
	assert.Equal(t, http.StatusInternalServerError, gohttp.StatusFor(errors.New("boom")))
}

func TestResponse_Fail(t *testing.T) {
	res, rr := newResponse(t)
	res.Fail(&container.AuthorizationDeniedError{Bean: "adminService", Method: "Notice", Required: "USER"})

	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Contains(t, decodeJSON(t, rr)["message"], "not logged in")
}
