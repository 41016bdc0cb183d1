package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "didgate/pkg/domain-errors"
)

func TestWriteError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		status      int
		code        string
		description string
	}{
		{
			name:   "internal error hides its message",
			err:    dErrors.New(dErrors.CodeInternal, "sealed key unreadable"),
			status: http.StatusInternalServerError,
			code:   "internal_error",
		},
		{
			name:   "plain error is internal",
			err:    errors.New("boom"),
			status: http.StatusInternalServerError,
			code:   "internal_error",
		},
		{
			name:        "invalid wallet response",
			err:         dErrors.New(dErrors.CodeInvalidInput, "nonce mismatch"),
			status:      http.StatusBadRequest,
			code:        "invalid_input",
			description: "nonce mismatch",
		},
		{
			name:        "unknown service",
			err:         fmt.Errorf("lookup: %w", dErrors.New(dErrors.CodeNotFound, "service not found")),
			status:      http.StatusNotFound,
			code:        "not_found",
			description: "service not found",
		},
		{
			name:        "identifier already registered",
			err:         dErrors.New(dErrors.CodeConflict, "identifier already exists"),
			status:      http.StatusConflict,
			code:        "conflict",
			description: "identifier already exists",
		},
		{
			name:        "resolver failure keeps the cause private",
			err:         dErrors.Wrap(errors.New("dial tcp: refused"), dErrors.CodeBadGateway, "did resolution failed"),
			status:      http.StatusBadGateway,
			code:        "bad_gateway",
			description: "did resolution failed",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(w, tc.err)

			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tc.code, body["error"])
			desc, ok := body["error_description"]
			assert.Equal(t, tc.description != "", ok)
			assert.Equal(t, tc.description, desc)
		})
	}
}

func TestStatusFor(t *testing.T) {
	cases := map[dErrors.Code]int{
		dErrors.CodeBadRequest:         http.StatusBadRequest,
		dErrors.CodeValidation:         http.StatusBadRequest,
		dErrors.CodeUnauthorized:       http.StatusUnauthorized,
		dErrors.CodeForbidden:          http.StatusForbidden,
		dErrors.CodeInvariantViolation: http.StatusConflict,
		dErrors.CodeTimeout:            http.StatusGatewayTimeout,
		dErrors.Code("unmapped"):       http.StatusInternalServerError,
	}
	for code, status := range cases {
		assert.Equal(t, status, StatusFor(code), string(code))
	}
}

func TestWriteJSONWithoutBody(t *testing.T) {
	w := httptest.NewRecorder()
	WriteJSON(w, http.StatusAccepted, nil)
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Zero(t, w.Body.Len())
}
