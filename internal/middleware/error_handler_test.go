package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vtfitness_api/internal/services"
)

func TestCustomErrorHandler(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    int
		wantMessage string
	}{
		{
			name:        "validation error",
			err:         &services.ValidationError{Field: "amount", Reason: "must be greater than zero"},
			wantCode:    http.StatusBadRequest,
			wantMessage: "amount must be greater than zero",
		},
		{
			name:        "not found error",
			err:         &services.NotFoundError{Entity: "member", ID: 42},
			wantCode:    http.StatusNotFound,
			wantMessage: "member 42 not found",
		},
		{
			name:        "conflict error",
			err:         &services.ConflictError{Reason: "payment already made"},
			wantCode:    http.StatusConflict,
			wantMessage: "payment already made",
		},
		{
			name:        "persistence error hides detail",
			err:         &services.PersistenceError{Op: "create member", Err: errors.New("connection refused")},
			wantCode:    http.StatusInternalServerError,
			wantMessage: "storage failure",
		},
		{
			name:        "degraded dependency is a 503",
			err:         &services.DependencyDegraded{Dependency: "payment gateway", Err: errors.New("timeout")},
			wantCode:    http.StatusServiceUnavailable,
			wantMessage: "payment gateway unavailable",
		},
		{
			name:        "echo http error passes through",
			err:         echo.NewHTTPError(http.StatusUnauthorized, "unauthorized"),
			wantCode:    http.StatusUnauthorized,
			wantMessage: "unauthorized",
		},
		{
			name:        "unknown error is a 500",
			err:         errors.New("boom"),
			wantCode:    http.StatusInternalServerError,
			wantMessage: "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			CustomErrorHandler(tt.err, c)

			assert.Equal(t, tt.wantCode, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantMessage, body["error"])
		})
	}
}
