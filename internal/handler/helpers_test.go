package handler

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/ledgerline/ledgerline-backend/internal/middleware"
)

// newTestContext builds an echo context for a JSON request
func newTestContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

// setupAuthContext injects an authenticated user into the request context the
// way the auth middleware does
func setupAuthContext(c echo.Context, userID uuid.UUID) {
	ctx := context.WithValue(c.Request().Context(), middleware.UserIDKey, userID)
	c.SetRequest(c.Request().WithContext(ctx))
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) ProblemDetails {
	t.Helper()
	var problem ProblemDetails
	if err := json.Unmarshal(rec.Body.Bytes(), &problem); err != nil {
		t.Fatalf("Failed to unmarshal problem details: %v", err)
	}
	return problem
}
