package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func TestRequestLogger_LevelsByStatus(t *testing.T) {
	cases := []struct {
		status int
		level  string
	}{
		{http.StatusOK, "info"},
		{http.StatusNotFound, "warn"},
		{http.StatusBadGateway, "error"},
	}

	for _, tc := range cases {
		var buf bytes.Buffer
		e := echo.New()
		e.Use(RequestLogger(zerolog.New(&buf)))
		e.GET("/probe", func(c echo.Context) error {
			return c.NoContent(tc.status)
		})

		req := httptest.NewRequest(http.MethodGet, "/probe", nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		var entry map[string]any
		if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
			t.Fatalf("status %d: invalid log line %q: %v", tc.status, buf.String(), err)
		}
		if entry["level"] != tc.level {
			t.Fatalf("status %d: expected level %s, got %v", tc.status, tc.level, entry["level"])
		}
		if entry["uri"] != "/probe" || entry["method"] != http.MethodGet {
			t.Fatalf("unexpected entry: %+v", entry)
		}
	}
}
