package httpapi_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyeh/billingdash/internal/config"
	"github.com/gyeh/billingdash/internal/httpapi"
)

// newOfflineApp builds an app with no database behind it. Only paths that
// fail before reaching a query are safe to exercise.
func newOfflineApp(t *testing.T) *fiber.App {
	t.Helper()
	cfg := config.Default()
	cfg.UploadDir = t.TempDir()
	return httpapi.New(cfg, nil, zerolog.Nop(), nil).App()
}

func do(t *testing.T, app *fiber.App, req *http.Request) (int, map[string]any) {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var out map[string]any
	if len(body) > 0 && body[0] == '{' {
		require.NoError(t, json.Unmarshal(body, &out), string(body))
	}
	return resp.StatusCode, out
}

func TestHealth(t *testing.T) {
	app := newOfflineApp(t)
	for _, path := range []string{"/", "/health"} {
		status, body := do(t, app, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "healthy", body["status"])
		assert.Equal(t, "Surgery Billing Analytics", body["app"])
	}
}

func TestRequestValidation(t *testing.T) {
	app := newOfflineApp(t)

	tests := []struct {
		name   string
		path   string
		status int
		detail string
	}{
		{"dynamic matrix needs group1", "/api/analytics/dynamic-matrix", 400, "group1 is required"},
		{"unknown dimension", "/api/analytics/dynamic-matrix?group1=carrier&group2=color", 400,
			"Invalid dimension: color. Valid: surgery_type, carrier, billing_subcategory, patient, procedure"},
		{"unknown granularity", "/api/analytics/trends?granularity=year", 400,
			`invalid granularity "year": expected day, week or month`},
		{"bad date", "/api/analytics/dashboard?date_from=2024-13-01", 400, "date_from must be a date (YYYY-MM-DD)"},
		{"patient limit too large", "/api/patients/?limit=500", 400, "limit must be at most 100"},
		{"page below one", "/api/procedures/?page=0", 400, "page must be at least 1"},
		{"bad sort order", "/api/procedures/?sort_order=sideways", 400, "sort_order must be one of: asc, desc"},
		{"bad status", "/api/procedures/?status=lost", 400,
			"status must be one of: pending, partial, collected, written_off"},
		{"non-numeric chart", "/api/patients/abc", 400, "Invalid chart number: abc"},
		{"non-numeric upload id", "/api/upload/xyz", 400, "Invalid upload id: xyz"},
		{"negative threshold", "/api/anomalies/missing-payments?days_threshold=-1", 400,
			"days_threshold must be at least 0"},
		{"unknown route", "/api/nothing-here", 404, "Not Found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := do(t, app, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.detail, body["detail"])
		})
	}
}

func TestBadPatientIDQuery(t *testing.T) {
	app := newOfflineApp(t)
	status, body := do(t, app, httptest.NewRequest(http.MethodGet, "/api/analytics/dashboard?patient_id=abc", nil))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.True(t, strings.HasPrefix(body["detail"].(string), "Invalid query parameters"), body["detail"])
}

func multipartUpload(t *testing.T, filename string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload/", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestUploadRejectsNonWorkbook(t *testing.T) {
	app := newOfflineApp(t)

	status, body := do(t, app, multipartUpload(t, "billing.csv", []byte("a,b\n1,2\n")))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid file type. Please upload an Excel file (.xlsx or .xls)", body["detail"])

	req := httptest.NewRequest(http.MethodPost, "/api/upload/", nil)
	status, _ = do(t, app, req)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestRequestIDAndMetrics(t *testing.T) {
	app := newOfflineApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	resp.Body.Close()
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderXRequestID))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `billingdash_http_requests_total{method="GET",route="/health",status="200"}`)
}
