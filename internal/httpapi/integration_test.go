package httpapi_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/gyeh/billingdash/internal/config"
	"github.com/gyeh/billingdash/internal/fixture"
	"github.com/gyeh/billingdash/internal/httpapi"
	"github.com/gyeh/billingdash/internal/testdb"
)

func TestMain(m *testing.M) {
	os.Exit(testdb.Main(m, 15446))
}

var billingLines = []fixture.Line{
	{"Procedure_ID": "P1", "Chart Number": 100, "Date of Service": "2024-01-10", "Date of Entry": "2024-01-10",
		"Type_Code": "KNEE", "Surgery_Type": "Knee Arthroscopy", "Visit - Primary Carrier": "Aetna",
		"Billing_Category": "Pro Fee", "Billing_Subcategory": "Surgeon", "Charges": 1000},
	{"Procedure_ID": "P1", "Chart Number": 100, "Date of Service": "2024-01-10", "Date of Deposit": "2024-01-20",
		"Type_Code": "KNEE", "Visit - Primary Carrier": "Aetna",
		"Billing_Category": "Pro Fee", "Billing_Subcategory": "Surgeon", "Total Payments": 400},
	{"Procedure_ID": "P2", "Chart Number": 200, "Date of Service": "2024-02-01", "Date of Entry": "2024-02-01",
		"Type_Code": "HIP", "Surgery_Type": "Hip Replacement", "Visit - Primary Carrier": "Cigna",
		"Billing_Category": "Facility Fee", "Billing_Subcategory": "OR Time", "Charges": 500, "Total Payments": 600,
		"Date of Deposit": "2024-02-15"},
}

type env struct {
	app       *fiber.App
	uploadDir string
}

func newEnv(t *testing.T) *env {
	t.Helper()
	pool := testdb.Setup(t)
	cfg := config.Default()
	cfg.UploadDir = t.TempDir()
	now := func() time.Time { return time.Date(2024, 12, 31, 12, 0, 0, 0, time.UTC) }
	return &env{
		app:       httpapi.New(cfg, pool, zerolog.Nop(), now).App(),
		uploadDir: cfg.UploadDir,
	}
}

func (e *env) get(t *testing.T, path string, out any) int {
	t.Helper()
	resp, err := e.app.Test(httptest.NewRequest(http.MethodGet, path, nil), -1)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			t.Fatalf("GET %s: decode %q: %v", path, body, err)
		}
	}
	return resp.StatusCode
}

func (e *env) upload(t *testing.T, wb *fixture.Workbook) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if err := wb.Write(&buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	resp, err := e.app.Test(multipartUpload(t, "January Billing.xlsx", buf.Bytes()), -1)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	defer resp.Body.Close()
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode upload response: %v", err)
	}
	return resp.StatusCode, out
}

func TestUploadAndQuery(t *testing.T) {
	e := newEnv(t)

	status, summary := e.upload(t, fixture.New(billingLines...))
	if status != http.StatusOK {
		t.Fatalf("upload status = %d, body %v", status, summary)
	}
	if summary["rows_imported"] != 3.0 || summary["procedures_count"] != 2.0 || summary["patients_count"] != 2.0 {
		t.Errorf("unexpected upload summary: %v", summary)
	}
	if summary["message"] != "Successfully imported 3 transactions from 2 procedures" {
		t.Errorf("message = %v", summary["message"])
	}
	uploadID := int(summary["upload_id"].(float64))

	t.Run("history", func(t *testing.T) {
		var uploads []map[string]any
		if code := e.get(t, "/api/upload/history", &uploads); code != 200 {
			t.Fatalf("status %d", code)
		}
		if len(uploads) != 1 || uploads[0]["upload_status"] != "completed" {
			t.Errorf("history = %v", uploads)
		}
		if uploads[0]["original_filename"] != "January Billing.xlsx" {
			t.Errorf("original_filename = %v", uploads[0]["original_filename"])
		}
		stored := uploads[0]["filename"].(string)
		if _, err := os.Stat(filepath.Join(e.uploadDir, stored)); err != nil {
			t.Errorf("stored file missing: %v", err)
		}
	})

	t.Run("dashboard", func(t *testing.T) {
		var d map[string]any
		if code := e.get(t, "/api/analytics/dashboard", &d); code != 200 {
			t.Fatalf("status %d", code)
		}
		if d["total_charges"] != 1500.0 || d["total_payments"] != 1000.0 || d["procedure_count"] != 2.0 {
			t.Errorf("dashboard = %v", d)
		}
	})

	t.Run("dashboard_filtered", func(t *testing.T) {
		var d map[string]any
		e.get(t, "/api/analytics/dashboard?carrier=Aetna&date_from=2024-01-01&date_to=2024-01-31", &d)
		if d["total_charges"] != 1000.0 || d["collection_rate"] != 40.0 {
			t.Errorf("dashboard = %v", d)
		}
	})

	t.Run("dynamic_matrix_transaction_level", func(t *testing.T) {
		var m struct {
			Data    []map[string]any `json:"data"`
			Summary map[string]any   `json:"summary"`
		}
		if code := e.get(t, "/api/analytics/dynamic-matrix?group1=billing_subcategory", &m); code != 200 {
			t.Fatalf("status %d", code)
		}
		if len(m.Data) != 2 {
			t.Fatalf("nodes = %v", m.Data)
		}
		for _, n := range m.Data {
			if v, ok := n["avg_days_to_payment"]; !ok || v != nil {
				t.Errorf("avg_days_to_payment = %v (present %v), want null", v, ok)
			}
		}
		if m.Summary["total_charges"] != 1500.0 {
			t.Errorf("summary = %v", m.Summary)
		}
	})

	t.Run("anomalies", func(t *testing.T) {
		var r map[string]any
		if code := e.get(t, "/api/anomalies/payment-exceeds-charge", &r); code != 200 {
			t.Fatalf("status %d", code)
		}
		if r["count"] != 1.0 {
			t.Errorf("payment-exceeds-charge = %v", r)
		}
	})

	t.Run("recovery", func(t *testing.T) {
		var r map[string]any
		if code := e.get(t, "/api/analytics/recovery", &r); code != 200 {
			t.Fatalf("status %d", code)
		}
		if _, ok := r["breakdown_by_type"]; !ok {
			t.Errorf("missing breakdown_by_type: %v", r)
		}
		if _, ok := r["recovery_12_month"]; !ok {
			t.Errorf("missing recovery_12_month: %v", r)
		}
	})

	t.Run("not_found", func(t *testing.T) {
		var body map[string]any
		if code := e.get(t, "/api/patients/999", &body); code != 404 || body["detail"] != "Patient not found" {
			t.Errorf("patient: %d %v", code, body)
		}
		if code := e.get(t, "/api/procedures/NOPE", &body); code != 404 || body["detail"] != "Procedure not found" {
			t.Errorf("procedure: %d %v", code, body)
		}
		if code := e.get(t, "/api/upload/4242", &body); code != 404 || body["detail"] != "Upload not found" {
			t.Errorf("upload: %d %v", code, body)
		}
	})

	t.Run("procedures_page", func(t *testing.T) {
		var page map[string]any
		e.get(t, "/api/procedures/?sort_by=total_charges&sort_order=asc&limit=1", &page)
		if page["total"] != 2.0 || page["total_pages"] != 2.0 {
			t.Errorf("page = %v", page)
		}
	})

	t.Run("delete_upload", func(t *testing.T) {
		path := "/api/upload/" + strconv.Itoa(uploadID)
		var u map[string]any
		e.get(t, path, &u)
		stored := filepath.Join(e.uploadDir, u["filename"].(string))

		resp, err := e.app.Test(httptest.NewRequest(http.MethodDelete, path, nil), -1)
		if err != nil {
			t.Fatalf("delete: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != 200 {
			t.Fatalf("delete status %d", resp.StatusCode)
		}
		if _, err := os.Stat(stored); !os.IsNotExist(err) {
			t.Errorf("stored file still present: %v", err)
		}
		if code := e.get(t, path, nil); code != 404 {
			t.Errorf("get after delete = %d", code)
		}
	})
}

func TestUploadMissingColumns(t *testing.T) {
	e := newEnv(t)

	wb := fixture.New(fixture.Line{"Chart Number": 1, "Charges": 10})
	wb.Headers = []string{"Chart Number", "Charges"}
	status, body := e.upload(t, wb)
	if status != http.StatusBadRequest {
		t.Fatalf("status = %d, body %v", status, body)
	}
	detail, _ := body["detail"].(string)
	if !strings.HasPrefix(detail, "Failed to process file: missing required columns") {
		t.Errorf("detail = %q", detail)
	}

	var uploads []map[string]any
	e.get(t, "/api/upload/history", &uploads)
	if len(uploads) != 1 || uploads[0]["upload_status"] != "failed" {
		t.Errorf("history = %v", uploads)
	}
}

func TestUploadUnreadableWorkbook(t *testing.T) {
	e := newEnv(t)

	resp, err := e.app.Test(multipartUpload(t, "broken.xlsx", []byte("not a zip archive")), -1)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	detail, _ := body["detail"].(string)
	if !strings.HasPrefix(detail, "Failed to process file: open workbook") {
		t.Errorf("detail = %q", detail)
	}

	var uploads []map[string]any
	e.get(t, "/api/upload/history", &uploads)
	if len(uploads) != 1 || uploads[0]["upload_status"] != "failed" {
		t.Errorf("history = %v", uploads)
	}
}
