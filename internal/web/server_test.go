package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/propscrub/internal/billing"
	"github.com/JonMunkholm/propscrub/internal/config"
	"github.com/JonMunkholm/propscrub/internal/core"
	"github.com/JonMunkholm/propscrub/internal/crm"
	"github.com/JonMunkholm/propscrub/internal/scrub"
)

const leadsCSV = "First Name,Last Name,Phone,Email,Property Address\n" +
	"Ann,Lee,555-0100,ann@example.com,12 Oak St\n" +
	"Bob,Ray,,bob@example.com,9 Elm Ave\n"

func testConfig() *config.Config {
	return &config.Config{
		Server:   config.ServerConfig{RequestTimeout: 5 * time.Second},
		Upload:   config.UploadConfig{MaxFileSize: 1 << 20},
		Security: config.SecurityConfig{AllowedOrigins: []string{"*"}},
	}
}

func newTestServer(t *testing.T, lookup scrub.PhoneLookup, start int) (*Server, *core.Service) {
	t.Helper()
	svc := core.NewService(core.NewMemoryStore(), lookup, nil, core.Options{
		MaxFileSize:  1 << 20,
		StartBalance: billing.Balance{Bubbles: start},
	})
	srv := NewServer(svc, testConfig())
	t.Cleanup(func() { srv.Shutdown(context.Background()) })
	return srv, svc
}

func do(t *testing.T, srv *Server, method, path string, body io.Reader, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func doJSON(t *testing.T, srv *Server, method, path string, v any) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if v != nil {
		data, err := json.Marshal(v)
		if err != nil {
			t.Fatal(err)
		}
		body = bytes.NewReader(data)
	}
	return do(t, srv, method, path, body, map[string]string{"Content-Type": "application/json"})
}

func importFile(t *testing.T, srv *Server, name, content string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", name)
	if err != nil {
		t.Fatal(err)
	}
	io.WriteString(fw, content)
	mw.Close()
	return do(t, srv, http.MethodPost, "/api/import", &buf, map[string]string{"Content-Type": mw.FormDataContentType()})
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode %T: %v (body %q)", v, err, rec.Body.String())
	}
	return v
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, nil, 100)
	rec := do(t, srv, http.MethodGet, "/health", nil, nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decode[map[string]any](t, rec)
	if body["status"] != "ok" {
		t.Errorf("body = %v", body)
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers missing")
	}
}

func TestIndex(t *testing.T) {
	srv, _ := newTestServer(t, nil, 100)
	rec := do(t, srv, http.MethodGet, "/", nil, nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "/static/app.js") {
		t.Error("index does not load the app script")
	}

	rec = do(t, srv, http.MethodGet, "/static/app.css", nil, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("static status = %d", rec.Code)
	}
}

func TestImportScrubExport(t *testing.T) {
	srv, svc := newTestServer(t, nil, 100)

	rec := importFile(t, srv, "leads.csv", leadsCSV)
	if rec.Code != http.StatusCreated {
		t.Fatalf("import status = %d: %s", rec.Code, rec.Body.String())
	}
	summary := decode[core.ImportSummary](t, rec)
	if summary.RowCount != 2 {
		t.Fatalf("RowCount = %d, want 2", summary.RowCount)
	}
	base := "/api/session/" + summary.SessionID

	// Rows are not available before a scrub.
	rec = do(t, srv, http.MethodGet, base+"/rows", nil, nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("rows before scrub status = %d, want 409", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodPost, base+"/scrub", core.ScrubRequest{
		Settings: scrub.DefaultFilterSettings(),
		Tier:     scrub.TierBasic,
	})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("scrub status = %d: %s", rec.Code, rec.Body.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	final, err := svc.WaitScrub(ctx, summary.SessionID)
	if err != nil || final.Phase != core.PhaseComplete {
		t.Fatalf("WaitScrub() = %+v, %v", final, err)
	}

	rec = do(t, srv, http.MethodGet, base+"/rows", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("rows status = %d", rec.Code)
	}
	res := decode[core.Results](t, rec)
	if res.Stats.Showing != 1 || res.Stats.MissingPhones != 1 {
		t.Errorf("stats = %+v, want 1 showing and 1 missing phone", res.Stats)
	}

	rec = do(t, srv, http.MethodGet, base+"/rows", nil, map[string]string{"HX-Request": "true"})
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("fragment content type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "<table") {
		t.Error("fragment has no table")
	}

	rec = do(t, srv, http.MethodGet, base+"/export.csv", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("export status = %d", rec.Code)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "propscrub_cleaned_") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if !strings.HasPrefix(rec.Body.String(), "First Name,Last Name,Phone,Email,Property Address\n") {
		t.Errorf("csv = %q", rec.Body.String())
	}

	// Keeping rows without phones only changes the filter.
	settings := scrub.DefaultFilterSettings()
	settings.RemoveMissingPhone = false
	settings.RemoveInvalidPhone = false
	rec = doJSON(t, srv, http.MethodPut, base+"/settings", settings)
	if rec.Code != http.StatusOK {
		t.Fatalf("settings status = %d", rec.Code)
	}
	rec = do(t, srv, http.MethodGet, base+"/rows", nil, nil)
	if got := decode[core.Results](t, rec).Stats.Showing; got != 2 {
		t.Errorf("Showing after settings = %d, want 2", got)
	}

	rec = do(t, srv, http.MethodGet, "/api/balance", nil, nil)
	bal := decode[core.BalanceInfo](t, rec)
	if bal.Balance.Bubbles != 100-billing.BasicCostPerBatch {
		t.Errorf("balance = %+v", bal.Balance)
	}

	rec = do(t, srv, http.MethodGet, "/api/history", nil, nil)
	if runs := decode[[]core.RunRecord](t, rec); len(runs) != 1 {
		t.Errorf("history = %d runs, want 1", len(runs))
	}

	rec = do(t, srv, http.MethodDelete, base, nil, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("reset status = %d", rec.Code)
	}
	rec = do(t, srv, http.MethodGet, base, nil, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("session after reset status = %d, want 404", rec.Code)
	}
}

func TestProgressStream_IdleSession(t *testing.T) {
	srv, _ := newTestServer(t, nil, 100)
	summary := decode[core.ImportSummary](t, importFile(t, srv, "leads.csv", leadsCSV))

	rec := do(t, srv, http.MethodGet, "/api/session/"+summary.SessionID+"/progress", nil, nil)

	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "event: progress") || !strings.Contains(body, "event: complete") {
		t.Errorf("stream = %q", body)
	}
	if !strings.Contains(body, `"phase":"imported"`) {
		t.Errorf("complete event should carry the current phase: %q", body)
	}
}

func TestErrors(t *testing.T) {
	srv, _ := newTestServer(t, nil, 5)
	summary := decode[core.ImportSummary](t, importFile(t, srv, "leads.csv", leadsCSV))
	base := "/api/session/" + summary.SessionID

	tests := []struct {
		name       string
		rec        func() *httptest.ResponseRecorder
		wantStatus int
		wantCode   string
	}{
		{
			name:       "unknown session",
			rec:        func() *httptest.ResponseRecorder { return do(t, srv, http.MethodGet, "/api/session/nope", nil, nil) },
			wantStatus: http.StatusNotFound,
			wantCode:   "SCRUB001",
		},
		{
			name: "insufficient balance",
			rec: func() *httptest.ResponseRecorder {
				return doJSON(t, srv, http.MethodPost, base+"/scrub", core.ScrubRequest{Settings: scrub.DefaultFilterSettings()})
			},
			wantStatus: http.StatusPaymentRequired,
			wantCode:   "BAL001",
		},
		{
			name: "prison without lookup",
			rec: func() *httptest.ResponseRecorder {
				return doJSON(t, srv, http.MethodPost, base+"/scrub", core.ScrubRequest{Settings: scrub.DefaultFilterSettings(), Tier: scrub.TierPrison})
			},
			wantStatus: http.StatusNotImplemented,
			wantCode:   "LOOK001",
		},
		{
			name: "bad slot count",
			rec: func() *httptest.ResponseRecorder {
				return do(t, srv, http.MethodGet, base+"/mapping/suggest?phones=9", nil, nil)
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   "MAP001",
		},
		{
			name: "unsupported format",
			rec: func() *httptest.ResponseRecorder {
				return importFile(t, srv, "leads.xls", "binary")
			},
			wantStatus: http.StatusUnsupportedMediaType,
			wantCode:   "FILE002",
		},
		{
			name: "template without name",
			rec: func() *httptest.ResponseRecorder {
				return doJSON(t, srv, http.MethodPost, "/api/templates", core.MappingTemplate{Phones: 1, Emails: 1})
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   "MAP006",
		},
		{
			name: "unknown bundle",
			rec: func() *httptest.ResponseRecorder {
				return doJSON(t, srv, http.MethodPost, "/api/balance/purchase", map[string]string{"optionId": "gold"})
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   "BAL002",
		},
		{
			name: "crm not configured",
			rec: func() *httptest.ResponseRecorder {
				return do(t, srv, http.MethodGet, "/api/ghl/options", nil, nil)
			},
			wantStatus: http.StatusNotImplemented,
			wantCode:   "CRM001",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := tt.rec()
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if got := decode[ErrorResponse](t, rec); got.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", got.Code, tt.wantCode)
			}
		})
	}
}

func TestErrors_HTMXFragment(t *testing.T) {
	srv, _ := newTestServer(t, nil, 100)
	rec := do(t, srv, http.MethodGet, "/api/session/nope/rows", nil, map[string]string{"HX-Request": "true"})

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `class="alert alert-error"`) {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestValidatePhone(t *testing.T) {
	lookup := scrub.PhoneLookupFunc(func(_ context.Context, phone string) (scrub.PhoneResult, error) {
		if phone == "000" {
			return scrub.PhoneResult{}, errors.New("HLRLookup API error: 500")
		}
		return scrub.PhoneResult{Valid: true, Type: "mobile", Carrier: "Verizon", LiveStatus: "LIVE"}, nil
	})
	srv, _ := newTestServer(t, lookup, 100)

	rec := do(t, srv, http.MethodGet, "/api/validatePhone", nil, nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET status = %d, want 405", rec.Code)
	}

	rec = do(t, srv, http.MethodOptions, "/api/validatePhone", nil, map[string]string{"Origin": "https://other.example"})
	if rec.Code != http.StatusNoContent {
		t.Errorf("OPTIONS status = %d, want 204", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/validatePhone", map[string]string{"phone": "+15125550100"})
	if rec.Code != http.StatusOK {
		t.Fatalf("POST status = %d", rec.Code)
	}
	if got := decode[scrub.PhoneResult](t, rec); !got.Valid || got.Carrier != "Verizon" {
		t.Errorf("result = %+v", got)
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/validatePhone", map[string]string{"phone": " "})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("blank phone status = %d, want 400", rec.Code)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("x: %w", core.ErrSessionNotFound), http.StatusNotFound},
		{core.ErrTooManyScrubs, http.StatusServiceUnavailable},
		{fmt.Errorf("charge: %w", billing.ErrInsufficientBalance), http.StatusPaymentRequired},
		{&crm.APIError{Status: 422, Body: "bad"}, http.StatusBadGateway},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
