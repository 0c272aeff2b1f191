package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ichiro/userhub/internal/model"
)

// logRecord はテスト検証用のログレコード。
type logRecord struct {
	Level     string  `json:"level"`
	Msg       string  `json:"msg"`
	Method    string  `json:"method"`
	Path      string  `json:"path"`
	Status    int     `json:"status"`
	Duration  float64 `json:"duration_ms"`
	RequestID string  `json:"request_id"`
	AccountID string  `json:"account_id"`
}

func captureLog(t *testing.T, buf *bytes.Buffer) logRecord {
	t.Helper()
	var record logRecord
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("failed to parse log output %q: %v", buf.String(), err)
	}
	return record
}

func TestLoggingMiddleware_LogsRequestFields(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	handler := NewLoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	req = req.WithContext(ContextWithAccount(req.Context(), &model.Account{ID: "account-123"}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	record := captureLog(t, &buf)
	if record.Msg != "http_request" {
		t.Errorf("msg = %q, want %q", record.Msg, "http_request")
	}
	if record.Method != "GET" || record.Path != "/users" {
		t.Errorf("method/path = %s %s, want GET /users", record.Method, record.Path)
	}
	if record.Status != http.StatusOK {
		t.Errorf("status = %d, want %d", record.Status, http.StatusOK)
	}
	if record.AccountID != "account-123" {
		t.Errorf("account_id = %q, want %q", record.AccountID, "account-123")
	}
}

func TestLoggingMiddleware_LevelByStatusCode(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantLevel string
	}{
		{"2xxはINFO", http.StatusOK, "INFO"},
		{"4xxはWARN", http.StatusNotFound, "WARN"},
		{"5xxはERROR", http.StatusInternalServerError, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewJSONHandler(&buf, nil))

			handler := NewLoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))

			req := httptest.NewRequest(http.MethodGet, "/users", nil)
			handler.ServeHTTP(httptest.NewRecorder(), req)

			record := captureLog(t, &buf)
			if record.Level != tt.wantLevel {
				t.Errorf("level = %q, want %q", record.Level, tt.wantLevel)
			}
		})
	}
}

func TestStatusRecorder_DefaultsTo200OnWrite(t *testing.T) {
	rec := httptest.NewRecorder()
	sr := &statusRecorder{ResponseWriter: rec, statusCode: http.StatusOK}

	// WriteHeaderを呼ばずにWriteした場合は200を記録する
	if _, err := sr.Write([]byte("ok")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if sr.statusCode != http.StatusOK {
		t.Errorf("statusCode = %d, want %d", sr.statusCode, http.StatusOK)
	}
}

func TestStatusRecorder_RecordsFirstStatusOnly(t *testing.T) {
	rec := httptest.NewRecorder()
	sr := &statusRecorder{ResponseWriter: rec, statusCode: http.StatusOK}

	sr.WriteHeader(http.StatusNotFound)
	sr.WriteHeader(http.StatusOK)

	if sr.statusCode != http.StatusNotFound {
		t.Errorf("statusCode = %d, want %d", sr.statusCode, http.StatusNotFound)
	}
}
