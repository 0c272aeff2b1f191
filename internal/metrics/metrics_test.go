package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// TestNewCollector_ReturnsNonNil はCollectorが生成されることを検証する。
func TestNewCollector_ReturnsNonNil(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	if c == nil {
		t.Fatal("expected non-nil Collector")
	}
}

// counterValue は指定メトリクスのカウンタ値を取得する。
func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range metrics {
		if mf.GetName() == name {
			var total float64
			for _, m := range mf.GetMetric() {
				total += m.GetCounter().GetValue()
			}
			return total
		}
	}
	t.Fatalf("metric %q not found", name)
	return 0
}

// TestRecordRequest_IncrementsCounterWithLabels はリクエストカウンタが
// メソッド・ステータスコードのラベル付きで増加することを検証する。
func TestRecordRequest_IncrementsCounterWithLabels(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordRequest("GET", 200, 10*time.Millisecond)
	c.RecordRequest("GET", 200, 20*time.Millisecond)
	c.RecordRequest("POST", 401, 5*time.Millisecond)

	if got := counterValue(t, reg, "userhub_http_requests_total"); got != 3 {
		t.Errorf("http_requests_total = %v, want 3", got)
	}

	// ラベル別の内訳を確認
	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range metrics {
		if mf.GetName() != "userhub_http_requests_total" {
			continue
		}
		if len(mf.GetMetric()) != 2 {
			t.Errorf("expected 2 label combinations, got %d", len(mf.GetMetric()))
		}
	}
}

// TestRecordRequest_ObservesHistogram はレイテンシヒストグラムが観測されることを検証する。
func TestRecordRequest_ObservesHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordRequest("GET", 200, 150*time.Millisecond)

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	found := false
	for _, mf := range metrics {
		if mf.GetName() == "userhub_http_request_duration_seconds" {
			found = true
			h := mf.GetMetric()[0].GetHistogram()
			if h.GetSampleCount() != 1 {
				t.Errorf("sample count = %d, want 1", h.GetSampleCount())
			}
			if h.GetSampleSum() < 0.1 || h.GetSampleSum() > 0.2 {
				t.Errorf("sample sum = %v, want ~0.15", h.GetSampleSum())
			}
		}
	}
	if !found {
		t.Error("userhub_http_request_duration_seconds metric not found")
	}
}

// TestRecordAuthSuccess_IncrementsCounter は認証成功カウンタが増加することを検証する。
func TestRecordAuthSuccess_IncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordAuthSuccess("signup")
	c.RecordAuthSuccess("signin")
	c.RecordAuthSuccess("signin")

	if got := counterValue(t, reg, "userhub_auth_success_total"); got != 3 {
		t.Errorf("auth_success_total = %v, want 3", got)
	}
}

// TestRecordAuthFailure_IncrementsCounter は認証失敗カウンタが増加することを検証する。
func TestRecordAuthFailure_IncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordAuthFailure("signin")

	if got := counterValue(t, reg, "userhub_auth_failure_total"); got != 1 {
		t.Errorf("auth_failure_total = %v, want 1", got)
	}
}

// TestHandler_ServesPrometheusFormat は/metricsハンドラーがPrometheus
// テキストフォーマットで応答することを検証する。
func TestHandler_ServesPrometheusFormat(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordRequest("GET", 200, time.Millisecond)

	handler := Handler(reg)
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	body, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	if !strings.Contains(string(body), "userhub_http_requests_total") {
		t.Errorf("metrics output does not contain userhub_http_requests_total:\n%s", body)
	}
}

// TestMultipleCollectors_IndependentRegistries は複数のCollectorが
// 独立したレジストリで共存できることを検証する。
func TestMultipleCollectors_IndependentRegistries(t *testing.T) {
	reg1 := prometheus.NewRegistry()
	reg2 := prometheus.NewRegistry()

	c1 := NewCollector(reg1)
	c2 := NewCollector(reg2)

	c1.RecordAuthSuccess("signup")
	c2.RecordAuthSuccess("signup")
	c2.RecordAuthSuccess("signin")

	if got := counterValue(t, reg1, "userhub_auth_success_total"); got != 1 {
		t.Errorf("registry1 auth_success_total = %v, want 1", got)
	}
	if got := counterValue(t, reg2, "userhub_auth_success_total"); got != 2 {
		t.Errorf("registry2 auth_success_total = %v, want 2", got)
	}
}
