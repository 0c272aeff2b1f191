// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector はPrometheusメトリクスを収集する実装。
// HTTPリクエストの記録はミドルウェアから、認証結果の記録は
// 認証サービスから利用される。
type Collector struct {
	httpRequests *prometheus.CounterVec
	httpDuration prometheus.Histogram
	authSuccess  *prometheus.CounterVec
	authFailure  *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "userhub_http_requests_total",
			Help: "メソッド・ステータスコード別のHTTPリクエスト数",
		}, []string{"method", "status_code"}),
		httpDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "userhub_http_request_duration_seconds",
			Help:    "HTTPリクエスト処理のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		authSuccess: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "userhub_auth_success_total",
			Help: "操作別の認証成功数",
		}, []string{"operation"}),
		authFailure: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "userhub_auth_failure_total",
			Help: "操作別の認証失敗数",
		}, []string{"operation"}),
	}

	reg.MustRegister(
		c.httpRequests,
		c.httpDuration,
		c.authSuccess,
		c.authFailure,
	)

	return c
}

// RecordRequest はHTTPリクエストの完了を記録する。
func (c *Collector) RecordRequest(method string, statusCode int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, strconv.Itoa(statusCode)).Inc()
	c.httpDuration.Observe(duration.Seconds())
}

// RecordAuthSuccess は認証操作の成功を記録する。
func (c *Collector) RecordAuthSuccess(operation string) {
	c.authSuccess.WithLabelValues(operation).Inc()
}

// RecordAuthFailure は認証操作の失敗を記録する。
func (c *Collector) RecordAuthFailure(operation string) {
	c.authFailure.WithLabelValues(operation).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
