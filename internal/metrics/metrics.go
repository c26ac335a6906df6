// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder はメトリクス収集のインターフェース。
// APIトランスポートから利用する。
type Recorder interface {
	RecordRequest(method string)
	RecordHTTPStatus(statusCode int)
	RecordRequestFailure(category string)
	RecordRequestLatency(duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	requests       *prometheus.CounterVec
	httpStatus     *prometheus.CounterVec
	requestFail    *prometheus.CounterVec
	requestLatency prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tomolink_api_requests_total",
			Help: "送信したAPIリクエストのHTTPメソッド別合計数",
		}, []string{"method"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tomolink_api_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tomolink_api_request_fail_total",
			Help: "APIリクエスト失敗のエラーカテゴリ別合計数",
		}, []string{"category"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tomolink_api_request_latency_seconds",
			Help:    "APIリクエストのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.requests,
		c.httpStatus,
		c.requestFail,
		c.requestLatency,
	)

	return c
}

// RecordRequest はAPIリクエストの送信を記録する。
func (c *Collector) RecordRequest(method string) {
	c.requests.WithLabelValues(method).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestFailure はリクエスト失敗をエラーカテゴリ別に記録する。
func (c *Collector) RecordRequestFailure(category string) {
	c.requestFail.WithLabelValues(category).Inc()
}

// RecordRequestLatency はリクエストのレイテンシを記録する。
func (c *Collector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
}

// Nop は何も記録しないRecorder。メトリクス収集が不要な場合に使用する。
type Nop struct{}

// RecordRequest は何もしない。
func (Nop) RecordRequest(method string) {}

// RecordHTTPStatus は何もしない。
func (Nop) RecordHTTPStatus(statusCode int) {}

// RecordRequestFailure は何もしない。
func (Nop) RecordRequestFailure(category string) {}

// RecordRequestLatency は何もしない。
func (Nop) RecordRequestLatency(duration time.Duration) {}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
