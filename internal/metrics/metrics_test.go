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

// counterValue は指定メトリクスの最初のカウンタ値を取得するヘルパー。
func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range metrics {
		if mf.GetName() == name {
			if len(mf.GetMetric()) == 0 {
				t.Fatalf("metric %s has no samples", name)
			}
			return mf.GetMetric()[0].GetCounter().GetValue()
		}
	}
	t.Fatalf("metric %s not found", name)
	return 0
}

// TestNewCollector_ReturnsNonNil はCollectorが正常に生成されることを検証する。
func TestNewCollector_ReturnsNonNil(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	if c == nil {
		t.Fatal("expected non-nil Collector")
	}
}

// TestRecordRequest_IncrementsCounter はリクエストカウンタが増加することを検証する。
func TestRecordRequest_IncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordRequest("GET")
	c.RecordRequest("GET")

	if got := counterValue(t, reg, "tomolink_api_requests_total"); got != 2 {
		t.Errorf("api_requests_total = %v, want 2", got)
	}
}

// TestRecordHTTPStatus_LabelsByStatusCode はステータスコード別に記録されることを検証する。
func TestRecordHTTPStatus_LabelsByStatusCode(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(500)
	c.RecordHTTPStatus(200)

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	for _, mf := range metrics {
		if mf.GetName() != "tomolink_api_http_status_total" {
			continue
		}
		if len(mf.GetMetric()) != 2 {
			t.Fatalf("expected 2 labeled series, got %d", len(mf.GetMetric()))
		}
		for _, m := range mf.GetMetric() {
			code := m.GetLabel()[0].GetValue()
			val := m.GetCounter().GetValue()
			switch code {
			case "200":
				if val != 2 {
					t.Errorf("status 200 count = %v, want 2", val)
				}
			case "500":
				if val != 1 {
					t.Errorf("status 500 count = %v, want 1", val)
				}
			default:
				t.Errorf("unexpected status label: %s", code)
			}
		}
		return
	}
	t.Error("tomolink_api_http_status_total metric not found")
}

// TestRecordRequestFailure_LabelsByCategory は失敗カテゴリ別に記録されることを検証する。
func TestRecordRequestFailure_LabelsByCategory(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordRequestFailure("network")

	if got := counterValue(t, reg, "tomolink_api_request_fail_total"); got != 1 {
		t.Errorf("api_request_fail_total = %v, want 1", got)
	}
}

// TestRecordRequestLatency_ObservesHistogram はレイテンシがヒストグラムに記録されることを検証する。
func TestRecordRequestLatency_ObservesHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordRequestLatency(150 * time.Millisecond)

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	found := false
	for _, mf := range metrics {
		if mf.GetName() == "tomolink_api_request_latency_seconds" {
			found = true
			if mf.GetMetric()[0].GetHistogram().GetSampleCount() != 1 {
				t.Errorf("sample count = %d, want 1", mf.GetMetric()[0].GetHistogram().GetSampleCount())
			}
		}
	}
	if !found {
		t.Error("tomolink_api_request_latency_seconds metric not found")
	}
}

// TestHandler_ServesPrometheusFormat は/metricsがテキスト形式で応答することを検証する。
func TestHandler_ServesPrometheusFormat(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordRequest("POST")

	server := httptest.NewServer(Handler(reg))
	defer server.Close()

	resp, err := http.Get(server.URL)
	if err != nil {
		t.Fatalf("failed to scrape metrics: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}

	if !strings.Contains(string(body), "tomolink_api_requests_total") {
		t.Error("scrape output should contain tomolink_api_requests_total")
	}
}
