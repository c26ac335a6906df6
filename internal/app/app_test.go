package app

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

// TestInit_MissingRequiredEnv は必須環境変数なしでInitが失敗することを検証する。
func TestInit_MissingRequiredEnv(t *testing.T) {
	t.Setenv("API_BASE_URL", "")

	var buf bytes.Buffer
	if _, err := Init(&buf); err == nil {
		t.Fatal("Init should fail without API_BASE_URL")
	}
}

// TestInit_LoadsConfig は環境変数から設定が読み込まれることを検証する。
func TestInit_LoadsConfig(t *testing.T) {
	t.Setenv("API_BASE_URL", "http://localhost:8080")

	var buf bytes.Buffer
	cfg, err := Init(&buf)
	if err != nil {
		t.Fatalf("Init returned error: %v", err)
	}
	if cfg.APIBaseURL != "http://localhost:8080" {
		t.Errorf("APIBaseURL = %q", cfg.APIBaseURL)
	}
}

// TestRun_HelpPrintsUsage は引数なしのRunが使い方を表示することを検証する。
func TestRun_HelpPrintsUsage(t *testing.T) {
	var buf bytes.Buffer
	if err := Run(&buf, nil); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if !strings.Contains(buf.String(), "devserver") {
		t.Errorf("usage output = %q, want subcommand listing", buf.String())
	}
}

// TestRunHealthcheck_OK はhealthzが200を返すサーバーに対して成功することを検証する。
func TestRunHealthcheck_OK(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/healthz" {
			t.Errorf("path = %q, want /healthz", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	u, err := url.Parse(ts.URL)
	if err != nil {
		t.Fatal(err)
	}
	if err := runHealthcheck(u.Port()); err != nil {
		t.Errorf("runHealthcheck returned error: %v", err)
	}
}

// TestRunHealthcheck_ServerDown は到達不能なポートでエラーになることを検証する。
func TestRunHealthcheck_ServerDown(t *testing.T) {
	if err := runHealthcheck("1"); err == nil {
		t.Error("runHealthcheck should fail when nothing is listening")
	}
}
