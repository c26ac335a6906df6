package config

import (
	"strings"
	"testing"
	"time"
)

func setRequiredEnvVars(t *testing.T) {
	t.Helper()
	t.Setenv("API_BASE_URL", "http://localhost:8080/api")
}

func TestLoad_AllRequiredVarsSet_ReturnsConfig(t *testing.T) {
	setRequiredEnvVars(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.APIBaseURL != "http://localhost:8080/api" {
		t.Errorf("APIBaseURL = %q, want %q", cfg.APIBaseURL, "http://localhost:8080/api")
	}
}

func TestLoad_MissingRequiredVar_ReturnsError(t *testing.T) {
	t.Setenv("API_BASE_URL", "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error when API_BASE_URL is not set")
	}
	if !strings.Contains(err.Error(), "API_BASE_URL") {
		t.Errorf("error should name the missing variable, got: %v", err)
	}
}

func TestLoad_DefaultValues(t *testing.T) {
	setRequiredEnvVars(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.RequestTimeout != 10*time.Second {
		t.Errorf("RequestTimeout = %v, want %v", cfg.RequestTimeout, 10*time.Second)
	}
	if cfg.RateLimitPerSec != 5.0 {
		t.Errorf("RateLimitPerSec = %v, want %v", cfg.RateLimitPerSec, 5.0)
	}
	if cfg.RateLimitBurst != 10 {
		t.Errorf("RateLimitBurst = %d, want %d", cfg.RateLimitBurst, 10)
	}
	if cfg.DataDir != ".tomolink" {
		t.Errorf("DataDir = %q, want %q", cfg.DataDir, ".tomolink")
	}
	if cfg.PostsPerPage != 10 {
		t.Errorf("PostsPerPage = %d, want %d", cfg.PostsPerPage, 10)
	}
	if cfg.CommentsPerPost != 3 {
		t.Errorf("CommentsPerPost = %d, want %d", cfg.CommentsPerPost, 3)
	}
	if cfg.UsersPerPage != 12 {
		t.Errorf("UsersPerPage = %d, want %d", cfg.UsersPerPage, 12)
	}
	if cfg.ServerPort != "8080" {
		t.Errorf("ServerPort = %q, want %q", cfg.ServerPort, "8080")
	}
}

func TestLoad_OverriddenValues(t *testing.T) {
	setRequiredEnvVars(t)
	t.Setenv("REQUEST_TIMEOUT", "30s")
	t.Setenv("POSTS_PER_PAGE", "5")
	t.Setenv("UPLOAD_URL", "https://api.cloudinary.com/v1_1/demo/image/upload")
	t.Setenv("UPLOAD_PRESET", "unsigned-demo")
	t.Setenv("DATA_DIR", "/var/lib/tomolink")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.RequestTimeout != 30*time.Second {
		t.Errorf("RequestTimeout = %v, want %v", cfg.RequestTimeout, 30*time.Second)
	}
	if cfg.PostsPerPage != 5 {
		t.Errorf("PostsPerPage = %d, want %d", cfg.PostsPerPage, 5)
	}
	if cfg.UploadURL != "https://api.cloudinary.com/v1_1/demo/image/upload" {
		t.Errorf("UploadURL = %q", cfg.UploadURL)
	}
	if cfg.UploadPreset != "unsigned-demo" {
		t.Errorf("UploadPreset = %q", cfg.UploadPreset)
	}
	if cfg.DataDir != "/var/lib/tomolink" {
		t.Errorf("DataDir = %q", cfg.DataDir)
	}
}

func TestLoad_InvalidNumericValue_FallsBackToDefault(t *testing.T) {
	setRequiredEnvVars(t)
	t.Setenv("POSTS_PER_PAGE", "not-a-number")
	t.Setenv("REQUEST_TIMEOUT", "whenever")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.PostsPerPage != 10 {
		t.Errorf("PostsPerPage = %d, want default %d", cfg.PostsPerPage, 10)
	}
	if cfg.RequestTimeout != 10*time.Second {
		t.Errorf("RequestTimeout = %v, want default %v", cfg.RequestTimeout, 10*time.Second)
	}
}
