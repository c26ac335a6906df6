package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// API
	APIBaseURL     string
	RequestTimeout time.Duration

	// Rate Limit（外向きリクエストの平滑化）
	RateLimitPerSec float64
	RateLimitBurst  int

	// Upload（外部アセットホスト）
	UploadURL    string
	UploadPreset string

	// Local Storage
	DataDir string

	// Pagination
	PostsPerPage    int
	CommentsPerPost int
	UsersPerPage    int

	// Dev Server
	ServerPort string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.APIBaseURL = os.Getenv("API_BASE_URL")
	if cfg.APIBaseURL == "" {
		missing = append(missing, "API_BASE_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.RequestTimeout = getEnvDuration("REQUEST_TIMEOUT", 10*time.Second)
	cfg.RateLimitPerSec = getEnvFloat("RATE_LIMIT_PER_SEC", 5.0)
	cfg.RateLimitBurst = getEnvInt("RATE_LIMIT_BURST", 10)
	cfg.UploadURL = getEnvString("UPLOAD_URL", "")
	cfg.UploadPreset = getEnvString("UPLOAD_PRESET", "")
	cfg.DataDir = getEnvString("DATA_DIR", ".tomolink")
	cfg.PostsPerPage = getEnvInt("POSTS_PER_PAGE", 10)
	cfg.CommentsPerPost = getEnvInt("COMMENTS_PER_POST", 3)
	cfg.UsersPerPage = getEnvInt("USERS_PER_PAGE", 12)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvFloat(key string, defaultVal float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
