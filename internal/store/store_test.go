package store

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/tomolink/internal/config"
	"github.com/hitoshi/tomolink/internal/user"
)

func newTestLogger() *slog.Logger {
	var buf bytes.Buffer
	return slog.New(slog.NewJSONHandler(&buf, nil))
}

func writeData(w http.ResponseWriter, data any) {
	json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"data":    data,
	})
}

// newTestBackend はログイン・プロフィール更新・現在ユーザー取得だけを
// 持つ最小バックエンドを返す。
func newTestBackend(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		writeData(w, map[string]any{
			"user":        map[string]any{"_id": "u1", "name": "hitoshi"},
			"accessToken": "tok-123",
		})
	})
	mux.HandleFunc("PUT /users/u1", func(w http.ResponseWriter, r *http.Request) {
		writeData(w, map[string]any{"_id": "u1", "name": "renamed"})
	})
	return httptest.NewServer(mux)
}

func newTestStore(t *testing.T, baseURL string) *Store {
	t.Helper()
	cfg := &config.Config{
		APIBaseURL:      baseURL,
		PostsPerPage:    10,
		CommentsPerPost: 3,
		UsersPerPage:    12,
	}
	st, err := New(cfg, newTestLogger(), Options{InMemoryTokens: true})
	if err != nil {
		t.Fatalf("failed to build store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

// TestNew_WiresAllServices は組み立てられたStoreの全サービスが
// 利用可能であることを検証する。
func TestNew_WiresAllServices(t *testing.T) {
	backend := newTestBackend(t)
	defer backend.Close()

	st := newTestStore(t, backend.URL)

	if st.Session == nil || st.Posts == nil || st.Comments == nil || st.Friends == nil || st.Users == nil {
		t.Fatal("all services should be wired")
	}
}

// TestProfileUpdate_SyncsIntoSession はプロフィール更新の成功結果が
// セッションユーザーへ片方向同期されることを検証する。
func TestProfileUpdate_SyncsIntoSession(t *testing.T) {
	backend := newTestBackend(t)
	defer backend.Close()

	st := newTestStore(t, backend.URL)
	ctx := context.Background()

	if err := st.Session.Login(ctx, "h@example.com", "secret"); err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	if err := st.Users.UpdateProfile(ctx, "u1", user.ProfileInput{Name: "renamed"}); err != nil {
		t.Fatalf("UpdateProfile returned error: %v", err)
	}

	sess := st.Session.State()
	if sess.User == nil || sess.User.Name != "renamed" {
		t.Errorf("session user = %+v, want merged name", sess.User)
	}
}
