package upload

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/hitoshi/tomolink/internal/model"
)

func newTestLogger() *slog.Logger {
	var buf bytes.Buffer
	return slog.New(slog.NewJSONHandler(&buf, nil))
}

// writeTempImage はテスト用の画像ファイルを作成する。
func writeTempImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "avatar.png")
	if err := os.WriteFile(path, []byte("fake-png-bytes"), 0o600); err != nil {
		t.Fatalf("failed to write temp image: %v", err)
	}
	return path
}

// TestUpload_NilInputReturnsEmpty は画像なし入力に空文字列を返すことを検証する。
func TestUpload_NilInputReturnsEmpty(t *testing.T) {
	u := NewUploader(http.DefaultClient, newTestLogger(), "https://assets.example.com/upload", "preset")

	got, err := u.Upload(context.Background(), nil)
	if err != nil {
		t.Fatalf("Upload returned error: %v", err)
	}
	if got != "" {
		t.Errorf("Upload = %q, want empty string", got)
	}
}

// TestUpload_URLInputPassesThrough は既存URLがそのまま返ることを検証する。
// アセットホストへのリクエストは発生しない。
func TestUpload_URLInputPassesThrough(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("asset host should not be called for URL input")
	}))
	defer server.Close()

	u := NewUploader(server.Client(), newTestLogger(), server.URL, "preset")

	got, err := u.Upload(context.Background(), &model.ImageInput{URL: "https://cdn.example.com/existing.png"})
	if err != nil {
		t.Fatalf("Upload returned error: %v", err)
	}
	if got != "https://cdn.example.com/existing.png" {
		t.Errorf("Upload = %q, want pass-through URL", got)
	}
}

// TestUpload_LocalFileUploadsMultipart はローカルファイルがmultipartで送信されることを検証する。
func TestUpload_LocalFileUploadsMultipart(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("HTTPメソッド = %s, want POST", r.Method)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("failed to parse multipart form: %v", err)
		}
		if got := r.FormValue("upload_preset"); got != "unsigned-demo" {
			t.Errorf("upload_preset = %q, want %q", got, "unsigned-demo")
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("failed to read file part: %v", err)
		}
		defer file.Close()
		if header.Filename != "avatar.png" {
			t.Errorf("filename = %q, want %q", header.Filename, "avatar.png")
		}
		w.Write([]byte(`{"secure_url":"https://assets.example.com/v1/avatar.png"}`))
	}))
	defer server.Close()

	u := NewUploader(server.Client(), newTestLogger(), server.URL, "unsigned-demo")

	got, err := u.Upload(context.Background(), &model.ImageInput{LocalPath: writeTempImage(t)})
	if err != nil {
		t.Fatalf("Upload returned error: %v", err)
	}
	if got != "https://assets.example.com/v1/avatar.png" {
		t.Errorf("Upload = %q, want hosted URL", got)
	}
}

// TestUpload_MissingFileReturnsError は存在しないファイルでエラーになることを検証する。
func TestUpload_MissingFileReturnsError(t *testing.T) {
	u := NewUploader(http.DefaultClient, newTestLogger(), "https://assets.example.com/upload", "preset")

	_, err := u.Upload(context.Background(), &model.ImageInput{LocalPath: "/no/such/file.png"})
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

// TestUpload_HostErrorStatusReturnsError はアセットホストのエラー応答がエラーになることを検証する。
func TestUpload_HostErrorStatusReturnsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	u := NewUploader(server.Client(), newTestLogger(), server.URL, "preset")

	_, err := u.Upload(context.Background(), &model.ImageInput{LocalPath: writeTempImage(t)})
	if err == nil {
		t.Fatal("expected error for 401 from asset host")
	}
}

// TestUpload_NoUploadURLConfigured はアップロード先未設定でローカルファイルを渡した場合のエラーを検証する。
func TestUpload_NoUploadURLConfigured(t *testing.T) {
	u := NewUploader(http.DefaultClient, newTestLogger(), "", "")

	_, err := u.Upload(context.Background(), &model.ImageInput{LocalPath: writeTempImage(t)})
	if err == nil {
		t.Fatal("expected error when UPLOAD_URL is not configured")
	}
}
