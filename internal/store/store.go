// Package store はアプリケーションの状態レイヤーを組み立てる。
//
// トランスポート・トークンストア・各機能キャッシュ・セッション管理を
// 明示的に配線した単一のStoreを提供する。グローバルシングルトンは
// 持たず、呼び出し側が生成したインスタンスを参照で引き回す。
package store

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hitoshi/tomolink/internal/api"
	"github.com/hitoshi/tomolink/internal/comment"
	"github.com/hitoshi/tomolink/internal/config"
	"github.com/hitoshi/tomolink/internal/friend"
	"github.com/hitoshi/tomolink/internal/metrics"
	"github.com/hitoshi/tomolink/internal/post"
	"github.com/hitoshi/tomolink/internal/security"
	"github.com/hitoshi/tomolink/internal/session"
	"github.com/hitoshi/tomolink/internal/token"
	"github.com/hitoshi/tomolink/internal/upload"
	"github.com/hitoshi/tomolink/internal/user"
)

// Store はアプリケーション全体の状態レイヤー。
// 各フィールドは機能単位のキャッシュサービスで、すべて同一の
// トランスポートとセッションを共有する。
type Store struct {
	Session  *session.Service
	Posts    *post.Service
	Comments *comment.Service
	Friends  *friend.Service
	Users    *user.Service

	API    *api.Client
	tokens *token.Store
}

// Options はStore生成時の依存の差し替えポイント。
// テストではInMemoryTokensとRecorderを差し替える。
type Options struct {
	// HTTPClient はnilの場合http.DefaultClientが使われる。
	HTTPClient *http.Client
	// Recorder はnilの場合メトリクスを記録しない。
	Recorder metrics.Recorder
	// InMemoryTokens はトークンをディスクへ永続化しない。テスト用。
	InMemoryTokens bool
}

// New は設定からStoreを組み立てる。
// 返されたStoreは使用後にCloseでトークンストアを閉じる。
func New(cfg *config.Config, logger *slog.Logger, opts Options) (*Store, error) {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.RequestTimeout}
	}

	tokens, err := token.Open(token.StoreConfig{
		Dir:      cfg.DataDir,
		InMemory: opts.InMemoryTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open token store: %w", err)
	}

	apiClient := api.NewClient(httpClient, logger, opts.Recorder, api.Config{
		BaseURL:         cfg.APIBaseURL,
		RateLimitPerSec: cfg.RateLimitPerSec,
		RateLimitBurst:  cfg.RateLimitBurst,
	})
	uploader := upload.NewUploader(httpClient, logger, cfg.UploadURL, cfg.UploadPreset)
	sanitizer := security.NewContentSanitizer()

	sess := session.NewService(apiClient, tokens, logger)
	users := user.NewService(apiClient, uploader, logger)
	posts := post.NewService(apiClient, uploader, sanitizer, users, logger, cfg.PostsPerPage)
	comments := comment.NewService(apiClient, sanitizer, logger, cfg.CommentsPerPost)
	friends := friend.NewService(apiClient, logger, cfg.UsersPerPage)

	// プロフィール更新の成功結果をセッションユーザーへ片方向同期する
	users.SetProfileListener(sess.ApplyProfileUpdate)

	return &Store{
		Session:  sess,
		Posts:    posts,
		Comments: comments,
		Friends:  friends,
		Users:    users,
		API:      apiClient,
		tokens:   tokens,
	}, nil
}

// Close はStoreが保持するリソースを解放する。
func (s *Store) Close() error {
	return s.tokens.Close()
}
