// Package session は認証セッションのライフサイクル管理を提供する。
//
// 起動時のトークン検証によるセッション復元、ログイン・登録・ログアウト、
// およびプロフィール更新のセッションユーザーへの片方向同期を担う。
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/hitoshi/tomolink/internal/model"
	"github.com/hitoshi/tomolink/internal/token"
)

// apiClient はセッション管理が必要とするトランスポートのインターフェース。
type apiClient interface {
	Get(ctx context.Context, path string, query url.Values) (json.RawMessage, error)
	Post(ctx context.Context, path string, body any) (json.RawMessage, error)
	SetToken(accessToken string)
	ClearToken()
}

// tokenStore はトークン永続化のインターフェース。
type tokenStore interface {
	Load() (string, error)
	Save(accessToken string) error
	Clear() error
}

// State はセッションの状態スナップショットを表す。
// IsInitializedは単調：プロセス生存中にfalse→trueへちょうど1回遷移する。
type State struct {
	IsInitialized   bool
	IsAuthenticated bool
	User            *model.User
}

// Service はセッション管理サービス。
type Service struct {
	api    apiClient
	tokens tokenStore
	logger *slog.Logger
	now    func() time.Time // テスト用に差し替え可能

	mu    sync.Mutex
	state State
	subs  []func(State)
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(api apiClient, tokens tokenStore, logger *slog.Logger) *Service {
	return &Service{
		api:    api,
		tokens: tokens,
		logger: logger,
		now:    time.Now,
	}
}

// State は現在のセッション状態のスナップショットを返す。
func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe はセッション状態の変更通知を受け取るコールバックを登録する。
// ビュー層が再描画の契機として使用する。
func (s *Service) Subscribe(fn func(State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

// snapshotLocked はロック保持中に状態のコピーを作成する。
// Userは独立したコピーを返し、呼び出し側の変更がキャッシュへ波及しないようにする。
func (s *Service) snapshotLocked() State {
	snap := State{
		IsInitialized:   s.state.IsInitialized,
		IsAuthenticated: s.state.IsAuthenticated,
	}
	if s.state.User != nil {
		u := *s.state.User
		snap.User = &u
	}
	return snap
}

// setState は状態を置き換え、スナップショットを通知する。
func (s *Service) setState(st State) {
	s.mu.Lock()
	s.state = st
	snap := s.snapshotLocked()
	subs := s.subs
	s.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}

// Initialize は起動時にセッションを復元する。
// 保存されたトークンが存在し期限内であればトランスポートに付与して
// 現在のユーザーを取得し、認証済み状態に遷移する。
// トークンが存在しない・期限切れ・取得失敗のいずれの場合もトークンを破棄し、
// 匿名の初期化済み状態に遷移する（エラーにはしない）。
// プロセス生存中にちょうど1回だけ実行される。2回目以降の呼び出しは何もしない。
func (s *Service) Initialize(ctx context.Context) State {
	s.mu.Lock()
	if s.state.IsInitialized {
		s.mu.Unlock()
		s.logger.Warn("session already initialized, ignoring")
		return s.State()
	}
	s.mu.Unlock()

	// 1. 保存されたトークンの読み込みと期限チェック
	accessToken, err := s.tokens.Load()
	if err != nil {
		s.logger.Error("failed to load persisted token",
			slog.String("error", err.Error()),
		)
		accessToken = ""
	}

	if accessToken == "" || !token.IsValid(accessToken, s.now()) {
		s.clearSession()
		st := State{IsInitialized: true}
		s.setState(st)
		s.logger.Info("session initialized as anonymous")
		return s.State()
	}

	// 2. トークンをトランスポートへ付与して現在のユーザーを取得
	s.api.SetToken(accessToken)

	data, err := s.api.Get(ctx, "/users/me", nil)
	if err != nil {
		s.logger.Warn("failed to fetch current user during initialize",
			slog.String("error", err.Error()),
		)
		s.clearSession()
		s.setState(State{IsInitialized: true})
		return s.State()
	}

	var user model.User
	if err := json.Unmarshal(data, &user); err != nil {
		s.logger.Error("failed to decode current user",
			slog.String("error", err.Error()),
		)
		s.clearSession()
		s.setState(State{IsInitialized: true})
		return s.State()
	}

	s.setState(State{IsInitialized: true, IsAuthenticated: true, User: &user})
	s.logger.Info("session restored",
		slog.String("user_id", user.ID),
	)
	return s.State()
}

// authPayload はログイン・登録の成功レスポンス。
type authPayload struct {
	User        *model.User `json:"user"`
	AccessToken string      `json:"accessToken"`
}

// Login は資格情報でログインし、セッションを認証済み状態に遷移させる。
// トランスポートのエラーはそのまま呼び出し元へ返す（内部で握りつぶさない）。
func (s *Service) Login(ctx context.Context, email, password string) error {
	data, err := s.api.Post(ctx, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return err
	}

	return s.applyAuthSuccess(data, "user logged in")
}

// Register は新規ユーザーを登録し、ログインと同じ契約でセッションを確立する。
func (s *Service) Register(ctx context.Context, name, email, password string) error {
	data, err := s.api.Post(ctx, "/users", map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	})
	if err != nil {
		return err
	}

	return s.applyAuthSuccess(data, "user registered")
}

// applyAuthSuccess は認証成功レスポンスを適用する。
// トークンを永続化・付与し、認証済み状態へ遷移する。
func (s *Service) applyAuthSuccess(data json.RawMessage, event string) error {
	var payload authPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return model.NewInvalidResponseError(err.Error())
	}
	if payload.User == nil || payload.AccessToken == "" {
		return model.NewInvalidResponseError("auth response is missing user or accessToken")
	}

	if err := s.tokens.Save(payload.AccessToken); err != nil {
		return fmt.Errorf("failed to persist access token: %w", err)
	}
	s.api.SetToken(payload.AccessToken)

	s.setState(State{IsInitialized: true, IsAuthenticated: true, User: payload.User})
	s.logger.Info(event,
		slog.String("user_id", payload.User.ID),
	)
	return nil
}

// Logout はトークンを破棄し、セッションを匿名状態に戻す。
// ネットワークに依存せず、ローカルでは常に成功する。
func (s *Service) Logout() {
	s.clearSession()
	s.setState(State{IsInitialized: true})
	s.logger.Info("user logged out")
}

// clearSession は永続トークンとトランスポートのトークンを破棄する。
func (s *Service) clearSession() {
	if err := s.tokens.Clear(); err != nil {
		s.logger.Error("failed to clear persisted token",
			slog.String("error", err.Error()),
		)
	}
	s.api.ClearToken()
}

// ApplyProfileUpdate はユーザーキャッシュで成功したプロフィール更新を
// セッションユーザーへ片方向同期する。
// 更新されたプロフィールの識別子がセッションユーザーと一致する場合のみ
// プロフィール属性をマージする（キャッシュ→セッションの一方向）。
func (s *Service) ApplyProfileUpdate(updated *model.User) {
	if updated == nil {
		return
	}

	s.mu.Lock()
	if !s.state.IsAuthenticated || s.state.User == nil || s.state.User.ID != updated.ID {
		s.mu.Unlock()
		return
	}

	u := s.state.User
	u.Name = updated.Name
	u.AvatarURL = updated.AvatarURL
	u.CoverURL = updated.CoverURL
	u.AboutMe = updated.AboutMe
	u.City = updated.City
	u.Country = updated.Country
	u.Company = updated.Company
	u.JobTitle = updated.JobTitle
	u.FacebookLink = updated.FacebookLink
	u.InstagramLink = updated.InstagramLink
	u.LinkedinLink = updated.LinkedinLink
	u.TwitterLink = updated.TwitterLink
	u.FriendCount = updated.FriendCount
	u.PostCount = updated.PostCount

	snap := s.snapshotLocked()
	subs := s.subs
	s.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}
