// Package user はプロフィールのキャッシュと更新操作を提供する。
//
// 閲覧中プロフィール（SelectedUser）と、更新操作の成功結果
// （UpdatedProfile）を保持する。UpdatedProfileはセッション管理が
// 観測してセッションユーザーへ片方向マージする待機値でもある。
package user

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"
	"sync"

	"github.com/hitoshi/tomolink/internal/model"
)

// apiClient はプロフィールキャッシュが必要とするトランスポートのインターフェース。
type apiClient interface {
	Get(ctx context.Context, path string, query url.Values) (json.RawMessage, error)
	Put(ctx context.Context, path string, body any) (json.RawMessage, error)
}

// assetUploader はアバター画像をホスト済みURLへ解決するインターフェース。
type assetUploader interface {
	Upload(ctx context.Context, input *model.ImageInput) (string, error)
}

// State はプロフィールキャッシュの状態スナップショットを表す。
type State struct {
	SelectedUser   *model.User
	UpdatedProfile *model.User
	IsLoading      bool
	Err            error
}

// ProfileInput はプロフィール更新の入力。
// Avatarはローカルファイルの場合のみ先にアップロードされる。
// 既存URLのままの場合、アバターは更新ペイロードへ含めない。
type ProfileInput struct {
	Name          string
	Avatar        *model.ImageInput
	CoverURL      string
	AboutMe       string
	City          string
	Country       string
	Company       string
	JobTitle      string
	FacebookLink  string
	InstagramLink string
	LinkedinLink  string
	TwitterLink   string
}

// Service はプロフィールキャッシュサービス。
type Service struct {
	api      apiClient
	uploader assetUploader
	logger   *slog.Logger

	mu       sync.Mutex
	state    State
	listener func(*model.User)
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(api apiClient, uploader assetUploader, logger *slog.Logger) *Service {
	return &Service{
		api:      api,
		uploader: uploader,
		logger:   logger,
	}
}

// SetProfileListener はプロフィール更新成功時の観測者を登録する。
// セッション管理がここへ接続し、更新結果をセッションユーザーへ
// マージする。
func (s *Service) SetProfileListener(fn func(*model.User)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listener = fn
}

// State は現在の状態のスナップショットを返す。
func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := State{
		IsLoading: s.state.IsLoading,
		Err:       s.state.Err,
	}
	if s.state.SelectedUser != nil {
		u := *s.state.SelectedUser
		clone.SelectedUser = &u
	}
	if s.state.UpdatedProfile != nil {
		u := *s.state.UpdatedProfile
		clone.UpdatedProfile = &u
	}
	return clone
}

// FetchUser は指定ユーザーのプロフィールを取得してSelectedUserへ格納する。
func (s *Service) FetchUser(ctx context.Context, userID string) error {
	s.startLoading()

	data, err := s.api.Get(ctx, "/users/"+userID, nil)
	if err != nil {
		return s.fail(err)
	}

	var u model.User
	if err := json.Unmarshal(data, &u); err != nil {
		return s.fail(model.NewInvalidResponseError(err.Error()))
	}

	s.mu.Lock()
	s.state.IsLoading = false
	s.state.Err = nil
	s.state.SelectedUser = &u
	s.mu.Unlock()

	s.logger.Debug("user fetched",
		slog.String("user_id", userID),
	)
	return nil
}

// FetchCurrentUser はセッションユーザーのプロフィールを取り直し、
// UpdatedProfileとして公開する。投稿の作成・削除後に投稿数を
// 反映させるために呼ばれる。
func (s *Service) FetchCurrentUser(ctx context.Context) error {
	s.startLoading()

	data, err := s.api.Get(ctx, "/users/me", nil)
	if err != nil {
		return s.fail(err)
	}

	var u model.User
	if err := json.Unmarshal(data, &u); err != nil {
		return s.fail(model.NewInvalidResponseError(err.Error()))
	}

	s.publishProfile(&u)
	return nil
}

// RefreshCurrentUser はFetchCurrentUserの別名。
// 投稿キャッシュが投稿数の更新契機として呼び出す。
func (s *Service) RefreshCurrentUser(ctx context.Context) error {
	return s.FetchCurrentUser(ctx)
}

// UpdateProfile はプロフィールを更新する。
// アバターがローカルファイルの場合のみ先にアップロードしてURLへ解決し、
// 更新ペイロードへ含める。成功結果はUpdatedProfileとして公開される。
func (s *Service) UpdateProfile(ctx context.Context, userID string, input ProfileInput) error {
	s.startLoading()

	payload := map[string]any{
		"name":          input.Name,
		"coverUrl":      input.CoverURL,
		"aboutMe":       input.AboutMe,
		"city":          input.City,
		"country":       input.Country,
		"company":       input.Company,
		"jobTitle":      input.JobTitle,
		"facebookLink":  input.FacebookLink,
		"instagramLink": input.InstagramLink,
		"linkedinLink":  input.LinkedinLink,
		"twitterLink":   input.TwitterLink,
	}
	if input.Avatar.IsLocal() {
		avatarURL, err := s.uploader.Upload(ctx, input.Avatar)
		if err != nil {
			return s.fail(err)
		}
		payload["avatarUrl"] = avatarURL
	}

	data, err := s.api.Put(ctx, "/users/"+userID, payload)
	if err != nil {
		return s.fail(err)
	}

	var updated model.User
	if err := json.Unmarshal(data, &updated); err != nil {
		return s.fail(model.NewInvalidResponseError(err.Error()))
	}

	s.publishProfile(&updated)
	s.logger.Info("profile updated",
		slog.String("user_id", userID),
	)
	return nil
}

// publishProfile は更新済みプロフィールをUpdatedProfileへ格納し、
// 登録済みの観測者へ通知する。
func (s *Service) publishProfile(u *model.User) {
	s.mu.Lock()
	s.state.IsLoading = false
	s.state.Err = nil
	s.state.UpdatedProfile = u
	listener := s.listener
	s.mu.Unlock()

	if listener != nil {
		listener(u)
	}
}

func (s *Service) startLoading() {
	s.mu.Lock()
	s.state.IsLoading = true
	s.mu.Unlock()
}

// fail はエラーをキャッシュのErrフィールドへ記録して返す。
func (s *Service) fail(err error) error {
	s.mu.Lock()
	s.state.IsLoading = false
	s.state.Err = err
	s.mu.Unlock()

	s.logger.Warn("user operation failed",
		slog.String("error", err.Error()),
	)
	return err
}
