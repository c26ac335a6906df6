// Package friend はユーザー一覧と友達関係のキャッシュを提供する。
//
// 全ユーザー・友達・受信申請・送信申請の4つの一覧クエリが単一の
// ビュー形状を共有し、取得のたびに現在のビューを上書きする
// （同時に「現在」でいられるのは1ビューのみ）。関係の変更は対象
// ユーザーのfriendship属性のみをパッチし、一覧の再取得は行わない。
package friend

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"
	"strconv"
	"sync"

	"github.com/hitoshi/tomolink/internal/model"
)

// apiClient は友達キャッシュが必要とするトランスポートのインターフェース。
type apiClient interface {
	Get(ctx context.Context, path string, query url.Values) (json.RawMessage, error)
	Post(ctx context.Context, path string, body any) (json.RawMessage, error)
	Put(ctx context.Context, path string, body any) (json.RawMessage, error)
	Delete(ctx context.Context, path string) (json.RawMessage, error)
}

// State は友達キャッシュの状態スナップショットを表す。
type State struct {
	UsersByID        map[string]*model.User
	CurrentPageUsers []string
	TotalUsers       int
	TotalPages       int
	IsLoading        bool
	Err              error
}

// ListFilter は一覧クエリの絞り込み条件。
// Nameが空のときは名前絞り込みを送らない。
type ListFilter struct {
	Name  string
	Page  int
	Limit int
}

// Service は友達キャッシュサービス。
type Service struct {
	api      apiClient
	logger   *slog.Logger
	pageSize int

	mu    sync.Mutex
	state State
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(api apiClient, logger *slog.Logger, pageSize int) *Service {
	return &Service{
		api:      api,
		logger:   logger,
		pageSize: pageSize,
		state: State{
			UsersByID:  map[string]*model.User{},
			TotalUsers: 1,
			TotalPages: 1,
		},
	}
}

// State は現在の状態のスナップショットを返す。
func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneState(&s.state)
}

// userPage はユーザー一覧系エンドポイントの共通レスポンス。
type userPage struct {
	Users      []*model.User `json:"users"`
	Count      int           `json:"count"`
	TotalPages int           `json:"totalPages"`
}

// FetchUsers は全ユーザー一覧を取得して現在のビューを置き換える。
func (s *Service) FetchUsers(ctx context.Context, filter ListFilter) error {
	return s.fetchListing(ctx, "/users", filter)
}

// FetchFriends は友達一覧を取得して現在のビューを置き換える。
func (s *Service) FetchFriends(ctx context.Context, filter ListFilter) error {
	return s.fetchListing(ctx, "/friends", filter)
}

// FetchIncomingRequests は受信した友達申請の一覧を取得して現在のビューを
// 置き換える。
func (s *Service) FetchIncomingRequests(ctx context.Context, filter ListFilter) error {
	return s.fetchListing(ctx, "/friends/requests/incoming", filter)
}

// FetchOutgoingRequests は送信した友達申請の一覧を取得して現在のビューを
// 置き換える。
func (s *Service) FetchOutgoingRequests(ctx context.Context, filter ListFilter) error {
	return s.fetchListing(ctx, "/friends/requests/outgoing", filter)
}

func (s *Service) fetchListing(ctx context.Context, path string, filter ListFilter) error {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = s.pageSize
	}
	s.startLoading()

	query := url.Values{}
	query.Set("page", strconv.Itoa(filter.Page))
	query.Set("limit", strconv.Itoa(filter.Limit))
	if filter.Name != "" {
		query.Set("name", filter.Name)
	}
	data, err := s.api.Get(ctx, path, query)
	if err != nil {
		return s.fail(err)
	}

	var page userPage
	if err := json.Unmarshal(data, &page); err != nil {
		return s.fail(model.NewInvalidResponseError(err.Error()))
	}

	s.mu.Lock()
	applyUserPage(&s.state, page.Users, page.Count, page.TotalPages)
	s.mu.Unlock()

	s.logger.Debug("user listing fetched",
		slog.String("path", path),
		slog.Int("page", filter.Page),
		slog.Int("count", page.Count),
	)
	return nil
}

// SendRequest は対象ユーザーへ友達申請を送信する。
// 成功時は対象ユーザーのfriendship属性のみをレスポンスで上書きする。
func (s *Service) SendRequest(ctx context.Context, targetUserID string) error {
	s.startLoading()

	data, err := s.api.Post(ctx, "/friends/requests", map[string]string{
		"to": targetUserID,
	})
	if err != nil {
		return s.fail(err)
	}
	return s.patchFriendship(targetUserID, data, "friend request sent")
}

// AcceptRequest は受信中の友達申請を承認する。
func (s *Service) AcceptRequest(ctx context.Context, targetUserID string) error {
	return s.respondToRequest(ctx, targetUserID, model.FriendshipStatusAccepted, "friend request accepted")
}

// DeclineRequest は受信中の友達申請を拒否する。
func (s *Service) DeclineRequest(ctx context.Context, targetUserID string) error {
	return s.respondToRequest(ctx, targetUserID, model.FriendshipStatusDeclined, "friend request declined")
}

func (s *Service) respondToRequest(ctx context.Context, targetUserID string, status model.FriendshipStatus, event string) error {
	s.startLoading()

	data, err := s.api.Put(ctx, "/friends/requests/"+targetUserID, map[string]model.FriendshipStatus{
		"status": status,
	})
	if err != nil {
		return s.fail(err)
	}
	return s.patchFriendship(targetUserID, data, event)
}

// CancelRequest は送信済みの友達申請を取り消す。
// 成功時は対象ユーザーのfriendshipをnil（関係なし）へ戻す。
func (s *Service) CancelRequest(ctx context.Context, targetUserID string) error {
	return s.removeRelation(ctx, "/friends/requests/"+targetUserID, targetUserID, "friend request cancelled")
}

// RemoveFriend は友達関係を解消する。
// 成功時は対象ユーザーのfriendshipをnil（関係なし）へ戻す。
func (s *Service) RemoveFriend(ctx context.Context, targetUserID string) error {
	return s.removeRelation(ctx, "/friends/"+targetUserID, targetUserID, "friend removed")
}

func (s *Service) removeRelation(ctx context.Context, path, targetUserID, event string) error {
	s.startLoading()

	if _, err := s.api.Delete(ctx, path); err != nil {
		return s.fail(err)
	}

	s.mu.Lock()
	applyFriendship(&s.state, targetUserID, nil)
	s.mu.Unlock()

	s.logger.Info(event,
		slog.String("target_user_id", targetUserID),
	)
	return nil
}

// patchFriendship はレスポンスの関係レコードを対象ユーザーへ適用する。
func (s *Service) patchFriendship(targetUserID string, data json.RawMessage, event string) error {
	var friendship model.Friendship
	if err := json.Unmarshal(data, &friendship); err != nil {
		return s.fail(model.NewInvalidResponseError(err.Error()))
	}

	s.mu.Lock()
	applyFriendship(&s.state, targetUserID, &friendship)
	s.mu.Unlock()

	s.logger.Info(event,
		slog.String("target_user_id", targetUserID),
	)
	return nil
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

	s.logger.Warn("friend operation failed",
		slog.String("error", err.Error()),
	)
	return err
}

// applyUserPage は一覧レスポンスを現在のビューとして適用する。
// エンティティはIDで丸ごと上書きし、順序リストは置き換える。
// 前のビューのエンティティはマップに残るが参照されない。
func applyUserPage(st *State, users []*model.User, count, totalPages int) {
	st.IsLoading = false
	st.Err = nil

	ids := make([]string, 0, len(users))
	for _, u := range users {
		st.UsersByID[u.ID] = u
		ids = append(ids, u.ID)
	}
	st.CurrentPageUsers = ids
	st.TotalUsers = count
	st.TotalPages = totalPages
}

// applyFriendship は対象ユーザーのfriendship属性のみをパッチする。
// キャッシュに無いユーザーへのパッチは何も起こさない。
func applyFriendship(st *State, targetUserID string, friendship *model.Friendship) {
	st.IsLoading = false
	st.Err = nil

	u, ok := st.UsersByID[targetUserID]
	if !ok {
		return
	}
	u.Friendship = friendship
}

func cloneState(st *State) State {
	clone := State{
		UsersByID:        make(map[string]*model.User, len(st.UsersByID)),
		CurrentPageUsers: append([]string(nil), st.CurrentPageUsers...),
		TotalUsers:       st.TotalUsers,
		TotalPages:       st.TotalPages,
		IsLoading:        st.IsLoading,
		Err:              st.Err,
	}
	for id, u := range st.UsersByID {
		c := *u
		if u.Friendship != nil {
			f := *u.Friendship
			c.Friendship = &f
		}
		clone.UsersByID[id] = &c
	}
	return clone
}
