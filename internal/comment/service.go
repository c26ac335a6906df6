// Package comment はコメントの正規化キャッシュと操作を提供する。
//
// 状態は親投稿IDごとに区切られ、取得はページ単位で親投稿のリストを
// 丸ごと上書きする。作成・更新・削除はパッチではなく再取得で
// サーバー側の順序と件数に揃える。
package comment

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"
	"strconv"
	"sync"

	"github.com/hitoshi/tomolink/internal/model"
)

// apiClient はコメントキャッシュが必要とするトランスポートのインターフェース。
type apiClient interface {
	Get(ctx context.Context, path string, query url.Values) (json.RawMessage, error)
	Post(ctx context.Context, path string, body any) (json.RawMessage, error)
	Put(ctx context.Context, path string, body any) (json.RawMessage, error)
	Delete(ctx context.Context, path string) (json.RawMessage, error)
}

// contentSanitizer はサーバー返却HTMLをキャッシュ投入前に浄化するインターフェース。
type contentSanitizer interface {
	Sanitize(rawHTML string) string
}

// State はコメントキャッシュの状態スナップショットを表す。
// CommentsByPostの各リストは取得順を反転して保持する
// （サーバーの到着順が逆順でキャッシュされる。既知の挙動として維持）。
type State struct {
	CommentsByID        map[string]*model.Comment
	CommentsByPost      map[string][]string
	TotalCommentsByPost map[string]int
	CurrentPageByPost   map[string]int
	IsLoading           bool
	Err                 error
}

// Service はコメントキャッシュサービス。
type Service struct {
	api       apiClient
	sanitizer contentSanitizer
	logger    *slog.Logger
	pageSize  int

	mu    sync.Mutex
	state State
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(api apiClient, sanitizer contentSanitizer, logger *slog.Logger, pageSize int) *Service {
	return &Service{
		api:       api,
		sanitizer: sanitizer,
		logger:    logger,
		pageSize:  pageSize,
		state: State{
			CommentsByID:        map[string]*model.Comment{},
			CommentsByPost:      map[string][]string{},
			TotalCommentsByPost: map[string]int{},
			CurrentPageByPost:   map[string]int{},
		},
	}
}

// State は現在の状態のスナップショットを返す。
func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneState(&s.state)
}

// commentPage はコメント一覧エンドポイントのレスポンス。
type commentPage struct {
	Comments []*model.Comment `json:"comments"`
	Count    int              `json:"count"`
}

// FetchPage は投稿のコメントページを取得してキャッシュへ適用する。
// 各呼び出しはその投稿の現在ページとして権威を持ち、リストを追記ではなく
// 上書きする（ページをまたぐマージは行わない）。
func (s *Service) FetchPage(ctx context.Context, postID string, page, limit int) error {
	if limit <= 0 {
		limit = s.pageSize
	}
	s.startLoading()

	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("limit", strconv.Itoa(limit))
	data, err := s.api.Get(ctx, "/posts/"+postID+"/comments", query)
	if err != nil {
		return s.fail(err)
	}

	var pageData commentPage
	if err := json.Unmarshal(data, &pageData); err != nil {
		return s.fail(model.NewInvalidResponseError(err.Error()))
	}
	for _, c := range pageData.Comments {
		c.Content = s.sanitizer.Sanitize(c.Content)
	}

	s.mu.Lock()
	applyCommentPage(&s.state, postID, pageData.Comments, pageData.Count, page)
	s.mu.Unlock()

	s.logger.Debug("comments fetched",
		slog.String("post_id", postID),
		slog.Int("page", page),
		slog.Int("count", pageData.Count),
	)
	return nil
}

// Create は投稿へコメントを作成する。
// 成功時はパッチせず、その投稿の1ページ目を取り直してサーバー側の
// 順序と件数に揃える。
func (s *Service) Create(ctx context.Context, postID, content string) error {
	s.startLoading()

	if _, err := s.api.Post(ctx, "/comments", map[string]string{
		"content": content,
		"postId":  postID,
	}); err != nil {
		return s.fail(err)
	}

	s.logger.Info("comment created",
		slog.String("post_id", postID),
	)
	return s.FetchPage(ctx, postID, 1, s.pageSize)
}

// Update はコメントの本文を更新する。
// レスポンスの本文をインプレースで反映した後、1ページ目を取り直す。
func (s *Service) Update(ctx context.Context, commentID, postID, content string) error {
	s.startLoading()

	data, err := s.api.Put(ctx, "/comments/"+commentID, map[string]string{
		"content": content,
	})
	if err != nil {
		return s.fail(err)
	}

	var updated model.Comment
	if err := json.Unmarshal(data, &updated); err != nil {
		return s.fail(model.NewInvalidResponseError(err.Error()))
	}

	s.mu.Lock()
	applyCommentUpdated(&s.state, commentID, s.sanitizer.Sanitize(updated.Content))
	s.mu.Unlock()

	return s.FetchPage(ctx, postID, 1, s.pageSize)
}

// Delete はコメントを削除し、その投稿の1ページ目を取り直す。
func (s *Service) Delete(ctx context.Context, commentID, postID string) error {
	s.startLoading()

	if _, err := s.api.Delete(ctx, "/comments/"+commentID); err != nil {
		return s.fail(err)
	}

	s.logger.Info("comment deleted",
		slog.String("comment_id", commentID),
	)
	return s.FetchPage(ctx, postID, 1, s.pageSize)
}

// React はコメントへリアクションを送信する。
// 成功時はサーバーの集計結果でリアクションを丸ごと置き換える。
func (s *Service) React(ctx context.Context, commentID string, emoji model.ReactionEmoji) error {
	s.startLoading()

	data, err := s.api.Post(ctx, "/reactions", map[string]any{
		"targetType": model.ReactionTargetComment,
		"targetId":   commentID,
		"emoji":      emoji,
	})
	if err != nil {
		return s.fail(err)
	}

	var reactions model.Reactions
	if err := json.Unmarshal(data, &reactions); err != nil {
		return s.fail(model.NewInvalidResponseError(err.Error()))
	}

	s.mu.Lock()
	applyCommentReaction(&s.state, commentID, reactions)
	s.mu.Unlock()
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

	s.logger.Warn("comment operation failed",
		slog.String("error", err.Error()),
	)
	return err
}

func cloneState(st *State) State {
	clone := State{
		CommentsByID:        make(map[string]*model.Comment, len(st.CommentsByID)),
		CommentsByPost:      make(map[string][]string, len(st.CommentsByPost)),
		TotalCommentsByPost: make(map[string]int, len(st.TotalCommentsByPost)),
		CurrentPageByPost:   make(map[string]int, len(st.CurrentPageByPost)),
		IsLoading:           st.IsLoading,
		Err:                 st.Err,
	}
	for id, c := range st.CommentsByID {
		cc := *c
		clone.CommentsByID[id] = &cc
	}
	for postID, ids := range st.CommentsByPost {
		clone.CommentsByPost[postID] = append([]string(nil), ids...)
	}
	for postID, n := range st.TotalCommentsByPost {
		clone.TotalCommentsByPost[postID] = n
	}
	for postID, n := range st.CurrentPageByPost {
		clone.CurrentPageByPost[postID] = n
	}
	return clone
}
