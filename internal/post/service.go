// Package post は投稿の正規化キャッシュと操作を提供する。
//
// 状態はID→エンティティのマップと表示中ページのID順序リストで構成され、
// 各操作は「リモート呼び出し→決定的なパッチ適用」の順で状態を更新する。
package post

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"
	"strconv"
	"sync"

	"github.com/hitoshi/tomolink/internal/model"
)

// apiClient は投稿キャッシュが必要とするトランスポートのインターフェース。
type apiClient interface {
	Get(ctx context.Context, path string, query url.Values) (json.RawMessage, error)
	Post(ctx context.Context, path string, body any) (json.RawMessage, error)
	Put(ctx context.Context, path string, body any) (json.RawMessage, error)
	Delete(ctx context.Context, path string) (json.RawMessage, error)
}

// assetUploader は画像入力をホスト済みURLへ解決するインターフェース。
type assetUploader interface {
	Upload(ctx context.Context, input *model.ImageInput) (string, error)
}

// contentSanitizer はサーバー返却HTMLをキャッシュ投入前に浄化するインターフェース。
type contentSanitizer interface {
	Sanitize(rawHTML string) string
}

// profileRefresher は投稿数の変化をセッションユーザーへ反映させるための
// プロフィール再取得インターフェース。
type profileRefresher interface {
	RefreshCurrentUser(ctx context.Context) error
}

// State は投稿キャッシュの状態スナップショットを表す。
// CurrentPagePostsの全IDはPostsByIDで解決できる。逆は保証しない
// （リストから外れたエンティティはマップに残留しうるが参照されない）。
type State struct {
	PostsByID        map[string]*model.Post
	CurrentPagePosts []string
	TotalPosts       int
	IsLoading        bool
	Err              error
}

// Service は投稿キャッシュサービス。
type Service struct {
	api       apiClient
	uploader  assetUploader
	sanitizer contentSanitizer
	profile   profileRefresher
	logger    *slog.Logger
	pageSize  int

	mu    sync.Mutex
	state State
}

// NewService はServiceの新しいインスタンスを生成する。
// pageSizeは表示ウィンドウの上限として作成時の玉突き退避に使われる。
func NewService(api apiClient, uploader assetUploader, sanitizer contentSanitizer, profile profileRefresher, logger *slog.Logger, pageSize int) *Service {
	return &Service{
		api:       api,
		uploader:  uploader,
		sanitizer: sanitizer,
		profile:   profile,
		logger:    logger,
		pageSize:  pageSize,
		state: State{
			PostsByID: map[string]*model.Post{},
		},
	}
}

// State は現在の状態のスナップショットを返す。
func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneState(&s.state)
}

// postPage は投稿一覧エンドポイントのレスポンス。
type postPage struct {
	Posts []*model.Post `json:"posts"`
	Count int           `json:"count"`
}

// FetchPage は指定ユーザーの投稿ページを取得してキャッシュへ適用する。
// page==1は表示の切り替えとみなし、適用前にマップとリストをリセットする
// （別ユーザーのページが混ざることを防ぐ）。2ページ目以降は未出現IDのみ
// 重複排除しながら末尾へ追加する。
func (s *Service) FetchPage(ctx context.Context, userID string, page, limit int) error {
	if limit <= 0 {
		limit = s.pageSize
	}
	s.startLoading()

	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("limit", strconv.Itoa(limit))
	data, err := s.api.Get(ctx, "/posts/user/"+userID, query)
	if err != nil {
		return s.fail(err)
	}

	var pageData postPage
	if err := json.Unmarshal(data, &pageData); err != nil {
		return s.fail(model.NewInvalidResponseError(err.Error()))
	}
	s.sanitizePosts(pageData.Posts)

	s.mu.Lock()
	if page == 1 {
		applyReset(&s.state)
	}
	applyPostPage(&s.state, pageData.Posts, pageData.Count)
	s.mu.Unlock()

	s.logger.Debug("posts fetched",
		slog.String("user_id", userID),
		slog.Int("page", page),
		slog.Int("count", pageData.Count),
	)
	return nil
}

// Create は投稿を作成する。
// ローカル画像は先にアセットホストへアップロードしてURLへ解決する。
// 成功パッチの適用後、1ページ目とセッションユーザープロフィール
// （投稿数）を追加で再取得する。TotalPostsはこの操作自身では更新しない。
func (s *Service) Create(ctx context.Context, userID, content string, image *model.ImageInput) error {
	s.startLoading()

	imageURL, err := s.uploader.Upload(ctx, image)
	if err != nil {
		return s.fail(err)
	}

	data, err := s.api.Post(ctx, "/posts", map[string]string{
		"content": content,
		"image":   imageURL,
	})
	if err != nil {
		return s.fail(err)
	}

	var created model.Post
	if err := json.Unmarshal(data, &created); err != nil {
		return s.fail(model.NewInvalidResponseError(err.Error()))
	}
	created.Content = s.sanitizer.Sanitize(created.Content)

	s.mu.Lock()
	applyPostCreated(&s.state, &created, s.pageSize)
	s.mu.Unlock()

	s.logger.Info("post created",
		slog.String("post_id", created.ID),
	)

	// 1. 1ページ目を取り直して表示ウィンドウをサーバー順序へ揃える
	if err := s.FetchPage(ctx, userID, 1, s.pageSize); err != nil {
		return err
	}
	// 2. 投稿数が変わったのでセッションユーザーを取り直す
	if err := s.profile.RefreshCurrentUser(ctx); err != nil {
		return s.fail(err)
	}
	return nil
}

// Remove は投稿を削除する。
// 成功時はID順序リストから取り除くのみで、マップ上のエンティティは
// 参照されないまま残す。リストに無いIDの削除はリストに対して何もしない。
// その後プロフィールと投稿ページを再取得する。
func (s *Service) Remove(ctx context.Context, postID, userID string) error {
	s.startLoading()

	if _, err := s.api.Delete(ctx, "/posts/"+postID); err != nil {
		return s.fail(err)
	}

	s.mu.Lock()
	applyPostDeleted(&s.state, postID)
	s.mu.Unlock()

	s.logger.Info("post deleted",
		slog.String("post_id", postID),
	)

	if err := s.profile.RefreshCurrentUser(ctx); err != nil {
		return s.fail(err)
	}
	return s.FetchPage(ctx, userID, 1, s.pageSize)
}

// Update は投稿の本文と画像を更新する。
// 成功時はレスポンスのContent/Imageのみをインプレースで上書きする。
func (s *Service) Update(ctx context.Context, postID, content string, image *model.ImageInput) error {
	s.startLoading()

	imageURL, err := s.uploader.Upload(ctx, image)
	if err != nil {
		return s.fail(err)
	}

	data, err := s.api.Put(ctx, "/posts/"+postID, map[string]string{
		"content": content,
		"image":   imageURL,
	})
	if err != nil {
		return s.fail(err)
	}

	var updated model.Post
	if err := json.Unmarshal(data, &updated); err != nil {
		return s.fail(model.NewInvalidResponseError(err.Error()))
	}
	updated.Content = s.sanitizer.Sanitize(updated.Content)

	s.mu.Lock()
	applyPostUpdated(&s.state, &updated)
	s.mu.Unlock()
	return nil
}

// React は投稿へリアクションを送信する。
// 成功時はサーバーの集計結果でリアクションを丸ごと置き換える。
// クライアント側でのインクリメントは行わない（同一ユーザーの重複
// リアクションはサーバーが排除するため、加算すると二重計上になる）。
func (s *Service) React(ctx context.Context, postID string, emoji model.ReactionEmoji) error {
	s.startLoading()

	data, err := s.api.Post(ctx, "/reactions", map[string]any{
		"targetType": model.ReactionTargetPost,
		"targetId":   postID,
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
	applyReaction(&s.state, postID, reactions)
	s.mu.Unlock()
	return nil
}

func (s *Service) startLoading() {
	s.mu.Lock()
	s.state.IsLoading = true
	s.mu.Unlock()
}

// fail はエラーをキャッシュのErrフィールドへ記録して返す。
// エラーは非致命的でキャッシュはそのまま使用可能。自動リトライはしない。
func (s *Service) fail(err error) error {
	s.mu.Lock()
	s.state.IsLoading = false
	s.state.Err = err
	s.mu.Unlock()

	s.logger.Warn("post operation failed",
		slog.String("error", err.Error()),
	)
	return err
}

func (s *Service) sanitizePosts(posts []*model.Post) {
	for _, p := range posts {
		p.Content = s.sanitizer.Sanitize(p.Content)
	}
}

func cloneState(st *State) State {
	clone := State{
		PostsByID:        make(map[string]*model.Post, len(st.PostsByID)),
		CurrentPagePosts: append([]string(nil), st.CurrentPagePosts...),
		TotalPosts:       st.TotalPosts,
		IsLoading:        st.IsLoading,
		Err:              st.Err,
	}
	for id, p := range st.PostsByID {
		c := *p
		clone.PostsByID[id] = &c
	}
	return clone
}
