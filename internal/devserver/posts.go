package devserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hitoshi/tomolink/internal/model"
)

type postInput struct {
	Content string `json:"content"`
	Image   string `json:"image"`
}

// postView はリアクション集計を埋めた投稿を返す。
func (s *Server) postView(p *model.Post) *model.Post {
	v := *p
	v.Reactions = s.tally(p.ID)
	return &v
}

// handleListPosts はGET /posts/user/{id}?page&limitを処理する。
// 投稿は新しい順で返る。
func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	s.mu.Lock()
	defer s.mu.Unlock()

	owned := make([]*model.Post, 0)
	for _, id := range s.postOrder {
		if p := s.posts[id]; p.Author.ID == userID {
			owned = append(owned, p)
		}
	}

	page := queryInt(r, "page", "1")
	limit := queryInt(r, "limit", "10")
	start, end := paginate(len(owned), page, limit)

	views := make([]*model.Post, 0, end-start)
	for _, p := range owned[start:end] {
		views = append(views, s.postView(p))
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"posts": views,
		"count": len(owned),
	})
}

// handleCreatePost はPOST /postsを処理する。
func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	caller := callerFrom(r.Context())

	var input postInput
	if err := decodeBody(r, &input); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if input.Content == "" {
		writeError(w, http.StatusBadRequest, "Content is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p := &model.Post{
		ID: uuid.NewString(),
		Author: model.Author{
			ID:        caller.user.ID,
			Name:      caller.user.Name,
			AvatarURL: caller.user.AvatarURL,
		},
		Content:   input.Content,
		Image:     input.Image,
		CreatedAt: s.now(),
	}
	s.posts[p.ID] = p
	s.postOrder = append([]string{p.ID}, s.postOrder...)

	writeSuccess(w, http.StatusOK, s.postView(p))
}

// handleUpdatePost はPUT /posts/{id}を処理する。本人の投稿のみ。
func (s *Server) handleUpdatePost(w http.ResponseWriter, r *http.Request) {
	caller := callerFrom(r.Context())

	var input postInput
	if err := decodeBody(r, &input); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[chi.URLParam(r, "id")]
	if !ok {
		writeError(w, http.StatusNotFound, "Post not found")
		return
	}
	if p.Author.ID != caller.user.ID {
		writeError(w, http.StatusForbidden, "Cannot edit another user's post")
		return
	}

	p.Content = input.Content
	p.Image = input.Image
	writeSuccess(w, http.StatusOK, s.postView(p))
}

// handleDeletePost はDELETE /posts/{id}を処理する。本人の投稿のみ。
// 紐づくコメントも削除される。
func (s *Server) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	caller := callerFrom(r.Context())
	postID := chi.URLParam(r, "id")

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[postID]
	if !ok {
		writeError(w, http.StatusNotFound, "Post not found")
		return
	}
	if p.Author.ID != caller.user.ID {
		writeError(w, http.StatusForbidden, "Cannot delete another user's post")
		return
	}

	delete(s.posts, postID)
	for i, id := range s.postOrder {
		if id == postID {
			s.postOrder = append(s.postOrder[:i], s.postOrder[i+1:]...)
			break
		}
	}
	for _, commentID := range s.commentsFor[postID] {
		delete(s.comments, commentID)
		delete(s.reactions, commentID)
	}
	delete(s.commentsFor, postID)
	delete(s.reactions, postID)

	writeSuccess(w, http.StatusOK, nil)
}
