package devserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hitoshi/tomolink/internal/model"
)

// commentView はリアクション集計を埋めたコメントを返す。
func (s *Server) commentView(c *model.Comment) *model.Comment {
	v := *c
	v.Reactions = s.tally(c.ID)
	return &v
}

// handleListComments はGET /posts/{id}/comments?page&limitを処理する。
// コメントは古い順で返る。
func (s *Server) handleListComments(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "id")

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[postID]; !ok {
		writeError(w, http.StatusNotFound, "Post not found")
		return
	}

	ids := s.commentsFor[postID]
	page := queryInt(r, "page", "1")
	limit := queryInt(r, "limit", "3")
	start, end := paginate(len(ids), page, limit)

	views := make([]*model.Comment, 0, end-start)
	for _, id := range ids[start:end] {
		views = append(views, s.commentView(s.comments[id]))
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"comments": views,
		"count":    len(ids),
	})
}

// handleCreateComment はPOST /commentsを処理する。
func (s *Server) handleCreateComment(w http.ResponseWriter, r *http.Request) {
	caller := callerFrom(r.Context())

	var input struct {
		Content string `json:"content"`
		PostID  string `json:"postId"`
	}
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

	if _, ok := s.posts[input.PostID]; !ok {
		writeError(w, http.StatusNotFound, "Post not found")
		return
	}

	c := &model.Comment{
		ID:     uuid.NewString(),
		PostID: input.PostID,
		Author: model.Author{
			ID:        caller.user.ID,
			Name:      caller.user.Name,
			AvatarURL: caller.user.AvatarURL,
		},
		Content:   input.Content,
		CreatedAt: s.now(),
	}
	s.comments[c.ID] = c
	s.commentsFor[input.PostID] = append(s.commentsFor[input.PostID], c.ID)

	writeSuccess(w, http.StatusOK, s.commentView(c))
}

// handleUpdateComment はPUT /comments/{id}を処理する。本人のコメントのみ。
func (s *Server) handleUpdateComment(w http.ResponseWriter, r *http.Request) {
	caller := callerFrom(r.Context())

	var input struct {
		Content string `json:"content"`
	}
	if err := decodeBody(r, &input); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.comments[chi.URLParam(r, "id")]
	if !ok {
		writeError(w, http.StatusNotFound, "Comment not found")
		return
	}
	if c.Author.ID != caller.user.ID {
		writeError(w, http.StatusForbidden, "Cannot edit another user's comment")
		return
	}

	c.Content = input.Content
	writeSuccess(w, http.StatusOK, s.commentView(c))
}

// handleDeleteComment はDELETE /comments/{id}を処理する。本人のコメントのみ。
func (s *Server) handleDeleteComment(w http.ResponseWriter, r *http.Request) {
	caller := callerFrom(r.Context())
	commentID := chi.URLParam(r, "id")

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.comments[commentID]
	if !ok {
		writeError(w, http.StatusNotFound, "Comment not found")
		return
	}
	if c.Author.ID != caller.user.ID {
		writeError(w, http.StatusForbidden, "Cannot delete another user's comment")
		return
	}

	delete(s.comments, commentID)
	delete(s.reactions, commentID)
	ids := s.commentsFor[c.PostID]
	for i, id := range ids {
		if id == commentID {
			s.commentsFor[c.PostID] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	writeSuccess(w, http.StatusOK, nil)
}

// handleReaction はPOST /reactionsを処理する。
// 同一ユーザーの同一対象へのリアクションは上書き、同じ絵文字の再送は
// 取り消しとして扱い、常にサーバー側の集計を返す。
func (s *Server) handleReaction(w http.ResponseWriter, r *http.Request) {
	caller := callerFrom(r.Context())

	var input struct {
		TargetType string `json:"targetType"`
		TargetID   string `json:"targetId"`
		Emoji      string `json:"emoji"`
	}
	if err := decodeBody(r, &input); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if input.Emoji != "like" && input.Emoji != "dislike" {
		writeError(w, http.StatusBadRequest, "Unknown emoji")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch input.TargetType {
	case "Post":
		if _, ok := s.posts[input.TargetID]; !ok {
			writeError(w, http.StatusNotFound, "Post not found")
			return
		}
	case "Comment":
		if _, ok := s.comments[input.TargetID]; !ok {
			writeError(w, http.StatusNotFound, "Comment not found")
			return
		}
	default:
		writeError(w, http.StatusBadRequest, "Unknown target type")
		return
	}

	byUser := s.reactions[input.TargetID]
	if byUser == nil {
		byUser = map[string]string{}
		s.reactions[input.TargetID] = byUser
	}
	if byUser[caller.user.ID] == input.Emoji {
		delete(byUser, caller.user.ID)
	} else {
		byUser[caller.user.ID] = input.Emoji
	}

	writeSuccess(w, http.StatusOK, s.tally(input.TargetID))
}
