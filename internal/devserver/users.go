package devserver

import (
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/tomolink/internal/model"
)

// userView は閲覧者から見たユーザーレコードを返す。
// friendshipは閲覧者との関係で非正規化され、投稿数・友達数も計算される。
func (s *Server) userView(viewer, target *account) *model.User {
	u := target.user

	u.PostCount = 0
	for _, p := range s.posts {
		if p.Author.ID == u.ID {
			u.PostCount++
		}
	}
	u.FriendCount = 0
	for _, f := range s.friendships {
		if f.Status == model.FriendshipStatusAccepted && (f.From == u.ID || f.To == u.ID) {
			u.FriendCount++
		}
	}

	if viewer != nil && viewer.user.ID != u.ID {
		if f, ok := s.friendships[pairKey(viewer.user.ID, u.ID)]; ok {
			ff := *f
			u.Friendship = &ff
		}
	}
	return &u
}

// handleGetUser はGET /users/{id}を処理する。
func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[chi.URLParam(r, "id")]
	if !ok {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	writeSuccess(w, http.StatusOK, s.userView(s.authenticate(r), a))
}

// handleUpdateUser はPUT /users/{id}を処理する。
// 本人のプロフィールのみ更新できる。
func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	caller := callerFrom(r.Context())
	if chi.URLParam(r, "id") != caller.user.ID {
		writeError(w, http.StatusForbidden, "Cannot update another user's profile")
		return
	}

	var patch map[string]string
	if err := decodeBody(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u := &caller.user
	fields := map[string]*string{
		"name":          &u.Name,
		"avatarUrl":     &u.AvatarURL,
		"coverUrl":      &u.CoverURL,
		"aboutMe":       &u.AboutMe,
		"city":          &u.City,
		"country":       &u.Country,
		"company":       &u.Company,
		"jobTitle":      &u.JobTitle,
		"facebookLink":  &u.FacebookLink,
		"instagramLink": &u.InstagramLink,
		"linkedinLink":  &u.LinkedinLink,
		"twitterLink":   &u.TwitterLink,
	}
	for key, dst := range fields {
		if v, ok := patch[key]; ok {
			*dst = v
		}
	}
	writeSuccess(w, http.StatusOK, s.userView(caller, caller))
}

// handleListUsers はGET /users?name&page&limitを処理する。
// 呼び出しユーザー自身は一覧から除外される。
func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	caller := callerFrom(r.Context())

	s.mu.Lock()
	defer s.mu.Unlock()

	s.writeUserListing(w, r, caller, func(a *account) bool {
		return a.user.ID != caller.user.ID
	})
}

// writeUserListing は条件に合うユーザーを名前順に絞り込み、ページを返す。
func (s *Server) writeUserListing(w http.ResponseWriter, r *http.Request, caller *account, match func(*account) bool) {
	nameFilter := strings.ToLower(r.URL.Query().Get("name"))

	matched := make([]*account, 0, len(s.accounts))
	for _, a := range s.accounts {
		if !match(a) {
			continue
		}
		if nameFilter != "" && !strings.Contains(strings.ToLower(a.user.Name), nameFilter) {
			continue
		}
		matched = append(matched, a)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].user.Name < matched[j].user.Name
	})

	page := queryInt(r, "page", "1")
	limit := queryInt(r, "limit", "12")
	start, end := paginate(len(matched), page, limit)

	users := make([]*model.User, 0, end-start)
	for _, a := range matched[start:end] {
		users = append(users, s.userView(caller, a))
	}
	totalPages := (len(matched) + limit - 1) / limit
	if totalPages < 1 {
		totalPages = 1
	}

	writeSuccess(w, http.StatusOK, map[string]any{
		"users":      users,
		"count":      len(matched),
		"totalPages": totalPages,
	})
}
