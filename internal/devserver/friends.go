package devserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/tomolink/internal/model"
)

// handleListFriends はGET /friends?name&page&limitを処理する。
func (s *Server) handleListFriends(w http.ResponseWriter, r *http.Request) {
	caller := callerFrom(r.Context())

	s.mu.Lock()
	defer s.mu.Unlock()

	s.writeUserListing(w, r, caller, func(a *account) bool {
		f, ok := s.friendships[pairKey(caller.user.ID, a.user.ID)]
		return ok && a.user.ID != caller.user.ID && f.Status == model.FriendshipStatusAccepted
	})
}

// handleListIncoming はGET /friends/requests/incomingを処理する。
func (s *Server) handleListIncoming(w http.ResponseWriter, r *http.Request) {
	caller := callerFrom(r.Context())

	s.mu.Lock()
	defer s.mu.Unlock()

	s.writeUserListing(w, r, caller, func(a *account) bool {
		f, ok := s.friendships[pairKey(caller.user.ID, a.user.ID)]
		return ok && f.Status == model.FriendshipStatusPending && f.To == caller.user.ID && f.From == a.user.ID
	})
}

// handleListOutgoing はGET /friends/requests/outgoingを処理する。
func (s *Server) handleListOutgoing(w http.ResponseWriter, r *http.Request) {
	caller := callerFrom(r.Context())

	s.mu.Lock()
	defer s.mu.Unlock()

	s.writeUserListing(w, r, caller, func(a *account) bool {
		f, ok := s.friendships[pairKey(caller.user.ID, a.user.ID)]
		return ok && f.Status == model.FriendshipStatusPending && f.From == caller.user.ID && f.To == a.user.ID
	})
}

// handleSendRequest はPOST /friends/requests {to}を処理する。
func (s *Server) handleSendRequest(w http.ResponseWriter, r *http.Request) {
	caller := callerFrom(r.Context())

	var input struct {
		To string `json:"to"`
	}
	if err := decodeBody(r, &input); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[input.To]; !ok {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	if input.To == caller.user.ID {
		writeError(w, http.StatusBadRequest, "Cannot send a request to yourself")
		return
	}
	key := pairKey(caller.user.ID, input.To)
	if f, ok := s.friendships[key]; ok && f.Status == model.FriendshipStatusAccepted {
		writeError(w, http.StatusConflict, "Already friends")
		return
	}

	f := &model.Friendship{
		From:   caller.user.ID,
		To:     input.To,
		Status: model.FriendshipStatusPending,
	}
	s.friendships[key] = f
	writeSuccess(w, http.StatusOK, f)
}

// handleRespondRequest はPUT /friends/requests/{id} {status}を処理する。
// idは申請を送ってきたユーザーのID。受信者のみが応答できる。
func (s *Server) handleRespondRequest(w http.ResponseWriter, r *http.Request) {
	caller := callerFrom(r.Context())
	fromID := chi.URLParam(r, "id")

	var input struct {
		Status model.FriendshipStatus `json:"status"`
	}
	if err := decodeBody(r, &input); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if input.Status != model.FriendshipStatusAccepted && input.Status != model.FriendshipStatusDeclined {
		writeError(w, http.StatusBadRequest, "Status must be accepted or declined")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey(caller.user.ID, fromID)
	f, ok := s.friendships[key]
	if !ok || f.Status != model.FriendshipStatusPending || f.To != caller.user.ID {
		writeError(w, http.StatusNotFound, "Friend request not found")
		return
	}

	f.Status = input.Status
	writeSuccess(w, http.StatusOK, f)
}

// handleCancelRequest はDELETE /friends/requests/{id}を処理する。
// idは申請先ユーザーのID。送信者のみが取り消せる。
func (s *Server) handleCancelRequest(w http.ResponseWriter, r *http.Request) {
	caller := callerFrom(r.Context())
	toID := chi.URLParam(r, "id")

	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey(caller.user.ID, toID)
	f, ok := s.friendships[key]
	if !ok || f.Status != model.FriendshipStatusPending || f.From != caller.user.ID {
		writeError(w, http.StatusNotFound, "Friend request not found")
		return
	}

	delete(s.friendships, key)
	writeSuccess(w, http.StatusOK, nil)
}

// handleRemoveFriend はDELETE /friends/{id}を処理する。
func (s *Server) handleRemoveFriend(w http.ResponseWriter, r *http.Request) {
	caller := callerFrom(r.Context())
	friendID := chi.URLParam(r, "id")

	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey(caller.user.ID, friendID)
	f, ok := s.friendships[key]
	if !ok || f.Status != model.FriendshipStatusAccepted {
		writeError(w, http.StatusNotFound, "Friendship not found")
		return
	}

	delete(s.friendships, key)
	writeSuccess(w, http.StatusOK, nil)
}
