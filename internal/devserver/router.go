package devserver

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Router は全エンドポイントを配線したハンドラーを返す。
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	// ヘルスチェック
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// --- 認証不要のルート ---
	r.Post("/auth/login", s.handleLogin)
	r.Post("/users", s.handleRegister)
	r.Get("/users/{id}", s.handleGetUser)

	// --- 認証が必要なルート ---
	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)

		r.Get("/users", s.handleListUsers)
		r.Get("/users/me", s.handleMe)
		r.Put("/users/{id}", s.handleUpdateUser)

		r.Route("/posts", func(r chi.Router) {
			r.Post("/", s.handleCreatePost)
			r.Get("/user/{id}", s.handleListPosts)
			r.Put("/{id}", s.handleUpdatePost)
			r.Delete("/{id}", s.handleDeletePost)
			r.Get("/{id}/comments", s.handleListComments)
		})

		r.Route("/comments", func(r chi.Router) {
			r.Post("/", s.handleCreateComment)
			r.Put("/{id}", s.handleUpdateComment)
			r.Delete("/{id}", s.handleDeleteComment)
		})

		r.Post("/reactions", s.handleReaction)

		r.Route("/friends", func(r chi.Router) {
			r.Get("/", s.handleListFriends)
			r.Delete("/{id}", s.handleRemoveFriend)

			r.Route("/requests", func(r chi.Router) {
				r.Post("/", s.handleSendRequest)
				r.Get("/incoming", s.handleListIncoming)
				r.Get("/outgoing", s.handleListOutgoing)
				r.Put("/{id}", s.handleRespondRequest)
				r.Delete("/{id}", s.handleCancelRequest)
			})
		})
	})

	return r
}

type contextKey string

// callerKey は認証済みアカウントをリクエストコンテキストへ載せるキー。
const callerKey contextKey = "caller"

// requireAuth はBearerトークンを検証し、呼び出しユーザーを解決する。
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		caller := s.authenticate(r)
		s.mu.Unlock()
		if caller == nil {
			writeError(w, http.StatusUnauthorized, "Login required")
			return
		}
		next.ServeHTTP(w, r.WithContext(withCaller(r.Context(), caller)))
	})
}

func withCaller(ctx context.Context, a *account) context.Context {
	return context.WithValue(ctx, callerKey, a)
}

func callerFrom(ctx context.Context) *account {
	a, _ := ctx.Value(callerKey).(*account)
	return a
}
