// Package devserver は開発用のインメモリスタブバックエンドを提供する。
//
// クライアント状態レイヤーが消費するREST API一式をエンベロープ形式
// {"success":..,"data":..} / {"errors":{"message":..}} で実装する。
// データはすべてメモリ上に保持され、プロセス終了で消える。
package devserver

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/hitoshi/tomolink/internal/model"
)

// tokenTTL は発行するアクセストークンの有効期間。
const tokenTTL = 24 * time.Hour

// account は認証情報付きの内部ユーザーレコード。
type account struct {
	user     model.User
	email    string
	password string
}

// Server はインメモリスタブバックエンド。
type Server struct {
	secret []byte
	now    func() time.Time

	mu          sync.Mutex
	accounts    map[string]*account            // userID -> account
	posts       map[string]*model.Post         // postID -> post
	postOrder   []string                       // 新しい順
	comments    map[string]*model.Comment      // commentID -> comment
	commentsFor map[string][]string            // postID -> commentIDs（古い順）
	friendships map[string]*model.Friendship   // pairKey(from,to) -> friendship
	reactions   map[string]map[string]string   // targetID -> userID -> emoji
}

// NewServer はシードユーザー入りのServerを生成する。
func NewServer(secret string) *Server {
	s := &Server{
		secret:      []byte(secret),
		now:         time.Now,
		accounts:    map[string]*account{},
		posts:       map[string]*model.Post{},
		comments:    map[string]*model.Comment{},
		commentsFor: map[string][]string{},
		friendships: map[string]*model.Friendship{},
		reactions:   map[string]map[string]string{},
	}
	s.seed()
	return s
}

// seed は開発時にすぐ使えるユーザーを投入する。
func (s *Server) seed() {
	seeds := []struct {
		name, email, password string
	}{
		{"hitoshi", "hitoshi@example.com", "password"},
		{"miyuki", "miyuki@example.com", "password"},
		{"kenta", "kenta@example.com", "password"},
	}
	for _, sd := range seeds {
		s.createAccount(sd.name, sd.email, sd.password)
	}
}

func (s *Server) createAccount(name, email, password string) *account {
	a := &account{
		user: model.User{
			ID:   uuid.NewString(),
			Name: name,
		},
		email:    email,
		password: password,
	}
	s.accounts[a.user.ID] = a
	return a
}

func (s *Server) findByEmail(email string) *account {
	for _, a := range s.accounts {
		if a.email == email {
			return a
		}
	}
	return nil
}

// issueToken はHS256署名付きアクセストークンを発行する。
func (s *Server) issueToken(userID string) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(s.now()),
		ExpiresAt: jwt.NewNumericDate(s.now().Add(tokenTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// authenticate はAuthorizationヘッダーからユーザーを解決する。
func (s *Server) authenticate(r *http.Request) *account {
	header := r.Header.Get("Authorization")
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || raw == "" {
		return nil
	}

	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil
	}
	return s.accounts[claims.Subject]
}

// pairKey は2ユーザー間の関係の格納キーを返す。方向は持たない。
func pairKey(a, b string) string {
	if a < b {
		return a + ":" + b
	}
	return b + ":" + a
}

// tally は対象のリアクション集計を計算する。
func (s *Server) tally(targetID string) model.Reactions {
	var t model.Reactions
	for _, emoji := range s.reactions[targetID] {
		switch emoji {
		case "like":
			t.Like++
		case "dislike":
			t.Dislike++
		}
	}
	return t
}

// paginate はページ番号と件数から部分スライスの範囲を返す。
func paginate(total, page, limit int) (start, end int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	start = (page - 1) * limit
	if start > total {
		start = total
	}
	end = start + limit
	if end > total {
		end = total
	}
	return start, end
}

func queryInt(r *http.Request, key, fallback string) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		v = fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 1
	}
	return n
}

// --- エンベロープ ---

func writeSuccess(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"data":    data,
	})
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"errors":  map[string]string{"message": message},
	})
}

func decodeBody(r *http.Request, dst any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}
