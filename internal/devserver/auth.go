package devserver

import "net/http"

type credentials struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// authData はログイン・登録の共通レスポンス。
type authData struct {
	User        any    `json:"user"`
	AccessToken string `json:"accessToken"`
}

// handleLogin はPOST /auth/loginを処理する。
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := decodeBody(r, &creds); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a := s.findByEmail(creds.Email)
	if a == nil || a.password != creds.Password {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := s.issueToken(a.user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to issue token")
		return
	}
	writeSuccess(w, http.StatusOK, authData{User: s.userView(a, a), AccessToken: token})
}

// handleRegister はPOST /usersを処理する。
// ログインと同じ形のレスポンスを返す。
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := decodeBody(r, &creds); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if creds.Name == "" || creds.Email == "" || creds.Password == "" {
		writeError(w, http.StatusBadRequest, "Name, email and password are required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findByEmail(creds.Email) != nil {
		writeError(w, http.StatusConflict, "Email already exists")
		return
	}

	a := s.createAccount(creds.Name, creds.Email, creds.Password)
	token, err := s.issueToken(a.user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to issue token")
		return
	}
	writeSuccess(w, http.StatusOK, authData{User: s.userView(a, a), AccessToken: token})
}

// handleMe はGET /users/meを処理する。
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	caller := callerFrom(r.Context())

	s.mu.Lock()
	defer s.mu.Unlock()
	writeSuccess(w, http.StatusOK, s.userView(caller, caller))
}
