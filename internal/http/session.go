package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/BIGM16/Ecole-desExcellents/internal/auth"
	"github.com/BIGM16/Ecole-desExcellents/internal/gateway"
	"github.com/BIGM16/Ecole-desExcellents/internal/model"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginUser struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	IsStaff bool   `json:"is_staff"`
}

type loginResponse struct {
	Message string    `json:"message"`
	Access  string    `json:"access"`
	User    loginUser `json:"user"`
}

type tokenPairResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

// authenticate decodes a login body and checks the credentials. It writes
// the error response itself and reports whether the caller may go on.
func (s *Server) authenticate(w http.ResponseWriter, r *http.Request) (model.Principal, bool) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return model.Principal{}, false
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "missing_credentials")
		return model.Principal{}, false
	}

	principal, err := s.gateways.Accounts.Authenticate(r.Context(), req.Email, req.Password)
	if errors.Is(err, gateway.ErrInvalidCredentials) {
		writeError(w, http.StatusUnauthorized, "invalid_credentials")
		return model.Principal{}, false
	}
	if err != nil {
		s.serverError(w, r, err)
		return model.Principal{}, false
	}
	return principal, true
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	principal, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	pair, err := s.tokens.Issue(principal.ID)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	s.cookies.SetSessionCookies(w, pair, s.now())
	writeJSON(w, http.StatusOK, loginResponse{
		Message: "Login successful",
		Access:  pair.Access,
		User:    loginUser{ID: principal.ID, Email: principal.Email, IsStaff: principal.IsStaff},
	})
}

// handleRefresh mints a new access token from the refresh cookie. The
// refresh token itself is not rotated.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(s.cfg.RefreshCookieName)
	if err != nil || cookie.Value == "" {
		writeError(w, http.StatusUnauthorized, "missing_refresh_token")
		return
	}
	access, expiresAt, err := s.tokens.Refresh(r.Context(), cookie.Value)
	if err != nil {
		s.writeTokenError(w, r, err)
		return
	}
	s.cookies.SetAccessCookie(w, access, expiresAt, s.now())
	writeJSON(w, http.StatusOK, map[string]string{"access": access})
}

// handleObtainToken is login for header-only clients: the pair comes back
// in the body and no cookie is set.
func (s *Server) handleObtainToken(w http.ResponseWriter, r *http.Request) {
	principal, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	pair, err := s.tokens.Issue(principal.ID)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenPairResponse{Access: pair.Access, Refresh: pair.Refresh})
}

func (s *Server) handleRefreshToken(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if strings.TrimSpace(req.Refresh) == "" {
		writeError(w, http.StatusBadRequest, "missing_refresh_token")
		return
	}
	access, _, err := s.tokens.Refresh(r.Context(), strings.TrimSpace(req.Refresh))
	if err != nil {
		s.writeTokenError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"access": access})
}

// handleLogout clears the session cookies. The presented tokens are
// revoked when a denylist is configured; otherwise they stay valid until
// they expire.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	var presented []string
	if token, _ := auth.ResolveCredential(r, s.cfg.AccessCookieName); token != "" {
		presented = append(presented, token)
	}
	if cookie, err := r.Cookie(s.cfg.RefreshCookieName); err == nil && cookie.Value != "" {
		presented = append(presented, cookie.Value)
	}
	if err := s.tokens.Revoke(r.Context(), presented...); err != nil {
		s.logger.WarnContext(r.Context(), "token revocation failed", "error", err)
	}
	s.cookies.ClearSessionCookies(w)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}
