package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/D-Abramoc/chatrelay/internal/common"
	"github.com/D-Abramoc/chatrelay/internal/server/auth"
)

// loginPath is the entry point credential failures redirect to. Which of the
// credential errors occurred is visible only in logs, never to the client.
const loginPath = "/auth"

// credentialErrors lists every error kind that means the request carried no
// usable identity. On the plain HTTP path all of them render the same way.
var credentialErrors = []error{
	common.ErrCredentialMissing,
	common.ErrCredentialInvalid,
	common.ErrCredentialExpired,
	common.ErrUnknownSubject,
}

func isCredentialError(err error) bool {
	for _, e := range credentialErrors {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}

// renderError is the single dispatch point mapping error kinds to HTTP
// responses. Handlers never pick status codes themselves.
func (s *HTTPServer) renderError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case isCredentialError(err):
		s.logger.Warn(r.Context(), "request unauthorized", "path", r.URL.Path, "error", err)
		http.Redirect(w, r, loginPath, http.StatusSeeOther)
	case errors.Is(err, common.ErrorAlreadyExists):
		writeJSONError(w, http.StatusConflict, "user already exists")
	case errors.Is(err, common.ErrorPasswordMismatch):
		writeJSONError(w, http.StatusBadRequest, "passwords do not match")
	case errors.Is(err, common.ErrorUnauthorized):
		writeJSONError(w, http.StatusUnauthorized, "invalid email or password")
	case errors.Is(err, common.ErrorNotFound):
		writeJSONError(w, http.StatusNotFound, "not found")
	default:
		s.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// handleAuthPage is the login entry point that credential failures redirect
// to. Clients are expected to POST credentials from here.
func (s *HTTPServer) handleAuthPage(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "authentication required, use POST /auth/login",
	})
}

type registerRequest struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	RepeatPassword string `json:"repeat_password"`
	TelegramID     *int64 `json:"tg_id,omitempty"`
}

type userResponse struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

func (s *HTTPServer) handleRegister(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeJSONError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := s.users.Register(r.Context(), req.Email, req.Password, req.RepeatPassword, req.TelegramID)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, userResponse{ID: user.ID, Email: user.Email})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
}

func (s *HTTPServer) handleLogin(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, err := s.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(s.config.AccessTokenValidityDuration),
		HttpOnly: true,
	})
	writeJSON(w, http.StatusOK, loginResponse{AccessToken: token})
}

func (s *HTTPServer) handleLogout(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// handleHistory returns the conversation between the authenticated user and
// the user named in the path, oldest first.
func (s *HTTPServer) handleHistory(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	principal, err := s.gate.Authorize(r)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	otherID, err := strconv.ParseInt(ps.ByName("user_id"), 10, 64)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "user_id must be numeric")
		return
	}

	history, err := s.messages.History(r.Context(), principal.UserID, otherID)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, history)
}
