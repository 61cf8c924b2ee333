package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"

	"secwatch/internal/errs"
	"secwatch/internal/model"
	"secwatch/internal/service"
)

const maxJSONBodyBytes = 1 << 20

var (
	usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_.-]{3,50}$`)
	emailRe    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type profileUpdateRequest struct {
	Email           *string `json:"email"`
	FullName        *string `json:"full_name"`
	CurrentPassword string  `json:"current_password"`
	NewPassword     string  `json:"new_password"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

type userResponse struct {
	ID        string  `json:"id"`
	Username  string  `json:"username"`
	Email     string  `json:"email"`
	FullName  string  `json:"full_name"`
	Role      string  `json:"role"`
	IsActive  bool    `json:"is_active"`
	LastLogin *string `json:"last_login"`
}

type logResponse struct {
	ID        int64          `json:"id"`
	UserID    *string        `json:"user_id"`
	Username  string         `json:"username"`
	Timestamp string         `json:"timestamp"`
	Action    string         `json:"action"`
	IPAddress string         `json:"ip_address"`
	Status    string         `json:"status"`
	Details   map[string]any `json:"details"`
}

func toUserResponse(u *model.User) userResponse {
	resp := userResponse{
		ID:       u.ID.String(),
		Username: u.Username,
		Email:    u.Email,
		FullName: u.FullName,
		Role:     u.Role,
		IsActive: u.IsActive,
	}
	if u.LastLogin != nil {
		s := u.LastLogin.UTC().Format(time.RFC3339)
		resp.LastLogin = &s
	}
	return resp
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !usernameRe.MatchString(req.Username) {
		writeError(w, http.StatusBadRequest, "Username format is invalid")
		return
	}
	if !emailRe.MatchString(req.Email) {
		writeError(w, http.StatusBadRequest, "Email format is invalid")
		return
	}
	if len(req.Password) < 8 || len(req.Password) > 200 {
		writeError(w, http.StatusBadRequest, "Password format is invalid")
		return
	}

	u, err := s.auth.Signup(r.Context(), service.SignupInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
	}, clientIP(r), r.UserAgent())
	if err != nil {
		if errors.Is(err, errs.ErrAlreadyExists) {
			writeError(w, http.StatusBadRequest, "User already exists")
			return
		}
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toUserResponse(u))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Missing username or password")
		return
	}

	toks, _, err := s.auth.Authenticate(r.Context(), req.Username, req.Password, clientIP(r))
	if err != nil {
		// Locked accounts answer exactly like bad credentials.
		if errors.Is(err, errs.ErrUnauthorized) || errors.Is(err, errs.ErrAccountLocked) {
			writeError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken:  toks.AccessToken,
		RefreshToken: toks.RefreshToken,
		TokenType:    "bearer",
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	toks, err := s.auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, errs.ErrUnauthorized) {
			writeError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken:  toks.AccessToken,
		RefreshToken: toks.RefreshToken,
		TokenType:    "bearer",
	})
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	u, ok := UserFromCtx(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Invalid or expired token")
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(u))
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	u, ok := UserFromCtx(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Invalid or expired token")
		return
	}
	var req profileUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Email != nil && !emailRe.MatchString(*req.Email) {
		writeError(w, http.StatusBadRequest, "Email format is invalid")
		return
	}
	if req.NewPassword != "" && (len(req.NewPassword) < 8 || len(req.NewPassword) > 200) {
		writeError(w, http.StatusBadRequest, "Password format is invalid")
		return
	}

	updated, err := s.profiles.UpdateProfile(r.Context(), u, service.ProfileUpdate{
		Email:           req.Email,
		FullName:        req.FullName,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	}, clientIP(r), r.UserAgent())
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, "Incorrect password")
		case errors.Is(err, errs.ErrAlreadyExists):
			writeError(w, http.StatusBadRequest, "Email already exists")
		default:
			s.internalError(w, r, err)
		}
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(updated))
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	actor, ok := UserFromCtx(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Invalid or expired token")
		return
	}
	list, err := s.profiles.ListUsers(r.Context(), actor, clientIP(r), r.UserAgent())
	if err != nil {
		if errors.Is(err, errs.ErrForbidden) {
			writeError(w, http.StatusForbidden, "Insufficient permissions")
			return
		}
		s.internalError(w, r, err)
		return
	}
	out := make([]userResponse, 0, len(list))
	for i := range list {
		out = append(out, toUserResponse(&list[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListLogs(w http.ResponseWriter, r *http.Request) {
	actor, ok := UserFromCtx(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Invalid or expired token")
		return
	}
	entries, err := s.profiles.ListLogs(r.Context(), actor, clientIP(r), r.UserAgent(), 500)
	if err != nil {
		if errors.Is(err, errs.ErrForbidden) {
			writeError(w, http.StatusForbidden, "Insufficient permissions")
			return
		}
		s.internalError(w, r, err)
		return
	}
	out := make([]logResponse, 0, len(entries))
	for _, e := range entries {
		resp := logResponse{
			ID:        e.ID,
			Username:  e.Username,
			Timestamp: e.CreatedAt.UTC().Format(time.RFC3339),
			Action:    e.Action,
			IPAddress: e.IPAddress,
			Status:    e.Status,
			Details:   e.Details,
		}
		if e.UserID != nil {
			id := e.UserID.String()
			resp.UserID = &id
		}
		out = append(out, resp)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	sentry.CaptureException(err)
	s.log.Error("handler error", zap.String("path", r.URL.Path), zap.Error(err))
	writeError(w, http.StatusInternalServerError, "Internal server error")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
