package http

import (
	"errors"
	"log/slog"
	"net/http"

	"fintrack/internal/core"
)

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err.Error())
		return
	}

	user, err := s.users.Register(r.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		writeError(w, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "User registered successfully",
		"userId":  user.ID,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err.Error())
		return
	}

	user, err := s.users.FindByEmail(r.Context(), req.Email)
	if err != nil || !s.users.CheckPassword(req.Password, user.PasswordHash) {
		// Unknown email and wrong password produce the same message so the
		// endpoint cannot be used to enumerate accounts.
		if err != nil && !errors.Is(err, core.ErrNotFound) {
			slog.ErrorContext(r.Context(), "Login lookup failed", "error", err)
		}
		writeError(w, "Invalid credentials")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Login successful",
		"userId":  user.ID,
		"name":    user.Name,
		"email":   user.Email,
	})
}
