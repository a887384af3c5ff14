package handler

import (
	"encoding/json"
	"errors"
	"feedbackbot/internal/logger"
	"feedbackbot/internal/model"
	"feedbackbot/internal/service"
	"net/http"
)

// AuthHandler issues admin tokens
type AuthHandler struct {
	authSvc *service.AuthService
	log     *logger.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authSvc *service.AuthService, log *logger.Logger) *AuthHandler {
	return &AuthHandler{
		authSvc: authSvc,
		log:     log.With("component", "auth_handler"),
	}
}

// Login handles POST /v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.authSvc.Login(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			h.log.Warn("admin login rejected", "remote", r.RemoteAddr)
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		h.log.Error("admin token not issued", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	h.log.Info("admin logged in", "admin_id", resp.AdminID)
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
