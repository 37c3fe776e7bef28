package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"lodge_archive/internal/api/middleware"
	"lodge_archive/internal/app/service"
	"lodge_archive/internal/common"
)

type AuthHandler struct {
	authService  *service.AuthService
	resetService *service.PasswordResetService
}

func NewAuthHandler(authService *service.AuthService, resetService *service.PasswordResetService) *AuthHandler {
	return &AuthHandler{authService: authService, resetService: resetService}
}

func (h *AuthHandler) RegisterPublicRoutes(r chi.Router) {
	r.Post("/register", h.register)
	r.Post("/login", h.login)
	r.Post("/forgot-password", h.forgotPassword)
	r.Post("/reset-password", h.resetPassword)
	r.Get("/verify-reset-token/{email}/{token}", h.verifyResetToken)
}

func (h *AuthHandler) RegisterProfileRoutes(r chi.Router) {
	r.Get("/me", h.me)
	r.Put("/me", h.updateMe)
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	profile, err := h.authService.Register(r.Context(), req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, profile)
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	resp, err := h.authService.Login(r.Context(), req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, resp)
}

func (h *AuthHandler) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	if err := h.resetService.Forgot(r.Context(), req.Email); err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	// Same response whether or not the email is registered.
	common.RespondWithMessage(w, http.StatusOK,
		"If your email is registered, you will receive a password reset link.")
}

func (h *AuthHandler) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req service.ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	if err := h.resetService.Reset(r.Context(), req); err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithMessage(w, http.StatusOK, "Password reset successfully")
}

func (h *AuthHandler) verifyResetToken(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	token := chi.URLParam(r, "token")

	if err := h.resetService.Verify(r.Context(), email, token); err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithMessage(w, http.StatusOK, "Token is valid")
}

func (h *AuthHandler) me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetCurrentUser(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}
	common.RespondWithJSON(w, http.StatusOK, h.authService.Profile(user))
}

func (h *AuthHandler) updateMe(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetCurrentUser(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	var req service.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	if err := h.authService.UpdateProfile(r.Context(), user, req); err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithMessage(w, http.StatusOK, "Profile updated successfully")
}
