package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"lodge_archive/internal/api/middleware"
	"lodge_archive/internal/app/service"
	"lodge_archive/internal/common"
	"lodge_archive/internal/domain/model"
)

type AdminHandler struct {
	adminService *service.AdminService
}

func NewAdminHandler(adminService *service.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

// RegisterAdminRoutes covers the /admin group. The change-user-level route
// lives here for URL compatibility but is additionally open to masters; the
// service consults the policy engine with the actual actor either way.
func (h *AdminHandler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/pending-users", h.pendingUsers)
	r.Post("/approve-user/{userID}", h.approveUser)
	r.Post("/reject-user/{userID}", h.rejectUser)
	r.Get("/all-users", h.allUsers)
	r.Delete("/delete-user/{userID}", h.deleteUser)
}

func (h *AdminHandler) RegisterTierRoutes(r chi.Router) {
	r.Put("/admin/change-user-level/{userID}", h.changeUserLevel)
}

func (h *AdminHandler) RegisterSuperAdminRoutes(r chi.Router) {
	r.Get("/all-users-with-passwords", h.allUsersWithPasswords)
	r.Put("/reset-user-password/{userID}", h.resetUserPassword)
}

func (h *AdminHandler) pendingUsers(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetCurrentUser(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	users, err := h.adminService.PendingUsers(r.Context(), actor)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, users)
}

func (h *AdminHandler) approveUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetCurrentUser(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	if err := h.adminService.Approve(r.Context(), actor, chi.URLParam(r, "userID")); err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithMessage(w, http.StatusOK, "User approved successfully")
}

func (h *AdminHandler) rejectUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetCurrentUser(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	if err := h.adminService.Reject(r.Context(), actor, chi.URLParam(r, "userID")); err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithMessage(w, http.StatusOK, "User rejected successfully")
}

func (h *AdminHandler) allUsers(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetCurrentUser(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	users, err := h.adminService.AllUsers(r.Context(), actor)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, users)
}

func (h *AdminHandler) deleteUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetCurrentUser(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	if err := h.adminService.DeleteUser(r.Context(), actor, chi.URLParam(r, "userID")); err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithMessage(w, http.StatusOK, "User deleted successfully")
}

func (h *AdminHandler) changeUserLevel(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetCurrentUser(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	newLevel, err := strconv.Atoi(r.URL.Query().Get("new_level"))
	if err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid new_level")
		return
	}

	if err := h.adminService.ChangeTier(r.Context(), actor, chi.URLParam(r, "userID"), model.Tier(newLevel)); err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message":        "User level changed successfully",
		"new_level":      newLevel,
		"new_level_name": model.Tier(newLevel).Name(),
	})
}

func (h *AdminHandler) allUsersWithPasswords(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetCurrentUser(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	users, err := h.adminService.AllUsersWithHashes(r.Context(), actor)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, users)
}

func (h *AdminHandler) resetUserPassword(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetCurrentUser(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	newPassword := r.URL.Query().Get("new_password")
	if err := h.adminService.ResetUserPassword(r.Context(), actor, chi.URLParam(r, "userID"), newPassword); err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithMessage(w, http.StatusOK, "Password reset successfully")
}
