package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/jwtauth/v5"

	"lodge_archive/internal/common"
	"lodge_archive/internal/common/security"
	"lodge_archive/internal/domain/model"
	"lodge_archive/internal/domain/policy"
	"lodge_archive/internal/domain/repository"
)

type contextKey string

const CurrentUserCtxKey contextKey = "currentUser"

// Auth resolves bearer tokens to fresh user records. The token only carries
// the user ID; tier, status and role come from the database on every request,
// so a stale token cannot outlive a demotion or rejection.
type Auth struct {
	userRepo repository.UserRepository
	policy   *policy.Engine
}

func NewAuth(userRepo repository.UserRepository, policy *policy.Engine) *Auth {
	return &Auth{userRepo: userRepo, policy: policy}
}

func (a *Auth) Authenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, claims, err := jwtauth.FromContext(r.Context())

		if err != nil {
			if strings.Contains(err.Error(), "token not found") || token == nil {
				common.RespondWithError(w, http.StatusUnauthorized, "Authorization token required")
			} else {
				common.RespondWithError(w, http.StatusUnauthorized, "Invalid token: "+err.Error())
			}
			return
		}
		if token == nil {
			common.RespondWithError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		userID, err := security.GetUserIDFromClaims(claims)
		if err != nil {
			common.RespondWithError(w, http.StatusUnauthorized, "Invalid token claims: "+err.Error())
			return
		}

		user, err := a.userRepo.FindByID(r.Context(), userID)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				common.RespondWithError(w, http.StatusUnauthorized, "Could not validate credentials")
			} else {
				common.RespondWithError(w, http.StatusInternalServerError, "Failed to load user")
			}
			return
		}

		// A valid signature is not enough: only currently-approved accounts
		// hold a session.
		if user.Status != model.StatusApproved {
			common.RespondWithError(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}

		ctx := context.WithValue(r.Context(), CurrentUserCtxKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *Auth) AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := GetCurrentUser(r.Context())
		if !ok || !a.policy.CanApproveOrReject(user) {
			common.RespondWithError(w, http.StatusForbidden, "Access denied. Admin privileges required.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *Auth) SuperAdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := GetCurrentUser(r.Context())
		if !ok || !a.policy.CanViewSecrets(user) {
			common.RespondWithError(w, http.StatusForbidden, "Access denied. Super Admin privileges required.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func GetCurrentUser(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(CurrentUserCtxKey).(*model.User)
	return user, ok
}
