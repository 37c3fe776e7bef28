package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"lodge_archive/internal/common"
	"lodge_archive/internal/common/security"
	"lodge_archive/internal/domain/model"
	"lodge_archive/internal/domain/policy"
	"lodge_archive/internal/domain/repository"
)

type AuthService struct {
	userRepo repository.UserRepository
	policy   *policy.Engine
}

func NewAuthService(userRepo repository.UserRepository, policy *policy.Engine) *AuthService {
	return &AuthService{userRepo: userRepo, policy: policy}
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Tier     int    `json:"level"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserProfile is the user payload exposed to clients. Role and tier name are
// derived server-side on every response.
type UserProfile struct {
	ID       string       `json:"id"`
	Email    string       `json:"email"`
	FullName string       `json:"full_name"`
	Tier     model.Tier   `json:"level"`
	TierName string       `json:"level_name"`
	Status   model.Status `json:"status"`
	Role     model.Role   `json:"role"`
}

type AuthResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        *UserProfile `json:"user"`
}

type UpdateProfileRequest struct {
	FullName        *string `json:"full_name,omitempty"`
	CurrentPassword *string `json:"current_password,omitempty"`
	NewPassword     *string `json:"new_password,omitempty"`
}

func (s *AuthService) Profile(user *model.User) *UserProfile {
	return &UserProfile{
		ID:       user.ID,
		Email:    user.Email,
		FullName: user.FullName,
		Tier:     user.Tier,
		TierName: user.Tier.Name(),
		Status:   user.Status,
		Role:     s.policy.Role(user),
	}
}

// Register creates a pending user at the requested tier. Approval is a
// separate admin action; a fresh registration can do nothing until approved.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*UserProfile, error) {
	email := model.NormalizeEmail(req.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("a valid email is required: %w", common.ErrValidation)
	}
	if req.Password == "" || strings.TrimSpace(req.FullName) == "" {
		return nil, fmt.Errorf("password and full name are required: %w", common.ErrValidation)
	}
	tier := model.Tier(req.Tier)
	if !tier.Valid() {
		return nil, fmt.Errorf("level must be 1 (apprentice), 2 (companion) or 3 (master): %w", common.ErrValidation)
	}

	hashed, err := security.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:           uuid.NewString(),
		Email:        email,
		FullName:     strings.TrimSpace(req.FullName),
		PasswordHash: hashed,
		Tier:         tier,
		Status:       model.StatusPending,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return s.Profile(user), nil
}

// Login verifies credentials and mints a bearer token. Credential failures
// are indistinguishable whether the email is unknown or the password wrong;
// non-approved accounts authenticate but are refused a session.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	if req.Email == "" || req.Password == "" {
		return nil, common.ErrBadRequest
	}

	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("incorrect email or password: %w", common.ErrUnauthorized)
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !security.CheckPasswordHash(req.Password, user.PasswordHash) {
		return nil, fmt.Errorf("incorrect email or password: %w", common.ErrUnauthorized)
	}

	switch user.Status {
	case model.StatusApproved:
	case model.StatusPending:
		return nil, common.ErrPendingApproval
	default:
		return nil, common.ErrAccessDenied
	}

	token, err := security.GenerateToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &AuthResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        s.Profile(user),
	}, nil
}

// UpdateProfile changes the caller's display name and/or password. A password
// change requires the current password.
func (s *AuthService) UpdateProfile(ctx context.Context, user *model.User, req UpdateProfileRequest) error {
	var fullName *string
	if req.FullName != nil && strings.TrimSpace(*req.FullName) != "" {
		name := strings.TrimSpace(*req.FullName)
		fullName = &name
	}

	var passwordHash *string
	if req.CurrentPassword != nil && req.NewPassword != nil {
		if !security.CheckPasswordHash(*req.CurrentPassword, user.PasswordHash) {
			return fmt.Errorf("current password is incorrect: %w", common.ErrBadRequest)
		}
		hashed, err := security.HashPassword(*req.NewPassword)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		passwordHash = &hashed
	}

	if fullName == nil && passwordHash == nil {
		return fmt.Errorf("no fields to update: %w", common.ErrBadRequest)
	}
	return s.userRepo.UpdateProfile(ctx, user.ID, fullName, passwordHash)
}
