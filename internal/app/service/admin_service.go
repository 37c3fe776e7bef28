package service

import (
	"context"
	"fmt"
	"time"

	"lodge_archive/internal/common"
	"lodge_archive/internal/common/security"
	"lodge_archive/internal/domain/model"
	"lodge_archive/internal/domain/policy"
	"lodge_archive/internal/domain/repository"
)

type AdminService struct {
	userRepo repository.UserRepository
	policy   *policy.Engine
}

func NewAdminService(userRepo repository.UserRepository, policy *policy.Engine) *AdminService {
	return &AdminService{userRepo: userRepo, policy: policy}
}

type PendingUser struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	FullName  string     `json:"full_name"`
	Tier      model.Tier `json:"level"`
	TierName  string     `json:"level_name"`
	CreatedAt time.Time  `json:"created_at"`
}

type UserSummary struct {
	ID        string       `json:"id"`
	Email     string       `json:"email"`
	FullName  string       `json:"full_name"`
	Tier      model.Tier   `json:"level"`
	TierName  string       `json:"level_name"`
	Status    model.Status `json:"status"`
	CreatedAt time.Time    `json:"created_at"`

	// Set only on the super-admin listing; a legacy surface kept behind the
	// narrowest policy gate.
	PasswordHash string `json:"password_hash,omitempty"`
}

func (s *AdminService) PendingUsers(ctx context.Context, actor *model.User) ([]*PendingUser, error) {
	if !s.policy.CanApproveOrReject(actor) {
		return nil, fmt.Errorf("admin privileges required: %w", common.ErrForbidden)
	}
	users, err := s.userRepo.ListByStatus(ctx, model.StatusPending)
	if err != nil {
		return nil, err
	}
	out := make([]*PendingUser, 0, len(users))
	for _, u := range users {
		out = append(out, &PendingUser{
			ID:        u.ID,
			Email:     u.Email,
			FullName:  u.FullName,
			Tier:      u.Tier,
			TierName:  u.Tier.Name(),
			CreatedAt: u.CreatedAt,
		})
	}
	return out, nil
}

// Approve moves a user to approved, stamping who approved and when.
// Approving an already-approved user succeeds as a no-op.
func (s *AdminService) Approve(ctx context.Context, actor *model.User, userID string) error {
	if !s.policy.CanApproveOrReject(actor) {
		return fmt.Errorf("admin privileges required: %w", common.ErrForbidden)
	}
	if _, err := s.userRepo.FindByID(ctx, userID); err != nil {
		return err
	}
	email := actor.Email
	return s.userRepo.SetStatus(ctx, userID, model.StatusApproved, &email)
}

// Reject marks a pending user rejected. There is no exposed transition out of
// rejected; the account stays locked out until deleted.
func (s *AdminService) Reject(ctx context.Context, actor *model.User, userID string) error {
	if !s.policy.CanApproveOrReject(actor) {
		return fmt.Errorf("admin privileges required: %w", common.ErrForbidden)
	}
	if _, err := s.userRepo.FindByID(ctx, userID); err != nil {
		return err
	}
	return s.userRepo.SetStatus(ctx, userID, model.StatusRejected, nil)
}

func (s *AdminService) AllUsers(ctx context.Context, actor *model.User) ([]*UserSummary, error) {
	if !s.policy.CanApproveOrReject(actor) {
		return nil, fmt.Errorf("admin privileges required: %w", common.ErrForbidden)
	}
	return s.listUsers(ctx, false)
}

// AllUsersWithHashes includes password hashes and is gated on CanViewSecrets.
func (s *AdminService) AllUsersWithHashes(ctx context.Context, actor *model.User) ([]*UserSummary, error) {
	if !s.policy.CanViewSecrets(actor) {
		return nil, fmt.Errorf("super admin privileges required: %w", common.ErrForbidden)
	}
	return s.listUsers(ctx, true)
}

func (s *AdminService) listUsers(ctx context.Context, withHashes bool) ([]*UserSummary, error) {
	users, err := s.userRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*UserSummary, 0, len(users))
	for _, u := range users {
		summary := &UserSummary{
			ID:        u.ID,
			Email:     u.Email,
			FullName:  u.FullName,
			Tier:      u.Tier,
			TierName:  u.Tier.Name(),
			Status:    u.Status,
			CreatedAt: u.CreatedAt,
		}
		if withHashes {
			summary.PasswordHash = u.PasswordHash
		}
		out = append(out, summary)
	}
	return out, nil
}

// ChangeTier sets another user's tier subject to the policy rules: actor must
// be super-admin or master, the target must not be a protected identity, and
// a master cannot change their own tier.
func (s *AdminService) ChangeTier(ctx context.Context, actor *model.User, userID string, newTier model.Tier) error {
	if !newTier.Valid() {
		return fmt.Errorf("invalid level, must be 1 (apprentice), 2 (companion) or 3 (master): %w", common.ErrValidation)
	}
	target, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if !s.policy.CanChangeUserTier(actor, target, newTier) {
		return fmt.Errorf("super admin or master privileges required: %w", common.ErrForbidden)
	}
	return s.userRepo.SetTier(ctx, userID, newTier)
}

// DeleteUser hard-deletes a user. Irreversible; protected identities refuse.
func (s *AdminService) DeleteUser(ctx context.Context, actor *model.User, userID string) error {
	target, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if !s.policy.CanDeleteUser(actor, target) {
		return fmt.Errorf("admin privileges required: %w", common.ErrForbidden)
	}
	return s.userRepo.Delete(ctx, userID)
}

// ResetUserPassword lets a super-admin replace any user's password hash.
func (s *AdminService) ResetUserPassword(ctx context.Context, actor *model.User, userID, newPassword string) error {
	if !s.policy.CanViewSecrets(actor) {
		return fmt.Errorf("super admin privileges required: %w", common.ErrForbidden)
	}
	if newPassword == "" {
		return fmt.Errorf("new password is required: %w", common.ErrValidation)
	}
	if _, err := s.userRepo.FindByID(ctx, userID); err != nil {
		return err
	}
	hashed, err := security.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	return s.userRepo.SetPassword(ctx, userID, hashed)
}
