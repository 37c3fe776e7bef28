package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"time"

	"lodge_archive/internal/common"
	"lodge_archive/internal/common/security"
	"lodge_archive/internal/domain/repository"
)

// PasswordResetService issues and consumes single-use reset tokens. Forgot
// never reveals whether an email is registered.
type PasswordResetService struct {
	userRepo  repository.UserRepository
	tokenRepo repository.ResetTokenRepository
	tokenTTL  time.Duration
}

func NewPasswordResetService(userRepo repository.UserRepository, tokenRepo repository.ResetTokenRepository, tokenTTL time.Duration) *PasswordResetService {
	return &PasswordResetService{userRepo: userRepo, tokenRepo: tokenRepo, tokenTTL: tokenTTL}
}

type ResetPasswordRequest struct {
	Email       string `json:"email"`
	ResetToken  string `json:"reset_token"`
	NewPassword string `json:"new_password"`
}

func generateResetToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// Forgot stores a fresh token for a known email and reports success either
// way. Delivery is a log line standing in for the mailer; the token is never
// returned to the caller.
func (s *PasswordResetService) Forgot(ctx context.Context, email string) error {
	if email == "" {
		return common.ErrBadRequest
	}

	if _, err := s.userRepo.FindByEmail(ctx, email); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil // No enumeration.
		}
		return fmt.Errorf("failed to look up user: %w", err)
	}

	token, err := generateResetToken()
	if err != nil {
		return fmt.Errorf("failed to generate reset token: %w", err)
	}
	if err := s.tokenRepo.Save(ctx, email, token, s.tokenTTL); err != nil {
		return err
	}

	// TODO: wire an SMTP sender; for now operators read the token from logs.
	log.Printf("Password reset token issued for %s", email)
	return nil
}

// Verify checks a token without consuming it, for the frontend's reset form.
func (s *PasswordResetService) Verify(ctx context.Context, email, token string) error {
	if email == "" || token == "" {
		return common.ErrBadRequest
	}
	if err := s.tokenRepo.Peek(ctx, email, token); err != nil {
		if errors.Is(err, common.ErrBadRequest) {
			return fmt.Errorf("invalid or expired reset token: %w", common.ErrBadRequest)
		}
		return err
	}
	return nil
}

// Reset consumes the token and replaces the password hash. Consuming twice
// fails the second time.
func (s *PasswordResetService) Reset(ctx context.Context, req ResetPasswordRequest) error {
	if req.Email == "" || req.ResetToken == "" || req.NewPassword == "" {
		return common.ErrBadRequest
	}

	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return fmt.Errorf("invalid or expired reset token: %w", common.ErrBadRequest)
		}
		return fmt.Errorf("failed to look up user: %w", err)
	}

	if err := s.tokenRepo.Consume(ctx, req.Email, req.ResetToken); err != nil {
		if errors.Is(err, common.ErrBadRequest) {
			return fmt.Errorf("invalid or expired reset token: %w", common.ErrBadRequest)
		}
		return err
	}

	hashed, err := security.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	return s.userRepo.SetPassword(ctx, user.ID, hashed)
}
