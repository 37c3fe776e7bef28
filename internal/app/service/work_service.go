package service

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"lodge_archive/internal/common"
	"lodge_archive/internal/domain/model"
	"lodge_archive/internal/domain/policy"
	"lodge_archive/internal/domain/repository"
	"lodge_archive/internal/platform/storage"
)

type WorkService struct {
	workRepo repository.WorkRepository
	userRepo repository.UserRepository
	blobs    storage.BlobStore
	policy   *policy.Engine
}

func NewWorkService(workRepo repository.WorkRepository, userRepo repository.UserRepository, blobs storage.BlobStore, policy *policy.Engine) *WorkService {
	return &WorkService{workRepo: workRepo, userRepo: userRepo, blobs: blobs, policy: policy}
}

type UploadRequest struct {
	Tier     model.Tier
	Title    string
	Filename string
	Body     io.Reader
}

// Upload stores a PDF at the target tier on behalf of the user. Policy first,
// then format checks, then blob + metadata; the blob is rolled back if the
// metadata insert fails.
func (s *WorkService) Upload(ctx context.Context, user *model.User, req UploadRequest) (*model.Work, error) {
	if !req.Tier.Valid() {
		return nil, fmt.Errorf("invalid level: %w", common.ErrValidation)
	}
	if !s.policy.CanUploadAt(user, req.Tier) {
		return nil, fmt.Errorf("you don't have permission to upload to this level: %w", common.ErrForbidden)
	}
	if strings.TrimSpace(req.Title) == "" {
		return nil, fmt.Errorf("title is required: %w", common.ErrValidation)
	}
	if !strings.HasSuffix(strings.ToLower(req.Filename), ".pdf") {
		return nil, fmt.Errorf("only PDF files are allowed: %w", common.ErrValidation)
	}

	key := storage.NewStorageKey()
	if err := s.blobs.Put(ctx, key, req.Body, "application/pdf"); err != nil {
		return nil, fmt.Errorf("failed to store file: %w", err)
	}

	work := &model.Work{
		ID:             uuid.NewString(),
		Title:          strings.TrimSpace(req.Title),
		Filename:       req.Filename,
		StorageKey:     key,
		Tier:           req.Tier,
		UploadedBy:     user.ID,
		UploadedByName: user.FullName,
		UploadedAt:     time.Now().UTC(),
	}
	if err := s.workRepo.Create(ctx, work); err != nil {
		if delErr := s.blobs.Delete(ctx, key); delErr != nil {
			log.Printf("Failed to clean up orphaned blob %s: %v", key, delErr)
		}
		return nil, err
	}
	return work, nil
}

// ListAccessible returns the user's visible works grouped by tier name.
// Non-approved users see an empty map.
func (s *WorkService) ListAccessible(ctx context.Context, user *model.User) (map[string][]*model.Work, error) {
	tiers := s.policy.VisibleTiers(user)
	works, err := s.workRepo.ListByTiers(ctx, tiers)
	if err != nil {
		return nil, err
	}

	grouped := make(map[string][]*model.Work)
	for _, w := range works {
		grouped[w.Tier.Name()] = append(grouped[w.Tier.Name()], w)
	}
	return grouped, nil
}

// ListByTier returns works at exactly one tier, if visible to the user.
func (s *WorkService) ListByTier(ctx context.Context, user *model.User, tier model.Tier) ([]*model.Work, error) {
	if !tier.Valid() {
		return nil, fmt.Errorf("invalid level: %w", common.ErrValidation)
	}
	if !s.policy.CanView(user, tier) {
		return nil, fmt.Errorf("you don't have permission to view this level: %w", common.ErrForbidden)
	}
	works, err := s.workRepo.ListByTiers(ctx, []model.Tier{tier})
	if err != nil {
		return nil, err
	}
	if works == nil {
		works = []*model.Work{}
	}
	return works, nil
}

type UserWithWorks struct {
	ID         string        `json:"id"`
	FullName   string        `json:"full_name"`
	Email      string        `json:"email"`
	Tier       model.Tier    `json:"level"`
	TierName   string        `json:"level_name"`
	WorksCount int           `json:"works_count"`
	Works      []*model.Work `json:"works"`
}

type Pagination struct {
	CurrentPage int `json:"current_page"`
	TotalPages  int `json:"total_pages"`
	TotalUsers  int `json:"total_users"`
	Limit       int `json:"limit"`
}

type UsersWithWorksResponse struct {
	Users      []*UserWithWorks `json:"users"`
	Pagination Pagination       `json:"pagination"`
}

// UsersWithWorks lists approved users at the caller's visible tiers together
// with their uploads, paginated.
func (s *WorkService) UsersWithWorks(ctx context.Context, user *model.User, page, limit int) (*UsersWithWorksResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	users, err := s.userRepo.ListApprovedByTiers(ctx, s.policy.VisibleTiers(user))
	if err != nil {
		return nil, err
	}

	total := len(users)
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	out := make([]*UserWithWorks, 0, end-start)
	for _, u := range users[start:end] {
		works, err := s.workRepo.ListByUploader(ctx, u.ID)
		if err != nil {
			return nil, err
		}
		if works == nil {
			works = []*model.Work{}
		}
		out = append(out, &UserWithWorks{
			ID:         u.ID,
			FullName:   u.FullName,
			Email:      u.Email,
			Tier:       u.Tier,
			TierName:   u.Tier.Name(),
			WorksCount: len(works),
			Works:      works,
		})
	}

	return &UsersWithWorksResponse{
		Users: out,
		Pagination: Pagination{
			CurrentPage: page,
			TotalPages:  (total + limit - 1) / limit,
			TotalUsers:  total,
			Limit:       limit,
		},
	}, nil
}

// Open fetches a work and its blob stream after a visibility check. The
// caller owns closing the stream.
func (s *WorkService) Open(ctx context.Context, user *model.User, workID string) (*model.Work, io.ReadCloser, error) {
	work, err := s.workRepo.FindByID(ctx, workID)
	if err != nil {
		return nil, nil, err
	}
	if !s.policy.CanView(user, work.Tier) {
		return nil, nil, fmt.Errorf("you don't have permission to view this file: %w", common.ErrForbidden)
	}
	body, err := s.blobs.Get(ctx, work.StorageKey)
	if err != nil {
		return nil, nil, err
	}
	return work, body, nil
}

// Delete removes a work's metadata and blob. A missing blob is tolerated so a
// half-deleted work can still be cleaned up.
func (s *WorkService) Delete(ctx context.Context, user *model.User, workID string) error {
	if !s.policy.CanDeleteWork(user) {
		return fmt.Errorf("admin or master privileges required: %w", common.ErrForbidden)
	}
	work, err := s.workRepo.FindByID(ctx, workID)
	if err != nil {
		return err
	}
	if err := s.blobs.Delete(ctx, work.StorageKey); err != nil {
		log.Printf("Failed to delete blob %s: %v", work.StorageKey, err)
	}
	return s.workRepo.Delete(ctx, work.ID)
}

// DownloadFilename sanitises the stored filename for a Content-Disposition
// header, falling back to a slug of the title.
func DownloadFilename(work *model.Work) string {
	safe := make([]rune, 0, len(work.Filename))
	for _, r := range work.Filename {
		if r < 128 && r != '"' && r != '\\' {
			safe = append(safe, r)
		}
	}
	name := strings.TrimSpace(string(safe))
	if name == "" || name == ".pdf" {
		name = slug.Make(work.Title) + ".pdf"
	}
	return name
}
