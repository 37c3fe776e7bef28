package service

import (
	"bytes"
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"lodge_archive/internal/common"
	"lodge_archive/internal/domain/model"
	"lodge_archive/internal/domain/repository"
)

// --- in-memory fakes for the repository and storage boundaries ---

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User // by ID
}

var _ repository.UserRepository = (*fakeUserRepo)(nil)

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*model.User)}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if model.NormalizeEmail(u.Email) == model.NormalizeEmail(user.Email) {
			return common.ErrConflict
		}
	}
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if model.NormalizeEmail(u.Email) == model.NormalizeEmail(email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *fakeUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) ListByStatus(ctx context.Context, status model.Status) ([]*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.User
	for _, u := range r.users {
		if u.Status == status {
			cp := *u
			out = append(out, &cp)
		}
	}
	sortUsers(out)
	return out, nil
}

func (r *fakeUserRepo) ListAll(ctx context.Context) ([]*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.User, 0, len(r.users))
	for _, u := range r.users {
		cp := *u
		out = append(out, &cp)
	}
	sortUsers(out)
	return out, nil
}

func (r *fakeUserRepo) ListApprovedByTiers(ctx context.Context, tiers []model.Tier) ([]*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	allowed := make(map[model.Tier]bool, len(tiers))
	for _, t := range tiers {
		allowed[t] = true
	}
	var out []*model.User
	for _, u := range r.users {
		if u.Status == model.StatusApproved && allowed[u.Tier] {
			cp := *u
			out = append(out, &cp)
		}
	}
	sortUsers(out)
	return out, nil
}

func (r *fakeUserRepo) SetStatus(ctx context.Context, id string, status model.Status, approvedBy *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return common.ErrNotFound
	}
	u.Status = status
	if status == model.StatusApproved {
		now := time.Now()
		u.ApprovedAt = &now
		u.ApprovedBy = approvedBy
	}
	return nil
}

func (r *fakeUserRepo) SetTier(ctx context.Context, id string, tier model.Tier) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return common.ErrNotFound
	}
	u.Tier = tier
	return nil
}

func (r *fakeUserRepo) SetPassword(ctx context.Context, id string, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return common.ErrNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

func (r *fakeUserRepo) UpdateProfile(ctx context.Context, id string, fullName *string, passwordHash *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return common.ErrNotFound
	}
	if fullName != nil {
		u.FullName = *fullName
	}
	if passwordHash != nil {
		u.PasswordHash = *passwordHash
	}
	return nil
}

func (r *fakeUserRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return common.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

func sortUsers(users []*model.User) {
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
}

type fakeWorkRepo struct {
	mu        sync.Mutex
	works     map[string]*model.Work
	createErr error
}

var _ repository.WorkRepository = (*fakeWorkRepo)(nil)

func newFakeWorkRepo() *fakeWorkRepo {
	return &fakeWorkRepo{works: make(map[string]*model.Work)}
}

func (r *fakeWorkRepo) Create(ctx context.Context, work *model.Work) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *work
	r.works[work.ID] = &cp
	return nil
}

func (r *fakeWorkRepo) FindByID(ctx context.Context, id string) (*model.Work, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.works[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *w
	return &cp, nil
}

func (r *fakeWorkRepo) ListByTiers(ctx context.Context, tiers []model.Tier) ([]*model.Work, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	allowed := make(map[model.Tier]bool, len(tiers))
	for _, t := range tiers {
		allowed[t] = true
	}
	var out []*model.Work
	for _, w := range r.works {
		if allowed[w.Tier] {
			cp := *w
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeWorkRepo) ListByUploader(ctx context.Context, uploaderID string) ([]*model.Work, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Work
	for _, w := range r.works {
		if w.UploadedBy == uploaderID {
			cp := *w
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeWorkRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.works[id]; !ok {
		return common.ErrNotFound
	}
	delete(r.works, id)
	return nil
}

type storedToken struct {
	token   string
	expires time.Time
}

type fakeResetTokenRepo struct {
	mu     sync.Mutex
	tokens map[string]storedToken // by normalized email
}

var _ repository.ResetTokenRepository = (*fakeResetTokenRepo)(nil)

func newFakeResetTokenRepo() *fakeResetTokenRepo {
	return &fakeResetTokenRepo{tokens: make(map[string]storedToken)}
}

func (r *fakeResetTokenRepo) Save(ctx context.Context, email, token string, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[model.NormalizeEmail(email)] = storedToken{token: token, expires: time.Now().Add(ttl)}
	return nil
}

func (r *fakeResetTokenRepo) Peek(ctx context.Context, email, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.tokens[model.NormalizeEmail(email)]
	if !ok || st.token != token || time.Now().After(st.expires) {
		return common.ErrBadRequest
	}
	return nil
}

func (r *fakeResetTokenRepo) Consume(ctx context.Context, email, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := model.NormalizeEmail(email)
	st, ok := r.tokens[key]
	if !ok || st.token != token || time.Now().After(st.expires) {
		return common.ErrBadRequest
	}
	delete(r.tokens, key)
	return nil
}

func (r *fakeResetTokenRepo) lastToken(email string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.tokens[model.NormalizeEmail(email)]
	return st.token, ok
}

type fakeBlobStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{blobs: make(map[string][]byte)}
}

func (s *fakeBlobStore) Put(ctx context.Context, key string, body io.Reader, contentType string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[key] = data
	return nil
}

func (s *fakeBlobStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.blobs[key]
	if !ok {
		return nil, common.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *fakeBlobStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, key)
	return nil
}

func (s *fakeBlobStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.blobs)
}
