package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"lodge_archive/internal/common"
	"lodge_archive/internal/domain/model"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
	ListByStatus(ctx context.Context, status model.Status) ([]*model.User, error)
	ListAll(ctx context.Context) ([]*model.User, error)
	ListApprovedByTiers(ctx context.Context, tiers []model.Tier) ([]*model.User, error)
	SetStatus(ctx context.Context, id string, status model.Status, approvedBy *string) error
	SetTier(ctx context.Context, id string, tier model.Tier) error
	SetPassword(ctx context.Context, id string, passwordHash string) error
	UpdateProfile(ctx context.Context, id string, fullName *string, passwordHash *string) error
	Delete(ctx context.Context, id string) error
}

type pgUserRepository struct {
	db *sql.DB
}

func NewPgUserRepository(db *sql.DB) UserRepository {
	return &pgUserRepository{db: db}
}

const userColumns = `id, email, full_name, password_hash, level, status, created_at, approved_at, approved_by`

func scanUser(row interface{ Scan(dest ...any) error }) (*model.User, error) {
	user := &model.User{}
	err := row.Scan(
		&user.ID, &user.Email, &user.FullName, &user.PasswordHash,
		&user.Tier, &user.Status, &user.CreatedAt, &user.ApprovedAt, &user.ApprovedBy,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *pgUserRepository) Create(ctx context.Context, user *model.User) error {
	query := `INSERT INTO users (id, email, full_name, password_hash, level, status, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.ExecContext(ctx, query,
		user.ID, model.NormalizeEmail(user.Email), user.FullName, user.PasswordHash,
		user.Tier, user.Status, user.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // Unique constraint violation
			return fmt.Errorf("user with given email already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgUserRepository.Create: %w", err)
	}
	return nil
}

func (r *pgUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = $1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, model.NormalizeEmail(email)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgUserRepository.FindByEmail: %w", err)
	}
	return user, nil
}

func (r *pgUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgUserRepository.FindByID: %w", err)
	}
	return user, nil
}

func (r *pgUserRepository) ListByStatus(ctx context.Context, status model.Status) ([]*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE status = $1 ORDER BY created_at`
	return r.list(ctx, query, status)
}

func (r *pgUserRepository) ListAll(ctx context.Context) ([]*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at`
	return r.list(ctx, query)
}

func (r *pgUserRepository) ListApprovedByTiers(ctx context.Context, tiers []model.Tier) ([]*model.User, error) {
	if len(tiers) == 0 {
		return nil, nil
	}
	query := `SELECT ` + userColumns + ` FROM users
	          WHERE status = 'approved' AND level = ANY($1) ORDER BY full_name`
	levels := make([]int, len(tiers))
	for i, t := range tiers {
		levels[i] = int(t)
	}
	return r.list(ctx, query, levels)
}

func (r *pgUserRepository) list(ctx context.Context, query string, args ...any) ([]*model.User, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("pgUserRepository.list: %w", err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("pgUserRepository.list scan: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (r *pgUserRepository) SetStatus(ctx context.Context, id string, status model.Status, approvedBy *string) error {
	var res sql.Result
	var err error
	if status == model.StatusApproved {
		query := `UPDATE users SET status = $2, approved_at = $3, approved_by = $4 WHERE id = $1`
		res, err = r.db.ExecContext(ctx, query, id, status, time.Now().UTC(), approvedBy)
	} else {
		query := `UPDATE users SET status = $2 WHERE id = $1`
		res, err = r.db.ExecContext(ctx, query, id, status)
	}
	if err != nil {
		return fmt.Errorf("pgUserRepository.SetStatus: %w", err)
	}
	return requireRow(res)
}

func (r *pgUserRepository) SetTier(ctx context.Context, id string, tier model.Tier) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET level = $2 WHERE id = $1`, id, tier)
	if err != nil {
		return fmt.Errorf("pgUserRepository.SetTier: %w", err)
	}
	return requireRow(res)
}

func (r *pgUserRepository) SetPassword(ctx context.Context, id string, passwordHash string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET password_hash = $2 WHERE id = $1`, id, passwordHash)
	if err != nil {
		return fmt.Errorf("pgUserRepository.SetPassword: %w", err)
	}
	return requireRow(res)
}

func (r *pgUserRepository) UpdateProfile(ctx context.Context, id string, fullName *string, passwordHash *string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET full_name = COALESCE($2, full_name),
		                  password_hash = COALESCE($3, password_hash)
		 WHERE id = $1`, id, fullName, passwordHash)
	if err != nil {
		return fmt.Errorf("pgUserRepository.UpdateProfile: %w", err)
	}
	return requireRow(res)
}

func (r *pgUserRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("pgUserRepository.Delete: %w", err)
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}
