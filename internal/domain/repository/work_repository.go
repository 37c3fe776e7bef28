package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"lodge_archive/internal/common"
	"lodge_archive/internal/domain/model"
)

type WorkRepository interface {
	Create(ctx context.Context, work *model.Work) error
	FindByID(ctx context.Context, id string) (*model.Work, error)
	ListByTiers(ctx context.Context, tiers []model.Tier) ([]*model.Work, error)
	ListByUploader(ctx context.Context, uploaderID string) ([]*model.Work, error)
	Delete(ctx context.Context, id string) error
}

type pgWorkRepository struct {
	db *sql.DB
}

func NewPgWorkRepository(db *sql.DB) WorkRepository {
	return &pgWorkRepository{db: db}
}

const workColumns = `id, title, filename, storage_key, level, uploaded_by, uploaded_by_name, uploaded_at`

func scanWork(row interface{ Scan(dest ...any) error }) (*model.Work, error) {
	work := &model.Work{}
	err := row.Scan(
		&work.ID, &work.Title, &work.Filename, &work.StorageKey,
		&work.Tier, &work.UploadedBy, &work.UploadedByName, &work.UploadedAt,
	)
	if err != nil {
		return nil, err
	}
	return work, nil
}

func (r *pgWorkRepository) Create(ctx context.Context, work *model.Work) error {
	query := `INSERT INTO works (id, title, filename, storage_key, level, uploaded_by, uploaded_by_name, uploaded_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.ExecContext(ctx, query,
		work.ID, work.Title, work.Filename, work.StorageKey,
		work.Tier, work.UploadedBy, work.UploadedByName, work.UploadedAt,
	)
	if err != nil {
		return fmt.Errorf("pgWorkRepository.Create: %w", err)
	}
	return nil
}

func (r *pgWorkRepository) FindByID(ctx context.Context, id string) (*model.Work, error) {
	query := `SELECT ` + workColumns + ` FROM works WHERE id = $1`
	work, err := scanWork(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgWorkRepository.FindByID: %w", err)
	}
	return work, nil
}

func (r *pgWorkRepository) ListByTiers(ctx context.Context, tiers []model.Tier) ([]*model.Work, error) {
	if len(tiers) == 0 {
		return nil, nil
	}
	levels := make([]int, len(tiers))
	for i, t := range tiers {
		levels[i] = int(t)
	}
	query := `SELECT ` + workColumns + ` FROM works WHERE level = ANY($1) ORDER BY uploaded_at DESC`
	return r.list(ctx, query, levels)
}

func (r *pgWorkRepository) ListByUploader(ctx context.Context, uploaderID string) ([]*model.Work, error) {
	query := `SELECT ` + workColumns + ` FROM works WHERE uploaded_by = $1 ORDER BY uploaded_at DESC`
	return r.list(ctx, query, uploaderID)
}

func (r *pgWorkRepository) list(ctx context.Context, query string, args ...any) ([]*model.Work, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("pgWorkRepository.list: %w", err)
	}
	defer rows.Close()

	var works []*model.Work
	for rows.Next() {
		work, err := scanWork(rows)
		if err != nil {
			return nil, fmt.Errorf("pgWorkRepository.list scan: %w", err)
		}
		works = append(works, work)
	}
	return works, rows.Err()
}

func (r *pgWorkRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM works WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("pgWorkRepository.Delete: %w", err)
	}
	return requireRow(res)
}
