package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Circle-Company/Circle-System-2.0-sub002/internal/domain/model"
)

var ErrMomentNotFound = errors.New("moment not found")

type MomentRepo struct {
	pool *pgxpool.Pool
}

func NewMomentRepo(pool *pgxpool.Pool) *MomentRepo {
	return &MomentRepo{pool: pool}
}

func (r *MomentRepo) Create(ctx context.Context, moment model.Moment) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if moment.ID == "" || moment.AuthorID == "" {
		return fmt.Errorf("invalid moment payload")
	}

	if _, err := r.pool.Exec(ctx, `
INSERT INTO moments (
	id,
	author_id,
	description,
	video_key,
	visible,
	comment_count,
	created_at
) VALUES ($1, $2, $3, $4, $5, 0, $6)
`,
		moment.ID,
		moment.AuthorID,
		moment.Description,
		moment.VideoKey,
		moment.Visible,
		moment.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert moment: %w", err)
	}

	return nil
}

func (r *MomentRepo) GetByID(ctx context.Context, momentID string) (model.Moment, error) {
	if r.pool == nil {
		return model.Moment{}, fmt.Errorf("postgres pool is nil")
	}
	if momentID == "" {
		return model.Moment{}, fmt.Errorf("moment id is required")
	}

	var moment model.Moment
	err := r.pool.QueryRow(ctx, `
SELECT id, author_id, description, video_key, visible, created_at
FROM moments
WHERE id = $1
`, momentID).Scan(
		&moment.ID,
		&moment.AuthorID,
		&moment.Description,
		&moment.VideoKey,
		&moment.Visible,
		&moment.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Moment{}, ErrMomentNotFound
		}
		return model.Moment{}, fmt.Errorf("get moment: %w", err)
	}

	return moment, nil
}

func (r *MomentRepo) SetVisible(ctx context.Context, momentID string, visible bool) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if momentID == "" {
		return fmt.Errorf("moment id is required")
	}

	result, err := r.pool.Exec(ctx, `
UPDATE moments
SET visible = $2
WHERE id = $1
`, momentID, visible)
	if err != nil {
		return fmt.Errorf("update moment visibility: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrMomentNotFound
	}

	return nil
}
