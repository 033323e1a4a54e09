package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Circle-Company/Circle-System-2.0-sub002/internal/domain/enums"
	"github.com/Circle-Company/Circle-System-2.0-sub002/internal/domain/model"
	modsvc "github.com/Circle-Company/Circle-System-2.0-sub002/internal/services/moderation"
)

// ModerationRepo implements the moderation repository port on postgres.
// moderation_records carries UNIQUE(content_id): the database is the
// last line of defense for the one-record-per-content invariant.
type ModerationRepo struct {
	pool *pgxpool.Pool
}

func NewModerationRepo(pool *pgxpool.Pool) *ModerationRepo {
	return &ModerationRepo{pool: pool}
}

func (r *ModerationRepo) Save(ctx context.Context, record model.ModerationRecord) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if record.ID == "" || record.ContentID == "" {
		return fmt.Errorf("invalid moderation record payload")
	}

	detection, err := json.Marshal(record.Detection)
	if err != nil {
		return fmt.Errorf("marshal detection result: %w", err)
	}

	if _, err := r.pool.Exec(ctx, `
INSERT INTO moderation_records (
	id,
	content_id,
	content_type,
	author_id,
	verdict,
	reason,
	policy_version,
	detection,
	review_status,
	created_at,
	updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
`,
		record.ID,
		record.ContentID,
		string(record.ContentType),
		record.AuthorID,
		string(record.Decision.Verdict),
		record.Decision.Reason,
		record.Decision.AppliedPolicyVersion,
		detection,
		string(record.ReviewStatus),
		record.CreatedAt,
		record.UpdatedAt,
	); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return modsvc.ErrDuplicateContent
		}
		return fmt.Errorf("insert moderation record: %w", err)
	}

	return nil
}

func (r *ModerationRepo) GetByContentID(ctx context.Context, contentID string) (model.ModerationRecord, error) {
	if r.pool == nil {
		return model.ModerationRecord{}, fmt.Errorf("postgres pool is nil")
	}
	if contentID == "" {
		return model.ModerationRecord{}, fmt.Errorf("content id is required")
	}

	return r.queryOne(ctx, `
SELECT id, content_id, content_type, author_id, verdict, reason, policy_version, detection, review_status, created_at, updated_at
FROM moderation_records
WHERE content_id = $1
`, contentID)
}

func (r *ModerationRepo) UpdateReviewStatus(ctx context.Context, contentID string, status enums.ReviewStatus) (model.ModerationRecord, error) {
	if r.pool == nil {
		return model.ModerationRecord{}, fmt.Errorf("postgres pool is nil")
	}
	if contentID == "" {
		return model.ModerationRecord{}, fmt.Errorf("content id is required")
	}

	result, err := r.pool.Exec(ctx, `
UPDATE moderation_records
SET review_status = $2, updated_at = NOW()
WHERE content_id = $1
`, contentID, string(status))
	if err != nil {
		return model.ModerationRecord{}, fmt.Errorf("update review status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return model.ModerationRecord{}, modsvc.ErrRecordNotFound
	}

	return r.GetByContentID(ctx, contentID)
}

func (r *ModerationRepo) Delete(ctx context.Context, contentID string) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if contentID == "" {
		return fmt.Errorf("content id is required")
	}

	if _, err := r.pool.Exec(ctx, `
DELETE FROM moderation_records
WHERE content_id = $1
`, contentID); err != nil {
		return fmt.Errorf("delete moderation record: %w", err)
	}

	return nil
}

func (r *ModerationRepo) ListAllowedBefore(ctx context.Context, cutoff time.Time, limit int) ([]model.ModerationRecord, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if limit <= 0 {
		limit = 100
	}

	return r.queryMany(ctx, `
SELECT id, content_id, content_type, author_id, verdict, reason, policy_version, detection, review_status, created_at, updated_at
FROM moderation_records
WHERE verdict = 'ALLOWED' AND created_at < $1
ORDER BY created_at ASC, id ASC
LIMIT $2
`, cutoff, limit)
}

func (r *ModerationRepo) ListPendingReview(ctx context.Context, limit int) ([]model.ModerationRecord, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if limit <= 0 {
		limit = 50
	}

	return r.queryMany(ctx, `
SELECT id, content_id, content_type, author_id, verdict, reason, policy_version, detection, review_status, created_at, updated_at
FROM moderation_records
WHERE review_status = 'PENDING_HUMAN_REVIEW'
ORDER BY created_at ASC, id ASC
LIMIT $1
`, limit)
}

func (r *ModerationRepo) queryOne(ctx context.Context, query string, args ...any) (model.ModerationRecord, error) {
	record, err := scanRecord(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ModerationRecord{}, modsvc.ErrRecordNotFound
		}
		return model.ModerationRecord{}, fmt.Errorf("query moderation record: %w", err)
	}
	return record, nil
}

func (r *ModerationRepo) queryMany(ctx context.Context, query string, args ...any) ([]model.ModerationRecord, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query moderation records: %w", err)
	}
	defer rows.Close()

	items := make([]model.ModerationRecord, 0)
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan moderation record: %w", err)
		}
		items = append(items, record)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate moderation records: %w", rows.Err())
	}

	return items, nil
}

func scanRecord(row pgx.Row) (model.ModerationRecord, error) {
	var (
		record       model.ModerationRecord
		contentType  string
		verdict      string
		reviewStatus string
		detection    []byte
	)

	if err := row.Scan(
		&record.ID,
		&record.ContentID,
		&contentType,
		&record.AuthorID,
		&verdict,
		&record.Decision.Reason,
		&record.Decision.AppliedPolicyVersion,
		&detection,
		&reviewStatus,
		&record.CreatedAt,
		&record.UpdatedAt,
	); err != nil {
		return model.ModerationRecord{}, err
	}

	record.ContentType = enums.ContentType(contentType)
	record.Decision.Verdict = enums.Verdict(verdict)
	record.ReviewStatus = enums.ReviewStatus(reviewStatus)

	if len(detection) > 0 {
		if err := json.Unmarshal(detection, &record.Detection); err != nil {
			return model.ModerationRecord{}, fmt.Errorf("unmarshal detection result: %w", err)
		}
	}

	return record, nil
}
