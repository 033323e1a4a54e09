package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Circle-Company/Circle-System-2.0-sub002/internal/domain/model"
)

var ErrCommentNotFound = errors.New("comment not found")

type CommentRepo struct {
	pool *pgxpool.Pool
}

func NewCommentRepo(pool *pgxpool.Pool) *CommentRepo {
	return &CommentRepo{pool: pool}
}

// Create inserts the comment and bumps the moment's comment counter in
// one transaction.
func (r *CommentRepo) Create(ctx context.Context, comment model.Comment) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if comment.ID == "" || comment.MomentID == "" || comment.AuthorID == "" {
		return fmt.Errorf("invalid comment payload")
	}

	var parent any
	if comment.ParentCommentID != "" {
		parent = comment.ParentCommentID
	}

	return WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
INSERT INTO comments (
	id,
	moment_id,
	author_id,
	parent_comment_id,
	body,
	visible,
	created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7)
`,
			comment.ID,
			comment.MomentID,
			comment.AuthorID,
			parent,
			comment.Text,
			comment.Visible,
			comment.CreatedAt,
		); err != nil {
			return fmt.Errorf("insert comment: %w", err)
		}

		if _, err := tx.Exec(ctx, `
UPDATE moments
SET comment_count = comment_count + 1
WHERE id = $1
`, comment.MomentID); err != nil {
			return fmt.Errorf("increment moment comment count: %w", err)
		}

		return nil
	})
}

func (r *CommentRepo) GetByID(ctx context.Context, commentID string) (model.Comment, error) {
	if r.pool == nil {
		return model.Comment{}, fmt.Errorf("postgres pool is nil")
	}
	if commentID == "" {
		return model.Comment{}, fmt.Errorf("comment id is required")
	}

	var (
		comment model.Comment
		parent  *string
	)
	err := r.pool.QueryRow(ctx, `
SELECT id, moment_id, author_id, parent_comment_id, body, visible, created_at
FROM comments
WHERE id = $1
`, commentID).Scan(
		&comment.ID,
		&comment.MomentID,
		&comment.AuthorID,
		&parent,
		&comment.Text,
		&comment.Visible,
		&comment.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Comment{}, ErrCommentNotFound
		}
		return model.Comment{}, fmt.Errorf("get comment: %w", err)
	}

	if parent != nil {
		comment.ParentCommentID = *parent
	}

	return comment, nil
}

func (r *CommentRepo) SetVisible(ctx context.Context, commentID string, visible bool) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if commentID == "" {
		return fmt.Errorf("comment id is required")
	}

	result, err := r.pool.Exec(ctx, `
UPDATE comments
SET visible = $2
WHERE id = $1
`, commentID, visible)
	if err != nil {
		return fmt.Errorf("update comment visibility: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrCommentNotFound
	}

	return nil
}

func (r *CommentRepo) ListVisibleByMoment(ctx context.Context, momentID string, limit int) ([]model.Comment, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if momentID == "" {
		return nil, fmt.Errorf("moment id is required")
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.pool.Query(ctx, `
SELECT id, moment_id, author_id, parent_comment_id, body, visible, created_at
FROM comments
WHERE moment_id = $1 AND visible = TRUE
ORDER BY created_at DESC, id DESC
LIMIT $2
`, momentID, limit)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	items := make([]model.Comment, 0, limit)
	for rows.Next() {
		var (
			comment model.Comment
			parent  *string
		)
		if err := rows.Scan(
			&comment.ID,
			&comment.MomentID,
			&comment.AuthorID,
			&parent,
			&comment.Text,
			&comment.Visible,
			&comment.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		if parent != nil {
			comment.ParentCommentID = *parent
		}
		items = append(items, comment)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate comments: %w", rows.Err())
	}

	return items, nil
}
