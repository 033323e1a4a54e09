package retention

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Circle-Company/Circle-System-2.0-sub002/internal/domain/model"
)

type allowedLister interface {
	ListAllowedBefore(ctx context.Context, cutoff time.Time, limit int) ([]model.ModerationRecord, error)
}

type archiveDeleter interface {
	Delete(ctx context.Context, contentID string) error
}

// Job drops archived text of allowed content once it ages out. Records
// themselves and audit archives for blocked or flagged content are
// never touched.
type Job struct {
	records     allowedLister
	archive     archiveDeleter
	keepAllowed time.Duration
	batchSize   int
	now         func() time.Time
	logger      *zap.Logger
}

func New(records allowedLister, archive archiveDeleter, keepAllowed time.Duration, batchSize int, logger *zap.Logger) *Job {
	if keepAllowed <= 0 {
		keepAllowed = 30 * 24 * time.Hour
	}
	if batchSize <= 0 {
		batchSize = 200
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Job{
		records:     records,
		archive:     archive,
		keepAllowed: keepAllowed,
		batchSize:   batchSize,
		now:         time.Now,
		logger:      logger,
	}
}

func (j *Job) Run(ctx context.Context) error {
	if j.records == nil || j.archive == nil {
		return nil
	}

	cutoff := j.now().Add(-j.keepAllowed)
	records, err := j.records.ListAllowedBefore(ctx, cutoff, j.batchSize)
	if err != nil {
		return fmt.Errorf("list allowed records before cutoff: %w", err)
	}
	if len(records) == 0 {
		return nil
	}

	deleted := 0
	for _, record := range records {
		if err := j.archive.Delete(ctx, record.ContentID); err != nil {
			j.logger.Warn("failed to delete archived text", zap.Error(err), zap.String("content_id", record.ContentID))
			continue
		}
		deleted++
	}

	j.logger.Info("retention pass completed", zap.Int("deleted", deleted), zap.Int("candidates", len(records)))
	return nil
}

// Start runs the job on a fixed interval until the context is canceled.
func (j *Job) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 6 * time.Hour
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := j.Run(ctx); err != nil {
				j.logger.Warn("retention pass failed", zap.Error(err))
			}
		}
	}
}
