package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Circle-Company/Circle-System-2.0-sub002/internal/domain/enums"
	"github.com/Circle-Company/Circle-System-2.0-sub002/internal/domain/model"
	modsvc "github.com/Circle-Company/Circle-System-2.0-sub002/internal/services/moderation"
)

// ModerationRepo is the reference in-memory implementation of the
// moderation repository port. It backs tests and dry-run moderation
// where persistence is not required.
type ModerationRepo struct {
	mu      sync.Mutex
	records map[string]model.ModerationRecord
	now     func() time.Time
}

func NewModerationRepo() *ModerationRepo {
	return &ModerationRepo{
		records: make(map[string]model.ModerationRecord),
		now:     time.Now,
	}
}

func (r *ModerationRepo) Save(_ context.Context, record model.ModerationRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[record.ContentID]; ok {
		return modsvc.ErrDuplicateContent
	}
	r.records[record.ContentID] = record
	return nil
}

func (r *ModerationRepo) GetByContentID(_ context.Context, contentID string) (model.ModerationRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.records[contentID]
	if !ok {
		return model.ModerationRecord{}, modsvc.ErrRecordNotFound
	}
	return record, nil
}

func (r *ModerationRepo) UpdateReviewStatus(_ context.Context, contentID string, status enums.ReviewStatus) (model.ModerationRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.records[contentID]
	if !ok {
		return model.ModerationRecord{}, modsvc.ErrRecordNotFound
	}

	record.ReviewStatus = status
	record.UpdatedAt = r.now().UTC()
	r.records[contentID] = record
	return record, nil
}

func (r *ModerationRepo) Delete(_ context.Context, contentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.records, contentID)
	return nil
}

func (r *ModerationRepo) ListAllowedBefore(_ context.Context, cutoff time.Time, limit int) ([]model.ModerationRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if limit <= 0 {
		limit = 100
	}

	items := make([]model.ModerationRecord, 0)
	for _, record := range r.records {
		if record.Decision.Verdict == enums.VerdictAllowed && record.CreatedAt.Before(cutoff) {
			items = append(items, record)
		}
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}

	return items, nil
}

func (r *ModerationRepo) ListPendingReview(_ context.Context, limit int) ([]model.ModerationRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if limit <= 0 {
		limit = 50
	}

	items := make([]model.ModerationRecord, 0)
	for _, record := range r.records {
		if record.ReviewStatus == enums.ReviewStatusPending {
			items = append(items, record)
		}
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}

	return items, nil
}
