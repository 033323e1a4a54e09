package review

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Circle-Company/Circle-System-2.0-sub002/internal/domain/enums"
	"github.com/Circle-Company/Circle-System-2.0-sub002/internal/domain/model"
)

var (
	ErrInvalidResolution = errors.New("resolution must be UPHELD or OVERTURNED")
	ErrInvalidTransition = errors.New("record is not pending human review")
)

type RecordStore interface {
	GetByContentID(ctx context.Context, contentID string) (model.ModerationRecord, error)
	UpdateReviewStatus(ctx context.Context, contentID string, status enums.ReviewStatus) (model.ModerationRecord, error)
	ListPendingReview(ctx context.Context, limit int) ([]model.ModerationRecord, error)
}

// ContentHider toggles visibility of a flagged item once a reviewer has
// decided. Each content type supplies its own implementation.
type ContentHider interface {
	SetVisible(ctx context.Context, id string, visible bool) error
}

// Service is the human-review queue. A reviewer upholds or overturns
// flagged records; overturned content is made visible again.
type Service struct {
	records RecordStore
	hiders  map[enums.ContentType]ContentHider
	now     func() time.Time
}

func NewService(records RecordStore) *Service {
	return &Service{
		records: records,
		hiders:  make(map[enums.ContentType]ContentHider),
		now:     time.Now,
	}
}

// AttachHider is optional. Content types without a hider keep their
// stored visibility when a record is overturned.
func (s *Service) AttachHider(contentType enums.ContentType, hider ContentHider) {
	if hider == nil {
		return
	}
	s.hiders[contentType] = hider
}

func (s *Service) ListPending(ctx context.Context, limit int) ([]model.ModerationRecord, error) {
	if s.records == nil {
		return nil, fmt.Errorf("review service dependencies are not configured")
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	return s.records.ListPendingReview(ctx, limit)
}

func (s *Service) Resolve(ctx context.Context, contentID string, resolution enums.ReviewStatus) (model.ModerationRecord, error) {
	if s.records == nil {
		return model.ModerationRecord{}, fmt.Errorf("review service dependencies are not configured")
	}
	if strings.TrimSpace(contentID) == "" {
		return model.ModerationRecord{}, fmt.Errorf("content id is required")
	}
	if resolution != enums.ReviewStatusUpheld && resolution != enums.ReviewStatusOverturned {
		return model.ModerationRecord{}, ErrInvalidResolution
	}

	record, err := s.records.GetByContentID(ctx, contentID)
	if err != nil {
		return model.ModerationRecord{}, err
	}
	if record.ReviewStatus != enums.ReviewStatusPending {
		return model.ModerationRecord{}, ErrInvalidTransition
	}

	updated, err := s.records.UpdateReviewStatus(ctx, contentID, resolution)
	if err != nil {
		return model.ModerationRecord{}, err
	}

	if resolution == enums.ReviewStatusOverturned {
		if hider, ok := s.hiders[updated.ContentType]; ok {
			if err := hider.SetVisible(ctx, contentID, true); err != nil {
				return updated, fmt.Errorf("unhide overturned content: %w", err)
			}
		}
	}

	return updated, nil
}
