package moderation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Circle-Company/Circle-System-2.0-sub002/internal/domain/enums"
	"github.com/Circle-Company/Circle-System-2.0-sub002/internal/domain/model"
)

// Repository persists authoritative moderation records. Save must
// guarantee at most one record per ContentID and return
// ErrDuplicateContent otherwise. Implementations must be safe for
// concurrent use.
type Repository interface {
	Save(ctx context.Context, record model.ModerationRecord) error
	GetByContentID(ctx context.Context, contentID string) (model.ModerationRecord, error)
	UpdateReviewStatus(ctx context.Context, contentID string, status enums.ReviewStatus) (model.ModerationRecord, error)
	Delete(ctx context.Context, contentID string) error
	ListAllowedBefore(ctx context.Context, cutoff time.Time, limit int) ([]model.ModerationRecord, error)
}

// Archive keeps a write-once raw copy of moderated text for audit and
// appeal. It is never consulted on the decision path.
type Archive interface {
	Store(ctx context.Context, contentID, text string) (string, error)
	Retrieve(ctx context.Context, contentID string) (string, error)
	Delete(ctx context.Context, contentID string) error
}

type Observer interface {
	ObserveVerdict(verdict enums.Verdict, category string)
	ObserveFailure(stage string)
}

// Notifier alerts human reviewers about freshly flagged content.
// Best-effort: a notification failure never fails the moderation call.
type Notifier interface {
	NotifyFlagged(ctx context.Context, record model.ModerationRecord) error
}

// Engine is the single entry point callers use before persisting
// user-submitted text. Every failure propagates: a caller that cannot
// get a verdict must not persist the content.
type Engine struct {
	policy   *CompiledPolicy
	detector *Detector
	blocker  *Blocker
	repo     Repository
	archive  Archive
	observer Observer
	notifier Notifier

	archiveAllowed bool
}

func NewEngine(cfg Config, repo Repository, archive Archive) (*Engine, error) {
	if repo == nil {
		return nil, fmt.Errorf("moderation repository is required")
	}
	if archive == nil {
		return nil, fmt.Errorf("content archive is required")
	}

	policy, err := cfg.Compile()
	if err != nil {
		return nil, fmt.Errorf("compile moderation policy: %w", err)
	}

	return &Engine{
		policy:         policy,
		detector:       NewDetector(policy),
		blocker:        NewBlocker(repo, policy),
		repo:           repo,
		archive:        archive,
		archiveAllowed: cfg.ArchiveAllowed,
	}, nil
}

func (e *Engine) AttachObserver(observer Observer) {
	e.observer = observer
}

func (e *Engine) AttachNotifier(notifier Notifier) {
	e.notifier = notifier
}

func (e *Engine) PolicyVersion() string {
	return e.policy.Version
}

// Moderate runs detection, decides, persists the record and archives the
// original text. BLOCKED and FLAGGED content is always archived; ALLOWED
// content only when the policy asks for it.
func (e *Engine) Moderate(ctx context.Context, req model.ModerationRequest) (model.ModerationVerdict, error) {
	if err := e.validate(req); err != nil {
		e.observeFailure("validate")
		return model.ModerationVerdict{}, err
	}

	detection, err := e.detector.Detect(req.Text)
	if err != nil {
		e.observeFailure("detect")
		return model.ModerationVerdict{}, err
	}

	decision := e.blocker.Decide(detection)

	record, err := e.blocker.Block(ctx, req, decision, detection)
	if err != nil {
		e.observeFailure("persist")
		return model.ModerationVerdict{}, err
	}

	if decision.Verdict != enums.VerdictAllowed || e.archiveAllowed {
		if _, err := e.archive.Store(ctx, req.ContentID, req.Text); err != nil {
			e.observeFailure("archive")
			return model.ModerationVerdict{}, &StorageError{Op: "store", Err: err}
		}
	}

	if e.observer != nil {
		e.observer.ObserveVerdict(decision.Verdict, topCategory(detection))
	}
	if e.notifier != nil && decision.Verdict == enums.VerdictFlaggedForReview {
		_ = e.notifier.NotifyFlagged(ctx, record)
	}

	return model.ModerationVerdict{
		Decision: decision,
		RecordID: record.ID,
	}, nil
}

// Lookup returns the persisted record for appeal and audit surfaces.
func (e *Engine) Lookup(ctx context.Context, contentID string) (model.ModerationRecord, error) {
	if strings.TrimSpace(contentID) == "" {
		return model.ModerationRecord{}, ErrInvalidRequest
	}

	record, err := e.repo.GetByContentID(ctx, contentID)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return model.ModerationRecord{}, err
		}
		return model.ModerationRecord{}, &RepositoryError{Op: "get", Err: err}
	}

	return record, nil
}

// Erase removes the record and the archived copy. Legal/compliance
// erasure only, never part of normal operation.
func (e *Engine) Erase(ctx context.Context, contentID string) error {
	if strings.TrimSpace(contentID) == "" {
		return ErrInvalidRequest
	}

	if err := e.repo.Delete(ctx, contentID); err != nil {
		return &RepositoryError{Op: "delete", Err: err}
	}
	if err := e.archive.Delete(ctx, contentID); err != nil {
		return &StorageError{Op: "delete", Err: err}
	}

	return nil
}

func (e *Engine) validate(req model.ModerationRequest) error {
	if strings.TrimSpace(req.ContentID) == "" {
		return fmt.Errorf("%w: content id is required", ErrInvalidRequest)
	}
	if strings.TrimSpace(req.AuthorID) == "" {
		return fmt.Errorf("%w: author id is required", ErrInvalidRequest)
	}
	if !req.ContentType.Valid() {
		return fmt.Errorf("%w: unknown content type %q", ErrInvalidRequest, req.ContentType)
	}
	if strings.TrimSpace(req.Text) == "" {
		return fmt.Errorf("%w: text is empty", ErrInvalidRequest)
	}
	if length := len([]rune(req.Text)); length > e.policy.MaxTextLen {
		return fmt.Errorf("%w: text length %d exceeds limit %d", ErrInvalidRequest, length, e.policy.MaxTextLen)
	}
	return nil
}

func (e *Engine) observeFailure(stage string) {
	if e.observer != nil {
		e.observer.ObserveFailure(stage)
	}
}

func topCategory(detection model.DetectionResult) string {
	top := "none"
	best := 0.0
	for _, cs := range detection.Categories {
		if cs.Score > best || (cs.Score == best && top != "none" && cs.Category < top) {
			best = cs.Score
			top = cs.Category
		}
	}
	return top
}
