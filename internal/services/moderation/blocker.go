package moderation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Circle-Company/Circle-System-2.0-sub002/internal/domain/enums"
	"github.com/Circle-Company/Circle-System-2.0-sub002/internal/domain/model"
)

// Blocker turns a detection result into an enforcement decision and
// persists the authoritative record for it.
type Blocker struct {
	repo   Repository
	policy *CompiledPolicy
	newID  func() string
	now    func() time.Time
}

func NewBlocker(repo Repository, policy *CompiledPolicy) *Blocker {
	return &Blocker{
		repo:   repo,
		policy: policy,
		newID:  uuid.NewString,
		now:    time.Now,
	}
}

// Decide compares per-category scores against that category's own
// thresholds. Ties between categories break to the higher score, then to
// the lexicographically smaller name, so re-running the same detection
// always cites the same category.
func (b *Blocker) Decide(detection model.DetectionResult) model.ModerationDecision {
	var blocked, flagged *model.CategoryScore

	for i := range detection.Categories {
		cs := detection.Categories[i]
		cat, ok := b.lookupCategory(cs.Category)
		if !ok {
			continue
		}
		if cs.Score >= cat.blockThreshold {
			blocked = pickWinner(blocked, &cs)
		} else if cs.Score >= cat.reviewThreshold {
			flagged = pickWinner(flagged, &cs)
		}
	}

	decision := model.ModerationDecision{
		Verdict:              enums.VerdictAllowed,
		Reason:               "none",
		AppliedPolicyVersion: b.policy.Version,
	}
	switch {
	case blocked != nil:
		decision.Verdict = enums.VerdictBlocked
		decision.Reason = fmt.Sprintf("category %q scored %.2f", blocked.Category, blocked.Score)
	case flagged != nil:
		decision.Verdict = enums.VerdictFlaggedForReview
		decision.Reason = fmt.Sprintf("category %q scored %.2f", flagged.Category, flagged.Score)
	}

	return decision
}

// Block persists the record for a decision. A duplicate ContentID means
// the caller requested moderation twice; the prior decision stays
// authoritative and ErrDuplicateContent surfaces unchanged.
func (b *Blocker) Block(ctx context.Context, req model.ModerationRequest, decision model.ModerationDecision, detection model.DetectionResult) (model.ModerationRecord, error) {
	if b.repo == nil {
		return model.ModerationRecord{}, fmt.Errorf("moderation repository is nil")
	}

	reviewStatus := enums.ReviewStatusNone
	if decision.Verdict == enums.VerdictFlaggedForReview {
		reviewStatus = enums.ReviewStatusPending
	}

	now := b.now().UTC()
	record := model.ModerationRecord{
		ID:           b.newID(),
		ContentID:    req.ContentID,
		ContentType:  req.ContentType,
		AuthorID:     req.AuthorID,
		Decision:     decision,
		Detection:    detection,
		ReviewStatus: reviewStatus,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := b.repo.Save(ctx, record); err != nil {
		if errors.Is(err, ErrDuplicateContent) {
			return model.ModerationRecord{}, err
		}
		return model.ModerationRecord{}, &RepositoryError{Op: "save", Err: err}
	}

	return record, nil
}

func (b *Blocker) lookupCategory(name string) (compiledCategory, bool) {
	for _, cat := range b.policy.categories {
		if cat.name == name {
			return cat, true
		}
	}
	return compiledCategory{}, false
}

func pickWinner(current, candidate *model.CategoryScore) *model.CategoryScore {
	if current == nil {
		return candidate
	}
	if candidate.Score > current.Score {
		return candidate
	}
	if candidate.Score == current.Score && candidate.Category < current.Category {
		return candidate
	}
	return current
}
