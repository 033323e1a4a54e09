package comments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Circle-Company/Circle-System-2.0-sub002/internal/domain/enums"
	"github.com/Circle-Company/Circle-System-2.0-sub002/internal/domain/model"
	strikesvc "github.com/Circle-Company/Circle-System-2.0-sub002/internal/services/strikes"
)

const blockedStrikeWeight = 1

var (
	ErrValidation     = errors.New("validation error")
	ErrMomentNotFound = errors.New("moment not found")
	ErrContentBlocked = errors.New("comment blocked by content policy")
)

// TooFastError carries the wait the author owes before the next
// submission, either from the rate limiter or the strike cooldown.
type TooFastError struct {
	RetryAfterSec int64
}

func (e *TooFastError) Error() string {
	return fmt.Sprintf("too many submissions, retry after %ds", e.RetryAfterSec)
}

type Moderator interface {
	Moderate(ctx context.Context, req model.ModerationRequest) (model.ModerationVerdict, error)
}

type CommentStore interface {
	Create(ctx context.Context, comment model.Comment) error
	SetVisible(ctx context.Context, commentID string, visible bool) error
	ListVisibleByMoment(ctx context.Context, momentID string, limit int) ([]model.Comment, error)
}

type MomentStore interface {
	GetByID(ctx context.Context, momentID string) (model.Moment, error)
}

type SubmissionLimiter interface {
	AllowSubmission(ctx context.Context, authorID string) (int64, bool, error)
}

type StrikeLedger interface {
	Gate(ctx context.Context, authorID string, now time.Time) (int64, bool, error)
	ApplyStrike(ctx context.Context, authorID string, weight int, now time.Time) (strikesvc.State, error)
}

type Dependencies struct {
	Comments  CommentStore
	Moments   MomentStore
	Moderator Moderator
}

type Config struct {
	MaxTextLen int
}

type CreateResult struct {
	Comment       model.Comment
	Verdict       enums.Verdict
	RecordID      string
	PendingReview bool
}

// Service is the comment-creation use case. Text goes through the
// moderation engine before anything is persisted; an engine failure
// means the comment is not created.
type Service struct {
	comments  CommentStore
	moments   MomentStore
	moderator Moderator
	limiter   SubmissionLimiter
	strikes   StrikeLedger
	cfg       Config
	newID     func() string
	now       func() time.Time
}

func NewService(deps Dependencies, cfg Config) *Service {
	if cfg.MaxTextLen <= 0 {
		cfg.MaxTextLen = 2000
	}

	return &Service{
		comments:  deps.Comments,
		moments:   deps.Moments,
		moderator: deps.Moderator,
		cfg:       cfg,
		newID:     uuid.NewString,
		now:       time.Now,
	}
}

func (s *Service) AttachRateLimiter(limiter SubmissionLimiter) {
	s.limiter = limiter
}

func (s *Service) AttachStrikes(strikes StrikeLedger) {
	s.strikes = strikes
}

func (s *Service) Create(ctx context.Context, authorID, momentID, parentCommentID, text string) (CreateResult, error) {
	if strings.TrimSpace(authorID) == "" || strings.TrimSpace(momentID) == "" {
		return CreateResult{}, ErrValidation
	}
	text = strings.TrimSpace(text)
	if text == "" || len([]rune(text)) > s.cfg.MaxTextLen {
		return CreateResult{}, ErrValidation
	}
	if s.comments == nil || s.moments == nil || s.moderator == nil {
		return CreateResult{}, fmt.Errorf("comments service dependencies are not configured")
	}

	moment, err := s.moments.GetByID(ctx, momentID)
	if err != nil {
		return CreateResult{}, ErrMomentNotFound
	}
	if !moment.Visible {
		return CreateResult{}, ErrMomentNotFound
	}

	now := s.now().UTC()

	if s.strikes != nil {
		retryAfter, allowed, err := s.strikes.Gate(ctx, authorID, now)
		if err != nil {
			return CreateResult{}, err
		}
		if !allowed {
			return CreateResult{}, &TooFastError{RetryAfterSec: retryAfter}
		}
	}

	if s.limiter != nil {
		retryAfter, allowed, err := s.limiter.AllowSubmission(ctx, authorID)
		if err != nil {
			return CreateResult{}, err
		}
		if !allowed {
			return CreateResult{}, &TooFastError{RetryAfterSec: retryAfter}
		}
	}

	commentID := s.newID()
	metadata := map[string]string{"moment_id": momentID}
	if parentCommentID != "" {
		metadata["parent_comment_id"] = parentCommentID
	}

	verdict, err := s.moderator.Moderate(ctx, model.ModerationRequest{
		ContentID:   commentID,
		ContentType: enums.ContentTypeComment,
		Text:        text,
		AuthorID:    authorID,
		Metadata:    metadata,
	})
	if err != nil {
		// Fail closed: no verdict, no comment.
		return CreateResult{}, err
	}

	if verdict.Decision.Verdict == enums.VerdictBlocked {
		if s.strikes != nil {
			if _, err := s.strikes.ApplyStrike(ctx, authorID, blockedStrikeWeight, now); err != nil {
				return CreateResult{}, err
			}
		}
		return CreateResult{
			Verdict:  verdict.Decision.Verdict,
			RecordID: verdict.RecordID,
		}, ErrContentBlocked
	}

	comment := model.Comment{
		ID:              commentID,
		MomentID:        momentID,
		AuthorID:        authorID,
		ParentCommentID: parentCommentID,
		Text:            text,
		Visible:         verdict.Decision.Verdict == enums.VerdictAllowed,
		CreatedAt:       now,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return CreateResult{}, err
	}

	return CreateResult{
		Comment:       comment,
		Verdict:       verdict.Decision.Verdict,
		RecordID:      verdict.RecordID,
		PendingReview: verdict.Decision.Verdict == enums.VerdictFlaggedForReview,
	}, nil
}

func (s *Service) ListByMoment(ctx context.Context, momentID string, limit int) ([]model.Comment, error) {
	if strings.TrimSpace(momentID) == "" {
		return nil, ErrValidation
	}
	if s.comments == nil {
		return nil, fmt.Errorf("comments service dependencies are not configured")
	}

	return s.comments.ListVisibleByMoment(ctx, momentID, limit)
}
