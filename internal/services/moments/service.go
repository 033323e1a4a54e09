package moments

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
	ErrContentBlocked = errors.New("moment description blocked by content policy")
)

type Moderator interface {
	Moderate(ctx context.Context, req model.ModerationRequest) (model.ModerationVerdict, error)
}

type MomentStore interface {
	Create(ctx context.Context, moment model.Moment) error
	GetByID(ctx context.Context, momentID string) (model.Moment, error)
	SetVisible(ctx context.Context, momentID string, visible bool) error
}

type StrikeLedger interface {
	ApplyStrike(ctx context.Context, authorID string, weight int, now time.Time) (strikesvc.State, error)
}

type Config struct {
	MaxDescriptionLen int
}

type CreateResult struct {
	Moment        model.Moment
	Verdict       enums.Verdict
	RecordID      string
	PendingReview bool
}

// Service is the moment-publication use case. Only the description text
// is moderated here; the video object is uploaded separately and its
// key is attached as-is.
type Service struct {
	moments   MomentStore
	moderator Moderator
	strikes   StrikeLedger
	cfg       Config
	newID     func() string
	now       func() time.Time
}

func NewService(moments MomentStore, moderator Moderator, cfg Config) *Service {
	if cfg.MaxDescriptionLen <= 0 {
		cfg.MaxDescriptionLen = 1000
	}

	return &Service{
		moments:   moments,
		moderator: moderator,
		cfg:       cfg,
		newID:     uuid.NewString,
		now:       time.Now,
	}
}

// AttachStrikes is optional. A nil ledger means blocked moments carry no
// repeat-offender penalty.
func (s *Service) AttachStrikes(ledger StrikeLedger) {
	s.strikes = ledger
}

func (s *Service) Create(ctx context.Context, authorID, description, videoKey string) (CreateResult, error) {
	if strings.TrimSpace(authorID) == "" || strings.TrimSpace(videoKey) == "" {
		return CreateResult{}, ErrValidation
	}
	description = strings.TrimSpace(description)
	if len([]rune(description)) > s.cfg.MaxDescriptionLen {
		return CreateResult{}, ErrValidation
	}
	if s.moments == nil || s.moderator == nil {
		return CreateResult{}, fmt.Errorf("moments service dependencies are not configured")
	}

	momentID := s.newID()
	verdict := enums.VerdictAllowed
	recordID := ""

	// An empty description has nothing to moderate.
	if description != "" {
		result, err := s.moderator.Moderate(ctx, model.ModerationRequest{
			ContentID:   momentID,
			ContentType: enums.ContentTypeMomentDescription,
			Text:        description,
			AuthorID:    authorID,
		})
		if err != nil {
			return CreateResult{}, err
		}
		verdict = result.Decision.Verdict
		recordID = result.RecordID
	}

	if verdict == enums.VerdictBlocked {
		if s.strikes != nil {
			if _, err := s.strikes.ApplyStrike(ctx, authorID, blockedStrikeWeight, s.now().UTC()); err != nil {
				return CreateResult{}, err
			}
		}
		return CreateResult{
			Verdict:  verdict,
			RecordID: recordID,
		}, ErrContentBlocked
	}

	moment := model.Moment{
		ID:          momentID,
		AuthorID:    authorID,
		Description: description,
		VideoKey:    videoKey,
		Visible:     verdict == enums.VerdictAllowed,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.moments.Create(ctx, moment); err != nil {
		return CreateResult{}, err
	}

	return CreateResult{
		Moment:        moment,
		Verdict:       verdict,
		RecordID:      recordID,
		PendingReview: verdict == enums.VerdictFlaggedForReview,
	}, nil
}

func (s *Service) Get(ctx context.Context, momentID string) (model.Moment, error) {
	if strings.TrimSpace(momentID) == "" {
		return model.Moment{}, ErrValidation
	}
	if s.moments == nil {
		return model.Moment{}, fmt.Errorf("moments service dependencies are not configured")
	}

	return s.moments.GetByID(ctx, momentID)
}
