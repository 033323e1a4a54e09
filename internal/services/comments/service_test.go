package comments

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Circle-Company/Circle-System-2.0-sub002/internal/domain/enums"
	"github.com/Circle-Company/Circle-System-2.0-sub002/internal/domain/model"
	memrepo "github.com/Circle-Company/Circle-System-2.0-sub002/internal/repo/memory"
	modsvc "github.com/Circle-Company/Circle-System-2.0-sub002/internal/services/moderation"
	strikesvc "github.com/Circle-Company/Circle-System-2.0-sub002/internal/services/strikes"
)

type commentStoreStub struct {
	comments  map[string]model.Comment
	createErr error
}

func newCommentStoreStub() *commentStoreStub {
	return &commentStoreStub{comments: make(map[string]model.Comment)}
}

func (s *commentStoreStub) Create(_ context.Context, comment model.Comment) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.comments[comment.ID] = comment
	return nil
}

func (s *commentStoreStub) SetVisible(_ context.Context, commentID string, visible bool) error {
	comment, ok := s.comments[commentID]
	if !ok {
		return fmt.Errorf("comment not found")
	}
	comment.Visible = visible
	s.comments[commentID] = comment
	return nil
}

func (s *commentStoreStub) ListVisibleByMoment(_ context.Context, momentID string, _ int) ([]model.Comment, error) {
	items := make([]model.Comment, 0)
	for _, comment := range s.comments {
		if comment.MomentID == momentID && comment.Visible {
			items = append(items, comment)
		}
	}
	return items, nil
}

type momentStoreStub struct {
	moments map[string]model.Moment
}

func newMomentStoreStub() *momentStoreStub {
	return &momentStoreStub{moments: map[string]model.Moment{
		"m1": {ID: "m1", AuthorID: "u-owner", Visible: true},
		"m2": {ID: "m2", AuthorID: "u-owner", Visible: false},
	}}
}

func (s *momentStoreStub) GetByID(_ context.Context, momentID string) (model.Moment, error) {
	moment, ok := s.moments[momentID]
	if !ok {
		return model.Moment{}, fmt.Errorf("moment not found")
	}
	return moment, nil
}

type strikesStub struct {
	gateRetry int64
	strikes   int
}

func (s *strikesStub) Gate(_ context.Context, _ string, _ time.Time) (int64, bool, error) {
	if s.gateRetry > 0 {
		return s.gateRetry, false, nil
	}
	return 0, true, nil
}

func (s *strikesStub) ApplyStrike(_ context.Context, _ string, weight int, _ time.Time) (strikesvc.State, error) {
	s.strikes += weight
	return strikesvc.State{RiskScore: s.strikes, Exists: true}, nil
}

type limiterStub struct {
	retry int64
}

func (s *limiterStub) AllowSubmission(_ context.Context, _ string) (int64, bool, error) {
	if s.retry > 0 {
		return s.retry, false, nil
	}
	return 0, true, nil
}

func moderationPolicy() modsvc.Config {
	return modsvc.Config{
		Version:    "test-1",
		MaxTextLen: 2000,
		Categories: []modsvc.CategoryConfig{
			{
				Name:            "spam",
				ReviewThreshold: 0.4,
				BlockThreshold:  0.6,
				Phrases:         []string{"buy cheap followers"},
			},
			{
				Name:            "borderline",
				ReviewThreshold: 0.3,
				BlockThreshold:  0.7,
				ScoreExprs:      []string{`text contains "borderline phrase" ? 0.45 : 0.0`},
			},
		},
	}
}

func newTestService(t *testing.T) (*Service, *commentStoreStub, *modsvc.Engine) {
	t.Helper()

	engine, err := modsvc.NewEngine(moderationPolicy(), memrepo.NewModerationRepo(), memrepo.NewArchive())
	if err != nil {
		t.Fatalf("create engine: %v", err)
	}

	store := newCommentStoreStub()
	service := NewService(Dependencies{
		Comments:  store,
		Moments:   newMomentStoreStub(),
		Moderator: engine,
	}, Config{MaxTextLen: 2000})

	return service, store, engine
}

func TestCreateAllowedCommentIsVisible(t *testing.T) {
	service, store, _ := newTestService(t)

	result, err := service.Create(context.Background(), "u-1", "m1", "", "great video!")
	if err != nil {
		t.Fatalf("create comment: %v", err)
	}
	if result.Verdict != enums.VerdictAllowed {
		t.Fatalf("unexpected verdict: %s", result.Verdict)
	}
	if result.PendingReview {
		t.Fatalf("allowed comment must not await review")
	}

	stored, ok := store.comments[result.Comment.ID]
	if !ok {
		t.Fatalf("comment was not persisted")
	}
	if !stored.Visible {
		t.Fatalf("allowed comment must be visible")
	}
}

func TestCreateBlockedCommentIsRejectedAndStruck(t *testing.T) {
	service, store, _ := newTestService(t)
	strikes := &strikesStub{}
	service.AttachStrikes(strikes)

	result, err := service.Create(context.Background(), "u-1", "m1", "", "buy cheap followers now!!!")
	if !errors.Is(err, ErrContentBlocked) {
		t.Fatalf("expected ErrContentBlocked, got %v", err)
	}
	if result.Verdict != enums.VerdictBlocked {
		t.Fatalf("unexpected verdict: %s", result.Verdict)
	}
	if result.RecordID == "" {
		t.Fatalf("blocked result must reference the moderation record")
	}
	if len(store.comments) != 0 {
		t.Fatalf("blocked comment must not be persisted")
	}
	if strikes.strikes != 1 {
		t.Fatalf("expected one strike, got %d", strikes.strikes)
	}
}

func TestCreateFlaggedCommentIsHidden(t *testing.T) {
	service, store, _ := newTestService(t)

	result, err := service.Create(context.Background(), "u-1", "m1", "", "a borderline phrase about nothing")
	if err != nil {
		t.Fatalf("create comment: %v", err)
	}
	if result.Verdict != enums.VerdictFlaggedForReview {
		t.Fatalf("unexpected verdict: %s", result.Verdict)
	}
	if !result.PendingReview {
		t.Fatalf("flagged comment must await review")
	}

	stored := store.comments[result.Comment.ID]
	if stored.Visible {
		t.Fatalf("flagged comment must be hidden until review")
	}
}

func TestCreateFailsClosedOnEngineError(t *testing.T) {
	engine, err := modsvc.NewEngine(moderationPolicy(), failingRepo{}, memrepo.NewArchive())
	if err != nil {
		t.Fatalf("create engine: %v", err)
	}

	store := newCommentStoreStub()
	service := NewService(Dependencies{
		Comments:  store,
		Moments:   newMomentStoreStub(),
		Moderator: engine,
	}, Config{})

	_, err = service.Create(context.Background(), "u-1", "m1", "", "great video!")
	var repoErr *modsvc.RepositoryError
	if !errors.As(err, &repoErr) {
		t.Fatalf("expected RepositoryError, got %v", err)
	}
	if len(store.comments) != 0 {
		t.Fatalf("comment must not be persisted when moderation fails")
	}
}

func TestCreateRejectedByGates(t *testing.T) {
	service, _, _ := newTestService(t)
	service.AttachStrikes(&strikesStub{gateRetry: 120})

	_, err := service.Create(context.Background(), "u-1", "m1", "", "great video!")
	var tooFast *TooFastError
	if !errors.As(err, &tooFast) {
		t.Fatalf("expected TooFastError, got %v", err)
	}
	if tooFast.RetryAfterSec != 120 {
		t.Fatalf("unexpected retry_after: %d", tooFast.RetryAfterSec)
	}

	service, _, _ = newTestService(t)
	service.AttachRateLimiter(&limiterStub{retry: 7})

	_, err = service.Create(context.Background(), "u-1", "m1", "", "great video!")
	if !errors.As(err, &tooFast) {
		t.Fatalf("expected TooFastError from limiter, got %v", err)
	}
	if tooFast.RetryAfterSec != 7 {
		t.Fatalf("unexpected retry_after: %d", tooFast.RetryAfterSec)
	}
}

func TestCreateValidations(t *testing.T) {
	service, _, _ := newTestService(t)
	ctx := context.Background()

	if _, err := service.Create(ctx, "", "m1", "", "hi"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for missing author, got %v", err)
	}
	if _, err := service.Create(ctx, "u-1", "m1", "", "   "); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for empty text, got %v", err)
	}
	if _, err := service.Create(ctx, "u-1", "missing", "", "hi"); !errors.Is(err, ErrMomentNotFound) {
		t.Fatalf("expected ErrMomentNotFound, got %v", err)
	}
	if _, err := service.Create(ctx, "u-1", "m2", "", "hi"); !errors.Is(err, ErrMomentNotFound) {
		t.Fatalf("expected ErrMomentNotFound for hidden moment, got %v", err)
	}
}

type failingRepo struct{}

func (failingRepo) Save(_ context.Context, _ model.ModerationRecord) error {
	return fmt.Errorf("connection refused")
}

func (failingRepo) GetByContentID(_ context.Context, _ string) (model.ModerationRecord, error) {
	return model.ModerationRecord{}, fmt.Errorf("connection refused")
}

func (failingRepo) UpdateReviewStatus(_ context.Context, _ string, _ enums.ReviewStatus) (model.ModerationRecord, error) {
	return model.ModerationRecord{}, fmt.Errorf("connection refused")
}

func (failingRepo) Delete(_ context.Context, _ string) error {
	return fmt.Errorf("connection refused")
}

func (failingRepo) ListAllowedBefore(_ context.Context, _ time.Time, _ int) ([]model.ModerationRecord, error) {
	return nil, fmt.Errorf("connection refused")
}
