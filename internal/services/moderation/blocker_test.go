package moderation

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Circle-Company/Circle-System-2.0-sub002/internal/domain/enums"
	"github.com/Circle-Company/Circle-System-2.0-sub002/internal/domain/model"
)

type repoStub struct {
	records map[string]model.ModerationRecord
	saveErr error
}

func newRepoStub() *repoStub {
	return &repoStub{records: make(map[string]model.ModerationRecord)}
}

func (s *repoStub) Save(_ context.Context, record model.ModerationRecord) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	if _, ok := s.records[record.ContentID]; ok {
		return ErrDuplicateContent
	}
	s.records[record.ContentID] = record
	return nil
}

func (s *repoStub) GetByContentID(_ context.Context, contentID string) (model.ModerationRecord, error) {
	record, ok := s.records[contentID]
	if !ok {
		return model.ModerationRecord{}, ErrRecordNotFound
	}
	return record, nil
}

func (s *repoStub) UpdateReviewStatus(_ context.Context, contentID string, status enums.ReviewStatus) (model.ModerationRecord, error) {
	record, ok := s.records[contentID]
	if !ok {
		return model.ModerationRecord{}, ErrRecordNotFound
	}
	record.ReviewStatus = status
	s.records[contentID] = record
	return record, nil
}

func (s *repoStub) Delete(_ context.Context, contentID string) error {
	delete(s.records, contentID)
	return nil
}

func (s *repoStub) ListAllowedBefore(_ context.Context, cutoff time.Time, _ int) ([]model.ModerationRecord, error) {
	items := make([]model.ModerationRecord, 0)
	for _, record := range s.records {
		if record.Decision.Verdict == enums.VerdictAllowed && record.CreatedAt.Before(cutoff) {
			items = append(items, record)
		}
	}
	return items, nil
}

func newTestBlocker(t *testing.T, repo Repository) *Blocker {
	t.Helper()

	policy, err := testPolicyConfig().Compile()
	if err != nil {
		t.Fatalf("compile test policy: %v", err)
	}
	return NewBlocker(repo, policy)
}

func TestDecideThresholds(t *testing.T) {
	blocker := newTestBlocker(t, newRepoStub())

	tests := []struct {
		name       string
		categories []model.CategoryScore
		want       enums.Verdict
	}{
		{name: "empty is allowed", categories: nil, want: enums.VerdictAllowed},
		{name: "below review is allowed", categories: []model.CategoryScore{
			{Category: "spam", Score: 0.3},
		}, want: enums.VerdictAllowed},
		{name: "between review and block is flagged", categories: []model.CategoryScore{
			{Category: "spam", Score: 0.5},
		}, want: enums.VerdictFlaggedForReview},
		{name: "at block threshold is blocked", categories: []model.CategoryScore{
			{Category: "spam", Score: 0.6},
		}, want: enums.VerdictBlocked},
		{name: "block beats flag", categories: []model.CategoryScore{
			{Category: "borderline", Score: 0.45},
			{Category: "spam", Score: 0.9},
		}, want: enums.VerdictBlocked},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision := blocker.Decide(model.DetectionResult{Categories: tt.categories})
			if decision.Verdict != tt.want {
				t.Fatalf("unexpected verdict: got %s want %s", decision.Verdict, tt.want)
			}
			if decision.AppliedPolicyVersion != "test-1" {
				t.Fatalf("unexpected policy version: %s", decision.AppliedPolicyVersion)
			}
			if tt.want == enums.VerdictAllowed && decision.Reason != "none" {
				t.Fatalf("allowed decision must cite no reason, got %q", decision.Reason)
			}
		})
	}
}

func TestDecideTieBreaksToSmallerName(t *testing.T) {
	blocker := newTestBlocker(t, newRepoStub())

	decision := blocker.Decide(model.DetectionResult{Categories: []model.CategoryScore{
		{Category: "spam", Score: 0.9},
		{Category: "profanity", Score: 0.9},
	}})
	if decision.Verdict != enums.VerdictBlocked {
		t.Fatalf("unexpected verdict: %s", decision.Verdict)
	}
	if decision.Reason != `category "profanity" scored 0.90` {
		t.Fatalf("unexpected reason: %q", decision.Reason)
	}
}

func TestDecidePrefersHigherScoreOverName(t *testing.T) {
	blocker := newTestBlocker(t, newRepoStub())

	decision := blocker.Decide(model.DetectionResult{Categories: []model.CategoryScore{
		{Category: "profanity", Score: 0.8},
		{Category: "spam", Score: 0.95},
	}})
	if decision.Reason != `category "spam" scored 0.95` {
		t.Fatalf("unexpected reason: %q", decision.Reason)
	}
}

func TestBlockPersistsRecord(t *testing.T) {
	repo := newRepoStub()
	blocker := newTestBlocker(t, repo)
	blocker.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

	req := model.ModerationRequest{
		ContentID:   "c-100",
		ContentType: enums.ContentTypeComment,
		Text:        "flag me",
		AuthorID:    "u-1",
	}
	decision := model.ModerationDecision{
		Verdict:              enums.VerdictFlaggedForReview,
		Reason:               `category "spam" scored 0.50`,
		AppliedPolicyVersion: "test-1",
	}

	record, err := blocker.Block(context.Background(), req, decision, model.DetectionResult{})
	if err != nil {
		t.Fatalf("block: %v", err)
	}
	if record.ID == "" {
		t.Fatalf("record id was not generated")
	}
	if record.ReviewStatus != enums.ReviewStatusPending {
		t.Fatalf("flagged record must start pending review, got %s", record.ReviewStatus)
	}
	if !record.CreatedAt.Equal(record.UpdatedAt) {
		t.Fatalf("created/updated timestamps differ on creation")
	}

	stored, err := repo.GetByContentID(context.Background(), "c-100")
	if err != nil {
		t.Fatalf("get stored record: %v", err)
	}
	if stored.ID != record.ID {
		t.Fatalf("stored record mismatch: got %s want %s", stored.ID, record.ID)
	}
}

func TestBlockSurfacesDuplicate(t *testing.T) {
	repo := newRepoStub()
	blocker := newTestBlocker(t, repo)

	req := model.ModerationRequest{
		ContentID:   "c-dup",
		ContentType: enums.ContentTypeComment,
		Text:        "x",
		AuthorID:    "u-1",
	}
	decision := model.ModerationDecision{Verdict: enums.VerdictAllowed, Reason: "none"}

	if _, err := blocker.Block(context.Background(), req, decision, model.DetectionResult{}); err != nil {
		t.Fatalf("first block: %v", err)
	}
	if _, err := blocker.Block(context.Background(), req, decision, model.DetectionResult{}); !errors.Is(err, ErrDuplicateContent) {
		t.Fatalf("expected ErrDuplicateContent, got %v", err)
	}
	if len(repo.records) != 1 {
		t.Fatalf("expected exactly one record, got %d", len(repo.records))
	}
}

func TestBlockWrapsRepositoryFailure(t *testing.T) {
	repo := newRepoStub()
	repo.saveErr = fmt.Errorf("connection refused")
	blocker := newTestBlocker(t, repo)

	req := model.ModerationRequest{
		ContentID:   "c-err",
		ContentType: enums.ContentTypeComment,
		Text:        "x",
		AuthorID:    "u-1",
	}

	_, err := blocker.Block(context.Background(), req, model.ModerationDecision{Verdict: enums.VerdictAllowed}, model.DetectionResult{})
	var repoErr *RepositoryError
	if !errors.As(err, &repoErr) {
		t.Fatalf("expected RepositoryError, got %v", err)
	}
	if repoErr.Op != "save" {
		t.Fatalf("unexpected op: %s", repoErr.Op)
	}
}
