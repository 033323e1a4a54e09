package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Circle-Company/Circle-System-2.0-sub002/internal/domain/enums"
	"github.com/Circle-Company/Circle-System-2.0-sub002/internal/domain/model"
	memrepo "github.com/Circle-Company/Circle-System-2.0-sub002/internal/repo/memory"
	modsvc "github.com/Circle-Company/Circle-System-2.0-sub002/internal/services/moderation"
	reviewsvc "github.com/Circle-Company/Circle-System-2.0-sub002/internal/services/review"
	"github.com/Circle-Company/Circle-System-2.0-sub002/internal/transport/http/dto"
)

func seedPendingRecord(t *testing.T, repo *memrepo.ModerationRepo, contentID string) {
	t.Helper()

	record := model.ModerationRecord{
		ID:          "rec-" + contentID,
		ContentID:   contentID,
		ContentType: enums.ContentTypeComment,
		AuthorID:    "u1",
		Decision: model.ModerationDecision{
			Verdict:              enums.VerdictFlaggedForReview,
			Reason:               `category "spam" scored 0.45`,
			AppliedPolicyVersion: "test-1",
		},
		Detection: model.DetectionResult{
			Categories:      []model.CategoryScore{{Category: "spam", Score: 0.45}},
			MaxScore:        0.45,
			DetectorVersion: "lexical-v1@test-1",
		},
		ReviewStatus: enums.ReviewStatusPending,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
	if err := repo.Save(context.Background(), record); err != nil {
		t.Fatalf("unexpected save error: %v", err)
	}
}

func TestListPendingReviews(t *testing.T) {
	repo := memrepo.NewModerationRepo()
	seedPendingRecord(t, repo, "c1")
	handler := NewReviewHandler(reviewsvc.NewService(repo), nil)

	req := httptest.NewRequest(http.MethodGet, "/admin/review/pending", nil)
	rr := httptest.NewRecorder()

	handler.ListPending(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusOK)
	}

	var res dto.PendingReviewListResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &res); err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if len(res.Items) != 1 {
		t.Fatalf("unexpected item count: got %d want 1", len(res.Items))
	}
	if len(res.Items[0].Categories) != 1 || res.Items[0].Categories[0].Category != "spam" {
		t.Fatalf("moderator view should include category scores: %+v", res.Items[0])
	}
}

func TestResolveReviewOverturned(t *testing.T) {
	repo := memrepo.NewModerationRepo()
	seedPendingRecord(t, repo, "c1")
	handler := NewReviewHandler(reviewsvc.NewService(repo), nil)

	req := httptest.NewRequest(http.MethodPost, "/admin/review/c1", strings.NewReader(`{"resolution":"overturned"}`))
	req = req.WithContext(withURLParam(req.Context(), "contentID", "c1"))
	rr := httptest.NewRecorder()

	handler.Resolve(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d (body %s)", rr.Code, http.StatusOK, rr.Body.String())
	}

	var res dto.ModerationRecordResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &res); err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if res.ReviewStatus != string(enums.ReviewStatusOverturned) {
		t.Fatalf("unexpected review status: %s", res.ReviewStatus)
	}
}

func TestResolveReviewConflictWhenNotPending(t *testing.T) {
	repo := memrepo.NewModerationRepo()
	seedPendingRecord(t, repo, "c1")
	handler := NewReviewHandler(reviewsvc.NewService(repo), nil)

	first := httptest.NewRequest(http.MethodPost, "/admin/review/c1", strings.NewReader(`{"resolution":"UPHELD"}`))
	first = first.WithContext(withURLParam(first.Context(), "contentID", "c1"))
	handler.Resolve(httptest.NewRecorder(), first)

	second := httptest.NewRequest(http.MethodPost, "/admin/review/c1", strings.NewReader(`{"resolution":"OVERTURNED"}`))
	second = second.WithContext(withURLParam(second.Context(), "contentID", "c1"))
	rr := httptest.NewRecorder()

	handler.Resolve(rr, second)

	if rr.Code != http.StatusConflict {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusConflict)
	}
}

func TestEraseRemovesRecord(t *testing.T) {
	repo := memrepo.NewModerationRepo()
	seedPendingRecord(t, repo, "c1")
	engine, err := modsvc.NewEngine(modsvc.Config{
		Version: "test-1",
		Categories: []modsvc.CategoryConfig{
			{Name: "spam", ReviewThreshold: 0.4, BlockThreshold: 0.6, Phrases: []string{"buy cheap followers"}},
		},
	}, repo, memrepo.NewArchive())
	if err != nil {
		t.Fatalf("unexpected engine error: %v", err)
	}
	handler := NewReviewHandler(reviewsvc.NewService(repo), engine)

	req := httptest.NewRequest(http.MethodDelete, "/admin/moderation/c1", nil)
	req = req.WithContext(withURLParam(req.Context(), "contentID", "c1"))
	rr := httptest.NewRecorder()

	handler.Erase(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d (body %s)", rr.Code, http.StatusOK, rr.Body.String())
	}
	if _, err := engine.Lookup(context.Background(), "c1"); err == nil {
		t.Fatalf("record should be erased")
	}
}
