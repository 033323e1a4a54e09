package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Circle-Company/Circle-System-2.0-sub002/internal/domain/model"
	authsvc "github.com/Circle-Company/Circle-System-2.0-sub002/internal/services/auth"
	modsvc "github.com/Circle-Company/Circle-System-2.0-sub002/internal/services/moderation"
	momentsvc "github.com/Circle-Company/Circle-System-2.0-sub002/internal/services/moments"
	"github.com/Circle-Company/Circle-System-2.0-sub002/internal/transport/http/dto"
)

type momentRepoStub struct {
	moments map[string]model.Moment
}

func (s *momentRepoStub) Create(_ context.Context, moment model.Moment) error {
	s.moments[moment.ID] = moment
	return nil
}

func (s *momentRepoStub) GetByID(_ context.Context, momentID string) (model.Moment, error) {
	moment, ok := s.moments[momentID]
	if !ok {
		return model.Moment{}, fmt.Errorf("moment not found")
	}
	return moment, nil
}

func (s *momentRepoStub) SetVisible(_ context.Context, momentID string, visible bool) error {
	moment, ok := s.moments[momentID]
	if !ok {
		return fmt.Errorf("moment not found")
	}
	moment.Visible = visible
	s.moments[momentID] = moment
	return nil
}

func newMomentsHandler(t *testing.T) *MomentsHandler {
	t.Helper()

	store := &momentRepoStub{moments: make(map[string]model.Moment)}
	service := momentsvc.NewService(store, testEngine(t), momentsvc.Config{})
	return NewMomentsHandler(service)
}

func TestCreateMomentAllowed(t *testing.T) {
	handler := newMomentsHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/moments", strings.NewReader(`{"description":"sunset run","video_key":"v1.mp4"}`))
	req = asUser(req, "u1", authsvc.RoleUser)
	rr := httptest.NewRecorder()

	handler.Create(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("unexpected status: got %d want %d (body %s)", rr.Code, http.StatusCreated, rr.Body.String())
	}

	var res dto.CreateMomentResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &res); err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if !res.Moment.Visible {
		t.Fatalf("allowed moment should be visible")
	}
}

func TestCreateMomentBlockedDescription(t *testing.T) {
	handler := newMomentsHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/moments", strings.NewReader(`{"description":"buy cheap followers now","video_key":"v1.mp4"}`))
	req = asUser(req, "u1", authsvc.RoleUser)
	rr := httptest.NewRecorder()

	handler.Create(rr, req)

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("unexpected status: got %d want %d (body %s)", rr.Code, http.StatusUnprocessableEntity, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), "CONTENT_BLOCKED") {
		t.Fatalf("unexpected body: %s", rr.Body.String())
	}
}

func TestMomentErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"validation", momentsvc.ErrValidation, http.StatusBadRequest},
		{"blocked", momentsvc.ErrContentBlocked, http.StatusUnprocessableEntity},
		{"duplicate moderation", fmt.Errorf("moderate description: %w", modsvc.ErrDuplicateContent), http.StatusConflict},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			handleMomentError(rr, tc.err)
			if rr.Code != tc.code {
				t.Fatalf("unexpected status: got %d want %d", rr.Code, tc.code)
			}
		})
	}
}
