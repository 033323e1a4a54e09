package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Circle-Company/Circle-System-2.0-sub002/internal/domain/enums"
	modsvc "github.com/Circle-Company/Circle-System-2.0-sub002/internal/services/moderation"
	reviewsvc "github.com/Circle-Company/Circle-System-2.0-sub002/internal/services/review"
	"github.com/Circle-Company/Circle-System-2.0-sub002/internal/transport/http/dto"
	httperrors "github.com/Circle-Company/Circle-System-2.0-sub002/internal/transport/http/errors"
)

type ReviewHandler struct {
	service *reviewsvc.Service
	engine  *modsvc.Engine
}

func NewReviewHandler(service *reviewsvc.Service, engine *modsvc.Engine) *ReviewHandler {
	return &ReviewHandler{service: service, engine: engine}
}

func (h *ReviewHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "REVIEW_SERVICE_UNAVAILABLE", "review service is unavailable")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeBadRequest(w, "VALIDATION_ERROR", "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}

	records, err := h.service.ListPending(r.Context(), limit)
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to load review queue")
		return
	}

	items := make([]dto.ModerationRecordResponse, 0, len(records))
	for _, record := range records {
		items = append(items, mapModerationRecord(record))
	}

	httperrors.Write(w, http.StatusOK, dto.PendingReviewListResponse{Items: items})
}

func (h *ReviewHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "REVIEW_SERVICE_UNAVAILABLE", "review service is unavailable")
		return
	}

	contentID := strings.TrimSpace(chi.URLParam(r, "contentID"))
	if contentID == "" {
		writeBadRequest(w, "VALIDATION_ERROR", "content id is required")
		return
	}

	var req dto.ResolveReviewRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	record, err := h.service.Resolve(r.Context(), contentID, enums.ReviewStatus(strings.ToUpper(strings.TrimSpace(req.Resolution))))
	if err != nil {
		switch {
		case errors.Is(err, reviewsvc.ErrInvalidResolution):
			writeBadRequest(w, "VALIDATION_ERROR", "resolution must be UPHELD or OVERTURNED")
		case errors.Is(err, reviewsvc.ErrInvalidTransition):
			writeConflict(w, "INVALID_TRANSITION", "record is not pending human review")
		case errors.Is(err, modsvc.ErrRecordNotFound):
			writeNotFound(w, "RECORD_NOT_FOUND", "no moderation record for this content")
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to resolve review")
		}
		return
	}

	httperrors.Write(w, http.StatusOK, mapModerationRecord(record))
}

// Erase removes a moderation record and its archived text, for
// compliance deletion requests.
func (h *ReviewHandler) Erase(w http.ResponseWriter, r *http.Request) {
	if h.engine == nil {
		writeInternal(w, "MODERATION_SERVICE_UNAVAILABLE", "moderation service is unavailable")
		return
	}

	contentID := strings.TrimSpace(chi.URLParam(r, "contentID"))
	if contentID == "" {
		writeBadRequest(w, "VALIDATION_ERROR", "content id is required")
		return
	}

	if err := h.engine.Erase(r.Context(), contentID); err != nil {
		if errors.Is(err, modsvc.ErrRecordNotFound) {
			writeNotFound(w, "RECORD_NOT_FOUND", "no moderation record for this content")
			return
		}
		writeInternal(w, "INTERNAL_ERROR", "failed to erase moderation record")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.EraseResponse{OK: true})
}
