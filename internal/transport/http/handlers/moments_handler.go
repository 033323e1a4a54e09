package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	authsvc "github.com/Circle-Company/Circle-System-2.0-sub002/internal/services/auth"
	modsvc "github.com/Circle-Company/Circle-System-2.0-sub002/internal/services/moderation"
	momentsvc "github.com/Circle-Company/Circle-System-2.0-sub002/internal/services/moments"
	"github.com/Circle-Company/Circle-System-2.0-sub002/internal/transport/http/dto"
	httperrors "github.com/Circle-Company/Circle-System-2.0-sub002/internal/transport/http/errors"
)

type MomentsHandler struct {
	service *momentsvc.Service
}

func NewMomentsHandler(service *momentsvc.Service) *MomentsHandler {
	return &MomentsHandler{service: service}
}

func (h *MomentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "MOMENTS_SERVICE_UNAVAILABLE", "moments service is unavailable")
		return
	}

	var req dto.CreateMomentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	result, err := h.service.Create(r.Context(), identity.UserID, req.Description, req.VideoKey)
	if err != nil {
		handleMomentError(w, err)
		return
	}

	httperrors.Write(w, http.StatusCreated, dto.CreateMomentResponse{
		Moment:        mapMoment(result.Moment),
		Verdict:       string(result.Verdict),
		PendingReview: result.PendingReview,
	})
}

func (h *MomentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	if _, ok := authsvc.IdentityFromContext(r.Context()); !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "MOMENTS_SERVICE_UNAVAILABLE", "moments service is unavailable")
		return
	}

	momentID := strings.TrimSpace(chi.URLParam(r, "momentID"))
	if momentID == "" {
		writeBadRequest(w, "VALIDATION_ERROR", "moment id is required")
		return
	}

	moment, err := h.service.Get(r.Context(), momentID)
	if err != nil {
		writeNotFound(w, "MOMENT_NOT_FOUND", "moment not found")
		return
	}

	httperrors.Write(w, http.StatusOK, mapMoment(moment))
}

func handleMomentError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, momentsvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", "invalid moment request")
	case errors.Is(err, momentsvc.ErrContentBlocked):
		writeUnprocessable(w, "CONTENT_BLOCKED", "moment description rejected by content policy")
	case errors.Is(err, modsvc.ErrDuplicateContent):
		writeConflict(w, "DUPLICATE_CONTENT", "content was already moderated")
	default:
		writeInternal(w, "INTERNAL_ERROR", "failed to create moment")
	}
}
