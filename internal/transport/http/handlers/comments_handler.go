package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	authsvc "github.com/Circle-Company/Circle-System-2.0-sub002/internal/services/auth"
	commentsvc "github.com/Circle-Company/Circle-System-2.0-sub002/internal/services/comments"
	modsvc "github.com/Circle-Company/Circle-System-2.0-sub002/internal/services/moderation"
	"github.com/Circle-Company/Circle-System-2.0-sub002/internal/transport/http/dto"
	httperrors "github.com/Circle-Company/Circle-System-2.0-sub002/internal/transport/http/errors"
)

type CommentsHandler struct {
	service *commentsvc.Service
}

func NewCommentsHandler(service *commentsvc.Service) *CommentsHandler {
	return &CommentsHandler{service: service}
}

func (h *CommentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "COMMENTS_SERVICE_UNAVAILABLE", "comments service is unavailable")
		return
	}

	var req dto.CreateCommentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	result, err := h.service.Create(r.Context(), identity.UserID, req.MomentID, req.ParentCommentID, req.Text)
	if err != nil {
		handleCommentError(w, err)
		return
	}

	httperrors.Write(w, http.StatusCreated, dto.CreateCommentResponse{
		Comment:       mapComment(result.Comment),
		Verdict:       string(result.Verdict),
		PendingReview: result.PendingReview,
	})
}

func (h *CommentsHandler) ListByMoment(w http.ResponseWriter, r *http.Request) {
	if _, ok := authsvc.IdentityFromContext(r.Context()); !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "COMMENTS_SERVICE_UNAVAILABLE", "comments service is unavailable")
		return
	}

	momentID := strings.TrimSpace(chi.URLParam(r, "momentID"))
	if momentID == "" {
		writeBadRequest(w, "VALIDATION_ERROR", "moment id is required")
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

	comments, err := h.service.ListByMoment(r.Context(), momentID, limit)
	if err != nil {
		handleCommentError(w, err)
		return
	}

	items := make([]dto.CommentResponse, 0, len(comments))
	for _, comment := range comments {
		items = append(items, mapComment(comment))
	}

	httperrors.Write(w, http.StatusOK, dto.CommentListResponse{Items: items})
}

func handleCommentError(w http.ResponseWriter, err error) {
	var tooFast *commentsvc.TooFastError
	switch {
	case errors.Is(err, commentsvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", "invalid comment request")
	case errors.Is(err, commentsvc.ErrMomentNotFound):
		writeNotFound(w, "MOMENT_NOT_FOUND", "moment not found")
	case errors.Is(err, commentsvc.ErrContentBlocked):
		writeUnprocessable(w, "CONTENT_BLOCKED", "comment rejected by content policy")
	case errors.Is(err, modsvc.ErrDuplicateContent):
		writeConflict(w, "DUPLICATE_CONTENT", "content was already moderated")
	case errors.As(err, &tooFast):
		httperrors.Write(w, http.StatusTooManyRequests, httperrors.RateLimitError{
			Code:          "TOO_FAST",
			Message:       "too many submissions, slow down",
			RetryAfterSec: tooFast.RetryAfterSec,
		})
	default:
		writeInternal(w, "INTERNAL_ERROR", "failed to process comment")
	}
}
