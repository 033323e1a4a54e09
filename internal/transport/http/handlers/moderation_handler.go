package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	authsvc "github.com/Circle-Company/Circle-System-2.0-sub002/internal/services/auth"
	modsvc "github.com/Circle-Company/Circle-System-2.0-sub002/internal/services/moderation"
	httperrors "github.com/Circle-Company/Circle-System-2.0-sub002/internal/transport/http/errors"
)

type ModerationHandler struct {
	engine *modsvc.Engine
}

func NewModerationHandler(engine *modsvc.Engine) *ModerationHandler {
	return &ModerationHandler{engine: engine}
}

// Status returns the moderation outcome for a piece of content. Authors
// see their own records; moderators see everyone's.
func (h *ModerationHandler) Status(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.engine == nil {
		writeInternal(w, "MODERATION_SERVICE_UNAVAILABLE", "moderation service is unavailable")
		return
	}

	contentID := strings.TrimSpace(chi.URLParam(r, "contentID"))
	if contentID == "" {
		writeBadRequest(w, "VALIDATION_ERROR", "content id is required")
		return
	}

	record, err := h.engine.Lookup(r.Context(), contentID)
	if err != nil {
		if errors.Is(err, modsvc.ErrRecordNotFound) {
			writeNotFound(w, "RECORD_NOT_FOUND", "no moderation record for this content")
			return
		}
		writeInternal(w, "INTERNAL_ERROR", "failed to load moderation record")
		return
	}

	if record.AuthorID != identity.UserID && !isModerator(identity.Role) {
		writeForbidden(w, "FORBIDDEN", "not allowed to view this record")
		return
	}

	if isModerator(identity.Role) {
		httperrors.Write(w, http.StatusOK, mapModerationRecord(record))
		return
	}

	httperrors.Write(w, http.StatusOK, mapModerationStatus(record))
}

func isModerator(role string) bool {
	return role == authsvc.RoleModerator || role == authsvc.RoleAdmin
}
