package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/Circle-Company/Circle-System-2.0-sub002/internal/domain/model"
	"github.com/Circle-Company/Circle-System-2.0-sub002/internal/transport/http/dto"
	httperrors "github.com/Circle-Company/Circle-System-2.0-sub002/internal/transport/http/errors"
)

func decodeJSON(r *http.Request, target any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

func writeBadRequest(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusBadRequest, httperrors.APIError{Code: code, Message: message})
}

func writeUnauthorized(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusUnauthorized, httperrors.APIError{Code: code, Message: message})
}

func writeForbidden(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusForbidden, httperrors.APIError{Code: code, Message: message})
}

func writeNotFound(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusNotFound, httperrors.APIError{Code: code, Message: message})
}

func writeConflict(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusConflict, httperrors.APIError{Code: code, Message: message})
}

func writeUnprocessable(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusUnprocessableEntity, httperrors.APIError{Code: code, Message: message})
}

func writeInternal(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusInternalServerError, httperrors.APIError{Code: code, Message: message})
}

func mapComment(comment model.Comment) dto.CommentResponse {
	return dto.CommentResponse{
		ID:              comment.ID,
		MomentID:        comment.MomentID,
		AuthorID:        comment.AuthorID,
		ParentCommentID: comment.ParentCommentID,
		Text:            comment.Text,
		Visible:         comment.Visible,
		CreatedAt:       comment.CreatedAt,
	}
}

func mapMoment(moment model.Moment) dto.MomentResponse {
	return dto.MomentResponse{
		ID:          moment.ID,
		AuthorID:    moment.AuthorID,
		Description: moment.Description,
		VideoKey:    moment.VideoKey,
		Visible:     moment.Visible,
		CreatedAt:   moment.CreatedAt,
	}
}

func mapModerationStatus(record model.ModerationRecord) dto.ModerationStatusResponse {
	return dto.ModerationStatusResponse{
		ContentID:     record.ContentID,
		ContentType:   string(record.ContentType),
		Verdict:       string(record.Decision.Verdict),
		Reason:        record.Decision.Reason,
		PolicyVersion: record.Decision.AppliedPolicyVersion,
		ReviewStatus:  string(record.ReviewStatus),
		CreatedAt:     record.CreatedAt,
		UpdatedAt:     record.UpdatedAt,
	}
}

func mapModerationRecord(record model.ModerationRecord) dto.ModerationRecordResponse {
	categories := make([]dto.CategoryScoreResponse, 0, len(record.Detection.Categories))
	for _, score := range record.Detection.Categories {
		categories = append(categories, dto.CategoryScoreResponse{
			Category: score.Category,
			Score:    score.Score,
		})
	}

	return dto.ModerationRecordResponse{
		ModerationStatusResponse: mapModerationStatus(record),
		AuthorID:                 record.AuthorID,
		DetectorVersion:          record.Detection.DetectorVersion,
		MaxScore:                 record.Detection.MaxScore,
		Categories:               categories,
	}
}
