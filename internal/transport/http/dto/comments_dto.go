package dto

import "time"

type CreateCommentRequest struct {
	MomentID        string `json:"moment_id"`
	ParentCommentID string `json:"parent_comment_id,omitempty"`
	Text            string `json:"text"`
}

type CommentResponse struct {
	ID              string    `json:"id"`
	MomentID        string    `json:"moment_id"`
	AuthorID        string    `json:"author_id"`
	ParentCommentID string    `json:"parent_comment_id,omitempty"`
	Text            string    `json:"text"`
	Visible         bool      `json:"visible"`
	CreatedAt       time.Time `json:"created_at"`
}

type CreateCommentResponse struct {
	Comment       CommentResponse `json:"comment"`
	Verdict       string          `json:"verdict"`
	PendingReview bool            `json:"pending_review"`
}

type CommentListResponse struct {
	Items []CommentResponse `json:"items"`
}
