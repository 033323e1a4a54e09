package model

import "time"

type Comment struct {
	ID              string    `json:"id"`
	MomentID        string    `json:"moment_id"`
	AuthorID        string    `json:"author_id"`
	ParentCommentID string    `json:"parent_comment_id,omitempty"`
	Text            string    `json:"text"`
	Visible         bool      `json:"visible"`
	CreatedAt       time.Time `json:"created_at"`
}
