package dto

import "time"

type CreateMomentRequest struct {
	Description string `json:"description"`
	VideoKey    string `json:"video_key"`
}

type MomentResponse struct {
	ID          string    `json:"id"`
	AuthorID    string    `json:"author_id"`
	Description string    `json:"description"`
	VideoKey    string    `json:"video_key"`
	Visible     bool      `json:"visible"`
	CreatedAt   time.Time `json:"created_at"`
}

type CreateMomentResponse struct {
	Moment        MomentResponse `json:"moment"`
	Verdict       string         `json:"verdict"`
	PendingReview bool           `json:"pending_review"`
}
