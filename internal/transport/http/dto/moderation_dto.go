package dto

import "time"

type ModerationStatusResponse struct {
	ContentID     string    `json:"content_id"`
	ContentType   string    `json:"content_type"`
	Verdict       string    `json:"verdict"`
	Reason        string    `json:"reason"`
	PolicyVersion string    `json:"policy_version"`
	ReviewStatus  string    `json:"review_status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type CategoryScoreResponse struct {
	Category string  `json:"category"`
	Score    float64 `json:"score"`
}

// ModerationRecordResponse is the moderator view and, unlike the public
// status payload, includes per-category scores.
type ModerationRecordResponse struct {
	ModerationStatusResponse
	AuthorID        string                  `json:"author_id"`
	DetectorVersion string                  `json:"detector_version"`
	MaxScore        float64                 `json:"max_score"`
	Categories      []CategoryScoreResponse `json:"categories"`
}
