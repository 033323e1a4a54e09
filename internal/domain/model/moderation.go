package model

import (
	"time"

	"github.com/Circle-Company/Circle-System-2.0-sub002/internal/domain/enums"
)

type ModerationRequest struct {
	ContentID   string            `json:"content_id"`
	ContentType enums.ContentType `json:"content_type"`
	Text        string            `json:"text"`
	AuthorID    string            `json:"author_id"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

type CategoryScore struct {
	Category string  `json:"category"`
	Score    float64 `json:"score"`
	Span     *Span   `json:"span,omitempty"`
}

type DetectionResult struct {
	Categories      []CategoryScore `json:"categories"`
	MaxScore        float64         `json:"max_score"`
	DetectorVersion string          `json:"detector_version"`
}

type ModerationDecision struct {
	Verdict              enums.Verdict `json:"verdict"`
	Reason               string        `json:"reason"`
	AppliedPolicyVersion string        `json:"applied_policy_version"`
}

type ModerationRecord struct {
	ID           string             `json:"id"`
	ContentID    string             `json:"content_id"`
	ContentType  enums.ContentType  `json:"content_type"`
	AuthorID     string             `json:"author_id"`
	Decision     ModerationDecision `json:"decision"`
	Detection    DetectionResult    `json:"detection"`
	ReviewStatus enums.ReviewStatus `json:"review_status"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

type ModerationVerdict struct {
	Decision ModerationDecision `json:"decision"`
	RecordID string             `json:"record_id"`
}
