package dto

type ResolveReviewRequest struct {
	Resolution string `json:"resolution"`
}

type PendingReviewListResponse struct {
	Items []ModerationRecordResponse `json:"items"`
}

type EraseResponse struct {
	OK bool `json:"ok"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
