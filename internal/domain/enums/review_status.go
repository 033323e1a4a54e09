package enums

type ReviewStatus string

const (
	ReviewStatusNone       ReviewStatus = "NONE"
	ReviewStatusPending    ReviewStatus = "PENDING_HUMAN_REVIEW"
	ReviewStatusUpheld     ReviewStatus = "UPHELD"
	ReviewStatusOverturned ReviewStatus = "OVERTURNED"
)
