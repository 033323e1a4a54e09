package enums

type Verdict string

const (
	VerdictAllowed          Verdict = "ALLOWED"
	VerdictBlocked          Verdict = "BLOCKED"
	VerdictFlaggedForReview Verdict = "FLAGGED_FOR_REVIEW"
)
