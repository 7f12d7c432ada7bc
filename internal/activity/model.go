package activity

import "time"

const (
	BookmarkedCollection = "bookmarked_jobs"
	AppliedCollection    = "applied_jobs"
)

// BookmarkedJob is an existence-only relation: it exists iff the user has
// the job bookmarked.
type BookmarkedJob struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	JobID     string    `json:"jobId"`
	CreatedAt time.Time `json:"createdAt"`
}

// AppliedJob records that the user triggered apply for a job. It is not
// automatically removed.
type AppliedJob struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	JobID     string    `json:"jobId"`
	CreatedAt time.Time `json:"createdAt"`
}
