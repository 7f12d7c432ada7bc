package notification

import (
	"fmt"
	"time"
)

// TypeJobAdded is the only notification type emitted today.
const TypeJobAdded = "job_added"

type Notification struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	JobID     string    `json:"jobId"`
	CompanyID string    `json:"companyId"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	Read      bool      `json:"read"`
}

// CollectionFor returns the per-user notification collection. Notifications
// live under their owner, never in a shared collection.
func CollectionFor(userID string) string {
	return fmt.Sprintf("users/%s/notifications", userID)
}
