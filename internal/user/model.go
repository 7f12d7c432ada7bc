package user

import (
	"strings"
	"time"
)

const Collection = "users"

type User struct {
	ID           string
	Email        string
	FullName     string
	PasswordHash string
	CreatedAt    time.Time
	// NotifyNewJobs opts the user into job_added notifications; NotifySince
	// marks the point in time from which new publications count.
	NotifyNewJobs bool
	NotifySince   time.Time
}

// DisplayName is what greetings and notification copy address the user by:
// the full name if set, the email local part otherwise, "Friend" as the
// last resort.
func (u User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	if at := strings.Index(u.Email, "@"); at > 0 {
		return u.Email[:at]
	}
	return "Friend"
}
