package job

import "time"

const Collection = "jobs"

// Type enumerates the engagement models a posting can carry. Values match
// the wire representation used by the publisher.
type Type string

const (
	TypeFullTime   Type = "Full Time"
	TypePartTime   Type = "Part Time"
	TypeContract   Type = "Contract"
	TypeInternship Type = "Internship"
	TypeTemporary  Type = "Temporary"
	TypeFreelance  Type = "Freelance"
)

// Job is a read-only feed item: postings are created and updated by the
// external publisher, never by this service's users.
type Job struct {
	ID            string
	CategoryID    int
	CompanyID     string
	Role          string
	Description   string
	JobLink       string
	JobType       Type
	Location      string
	PublishedDate time.Time
	Skills        []string
}
