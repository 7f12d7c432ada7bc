package activity

import "github.com/jobera/job-feed/internal/docstore"

// BookmarkedFromDocument maps a raw relation document; a malformed createdAt
// degrades to the epoch.
func BookmarkedFromDocument(doc docstore.Document) BookmarkedJob {
	return BookmarkedJob{
		ID:        doc.ID,
		UserID:    doc.String("userId"),
		JobID:     doc.Ref("jobId"),
		CreatedAt: doc.Time("createdAt"),
	}
}

func AppliedFromDocument(doc docstore.Document) AppliedJob {
	return AppliedJob{
		ID:        doc.ID,
		UserID:    doc.String("userId"),
		JobID:     doc.Ref("jobId"),
		CreatedAt: doc.Time("createdAt"),
	}
}

// relationFields is the wire shape shared by both relations; createdAt is
// server-assigned.
func relationFields(userID, jobID string) docstore.Fields {
	return docstore.Fields{
		"userId":    userID,
		"jobId":     jobID,
		"createdAt": docstore.ServerTimestamp,
	}
}
