package user

import "github.com/jobera/job-feed/internal/docstore"

func FromDocument(doc docstore.Document) User {
	return User{
		ID:            doc.ID,
		Email:         doc.String("email"),
		FullName:      doc.String("fullName"),
		PasswordHash:  doc.String("passwordHash"),
		CreatedAt:     doc.Time("createdAt"),
		NotifyNewJobs: doc.Bool("notifyNewJobs"),
		NotifySince:   doc.Time("notifySince"),
	}
}

func ToFields(u User) docstore.Fields {
	return docstore.Fields{
		"email":         u.Email,
		"fullName":      u.FullName,
		"passwordHash":  u.PasswordHash,
		"createdAt":     u.CreatedAt,
		"notifyNewJobs": u.NotifyNewJobs,
		"notifySince":   u.NotifySince,
	}
}
