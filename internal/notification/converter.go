package notification

import "github.com/jobera/job-feed/internal/docstore"

func FromDocument(doc docstore.Document) Notification {
	return Notification{
		ID:        doc.ID,
		Type:      doc.String("type"),
		JobID:     doc.Ref("jobId"),
		CompanyID: doc.Ref("companyId"),
		Title:     doc.String("title"),
		CreatedAt: doc.Time("createdAt"),
		Read:      doc.Bool("read"),
	}
}

func ToFields(n Notification) docstore.Fields {
	return docstore.Fields{
		"type":      n.Type,
		"jobId":     n.JobID,
		"companyId": n.CompanyID,
		"title":     n.Title,
		"createdAt": docstore.ServerTimestamp,
		"read":      n.Read,
	}
}
