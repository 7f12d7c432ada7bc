package job

import (
	"github.com/jobera/job-feed/internal/docstore"
)

// FromDocument maps a raw job document to a Job. Field reads never fail:
// a missing or malformed publish date degrades to the epoch and a missing
// skills list to an empty slice, trading strictness for availability.
func FromDocument(doc docstore.Document) Job {
	return Job{
		ID:            doc.ID,
		CategoryID:    doc.Int("categoryId"),
		CompanyID:     doc.Ref("companyId"),
		Role:          doc.String("role"),
		Description:   doc.String("description"),
		JobLink:       doc.String("jobLink"),
		JobType:       Type(doc.String("jobType")),
		Location:      doc.String("location"),
		PublishedDate: doc.Time("publishedDate"),
		Skills:        doc.Strings("skills"),
	}
}

// ToFields maps a Job to its wire representation. The publish date is
// written as a timestamp-typed field.
func ToFields(j Job) docstore.Fields {
	skills := j.Skills
	if skills == nil {
		skills = []string{}
	}
	return docstore.Fields{
		"categoryId":    j.CategoryID,
		"companyId":     j.CompanyID,
		"role":          j.Role,
		"description":   j.Description,
		"jobLink":       j.JobLink,
		"jobType":       string(j.JobType),
		"location":      j.Location,
		"publishedDate": j.PublishedDate,
		"skills":        skills,
	}
}
