package company

import "github.com/jobera/job-feed/internal/docstore"

// FromDocument maps a raw company document to a Company; missing fields
// degrade to zero values.
func FromDocument(doc docstore.Document) Company {
	return Company{
		ID:             doc.ID,
		Name:           doc.String("name"),
		About:          doc.String("about"),
		Location:       doc.String("location"),
		LogoURL:        doc.String("logoUrl"),
		Size:           doc.String("size"),
		Specialization: doc.String("specialization"),
		Facility:       doc.String("facility"),
	}
}

func ToFields(c Company) docstore.Fields {
	return docstore.Fields{
		"name":           c.Name,
		"about":          c.About,
		"location":       c.Location,
		"logoUrl":        c.LogoURL,
		"size":           c.Size,
		"specialization": c.Specialization,
		"facility":       c.Facility,
	}
}
