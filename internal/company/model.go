package company

const Collection = "companies"

// Company is read-only reference data maintained by the external publisher.
type Company struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	About          string `json:"about,omitempty"`
	Location       string `json:"location,omitempty"`
	LogoURL        string `json:"logoUrl,omitempty"`
	Size           string `json:"size,omitempty"`
	Specialization string `json:"specialization,omitempty"`
	Facility       string `json:"facility,omitempty"`
}
