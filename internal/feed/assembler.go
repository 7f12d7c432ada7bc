// Package feed turns raw job documents into the rows the job list renders,
// joining each job to its company and to the viewer's bookmark state.
package feed

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jobera/job-feed/internal/company"
	"github.com/jobera/job-feed/internal/docstore"
	"github.com/jobera/job-feed/internal/job"
)

// CompanyResolver is the slice of the company repository the assembler
// needs. Absent companies are reported as docstore.ErrNotFound.
type CompanyResolver interface {
	CompanyByID(ctx context.Context, id string) (*company.Company, error)
}

// BookmarkChecker reports viewer bookmark membership. A nil checker means
// an anonymous viewer: every row comes back unbookmarked.
type BookmarkChecker interface {
	IsBookmarked(jobID string) bool
}

// Row is one rendered job card.
type Row struct {
	JobID   string `json:"jobId"`
	Company string `json:"company"`
	// CompanyLogoText is the initial-letter placeholder rendered when no
	// logo image is available.
	CompanyLogoText string    `json:"companyLogoText"`
	CompanyLogoURL  string    `json:"companyLogoUrl,omitempty"`
	Title           string    `json:"title"`
	City            string    `json:"city"`
	Country         string    `json:"country"`
	Type            string    `json:"type"`
	Summary         string    `json:"summary"`
	Applicants      int       `json:"applicants"`
	Views           int       `json:"views"`
	PostedAt        string    `json:"postedAt"`
	PublishedDate   time.Time `json:"publishedDate"`
	Bookmarked      bool      `json:"bookmarked"`
}

// UnknownCompany is the display name used when a job's company document is
// missing.
const UnknownCompany = "Unknown"

type Assembler struct {
	companies CompanyResolver
}

func NewAssembler(companies CompanyResolver) *Assembler {
	return &Assembler{companies: companies}
}

// Assemble joins jobs to companies and bookmark state, preserving the input
// order. Each distinct company id is fetched at most once per call; a
// missing company is cached as absent for the rest of the pass rather than
// re-fetched per job.
func (a *Assembler) Assemble(ctx context.Context, jobs []job.Job, marks BookmarkChecker) ([]Row, error) {
	cache := make(map[string]*company.Company)
	rows := make([]Row, 0, len(jobs))
	for _, j := range jobs {
		c, ok := cache[j.CompanyID]
		if !ok {
			var err error
			c, err = a.companies.CompanyByID(ctx, j.CompanyID)
			if err != nil {
				if !errors.Is(err, docstore.ErrNotFound) {
					return nil, err
				}
				c = nil
			}
			cache[j.CompanyID] = c
		}
		rows = append(rows, a.row(j, c, marks))
	}
	return rows, nil
}

func (a *Assembler) row(j job.Job, c *company.Company, marks BookmarkChecker) Row {
	city, country := SplitLocation(j.Location)
	r := Row{
		JobID:         j.ID,
		Company:       UnknownCompany,
		Title:         j.Role,
		City:          city,
		Country:       country,
		Type:          string(j.JobType),
		Summary:       j.Description,
		PostedAt:      humanize.Time(j.PublishedDate),
		PublishedDate: j.PublishedDate,
	}
	if c != nil && c.Name != "" {
		r.Company = c.Name
		r.CompanyLogoURL = c.LogoURL
	}
	r.CompanyLogoText = logoText(r.Company)
	if marks != nil {
		r.Bookmarked = marks.IsBookmarked(j.ID)
	}
	return r
}

func logoText(name string) string {
	for _, r := range name {
		return strings.ToUpper(string(r))
	}
	return ""
}

// SplitLocation splits "Berlin, Germany" into city and country on the first
// comma. A location with no comma is all city, country empty.
func SplitLocation(location string) (city, country string) {
	city, country, found := strings.Cut(location, ",")
	city = strings.TrimSpace(city)
	if !found {
		return city, ""
	}
	return city, strings.TrimSpace(country)
}
