package job

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobera/job-feed/internal/docstore"
)

func TestFromDocumentDefaults(t *testing.T) {
	j := FromDocument(docstore.Document{ID: "j1", Data: docstore.Fields{
		"role": "Product Designer",
	}})

	assert.Equal(t, "j1", j.ID)
	assert.Equal(t, "Product Designer", j.Role)
	assert.Equal(t, time.Unix(0, 0).UTC(), j.PublishedDate, "missing publish date degrades to epoch")
	require.NotNil(t, j.Skills, "missing skills degrade to empty slice")
	assert.Empty(t, j.Skills)
}

func TestFromDocumentNumericCompanyID(t *testing.T) {
	// legacy records carry companyId as a number
	j := FromDocument(docstore.Document{ID: "j1", Data: docstore.Fields{
		"companyId": float64(7),
	}})
	assert.Equal(t, "7", j.CompanyID)
}

func TestFromDocumentSkillsFromUntypedList(t *testing.T) {
	j := FromDocument(docstore.Document{ID: "j1", Data: docstore.Fields{
		"skills": []interface{}{"Go", "SQL", 3},
	}})
	assert.Equal(t, []string{"Go", "SQL"}, j.Skills)
}

func TestConverterRoundTrip(t *testing.T) {
	in := Job{
		ID:            "j1",
		CategoryID:    2,
		CompanyID:     "c1",
		Role:          "Backend Engineer",
		Description:   "Build the feed service",
		JobLink:       "https://example.com/apply",
		JobType:       TypeFullTime,
		Location:      "Berlin, Germany",
		PublishedDate: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
		Skills:        []string{"Go", "Postgres"},
	}

	out := FromDocument(docstore.Document{ID: in.ID, Data: ToFields(in)})
	assert.Equal(t, in, out)
}

func TestToFieldsNilSkills(t *testing.T) {
	fields := ToFields(Job{ID: "j1"})
	skills, ok := fields["skills"].([]string)
	require.True(t, ok)
	assert.Empty(t, skills)
}
