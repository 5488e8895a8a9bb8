package views

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/gartstein/professionals/internal/professional/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummary(t *testing.T) {
	fifty := make([]string, 50)
	for i := range fifty {
		fifty[i] = fmt.Sprintf("w%d", i)
	}

	tests := []struct {
		name string
		text string
		want string
	}{
		{"short text unchanged", "a summary extracted from resume", "a summary extracted from resume"},
		{"empty", "", ""},
		{"collapses whitespace", "  one\n\ttwo   three ", "one two three"},
		{"truncates to forty words", strings.Join(fifty, " "), strings.Join(fifty[:40], " ")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Summary(tt.text, ResumeSummaryWords))
		})
	}
}

func TestProject(t *testing.T) {
	created := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	withResume := func() *models.Professional {
		return &models.Professional{
			ID:        7,
			FullName:  "Jane Doe",
			Email:     "jane@example.com",
			Source:    models.SourcePartner,
			CreatedAt: created,
			Resume: &models.ResumeAttachment{
				FileRef:       "resumes/professional_7/cv.pdf",
				FileURL:       "http://localhost:8080/media/resumes/professional_7/cv.pdf",
				ExtractedText: "one two three",
			},
		}
	}

	t.Run("resume excluded by default", func(t *testing.T) {
		view := Project(withResume(), Options{})
		assert.Nil(t, view.ResumeURL)
		assert.Nil(t, view.ResumeSummary)
		assert.Equal(t, "jane@example.com", *view.Email)
		assert.Nil(t, view.Phone, "absent phone renders as null")
	})

	t.Run("resume included", func(t *testing.T) {
		view := Project(withResume(), Options{IncludeResume: true})
		require.NotNil(t, view.ResumeURL)
		require.NotNil(t, view.ResumeSummary)
		assert.Equal(t, "http://localhost:8080/media/resumes/professional_7/cv.pdf", *view.ResumeURL)
		assert.Equal(t, "one two three", *view.ResumeSummary)
	})

	t.Run("included without attachment", func(t *testing.T) {
		p := withResume()
		p.Resume = nil
		view := Project(p, Options{IncludeResume: true})
		assert.Nil(t, view.ResumeURL)
		assert.Nil(t, view.ResumeSummary)
	})

	t.Run("attachment without file reference", func(t *testing.T) {
		p := withResume()
		p.Resume.FileRef = ""
		p.Resume.ExtractedText = ""
		view := Project(p, Options{IncludeResume: true})
		assert.Nil(t, view.ResumeURL)
		require.NotNil(t, view.ResumeSummary)
		assert.Equal(t, "", *view.ResumeSummary)
	})
}

func TestProjectResume(t *testing.T) {
	view := ProjectResume(&models.ResumeAttachment{
		ID:             3,
		ProfessionalID: 7,
		FileRef:        "resumes/professional_7/cv.pdf",
		ExtractedText:  "text",
	})
	assert.Equal(t, uint64(7), view.Professional)
	assert.Equal(t, "resumes/professional_7/cv.pdf", view.File, "falls back to the key without a resolved URL")
}
