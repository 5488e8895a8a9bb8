// Package views renders the externally visible shape of professional
// profiles and resume attachments.
package views

import (
	"strings"
	"time"

	"github.com/gartstein/professionals/internal/professional/models"
)

// ResumeSummaryWords is how many words of extracted text a summary keeps.
const ResumeSummaryWords = 40

// Options controls optional parts of a ProfileView.
type Options struct {
	// IncludeResume opts into resume_url and resume_summary.
	IncludeResume bool
}

// ProfileView is the API representation of a professional.
type ProfileView struct {
	ID            uint64    `json:"id"`
	FullName      string    `json:"full_name"`
	Email         *string   `json:"email"`
	Phone         *string   `json:"phone"`
	CompanyName   string    `json:"company_name"`
	JobTitle      string    `json:"job_title"`
	Source        string    `json:"source"`
	CreatedAt     time.Time `json:"created_at"`
	ResumeURL     *string   `json:"resume_url"`
	ResumeSummary *string   `json:"resume_summary"`
}

// ResumeView is the API representation of a resume attachment.
type ResumeView struct {
	ID            uint64    `json:"id"`
	Professional  uint64    `json:"professional"`
	File          string    `json:"file"`
	ExtractedText string    `json:"extracted_text"`
	CreatedAt     time.Time `json:"created_at"`
}

// Project builds the view of p. Resume fields stay nil unless opts asks for
// them and p carries a loaded attachment.
func Project(p *models.Professional, opts Options) ProfileView {
	view := ProfileView{
		ID:          p.ID,
		FullName:    p.FullName,
		Email:       optional(p.Email),
		Phone:       optional(p.Phone),
		CompanyName: p.CompanyName,
		JobTitle:    p.JobTitle,
		Source:      string(p.Source),
		CreatedAt:   p.CreatedAt,
	}
	if !opts.IncludeResume || p.Resume == nil {
		return view
	}

	if p.Resume.FileRef != "" {
		url := p.Resume.FileURL
		if url == "" {
			url = p.Resume.FileRef
		}
		view.ResumeURL = &url
	}
	summary := Summary(p.Resume.ExtractedText, ResumeSummaryWords)
	view.ResumeSummary = &summary
	return view
}

// ProjectResume builds the view of an attachment.
func ProjectResume(a *models.ResumeAttachment) ResumeView {
	file := a.FileURL
	if file == "" {
		file = a.FileRef
	}
	return ResumeView{
		ID:            a.ID,
		Professional:  a.ProfessionalID,
		File:          file,
		ExtractedText: a.ExtractedText,
		CreatedAt:     a.CreatedAt,
	}
}

// Summary returns the first limit whitespace-delimited words of text joined by
// single spaces.
func Summary(text string, limit int) string {
	words := strings.Fields(text)
	if len(words) > limit {
		words = words[:limit]
	}
	return strings.Join(words, " ")
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
