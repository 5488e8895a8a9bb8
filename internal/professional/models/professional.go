// Package models defines the core domain models for professional profiles
// and their resume attachments.
package models

import (
	"time"
)

// Source identifies where a professional profile came from.
type Source string

const (
	SourceDirect   Source = "direct"
	SourcePartner  Source = "partner"
	SourceInternal Source = "internal"
)

// Sources lists every accepted Source value in a stable order.
var Sources = []Source{SourceDirect, SourceInternal, SourcePartner}

// Valid reports whether s is one of the accepted literals.
func (s Source) Valid() bool {
	switch s {
	case SourceDirect, SourcePartner, SourceInternal:
		return true
	}
	return false
}

// Professional is a stored professional contact profile. ID is assigned by
// the store and CreatedAt is set once at creation. Email and Phone are empty
// when absent and unique when present; Phone holds digits only. Resume is
// only populated when explicitly loaded.
type Professional struct {
	ID          uint64            `json:"id"`
	FullName    string            `json:"full_name"`
	Email       string            `json:"email,omitempty"`
	Phone       string            `json:"phone,omitempty"`
	CompanyName string            `json:"company_name"`
	JobTitle    string            `json:"job_title"`
	Source      Source            `json:"source"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	Resume      *ResumeAttachment `json:"resume,omitempty"`
}

// ProfessionalInput is a candidate record as received from a caller.
// A nil field is absent; absent fields are left untouched on update.
type ProfessionalInput struct {
	FullName    *string `json:"full_name"`
	Email       *string `json:"email"`
	Phone       *string `json:"phone"`
	CompanyName *string `json:"company_name"`
	JobTitle    *string `json:"job_title"`
	Source      *string `json:"source"`
}

// ProfessionalUpdate holds the fields to change on an existing profile.
// Pointer types are used to allow partial updates.
type ProfessionalUpdate struct {
	ID          uint64
	FullName    *string
	Email       *string
	Phone       *string
	CompanyName *string
	JobTitle    *string
	Source      *Source
}

// Outcome tells whether an upsert created or updated a profile.
type Outcome string

const (
	Created Outcome = "created"
	Updated Outcome = "updated"
	Failed  Outcome = "failed"
)

// ResumeAttachment is the single resume document owned by a profile.
// FileRef is the object store key; FileURL is resolved from it by the service
// and never persisted. ExtractedText is best-effort and may be empty.
type ResumeAttachment struct {
	ID             uint64    `json:"id"`
	ProfessionalID uint64    `json:"professional_id"`
	FileRef        string    `json:"file"`
	FileURL        string    `json:"file_url,omitempty"`
	ExtractedText  string    `json:"extracted_text"`
	CreatedAt      time.Time `json:"created_at"`
}

// ResumeFile is an uploaded resume payload.
type ResumeFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ListOptions filters and shapes the profile listing.
type ListOptions struct {
	Source        *Source
	IncludeResume bool
}

// BulkRecord is one entry of a bulk upsert request. Err is set when the
// entry was rejected before reaching the upsert engine (malformed payload).
type BulkRecord struct {
	Input ProfessionalInput
	Err   error
}

// BulkItemResult reports what happened to one bulk entry.
type BulkItemResult struct {
	Index  int     `json:"index"`
	Status Outcome `json:"status"`
	ID     *uint64 `json:"id,omitempty"`
	Error  string  `json:"error,omitempty"`
}

// BatchResult aggregates a bulk upsert. Results is ordered by input index.
type BatchResult struct {
	Created int              `json:"created"`
	Updated int              `json:"updated"`
	Failed  int              `json:"failed"`
	Results []BulkItemResult `json:"results"`
}
