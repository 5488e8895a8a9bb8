package events

import (
	"strconv"
	"time"

	"github.com/gartstein/professionals/internal/professional/models"
)

type EventType string

const (
	ProfessionalCreated EventType = "professional_created"
	ProfessionalUpdated EventType = "professional_updated"
	ProfessionalDeleted EventType = "professional_deleted"
	ResumeAttached      EventType = "resume_attached"
)

type Event struct {
	Type         EventType                `json:"type"`
	Professional *models.Professional     `json:"professional,omitempty"`
	Resume       *models.ResumeAttachment `json:"resume,omitempty"`
	OccurredAt   time.Time                `json:"occurred_at"`
}

// Key partitions events by the professional they concern.
func (ev Event) Key() string {
	switch {
	case ev.Professional != nil:
		return strconv.FormatUint(ev.Professional.ID, 10)
	case ev.Resume != nil:
		return strconv.FormatUint(ev.Resume.ProfessionalID, 10)
	}
	return ""
}

// Discard drops every event; used when no broker is configured.
type Discard struct{}

func (Discard) Produce(Event) {}
