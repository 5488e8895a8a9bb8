// Package controller implements the core business logic (service layer)
// for professional profiles: identity matching, validation, single and bulk
// upserts, listing, and resume ingestion.
package controller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gartstein/professionals/internal/pkg/utils"
	"github.com/gartstein/professionals/internal/professional/db"
	e "github.com/gartstein/professionals/internal/professional/errors"
	"github.com/gartstein/professionals/internal/professional/events"
	"github.com/gartstein/professionals/internal/professional/models"
	"github.com/gartstein/professionals/internal/professional/views"
	"go.uber.org/zap"
)

type EventProducer interface {
	Produce(event events.Event)
}

// Repository defines the storage interface for professionals and resumes.
type Repository interface {
	IdentityStore
	CreateProfessional(ctx context.Context, professional *models.Professional) error
	GetProfessional(ctx context.Context, id uint64) (*models.Professional, error)
	UpdateProfessional(ctx context.Context, update *models.ProfessionalUpdate) error
	DeleteProfessional(ctx context.Context, id uint64) error
	ListProfessionals(ctx context.Context, source *models.Source, withResume bool) ([]models.Professional, error)
	GetResume(ctx context.Context, professionalID uint64) (*models.ResumeAttachment, error)
	SaveResumeFile(ctx context.Context, professionalID uint64, fileRef string) (*models.ResumeAttachment, error)
	SetExtractedText(ctx context.Context, resumeID uint64, text string) error
	WithTransaction(ctx context.Context, fn func(repo *db.Repository) error) error
	Close() error
}

// ProfessionalService provides methods to manage professionals via
// repository operations, object storage and event production.
type ProfessionalService struct {
	repo      Repository
	store     ObjectStore
	extractor TextExtractor
	producer  EventProducer
	logger    *zap.Logger
	now       func() time.Time
}

// NewProfessionalService constructs a ProfessionalService.
func NewProfessionalService(
	repo Repository,
	store ObjectStore,
	extractor TextExtractor,
	producer EventProducer,
	logger *zap.Logger,
) *ProfessionalService {
	return &ProfessionalService{
		repo:      repo,
		store:     store,
		extractor: extractor,
		producer:  producer,
		logger:    logger.Named("professional_service"),
		now:       time.Now,
	}
}

// Upsert matches the candidate to an existing profile by email (or phone when
// no email is given), validates it, and either applies the supplied fields to
// the match or creates a new profile. Match, validation and write share one
// transaction.
func (s *ProfessionalService) Upsert(ctx context.Context, in models.ProfessionalInput) (*models.Professional, models.Outcome, error) {
	var (
		result  *models.Professional
		outcome models.Outcome
	)
	err := s.repo.WithTransaction(ctx, func(tx *db.Repository) error {
		var err error
		result, outcome, err = s.upsert(ctx, tx, in)
		return err
	})
	if err != nil {
		if errors.Is(err, e.ErrValidation) {
			return nil, "", err
		}
		return nil, "", fmt.Errorf("failed to upsert professional: %w", err)
	}

	eventType := events.ProfessionalCreated
	if outcome == models.Updated {
		eventType = events.ProfessionalUpdated
	}
	s.logger.Info("Upserted professional",
		zap.Uint64("professional_id", result.ID),
		zap.String("source", string(result.Source)),
		zap.String("outcome", string(outcome)),
	)
	s.publish(events.Event{Type: eventType, Professional: result})
	return result, outcome, nil
}

func (s *ProfessionalService) upsert(ctx context.Context, tx *db.Repository, in models.ProfessionalInput) (*models.Professional, models.Outcome, error) {
	matched, err := MatchIdentity(ctx, tx, in.Email, in.Phone)
	if err != nil {
		return nil, "", fmt.Errorf("failed to match identity: %w", err)
	}

	valid, err := ValidateProfessional(ctx, tx, in, matched)
	if err != nil {
		return nil, "", err
	}

	if matched != nil {
		update := &models.ProfessionalUpdate{
			ID:          matched.ID,
			FullName:    valid.FullName,
			Email:       valid.Email,
			Phone:       valid.Phone,
			CompanyName: valid.CompanyName,
			JobTitle:    valid.JobTitle,
		}
		if valid.Source != nil {
			source := models.Source(*valid.Source)
			update.Source = &source
		}
		if err := tx.UpdateProfessional(ctx, update); err != nil {
			return nil, "", err
		}
		updated, err := tx.GetProfessional(ctx, matched.ID)
		if err != nil {
			return nil, "", err
		}
		return updated, models.Updated, nil
	}

	professional := &models.Professional{
		FullName:    utils.Deref(valid.FullName),
		Email:       utils.Deref(valid.Email),
		Phone:       utils.Deref(valid.Phone),
		CompanyName: utils.Deref(valid.CompanyName),
		JobTitle:    utils.Deref(valid.JobTitle),
		Source:      models.Source(utils.Deref(valid.Source)),
		CreatedAt:   s.now(),
	}
	if err := tx.CreateProfessional(ctx, professional); err != nil {
		return nil, "", err
	}
	return professional, models.Created, nil
}

// BulkUpsert runs every record through Upsert in input order. Each record is
// its own transaction; a failing record is reported and never stops the batch.
func (s *ProfessionalService) BulkUpsert(ctx context.Context, records []models.BulkRecord) *models.BatchResult {
	batch := &models.BatchResult{Results: make([]models.BulkItemResult, 0, len(records))}

	for idx, record := range records {
		item := models.BulkItemResult{Index: idx}

		err := record.Err
		var professional *models.Professional
		var outcome models.Outcome
		if err == nil {
			professional, outcome, err = s.safeUpsert(ctx, record.Input)
		}

		if err != nil {
			if !errors.Is(err, e.ErrValidation) && !errors.Is(err, e.ErrInvalidInput) {
				s.logger.Error("Bulk upsert item failed", zap.Int("index", idx), zap.Error(err))
			}
			item.Status = models.Failed
			item.Error = err.Error()
			batch.Failed++
		} else {
			id := professional.ID
			item.Status = outcome
			item.ID = &id
			if outcome == models.Created {
				batch.Created++
			} else {
				batch.Updated++
			}
		}
		batch.Results = append(batch.Results, item)
	}

	s.logger.Info("Bulk upsert finished",
		zap.Int("total", len(records)),
		zap.Int("created", batch.Created),
		zap.Int("updated", batch.Updated),
		zap.Int("failed", batch.Failed),
	)
	return batch
}

func (s *ProfessionalService) safeUpsert(ctx context.Context, in models.ProfessionalInput) (p *models.Professional, outcome models.Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("internal error: %v", r)
		}
	}()
	return s.Upsert(ctx, in)
}

// List returns the projected profiles, newest first, optionally filtered by
// source. Resume data is only loaded and rendered when opts.IncludeResume is set.
func (s *ProfessionalService) List(ctx context.Context, opts models.ListOptions) ([]views.ProfileView, error) {
	professionals, err := s.repo.ListProfessionals(ctx, opts.Source, opts.IncludeResume)
	if err != nil {
		return nil, fmt.Errorf("failed to list professionals: %w", err)
	}

	out := make([]views.ProfileView, 0, len(professionals))
	for i := range professionals {
		p := &professionals[i]
		if p.Resume != nil && p.Resume.FileRef != "" {
			p.Resume.FileURL = s.store.URL(p.Resume.FileRef)
		}
		out = append(out, views.Project(p, views.Options{IncludeResume: opts.IncludeResume}))
	}

	s.logger.Info("Fetched professionals",
		zap.Int("returned", len(out)),
		zap.Bool("include_resume", opts.IncludeResume),
	)
	return out, nil
}

// GetProfessional retrieves a professional by ID.
func (s *ProfessionalService) GetProfessional(ctx context.Context, id uint64) (*models.Professional, error) {
	professional, err := s.repo.GetProfessional(ctx, id)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get professional: %w", err)
	}
	return professional, nil
}

// DeleteProfessional removes a professional and its resume, then fires a
// deletion event.
func (s *ProfessionalService) DeleteProfessional(ctx context.Context, id uint64) error {
	professional, err := s.GetProfessional(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.DeleteProfessional(ctx, id); err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete professional: %w", err)
	}

	s.logger.Info("Deleted professional", zap.Uint64("professional_id", id))
	s.publish(events.Event{Type: events.ProfessionalDeleted, Professional: professional})
	return nil
}

func (s *ProfessionalService) publish(event events.Event) {
	event.OccurredAt = s.now()
	s.producer.Produce(event)
}
