package controller

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gartstein/professionals/internal/professional/db"
	e "github.com/gartstein/professionals/internal/professional/errors"
	"github.com/gartstein/professionals/internal/professional/events"
	"github.com/gartstein/professionals/internal/professional/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultResumeName = "resume.pdf"

// readBackRetries bounds how often a freshly stored resume is re-read before
// extraction gives up.
const readBackRetries = 2

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// ObjectStore keeps binary content under string keys.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	URL(key string) string
}

// TextExtractor turns a stored document into plain text.
type TextExtractor interface {
	Extract(data []byte, contentType, filename string) (string, error)
}

// ResumePrefix is the stable object-store prefix for a professional's resumes.
func ResumePrefix(professionalID uint64) string {
	return fmt.Sprintf("resumes/professional_%d/", professionalID)
}

// ResumeKey derives a fresh object key under ResumePrefix for an upload.
func ResumeKey(professionalID uint64, filename string) string {
	name := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	name = strings.Trim(unsafeFileChars.ReplaceAllString(name, "_"), "._")
	if name == "" {
		name = defaultResumeName
	}
	return ResumePrefix(professionalID) + uuid.NewString() + "-" + name
}

// AttachResume stores file as the professional's resume and then extracts its
// text. The stored file and attachment row are committed before extraction
// starts; extraction problems only ever produce empty text.
func (s *ProfessionalService) AttachResume(ctx context.Context, professionalID uint64, file *models.ResumeFile) (*models.ResumeAttachment, error) {
	if _, err := s.GetProfessional(ctx, professionalID); err != nil {
		return nil, err
	}
	if file == nil {
		return nil, e.ErrMissingFile
	}

	key := ResumeKey(professionalID, file.Filename)
	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if err := s.store.Put(ctx, key, file.Data, contentType); err != nil {
		s.logger.Error("Failed to store resume",
			zap.Uint64("professional_id", professionalID),
			zap.String("key", key),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to store resume: %w", err)
	}

	var attachment *models.ResumeAttachment
	err := s.repo.WithTransaction(ctx, func(tx *db.Repository) error {
		var err error
		attachment, err = tx.SaveResumeFile(ctx, professionalID, key)
		return err
	})
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to save resume: %w", err)
	}

	text := s.extractText(ctx, key, file.ContentType, file.Filename)
	if err := s.repo.SetExtractedText(ctx, attachment.ID, text); err != nil {
		s.logger.Error("Failed to persist extracted resume text",
			zap.Uint64("professional_id", professionalID),
			zap.Uint64("resume_id", attachment.ID),
			zap.Error(err),
		)
	} else {
		attachment.ExtractedText = text
	}
	attachment.FileURL = s.store.URL(key)

	s.logger.Info("Uploaded resume",
		zap.Uint64("professional_id", professionalID),
		zap.Uint64("resume_id", attachment.ID),
		zap.Int("extracted_chars", len(attachment.ExtractedText)),
	)
	s.publish(events.Event{Type: events.ResumeAttached, Resume: attachment})
	return attachment, nil
}

// extractText reads the stored resume back and runs the extractor. It never
// fails: every problem is logged and yields "".
func (s *ProfessionalService) extractText(ctx context.Context, key, contentType, filename string) (text string) {
	log := s.logger.With(zap.String("key", key))
	defer func() {
		if r := recover(); r != nil {
			log.Warn("Resume extraction panicked", zap.Any("panic", r))
			text = ""
		}
	}()

	var data []byte
	read := func() error {
		var err error
		data, err = s.store.Get(ctx, key)
		return err
	}
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 100 * time.Millisecond
	if err := backoff.Retry(read, backoff.WithContext(backoff.WithMaxRetries(policy, readBackRetries), ctx)); err != nil {
		log.Warn("Failed to read back stored resume", zap.Error(err))
		return ""
	}

	extracted, err := s.extractor.Extract(data, contentType, filename)
	if err != nil {
		log.Warn("Failed to extract resume text", zap.Error(err))
		return ""
	}
	return strings.TrimSpace(extracted)
}
