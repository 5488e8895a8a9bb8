package db

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	dbmodels "github.com/gartstein/professionals/internal/professional/db/models"
	e "github.com/gartstein/professionals/internal/professional/errors"
	"github.com/gartstein/professionals/internal/professional/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Repository struct {
	db *gorm.DB
}

type Config struct {
	Driver   string
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	// Path is the SQLite database file; ":memory:" keeps it in memory.
	Path string
}

func NewRepository(cfg *Config) (*Repository, error) {
	dialector, err := openDialector(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.New(log.New(os.Stdout, "\r\n", log.LstdFlags), gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.Driver == DriverSQLite {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to access sqlite pool: %w", err)
		}
		// SQLite serialises writers; a single connection also keeps ":memory:" databases shared.
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(&dbmodels.Professional{}, &dbmodels.ResumeUpload{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Repository{db: db}, nil
}

func openDialector(cfg *Config) (gorm.Dialector, error) {
	switch cfg.Driver {
	case DriverPostgres, "":
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)
		return postgres.Open(dsn), nil
	case DriverSQLite:
		path := cfg.Path
		if path == "" {
			path = ":memory:"
		}
		return sqlite.Open(path), nil
	default:
		return nil, fmt.Errorf("%w: unsupported database driver %q", e.ErrInvalidInput, cfg.Driver)
	}
}

func (r *Repository) CreateProfessional(ctx context.Context, professional *models.Professional) error {
	row := fromDomain(professional)
	result := r.db.WithContext(ctx).Create(row)
	if result.Error != nil {
		if dup := duplicateError(result.Error); dup != nil {
			return dup
		}
		return result.Error
	}
	professional.ID = row.ID
	professional.CreatedAt = row.CreatedAt
	professional.UpdatedAt = row.UpdatedAt
	return nil
}

func (r *Repository) GetProfessional(ctx context.Context, id uint64) (*models.Professional, error) {
	var row dbmodels.Professional
	result := r.db.WithContext(ctx).First(&row, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, e.ErrNotFound
		}
		return nil, result.Error
	}
	return toDomain(&row), nil
}

// FindByEmail returns the profile holding email. Should storage ever contain
// duplicates, the lowest id wins.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.Professional, error) {
	return r.findBy(ctx, "email", email)
}

// FindByPhone returns the profile holding the normalized phone, lowest id first.
func (r *Repository) FindByPhone(ctx context.Context, phone string) (*models.Professional, error) {
	return r.findBy(ctx, "phone", phone)
}

func (r *Repository) findBy(ctx context.Context, column, value string) (*models.Professional, error) {
	var row dbmodels.Professional
	result := r.db.WithContext(ctx).
		Where(column+" = ?", value).
		Order("id ASC").
		First(&row)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, e.ErrNotFound
		}
		return nil, result.Error
	}
	return toDomain(&row), nil
}

// EmailTaken reports whether a profile other than excludeID holds email.
func (r *Repository) EmailTaken(ctx context.Context, email string, excludeID uint64) (bool, error) {
	return r.taken(ctx, "email", email, excludeID)
}

// PhoneTaken reports whether a profile other than excludeID holds phone.
func (r *Repository) PhoneTaken(ctx context.Context, phone string, excludeID uint64) (bool, error) {
	return r.taken(ctx, "phone", phone, excludeID)
}

func (r *Repository) taken(ctx context.Context, column, value string, excludeID uint64) (bool, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&dbmodels.Professional{}).
		Where(column+" = ?", value).
		Where("id <> ?", excludeID).
		Limit(1).
		Count(&count)
	return count > 0, result.Error
}

func (r *Repository) UpdateProfessional(ctx context.Context, update *models.ProfessionalUpdate) error {
	changes := updateColumns(update)
	if len(changes) == 0 {
		_, err := r.GetProfessional(ctx, update.ID)
		return err
	}

	result := r.db.WithContext(ctx).Model(&dbmodels.Professional{}).
		Where("id = ?", update.ID).
		Updates(changes)

	if result.Error != nil {
		if dup := duplicateError(result.Error); dup != nil {
			return dup
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return e.ErrNotFound
	}
	return nil
}

// DeleteProfessional removes the profile together with its resume row.
func (r *Repository) DeleteProfessional(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("professional_id = ?", id).Delete(&dbmodels.ResumeUpload{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&dbmodels.Professional{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return e.ErrNotFound
		}
		return nil
	})
}

// ListProfessionals returns profiles newest first; rows sharing a created_at
// keep insertion order.
func (r *Repository) ListProfessionals(ctx context.Context, source *models.Source, withResume bool) ([]models.Professional, error) {
	query := r.db.WithContext(ctx).Model(&dbmodels.Professional{}).
		Order("created_at DESC").
		Order("id ASC")
	if source != nil {
		query = query.Where("source = ?", string(*source))
	}
	if withResume {
		query = query.Preload("Resume")
	}

	var rows []dbmodels.Professional
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]models.Professional, 0, len(rows))
	for i := range rows {
		out = append(out, *toDomain(&rows[i]))
	}
	return out, nil
}

func (r *Repository) GetResume(ctx context.Context, professionalID uint64) (*models.ResumeAttachment, error) {
	var row dbmodels.ResumeUpload
	result := r.db.WithContext(ctx).First(&row, "professional_id = ?", professionalID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, e.ErrNotFound
		}
		return nil, result.Error
	}
	return resumeToDomain(&row), nil
}

// SaveResumeFile points the professional's resume row at fileRef, creating the
// row on first upload and reusing it afterwards. Previously extracted text is
// cleared so it never outlives the file it came from.
func (r *Repository) SaveResumeFile(ctx context.Context, professionalID uint64, fileRef string) (*models.ResumeAttachment, error) {
	var row dbmodels.ResumeUpload
	err := r.db.WithContext(ctx).First(&row, "professional_id = ?", professionalID).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		row = dbmodels.ResumeUpload{ProfessionalID: professionalID, File: fileRef}
		if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	default:
		result := r.db.WithContext(ctx).Model(&dbmodels.ResumeUpload{}).
			Where("id = ?", row.ID).
			Updates(map[string]interface{}{"file": fileRef, "extracted_text": ""})
		if result.Error != nil {
			return nil, result.Error
		}
		row.File = fileRef
		row.ExtractedText = ""
	}
	return resumeToDomain(&row), nil
}

func (r *Repository) SetExtractedText(ctx context.Context, resumeID uint64, text string) error {
	result := r.db.WithContext(ctx).Model(&dbmodels.ResumeUpload{}).
		Where("id = ?", resumeID).
		Update("extracted_text", text)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return e.ErrNotFound
	}
	return nil
}

func (r *Repository) WithTransaction(ctx context.Context, fn func(repo *Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx})
	})
}

func (r *Repository) Exec(ctx context.Context, query string, params ...interface{}) error {
	result := r.db.WithContext(ctx).Exec(query, params...)
	if result.Error != nil {
		return result.Error
	}
	return nil
}

func (r *Repository) Close() error {
	db, err := r.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}

// duplicateError converts a unique-index violation into a DuplicateIdentifier
// validation error naming the conflicting field, or returns nil.
func duplicateError(err error) error {
	msg := strings.ToLower(err.Error())
	if !errors.Is(err, gorm.ErrDuplicatedKey) &&
		!strings.Contains(msg, "unique constraint") &&
		!strings.Contains(msg, "duplicate key") {
		return nil
	}
	field := "identifier"
	switch {
	case strings.Contains(msg, "email"):
		field = "email"
	case strings.Contains(msg, "phone"):
		field = "phone"
	}
	return e.NewValidationError(field, e.CodeDuplicateIdentifier,
		fmt.Sprintf("%s already belongs to another professional", field))
}

func updateColumns(update *models.ProfessionalUpdate) map[string]interface{} {
	changes := map[string]interface{}{}
	if update.FullName != nil {
		changes["full_name"] = *update.FullName
	}
	if update.Email != nil {
		changes["email"] = nullable(*update.Email)
	}
	if update.Phone != nil {
		changes["phone"] = nullable(*update.Phone)
	}
	if update.CompanyName != nil {
		changes["company_name"] = *update.CompanyName
	}
	if update.JobTitle != nil {
		changes["job_title"] = *update.JobTitle
	}
	if update.Source != nil {
		changes["source"] = string(*update.Source)
	}
	return changes
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func fromDomain(p *models.Professional) *dbmodels.Professional {
	return &dbmodels.Professional{
		ID:          p.ID,
		FullName:    p.FullName,
		Email:       nullable(p.Email),
		Phone:       nullable(p.Phone),
		CompanyName: p.CompanyName,
		JobTitle:    p.JobTitle,
		Source:      string(p.Source),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func toDomain(row *dbmodels.Professional) *models.Professional {
	p := &models.Professional{
		ID:          row.ID,
		FullName:    row.FullName,
		CompanyName: row.CompanyName,
		JobTitle:    row.JobTitle,
		Source:      models.Source(row.Source),
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
	if row.Email != nil {
		p.Email = *row.Email
	}
	if row.Phone != nil {
		p.Phone = *row.Phone
	}
	if row.Resume != nil {
		p.Resume = resumeToDomain(row.Resume)
	}
	return p
}

func resumeToDomain(row *dbmodels.ResumeUpload) *models.ResumeAttachment {
	return &models.ResumeAttachment{
		ID:             row.ID,
		ProfessionalID: row.ProfessionalID,
		FileRef:        row.File,
		ExtractedText:  row.ExtractedText,
		CreatedAt:      row.CreatedAt,
	}
}
