// Command seed loads a few sample professionals. Samples go through the
// regular upsert path, so running it again only refreshes them.
package main

import (
	"context"

	"github.com/gartstein/professionals/internal/pkg/utils"
	"github.com/gartstein/professionals/internal/professional/config"
	"github.com/gartstein/professionals/internal/professional/controller"
	"github.com/gartstein/professionals/internal/professional/db"
	"github.com/gartstein/professionals/internal/professional/events"
	"github.com/gartstein/professionals/internal/professional/models"
	"go.uber.org/zap"
)

func samples() []models.ProfessionalInput {
	return []models.ProfessionalInput{
		{
			FullName:    utils.Ptr("John W. Smith"),
			Email:       utils.Ptr("john.w.smith@example.com"),
			Phone:       utils.Ptr("555-555-0001"),
			CompanyName: utils.Ptr("Acme Health"),
			JobTitle:    utils.Ptr("Biomedical Researcher"),
			Source:      utils.Ptr(string(models.SourceDirect)),
		},
		{
			FullName:    utils.Ptr("Taylor Johnson"),
			Email:       utils.Ptr("taylor.johnson@example.com"),
			Phone:       utils.Ptr("555-555-0002"),
			CompanyName: utils.Ptr("Wellness Partners"),
			JobTitle:    utils.Ptr("Environmental Scientist"),
			Source:      utils.Ptr(string(models.SourcePartner)),
		},
		{
			FullName:    utils.Ptr("Morgan Lee"),
			Email:       utils.Ptr("morgan.lee@example.com"),
			Phone:       utils.Ptr("555-555-0003"),
			CompanyName: utils.Ptr("Internal Ops"),
			JobTitle:    utils.Ptr("Clinical Research Coordinator"),
			Source:      utils.Ptr(string(models.SourceInternal)),
		},
	}
}

func main() {
	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load(config.DefaultPath())
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	repo, err := db.NewRepository(&db.Config{
		Driver:   cfg.DBDriver,
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
		Path:     cfg.DBPath,
	})
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer repo.Close()

	// Seeding never touches resumes, so no object store or extractor is needed.
	svc := controller.NewProfessionalService(repo, nil, nil, events.Discard{}, logger)

	result := svc.BulkUpsert(context.Background(), seedRecords())
	for _, item := range result.Results {
		if item.Status == models.Failed {
			logger.Error("Failed to seed professional", zap.Int("index", item.Index), zap.String("error", item.Error))
		}
	}
	logger.Info("Seed completed",
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("failed", result.Failed),
	)
}

func seedRecords() []models.BulkRecord {
	inputs := samples()
	records := make([]models.BulkRecord, len(inputs))
	for i, in := range inputs {
		records[i] = models.BulkRecord{Input: in}
	}
	return records
}
