package app

import (
	"context"
	"fmt"
	"log"

	"gorm.io/gorm"

	"alfredoptarigan/resume-matcher/internal/config"
	"alfredoptarigan/resume-matcher/internal/repositories"
	"alfredoptarigan/resume-matcher/internal/services"
)

// NewDocumentService builds the Document Service selected by DOCUMENT_PROVIDER.
func NewDocumentService(cfg *config.Config, db *gorm.DB) (services.DocumentService, error) {
	switch cfg.Provider.Name {
	case "local":
		geminiService, err := services.NewGeminiService(cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.Gemini.EmbedModel)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Gemini AI: %w", err)
		}
		log.Println("✅ Gemini AI initialized successfully")

		qdrantService, err := services.NewQdrantService(cfg.Qdrant.URL, cfg.Qdrant.APIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Qdrant: %w", err)
		}
		log.Println("✅ Qdrant initialized successfully")

		log.Println("✅ Using self-hosted document provider")
		return services.NewLocalDocumentService(
			repositories.NewDocumentRepository(db),
			geminiService,
			qdrantService,
			cfg.Gemini.MaxRetries,
		), nil
	default:
		if cfg.Affinda.APIKey == "" {
			return nil, fmt.Errorf("AFFINDA_API_KEY is required for the affinda provider")
		}
		log.Println("✅ Using Affinda document provider")
		return services.NewAffindaService(cfg.Affinda.BaseURL, cfg.Affinda.APIKey, cfg.Affinda.Timeout), nil
	}
}

// NewStorage builds the resume store selected by STORAGE_DRIVER.
func NewStorage(cfg *config.Config) (services.StorageService, error) {
	if cfg.Storage.Driver == "s3" {
		return services.NewS3Storage(context.Background(), services.S3StorageConfig{
			Region:    cfg.S3.Region,
			Bucket:    cfg.S3.Bucket,
			Prefix:    cfg.S3.Prefix,
			Endpoint:  cfg.S3.Endpoint,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
		})
	}
	return services.NewStorageService(cfg.Storage.UploadPath)
}

// NewNotifier connects to RabbitMQ when RABBITMQ_URL is set. The returned
// close function is never nil.
func NewNotifier(cfg *config.Config) (services.SessionNotifier, func(), error) {
	if cfg.Broker.RabbitMQURL == "" {
		return services.NoopNotifier{}, func() {}, nil
	}

	notifier, err := services.NewAMQPNotifier(cfg.Broker.RabbitMQURL, cfg.Broker.Exchange)
	if err != nil {
		return nil, nil, err
	}
	return notifier, func() {
		if err := notifier.Close(); err != nil {
			log.Printf("⚠️  Failed to close RabbitMQ connection: %v\n", err)
		}
	}, nil
}
