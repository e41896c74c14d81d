package main

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/gorm"

	"alfredoptarigan/resume-matcher/internal/app"
	"alfredoptarigan/resume-matcher/internal/config"
	"alfredoptarigan/resume-matcher/internal/services"
)

func main() {
	log.Println("🚀 Starting resume ingestion...")

	cfg := config.Load()

	dir := "./resumes"
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}

	var db *gorm.DB
	if cfg.Provider.Name == "local" {
		var err error
		db, err = config.InitDatabase(cfg)
		if err != nil {
			log.Fatalf("❌ Failed to initialize database: %v", err)
		}
	}

	documentService, err := app.NewDocumentService(cfg, db)
	if err != nil {
		log.Fatalf("❌ Failed to initialize document service: %v", err)
	}

	ctx := context.Background()

	if err := documentService.CreateIndex(ctx, cfg.Provider.IndexName); err != nil {
		log.Fatalf("❌ Failed to create index %s: %v", cfg.Provider.IndexName, err)
	}

	var paths []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".pdf", ".docx":
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		log.Fatalf("❌ Failed to scan %s: %v", dir, err)
	}

	if len(paths) == 0 {
		log.Printf("⚠️  No PDF or DOCX resumes found in %s", dir)
		return
	}

	successCount := 0
	failCount := 0

	for _, path := range paths {
		log.Printf("\n📄 Processing: %s", path)

		data, err := os.ReadFile(path)
		if err != nil {
			log.Printf("   ❌ Failed to read file: %v", err)
			failCount++
			continue
		}

		file := services.DocumentFile{
			Name:        filepath.Base(path),
			ContentType: services.DetectContentType(path, ""),
			Data:        data,
		}

		resume, err := documentService.IngestResume(ctx, file)
		if err != nil {
			log.Printf("   ❌ Failed to ingest resume: %v", err)
			failCount++
			if errors.Is(err, services.ErrQuotaExceeded) {
				log.Println("   🛑 Quota exhausted, stopping")
				break
			}
			continue
		}
		log.Printf("   ✅ Ingested as %s (%d skills)", resume.ID, len(resume.Skills))

		if err := documentService.IndexDocument(ctx, cfg.Provider.IndexName, resume.ID); err != nil {
			log.Printf("   ❌ Failed to index resume: %v", err)
			failCount++
			continue
		}

		log.Printf("   ✅ Indexed into %s", cfg.Provider.IndexName)
		successCount++
	}

	// Summary
	log.Println("\n" + strings.Repeat("=", 60))
	log.Printf("📊 Ingestion Summary:")
	log.Printf("   ✅ Successful: %d resumes", successCount)
	log.Printf("   ❌ Failed: %d resumes", failCount)
	log.Println(strings.Repeat("=", 60))

	if failCount > 0 {
		log.Println("⚠️  Some resumes failed to ingest. Please check the logs above.")
		os.Exit(1)
	}

	log.Println("✅ All resumes ingested successfully!")
}
