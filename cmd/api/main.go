package main

import (
	"context"
	"log"

	"registration-portal/internal/ocr"
	"registration-portal/internal/registrations"
	"registration-portal/internal/shared/config"
	"registration-portal/internal/shared/server"
	"registration-portal/internal/shared/storage/db"
	"registration-portal/internal/vision"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	var repo registrations.Repo
	if cfg.DatabaseURL != "" {
		sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
		if err != nil {
			log.Fatalf("database connect: %v", err)
		}
		if err := db.RunMigrations(ctx, sqlDB); err != nil {
			log.Fatalf("run migrations: %v", err)
		}
		repo = &registrations.PGRepo{DB: sqlDB}
	} else {
		log.Printf("DATABASE_URL empty; using in-memory registrations repo")
		repo = registrations.NewMemoryRepo()
	}

	var recognizer vision.TextRecognizer = vision.Unconfigured{}
	if cfg.GoogleCredentialsJSON != "" {
		client, err := vision.NewGoogleClient(ctx, cfg.GoogleCredentialsJSON, cfg.VisionTimeout)
		if err != nil {
			log.Fatalf("vision client: %v", err)
		}
		recognizer = client
	} else {
		log.Printf("GOOGLE_CLOUD_CREDENTIALS_JSON empty; OCR extraction disabled")
	}

	r := server.NewRouter(server.RouterDeps{
		Config:     cfg,
		OCRHandler: ocr.NewHandler(recognizer),
		RegHandler: registrations.NewHandler(registrations.NewService(repo)),
	})

	addr := server.Addr(cfg.Port)
	log.Printf("Starting registration portal API on %s", addr)

	if err := r.Run(addr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
