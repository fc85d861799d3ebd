package main

import (
	"context"
	"flag"
	"log"
	"net/http"

	"github.com/krishnx/opportunity-board/internal/api"
	"github.com/krishnx/opportunity-board/internal/auth"
	"github.com/krishnx/opportunity-board/internal/config"
	"github.com/krishnx/opportunity-board/internal/db"
	"github.com/krishnx/opportunity-board/internal/favicon"
	"github.com/krishnx/opportunity-board/internal/uploads"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	if err := db.ApplyMigrations(ctx, pool); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	// Seed the configured curator into the registry so the registry guard
	// has a row to check from the first login.
	admins := db.NewAdminStore(pool)
	if cfg.Admin.Email != "" {
		if _, err := admins.Add(ctx, cfg.Admin.Email, cfg.Admin.Name); err != nil {
			log.Fatalf("Failed to seed admin registry: %v", err)
		}
	}

	authSvc := auth.NewService(auth.Config{
		Username:     cfg.Admin.Username,
		Password:     cfg.Admin.Password,
		PasswordHash: cfg.Admin.PasswordHash,
		AdminEmail:   cfg.Admin.Email,
		Secret:       []byte(cfg.JWTSecret),
	})

	resolverOpts := []favicon.Option{favicon.WithTimeout(cfg.Favicon.Timeout)}
	if cfg.Favicon.ServiceBase != "" {
		resolverOpts = append(resolverOpts, favicon.WithServiceBase(cfg.Favicon.ServiceBase))
	}
	resolver := favicon.NewResolver(resolverOpts...)

	var uploader uploads.Uploader
	if u, err := uploads.NewCloudinaryUploader(); err == nil {
		uploader = u
	} else {
		log.Printf("Image host disabled: %v", err)
	}

	srv := api.NewServer(pool, authSvc, resolver, uploader, api.Options{CORSOrigins: cfg.CORSOrigins})
	log.Printf("Server starting on port %s...", cfg.Port)
	if err := srv.Start(cfg.Port); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}
