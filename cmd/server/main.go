package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Destcable/API-cloud-storage/internal/config"
	"github.com/Destcable/API-cloud-storage/internal/database"
	"github.com/Destcable/API-cloud-storage/internal/handlers"
	"github.com/Destcable/API-cloud-storage/internal/middleware"
	"github.com/Destcable/API-cloud-storage/internal/services"
	"github.com/Destcable/API-cloud-storage/internal/storage"
	"github.com/Destcable/API-cloud-storage/pkg/logger"
	"github.com/Destcable/API-cloud-storage/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	logger.Init()

	cfg := config.Load()
	utils.ConfigureJWT(cfg.JWT.Secret, cfg.JWT.ExpirationHours)

	db, err := database.Connect(cfg.DB)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}

	storageClient, err := storage.NewMinIOClient(cfg.MinIO)
	if err != nil {
		log.Fatalf("minio initialization failed: %v", err)
	}
	if err := storageClient.EnsureBucket(context.Background()); err != nil {
		log.Fatalf("failed ensuring minio bucket: %v", err)
	}

	ledger := services.NewAccessLedger(db)
	registry := services.NewFileRegistry(db, storageClient, ledger, cfg.Upload)

	authHandler := handlers.NewAuthHandler(db)
	filesHandler := handlers.NewFilesHandler(registry)
	accessesHandler := handlers.NewAccessesHandler(ledger)

	authMiddleware := middleware.NewAuthMiddleware(db)

	app := fiber.New(fiber.Config{BodyLimit: 4 * 1024 * 1024})
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(middleware.CORS())
	app.Use(middleware.RequestLogger())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	})

	app.Post("/authorization", authHandler.Login)
	app.Post("/registration", authHandler.Register)
	app.Get("/logout", authMiddleware.RequireAuth, authHandler.Logout)

	fileRoutes := app.Group("/files", authMiddleware.RequireAuth)
	fileRoutes.Post("/", filesHandler.Upload)
	// Registered before /:file_key so "disk" is never read as a file key.
	fileRoutes.Get("/disk", filesHandler.ListDisk)
	fileRoutes.Get("/:file_key", filesHandler.Download)
	fileRoutes.Patch("/:file_key", filesHandler.Rename)
	fileRoutes.Delete("/:file_key", filesHandler.Delete)
	fileRoutes.Post("/:file_key/accesses", accessesHandler.Grant)
	fileRoutes.Delete("/:file_key/accesses", accessesHandler.Revoke)

	listenAddr := fmt.Sprintf(":%s", cfg.Server.Port)

	logger.Info("server_starting", map[string]interface{}{
		"port":    cfg.Server.Port,
		"address": listenAddr,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(listenAddr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Printf("shutting down server due to signal: %s", sig)
		shutdownDone := make(chan struct{})
		go func() {
			_ = app.Shutdown()
			close(shutdownDone)
		}()
		select {
		case <-shutdownDone:
		case <-time.After(10 * time.Second):
			log.Print("forced shutdown timeout reached")
		}
	case err := <-errCh:
		if err != nil {
			log.Fatalf("server error: %v", err)
		}
	}
}
