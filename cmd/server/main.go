package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lodge_archive/internal/api"
	"lodge_archive/internal/api/middleware"
	"lodge_archive/internal/app/service"
	"lodge_archive/internal/common/security"
	"lodge_archive/internal/domain/policy"
	"lodge_archive/internal/domain/repository"
	"lodge_archive/internal/platform/config"
	"lodge_archive/internal/platform/database"
	"lodge_archive/internal/platform/queue"
	"lodge_archive/internal/platform/storage"
)

func main() {
	// 1. Load Configuration
	config.Load()
	fmt.Println("Configuration loaded.")

	// 2. Initialize JWT
	security.InitJWT()
	fmt.Println("JWT initialized.")

	// 3. Initialize Database
	database.Connect()
	defer database.Close()
	database.Migrate()
	fmt.Println("Database connected and migrated.")

	// 4. Initialize Redis
	queue.ConnectRedis()
	defer queue.CloseRedis()
	fmt.Println("Redis connected.")

	// 5. Initialize Object Storage
	blobStore, err := storage.NewS3Store(context.Background())
	if err != nil {
		log.Fatalf("Could not initialize object storage: %v", err)
	}
	fmt.Println("Object storage initialized.")

	// 6. Policy Engine (allow-lists injected, never compiled in)
	policyEngine := policy.NewEngine(config.AppConfig.AdminEmails, config.AppConfig.SuperAdminEmails)

	// 7. Repositories
	userRepo := repository.NewPgUserRepository(database.DB)
	workRepo := repository.NewPgWorkRepository(database.DB)
	resetTokenRepo := repository.NewRedisResetTokenRepository(queue.RDB)

	// 8. Services
	authService := service.NewAuthService(userRepo, policyEngine)
	resetService := service.NewPasswordResetService(userRepo, resetTokenRepo, config.AppConfig.ResetTokenTTL)
	workService := service.NewWorkService(workRepo, userRepo, blobStore, policyEngine)
	adminService := service.NewAdminService(userRepo, policyEngine)

	// 9. Router & HTTP Server
	auth := middleware.NewAuth(userRepo, policyEngine)
	router := api.NewRouter(auth, authService, resetService, workService, adminService)

	server := &http.Server{
		Addr:         ":" + config.AppConfig.APIPort,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 10. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on port %s", config.AppConfig.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v\n", config.AppConfig.APIPort, err)
		}
	}()
	log.Println("Server started successfully.")

	<-stop

	log.Println("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}

	log.Println("Server stopped gracefully.")
}
