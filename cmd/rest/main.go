package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"ai-learning-coach-be/internal/bootstrap"
	"ai-learning-coach-be/internal/config"
	"ai-learning-coach-be/internal/model"
	"ai-learning-coach-be/internal/server"
	"ai-learning-coach-be/internal/tracer"
	"ai-learning-coach-be/pkg/database"

	"gorm.io/gorm"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Tracer
	shutdownTracer := tracer.InitTracer(cfg.Tracing)
	defer shutdownTracer(context.Background())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Initialize Database (optional)
	var gormDB *gorm.DB
	if cfg.Database.Connection != "" {
		db, err := database.NewGormDBFromDSN(cfg.Database.Connection, database.DefaultOptions(cfg.IsProduction()))
		if err != nil {
			log.Panicf("Unable to connect to GORM DB: %v", err)
		}
		if err := database.Migrate(db, model.Models()...); err != nil {
			log.Panicf("Unable to migrate database: %v", err)
		}
		gormDB = db
	}

	// 4. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(ctx, gormDB, cfg)
	defer container.Close()

	// 5. Start Background Services
	if err := container.ConsumerService.Consume(ctx); err != nil {
		log.Printf("Background Consumer Error: %v", err)
	}
	container.KnowledgeService.StartDefaultLoad(ctx)
	if container.ReloadSubscriber != nil {
		if err := container.KnowledgeService.SubscribeReload(ctx, container.ReloadSubscriber); err != nil {
			log.Printf("Knowledge reload subscription failed: %v", err)
		}
	}

	// 6. Initialize Server
	srv := server.New(cfg, container)

	go func() {
		<-ctx.Done()
		log.Println("Shutting down server...")
		if err := srv.Shutdown(); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	// 7. Run Server
	if err := srv.Run(); err != nil {
		log.Printf("Server stopped: %v", err)
	}
}
