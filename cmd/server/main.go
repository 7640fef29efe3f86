package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/vidtube/internal/auth"
	"github.com/iliyamo/vidtube/internal/config"
	"github.com/iliyamo/vidtube/internal/database"
	"github.com/iliyamo/vidtube/internal/handler"
	"github.com/iliyamo/vidtube/internal/middleware"
	"github.com/iliyamo/vidtube/internal/queue"
	"github.com/iliyamo/vidtube/internal/repository"
	"github.com/iliyamo/vidtube/internal/router"
	queue_publisher "github.com/iliyamo/vidtube/internal/service"
	"github.com/iliyamo/vidtube/internal/storage"
	"github.com/iliyamo/vidtube/internal/token"
)

func main() {
	_ = godotenv.Load() // .env is optional; real deployments use the environment

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	users := repository.NewUserRepo(db)

	issuer := token.Issuer{
		AccessSecret:  []byte(cfg.AccessSecret),
		RefreshSecret: []byte(cfg.RefreshSecret),
		AccessTTL:     cfg.AccessTTL(),
		RefreshTTL:    cfg.RefreshTTL(),
	}
	authSvc := auth.NewService(users, issuer)
	authSvc.Events = queue_publisher.Sink{}

	assets, err := storage.NewS3Uploader(config.LoadS3Config())
	if err != nil {
		log.Fatalf("asset store: %v", err)
	}

	// Reuse events land in logs/security.log via the broker.
	go func() {
		if err := queue.StartSecurityConsumer(); err != nil {
			log.Printf("security consumer stopped: %v", err)
		}
	}()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; rate limiting disabled")
	}
	limiter := middleware.RateLimit(config.LoadRateLimitConfig(), rdb)
	gate := middleware.AuthGate(authSvc)

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, authSvc, users, assets), gate, limiter)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
