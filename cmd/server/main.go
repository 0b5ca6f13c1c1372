package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/playmatatu/pachinko/internal/admin"
	"github.com/playmatatu/pachinko/internal/api"
	"github.com/playmatatu/pachinko/internal/config"
	"github.com/playmatatu/pachinko/internal/database"
	"github.com/playmatatu/pachinko/internal/game"
	"github.com/playmatatu/pachinko/internal/migrations"
	"github.com/playmatatu/pachinko/internal/redis"
	"github.com/playmatatu/pachinko/internal/ws"
	goredis "github.com/redis/go-redis/v9"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()
	production := cfg.Environment == "production"

	// Outside production the server runs without Postgres or Redis when they are unreachable.
	var db *sqlx.DB
	if cfg.DatabaseURL != "" {
		conn, err := database.Connect(cfg.DatabaseURL)
		switch {
		case err == nil:
			db = conn
			defer db.Close()
		case production:
			log.Fatalf("Failed to connect to database: %v", err)
		default:
			log.Printf("[DB] unavailable, running without persistence: %v", err)
		}
	}

	if db != nil && cfg.MigrateOnStart {
		log.Println("[MIGRATE] Running DB migrations on startup...")
		if err := migrations.RunMigrations(cfg.DatabaseURL, migrations.DefaultDir); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
	}

	if db != nil {
		if err := admin.ApplyRuntimeConfigToConfig(db, cfg); err != nil {
			log.Printf("[CONFIG] runtime overrides not applied: %v", err)
		}
	}

	var rdb *goredis.Client
	if cfg.RedisURL != "" {
		conn, err := redis.Connect(cfg.RedisURL)
		switch {
		case err == nil:
			rdb = conn
			defer rdb.Close()
		case production:
			log.Fatalf("Failed to connect to Redis: %v", err)
		default:
			log.Printf("[REDIS] unavailable, running without leaderboard or pubsub: %v", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mgr := game.InitializeManager(db, rdb, cfg)
	wsHandler := ws.NewHandler(ws.GameHub, mgr, cfg)

	// Session events reach websocket rooms through Redis pubsub when available,
	// otherwise in-process.
	if rdb != nil {
		ws.SetRedisClient(rdb)
		ws.StartSessionEventSubscriber(ctx, ws.GameHub)
	}
	mgr.SetEventListener(func(ev game.Event) { ws.DeliverEvent(ws.GameHub, ev) })

	game.StartIdleWorker(ctx, mgr, time.Duration(cfg.IdleWorkerPollInterval)*time.Second)
	mgr.StartReaper(ctx, time.Minute)

	if production {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	api.SetupRoutes(router, db, rdb, cfg, mgr, wsHandler)

	port := cfg.Port
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{Addr: ":" + port, Handler: router}

	go func() {
		log.Printf("Starting pachinko server on port %s", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP shutdown: %v", err)
	}
	mgr.Shutdown()
	log.Println("Server stopped")
}
