package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/akashffjdn/Crackers-sub000/internal/app"
)

func main() {
	_ = godotenv.Load()

	zerolog.TimeFieldFormat = time.RFC3339
	zlog.Logger = zlog.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})

	dsn := os.Getenv("DB_DSN")
	if strings.TrimSpace(dsn) == "" {
		host := envOr("DB_HOST", "localhost")
		port := envOr("DB_PORT", "5432")
		user := envOr("DB_USER", envOr("POSTGRES_USER", "postgres"))
		pass := envOr("DB_PASSWORD", envOr("POSTGRES_PASSWORD", "postgres"))
		name := envOr("DB_NAME", envOr("POSTGRES_DB", "crackers"))
		ssl := envOr("DB_SSLMODE", "disable")
		dsn = "host=" + host + " user=" + user + " password=" + pass + " dbname=" + name + " port=" + port + " sslmode=" + ssl
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to connect to database")
	}

	application, err := app.NewApp(db)
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to create app")
	}
	if err := application.Migrate(); err != nil {
		zlog.Fatal().Err(err).Msg("failed to migrate database")
	}

	// Warm both catalog stores; a failed fetch leaves the store empty with
	// its message recorded, and /api/admin/refresh is the retry path.
	warmCtx, cancelWarm := context.WithTimeout(context.Background(), 15*time.Second)
	if err := application.Categories.Refresh(warmCtx); err != nil {
		zlog.Warn().Err(err).Msg("category warmup failed")
	}
	if err := application.Products.Refresh(warmCtx); err != nil {
		zlog.Warn().Err(err).Msg("product warmup failed")
	}
	cancelWarm()

	stopRefresh := make(chan struct{})
	if mins, _ := strconv.Atoi(os.Getenv("CATALOG_REFRESH_MINUTES")); mins > 0 {
		go func() {
			t := time.NewTicker(time.Duration(mins) * time.Minute)
			defer t.Stop()
			for {
				select {
				case <-t.C:
					ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
					_ = application.Categories.Refresh(ctx)
					_ = application.Products.Refresh(ctx)
					cancel()
				case <-stopRefresh:
					return
				}
			}
		}()
	}

	port := envOr("PORT", "8080")
	ln, err := net.Listen("tcp", ":"+port)
	if err != nil {
		zlog.Fatal().Err(err).Str("port", port).Msg("listen")
	}

	server := &http.Server{Handler: application.HTTPHandler()}

	go func() {
		if err := server.Serve(ln); err != nil && err != http.ErrServerClosed {
			zlog.Error().Err(err).Msg("serve")
		}
	}()
	zlog.Info().Str("port", port).Msg("listening")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	close(stopRefresh)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(ctx)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
