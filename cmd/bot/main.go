// Command bot runs the promo bot: the Telegram webhook API, the delivery
// channel, and the background ingestion scheduler that polls the marketplace
// feed and broadcasts new offers to registered users.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dfcarvalho/go-promo-bot/internal/config"
	"github.com/dfcarvalho/go-promo-bot/internal/feed"
	httpapi "github.com/dfcarvalho/go-promo-bot/internal/http"
	"github.com/dfcarvalho/go-promo-bot/internal/notify"
	"github.com/dfcarvalho/go-promo-bot/internal/observability"
	"github.com/dfcarvalho/go-promo-bot/internal/repo"
	"github.com/dfcarvalho/go-promo-bot/internal/services"
	"github.com/dfcarvalho/go-promo-bot/internal/sysutil"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	version := sysutil.FirstNonEmpty(os.Getenv("SERVICE_VERSION"), "dev")
	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database failed")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("schema migration failed")
	}
	log.Info().Str("path", cfg.DBPath).Msg("database ready")

	sender, err := notify.NewTelegramSender(notify.TelegramOptions{
		Token:   cfg.TelegramToken,
		APIBase: cfg.TelegramAPIBase,
		Timeout: cfg.SendTimeout,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("telegram sender setup failed")
	}

	feedClient, err := feed.NewClient(feed.ClientOptions{
		BaseURL: cfg.Feed.BaseURL,
		Query:   cfg.Feed.Query,
		Limit:   cfg.Feed.Limit,
		Timeout: cfg.Feed.Timeout,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("feed client setup failed")
	}

	ingest := &services.IngestService{
		DB:   db,
		Feed: feedClient,
		Dispatcher: &services.BroadcastService{
			DB:          db,
			Sender:      sender,
			SendTimeout: cfg.SendTimeout,
		},
		DefaultStore: cfg.Feed.DefaultStore,
		Interval:     cfg.PollInterval,
	}
	go ingest.Run(ctx)
	log.Info().Dur("interval", cfg.PollInterval).Msg("ingestion scheduler started")

	r := gin.New()
	httpapi.RegisterRoutes(r, db, sender, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("http shutdown incomplete")
	}
	if err := shutdownOTel(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("otel shutdown incomplete")
	}
}
