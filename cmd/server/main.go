package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/jimikki-app/backend/internal/auth"
	"github.com/jimikki-app/backend/internal/chat"
	"github.com/jimikki-app/backend/internal/config"
	"github.com/jimikki-app/backend/internal/finance"
	"github.com/jimikki-app/backend/internal/inference"
	"github.com/jimikki-app/backend/internal/logging"
	"github.com/jimikki-app/backend/internal/prompt"
	"github.com/jimikki-app/backend/internal/service"
	"github.com/jimikki-app/backend/internal/sheets"
	"github.com/jimikki-app/backend/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(os.Getenv)
	if err != nil {
		logging.New(os.Stderr, "text", "error").Error(ctx, "invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logging.New(os.Stdout, cfg.LogFormat, cfg.LogLevel)

	if err := run(ctx, cfg, log); err != nil {
		log.Error(ctx, "server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log logging.Logger) error {
	storeImpl, err := store.Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer storeImpl.Close()

	money := finance.Formatter{Symbol: cfg.CurrencySymbol, Grouping: finance.ParseGrouping(cfg.CurrencyGrouping)}

	chain := inference.NewChainFromConfig(cfg, log)
	if !chain.Configured() {
		log.Warn(ctx, "no inference provider configured, chat will answer with a setup notice")
	} else {
		log.Info(ctx, "inference chain ready", "models", chain.Models())
	}
	chatService := chat.NewService(storeImpl, chain, prompt.NewBuilder(money), log)

	// Sheets sync is optional; saves still succeed without it.
	var exporter service.Exporter
	if cfg.SheetsConfigured() {
		creds := sheets.Credentials{
			JSON:  cfg.ServiceAccountJSON,
			Email: cfg.ServiceEmail,
			Key:   cfg.ServiceKey,
		}
		exporter = sheets.NewExporter(storeImpl, sheets.NewGoogleConnector(creds), cfg.DriveFolderID, money, log)
		log.Info(ctx, "sheets sync enabled", "folder", cfg.DriveFolderID)
	} else {
		log.Warn(ctx, "no service account configured, sheets sync disabled")
	}

	codec := auth.NewSessionCodec(cfg.SessionSecret)
	oauth := auth.NewOAuthBridge(auth.OAuthConfig{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
		AppURL:       cfg.AppURL,
		SessionTTL:   cfg.SessionTTL,
		DebugErrors:  cfg.AuthDebugErrors,
	}, codec, log)

	authMiddleware := auth.NewGate(codec, log, cfg.AuthDebugErrors).Middleware
	if cfg.SkipAuth && cfg.IsLocal() {
		log.Warn(ctx, "SKIP_AUTH enabled, every request acts as "+auth.LocalDevEmail)
		authMiddleware = auth.LocalDevMiddleware
	}

	handler := service.NewRouter(service.RouterConfig{
		Store:          storeImpl,
		Chat:           chatService,
		Exporter:       exporter,
		OAuth:          oauth,
		Auth:           authMiddleware,
		AllowedOrigins: cfg.AllowedOrigins,
		Log:            log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h2c.NewHandler(handler, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting server", "port", cfg.Port, "env", cfg.Env)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info(context.Background(), "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
