package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/a-steris/paydash/internal/adapters/anticaptcha"
	"github.com/a-steris/paydash/internal/adapters/browser"
	"github.com/a-steris/paydash/internal/adapters/slack"
	"github.com/a-steris/paydash/internal/adapters/smtp"
	"github.com/a-steris/paydash/internal/adapters/stripeapi"
	"github.com/a-steris/paydash/internal/app/ports"
	appservices "github.com/a-steris/paydash/internal/app/services"
	"github.com/a-steris/paydash/internal/config"
	"github.com/a-steris/paydash/internal/creds"
	"github.com/a-steris/paydash/internal/downloads"
	"github.com/a-steris/paydash/internal/server"
	"github.com/a-steris/paydash/internal/server/routes"
	"github.com/a-steris/paydash/internal/vault"
)

func main() {
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(log)

	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file loaded", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		return
	}
	if cfg.IsLocalDevelopment() {
		slog.Warn("Running with local development fallbacks")
	}

	credVault, err := vault.New(cfg.Auth.VaultKey)
	if err != nil {
		slog.Error("Failed to initialize credential vault", "error", err)
		return
	}
	credStore := creds.NewStore(cfg.Auth.SessionSecret, cfg.Auth.SecureCookie, credVault)

	downloadStore, err := downloads.NewStore(cfg.Sync.DownloadDir)
	if err != nil {
		slog.Error("Failed to prepare downloads directory", "error", err)
		return
	}

	stripeClient := stripeapi.New()
	engine := browser.NewEngine(
		browser.NewChromeFactory(cfg.Sync.Headless, os.TempDir()),
		func(apiKey string) ports.CaptchaSolver { return anticaptcha.NewClient(apiKey) },
		downloadStore,
		cfg.SelectorWait(),
		log,
	)

	exportService := appservices.NewExportService(
		stripeClient,
		smtp.NewMailer(cfg.Notify.SMTPHost, cfg.Notify.SMTPPort, cfg.Notify.SMTPUser, cfg.Notify.SMTPPassword, cfg.Notify.SMTPFrom),
		slack.NewNotifier(),
		downloadStore,
		log,
	)
	syncService := appservices.NewSyncService(engine, downloadStore, cfg.LoginTimeout(), log)

	oauthEnabled := cfg.Stripe.ClientID != "" && cfg.Stripe.ClientSecret != ""
	if oauthEnabled {
		routes.ConfigureOAuth(routes.OAuthConfig{
			SessionKey:    cfg.Auth.SessionSecret,
			ClientID:      cfg.Stripe.ClientID,
			ClientSecret:  cfg.Stripe.ClientSecret,
			CallbackURL:   cfg.Stripe.CallbackURL,
			SecureCookies: cfg.Auth.SecureCookie,
		})
	}

	guard := routes.NewCredentialGuard(credStore)
	srv := server.New(log)
	srv.RegisterRouter(routes.NewSettingsRoutes(credStore, stripeClient))
	srv.RegisterRouter(routes.NewDataRoutes(guard, stripeClient))
	srv.RegisterRouter(routes.NewExportRoutes(guard, exportService, credStore, cfg.Notify.SlackWebhookURL))
	srv.RegisterRouter(routes.NewSyncRoutes(guard, syncService))
	srv.RegisterRouter(routes.NewOAuthRoutes(credStore, oauthEnabled))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	slog.Info("Starting server", "port", cfg.Server.Port)
	slog.Error("Closing server", "error", srv.Start(addr))
}
