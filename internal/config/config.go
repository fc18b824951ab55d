package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Environment string
	Server      ServerConfig
	Auth        AuthConfig
	Stripe      StripeConfig
	Sync        SyncConfig
	Notify      NotifyConfig
}

type ServerConfig struct {
	Port int
}

type AuthConfig struct {
	SessionSecret string
	VaultKey      string
	SecureCookie  bool
}

type StripeConfig struct {
	ClientID     string
	ClientSecret string
	CallbackURL  string
}

type SyncConfig struct {
	DownloadDir     string
	Headless        bool
	LoginTimeoutMin int
	SelectorWaitSec int
	AntiCaptchaKey  string
}

type NotifyConfig struct {
	SlackWebhookURL string
	SMTPHost        string
	SMTPPort        int
	SMTPFrom        string
	SMTPUser        string
	SMTPPassword    string
}

func Load() (Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("paydash_env", "")
	v.SetDefault("app_env", "")
	v.SetDefault("go_env", "")
	v.SetDefault("paydash_port", 8080)
	v.SetDefault("paydash_secure_cookie", false)
	v.SetDefault("paydash_download_dir", "downloads")
	v.SetDefault("paydash_headless", true)
	v.SetDefault("paydash_login_timeout_min", 5)
	v.SetDefault("paydash_selector_wait_sec", 10)
	v.SetDefault("anticaptcha_api_key", "")
	v.SetDefault("slack_webhook_url", "")
	v.SetDefault("smtp_host", "")
	v.SetDefault("smtp_port", 587)
	v.SetDefault("smtp_from", "")
	v.SetDefault("smtp_user", "")
	v.SetDefault("smtp_password", "")

	env := resolveEnvironment(v)
	port := v.GetInt("paydash_port")
	if port <= 0 || port > 65535 {
		return Config{}, fmt.Errorf("invalid PAYDASH_PORT: %d", port)
	}

	loginTimeout := v.GetInt("paydash_login_timeout_min")
	if loginTimeout <= 0 {
		loginTimeout = 5
	}
	selectorWait := v.GetInt("paydash_selector_wait_sec")
	if selectorWait <= 0 {
		selectorWait = 10
	}
	if selectorWait > 60 {
		selectorWait = 60
	}

	callbackURL := strings.TrimSpace(v.GetString("stripe_callback_url"))
	if callbackURL == "" {
		callbackURL = fmt.Sprintf("http://localhost:%d/oauth/stripe/callback", port)
	}

	cfg := Config{
		Environment: env,
		Server:      ServerConfig{Port: port},
		Auth: AuthConfig{
			SessionSecret: strings.TrimSpace(v.GetString("paydash_session_secret")),
			VaultKey:      strings.TrimSpace(v.GetString("paydash_vault_key")),
			SecureCookie:  v.GetBool("paydash_secure_cookie"),
		},
		Stripe: StripeConfig{
			ClientID:     strings.TrimSpace(v.GetString("stripe_client_id")),
			ClientSecret: strings.TrimSpace(v.GetString("stripe_client_secret")),
			CallbackURL:  callbackURL,
		},
		Sync: SyncConfig{
			DownloadDir:     strings.TrimSpace(v.GetString("paydash_download_dir")),
			Headless:        v.GetBool("paydash_headless"),
			LoginTimeoutMin: loginTimeout,
			SelectorWaitSec: selectorWait,
			AntiCaptchaKey:  strings.TrimSpace(v.GetString("anticaptcha_api_key")),
		},
		Notify: NotifyConfig{
			SlackWebhookURL: strings.TrimSpace(v.GetString("slack_webhook_url")),
			SMTPHost:        strings.TrimSpace(v.GetString("smtp_host")),
			SMTPPort:        v.GetInt("smtp_port"),
			SMTPFrom:        strings.TrimSpace(v.GetString("smtp_from")),
			SMTPUser:        strings.TrimSpace(v.GetString("smtp_user")),
			SMTPPassword:    strings.TrimSpace(v.GetString("smtp_password")),
		},
	}

	if cfg.Sync.DownloadDir == "" {
		cfg.Sync.DownloadDir = "downloads"
	}
	if !cfg.IsLocalDevelopment() {
		if cfg.Auth.SessionSecret == "" {
			return Config{}, fmt.Errorf("PAYDASH_SESSION_SECRET is required outside local/dev environments")
		}
		if cfg.Auth.VaultKey == "" {
			return Config{}, fmt.Errorf("PAYDASH_VAULT_KEY is required outside local/dev environments")
		}
	}
	if cfg.IsLocalDevelopment() {
		if cfg.Auth.SessionSecret == "" {
			cfg.Auth.SessionSecret = "paydash-local-dev"
		}
		if cfg.Auth.VaultKey == "" {
			cfg.Auth.VaultKey = "paydash-local-dev-vault"
		}
	}

	return cfg, nil
}

func (c Config) IsLocalDevelopment() bool {
	switch strings.ToLower(strings.TrimSpace(c.Environment)) {
	case "", "local", "dev", "development", "test":
		return true
	default:
		return false
	}
}

func (c Config) LoginTimeout() time.Duration {
	return time.Duration(c.Sync.LoginTimeoutMin) * time.Minute
}

func (c Config) SelectorWait() time.Duration {
	return time.Duration(c.Sync.SelectorWaitSec) * time.Second
}

func resolveEnvironment(v *viper.Viper) string {
	for _, key := range []string{"paydash_env", "app_env", "go_env"} {
		value := strings.TrimSpace(v.GetString(key))
		if value != "" {
			return strings.ToLower(value)
		}
	}
	return ""
}
