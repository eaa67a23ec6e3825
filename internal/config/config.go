// Package config loads process-wide settings from the environment.
//
// A Config is built once at boot by Load and treated as read-only afterwards.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// ErrMissingSessionSecret is returned by Load when SESSION_SECRET is unset.
var ErrMissingSessionSecret = errors.New("SESSION_SECRET is required to sign session cookies")

// Store backends accepted by STORE_BACKEND.
const (
	StoreMemory    = "memory"
	StoreFirestore = "firestore"
	StorePostgres  = "postgres"
	StoreSQLite    = "sqlite"
	StoreGCS       = "gcs"
)

// Default Workers AI fallback chain, most capable model first.
var DefaultWorkersAIModels = []string{
	"@cf/qwen/qwq-32b",
	"@cf/deepseek-ai/deepseek-r1-distill-qwen-32b",
	"@cf/meta/llama-3.3-70b-instruct-fp8-fast",
}

// Config holds runtime settings for the server.
type Config struct {
	Port           string
	Env            string
	AppURL         string
	AllowedOrigins []string

	SessionSecret   string
	SessionTTL      time.Duration
	SkipAuth        bool
	AuthDebugErrors bool

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	StoreBackend string
	DatabaseURL  string
	SQLitePath   string
	GCPProject   string
	GCSBucket    string
	RedisURL     string
	CacheTTL     time.Duration

	CFAccountID     string
	CFAPIToken      string
	WorkersAIModels []string
	GeminiAPIKey    string
	GeminiModel     string

	ServiceAccountJSON string
	ServiceEmail       string
	ServiceKey         string
	DriveFolderID      string

	CurrencySymbol   string
	CurrencyGrouping string

	LogLevel  string
	LogFormat string
}

// LoadDefaults populates Config with development defaults.
func (c *Config) LoadDefaults() {
	c.Port = "8111"
	c.Env = "production"
	c.AppURL = "https://jimikki-app.pages.dev"
	c.AllowedOrigins = []string{"http://localhost:1234", "https://jimikki-app.pages.dev"}
	c.SessionTTL = 30 * 24 * time.Hour
	c.GoogleClientID = "491563045638-ro331pkasoe96o2jfhrd33v6l587vrf4.apps.googleusercontent.com"
	c.StoreBackend = StoreMemory
	c.SQLitePath = "jimikki.db"
	c.CacheTTL = 5 * time.Minute
	c.WorkersAIModels = append([]string(nil), DefaultWorkersAIModels...)
	c.GeminiModel = "gemini-2.0-flash"
	c.CurrencySymbol = "₹"
	c.CurrencyGrouping = "indian"
	c.LogLevel = "info"
	c.LogFormat = "json"
}

// Load builds a Config from defaults overlaid with environment variables read
// through getenv. Pass os.Getenv in production.
func Load(getenv func(string) string) (*Config, error) {
	if getenv == nil {
		getenv = os.Getenv
	}

	cfg := &Config{}
	cfg.LoadDefaults()

	setString(&cfg.Port, getenv("PORT"))
	setString(&cfg.Env, getenv("ENV"))
	setString(&cfg.AppURL, getenv("APP_URL"))
	if v := getenv("ALLOWED_ORIGINS"); v != "" {
		cfg.AllowedOrigins = splitList(v)
	}

	cfg.SessionSecret = getenv("SESSION_SECRET")
	if err := setDuration(&cfg.SessionTTL, "SESSION_TTL", getenv("SESSION_TTL")); err != nil {
		return nil, err
	}
	cfg.SkipAuth = getenv("SKIP_AUTH") == "true"
	cfg.AuthDebugErrors = getenv("AUTH_DEBUG_ERRORS") == "true"

	setString(&cfg.GoogleClientID, getenv("GOOGLE_CLIENT_ID"))
	cfg.GoogleClientSecret = getenv("GOOGLE_CLIENT_SECRET")
	cfg.GoogleRedirectURL = getenv("GOOGLE_REDIRECT_URL")
	if cfg.GoogleRedirectURL == "" {
		cfg.GoogleRedirectURL = strings.TrimRight(cfg.AppURL, "/") + "/api/auth/callback"
	}

	// USE_MEMORY_STORE and ENV=local keep the in-memory store for local runs.
	setString(&cfg.StoreBackend, strings.ToLower(getenv("STORE_BACKEND")))
	if getenv("USE_MEMORY_STORE") == "true" || cfg.IsLocal() {
		cfg.StoreBackend = StoreMemory
	}
	cfg.DatabaseURL = getenv("DATABASE_URL")
	setString(&cfg.SQLitePath, getenv("SQLITE_PATH"))
	cfg.GCPProject = getenv("GOOGLE_CLOUD_PROJECT")
	cfg.GCSBucket = getenv("GCS_BUCKET")
	cfg.RedisURL = getenv("REDIS_URL")
	if err := setDuration(&cfg.CacheTTL, "CACHE_TTL", getenv("CACHE_TTL")); err != nil {
		return nil, err
	}

	cfg.CFAccountID = getenv("CF_ACCOUNT_ID")
	cfg.CFAPIToken = getenv("CF_API_TOKEN")
	if v := getenv("CF_AI_MODELS"); v != "" {
		cfg.WorkersAIModels = splitList(v)
	}
	cfg.GeminiAPIKey = getenv("GEMINI_API_KEY")
	setString(&cfg.GeminiModel, getenv("GEMINI_MODEL"))

	cfg.ServiceAccountJSON = getenv("GOOGLE_SERVICE_ACCOUNT_JSON")
	cfg.ServiceEmail = getenv("GOOGLE_SERVICE_EMAIL")
	cfg.ServiceKey = getenv("GOOGLE_SERVICE_KEY")
	cfg.DriveFolderID = getenv("GOOGLE_DRIVE_FOLDER_ID")

	setString(&cfg.CurrencySymbol, getenv("CURRENCY_SYMBOL"))
	setString(&cfg.CurrencyGrouping, strings.ToLower(getenv("CURRENCY_GROUPING")))
	setString(&cfg.LogLevel, strings.ToLower(getenv("LOG_LEVEL")))
	setString(&cfg.LogFormat, strings.ToLower(getenv("LOG_FORMAT")))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports configuration that makes the server unable to run.
func (c *Config) Validate() error {
	if c.SessionSecret == "" {
		return ErrMissingSessionSecret
	}
	switch c.StoreBackend {
	case StoreMemory:
	case StoreFirestore:
		if c.GCPProject == "" {
			return fmt.Errorf("STORE_BACKEND=firestore requires GOOGLE_CLOUD_PROJECT")
		}
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("STORE_BACKEND=postgres requires DATABASE_URL")
		}
	case StoreSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("STORE_BACKEND=sqlite requires SQLITE_PATH")
		}
	case StoreGCS:
		if c.GCSBucket == "" {
			return fmt.Errorf("STORE_BACKEND=gcs requires GCS_BUCKET")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	if c.CurrencyGrouping != "indian" && c.CurrencyGrouping != "western" {
		return fmt.Errorf("CURRENCY_GROUPING must be indian or western, got %q", c.CurrencyGrouping)
	}
	return nil
}

// IsLocal reports whether the process runs in local development mode.
func (c *Config) IsLocal() bool {
	return c.Env == "local"
}

// WorkersAIConfigured reports whether Cloudflare Workers AI credentials are present.
func (c *Config) WorkersAIConfigured() bool {
	return c.CFAccountID != "" && c.CFAPIToken != ""
}

// SheetsConfigured reports whether service-account credentials are present.
func (c *Config) SheetsConfigured() bool {
	return c.ServiceAccountJSON != "" || (c.ServiceEmail != "" && c.ServiceKey != "")
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, name, v string) error {
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", name, v, err)
	}
	*dst = d
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
