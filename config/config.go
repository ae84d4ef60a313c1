package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	Port      string
	DBPath    string
	LogLevel  string
	LogFormat string

	LLMProvider  string // openai|gemini|mock
	LLMEndpoint  string
	LLMAPIKey    string
	LLMModel     string
	GeminiAPIKey string
	GeminiModel  string

	EmbProvider string // openai|gemini|none
	EmbEndpoint string
	EmbAPIKey   string
	EmbModel    string

	AuthJWTSecret      string
	AllowedEmailDomain string

	StorageDir       string
	MaxUploadBytes   int64
	KBAllowedDomains []string

	LockTTL     time.Duration
	PromptsFile string

	NATSURL            string
	EventSubjectPrefix string

	InboxDir      string
	InboxPatterns []string

	// EnvFileErr is set when .env could not be loaded; callers log it.
	EnvFileErr error `json:"-"`
}

func Load() AppConfig {
	envErr := godotenv.Load()

	get := func(k, def string) string {
		if v := os.Getenv(k); v != "" {
			return v
		}
		return def
	}
	list := func(k, def string) []string {
		var out []string
		for _, s := range strings.Split(get(k, def), ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		return out
	}

	cfg := AppConfig{
		Port:      get("PORT", "8080"),
		DBPath:    get("DB_PATH", "halokm.db"),
		LogLevel:  get("LOG_LEVEL", "info"),
		LogFormat: get("LOG_FORMAT", "json"),

		LLMProvider:  strings.ToLower(get("LLM_PROVIDER", "")),
		LLMEndpoint:  get("LLM_ENDPOINT", "https://api.openai.com"),
		LLMAPIKey:    get("LLM_API_KEY", ""),
		LLMModel:     get("LLM_MODEL", "gpt-4o-mini"),
		GeminiAPIKey: get("GEMINI_API_KEY", ""),
		GeminiModel:  get("GEMINI_MODEL", "gemini-2.5-flash"),

		EmbProvider: strings.ToLower(get("EMB_PROVIDER", "none")),
		EmbEndpoint: get("EMB_ENDPOINT", "https://api.openai.com"),
		EmbAPIKey:   get("EMB_API_KEY", ""),
		EmbModel:    get("EMB_MODEL", ""),

		AuthJWTSecret:      get("AUTH_JWT_SECRET", ""),
		AllowedEmailDomain: strings.ToLower(strings.TrimPrefix(get("ALLOWED_EMAIL_DOMAIN", ""), "@")),

		StorageDir:       get("STORAGE_DIR", "uploads"),
		KBAllowedDomains: list("KB_ALLOWED_DOMAINS", ""),

		PromptsFile: get("PROMPTS_FILE", ""),

		NATSURL:            get("NATS_URL", ""),
		EventSubjectPrefix: get("EVENT_SUBJECT_PREFIX", "halokm"),

		InboxDir:      get("INBOX_DIR", ""),
		InboxPatterns: list("INBOX_PATTERNS", "**/*.{pdf,docx,md,txt,html}"),

		EnvFileErr: envErr,
	}

	cfg.MaxUploadBytes, _ = strconv.ParseInt(get("MAX_UPLOAD_BYTES", "20971520"), 10, 64)
	cfg.LockTTL, _ = time.ParseDuration(get("LOCK_TTL", "2m"))

	if cfg.LLMProvider == "" {
		switch {
		case cfg.LLMAPIKey != "":
			cfg.LLMProvider = "openai"
		case cfg.GeminiAPIKey != "":
			cfg.LLMProvider = "gemini"
		default:
			cfg.LLMProvider = "mock"
		}
	}
	return cfg
}

func (c AppConfig) Validate() error {
	var errs []error
	if c.LockTTL <= 0 {
		errs = append(errs, errors.New("LOCK_TTL must be a positive duration"))
	}
	if c.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("MAX_UPLOAD_BYTES must be positive"))
	}
	switch c.LLMProvider {
	case "openai":
		if c.LLMAPIKey == "" {
			errs = append(errs, errors.New("LLM_API_KEY is required for the openai provider"))
		}
	case "gemini":
		if c.GeminiAPIKey == "" {
			errs = append(errs, errors.New("GEMINI_API_KEY is required for the gemini provider"))
		}
	case "mock":
	default:
		errs = append(errs, fmt.Errorf("unknown LLM_PROVIDER %q", c.LLMProvider))
	}
	switch c.EmbProvider {
	case "openai", "gemini", "none":
	default:
		errs = append(errs, fmt.Errorf("unknown EMB_PROVIDER %q", c.EmbProvider))
	}
	return errors.Join(errs...)
}

// Redacted returns a copy safe to log.
func (c AppConfig) Redacted() AppConfig {
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return "***"
	}
	c.LLMAPIKey = mask(c.LLMAPIKey)
	c.GeminiAPIKey = mask(c.GeminiAPIKey)
	c.EmbAPIKey = mask(c.EmbAPIKey)
	c.AuthJWTSecret = mask(c.AuthJWTSecret)
	return c
}
