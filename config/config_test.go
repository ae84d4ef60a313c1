package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("LLM_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("LLM_PROVIDER", "")
	for _, k := range []string{"PORT", "LOCK_TTL", "MAX_UPLOAD_BYTES", "INBOX_PATTERNS", "EMB_PROVIDER"} {
		t.Setenv(k, "")
	}

	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "mock", cfg.LLMProvider)
	assert.Equal(t, 2*time.Minute, cfg.LockTTL)
	assert.Equal(t, int64(20<<20), cfg.MaxUploadBytes)
	assert.Equal(t, []string{"**/*.{pdf,docx,md,txt,html}"}, cfg.InboxPatterns)
	require.NoError(t, cfg.Validate())
}

func TestLoad_ProviderInferredFromKey(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("LLM_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "g-key")

	cfg := Load()
	assert.Equal(t, "gemini", cfg.LLMProvider)
}

func TestLoad_ListsAndDomain(t *testing.T) {
	t.Setenv("KB_ALLOWED_DOMAINS", " example.com, ,docs.example.org ")
	t.Setenv("ALLOWED_EMAIL_DOMAIN", "@Halogen.no")

	cfg := Load()
	assert.Equal(t, []string{"example.com", "docs.example.org"}, cfg.KBAllowedDomains)
	assert.Equal(t, "halogen.no", cfg.AllowedEmailDomain)
}

func TestValidate(t *testing.T) {
	base := AppConfig{LLMProvider: "mock", EmbProvider: "none", LockTTL: time.Minute, MaxUploadBytes: 1}
	require.NoError(t, base.Validate())

	bad := base
	bad.LockTTL = 0
	bad.LLMProvider = "openai"
	bad.EmbProvider = "cohere"
	err := bad.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LOCK_TTL")
	assert.Contains(t, err.Error(), "LLM_API_KEY")
	assert.Contains(t, err.Error(), "EMB_PROVIDER")
}

func TestRedacted(t *testing.T) {
	cfg := AppConfig{LLMAPIKey: "secret", AuthJWTSecret: "jwt"}
	r := cfg.Redacted()
	assert.Equal(t, "***", r.LLMAPIKey)
	assert.Equal(t, "***", r.AuthJWTSecret)
	assert.Equal(t, "", r.GeminiAPIKey)
	assert.Equal(t, "secret", cfg.LLMAPIKey)
}
