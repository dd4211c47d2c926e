package config

import (
	"os"
	"path/filepath"
	"testing"
)

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CONFIG_FILE", "PORT", "LLM_PROVIDER", "LLM_API_KEY", "OPENAI_API_KEY", "GEMINI_API_KEY",
		"CHAT_MODEL", "VISION_MODEL", "REQUEST_TIMEOUT_SECONDS", "HEADERS_TIMEOUT_SECONDS",
		"KEEP_ALIVE_TIMEOUT_SECONDS", "HISTORY_WINDOW", "PDF_MIN_TEXT_CHARS", "MAX_UPLOAD_MB",
		"FIELDS_SCHEMA_MODE", "SESSION_STORE", "LLM_RETRY_MAX_ATTEMPTS",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != "3000" {
		t.Fatalf("expected default port 3000, got %q", cfg.Port)
	}
	if cfg.LLMAPIKey != "" {
		t.Fatalf("expected empty api key, got %q", cfg.LLMAPIKey)
	}
	if cfg.VisionModel != cfg.ChatModel {
		t.Fatalf("expected vision model to default to chat model, got %q vs %q", cfg.VisionModel, cfg.ChatModel)
	}
	if cfg.RequestTimeoutSeconds != 900 {
		t.Fatalf("expected request timeout 900, got %d", cfg.RequestTimeoutSeconds)
	}
	if cfg.HeadersTimeoutSeconds != 960 {
		t.Fatalf("expected headers timeout 960, got %d", cfg.HeadersTimeoutSeconds)
	}
	if cfg.KeepAliveTimeoutSeconds != 75 {
		t.Fatalf("expected keep-alive 75, got %d", cfg.KeepAliveTimeoutSeconds)
	}
	if cfg.HistoryWindow != 12 || cfg.PDFMinTextChars != 50 || cfg.MaxUploadMB != 50 {
		t.Fatalf("unexpected pipeline defaults: %+v", cfg)
	}
	if cfg.LLMRetryMaxAttempts != 1 {
		t.Fatalf("expected single model attempt by default, got %d", cfg.LLMRetryMaxAttempts)
	}
	if cfg.SessionStore != "memory" || cfg.FieldsSchemaMode != "off" {
		t.Fatalf("unexpected store/schema defaults: %q %q", cfg.SessionStore, cfg.FieldsSchemaMode)
	}
}

func TestLoadAPIKeyFallbackOrder(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("GEMINI_API_KEY", "gemini-key")
	if cfg, _ := Load(); cfg.LLMAPIKey != "gemini-key" {
		t.Fatalf("expected gemini fallback key, got %q", cfg.LLMAPIKey)
	}

	t.Setenv("OPENAI_API_KEY", "openai-key")
	if cfg, _ := Load(); cfg.LLMAPIKey != "openai-key" {
		t.Fatalf("expected openai key to win over gemini, got %q", cfg.LLMAPIKey)
	}

	t.Setenv("LLM_API_KEY", "explicit")
	if cfg, _ := Load(); cfg.LLMAPIKey != "explicit" {
		t.Fatalf("expected explicit key, got %q", cfg.LLMAPIKey)
	}
}

func TestLoadYAMLFileIsOverriddenByEnv(t *testing.T) {
	clearConfigEnv(t)

	path := filepath.Join(t.TempDir(), "docqa.yaml")
	content := "CHAT_MODEL: file-model\nHISTORY_WINDOW: \"8\"\nPORT: \"4000\"\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "5000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ChatModel != "file-model" {
		t.Fatalf("expected chat model from file, got %q", cfg.ChatModel)
	}
	if cfg.VisionModel != "file-model" {
		t.Fatalf("expected vision model to follow file chat model, got %q", cfg.VisionModel)
	}
	if cfg.HistoryWindow != 8 {
		t.Fatalf("expected history window 8, got %d", cfg.HistoryWindow)
	}
	if cfg.Port != "5000" {
		t.Fatalf("expected env port to win, got %q", cfg.Port)
	}
}

func TestLoadRejectsUnreadableConfigFile(t *testing.T) {
	clearConfigEnv(t)

	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for missing config file")
	}

	path := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(path, []byte("PORT: [unterminated\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for malformed config file")
	}
}
