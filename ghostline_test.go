package ghostline

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestResponseCompletionsEmptyNotNull(t *testing.T) {
	resp := Response{Completions: []Completion{}}
	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"completions":[]`) {
		t.Errorf("expected completions:[], got %s", data)
	}
}

func TestResponseErrorOmittedWhenNil(t *testing.T) {
	resp := Response{Completions: []Completion{}}
	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), `"error"`) {
		t.Errorf("expected no error key, got %s", data)
	}
	if strings.Contains(string(data), `"no_result"`) {
		t.Errorf("expected no_result to be omitted when false, got %s", data)
	}
}

func TestRequestJSONKeys(t *testing.T) {
	spaces := false
	req := Request{RequestID: 42, SessionID: "s", Text: "x", Language: "go", Line: 1, Character: 2, InsertSpaces: &spaces}
	data, err := json.Marshal(req)
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{`"request_id":42`, `"line":1`, `"character":2`, `"insert_spaces":false`} {
		if !strings.Contains(string(data), key) {
			t.Errorf("expected %s in %s", key, data)
		}
	}

	var decoded Request
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.RequestID != 42 || decoded.InsertSpaces == nil || *decoded.InsertSpaces {
		t.Errorf("unexpected decoded request %+v", decoded)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Service.BaseURL == "" {
		t.Error("expected non-empty default base_url")
	}
	if cfg.Completion.TabSize != 4 {
		t.Errorf("expected default tab_size 4, got %d", cfg.Completion.TabSize)
	}
	if !ContextEnabled(cfg) {
		t.Error("expected context enabled by default")
	}
	if !InsertSpaces(cfg) {
		t.Error("expected insert_spaces by default")
	}
}

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	t.Setenv("GHOSTLINE_CONFIG_DIR", t.TempDir())
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Service.BaseURL != DefaultConfig().Service.BaseURL {
		t.Errorf("expected default base_url, got %q", cfg.Service.BaseURL)
	}
}

func TestLoadConfigFillsMissingFields(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("GHOSTLINE_CONFIG_DIR", dir)
	content := `{"service":{"api_key":"abc"},"context":{"enabled":false}}`
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Service.APIKey != "abc" {
		t.Errorf("expected api_key abc, got %q", cfg.Service.APIKey)
	}
	if cfg.Service.BaseURL == "" || cfg.Service.IDEName == "" {
		t.Error("expected service defaults to be applied")
	}
	if ContextEnabled(cfg) {
		t.Error("expected context to stay disabled")
	}
	if cfg.Context.MaxFiles == 0 {
		t.Error("expected max_files default")
	}
}

func TestLoadConfigInvalidJSON(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("GHOSTLINE_CONFIG_DIR", dir)
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte("{"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestResolveEnvOverrides(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Service.APIKey = "from-config"

	t.Setenv("GHOSTLINE_API_KEY", "")
	if got := ResolveAPIKey(cfg); got != "from-config" {
		t.Errorf("expected config api key, got %q", got)
	}
	t.Setenv("GHOSTLINE_API_KEY", "from-env")
	if got := ResolveAPIKey(cfg); got != "from-env" {
		t.Errorf("expected env api key, got %q", got)
	}
	t.Setenv("GHOSTLINE_BASE_URL", "http://localhost:9999")
	if got := ResolveBaseURL(cfg); got != "http://localhost:9999" {
		t.Errorf("expected env base url, got %q", got)
	}
}

func TestValidateConfig(t *testing.T) {
	t.Setenv("GHOSTLINE_API_KEY", "")
	t.Setenv("GHOSTLINE_EMBEDDING_API_KEY", "")
	t.Setenv("GHOSTLINE_EMBEDDING_API_BASE_URL", "")

	cfg := DefaultConfig()
	threshold := 3.0
	cfg.Completion.MultilineThreshold = &threshold
	cfg.Embedding.BaseURL = "http://embed"

	warnings := ValidateConfig(cfg)
	if len(warnings) != 3 {
		t.Fatalf("expected 3 warnings, got %d: %v", len(warnings), warnings)
	}

	cfg.Service.APIKey = "k"
	cfg.Completion.MultilineThreshold = nil
	cfg.Embedding.BaseURL = ""
	if warnings := ValidateConfig(cfg); len(warnings) != 0 {
		t.Errorf("expected no warnings, got %v", warnings)
	}

	if warnings := ValidateConfig(nil); len(warnings) != 0 {
		t.Errorf("expected no warnings for nil config, got %v", warnings)
	}
}
