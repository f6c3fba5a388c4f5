package config

import (
	"testing"
	"time"

	"github.com/liamcoop/titanic-whatif/internal/logger"
)

// TestLoadDefaults verifies the defaults used with an empty environment
func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "TREE_MODEL_PATH", "TEST_DATA_PATH", "DATABASE_URL", "EXPLAINER_URL",
		"EXPLAINER_TIMEOUT", "EXPLAINER_RETRIES", "REQUEST_TIMEOUT", "LOG_LEVEL", "ERROR_SAMPLE_RATE", "OTEL_ENABLED"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Port = %s, want 8080", cfg.Port)
	}
	if cfg.TreeModelPath != "data/titanic_tree.json" {
		t.Errorf("TreeModelPath = %s", cfg.TreeModelPath)
	}
	if cfg.ExplainerTimeout != 10*time.Second || cfg.ExplainerRetries != 3 {
		t.Errorf("explainer settings = %v/%d, want 10s/3", cfg.ExplainerTimeout, cfg.ExplainerRetries)
	}
	if cfg.LogLevel != logger.LevelInfo || cfg.ErrorSampleRate != 100 || cfg.OTELEnabled {
		t.Errorf("logger settings = %+v", cfg.LoggerOptions())
	}
}

// TestLoadFromEnvironment verifies every variable is honoured
func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("TREE_MODEL_PATH", "/models/tree.json")
	t.Setenv("TEST_DATA_PATH", "/models/test.csv")
	t.Setenv("DATABASE_URL", "postgres://localhost/whatif")
	t.Setenv("EXPLAINER_URL", "http://shap:8000/")
	t.Setenv("EXPLAINER_TIMEOUT", "2s")
	t.Setenv("EXPLAINER_RETRIES", "5")
	t.Setenv("REQUEST_TIMEOUT", "30s")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("ERROR_SAMPLE_RATE", "1")
	t.Setenv("OTEL_ENABLED", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Port != "9090" || cfg.TreeModelPath != "/models/tree.json" || cfg.TestDataPath != "/models/test.csv" {
		t.Errorf("unexpected paths: %+v", cfg)
	}
	if cfg.ExplainerURL != "http://shap:8000" {
		t.Errorf("ExplainerURL = %s, want trailing slash trimmed", cfg.ExplainerURL)
	}
	if cfg.ExplainerTimeout != 2*time.Second || cfg.ExplainerRetries != 5 || cfg.RequestTimeout != 30*time.Second {
		t.Errorf("unexpected timeouts: %+v", cfg)
	}
	if cfg.LogLevel != logger.LevelDebug || cfg.ErrorSampleRate != 1 {
		t.Errorf("unexpected logger settings: %+v", cfg.LoggerOptions())
	}
}

// TestLoadRejectsBadValues verifies malformed variables fail at startup
func TestLoadRejectsBadValues(t *testing.T) {
	testCases := []struct {
		key   string
		value string
	}{
		{"PORT", "http"},
		{"EXPLAINER_TIMEOUT", "soon"},
		{"EXPLAINER_TIMEOUT", "-1s"},
		{"EXPLAINER_RETRIES", "0"},
		{"EXPLAINER_URL", "shap:8000"},
		{"ERROR_SAMPLE_RATE", "none"},
		{"LOG_LEVEL", "LOUD"},
	}

	for _, tc := range testCases {
		t.Run(tc.key+"="+tc.value, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			if _, err := Load(); err == nil {
				t.Errorf("Load() with %s=%s should fail", tc.key, tc.value)
			}
		})
	}
}
