package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/liamcoop/titanic-whatif/internal/logger"
)

// Config holds the process settings, read from the environment
type Config struct {
	Port           string
	RequestTimeout time.Duration

	// TreeModelPath is the exported decision tree JSON
	TreeModelPath string
	// TestDataPath is an optional labelled CSV used to score the tree
	TestDataPath string

	// DatabaseURL, when set, loads the cohort table from Postgres instead of the built-in one
	DatabaseURL string

	// ExplainerURL is the base URL of the SHAP sidecar; explanation endpoints are disabled without it
	ExplainerURL     string
	ExplainerTimeout time.Duration
	ExplainerRetries int

	LogLevel        logger.Level
	ErrorSampleRate int
	OTELEnabled     bool
	ServiceName     string
}

// Load reads the configuration from the environment and validates it
func Load() (*Config, error) {
	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		TreeModelPath: getEnv("TREE_MODEL_PATH", "data/titanic_tree.json"),
		TestDataPath:  os.Getenv("TEST_DATA_PATH"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		ExplainerURL:  strings.TrimRight(os.Getenv("EXPLAINER_URL"), "/"),
		OTELEnabled:   strings.ToLower(os.Getenv("OTEL_ENABLED")) == "true",
		ServiceName:   getEnv("OTEL_SERVICE_NAME", "titanic-whatif"),
	}

	var err error
	if cfg.RequestTimeout, err = getDuration("REQUEST_TIMEOUT", 60*time.Second); err != nil {
		return nil, err
	}
	if cfg.ExplainerTimeout, err = getDuration("EXPLAINER_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.ExplainerRetries, err = getInt("EXPLAINER_RETRIES", 3); err != nil {
		return nil, err
	}
	if cfg.ErrorSampleRate, err = getInt("ERROR_SAMPLE_RATE", 100); err != nil {
		return nil, err
	}
	if cfg.LogLevel, err = logger.ParseLevel(os.Getenv("LOG_LEVEL")); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that would only fail later at first use
func (c Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT must not be empty")
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("PORT must be numeric, got %q", c.Port)
	}
	if c.TreeModelPath == "" {
		return errors.New("TREE_MODEL_PATH must not be empty")
	}
	if c.RequestTimeout <= 0 {
		return errors.New("REQUEST_TIMEOUT must be > 0")
	}
	if c.ExplainerTimeout <= 0 {
		return errors.New("EXPLAINER_TIMEOUT must be > 0")
	}
	if c.ExplainerRetries < 1 {
		return errors.New("EXPLAINER_RETRIES must be >= 1")
	}
	if c.ErrorSampleRate < 1 {
		return errors.New("ERROR_SAMPLE_RATE must be >= 1")
	}
	if c.ExplainerURL != "" && !strings.HasPrefix(c.ExplainerURL, "http://") && !strings.HasPrefix(c.ExplainerURL, "https://") {
		return fmt.Errorf("EXPLAINER_URL must be an http(s) URL, got %q", c.ExplainerURL)
	}
	return nil
}

// LoggerOptions returns the logger settings carried by the config
func (c Config) LoggerOptions() logger.Options {
	return logger.Options{
		Level:           c.LogLevel,
		ErrorSampleRate: c.ErrorSampleRate,
		OTELEnabled:     c.OTELEnabled,
		ServiceName:     c.ServiceName,
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func getInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
