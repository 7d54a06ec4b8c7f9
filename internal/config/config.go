package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	LogLevel  string
	LogFormat string

	WatchDir   string
	MiscPath   string
	Category   string
	SchemaFile string
	// Destinations holds the env-provided schema: category -> subcategory -> dir.
	Destinations map[string]map[string]string

	OllamaURL            string
	OllamaModel          string
	ClassifierTimeout    time.Duration
	ClassifierRatePerSec float64
	ClassifierBurst      int

	RetryMaxAttempts int
	BreakerEnabled   bool

	PDFMaxPages       int
	DOCXMaxParagraphs int
	TXTMaxLines       int
	CSVMaxRows        int
	HTMLMaxChars      int
	XLSXMaxRows       int

	Workers         int
	SettleDelay     time.Duration
	CollisionPolicy string
	TagXattr        string

	NATSURL     string
	NATSSubject string

	MetricsPort string
}

// LoadEnvFiles loads .env.local and then .env from the working directory.
// Variables already set in the environment win; missing files are ignored.
func LoadEnvFiles() error {
	for _, name := range []string{".env.local", ".env"} {
		if err := godotenv.Load(name); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load %s: %w", name, err)
		}
	}
	return nil
}

func Load() Config {
	watchDir := mustEnv("DOWNLOADS_PATH", "./downloads")

	return Config{
		LogLevel:  mustEnv("LOG_LEVEL", "info"),
		LogFormat: mustEnv("LOG_FORMAT", "json"),

		WatchDir:   watchDir,
		MiscPath:   mustEnv("MISC_PATH", filepath.Join(watchDir, "misc")),
		Category:   mustEnv("ORGANIZER_CATEGORY", "documents"),
		SchemaFile: mustEnv("SCHEMA_FILE", ""),
		Destinations: map[string]map[string]string{
			"documents": {
				"work":     mustEnv("WORK_PATH", ""),
				"personal": mustEnv("PERSONAL_PATH", ""),
				"finance":  mustEnv("FINANCE_PATH", ""),
			},
			"images": {
				"photos":      mustEnv("PHOTOS_PATH", ""),
				"screenshots": mustEnv("SCREENSHOTS_PATH", ""),
			},
			"videos": {
				"movies":    mustEnv("MOVIES_PATH", ""),
				"tutorials": mustEnv("TUTORIALS_PATH", ""),
			},
		},

		OllamaURL:            mustEnv("OLLAMA_URL", "http://localhost:11434"),
		OllamaModel:          mustEnv("OLLAMA_MODEL", "llama3"),
		ClassifierTimeout:    mustEnvDuration("CLASSIFIER_TIMEOUT", 60*time.Second),
		ClassifierRatePerSec: mustEnvFloat("CLASSIFIER_RATE_PER_SEC", 0),
		ClassifierBurst:      mustEnvInt("CLASSIFIER_BURST", 1),

		RetryMaxAttempts: mustEnvInt("RETRY_MAX_ATTEMPTS", 3),
		BreakerEnabled:   mustEnvBool("BREAKER_ENABLED", true),

		PDFMaxPages:       mustEnvInt("PDF_MAX_PAGES", 1),
		DOCXMaxParagraphs: mustEnvInt("DOCX_MAX_PARAGRAPHS", 5),
		TXTMaxLines:       mustEnvInt("TXT_MAX_LINES", 100),
		CSVMaxRows:        mustEnvInt("CSV_MAX_ROWS", 10),
		HTMLMaxChars:      mustEnvInt("HTML_MAX_CHARS", 20000),
		XLSXMaxRows:       mustEnvInt("XLSX_MAX_ROWS", 10),

		Workers:         mustEnvInt("WORKERS", 4),
		SettleDelay:     mustEnvDuration("SETTLE_DELAY", 750*time.Millisecond),
		CollisionPolicy: mustEnv("COLLISION_POLICY", "rename"),
		TagXattr:        mustEnv("TAG_XATTR", "user.organizer.tags"),

		NATSURL:     mustEnv("NATS_URL", ""),
		NATSSubject: mustEnv("NATS_SUBJECT", "files.placed"),

		MetricsPort: metricsPort(),
	}
}

// metricsPort defaults to 9090; an explicitly empty METRICS_PORT disables the endpoint.
func metricsPort() string {
	v, ok := os.LookupEnv("METRICS_PORT")
	if !ok {
		return "9090"
	}
	return strings.TrimSpace(v)
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.WatchDir) == "" {
		errs = append(errs, errors.New("DOWNLOADS_PATH must not be empty"))
	}
	if strings.TrimSpace(c.MiscPath) == "" {
		errs = append(errs, errors.New("MISC_PATH must not be empty"))
	}
	switch strings.ToLower(strings.TrimSpace(c.CollisionPolicy)) {
	case "rename", "overwrite", "fail":
	default:
		errs = append(errs, fmt.Errorf("COLLISION_POLICY %q is not one of rename, overwrite, fail", c.CollisionPolicy))
	}
	switch strings.ToLower(strings.TrimSpace(c.LogFormat)) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT %q is not one of json, text", c.LogFormat))
	}

	positive := []struct {
		key   string
		value int
	}{
		{"PDF_MAX_PAGES", c.PDFMaxPages},
		{"DOCX_MAX_PARAGRAPHS", c.DOCXMaxParagraphs},
		{"TXT_MAX_LINES", c.TXTMaxLines},
		{"CSV_MAX_ROWS", c.CSVMaxRows},
		{"HTML_MAX_CHARS", c.HTMLMaxChars},
		{"XLSX_MAX_ROWS", c.XLSXMaxRows},
		{"WORKERS", c.Workers},
		{"RETRY_MAX_ATTEMPTS", c.RetryMaxAttempts},
		{"CLASSIFIER_BURST", c.ClassifierBurst},
	}
	for _, p := range positive {
		if p.value <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %d", p.key, p.value))
		}
	}
	if c.ClassifierTimeout <= 0 {
		errs = append(errs, fmt.Errorf("CLASSIFIER_TIMEOUT must be positive, got %s", c.ClassifierTimeout))
	}
	if c.ClassifierRatePerSec < 0 {
		errs = append(errs, fmt.Errorf("CLASSIFIER_RATE_PER_SEC must not be negative, got %v", c.ClassifierRatePerSec))
	}
	if c.SettleDelay < 0 {
		errs = append(errs, fmt.Errorf("SETTLE_DELAY must not be negative, got %s", c.SettleDelay))
	}
	if strings.TrimSpace(c.OllamaURL) == "" {
		errs = append(errs, errors.New("OLLAMA_URL must not be empty"))
	}
	return errors.Join(errs...)
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func mustEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func mustEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
