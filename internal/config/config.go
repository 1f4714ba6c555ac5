// Package config assembles the service configuration from environment
// variables. All variables share the PROBQUIZ_ prefix; a .env file is loaded
// by the command layer before this package reads anything.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/probquiz/probquiz/internal/answers"
	"github.com/probquiz/probquiz/internal/llm"
	"github.com/probquiz/probquiz/internal/quiz"
)

// Config is the full service configuration.
type Config struct {
	// HTTPAddr is the listen address, e.g. ":8080".
	HTTPAddr string

	// CORSOrigins is the allowed-origin list for browser callers.
	// Empty means CORS headers are not emitted at all.
	CORSOrigins []string

	// EventDB is the path of the SQLite completion event log.
	// Empty disables event logging.
	EventDB string

	// BatchTTL is how long generated batches stay checkable.
	BatchTTL time.Duration

	// LLM is the completion provider configuration.
	LLM llm.Config

	// Quiz is the generation configuration.
	Quiz quiz.Config
}

// FromEnv reads the configuration from the environment.
func FromEnv() Config {
	quizCfg := quiz.DefaultConfig()
	quizCfg.StrictOutput = envBool("PROBQUIZ_STRICT_OUTPUT", false)

	return Config{
		HTTPAddr:    envOr("PROBQUIZ_HTTP_ADDR", ":8080"),
		CORSOrigins: envCSV("PROBQUIZ_CORS_ORIGINS"),
		EventDB:     os.Getenv("PROBQUIZ_EVENT_DB"),
		BatchTTL:    envDuration("PROBQUIZ_BATCH_TTL", answers.DefaultTTL),
		LLM:         llm.ConfigFromEnv(),
		Quiz:        quizCfg,
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func envCSV(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
