package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	BackendDezgo  = "dezgo"
	BackendImagen = "imagen"
)

// Config holds the environment driven configuration shared by the server and
// the lambda.
type Config struct {
	Addr            string        `env:"ADDR" envDefault:"0.0.0.0:8000"`
	BaseURL         string        `env:"BASE_URL" envDefault:"http://localhost:8000"`
	GinMode         string        `env:"GIN_MODE" envDefault:"release"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	Backend        string `env:"BACKEND" envDefault:"dezgo"`
	DezgoKey       string `env:"DEZGO_KEY"`
	DezgoKeyParam  string `env:"DEZGO_KEY_PARAM"`
	GeminiKey      string `env:"GEMINI_API_KEY"`
	GeminiKeyParam string `env:"GEMINI_KEY_PARAM"`
	ImagenModel    string `env:"IMAGEN_MODEL" envDefault:"imagen-3.0-generate-002"`
	// Vertex AI honours seeds and negative prompts. The Gemini API does not.
	ImagenVertex bool `env:"IMAGEN_VERTEX"`

	// Generated images go to Bucket when set, otherwise to OutputDir.
	Bucket       string `env:"BUCKET"`
	Distribution string `env:"DISTRIBUTION"`
	OutputDir    string `env:"OUTPUT_DIR"`

	PromptsParam string `env:"PROMPTS_PARAM"`

	// Lambda invocations are posted to Subreddit when it is set.
	Subreddit               string `env:"SUBREDDIT"`
	RedditUsername          string `env:"REDDIT_USERNAME"`
	RedditClientID          string `env:"REDDIT_CLIENT_ID"`
	RedditClientIDParam     string `env:"REDDIT_CLIENT_ID_PARAM"`
	RedditClientSecret      string `env:"REDDIT_CLIENT_SECRET"`
	RedditClientSecretParam string `env:"REDDIT_CLIENT_SECRET_PARAM"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}

	cfg.Backend = strings.ToLower(strings.TrimSpace(cfg.Backend))
	cfg.Bucket = strings.TrimSpace(cfg.Bucket)
	cfg.Distribution = strings.TrimSpace(cfg.Distribution)
	cfg.Subreddit = strings.TrimPrefix(strings.TrimSpace(cfg.Subreddit), "r/")
	if cfg.OutputDir == "" {
		cfg.OutputDir = os.TempDir()
	}

	switch cfg.Backend {
	case BackendDezgo, BackendImagen:
	default:
		return nil, fmt.Errorf("unsupported BACKEND %q", cfg.Backend)
	}
	return cfg, nil
}
