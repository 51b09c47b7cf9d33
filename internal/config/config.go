package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"gridbot/internal/freshness"
)

type NLUProvider string

const (
	ProviderNone   NLUProvider = "none"
	ProviderOpenAI NLUProvider = "openai"
	ProviderYandex NLUProvider = "yandex"
)

type Config struct {
	Port int `env:"PORT" envDefault:"8080"`

	// Document store
	ESHosts    []string `env:"ES_HOST" envDefault:"http://localhost:9200" envSeparator:","`
	ESUsername string   `env:"ES_USERNAME"`
	ESPassword string   `env:"ES_PASSWORD"`
	ESAPIKey   string   `env:"ES_API_KEY"`

	TelegramBotToken     string  `env:"TELEGRAM_BOT_TOKEN"`
	TelegramAllowedUsers []int64 `env:"TELEGRAM_ALLOWED_USERS" envSeparator:":"`
	TelegramAllowlist    string  `env:"TELEGRAM_ALLOWLIST_PATH"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogPretty bool   `env:"LOG_PRETTY"`

	// Dialogue
	StreamCataloguePath string        `env:"STREAM_CATALOGUE_PATH"`
	JobsDefaultWindow   time.Duration `env:"JOBS_DEFAULT_WINDOW" envDefault:"24h"`
	TasksDefaultWindow  time.Duration `env:"TASKS_DEFAULT_WINDOW" envDefault:"168h"`
	SuggestionSeed      uint64        `env:"SUGGESTION_SEED"`

	// Storage
	TurnLogPath string `env:"TURN_LOG_PATH" envDefault:"logs/turns.jsonl"`

	BackendProbeSchedule string `env:"BACKEND_PROBE_SCHEDULE" envDefault:"*/5 * * * *"`

	// Intent recognition for free text
	NLUProvider      NLUProvider `env:"NLU_PROVIDER" envDefault:"none"`
	OpenAIAPIKey     string      `env:"OPENAI_API_KEY"`
	OpenAIBaseURL    string      `env:"OPENAI_BASE_URL"`
	OpenAIModel      string      `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	YandexOAuthToken string      `env:"YANDEX_OAUTH_TOKEN"`
	YandexFolderID   string      `env:"YANDEX_FOLDER_ID"`
}

// Load reads an optional .env file, then the environment.
func Load(dotenv ...string) (*Config, error) {
	if err := godotenv.Load(dotenv...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load dotenv: %w", err)
	}
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.NLUProvider {
	case ProviderNone, ProviderOpenAI, ProviderYandex:
	default:
		return fmt.Errorf("unknown NLU_PROVIDER %q", c.NLUProvider)
	}
	if c.JobsDefaultWindow <= 0 || c.TasksDefaultWindow <= 0 {
		return errors.New("default windows must be positive")
	}
	return nil
}

type catalogueFile struct {
	Streams []freshness.Stream `toml:"stream"`
}

// LoadCatalogue reads the perfSONAR stream catalogue. An empty path yields the
// built-in catalogue.
func LoadCatalogue(path string) ([]freshness.Stream, error) {
	if path == "" {
		return freshness.DefaultCatalogue(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalogue: %w", err)
	}
	var f catalogueFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalogue %s: %w", path, err)
	}
	if len(f.Streams) == 0 {
		return nil, fmt.Errorf("catalogue %s lists no streams", path)
	}
	for _, s := range f.Streams {
		if s.Name == "" || s.BinHours <= 0 {
			return nil, fmt.Errorf("catalogue %s: invalid stream %+v", path, s)
		}
	}
	return f.Streams, nil
}
