package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Epistemic-Technology/studysage/models"
)

// Config holds every tunable used by the binaries.
type Config struct {
	Mode    models.Mode `yaml:"mode"`
	Summary Summary     `yaml:"summary"`
	Limits  Limits      `yaml:"limits"`
	Remote  Remote      `yaml:"remote"`
	Local   Local       `yaml:"local"`
	OCR     OCR         `yaml:"ocr"`
	Quiz    Quiz        `yaml:"quiz"`
	Output  Output      `yaml:"output"`
	Storage Storage     `yaml:"storage"`
	Zotero  Zotero      `yaml:"zotero"`
	Server  Server      `yaml:"server"`
}

type Summary struct {
	MinLength int `yaml:"min_length"`
	MaxLength int `yaml:"max_length"`
}

// Limits bound the input size per mode. Chunk sizes are in words.
type Limits struct {
	OnlineMaxWords   int `yaml:"online_max_words"`
	OnlineMaxChars   int `yaml:"online_max_chars"`
	OfflineMaxWords  int `yaml:"offline_max_words"`
	OfflineMaxChars  int `yaml:"offline_max_chars"`
	OnlineChunkSize  int `yaml:"online_chunk_words"`
	OfflineChunkSize int `yaml:"offline_chunk_words"`
}

type Remote struct {
	BaseURL           string        `yaml:"base_url"`
	Model             string        `yaml:"model"`
	APIKey            string        `yaml:"api_key"`
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
}

type Local struct {
	Host      string        `yaml:"host"`
	Model     string        `yaml:"model"`
	ModelsDir string        `yaml:"models_dir"`
	Timeout   time.Duration `yaml:"timeout"`
}

type OCR struct {
	Language       string        `yaml:"language"`
	TessdataPrefix string        `yaml:"tessdata_prefix"`
	Timeout        time.Duration `yaml:"timeout"`
}

type Quiz struct {
	NumQuestions int `yaml:"num_questions"`
}

type Output struct {
	Dir string `yaml:"dir"`
}

type Storage struct {
	Path string `yaml:"path"`
}

type Zotero struct {
	APIKey    string `yaml:"api_key"`
	LibraryID string `yaml:"library_id"`
}

// Server configures the HTTP front end.
type Server struct {
	Addr           string        `yaml:"addr"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes"`
}

// Default returns the built-in configuration.
func Default() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	base := filepath.Join(home, ".studysage")
	return &Config{
		Mode:    models.ModeOffline,
		Summary: Summary{MinLength: 30, MaxLength: 200},
		Limits: Limits{
			OnlineMaxWords:   800,
			OnlineMaxChars:   4000,
			OfflineMaxWords:  20000,
			OfflineMaxChars:  100000,
			OnlineChunkSize:  350,
			OfflineChunkSize: 800,
		},
		Remote: Remote{
			BaseURL:           "https://api-inference.huggingface.co/models",
			Model:             "sshleifer/distilbart-cnn-12-6",
			Timeout:           60 * time.Second,
			RequestsPerSecond: 2,
		},
		Local: Local{
			Host:      "http://localhost:11434",
			Model:     "llama3.2:1b",
			ModelsDir: filepath.Join(base, "models"),
			Timeout:   5 * time.Minute,
		},
		OCR:     OCR{Language: "auto", Timeout: 30 * time.Second},
		Quiz:    Quiz{NumQuestions: 5},
		Output:  Output{Dir: "output"},
		Storage: Storage{Path: filepath.Join(base, "studysage.db")},
		Server: Server{
			Addr:           ":8080",
			RequestTimeout: 10 * time.Minute,
			MaxUploadBytes: 64 << 20,
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path (or the
// default location when path is empty) and environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("STUDYSAGE_CONFIG")
	}
	explicit := path != ""
	if path == "" {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, ".studysage", "config.yaml")
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist) && !explicit:
		default:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("STUDYSAGE_MODE"); v != "" {
		c.Mode = models.Mode(strings.ToLower(v))
	}
	if v := os.Getenv("HF_API_KEY"); v != "" {
		c.Remote.APIKey = v
	}
	if v := os.Getenv("STUDYSAGE_REMOTE_URL"); v != "" {
		c.Remote.BaseURL = v
	}
	if v := os.Getenv("STUDYSAGE_LOCAL_HOST"); v != "" {
		c.Local.Host = v
	}
	if v := os.Getenv("STUDYSAGE_LOCAL_MODEL"); v != "" {
		c.Local.Model = v
	}
	if v := os.Getenv("STUDYSAGE_DB_PATH"); v != "" {
		c.Storage.Path = v
	}
	if v := os.Getenv("STUDYSAGE_OUTPUT_DIR"); v != "" {
		c.Output.Dir = v
	}
	if v := os.Getenv("STUDYSAGE_OCR_LANG"); v != "" {
		c.OCR.Language = v
	}
	if v := os.Getenv("TESSDATA_PREFIX"); v != "" && c.OCR.TessdataPrefix == "" {
		c.OCR.TessdataPrefix = v
	}
	if v := os.Getenv("STUDYSAGE_NUM_QUESTIONS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid STUDYSAGE_NUM_QUESTIONS %q: %w", v, err)
		}
		c.Quiz.NumQuestions = n
	}
	if v := os.Getenv("STUDYSAGE_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("ZOTERO_API_KEY"); v != "" {
		c.Zotero.APIKey = v
	}
	if v := os.Getenv("ZOTERO_LIBRARY_ID"); v != "" {
		c.Zotero.LibraryID = v
	}
	return nil
}

// Validate reports configuration values that can never work.
func (c *Config) Validate() error {
	if c.Mode != models.ModeOnline && c.Mode != models.ModeOffline {
		return fmt.Errorf("invalid mode %q (expected 'online' or 'offline')", c.Mode)
	}
	if c.Summary.MinLength < 0 || c.Summary.MaxLength <= 0 || c.Summary.MinLength > c.Summary.MaxLength {
		return fmt.Errorf("invalid summary length bounds %d..%d", c.Summary.MinLength, c.Summary.MaxLength)
	}
	if c.Limits.OnlineChunkSize <= 0 || c.Limits.OfflineChunkSize <= 0 {
		return errors.New("chunk sizes must be positive")
	}
	return nil
}

// ModeConfig returns the per-call mode settings.
func (c *Config) ModeConfig() models.ModeConfig {
	return models.ModeConfig{Mode: c.Mode, APIKey: c.Remote.APIKey}
}
