package config

import (
	"os"
	"path/filepath"
)

type Config struct {
	Server   ServerConfig
	Gemini   GeminiConfig
	Storage  StorageConfig
	Personas PersonasConfig
	Gallery  GalleryConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port  int
	Token string
}

type GeminiConfig struct {
	APIKey  string
	BaseURL string
}

type StorageConfig struct {
	DataDir string
}

type PersonasConfig struct {
	Path string
}

type GalleryConfig struct {
	Limit int
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: 4500,
		},
		Gemini: GeminiConfig{
			BaseURL: "https://generativelanguage.googleapis.com/v1beta",
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Gallery: GalleryConfig{
			Limit: 50,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func defaultDataDir() string {
	dir := os.Getenv("XDG_DATA_HOME")
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".local", "share")
		} else {
			return "atelier-data"
		}
	}
	return filepath.Join(dir, "atelier")
}

// Load reads configuration from the JSON config file at
// $XDG_CONFIG_HOME/atelier/config.json, then applies ATELIER_* environment
// overrides. A missing API key is not a load error: credential absence is
// the auth gate's business, not the loader's.
func Load() (Config, error) {
	return loadWith(newFileBackend(configFilePath()))
}

// loadFromPath loads from an explicit config file (used by tests).
func loadFromPath(path string) (Config, error) {
	return loadWith(newFileBackend(path))
}

func loadWith(b ConfigBackend) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	// GEMINI_API_KEY is honored as a conventional fallback for the
	// prefixed variable.
	if cfg.Gemini.APIKey == "" {
		cfg.Gemini.APIKey = os.Getenv("GEMINI_API_KEY")
	}

	return cfg, nil
}

func configFilePath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".config")
		} else {
			dir = "."
		}
	}
	return filepath.Join(dir, "atelier", "config.json")
}
