package config

import (
	"fmt"
	"os"
	"strconv"
)

type keyType int

const (
	kString keyType = iota
	kInt
)

// keySpec describes one configuration key: its storage name, the
// environment variable overriding it, and how it maps onto Config.
type keySpec struct {
	key     string
	typ     keyType
	env     string
	secret  bool
	apply   func(cfg *Config, s string, n int)
	extract func(cfg Config) string
}

var keySpecs = []keySpec{
	{
		key: "server.port", typ: kInt, env: "ATELIER_SERVER_PORT",
		apply:   func(cfg *Config, _ string, n int) { cfg.Server.Port = n },
		extract: func(cfg Config) string { return strconv.Itoa(cfg.Server.Port) },
	},
	{
		key: "server.token", typ: kString, env: "ATELIER_API_TOKEN", secret: true,
		apply:   func(cfg *Config, s string, _ int) { cfg.Server.Token = s },
		extract: func(cfg Config) string { return cfg.Server.Token },
	},
	{
		key: "gemini.api_key", typ: kString, env: "ATELIER_GEMINI_API_KEY", secret: true,
		apply:   func(cfg *Config, s string, _ int) { cfg.Gemini.APIKey = s },
		extract: func(cfg Config) string { return cfg.Gemini.APIKey },
	},
	{
		key: "gemini.base_url", typ: kString, env: "ATELIER_GEMINI_BASE_URL",
		apply:   func(cfg *Config, s string, _ int) { cfg.Gemini.BaseURL = s },
		extract: func(cfg Config) string { return cfg.Gemini.BaseURL },
	},
	{
		key: "storage.data_dir", typ: kString, env: "ATELIER_STORAGE_DATA_DIR",
		apply:   func(cfg *Config, s string, _ int) { cfg.Storage.DataDir = s },
		extract: func(cfg Config) string { return cfg.Storage.DataDir },
	},
	{
		key: "personas.path", typ: kString, env: "ATELIER_PERSONAS_PATH",
		apply:   func(cfg *Config, s string, _ int) { cfg.Personas.Path = s },
		extract: func(cfg Config) string { return cfg.Personas.Path },
	},
	{
		key: "gallery.limit", typ: kInt, env: "ATELIER_GALLERY_LIMIT",
		apply:   func(cfg *Config, _ string, n int) { cfg.Gallery.Limit = n },
		extract: func(cfg Config) string { return strconv.Itoa(cfg.Gallery.Limit) },
	},
	{
		key: "log.level", typ: kString, env: "ATELIER_LOG_LEVEL",
		apply:   func(cfg *Config, s string, _ int) { cfg.Log.Level = s },
		extract: func(cfg Config) string { return cfg.Log.Level },
	},
}

func applyBackend(cfg *Config, b ConfigBackend) error {
	for _, spec := range keySpecs {
		switch spec.typ {
		case kString:
			if v, ok := b.GetString(spec.key); ok {
				spec.apply(cfg, v, 0)
			}
		case kInt:
			if v, ok := b.GetInt(spec.key); ok {
				spec.apply(cfg, "", v)
			}
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	for _, spec := range keySpecs {
		v, ok := os.LookupEnv(spec.env)
		if !ok || v == "" {
			continue
		}
		switch spec.typ {
		case kString:
			spec.apply(cfg, v, 0)
		case kInt:
			n, err := strconv.Atoi(v)
			if err != nil {
				fmt.Fprintf(os.Stderr, "[WARN] %s is not an integer: %q\n", spec.env, v)
				continue
			}
			spec.apply(cfg, "", n)
		}
	}
}
