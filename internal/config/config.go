// Package config loads cardsight settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Prefix is prepended to every variable name.
const Prefix = "CARDSIGHT_"

// Config holds every runtime setting.
type Config struct {
	Addr              string        `validate:"required"`
	RecognizerURL     string        `validate:"required,url"`
	RecognizerTimeout time.Duration `validate:"gt=0"`
	CameraID          int           `validate:"gte=0"`
	NumPlayers        int           `validate:"gte=1,ltefield=MaxPlayers"`
	MaxPlayers        int           `validate:"gte=1,lte=10"`
	Interval          time.Duration `validate:"gte=50ms"`
	JPEGQuality       int           `validate:"gte=1,lte=100"`
	DataDir           string        `validate:"required"`
	LogLevel          string        `validate:"oneof=trace debug info warn warning error fatal panic"`
	LogFile           string
	RedisAddr         string `validate:"omitempty,hostname_port"`
	RedisChannel      string `validate:"required"`
	StrictLabels      bool
	Tray              bool
	Terminal          bool
	DetectRate        float64 `validate:"gt=0"`
	// PluginDir defaults to DataDir/plugins when empty.
	PluginDir     string
	PluginTimeout time.Duration `validate:"gt=0"`
}

// Default returns the built-in settings.
func Default() Config {
	dataDir := ".cardsight"
	if home, err := os.UserHomeDir(); err == nil {
		dataDir = filepath.Join(home, ".cardsight")
	}

	return Config{
		Addr:              ":8080",
		RecognizerURL:     "http://localhost:5001/predict",
		RecognizerTimeout: 10 * time.Second,
		CameraID:          0,
		NumPlayers:        3,
		MaxPlayers:        10,
		Interval:          500 * time.Millisecond,
		JPEGQuality:       80,
		DataDir:           dataDir,
		LogLevel:          "info",
		RedisChannel:      "cardsight:events",
		DetectRate:        4,
		PluginTimeout:     5 * time.Second,
	}
}

// DBPath returns the SQLite database location inside DataDir.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "cardsight.db")
}

// PluginPath returns the directory scanned for hook plugins.
func (c *Config) PluginPath() string {
	if c.PluginDir != "" {
		return c.PluginDir
	}
	return filepath.Join(c.DataDir, "plugins")
}

// Load reads the given .env files (missing files are skipped), then the process
// environment, on top of the defaults, and validates the result.
func Load(envFiles ...string) (*Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", f, err)
		}
	}
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a validated Config from lookup, which resolves variable names.
func FromLookup(lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default()
	p := parser{lookup: lookup}

	p.str("ADDR", &cfg.Addr)
	p.str("RECOGNIZER_URL", &cfg.RecognizerURL)
	p.duration("RECOGNIZER_TIMEOUT", &cfg.RecognizerTimeout)
	p.int("CAMERA_ID", &cfg.CameraID)
	p.int("NUM_PLAYERS", &cfg.NumPlayers)
	p.int("MAX_PLAYERS", &cfg.MaxPlayers)
	p.duration("INTERVAL", &cfg.Interval)
	p.int("JPEG_QUALITY", &cfg.JPEGQuality)
	p.str("DATA_DIR", &cfg.DataDir)
	p.str("LOG_LEVEL", &cfg.LogLevel)
	p.str("LOG_FILE", &cfg.LogFile)
	p.str("REDIS_ADDR", &cfg.RedisAddr)
	p.str("REDIS_CHANNEL", &cfg.RedisChannel)
	p.bool("STRICT_LABELS", &cfg.StrictLabels)
	p.bool("TRAY", &cfg.Tray)
	p.bool("TERMINAL", &cfg.Terminal)
	p.float("DETECT_RATE", &cfg.DetectRate)
	p.str("PLUGIN_DIR", &cfg.PluginDir)
	p.duration("PLUGIN_TIMEOUT", &cfg.PluginTimeout)

	if err := errors.Join(p.errs...); err != nil {
		return nil, err
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

type parser struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (p *parser) get(name string) (string, bool) {
	v, ok := p.lookup(Prefix + name)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func (p *parser) fail(name, value string, err error) {
	p.errs = append(p.errs, fmt.Errorf("%s%s=%q: %w", Prefix, name, value, err))
}

func (p *parser) str(name string, dst *string) {
	if v, ok := p.get(name); ok {
		*dst = v
	}
}

func (p *parser) int(name string, dst *int) {
	if v, ok := p.get(name); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			p.fail(name, v, err)
			return
		}
		*dst = n
	}
}

func (p *parser) float(name string, dst *float64) {
	if v, ok := p.get(name); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			p.fail(name, v, err)
			return
		}
		*dst = f
	}
}

func (p *parser) bool(name string, dst *bool) {
	if v, ok := p.get(name); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			p.fail(name, v, err)
			return
		}
		*dst = b
	}
}

func (p *parser) duration(name string, dst *time.Duration) {
	if v, ok := p.get(name); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			p.fail(name, v, err)
			return
		}
		*dst = d
	}
}
