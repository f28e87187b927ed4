package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const FileName = "breathtrain.yaml"

var validate = validator.New()

type Config struct {
	DataDir           string         `yaml:"-" validate:"required"`
	DBPath            string         `yaml:"db_path" validate:"required"`
	ActiveSegmentPath string         `yaml:"-" validate:"required"`
	Timezone          string         `yaml:"timezone"`
	MaxSessionMinutes int            `yaml:"max_session_minutes" validate:"gte=1,lte=1440"`
	StageTargets      map[int]int    `yaml:"stage_targets" validate:"dive,keys,oneof=2 3,endkeys,gte=1"`
	MetricsTextfile   string         `yaml:"metrics_textfile"`
	LogLevel          string         `yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`
	Location          *time.Location `yaml:"-"`
	// Ephemeral keeps regimes, segments and the active segment in memory only.
	Ephemeral bool `yaml:"-"`
}

// New returns defaults for dataDir, overlaid with dataDir/breathtrain.yaml when present.
func New(dataDir string) (Config, error) {
	if dataDir == "" {
		return Config{}, fmt.Errorf("data dir is required")
	}
	cfg := Config{
		DataDir:           dataDir,
		DBPath:            filepath.Join(dataDir, ".breathtrain", "breathtrain.db"),
		ActiveSegmentPath: filepath.Join(dataDir, ".breathtrain", "active-segment.json"),
		MaxSessionMinutes: 15,
		StageTargets:      map[int]int{2: 24, 3: 168},
		LogLevel:          "info",
	}
	if err := cfg.loadFile(filepath.Join(dataDir, FileName)); err != nil {
		return Config{}, err
	}
	if !filepath.IsAbs(cfg.DBPath) {
		cfg.DBPath = filepath.Join(dataDir, cfg.DBPath)
	}
	loc := time.Local
	if cfg.Timezone != "" {
		l, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			return Config{}, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
		}
		loc = l
	}
	cfg.Location = loc
	if err := validate.Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(payload, c); err != nil {
		return fmt.Errorf("decode config %s: %w", path, err)
	}
	return nil
}

func (c Config) MaxSessionDuration() time.Duration {
	return time.Duration(c.MaxSessionMinutes) * time.Minute
}
