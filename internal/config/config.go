package config

import (
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"

	"horse.fit/briefing/internal/dedup"
)

type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"local"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	TitleThreshold   float64 `envconfig:"DEDUP_TITLE_THRESHOLD" default:"0.70"`
	RankBy           string  `envconfig:"DEDUP_RANK_BY" default:"combined"`
	ClusterMode      string  `envconfig:"DEDUP_CLUSTER_MODE" default:"seed"`
	MaxItems         int     `envconfig:"DEDUP_MAX_ITEMS" default:"5000"`
	InferSourceTypes bool    `envconfig:"DEDUP_INFER_SOURCE_TYPES" default:"true"`

	SourceCatalogFile string `envconfig:"SOURCE_CATALOG_FILE" default:""`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.TitleThreshold < 0 || c.TitleThreshold > 1 {
		return fmt.Errorf("DEDUP_TITLE_THRESHOLD must be within [0, 1], got %v", c.TitleThreshold)
	}
	if _, err := dedup.ParseRankBy(c.RankBy); err != nil {
		return fmt.Errorf("DEDUP_RANK_BY: %w", err)
	}
	if _, err := dedup.ParseClusterMode(c.ClusterMode); err != nil {
		return fmt.Errorf("DEDUP_CLUSTER_MODE: %w", err)
	}
	if c.MaxItems < 1 {
		return fmt.Errorf("DEDUP_MAX_ITEMS must be >= 1")
	}
	if strings.TrimSpace(c.LogLevel) == "" {
		return fmt.Errorf("LOG_LEVEL is required")
	}
	return nil
}

// DedupOptions builds deduplicator options from the validated config. Now
// and Logger are left for the caller.
func (c *Config) DedupOptions() dedup.Options {
	if c == nil {
		return dedup.Options{}
	}
	rankBy, _ := dedup.ParseRankBy(c.RankBy)
	mode, _ := dedup.ParseClusterMode(c.ClusterMode)
	return dedup.Options{
		Threshold:   c.TitleThreshold,
		RankBy:      rankBy,
		ClusterMode: mode,
	}
}
