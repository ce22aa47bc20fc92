package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Mode   string `mapstructure:"mode"`
	Port   int    `mapstructure:"port"`
	Secret string `mapstructure:"secret"`

	DirectoryURL string `mapstructure:"directory_url"`
	EventFeedURL string `mapstructure:"event_feed_url"`

	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ReactionTTL     time.Duration `mapstructure:"reaction_ttl"`
	OccupancyWindow time.Duration `mapstructure:"occupancy_window"`
	RosterDebounce  time.Duration `mapstructure:"roster_debounce"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("directory_url", "http://localhost:9090")
	v.SetDefault("event_feed_url", "ws://localhost:9090/events")
	v.SetDefault("request_timeout", "10s")
	v.SetDefault("reaction_ttl", "3s")
	v.SetDefault("occupancy_window", "150ms")
	v.SetDefault("roster_debounce", "400ms")

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("config file not found (%s), using defaults\n", fileName)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
