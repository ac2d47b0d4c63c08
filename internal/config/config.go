// Package config loads build, fetch and serve settings from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config is the root configuration, read from environment variables.
type Config struct {
	Source SourceConfig
	Output OutputConfig
	Server ServerConfig
	GeoIP  GeoIPConfig
	Log    LogConfig
}

// SourceConfig describes where rule-set sources come from and the metadata
// embedded in generated headers.
type SourceConfig struct {
	DataDir          string `env:"DATA_DIR"           env-default:"dlc/data"`
	CommitID         string `env:"DLC_SHA"            env-default:"unknown"`
	Date             string `env:"DLC_DATE"` // defaults to today (UTC) when empty
	ArchiveURL       string `env:"ARCHIVE_URL"        env-default:"https://github.com/v2fly/domain-list-community/archive/refs/heads/master.zip"`
	ArchiveCachePath string `env:"ARCHIVE_CACHE_PATH"`
}

// OutputConfig controls what the generator writes.
type OutputConfig struct {
	Dir            string `env:"OUT_DIR"         env-default:"surge-rules"`
	EnableWildcard bool   `env:"ENABLE_WILDCARD" env-default:"false"`
	EnableComments bool   `env:"ENABLE_COMMENTS" env-default:"false"`
}

// ServerConfig holds serve-mode HTTP settings.
type ServerConfig struct {
	Host            string        `env:"SERVER_HOST"              env-default:"0.0.0.0"`
	Port            int           `env:"SERVER_PORT"              env-default:"8080"`
	ResultTTL       time.Duration `env:"RESULT_TTL"               env-default:"24h"`
	RefreshInterval time.Duration `env:"ARCHIVE_REFRESH_INTERVAL" env-default:"30m"`
}

// GeoIPConfig enables the optional IP-CIDR ruleset emission when DBPath is
// set.
type GeoIPConfig struct {
	DBPath string   `env:"GEOIP_DB_PATH"`
	Codes  []string `env:"GEOIP_CODES"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `env:"LOG_LEVEL"  env-default:"info"`
	Format string `env:"LOG_FORMAT" env-default:"text"`
}

// Load reads configuration from environment variables, applying defaults
// from struct tags.
func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}
	if cfg.Source.Date == "" {
		cfg.Source.Date = time.Now().UTC().Format("2006-01-02")
	}
	return &cfg, nil
}
