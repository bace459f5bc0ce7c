package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	envPrefix      = "KILN"
	configFileName = "config"
)

// Config is the runtime configuration of the kiln_studio binary.
type Config struct {
	LogLevel         string
	DBPath           string
	SnapshotInterval time.Duration
	MetricsAddr      string // empty disables the metrics server
	SeedPath         string
	MaxIncludeDepth  int
}

// Load reads configuration from path, or from config.yml in ./configs or the
// working directory when path is empty. A missing file is not an error.
// KILN_* environment variables override file values, e.g. KILN_DB_PATH.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configFileName)
		v.AddConfigPath("configs") // configs/config.yml
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := Config{
		LogLevel:         v.GetString("log.level"),
		DBPath:           v.GetString("db.path"),
		SnapshotInterval: v.GetDuration("snapshot.interval"),
		MetricsAddr:      v.GetString("metrics.addr"),
		SeedPath:         v.GetString("seed.path"),
		MaxIncludeDepth:  v.GetInt("relation.max_depth"),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("db.path", "kiln_studio.db")
	v.SetDefault("snapshot.interval", 30*time.Second)
	v.SetDefault("metrics.addr", "")
	v.SetDefault("seed.path", "")
	v.SetDefault("relation.max_depth", 4)
}

// Validate rejects settings the binary cannot start with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.DBPath) == "" {
		return errors.New("db.path must not be empty")
	}
	if c.SnapshotInterval <= 0 {
		return fmt.Errorf("snapshot.interval must be positive, got %s", c.SnapshotInterval)
	}
	if c.MaxIncludeDepth <= 0 {
		return fmt.Errorf("relation.max_depth must be positive, got %d", c.MaxIncludeDepth)
	}
	return nil
}
