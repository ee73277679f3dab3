package nodeserver

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config controls the reference status endpoint.
type Config struct {
	Addr            string          `mapstructure:"addr"`
	NodeID          string          `mapstructure:"node_id"`
	Version         string          `mapstructure:"version"`
	DataDir         string          `mapstructure:"data_dir"`
	MaxStorage      int64           `mapstructure:"max_storage"`
	PeersFile       string          `mapstructure:"peers_file"`
	CACertFile      string          `mapstructure:"cacert_file"`
	SampleSpec      string          `mapstructure:"sample_spec"`
	SampleTTL       time.Duration   `mapstructure:"sample_ttl"`
	ShutdownTimeout time.Duration   `mapstructure:"shutdown_timeout"`
	LogLevel        string          `mapstructure:"log_level"`
	LogFormat       string          `mapstructure:"log_format"`
	Services        []ServiceConfig `mapstructure:"services"`
}

// ServiceConfig describes a service advertised under localServices. When
// Alias is set the swagger URL is derived from the request host.
type ServiceConfig struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
	Alias   string `mapstructure:"alias"`
}

// EnvPrefix is prepended to every environment override, e.g. NODEWATCH_ADDR.
const EnvPrefix = "NODEWATCH"

const configName = "nodewatch-serve"

// LoadConfig reads defaults, an optional YAML file, environment variables and
// any flags already bound to v, in increasing order of precedence. An empty
// file means nodewatch-serve.yaml is looked up in the working directory and
// ~/.config/nodewatch; a missing file there is not an error.
func LoadConfig(v *viper.Viper, file string) (Config, error) {
	if v == nil {
		v = viper.New()
	}
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if strings.TrimSpace(file) != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/nodewatch")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read serve config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode serve config: %w", err)
	}
	return cfg.normalize(), nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("addr", "127.0.0.1:8080")
	v.SetDefault("node_id", "")
	v.SetDefault("version", "dev")
	v.SetDefault("data_dir", ".")
	v.SetDefault("max_storage", 0)
	v.SetDefault("peers_file", "")
	v.SetDefault("cacert_file", "")
	v.SetDefault("sample_spec", "@every 2s")
	v.SetDefault("sample_ttl", "10s")
	v.SetDefault("shutdown_timeout", "5s")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
}

func (c Config) normalize() Config {
	c.Addr = strings.TrimSpace(c.Addr)
	c.NodeID = strings.TrimSpace(c.NodeID)
	c.DataDir = strings.TrimSpace(c.DataDir)
	if c.DataDir == "" {
		c.DataDir = "."
	}
	if strings.TrimSpace(c.SampleSpec) == "" {
		c.SampleSpec = "@every 2s"
	}
	if c.SampleTTL <= 0 {
		c.SampleTTL = 10 * time.Second
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 5 * time.Second
	}
	return c
}
