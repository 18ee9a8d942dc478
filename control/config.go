// control/config.go
// Author: momentics <momentics@gmail.com>
//
// YAML and environment configuration loaded through viper.

package control

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/momentics/melcomm/api"
)

// EnvPrefix prefixes environment overrides, e.g. MELCOMM_LOG_LEVEL=debug.
const EnvPrefix = "MELCOMM"

// Config is the root configuration.
type Config struct {
	Log    LogConfig    `mapstructure:"log"`
	Share  ShareConfig  `mapstructure:"share"`
	Net    NetConfig    `mapstructure:"net"`
	Server ServerConfig `mapstructure:"server"`
}

// LogConfig defines logger settings.
type LogConfig struct {
	// Level: debug, info, warn, error
	Level string `mapstructure:"level"`
	// Format: console or json
	Format string `mapstructure:"format"`
	// Outputs: stdout, stderr or file paths
	Outputs     []string       `mapstructure:"outputs"`
	Rotation    RotationConfig `mapstructure:"rotation"`
	Development bool           `mapstructure:"development"`
}

// RotationConfig controls rotation of file outputs.
type RotationConfig struct {
	Enable     bool   `mapstructure:"enable"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// ShareConfig configures MelShare regions.
type ShareConfig struct {
	Name        string        `mapstructure:"name"`
	Size        int           `mapstructure:"size"`
	LockTimeout time.Duration `mapstructure:"lock_timeout"`
	Persistent  bool          `mapstructure:"persistent"`
}

// NetConfig configures a MelNet endpoint.
type NetConfig struct {
	LocalPort  uint16 `mapstructure:"local_port"`
	RemotePort uint16 `mapstructure:"remote_port"`
	RemoteHost string `mapstructure:"remote_host"`
	Blocking   bool   `mapstructure:"blocking"`
	InboxSize  int    `mapstructure:"inbox_size"`
}

// ServerConfig configures the packet server.
type ServerConfig struct {
	Bind       string `mapstructure:"bind"`
	Port       uint16 `mapstructure:"port"`
	MaxPeers   int    `mapstructure:"max_peers"`
	QueueLimit int    `mapstructure:"queue_limit"`
}

// Default returns a Config populated with defaults.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:   "info",
			Format:  "console",
			Outputs: []string{"stderr"},
			Rotation: RotationConfig{
				Filename:   "logs/melcomm.log",
				MaxSizeMB:  50,
				MaxBackups: 3,
				MaxAgeDays: 28,
				Compress:   true,
			},
		},
		Share: ShareConfig{
			Name:        "melshare",
			Size:        4096,
			LockTimeout: 100 * time.Millisecond,
		},
		Net: NetConfig{
			LocalPort:  55001,
			RemotePort: 55002,
			RemoteHost: "127.0.0.1",
			Blocking:   true,
			InboxSize:  16,
		},
		Server: ServerConfig{
			Bind:       "0.0.0.0",
			Port:       55000,
			MaxPeers:   64,
			QueueLimit: 256,
		},
	}
}

func newViper(cfg *Config) *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// seed defaults so env-only configs work
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("log.outputs", cfg.Log.Outputs)
	v.SetDefault("log.development", cfg.Log.Development)
	v.SetDefault("log.rotation.enable", cfg.Log.Rotation.Enable)
	v.SetDefault("log.rotation.filename", cfg.Log.Rotation.Filename)
	v.SetDefault("log.rotation.max_size_mb", cfg.Log.Rotation.MaxSizeMB)
	v.SetDefault("log.rotation.max_backups", cfg.Log.Rotation.MaxBackups)
	v.SetDefault("log.rotation.max_age_days", cfg.Log.Rotation.MaxAgeDays)
	v.SetDefault("log.rotation.compress", cfg.Log.Rotation.Compress)
	v.SetDefault("share.name", cfg.Share.Name)
	v.SetDefault("share.size", cfg.Share.Size)
	v.SetDefault("share.lock_timeout", cfg.Share.LockTimeout)
	v.SetDefault("share.persistent", cfg.Share.Persistent)
	v.SetDefault("net.local_port", cfg.Net.LocalPort)
	v.SetDefault("net.remote_port", cfg.Net.RemotePort)
	v.SetDefault("net.remote_host", cfg.Net.RemoteHost)
	v.SetDefault("net.blocking", cfg.Net.Blocking)
	v.SetDefault("net.inbox_size", cfg.Net.InboxSize)
	v.SetDefault("server.bind", cfg.Server.Bind)
	v.SetDefault("server.port", cfg.Server.Port)
	v.SetDefault("server.max_peers", cfg.Server.MaxPeers)
	v.SetDefault("server.queue_limit", cfg.Server.QueueLimit)
	return v
}

// NewViper returns a viper instance seeded with defaults and env binding
// but no config file. Command line tools bind their flags onto it and
// decode with Decode.
func NewViper() *viper.Viper { return newViper(Default()) }

// Load reads configuration from path (if non-empty), otherwise from
// MELCOMM_CONFIG or melcomm.yaml in common locations, applying environment
// overrides on top.
func Load(path string) (*Config, error) {
	v := NewViper()
	if err := ReadInto(v, path); err != nil {
		return nil, err
	}
	return Decode(v)
}

// ReadInto points v at the config file for path and reads it. A missing
// file found by search is not an error.
func ReadInto(v *viper.Viper, path string) error {
	if path == "" {
		path = os.Getenv(EnvPrefix + "_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("melcomm")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".melcomm"))
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return errors.Wrap(err, "read config")
		}
	}
	return nil
}

// Decode unmarshals and validates the configuration held by v.
func Decode(v *viper.Viper) (*Config, error) {
	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate normalizes the configuration and reports the first invalid
// setting as an *api.Error.
func (c *Config) Validate() error {
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	if _, err := parseLevel(c.Log.Level); err != nil {
		return invalid("log.level", c.Log.Level)
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if len(c.Log.Outputs) == 0 {
		c.Log.Outputs = []string{"stderr"}
	}
	if c.Share.Size < 16 {
		return invalid("share.size", c.Share.Size)
	}
	if c.Share.LockTimeout <= 0 {
		return invalid("share.lock_timeout", c.Share.LockTimeout)
	}
	if c.Net.InboxSize <= 0 {
		return invalid("net.inbox_size", c.Net.InboxSize)
	}
	if c.Server.MaxPeers <= 0 {
		return invalid("server.max_peers", c.Server.MaxPeers)
	}
	if c.Server.QueueLimit <= 0 {
		return invalid("server.queue_limit", c.Server.QueueLimit)
	}
	return nil
}

func invalid(key string, value any) error {
	return api.NewError(api.ErrCodeInvalidArgument, "invalid "+key).
		WithContext("key", key).
		WithContext("value", value)
}
