package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Peer   PeerConfig   `mapstructure:"peer"`
}

type ServerConfig struct {
	Mode           string        `mapstructure:"mode"`
	Port           int           `mapstructure:"port"`
	Secret         string        `mapstructure:"secret"`
	ReadLimit      int64         `mapstructure:"read_limit"`
	PingPeriod     time.Duration `mapstructure:"ping_period"`
	ChatHistory    int           `mapstructure:"chat_history"`
	CreateRate     int           `mapstructure:"create_rate"`
	CreateInterval time.Duration `mapstructure:"create_interval"`
	LogLevel       string        `mapstructure:"log_level"`
}

type PeerConfig struct {
	ServerURL      string        `mapstructure:"server_url"`
	Token          string        `mapstructure:"token"`
	TickRate       time.Duration `mapstructure:"tick_rate"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	AcceptPolicy   string        `mapstructure:"accept_policy"`
	ChatBufferSize int           `mapstructure:"chat_buffer_size"`
	ICEServers     []string      `mapstructure:"ice_servers"`
	LogLevel       string        `mapstructure:"log_level"`
}

// flagKeys maps config keys to the command-line flags that override them.
var flagKeys = map[string]string{
	"server.mode":          "mode",
	"server.port":          "port",
	"server.log_level":     "log-level",
	"peer.server_url":      "server",
	"peer.token":           "token",
	"peer.tick_rate":       "tick-rate",
	"peer.request_timeout": "request-timeout",
	"peer.accept_policy":   "accept-policy",
	"peer.log_level":       "log-level",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.secret", "change-me")
	v.SetDefault("server.read_limit", 32768)
	v.SetDefault("server.ping_period", "54s")
	v.SetDefault("server.chat_history", 64)
	v.SetDefault("server.create_rate", 5)
	v.SetDefault("server.create_interval", "1m")
	v.SetDefault("server.log_level", "info")

	v.SetDefault("peer.server_url", "ws://localhost:8080/api/ws")
	v.SetDefault("peer.token", "")
	v.SetDefault("peer.tick_rate", "50ms")
	v.SetDefault("peer.request_timeout", "10s")
	v.SetDefault("peer.accept_policy", "members_only")
	v.SetDefault("peer.chat_buffer_size", 4096)
	v.SetDefault("peer.ice_servers", []string{"stun:stun.l.google.com:19302"})
	v.SetDefault("peer.log_level", "info")
}

// Load reads config/config.<CONFIG_ENV>.yaml (default dev), then LOBBY_*
// environment variables, then the flags in flags, later sources winning.
// A missing file is not an error. flags may be nil.
func Load(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)
	v.SetConfigFile(fileName)

	setDefaults(v)

	v.SetEnvPrefix("LOBBY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for key, name := range flagKeys {
			f := flags.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	log.Debug().Str("module", "config").Str("mode", cfg.Server.Mode).Int("port", cfg.Server.Port).Str("server_url", cfg.Peer.ServerURL).Msg("config ready")
	return &cfg, nil
}
