// Package config loads the daemon settings and voice agent definitions.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/casualjim/vshl/internal/fault"
	"github.com/spf13/viper"
)

const (
	BrokerLocal = "local"
	BrokerNATS  = "nats"
)

type Settings struct {
	NATS       NATSSettings    `mapstructure:"nats"`
	Broker     string          `mapstructure:"broker"`
	Subjects   SubjectSettings `mapstructure:"subjects"`
	RPCTimeout time.Duration   `mapstructure:"rpc_timeout"`
	AgentsFile string          `mapstructure:"agents_file"`
	Log        LogSettings     `mapstructure:"log"`
	Metrics    MetricsSettings `mapstructure:"metrics"`
}

type NATSSettings struct {
	URL  string `mapstructure:"url"`
	Name string `mapstructure:"name"`
}

// SubjectSettings holds the NATS subject namespaces.
type SubjectSettings struct {
	// Events is where broker topics are published.
	Events string `mapstructure:"events"`
	// RPC prefixes outbound calls to voice agent bindings.
	RPC string `mapstructure:"rpc"`
	// Verbs prefixes the command surface served by the daemon.
	Verbs string `mapstructure:"verbs"`
	// Backend prefixes the state events voice agents send in.
	Backend string `mapstructure:"backend"`
}

type LogSettings struct {
	Level string `mapstructure:"level"`
}

type MetricsSettings struct {
	Addr string `mapstructure:"addr"`
}

// Load reads settings from file, or from vshl.{yaml,json,toml} in the working
// directory or /etc/vshl when file is empty. VSHL_ prefixed environment
// variables override both, e.g. VSHL_NATS_URL or VSHL_RPC_TIMEOUT.
func Load(file string) (*Settings, error) {
	v := viper.New()
	setDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("vshl")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/vshl")
	}

	v.SetEnvPrefix("VSHL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("nats.url", "VSHL_NATS_URL", "NATS_URL")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("nats.url", "")
	v.SetDefault("nats.name", "vshl")
	v.SetDefault("broker", BrokerLocal)
	v.SetDefault("subjects.events", "vshl.events")
	v.SetDefault("subjects.rpc", "afb")
	v.SetDefault("subjects.verbs", "vshl")
	v.SetDefault("subjects.backend", "vshl.backend")
	v.SetDefault("rpc_timeout", 5*time.Second)
	v.SetDefault("agents_file", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("metrics.addr", "")
}

// Validate checks the settings for values the daemon cannot run with.
func (s *Settings) Validate() error {
	switch s.Broker {
	case BrokerLocal, BrokerNATS:
	default:
		return fault.Validation("unknown broker %q, want %q or %q", s.Broker, BrokerLocal, BrokerNATS)
	}
	if s.RPCTimeout <= 0 {
		return fault.Validation("rpc_timeout must be positive, got %s", s.RPCTimeout)
	}
	if s.Subjects.Verbs == "" || s.Subjects.Backend == "" {
		return fault.Validation("verb and backend subjects are required")
	}
	return nil
}
