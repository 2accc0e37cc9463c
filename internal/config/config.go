package config

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/Guizzs26/voting_registry/internal/log"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

const EnvPrefix = "VOTING"

// Store backends.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
	StorePebble = "pebble"
)

type Config struct {
	LogLevel log.LogLevel `mapstructure:"log-level"`
	Colour   bool         `mapstructure:"colour"`

	HTTPHost    string   `mapstructure:"http-host"`
	HTTPPort    uint16   `mapstructure:"http-port"`
	CORSOrigins []string `mapstructure:"cors-origins"`

	Metrics     bool   `mapstructure:"metrics"`
	MetricsHost string `mapstructure:"metrics-host"`
	MetricsPort uint16 `mapstructure:"metrics-port"`

	Store       string `mapstructure:"store"`
	RedisURL    string `mapstructure:"redis-url"`
	RedisPrefix string `mapstructure:"redis-prefix"`
	PebblePath  string `mapstructure:"pebble-path"`

	// Consume runs the ballot processor inside the node.
	Consume        bool          `mapstructure:"consume"`
	KafkaBrokers   []string      `mapstructure:"kafka-brokers"`
	KafkaTopic     string        `mapstructure:"kafka-topic"`
	KafkaGroupID   string        `mapstructure:"kafka-group"`
	ReportInterval time.Duration `mapstructure:"report-interval"`

	EnforceVotingWindow bool `mapstructure:"enforce-voting-window"`
}

func Default() Config {
	return Config{
		LogLevel:       log.INFO,
		HTTPHost:       "localhost",
		HTTPPort:       8081,
		CORSOrigins:    []string{"*"},
		MetricsHost:    "localhost",
		MetricsPort:    9090,
		Store:          StoreMemory,
		RedisURL:       "redis://localhost:6379/0",
		RedisPrefix:    "registry",
		PebblePath:     "registry-db",
		KafkaBrokers:   []string{"localhost:9092"},
		KafkaTopic:     "ballots",
		KafkaGroupID:   "ballot-processor-group",
		ReportInterval: 5 * time.Second,
	}
}

// NewViper returns a viper instance that reads VOTING_* environment variables
// and, when cfgFile is set, the YAML file at that path.
func NewViper(cfgFile string) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	// Unmarshal only sees keys viper knows about, AutomaticEnv alone adds none.
	for _, key := range Keys() {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if cfgFile != "" {
		v.SetConfigType("yaml")
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}
	return v, nil
}

// Keys lists every configuration key, as used in YAML files and flags.
func Keys() []string {
	t := reflect.TypeOf(Config{})
	keys := make([]string, 0, t.NumField())
	for i := range t.NumField() {
		if key := t.Field(i).Tag.Get("mapstructure"); key != "" {
			keys = append(keys, key)
		}
	}
	return keys
}

// Load decodes v on top of the defaults and validates the result.
func Load(v *viper.Viper) (*Config, error) {
	cfg := Default()
	err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)))
	if err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Store {
	case StoreMemory:
	case StoreRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("redis store selected but redis-url is empty")
		}
	case StorePebble:
		if c.PebblePath == "" {
			return fmt.Errorf("pebble store selected but pebble-path is empty")
		}
	default:
		return fmt.Errorf("unknown store %q (known: %s, %s, %s)", c.Store, StoreMemory, StoreRedis, StorePebble)
	}

	if c.Consume && len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("consume enabled but no kafka brokers configured")
	}
	return nil
}
