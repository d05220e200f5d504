package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads config.toml from configDir
// (if the directory is non-empty and the file exists), and binds environment
// variables with the RECALL_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound by the command)
//  2. Environment variables (RECALL_API_LISTEN, RECALL_STORAGE_MONGO_URI, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	setViperDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("toml")

	if configDir != "" {
		v.AddConfigPath(configDir)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix("RECALL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// FromViper unmarshals the resolved viper state into a Config.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := NewDefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return cfg, nil
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps types.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	def := NewDefaultConfig()

	v.SetDefault("version", def.Version)
	v.SetDefault("storage.provider", def.Storage.Provider)
	v.SetDefault("storage.mongo_uri", def.Storage.MongoURI)
	v.SetDefault("storage.database", def.Storage.Database)
	v.SetDefault("api.listen", def.API.Listen)
	v.SetDefault("events.kafka_brokers", def.Events.KafkaBrokers)
	v.SetDefault("events.kafka_topic", def.Events.KafkaTopic)
}
