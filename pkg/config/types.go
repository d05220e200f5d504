// Package config loads and persists the recall configuration. Values come
// from (highest precedence first) CLI flags, RECALL_-prefixed environment
// variables, a config.toml file, and built-in defaults.
package config

// Config represents the persistent recall configuration stored as
// config.toml. The TOML layout uses sections for logical grouping.
type Config struct {
	Version int           `toml:"version" mapstructure:"version"`
	Storage StorageConfig `toml:"storage" mapstructure:"storage"`
	API     APIConfig     `toml:"api" mapstructure:"api"`
	Events  EventsConfig  `toml:"events" mapstructure:"events"`
}

// StorageConfig selects and parameterizes the store driver.
type StorageConfig struct {
	// Provider is "memory" or "mongo".
	Provider string `toml:"provider,omitempty" mapstructure:"provider"`

	// MongoURI is the MongoDB connection string, used when Provider is "mongo".
	MongoURI string `toml:"mongo_uri,omitempty" mapstructure:"mongo_uri"`

	// Database is the MongoDB database name.
	Database string `toml:"database,omitempty" mapstructure:"database"`
}

// APIConfig holds server settings.
type APIConfig struct {
	Listen string `toml:"listen,omitempty" mapstructure:"listen"`
}

// EventsConfig holds optional external event publishing settings. When
// KafkaBrokers is empty, events only reach in-process SSE subscribers.
type EventsConfig struct {
	KafkaBrokers []string `toml:"kafka_brokers,omitempty" mapstructure:"kafka_brokers"`
	KafkaTopic   string   `toml:"kafka_topic,omitempty" mapstructure:"kafka_topic"`
}

// CurrentV is the currently supported config version.
const CurrentV = 0

// NewDefaultConfig returns the built-in defaults: in-memory storage and the
// listen address the original server used.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Storage: StorageConfig{
			Provider: "memory",
			Database: "recall",
		},
		API: APIConfig{
			Listen: ":3000",
		},
		Events: EventsConfig{
			KafkaTopic: "recall.memory.events",
		},
	}
}
