package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Datastore drivers
const (
	DriverREST     = "rest"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Identity providers
const (
	AuthProviderOIDC = "oidc"
	AuthProviderJWT  = "jwt"
)

// Config holds all application configuration
type Config struct {
	ServiceName string
	ServicePort int
	PathPrefix  string
	Datastore   DatastoreConfig
	Auth        AuthConfig
	Log         LogConfig
	RabbitMQ    RabbitMQConfig
	MQTT        MQTTConfig
	Kafka       KafkaConfig
}

// DatastoreConfig selects and configures the datastore gateway backend
type DatastoreConfig struct {
	Driver string

	// rest backend
	URL                          string
	Key                          string
	SkipInsertWithoutCredentials bool

	// postgres backend
	DatabaseURL string
	MaxConns    int32

	// sqlite backend
	SQLitePath string
}

// AuthConfig holds identity provider settings for the realtime channel
type AuthConfig struct {
	Provider    string
	Issuer      string
	UserinfoURL string
	Audience    string
	JWTSecret   string
}

// LogConfig holds logger settings
type LogConfig struct {
	Level        string
	FilePath     string
	MaxSizeMB    int
	MaxBackups   int
	MaxAgeDays   int
	LogToConsole bool
}

// RabbitMQConfig holds RabbitMQ connection, ingest queue and event exchange settings
type RabbitMQConfig struct {
	URL              string
	IngestExchange   string
	IngestQueue      string
	IngestRoutingKey string
	EventsExchange   string
	EventsRoutingKey string
	DLQQueue         string
	PrefetchCount    int
}

// MQTTConfig holds MQTT bridge settings
type MQTTConfig struct {
	BrokerURL string
	ClientID  string
	Username  string
	Password  string
	Topic     string
}

// KafkaConfig holds Kafka bridge settings
type KafkaConfig struct {
	Brokers       string
	Topic         string
	ConsumerGroup string
}

// Enabled reports whether the AMQP bridge and publisher should run
func (c RabbitMQConfig) Enabled() bool { return c.URL != "" }

// Enabled reports whether the MQTT bridge should run
func (c MQTTConfig) Enabled() bool { return c.BrokerURL != "" }

// Enabled reports whether the Kafka bridge should run
func (c KafkaConfig) Enabled() bool { return c.Brokers != "" }

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	cfg := Read()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read reads configuration from environment variables without validating.
// Tooling commands use it and validate only the sections they need.
func Read() *Config {
	return &Config{
		ServiceName: getEnv("SERVICE_NAME", "rnsync-vitals"),
		ServicePort: getEnvAsInt("SERVICE_PORT", 8080),
		PathPrefix:  getEnv("API_PATH_PREFIX", "/rnsync"),
		Datastore: DatastoreConfig{
			Driver:                       strings.ToLower(getEnv("DATASTORE_DRIVER", DriverREST)),
			URL:                          getEnv("SUPABASE_URL", ""),
			Key:                          getEnv("SUPABASE_KEY", ""),
			SkipInsertWithoutCredentials: getEnvAsBool("DATASTORE_SKIP_INSERT_WITHOUT_CREDENTIALS", true),
			DatabaseURL:                  getEnv("DATABASE_URL", ""),
			MaxConns:                     int32(getEnvAsInt("DB_MAX_CONNS", 10)),
			SQLitePath:                   getEnv("SQLITE_PATH", "rnsync.db"),
		},
		Auth: AuthConfig{
			Provider:    strings.ToLower(getEnv("AUTH_PROVIDER", AuthProviderOIDC)),
			Issuer:      getEnv("AUTH_ISSUER", ""),
			UserinfoURL: getEnv("AUTH_USERINFO_URL", ""),
			Audience:    getEnv("AUTH_AUDIENCE", ""),
			JWTSecret:   getEnv("AUTH_JWT_SECRET", ""),
		},
		Log: LogConfig{
			Level:        getEnv("LOG_LEVEL", "info"),
			FilePath:     getEnv("LOG_FILE", ""),
			MaxSizeMB:    getEnvAsInt("LOG_MAX_SIZE_MB", 5),
			MaxBackups:   getEnvAsInt("LOG_MAX_BACKUPS", 3),
			MaxAgeDays:   getEnvAsInt("LOG_MAX_AGE_DAYS", 28),
			LogToConsole: getEnvAsBool("LOG_TO_CONSOLE", true),
		},
		RabbitMQ: RabbitMQConfig{
			URL:              getEnv("RABBITMQ_URL", ""),
			IngestExchange:   getEnv("RABBITMQ_INGEST_EXCHANGE", "rnsync.vitals.ingest.exchange"),
			IngestQueue:      getEnv("RABBITMQ_INGEST_QUEUE", "rnsync.vitals.ingest.queue"),
			IngestRoutingKey: getEnv("RABBITMQ_INGEST_ROUTING_KEY", "vitals.reading.raw"),
			EventsExchange:   getEnv("RABBITMQ_EVENTS_EXCHANGE", "rnsync.vitals.events.exchange"),
			EventsRoutingKey: getEnv("RABBITMQ_EVENTS_ROUTING_KEY", "vitals.reading.ingested"),
			DLQQueue:         getEnv("RABBITMQ_DLQ_QUEUE", "rnsync.vitals.ingest.dlq"),
			PrefetchCount:    getEnvAsInt("RABBITMQ_PREFETCH", 10),
		},
		MQTT: MQTTConfig{
			BrokerURL: getEnv("MQTT_BROKER_URL", ""),
			ClientID:  getEnv("MQTT_CLIENT_ID", "rnsync-vitals"),
			Username:  getEnv("MQTT_USERNAME", ""),
			Password:  getEnv("MQTT_PASSWORD", ""),
			Topic:     getEnv("MQTT_TOPIC", "rnsync/vitals/ingest"),
		},
		Kafka: KafkaConfig{
			Brokers:       getEnv("KAFKA_BROKERS", ""),
			Topic:         getEnv("KAFKA_TOPIC", "rnsync-vitals-ingest"),
			ConsumerGroup: getEnv("KAFKA_CONSUMER_GROUP", "rnsync-vitals"),
		},
	}
}

// Validate checks driver-specific required settings
func (c *Config) Validate() error {
	if err := c.ValidateDatastore(); err != nil {
		return err
	}
	return c.validateAuth()
}

// ValidateDatastore checks the settings of the selected datastore driver
func (c *Config) ValidateDatastore() error {
	switch c.Datastore.Driver {
	case DriverREST, DriverMemory:
		// rest credentials may be absent; the gateway reports that per call
	case DriverPostgres:
		if c.Datastore.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when DATASTORE_DRIVER=%s", DriverPostgres)
		}
	case DriverSQLite:
		if c.Datastore.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required when DATASTORE_DRIVER=%s", DriverSQLite)
		}
	default:
		return fmt.Errorf("DATASTORE_DRIVER must be one of rest, postgres, sqlite, memory, got %q", c.Datastore.Driver)
	}
	return nil
}

func (c *Config) validateAuth() error {
	switch c.Auth.Provider {
	case AuthProviderOIDC:
		if c.Auth.Issuer == "" && c.Auth.UserinfoURL == "" {
			return fmt.Errorf("AUTH_ISSUER or AUTH_USERINFO_URL is required when AUTH_PROVIDER=%s", AuthProviderOIDC)
		}
	case AuthProviderJWT:
		if c.Auth.JWTSecret == "" {
			return fmt.Errorf("AUTH_JWT_SECRET is required when AUTH_PROVIDER=%s", AuthProviderJWT)
		}
	default:
		return fmt.Errorf("AUTH_PROVIDER must be oidc or jwt, got %q", c.Auth.Provider)
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
