// Package config loads service settings from a YAML file whose values may
// reference environment variables as ${VAR} or ${VAR:-default}.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	BackendKafka = "kafka"
	BackendAMQP  = "amqp"
	BackendNone  = "none"

	StorageLocal = "local"
	StorageS3    = "s3"

	DefaultMaxUploadBytes int64 = 10 << 20
)

// Config struct for YAML configuration
type Config struct {
	GRPCPort       int        `yaml:"GRPC_PORT"`
	HTTPPort       int        `yaml:"HTTP_PORT"`
	DBDriver       string     `yaml:"DB_DRIVER"`
	DBHost         string     `yaml:"DB_HOST"`
	DBPort         int        `yaml:"DB_PORT"`
	DBUser         string     `yaml:"DB_USER"`
	DBPassword     string     `yaml:"DB_PASSWORD"`
	DBName         string     `yaml:"DB_NAME"`
	DBSSLMode      string     `yaml:"DB_SSLMODE"`
	DBPath         string     `yaml:"DB_PATH"`
	EventsBackend  string     `yaml:"EVENTS_BACKEND"`
	KafkaBrokers   StringList `yaml:"KAFKA_BROKERS"`
	Topic          string     `yaml:"TOPIC"`
	IngestTopic    string     `yaml:"INGEST_TOPIC"`
	IngestGroup    string     `yaml:"INGEST_GROUP"`
	AMQPURL        string     `yaml:"AMQP_URL"`
	AMQPExchange   string     `yaml:"AMQP_EXCHANGE"`
	JWTSecret      string     `yaml:"JWT_SECRET"`
	StorageBackend string     `yaml:"STORAGE_BACKEND"`
	MediaRoot      string     `yaml:"MEDIA_ROOT"`
	PublicBaseURL  string     `yaml:"PUBLIC_BASE_URL"`
	S3Endpoint     string     `yaml:"S3_ENDPOINT"`
	S3PublicURL    string     `yaml:"S3_PUBLIC_URL"`
	S3Bucket       string     `yaml:"S3_BUCKET"`
	S3Region       string     `yaml:"S3_REGION"`
	S3AccessKey    string     `yaml:"S3_ACCESS_KEY"`
	S3SecretKey    string     `yaml:"S3_SECRET_KEY"`
	MaxUploadBytes int64      `yaml:"MAX_UPLOAD_BYTES"`
}

// StringList accepts either a YAML sequence or a comma-separated scalar.
type StringList []string

func (l *StringList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		var items []string
		if err := node.Decode(&items); err != nil {
			return err
		}
		*l = compact(items)
	case yaml.ScalarNode:
		*l = compact(strings.Split(node.Value, ","))
	default:
		return fmt.Errorf("line %d: expected a list or comma-separated string", node.Line)
	}
	return nil
}

func compact(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// DefaultPath is CONFIG_PATH when set, otherwise the bundled config.yaml.
func DefaultPath() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return filepath.Join("internal", "professional", "config", "config.yaml")
}

// Load reads a .env file from the working directory when present, then
// the YAML file at path with environment references expanded.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(file)
}

// Parse decodes raw YAML after expanding environment references.
func Parse(raw []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal([]byte(os.Expand(string(raw), lookup)), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// lookup resolves VAR and VAR:-default references.
func lookup(ref string) string {
	name, fallback, hasDefault := strings.Cut(ref, ":-")
	if value, ok := os.LookupEnv(name); ok && (value != "" || !hasDefault) {
		return value
	}
	return fallback
}

func (c *Config) applyDefaults() {
	setDefault(&c.GRPCPort, 50051)
	setDefault(&c.HTTPPort, 8080)
	setDefault(&c.DBDriver, "postgres")
	setDefault(&c.DBPort, 5432)
	setDefault(&c.DBSSLMode, "disable")
	setDefault(&c.DBPath, "professionals.db")
	setDefault(&c.EventsBackend, BackendNone)
	setDefault(&c.Topic, "professionals.events")
	setDefault(&c.IngestGroup, "professionals-ingest")
	setDefault(&c.AMQPExchange, "professional_events")
	setDefault(&c.StorageBackend, StorageLocal)
	setDefault(&c.MediaRoot, "media")
	setDefault(&c.PublicBaseURL, fmt.Sprintf("http://localhost:%d", c.HTTPPort))
	setDefault(&c.S3Region, "us-east-1")
	setDefault(&c.MaxUploadBytes, DefaultMaxUploadBytes)
}

func setDefault[T comparable](field *T, value T) {
	var zero T
	if *field == zero {
		*field = value
	}
}

func (c *Config) validate() error {
	switch c.EventsBackend {
	case BackendKafka:
		if len(c.KafkaBrokers) == 0 {
			return errors.New("KAFKA_BROKERS is required for the kafka events backend")
		}
	case BackendAMQP:
		if c.AMQPURL == "" {
			return errors.New("AMQP_URL is required for the amqp events backend")
		}
	case BackendNone:
	default:
		return fmt.Errorf("unknown EVENTS_BACKEND %q", c.EventsBackend)
	}

	switch c.StorageBackend {
	case StorageLocal:
	case StorageS3:
		if c.S3Bucket == "" {
			return errors.New("S3_BUCKET is required for the s3 storage backend")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}
	return nil
}
