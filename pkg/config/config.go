package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string           `yaml:"environment" default:"development"`
	Server      ServerConfig     `yaml:"server"`
	Metrics     MetricsConfig    `yaml:"metrics"`
	Logging     LoggingConfig    `yaml:"logging"`
	Loader      LoaderConfig     `yaml:"loader"`
	Yahoo       YahooConfig      `yaml:"yahoo"`
	ClickHouse  ClickHouseConfig `yaml:"clickhouse"`
	Cache       CacheConfig      `yaml:"cache"`
	Kafka       KafkaConfig      `yaml:"kafka"`
	RateLimit   RateLimitConfig  `yaml:"rate_limit"`
	Indicator   IndicatorConfig  `yaml:"indicator"`
}

type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" default:"30s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	SlowThreshold   time.Duration `yaml:"slow_threshold" default:"2s"`
	CORS            bool          `yaml:"cors" default:"true"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" default:"true"`
	Path    string `yaml:"path" default:"/metrics"`
}

type LoggingConfig struct {
	Level           string        `yaml:"level" default:"info"`
	Format          string        `yaml:"format" default:"json"`
	Output          string        `yaml:"output" default:"stdout"`
	CollectTopic    string        `yaml:"collect_topic"`
	CollectInterval time.Duration `yaml:"collect_interval" default:"30s"`
	CollectMax      int           `yaml:"collect_max" default:"100"`
}

// LoaderConfig picks the price source. Timeout bounds one load call.
type LoaderConfig struct {
	Source  string        `yaml:"source" default:"yahoo"`
	Timeout time.Duration `yaml:"timeout" default:"15s"`
}

type YahooConfig struct {
	BaseURL   string `yaml:"base_url" default:"https://query1.finance.yahoo.com"`
	UserAgent string `yaml:"user_agent" default:"Mozilla/5.0 (compatible; QuantPanel/1.0)"`
}

type ClickHouseConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port" default:"9000"`
	Database         string        `yaml:"database" default:"default"`
	User             string        `yaml:"user" default:"default"`
	Password         string        `yaml:"password"`
	Table            string        `yaml:"table" default:"closes"`
	UseHTTP          bool          `yaml:"use_http"`
	DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
	ReadTimeout      time.Duration `yaml:"read_timeout" default:"30s"`
	MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"60s"`
	InitSchema       bool          `yaml:"init_schema"`
}

type CacheConfig struct {
	Enabled       bool          `yaml:"enabled" default:"true"`
	TTL           time.Duration `yaml:"ttl" default:"5m"`
	MemoryEntries int           `yaml:"memory_entries" default:"256"`
	MemoryTTL     time.Duration `yaml:"memory_ttl" default:"1m"`
	Redis         RedisConfig   `yaml:"redis"`
}

type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr" default:"localhost:6379"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Enabled       bool           `yaml:"enabled"`
	Brokers       []string       `yaml:"brokers"`
	SnapshotTopic string         `yaml:"snapshot_topic" default:"quantpanel.snapshots"`
	RequestTopic  string         `yaml:"request_topic"`
	Producer      ProducerConfig `yaml:"producer"`
	Consumer      ConsumerConfig `yaml:"consumer"`
}

type ProducerConfig struct {
	RequiredAcks int           `yaml:"required_acks" default:"-1"`
	Compression  string        `yaml:"compression" default:"snappy"`
	MaxAttempts  int           `yaml:"max_attempts" default:"5"`
	BatchSize    int           `yaml:"batch_size" default:"100"`
	Linger       time.Duration `yaml:"linger" default:"10ms"`
	WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
}

type ConsumerConfig struct {
	GroupID     string        `yaml:"group_id" default:"quantpanel-recompute"`
	StartOffset string        `yaml:"start_offset" default:"latest"`
	Workers     int           `yaml:"workers" default:"2"`
	BufferSize  int           `yaml:"buffer_size" default:"64"`
	RetryMax    int           `yaml:"retry_max" default:"3"`
	BackoffMin  time.Duration `yaml:"backoff_min" default:"200ms"`
	BackoffMax  time.Duration `yaml:"backoff_max" default:"5s"`
	DLQTopic    string        `yaml:"dlq_topic"`
}

// RateLimitConfig is a per-client token bucket on compute endpoints.
// Capacity 0 disables it.
type RateLimitConfig struct {
	Capacity     float64 `yaml:"capacity" default:"10"`
	RefillPerSec float64 `yaml:"refill_per_sec" default:"2"`
}

// IndicatorConfig holds request defaults. The period default depends on the
// timeframe and is not configurable.
type IndicatorConfig struct {
	Timeframe          string `yaml:"timeframe" default:"1d"`
	Windows            string `yaml:"windows" default:"50, 100, 200"`
	ZScoreLookback     int    `yaml:"zscore_lookback" default:"252"`
	StochasticLookback int    `yaml:"stochastic_lookback" default:"20"`
}

// Load reads a YAML file, fills defaults and validates the result.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML bytes over the defaults, so explicit false and zero
// values in the file survive. Empty input yields the defaults.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	c.applyEnv(os.Getenv)
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadOrDefault is LoadWithEnv for tools where the file is optional: an
// empty path starts from the defaults and still applies the environment.
func LoadOrDefault(path string) (*Config, error) {
	if path != "" {
		return LoadWithEnv(path)
	}
	c, err := Parse(nil)
	if err != nil {
		return nil, err
	}
	c.applyEnv(os.Getenv)
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv("QP_ENV"); v != "" {
		c.Environment = v
	}
	if v := getenv("QP_LOADER_SOURCE"); v != "" {
		c.Loader.Source = v
	}
	if v := getenv("REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addr = v
		c.Cache.Redis.Enabled = true
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = splitList(v)
	}
	if v := getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	var errs []error
	if c.Environment == "" {
		errs = append(errs, errors.New("environment is required"))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be 'json' or 'console', got '%s'", c.Logging.Format))
	}
	switch c.Loader.Source {
	case "yahoo":
		if c.Yahoo.BaseURL == "" {
			errs = append(errs, errors.New("yahoo.base_url is required"))
		}
	case "clickhouse":
		if c.ClickHouse.Host == "" {
			errs = append(errs, errors.New("clickhouse.host is required for loader.source 'clickhouse'"))
		}
	default:
		errs = append(errs, fmt.Errorf("loader.source must be 'yahoo' or 'clickhouse', got '%s'", c.Loader.Source))
	}
	if c.Cache.Enabled && c.Cache.TTL <= 0 {
		errs = append(errs, errors.New("cache.ttl must be positive"))
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		errs = append(errs, errors.New("kafka.brokers cannot be empty when kafka is enabled"))
	}
	if c.Logging.CollectTopic != "" && !c.Kafka.Enabled {
		errs = append(errs, errors.New("logging.collect_topic requires kafka.enabled"))
	}
	if c.Indicator.ZScoreLookback < 2 || c.Indicator.StochasticLookback < 2 {
		errs = append(errs, errors.New("indicator lookbacks must be at least 2"))
	}
	return errors.Join(errs...)
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
