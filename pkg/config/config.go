package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"seismograph/internal/services/features"
	"seismograph/internal/services/forensics"
	"seismograph/internal/services/regime"
	"seismograph/pkg/logger"
)

type Config struct {
	Environment string           `yaml:"environment" default:"development" validate:"required"`
	Log         logger.Config    `yaml:"log"`
	Server      ServerConfig     `yaml:"server"`
	Metrics     MetricsConfig    `yaml:"metrics"`
	MarketData  MarketDataConfig `yaml:"marketdata"`
	Cache       CacheConfig      `yaml:"cache"`
	ClickHouse  ClickHouseConfig `yaml:"clickhouse"`
	Kafka       KafkaConfig      `yaml:"kafka"`
	Analysis    AnalysisConfig   `yaml:"analysis"`
	Strategy    StrategyConfig   `yaml:"strategy"`
}

type ServerConfig struct {
	Host            string        `yaml:"host" default:"0.0.0.0"`
	Port            int           `yaml:"port" default:"8080" validate:"gte=1,lte=65535"`
	CORS            bool          `yaml:"cors" default:"true"`
	ReadTimeout     time.Duration `yaml:"read_timeout" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	// per client IP
	RateLimit struct {
		Enabled   bool          `yaml:"enabled" default:"true"`
		Burst     float64       `yaml:"burst" default:"20" validate:"gte=1"`
		PerSecond float64       `yaml:"per_second" default:"5" validate:"gt=0"`
		IdleTTL   time.Duration `yaml:"idle_ttl" default:"10m"`
	} `yaml:"rate_limit"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" default:"true"`
	Path    string `yaml:"path" default:"/metrics"`
}

type MarketDataConfig struct {
	BaseURL   string        `yaml:"base_url" default:"https://query1.finance.yahoo.com" validate:"required,url"`
	UserAgent string        `yaml:"user_agent" default:"Mozilla/5.0 (seismograph)"`
	Timeout   time.Duration `yaml:"timeout" default:"15s"`
	// requests per second towards the provider
	Rate  float64 `yaml:"rate" default:"2" validate:"gt=0"`
	Burst int     `yaml:"burst" default:"4" validate:"gte=1"`
	Retry struct {
		Attempts int           `yaml:"attempts" default:"2" validate:"gte=0,lte=5"`
		Backoff  time.Duration `yaml:"backoff" default:"500ms"`
	} `yaml:"retry"`
	Breaker struct {
		MaxRequests  uint32        `yaml:"max_requests" default:"1"`
		Interval     time.Duration `yaml:"interval" default:"60s"`
		Timeout      time.Duration `yaml:"timeout" default:"30s"`
		FailureRatio float64       `yaml:"failure_ratio" default:"0.6" validate:"gt=0,lte=1"`
		MinRequests  uint32        `yaml:"min_requests" default:"3"`
	} `yaml:"breaker"`
}

type CacheConfig struct {
	Backend   string        `yaml:"backend" default:"memory" validate:"oneof=none memory redis layered"`
	TTL       time.Duration `yaml:"ttl" default:"12h"`
	MemoryTTL time.Duration `yaml:"memory_ttl" default:"10m"`
	MaxSize   int           `yaml:"max_size" default:"256" validate:"gte=1"`
	Redis     struct {
		Addr     string `yaml:"addr" default:"localhost:6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix" default:"seismograph"`
		PoolSize int    `yaml:"pool_size" default:"10" validate:"gte=1"`
		MinIdle  int    `yaml:"min_idle" default:"2"`
	} `yaml:"redis"`
	// sweep interval for expired in-process entries
	CleanupInterval time.Duration `yaml:"cleanup_interval" default:"5m"`
}

type ClickHouseConfig struct {
	Enabled          bool          `yaml:"enabled"`
	Host             string        `yaml:"host" default:"localhost"`
	Port             int           `yaml:"port" default:"9000"`
	Database         string        `yaml:"database" default:"seismograph"`
	User             string        `yaml:"user" default:"default"`
	Password         string        `yaml:"password"`
	UseHTTP          bool          `yaml:"use_http"`
	AsyncInsert      bool          `yaml:"async_insert"`
	WaitForAsync     bool          `yaml:"wait_for_async_insert" default:"true"`
	DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
	ReadTimeout      time.Duration `yaml:"read_timeout" default:"30s"`
	MaxOpenConns     int           `yaml:"max_open_conns" default:"10" validate:"gte=1"`
	MaxIdleConns     int           `yaml:"max_idle_conns" default:"5" validate:"gte=0"`
	ConnMaxLifetime  time.Duration `yaml:"conn_max_lifetime" default:"5m"`
	MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"60s"`
}

type KafkaConfig struct {
	Enabled      bool     `yaml:"enabled"`
	Brokers      []string `yaml:"brokers"`
	Topic        string   `yaml:"topic" default:"seismograph.regime-transitions"`
	RequiredAcks int      `yaml:"required_acks" default:"-1"`
	Compression  string   `yaml:"compression" default:"snappy" validate:"oneof=none gzip snappy lz4 zstd"`
	Producer     struct {
		MaxAttempts  int           `yaml:"max_attempts" default:"5"`
		Linger       time.Duration `yaml:"linger" default:"50ms"`
		BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
		BatchSize    int           `yaml:"batch_size" default:"100"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
		ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
		Async        bool          `yaml:"async"`
	} `yaml:"producer"`
}

type AnalysisConfig struct {
	Features   features.Config  `yaml:"features"`
	Classifier regime.Config    `yaml:"classifier"`
	Forensics  forensics.Config `yaml:"forensics"`
	// hysteresis for portfolio regime changes
	Confirmations int `yaml:"confirmations" default:"2" validate:"gte=1"`
	// upper bound for one fetch plus computation
	Timeout time.Duration `yaml:"timeout" default:"60s" validate:"gt=0"`
}

type StrategyConfig struct {
	Profile   string             `yaml:"profile" default:"defensive" validate:"oneof=defensive aggressive"`
	Overrides map[string]float64 `yaml:"overrides"`
}

var validate = validator.New()

// Default returns a configuration with every default applied.
func Default() *Config {
	var c Config
	if err := defaults.Set(&c); err != nil {
		panic(fmt.Sprintf("config defaults: %v", err))
	}
	return &c
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML on top of the defaults and validates the result.
func Parse(b []byte) (*Config, error) {
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads config from YAML and overrides with SEISMO_* environment
// variables. An empty path starts from the defaults.
func LoadWithEnv(path string) (*Config, error) {
	var (
		c   *Config
		err error
	)
	if path == "" {
		c = Default()
	} else if c, err = Load(path); err != nil {
		return nil, err
	}

	if err := c.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv("SEISMO_ENV"); v != "" {
		c.Environment = v
	}
	if v := getenv("SEISMO_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := getenv("SEISMO_LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}
	if v := getenv("SEISMO_SERVER_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SEISMO_SERVER_PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v := getenv("SEISMO_MARKETDATA_BASE_URL"); v != "" {
		c.MarketData.BaseURL = v
	}
	if v := getenv("SEISMO_CACHE_BACKEND"); v != "" {
		c.Cache.Backend = v
	}
	if v := getenv("SEISMO_REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addr = v
	}
	if v := getenv("SEISMO_REDIS_PASSWORD"); v != "" {
		c.Cache.Redis.Password = v
	}
	if v := getenv("SEISMO_CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
		c.ClickHouse.Enabled = true
	}
	if v := getenv("SEISMO_CLICKHOUSE_PASSWORD"); v != "" {
		c.ClickHouse.Password = v
	}
	if v := getenv("SEISMO_KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
		c.Kafka.Enabled = true
	}
	if v := getenv("SEISMO_KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := getenv("SEISMO_STRATEGY"); v != "" {
		c.Strategy.Profile = strings.ToLower(v)
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return errors.New("kafka.brokers cannot be empty when kafka is enabled")
	}
	if (c.Cache.Backend == "redis" || c.Cache.Backend == "layered") && c.Cache.Redis.Addr == "" {
		return fmt.Errorf("cache.redis.addr is required for backend %q", c.Cache.Backend)
	}
	if err := c.Analysis.Features.Validate(); err != nil {
		return fmt.Errorf("analysis.features: %w", err)
	}
	if err := c.Analysis.Classifier.Validate(); err != nil {
		return fmt.Errorf("analysis.classifier: %w", err)
	}
	return nil
}
