package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Kafka struct {
		Brokers       []string `yaml:"brokers"`
		BarsTopic     string   `yaml:"bars_topic"`
		NewsTopic     string   `yaml:"news_topic"`
		TriggersTopic string   `yaml:"triggers_topic"`
		RequiredAcks  int      `yaml:"required_acks"`
		Compression   string   `yaml:"compression"`
		Producer      struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers"`
			BufferSize int           `yaml:"buffer_size"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes"`
			MaxBytes   int           `yaml:"max_bytes"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Feed struct {
		APIKey         string        `yaml:"api_key"`
		WebSocketURL   string        `yaml:"websocket_url"`
		Symbols        []string      `yaml:"symbols"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay"`
		PingInterval   time.Duration `yaml:"ping_interval"`
	} `yaml:"feed"`
	Engine struct {
		MinBucketSamples     int     `yaml:"min_bucket_samples"`
		MinReliableSamples   int     `yaml:"min_reliable_samples"`
		SampleSaturation     int     `yaml:"sample_saturation"`
		ConfidenceK          float64 `yaml:"confidence_k"`
		LaggedOffsetDays     int     `yaml:"lagged_offset_days"`
		SNRClip              float64 `yaml:"snr_clip"`
		VolumeBaselineWindow int     `yaml:"volume_baseline_window"`
		Weights              struct {
			Information float64 `yaml:"information"`
			Pattern     float64 `yaml:"pattern"`
			Timing      float64 `yaml:"timing"`
			Direction   float64 `yaml:"direction"`
		} `yaml:"weights"`
		Thresholds struct {
			TradeThis float64 `yaml:"trade_this"`
			Maybe     float64 `yaml:"maybe"`
		} `yaml:"thresholds"`
		ScoreCacheTTL time.Duration `yaml:"score_cache_ttl"`
	} `yaml:"engine"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	c.applyDefaults()

	// Validate required fields
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

	// Override with environment variables
	if v := os.Getenv("FEED_API_KEY"); v != "" {
		c.Feed.APIKey = v
	}
	if v := os.Getenv("SYMBOLS"); v != "" {
		c.Feed.Symbols = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}

	return c, nil
}

func (c *Config) applyDefaults() {
	e := &c.Engine
	if e.MinBucketSamples == 0 {
		e.MinBucketSamples = 5
	}
	if e.MinReliableSamples == 0 {
		e.MinReliableSamples = 20
	}
	if e.SampleSaturation == 0 {
		e.SampleSaturation = 30
	}
	if e.ConfidenceK == 0 {
		e.ConfidenceK = 12
	}
	if e.LaggedOffsetDays == 0 {
		e.LaggedOffsetDays = 4
	}
	if e.SNRClip == 0 {
		e.SNRClip = 2.0
	}
	if e.VolumeBaselineWindow == 0 {
		e.VolumeBaselineWindow = 20
	}
	if e.Weights.Information == 0 && e.Weights.Pattern == 0 && e.Weights.Timing == 0 && e.Weights.Direction == 0 {
		e.Weights.Information = 0.30
		e.Weights.Pattern = 0.25
		e.Weights.Timing = 0.25
		e.Weights.Direction = 0.20
	}
	if e.Thresholds.TradeThis == 0 {
		e.Thresholds.TradeThis = 70
	}
	if e.Thresholds.Maybe == 0 {
		e.Thresholds.Maybe = 45
	}
	if e.ScoreCacheTTL == 0 {
		e.ScoreCacheTTL = 5 * time.Minute
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if len(c.Feed.Symbols) == 0 {
		return fmt.Errorf("feed.symbols cannot be empty")
	}
	e := &c.Engine
	sum := e.Weights.Information + e.Weights.Pattern + e.Weights.Timing + e.Weights.Direction
	if sum < 0.999 || sum > 1.001 {
		return fmt.Errorf("engine.weights must sum to 1.0, got %.3f", sum)
	}
	if e.Thresholds.Maybe >= e.Thresholds.TradeThis {
		return fmt.Errorf("engine.thresholds.maybe must be below trade_this")
	}
	if e.MinBucketSamples < 1 {
		return fmt.Errorf("engine.min_bucket_samples must be positive")
	}
	if e.LaggedOffsetDays < 2 {
		return fmt.Errorf("engine.lagged_offset_days must be at least 2")
	}
	return nil
}
