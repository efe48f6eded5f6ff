package config

import "time"

type AuthConfig struct {
	Secret    string `mapstructure:"secret" validate:"required,min=16"`
	ExpiryMin int    `mapstructure:"expiry_min" validate:"gte=1"`
	// email verification links
	VerificationExpiry time.Duration `mapstructure:"verification_expiry" validate:"gte=1m"`
	VerifyURL          string        `mapstructure:"verify_url" validate:"required,url"`
}

type DBConfig struct {
	URL             string        `mapstructure:"url" validate:"required"`
	MaxOpenConns    int32         `mapstructure:"max_open_conns" validate:"gte=1"`
	MinIdleConns    int32         `mapstructure:"min_idle_conns" validate:"gte=0"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	HealthTimeout   time.Duration `mapstructure:"health_timeout" validate:"gt=0"`
	Migrate         bool          `mapstructure:"migrate"`
}

type RedisConfig struct {
	URL             string        `mapstructure:"url" validate:"required"`
	DialTimeout     time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	PoolSize        int           `mapstructure:"pool_size" validate:"gte=1"`
	MinIdleConns    int           `mapstructure:"min_idle_conns" validate:"gte=0"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	StatusTTL       time.Duration `mapstructure:"status_ttl"`
}

type RabbitMQConfig struct {
	BrokerLink   string `mapstructure:"broker_link" validate:"required"`
	ExchangeName string `mapstructure:"exchange_name" validate:"required"`
	ExchangeType string `mapstructure:"exchange_type" validate:"oneof=direct topic fanout"`
	QueueName    string `mapstructure:"queue_name" validate:"required"`
	RoutingKey   string `mapstructure:"routing_key" validate:"required"`
	WorkerCount  int    `mapstructure:"worker_count" validate:"gte=1"`
	BufferSize   int    `mapstructure:"buffer_size" validate:"gte=1"`
}

// SchedulerConfig controls the tick source and the coordinator it drives.
type SchedulerConfig struct {
	Interval           time.Duration `mapstructure:"interval" validate:"gte=1s"`
	Staleness          time.Duration `mapstructure:"staleness" validate:"gte=1s"`
	BatchSize          int           `mapstructure:"batch_size" validate:"gte=1,lte=10000"`
	Concurrency        int           `mapstructure:"concurrency" validate:"gte=1,lte=1024"`
	HonorCheckInterval bool          `mapstructure:"honor_check_interval"`
	RunOnStart         bool          `mapstructure:"run_on_start"`
}

type ProbeConfig struct {
	UserAgent    string        `mapstructure:"user_agent"`
	MaxRedirects int           `mapstructure:"max_redirects" validate:"gte=0,lte=20"`
	Grace        time.Duration `mapstructure:"grace" validate:"gte=0"`
}

// EndpointConfig holds the bounds every stored endpoint must respect, in milliseconds.
type EndpointConfig struct {
	MinCheckIntervalMs     int32 `mapstructure:"min_check_interval_ms" validate:"gte=1000"`
	MaxCheckIntervalMs     int32 `mapstructure:"max_check_interval_ms" validate:"gtefield=MinCheckIntervalMs"`
	DefaultCheckIntervalMs int32 `mapstructure:"default_check_interval_ms" validate:"gtefield=MinCheckIntervalMs,ltefield=MaxCheckIntervalMs"`
	MinTimeoutMs           int32 `mapstructure:"min_timeout_ms" validate:"gte=1"`
	MaxTimeoutMs           int32 `mapstructure:"max_timeout_ms" validate:"gtefield=MinTimeoutMs"`
	DefaultTimeoutMs       int32 `mapstructure:"default_timeout_ms" validate:"gtefield=MinTimeoutMs,ltefield=MaxTimeoutMs"`
}

type RateLimitConfig struct {
	CheckNowPerMinute int `mapstructure:"check_now_per_minute" validate:"gte=1"`
	CheckNowBurst     int `mapstructure:"check_now_burst" validate:"gte=1"`
}

type Config struct {
	Port        int             `mapstructure:"port" validate:"gte=1,lte=65535"`
	Env         string          `mapstructure:"env" validate:"required"`
	ServiceName string          `mapstructure:"service_name" validate:"required"`
	DB          DBConfig        `mapstructure:"db"`
	Redis       RedisConfig     `mapstructure:"redis"`
	RabbitMQ    RabbitMQConfig  `mapstructure:"rabbitmq"`
	Auth        AuthConfig      `mapstructure:"auth"`
	Scheduler   SchedulerConfig `mapstructure:"scheduler"`
	Probe       ProbeConfig     `mapstructure:"probe"`
	Endpoint    EndpointConfig  `mapstructure:"endpoint"`
	RateLimit   RateLimitConfig `mapstructure:"ratelimit"`
}
