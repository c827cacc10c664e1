package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type OrderConfig struct {
	Env 			string `yaml:"env" env:"ORDER_ENV" env-default:"local"`
	HTTPServer 		`yaml:"http_server"`
	GRPCServer 		`yaml:"grpc_server"`
	OrderDB 		`yaml:"order_db"`
	LogConfig 		`yaml:"log_config"`
	PaymentService 	`yaml:"payment_service"`
	KafkaService 	`yaml:"kafka_service"`
	Redis 			`yaml:"redis"`
	Lifecycle 		`yaml:"lifecycle"`
	PartialRefund 	`yaml:"partial_refund"`
	Outbox 			`yaml:"outbox"`
}

type HTTPServer struct {
	Host 			string 			`yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port 			string 			`yaml:"port" env:"HTTP_PORT" env-default:"8080"`
	RequestTimeout 	time.Duration 	`yaml:"request_timeout" env-default:"10s"`
	ShutdownTimeout time.Duration 	`yaml:"shutdown_timeout" env-default:"10s"`
}

type GRPCServer struct {
	Host string `yaml:"host" env:"GRPC_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"GRPC_PORT" env-default:"9090"`
}

type OrderDB struct {
	// Driver is postgres or memory.
	Driver 			string `yaml:"driver" env:"ORDER_DB_DRIVER" env-default:"postgres"`
	Dsn 			string `yaml:"dsn" env:"ORDER_DB_DSN"`
	MigrationsPath 	string `yaml:"migrations_path" env:"ORDER_DB_MIGRATIONS" env-default:"migrations"`
	MaxOpenConns 	int 			`yaml:"max_open_conns" env:"ORDER_DB_MAX_OPEN_CONNS" env-default:"20"`
	MaxIdleConns 	int 			`yaml:"max_idle_conns" env:"ORDER_DB_MAX_IDLE_CONNS" env-default:"5"`
	ConnMaxLifetime time.Duration 	`yaml:"conn_max_lifetime" env:"ORDER_DB_CONN_MAX_LIFETIME" env-default:"30m"`
}

type LogConfig struct {
	LogLevel 	string 	`yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	LogFormat 	string 	`yaml:"log_format" env:"LOG_FORMAT" env-default:"json"`
	LogOutput 	string 	`yaml:"log_output" env:"LOG_OUTPUT" env-default:"stdout"`
}

type PaymentService struct {
	BaseURL 			string 			`yaml:"base_url" env:"PAYMENT_BASE_URL"`
	Timeout 			time.Duration 	`yaml:"timeout" env-default:"5s"`
	BreakerFailures 	uint32 			`yaml:"breaker_failures" env-default:"5"`
	BreakerOpenTimeout 	time.Duration 	`yaml:"breaker_open_timeout" env-default:"30s"`
}

type KafkaService struct {
	// Enabled turns off the outbox relay and the inbound consumers when false.
	Enabled 		bool 		`yaml:"enabled" env:"KAFKA_ENABLED" env-default:"true"`
	Brokers 		[]string 	`yaml:"brokers" env:"KAFKA_BROKERS" env-separator:"," env-default:"localhost:9092"`
	EventsTopic 	string 		`yaml:"events_topic" env-default:"order-lifecycle-events"`
	CarrierTopic 	string 		`yaml:"carrier_topic" env-default:"carrier-deliveries"`
	CheckoutTopic 	string 		`yaml:"checkout_topic" env-default:"checkout-completed"`
	GroupID 		string 		`yaml:"group_id" env-default:"order-service"`
}

type Redis struct {
	Addr 		string 			`yaml:"addr" env:"REDIS_ADDR"`
	Password 	string 			`yaml:"password" env:"REDIS_PASSWORD"`
	DB 			int 			`yaml:"db" env-default:"0"`
	TTL 		time.Duration 	`yaml:"ttl" env-default:"15m"`
}

type Lifecycle struct {
	MaxAttempts 		int 			`yaml:"max_attempts" env-default:"3"`
	StoreTimeout 		time.Duration 	`yaml:"store_timeout" env-default:"3s"`
	DisputeWindow 		time.Duration 	`yaml:"dispute_window" env-default:"336h"`
	ReviewSLA 			time.Duration 	`yaml:"review_sla" env-default:"72h"`
	StaleScanInterval 	time.Duration 	`yaml:"stale_scan_interval" env-default:"1m"`
}

type PartialRefund struct {
	MinAmount 	int64 	`yaml:"min_amount" env-default:"1"`
	MaxRatio 	float64 `yaml:"max_ratio" env-default:"1"`
}

type Outbox struct {
	PollInterval 	time.Duration 	`yaml:"poll_interval" env-default:"1s"`
	BatchSize 		int 			`yaml:"batch_size" env-default:"100"`
}

// Load reads the YAML file at configPath, applying env overrides and defaults.
func Load(configPath string) (*OrderConfig, error) {
	if configPath == "" {
		return nil, errors.New("config path is empty")
	}
	if _, err := os.Stat(configPath); err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	var cfg OrderConfig
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func MustLoad() *OrderConfig {
	if err := godotenv.Load(); err != nil {
		log.Println("failed to load .env")
	}

	// Processing env config variable and file
	configPath := os.Getenv("ORDER_CONFIG_PATH")
	if configPath == "" {
		log.Fatalf("ORDER_CONFIG_PATH was not found\n")
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("%v", err)
	}
	return cfg
}

func (c *OrderConfig) validate() error {
	switch c.OrderDB.Driver {
	case "postgres":
		if c.OrderDB.Dsn == "" {
			return errors.New("order_db.dsn is required for the postgres driver")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown order_db.driver %q", c.OrderDB.Driver)
	}
	if c.Lifecycle.MaxAttempts < 1 {
		return errors.New("lifecycle.max_attempts must be positive")
	}
	if c.PartialRefund.MaxRatio <= 0 || c.PartialRefund.MaxRatio > 1 {
		return errors.New("partial_refund.max_ratio must be in (0, 1]")
	}
	return nil
}
