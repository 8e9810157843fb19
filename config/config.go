package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Env         string `env:"ENV" envDefault:"DEV"`
	RelayAddr   string `env:"RELAY_ADDR" envDefault:":8080"`
	Tracing     bool   `env:"TRACING" envDefault:"false"`
	TracingAddr string `env:"TRACING_ADDR" envDefault:"localhost:4317"`

	CRMConfig     CRMConfig `envPrefix:"CRM_"`
	ServiceConfig ServiceConfig
	AWSConfig     AWSConfig `envPrefix:"AWS_"`
}

type CRMConfig struct {
	// Timeout bounds a single outbound call to the CRM webhook.
	Timeout time.Duration `env:"TIMEOUT" envDefault:"60s"`
}

type ServiceConfig struct {
	MaxBodyBytes int64 `env:"MAX_BODY_BYTES" envDefault:"52428800"` // 50MB

	SQSNotify                   bool   `env:"SQS_NOTIFY" envDefault:"false"`
	RelayNotificationsQueueName string `env:"RELAY_NOTIFICATIONS_QUEUE_NAME"`
	MetricsNamespace            string `env:"METRICS_NAMESPACE" envDefault:"crm_relay"`
}

type AWSConfig struct {
	Region    string `env:"REGION" envDefault:"eu-north-1"`
	AccountID string `env:"ACCOUNT_ID"`
}

var ErrInvalidConfig = errors.New("invalid config")

func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("error getting env configs: %w", err)
	}
	return cfg, nil
}

func (c Config) IsProd() bool {
	return strings.EqualFold(c.Env, "PROD")
}

func (c Config) Validate() error {
	if c.RelayAddr == "" {
		return fmt.Errorf("%w: RELAY_ADDR is empty", ErrInvalidConfig)
	}
	if c.CRMConfig.Timeout <= 0 {
		return fmt.Errorf("%w: CRM_TIMEOUT must be positive", ErrInvalidConfig)
	}
	if c.ServiceConfig.MaxBodyBytes <= 0 {
		return fmt.Errorf("%w: MAX_BODY_BYTES must be positive", ErrInvalidConfig)
	}
	if c.Tracing && c.TracingAddr == "" {
		return fmt.Errorf("%w: TRACING_ADDR is required when tracing is enabled", ErrInvalidConfig)
	}

	if c.ServiceConfig.SQSNotify {
		if c.ServiceConfig.RelayNotificationsQueueName == "" {
			return fmt.Errorf("%w: RELAY_NOTIFICATIONS_QUEUE_NAME is required when SQS_NOTIFY is set", ErrInvalidConfig)
		}
		if c.AWSConfig.AccountID == "" || c.AWSConfig.Region == "" {
			return fmt.Errorf("%w: AWS_ACCOUNT_ID and AWS_REGION are required when SQS_NOTIFY is set", ErrInvalidConfig)
		}
	}
	return nil
}
