/*
 * @module service/config/config
 * @description 应用配置加载，支持 .env 文件与环境变量，统一生成强类型配置
 * @architecture 分层架构 - 基础设施层
 * @documentReference DESIGN.md
 * @stateFlow 读取 .env -> 解析环境变量 -> 默认值填充 -> 配置校验
 * @rules 环境变量优先于 .env 文件，未配置的可选组件保持禁用
 * @dependencies github.com/caarlos0/env/v11, github.com/joho/godotenv
 * @refs service/init.go, main.go
 */

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config 应用配置
type Config struct {
	ListenPort  int    `env:"LISTEN_PORT" envDefault:"80"`
	BaseContext string `env:"BASE_CONTEXT"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"debug"`

	Database DatabaseConfig
	Auth     AuthConfig
	CORS     CORSConfig
	Alert    AlertConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	MQTT     MQTTConfig
	Pipeline PipelineConfig
}

// DatabaseConfig 数据库配置，DATABASE_URL 优先于分离的连接参数
type DatabaseConfig struct {
	URL      string `env:"DATABASE_URL"`
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"postgres"`
	Password string `env:"DB_PASSWORD"`
	Name     string `env:"DB_NAME" envDefault:"postgres"`
	SSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`
	Schema   string `env:"DB_SCHEMA" envDefault:"public"`
}

// AuthConfig 认证配置
type AuthConfig struct {
	JWTSecret string        `env:"JWT_SECRET" envDefault:"watchtower-secret-key-2024"`
	TokenTTL  time.Duration `env:"JWT_TTL" envDefault:"24h"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowedOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"*"`
}

// AlertConfig 告警通知通道配置
type AlertConfig struct {
	SendGridAPIKey string        `env:"SENDGRID_API_KEY"`
	SendGridURL    string        `env:"SENDGRID_URL" envDefault:"https://api.sendgrid.com/v3/mail/send"`
	SenderEmail    string        `env:"SENDER_EMAIL" envDefault:"alerts@watchtower.app"`
	WebhookTimeout time.Duration `env:"WEBHOOK_TIMEOUT" envDefault:"10s"`
}

// RedisConfig Redis 配置，Host 为空时使用进程内锁
type RedisConfig struct {
	Host     string `env:"REDIS_HOST"`
	Port     string `env:"REDIS_PORT" envDefault:"6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

// KafkaConfig Kafka 任务队列配置，Brokers 为空时使用内存队列
type KafkaConfig struct {
	Brokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	Topic   string   `env:"KAFKA_TOPIC" envDefault:"watchtower.pipeline.tasks"`
	GroupID string   `env:"KAFKA_GROUP_ID" envDefault:"watchtower-pipeline"`
}

// MQTTConfig 流水线事件发布配置，Broker 为空时不发布
type MQTTConfig struct {
	Broker   string `env:"MQTT_BROKER"`
	ClientID string `env:"MQTT_CLIENT_ID" envDefault:"watchtower-service"`
	Username string `env:"MQTT_USERNAME"`
	Password string `env:"MQTT_PASSWORD"`
	Topic    string `env:"MQTT_TOPIC" envDefault:"watchtower/pipeline-runs"`
	QoS      byte   `env:"MQTT_QOS" envDefault:"1"`
}

// PipelineConfig 质量流水线执行配置
type PipelineConfig struct {
	Workers           int           `env:"PIPELINE_WORKERS" envDefault:"4"`
	QueueSize         int           `env:"PIPELINE_QUEUE_SIZE" envDefault:"256"`
	MaxAttempts       int           `env:"PIPELINE_MAX_ATTEMPTS" envDefault:"3"`
	RetryDelay        time.Duration `env:"PIPELINE_RETRY_DELAY" envDefault:"2s"`
	LockTTL           time.Duration `env:"PIPELINE_LOCK_TTL" envDefault:"2m"`
	RerunCron         string        `env:"PIPELINE_RERUN_CRON"`
	SampleRecordCount int           `env:"SAMPLE_RECORD_COUNT" envDefault:"100"`
}

// Load 加载配置：先尝试读取 .env，再解析环境变量
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("加载 %s 失败: %w", file, err)
			}
			slog.Debug("未找到环境文件，跳过", "file", file)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("解析环境变量失败: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 校验配置
func (c *Config) Validate() error {
	if c.ListenPort <= 0 || c.ListenPort > 65535 {
		return fmt.Errorf("无效的监听端口: %d", c.ListenPort)
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET 不能为空")
	}
	if c.Pipeline.Workers <= 0 {
		return fmt.Errorf("PIPELINE_WORKERS 必须大于0: %d", c.Pipeline.Workers)
	}
	if c.Pipeline.MaxAttempts <= 0 {
		return fmt.Errorf("PIPELINE_MAX_ATTEMPTS 必须大于0: %d", c.Pipeline.MaxAttempts)
	}
	if c.Pipeline.QueueSize < 0 {
		return fmt.Errorf("PIPELINE_QUEUE_SIZE 不能为负数: %d", c.Pipeline.QueueSize)
	}
	return nil
}

// DSN 生成数据库连接串
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s search_path=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode, d.Schema)
}

// IsSQLite 判断是否使用 SQLite（本地开发），形如 sqlite://watchtower.db
func (d DatabaseConfig) IsSQLite() bool {
	return strings.HasPrefix(d.URL, "sqlite://")
}

// SQLitePath 返回 SQLite 文件路径
func (d DatabaseConfig) SQLitePath() string {
	return strings.TrimPrefix(d.URL, "sqlite://")
}

// Addr 返回 Redis 地址
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

// Enabled 是否启用 Redis
func (r RedisConfig) Enabled() bool {
	return r.Host != ""
}

// Enabled 是否启用 Kafka 任务队列
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

// Enabled 是否启用 MQTT 事件发布
func (m MQTTConfig) Enabled() bool {
	return m.Broker != ""
}
