/*
 * @module service/init
 * @description 服务初始化模块，负责数据库连接、迁移以及各业务服务的装配
 * @architecture 分层架构 - 服务层
 * @documentReference DESIGN.md
 * @stateFlow 加载配置 -> 连接数据库 -> 自动迁移 -> 装配锁/队列/事件/告警 -> 启动后台消费与定时重跑
 * @rules Redis、Kafka、MQTT 均为可选组件，未配置时回退到进程内实现；确保依赖就绪后才提供API服务
 * @dependencies gorm.io/gorm, gorm.io/driver/postgres, gorm.io/driver/sqlite
 * @refs main.go, api/routes.go
 */

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-redis/redis/v8"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"watchtower-service/client/connectors"
	"watchtower-service/service/auth"
	"watchtower-service/service/config"
	"watchtower-service/service/dashboard"
	"watchtower-service/service/datasource"
	"watchtower-service/service/distributed_lock"
	"watchtower-service/service/event"
	"watchtower-service/service/models"
	"watchtower-service/service/monitoring"
	"watchtower-service/service/pipeline"
)

var (
	DB                       *gorm.DB
	GlobalConfig             *config.Config
	GlobalAuthService        *auth.Service
	GlobalDataSourceService  *datasource.Service
	GlobalDashboardService   *dashboard.Service
	GlobalAlertConfigService *monitoring.AlertConfigService
	GlobalAlertManager       *monitoring.AlertManager
	GlobalMetricsCollector   *monitoring.MetricsCollector
	GlobalHealthChecker      *monitoring.HealthChecker
	GlobalResultStore        *pipeline.GormStore
	GlobalPipelineRunner     *pipeline.Runner
	GlobalTaskQueue          pipeline.TaskQueue
	GlobalRerunScheduler     *pipeline.RerunScheduler
	GlobalLock               distributed_lock.DistributedLock
	GlobalEventPublisher     event.Publisher
	globalMQTTConnector      *connectors.MQTTConnector
	globalRedisClient        *redis.Client
)

// Init 按配置初始化数据库与全部服务
func Init(cfg *config.Config) error {
	GlobalConfig = cfg

	if err := initDatabase(cfg.Database); err != nil {
		return err
	}
	if err := runMigrations(DB); err != nil {
		return err
	}
	return initServices(cfg)
}

// initDatabase 初始化数据库连接，sqlite:// 前缀用于本地开发
func initDatabase(cfg config.DatabaseConfig) error {
	var dialector gorm.Dialector
	if cfg.IsSQLite() {
		dialector = sqlite.Open(cfg.SQLitePath())
	} else {
		dialector = postgres.Open(cfg.DSN())
	}

	var err error
	DB, err = gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return fmt.Errorf("数据库连接失败: %w", err)
	}

	slog.Info("数据库连接成功", "sqlite", cfg.IsSQLite())
	return nil
}

// runMigrations 运行数据库迁移
func runMigrations(db *gorm.DB) error {
	slog.Info("开始运行数据库迁移...")
	if err := db.AutoMigrate(
		&models.User{},
		&models.DataSource{},
		&models.CheckResult{},
		&models.PipelineRun{},
		&models.AlertConfig{},
	); err != nil {
		return fmt.Errorf("数据库迁移失败: %w", err)
	}
	slog.Info("数据库表结构迁移完成")
	return nil
}

// initServices 初始化服务
func initServices(cfg *config.Config) error {
	GlobalMetricsCollector = monitoring.NewMetricsCollector(nil)

	if cfg.Redis.Enabled() {
		redisLock, err := distributed_lock.NewRedisLock(cfg.Redis)
		if err != nil {
			return fmt.Errorf("初始化 Redis 锁失败: %w", err)
		}
		GlobalLock = redisLock
		globalRedisClient = redisLock.Client()
		slog.Info("使用 Redis 分布式锁", "addr", cfg.Redis.Addr())
	} else {
		GlobalLock = distributed_lock.NewLocalLock()
		slog.Info("未配置 Redis，使用进程内锁")
	}

	GlobalEventPublisher = event.NoopPublisher{}
	if cfg.MQTT.Enabled() {
		globalMQTTConnector = connectors.NewMQTTConnector(cfg.MQTT)
		if err := globalMQTTConnector.Connect(); err != nil {
			slog.Error("MQTT 连接失败，流水线事件不发布", "broker", cfg.MQTT.Broker, "error", err)
			globalMQTTConnector = nil
		} else {
			GlobalEventPublisher = event.NewMQTTEventPublisher(globalMQTTConnector, cfg.MQTT.Topic)
		}
	}

	policy := pipeline.RetryPolicy{MaxAttempts: cfg.Pipeline.MaxAttempts, Delay: cfg.Pipeline.RetryDelay}
	if cfg.Kafka.Enabled() {
		GlobalTaskQueue = pipeline.NewKafkaQueue(connectors.NewKafkaConnector(cfg.Kafka), policy)
		slog.Info("使用 Kafka 任务队列", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
	} else {
		GlobalTaskQueue = pipeline.NewMemoryQueue(cfg.Pipeline.Workers, cfg.Pipeline.QueueSize, policy)
		slog.Info("使用内存任务队列", "workers", cfg.Pipeline.Workers)
	}

	GlobalAlertConfigService = monitoring.NewAlertConfigService(DB)
	GlobalAlertManager = monitoring.NewAlertManager(
		monitoring.NewWebhookNotificationChannel(cfg.Alert.WebhookTimeout),
		monitoring.NewSendGridEmailChannel(cfg.Alert.SendGridAPIKey, cfg.Alert.SendGridURL, cfg.Alert.SenderEmail, cfg.Alert.WebhookTimeout),
		GlobalMetricsCollector,
	)

	GlobalResultStore = pipeline.NewGormStore(DB)
	GlobalPipelineRunner = pipeline.NewRunner(pipeline.RunnerDeps{
		Store:    GlobalResultStore,
		Sources:  GlobalResultStore,
		Channels: GlobalAlertConfigService,
		Alerts:   GlobalAlertManager,
		Events:   GlobalEventPublisher,
		Metrics:  GlobalMetricsCollector,
		Lock:     GlobalLock,
		LockTTL:  cfg.Pipeline.LockTTL,
	})

	if cfg.Pipeline.RerunCron != "" {
		GlobalRerunScheduler = pipeline.NewRerunScheduler(cfg.Pipeline.RerunCron, GlobalResultStore, GlobalTaskQueue, GlobalLock)
	}

	GlobalAuthService = auth.NewService(DB, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	GlobalDataSourceService = datasource.NewService(DB, GlobalTaskQueue, datasource.WithSampleCount(cfg.Pipeline.SampleRecordCount))
	GlobalDashboardService = dashboard.NewService(DB, GlobalResultStore)
	GlobalHealthChecker = monitoring.NewHealthChecker(DB, globalRedisClient)

	slog.Info("服务初始化完成")
	return nil
}

// Start 启动后台任务消费与定时重跑
func Start(ctx context.Context) error {
	if err := GlobalTaskQueue.Start(ctx, GlobalPipelineRunner.HandleTask); err != nil {
		return fmt.Errorf("启动任务队列失败: %w", err)
	}
	if GlobalRerunScheduler != nil {
		if err := GlobalRerunScheduler.Start(); err != nil {
			return fmt.Errorf("启动定时重跑失败: %w", err)
		}
	}
	return nil
}

// Shutdown 停止调度、等待在途任务并释放外部连接
func Shutdown() error {
	var errs []error
	if GlobalRerunScheduler != nil {
		GlobalRerunScheduler.Stop()
	}
	if GlobalTaskQueue != nil {
		if err := GlobalTaskQueue.Close(); err != nil {
			errs = append(errs, fmt.Errorf("关闭任务队列失败: %w", err))
		}
	}
	if globalMQTTConnector != nil {
		if err := globalMQTTConnector.Disconnect(); err != nil {
			errs = append(errs, fmt.Errorf("断开 MQTT 失败: %w", err))
		}
	}
	if redisLock, ok := GlobalLock.(*distributed_lock.RedisLock); ok {
		if err := redisLock.Close(); err != nil {
			errs = append(errs, fmt.Errorf("关闭 Redis 失败: %w", err))
		}
	}
	if DB != nil {
		if sqlDB, err := DB.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				errs = append(errs, fmt.Errorf("关闭数据库失败: %w", err))
			}
		}
	}
	return errors.Join(errs...)
}
