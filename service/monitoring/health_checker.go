/*
 * @module service/monitoring/health_checker
 * @description 健康检查器，检查数据库与可选依赖组件（Redis）的连通性
 * @architecture 分层架构 - 业务服务层
 * @documentReference DESIGN.md
 * @stateFlow 组件探测 -> 汇总状态
 * @rules 数据库不可用即整体不健康；可选组件未配置时不参与判定
 * @dependencies gorm.io/gorm, github.com/go-redis/redis/v8
 * @refs api/controllers/health_controller.go
 */

package monitoring

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

const (
	HealthStatusHealthy   = "healthy"
	HealthStatusUnhealthy = "unhealthy"
)

// ComponentHealth 单个组件健康状态
type ComponentHealth struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
	Error   string `json:"error,omitempty"`
}

// HealthStatus 整体健康状态
type HealthStatus struct {
	Status     string                     `json:"status"`
	Components map[string]ComponentHealth `json:"components"`
	Timestamp  time.Time                  `json:"timestamp"`
}

// Healthy 是否健康
func (h *HealthStatus) Healthy() bool {
	return h.Status == HealthStatusHealthy
}

// HealthChecker 健康检查器
type HealthChecker struct {
	db      *gorm.DB
	redis   *redis.Client
	timeout time.Duration
}

// NewHealthChecker 创建健康检查器，redisClient 可为 nil
func NewHealthChecker(db *gorm.DB, redisClient *redis.Client) *HealthChecker {
	return &HealthChecker{
		db:      db,
		redis:   redisClient,
		timeout: 3 * time.Second,
	}
}

// Check 执行一次健康检查
func (h *HealthChecker) Check(ctx context.Context) *HealthStatus {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	status := &HealthStatus{
		Status:     HealthStatusHealthy,
		Components: make(map[string]ComponentHealth),
		Timestamp:  time.Now().UTC(),
	}

	database := h.checkDatabase(ctx)
	status.Components["database"] = database
	if database.Status != HealthStatusHealthy {
		status.Status = HealthStatusUnhealthy
	}

	if h.redis != nil {
		// Redis 状态仅供参考，不影响整体状态
		status.Components["redis"] = probe(func() error {
			return h.redis.Ping(ctx).Err()
		})
	}
	return status
}

func (h *HealthChecker) checkDatabase(ctx context.Context) ComponentHealth {
	if h.db == nil {
		return ComponentHealth{Status: HealthStatusUnhealthy, Error: "数据库未初始化"}
	}
	return probe(func() error {
		sqlDB, err := h.db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	})
}

func probe(fn func() error) ComponentHealth {
	start := time.Now()
	if err := fn(); err != nil {
		return ComponentHealth{Status: HealthStatusUnhealthy, Error: err.Error()}
	}
	return ComponentHealth{Status: HealthStatusHealthy, Latency: time.Since(start).String()}
}
