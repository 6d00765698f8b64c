/*
 * @module api/controllers/health_controller
 * @description 健康检查控制器，提供服务健康状态检查
 * @architecture MVC架构 - 控制器层
 * @documentReference DESIGN.md
 * @stateFlow HTTP请求处理流程
 * @rules 数据库不可用时 /health 返回 503，用于容器健康检查和负载均衡
 * @dependencies service/monitoring
 * @refs service/monitoring/health_checker.go
 */

package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/render"

	"watchtower-service/service/monitoring"
)

const (
	serviceName    = "watchtower-service"
	serviceVersion = "1.0.0"
)

// HealthController 健康检查控制器
type HealthController struct {
	checker *monitoring.HealthChecker
}

// NewHealthController 创建健康检查控制器实例
func NewHealthController(checker *monitoring.HealthChecker) *HealthController {
	return &HealthController{checker: checker}
}

// RootResponse 根路径响应
type RootResponse struct {
	Message string `json:"message" example:"Watchtower API"`
	Version string `json:"version" example:"1.0.0"`
}

// ReadyResponse 就绪检查响应结构
type ReadyResponse struct {
	Status    string    `json:"status" example:"ready"`
	Timestamp time.Time `json:"timestamp" example:"2024-01-01T00:00:00Z"`
	Version   string    `json:"version" example:"1.0.0"`
	Service   string    `json:"service" example:"watchtower-service"`
}

// Root 服务信息
// @Summary 服务信息
// @Tags 系统
// @Produce json
// @Success 200 {object} RootResponse
// @Router / [get]
func (c *HealthController) Root(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, RootResponse{Message: "Watchtower API", Version: serviceVersion})
}

// Health 健康检查
// @Summary 健康检查
// @Description 检查数据库（以及已配置的 Redis）连通性
// @Tags 系统
// @Produce json
// @Success 200 {object} monitoring.HealthStatus
// @Failure 503 {object} monitoring.HealthStatus
// @Router /health [get]
func (c *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	status := c.checker.Check(r.Context())
	if !status.Healthy() {
		render.Status(r, http.StatusServiceUnavailable)
	}
	render.JSON(w, r, status)
}

// Ready 就绪检查
// @Summary 就绪检查
// @Description 检查服务是否就绪
// @Tags 系统
// @Produce json
// @Success 200 {object} ReadyResponse
// @Router /ready [get]
func (c *HealthController) Ready(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, ReadyResponse{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   serviceVersion,
		Service:   serviceName,
	})
}
