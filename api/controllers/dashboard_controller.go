/*
 * @module api/controllers/dashboard_controller
 * @description 仪表盘控制器，提供总览统计、时间线与数据血缘
 * @architecture MVC架构 - 控制器层
 * @documentReference DESIGN.md
 * @stateFlow 请求接收 -> 归属范围 -> 仪表盘服务 -> 响应返回
 * @rules 无检查结果时总体质量分为 100
 * @dependencies github.com/go-chi/chi/v5, service/dashboard
 * @refs service/dashboard/dashboard_service.go
 */

package controllers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"watchtower-service/api/middleware"
	"watchtower-service/service/dashboard"
)

// DashboardController 仪表盘控制器
type DashboardController struct {
	service *dashboard.Service
}

// NewDashboardController 创建仪表盘控制器实例
func NewDashboardController(service *dashboard.Service) *DashboardController {
	return &DashboardController{service: service}
}

// Stats 仪表盘总览
// @Summary 仪表盘总览
// @Tags 仪表盘
// @Produce json
// @Success 200 {object} APIResponse{data=dashboard.Stats}
// @Router /dashboard/stats [get]
func (c *DashboardController) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := c.service.Stats(r.Context(), middleware.OwnerScope(r.Context()))
	if err != nil {
		reply(w, r, InternalErrorResponse("获取统计信息失败", err))
		return
	}
	reply(w, r, SuccessResponse("获取统计信息成功", stats))
}

// Timeline 检查结论时间线
// @Summary 检查结论时间线
// @Tags 仪表盘
// @Produce json
// @Param days query int false "天数" default(7)
// @Success 200 {object} APIResponse{data=dashboard.Timeline}
// @Router /dashboard/timeline [get]
func (c *DashboardController) Timeline(w http.ResponseWriter, r *http.Request) {
	days := queryInt(r, "days", dashboard.DefaultTimelineDays)
	timeline, err := c.service.Timeline(r.Context(), middleware.OwnerScope(r.Context()), days)
	if err != nil {
		reply(w, r, InternalErrorResponse("获取时间线失败", err))
		return
	}
	reply(w, r, SuccessResponse("获取时间线成功", timeline))
}

// Lineage 数据血缘
// @Summary 数据源血缘（Bronze -> Silver -> Gold）
// @Tags 仪表盘
// @Produce json
// @Param source_id path string true "数据源ID"
// @Success 200 {object} APIResponse{data=dashboard.Lineage}
// @Failure 404 {object} APIResponse
// @Router /lineage/{source_id} [get]
func (c *DashboardController) Lineage(w http.ResponseWriter, r *http.Request) {
	lineage, err := c.service.Lineage(r.Context(), middleware.OwnerScope(r.Context()), chi.URLParam(r, "source_id"))
	if errors.Is(err, dashboard.ErrSourceNotFound) {
		reply(w, r, NotFoundResponse(err.Error(), nil))
		return
	}
	if err != nil {
		reply(w, r, InternalErrorResponse("获取数据血缘失败", err))
		return
	}
	reply(w, r, SuccessResponse("获取数据血缘成功", lineage))
}
