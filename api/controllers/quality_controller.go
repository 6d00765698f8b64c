/*
 * @module api/controllers/quality_controller
 * @description 数据质量控制器，提供检查结果查询与汇总
 * @architecture MVC架构 - 控制器层
 * @documentReference DESIGN.md
 * @stateFlow 请求接收 -> 归属范围 -> 结果存储/仪表盘服务 -> 响应返回
 * @rules 列表按执行时间倒序；缺少规则定义的历史记录补充 legacy 占位
 * @dependencies service/pipeline, service/dashboard
 * @refs service/pipeline/store.go, service/dashboard/dashboard_service.go
 */

package controllers

import (
	"net/http"

	"watchtower-service/api/middleware"
	"watchtower-service/service/dashboard"
	"watchtower-service/service/pipeline"
)

// QualityController 数据质量控制器
type QualityController struct {
	store     *pipeline.GormStore
	dashboard *dashboard.Service
}

// NewQualityController 创建数据质量控制器实例
func NewQualityController(store *pipeline.GormStore, dashboard *dashboard.Service) *QualityController {
	return &QualityController{store: store, dashboard: dashboard}
}

// ListChecks 检查结果列表
// @Summary 检查结果列表
// @Tags 数据质量
// @Produce json
// @Param data_source_id query string false "数据源ID"
// @Success 200 {object} APIResponse{data=[]models.CheckResult}
// @Router /quality-checks [get]
func (c *QualityController) ListChecks(w http.ResponseWriter, r *http.Request) {
	checks, err := c.store.ListChecks(r.Context(), middleware.OwnerScope(r.Context()), r.URL.Query().Get("data_source_id"))
	if err != nil {
		reply(w, r, InternalErrorResponse("获取检查结果失败", err))
		return
	}
	reply(w, r, SuccessResponse("获取检查结果成功", checks))
}

// Summary 检查结果汇总
// @Summary 检查结果汇总
// @Description 统计各结论数量、通过率与按检查类型分组
// @Tags 数据质量
// @Produce json
// @Success 200 {object} APIResponse{data=dashboard.QualitySummary}
// @Router /quality-checks/summary [get]
func (c *QualityController) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := c.dashboard.Summary(r.Context(), middleware.OwnerScope(r.Context()))
	if err != nil {
		reply(w, r, InternalErrorResponse("获取检查汇总失败", err))
		return
	}
	reply(w, r, SuccessResponse("获取检查汇总成功", summary))
}
