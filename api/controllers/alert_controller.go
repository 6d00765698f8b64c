/*
 * @module api/controllers/alert_controller
 * @description 告警配置控制器，提供告警通道增删改查与测试发送
 * @architecture MVC架构 - 控制器层
 * @documentReference DESIGN.md
 * @stateFlow 请求接收 -> 归属范围 -> 告警配置服务/告警管理器 -> 响应返回
 * @rules slack 视为 webhook 别名；测试发送的结果以 success 字段返回，不视为请求错误
 * @dependencies github.com/go-chi/chi/v5, service/monitoring
 * @refs service/monitoring/alert_config_service.go, service/monitoring/alert_manager.go
 */

package controllers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"watchtower-service/api/middleware"
	"watchtower-service/service/models"
	"watchtower-service/service/monitoring"
)

// AlertTester 发送测试告警
type AlertTester interface {
	SendTest(ctx context.Context, channel *models.AlertConfig) bool
}

// AlertController 告警配置控制器
type AlertController struct {
	configs *monitoring.AlertConfigService
	tester  AlertTester
}

// NewAlertController 创建告警配置控制器实例
func NewAlertController(configs *monitoring.AlertConfigService, tester AlertTester) *AlertController {
	return &AlertController{configs: configs, tester: tester}
}

// TestAlertResult 测试告警结果
type TestAlertResult struct {
	Success   bool             `json:"success"`
	AlertType models.AlertType `json:"alert_type"`
}

// Create 创建告警配置
// @Summary 创建告警配置
// @Tags 告警
// @Accept json
// @Produce json
// @Param body body monitoring.AlertConfigInput true "告警配置"
// @Success 200 {object} APIResponse{data=models.AlertConfig}
// @Failure 400 {object} APIResponse
// @Router /alerts/config [post]
func (c *AlertController) Create(w http.ResponseWriter, r *http.Request) {
	var input monitoring.AlertConfigInput
	if err := decodeJSON(r, &input); err != nil {
		reply(w, r, BadRequestResponse("请求参数格式错误", err))
		return
	}

	cfg, err := c.configs.Create(r.Context(), middleware.OwnerScope(r.Context()), input)
	if errors.Is(err, monitoring.ErrInvalidAlertType) {
		reply(w, r, BadRequestResponse(err.Error(), nil))
		return
	}
	if err != nil {
		reply(w, r, InternalErrorResponse("创建告警配置失败", err))
		return
	}
	reply(w, r, SuccessResponse("创建告警配置成功", cfg))
}

// List 告警配置列表
// @Summary 告警配置列表
// @Tags 告警
// @Produce json
// @Success 200 {object} APIResponse{data=[]models.AlertConfig}
// @Router /alerts/config [get]
func (c *AlertController) List(w http.ResponseWriter, r *http.Request) {
	configs, err := c.configs.List(r.Context(), middleware.OwnerScope(r.Context()))
	if err != nil {
		reply(w, r, InternalErrorResponse("获取告警配置失败", err))
		return
	}
	reply(w, r, SuccessResponse("获取告警配置成功", configs))
}

// Update 更新告警配置
// @Summary 更新告警配置
// @Tags 告警
// @Accept json
// @Produce json
// @Param id path string true "告警配置ID"
// @Param body body monitoring.AlertConfigInput true "告警配置"
// @Success 200 {object} APIResponse{data=models.AlertConfig}
// @Failure 400 {object} APIResponse
// @Failure 404 {object} APIResponse
// @Router /alerts/config/{id} [put]
func (c *AlertController) Update(w http.ResponseWriter, r *http.Request) {
	var input monitoring.AlertConfigInput
	if err := decodeJSON(r, &input); err != nil {
		reply(w, r, BadRequestResponse("请求参数格式错误", err))
		return
	}

	cfg, err := c.configs.Update(r.Context(), middleware.OwnerScope(r.Context()), chi.URLParam(r, "id"), input)
	switch {
	case errors.Is(err, monitoring.ErrInvalidAlertType):
		reply(w, r, BadRequestResponse(err.Error(), nil))
	case errors.Is(err, monitoring.ErrAlertConfigNotFound):
		reply(w, r, NotFoundResponse("Alert config not found", nil))
	case err != nil:
		reply(w, r, InternalErrorResponse("更新告警配置失败", err))
	default:
		reply(w, r, SuccessResponse("更新告警配置成功", cfg))
	}
}

// Delete 删除告警配置
// @Summary 删除告警配置
// @Tags 告警
// @Produce json
// @Param id path string true "告警配置ID"
// @Success 200 {object} APIResponse
// @Failure 404 {object} APIResponse
// @Router /alerts/config/{id} [delete]
func (c *AlertController) Delete(w http.ResponseWriter, r *http.Request) {
	err := c.configs.Delete(r.Context(), middleware.OwnerScope(r.Context()), chi.URLParam(r, "id"))
	if errors.Is(err, monitoring.ErrAlertConfigNotFound) {
		reply(w, r, NotFoundResponse("Alert config not found", nil))
		return
	}
	if err != nil {
		reply(w, r, InternalErrorResponse("删除告警配置失败", err))
		return
	}
	reply(w, r, SuccessResponse("Alert config deleted", nil))
}

// Test 发送测试告警
// @Summary 发送测试告警
// @Tags 告警
// @Produce json
// @Param config_id query string true "告警配置ID"
// @Success 200 {object} APIResponse{data=TestAlertResult}
// @Failure 404 {object} APIResponse
// @Router /alerts/test [post]
func (c *AlertController) Test(w http.ResponseWriter, r *http.Request) {
	cfg, err := c.configs.Get(r.Context(), middleware.OwnerScope(r.Context()), r.URL.Query().Get("config_id"))
	if errors.Is(err, monitoring.ErrAlertConfigNotFound) {
		reply(w, r, NotFoundResponse("Alert config not found", nil))
		return
	}
	if err != nil {
		reply(w, r, InternalErrorResponse("获取告警配置失败", err))
		return
	}

	success := c.tester.SendTest(r.Context(), cfg)
	reply(w, r, SuccessResponse("测试告警已发送", TestAlertResult{Success: success, AlertType: cfg.AlertType}))
}
