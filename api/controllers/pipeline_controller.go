/*
 * @module api/controllers/pipeline_controller
 * @description 流水线控制器，提供运行记录查询与重跑
 * @architecture MVC架构 - 控制器层
 * @documentReference DESIGN.md
 * @stateFlow 请求接收 -> 归属范围 -> 结果存储/数据源服务 -> 响应返回
 * @rules 重跑只提交任务，立即返回
 * @dependencies github.com/go-chi/chi/v5, service/pipeline, service/datasource
 * @refs service/pipeline/runner.go
 */

package controllers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"watchtower-service/api/middleware"
	"watchtower-service/service/datasource"
	"watchtower-service/service/pipeline"
)

// PipelineController 流水线控制器
type PipelineController struct {
	store   *pipeline.GormStore
	sources *datasource.Service
}

// NewPipelineController 创建流水线控制器实例
func NewPipelineController(store *pipeline.GormStore, sources *datasource.Service) *PipelineController {
	return &PipelineController{store: store, sources: sources}
}

// RerunResponse 重跑响应
type RerunResponse struct {
	Message  string `json:"message" example:"Pipeline rerun initiated"`
	SourceID string `json:"source_id"`
}

// ListRuns 运行记录列表
// @Summary 流水线运行记录列表
// @Tags 流水线
// @Produce json
// @Success 200 {object} APIResponse{data=[]models.PipelineRun}
// @Router /pipeline-runs [get]
func (c *PipelineController) ListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := c.store.ListRuns(r.Context(), middleware.OwnerScope(r.Context()))
	if err != nil {
		reply(w, r, InternalErrorResponse("获取运行记录失败", err))
		return
	}
	reply(w, r, SuccessResponse("获取运行记录成功", runs))
}

// GetRun 运行记录详情
// @Summary 流水线运行记录详情
// @Tags 流水线
// @Produce json
// @Param id path string true "运行ID"
// @Success 200 {object} APIResponse{data=models.PipelineRun}
// @Failure 404 {object} APIResponse
// @Router /pipeline-runs/{id} [get]
func (c *PipelineController) GetRun(w http.ResponseWriter, r *http.Request) {
	run, err := c.store.GetRun(r.Context(), middleware.OwnerScope(r.Context()), chi.URLParam(r, "id"))
	if errors.Is(err, pipeline.ErrRunNotFound) {
		reply(w, r, NotFoundResponse("Pipeline run not found", nil))
		return
	}
	if err != nil {
		reply(w, r, InternalErrorResponse("获取运行记录失败", err))
		return
	}
	reply(w, r, SuccessResponse("获取运行记录成功", run))
}

// Rerun 重跑流水线
// @Summary 重跑数据源的质量流水线
// @Description 作废该数据源的历史检查结果并重新执行，后台运行
// @Tags 流水线
// @Produce json
// @Param id path string true "数据源ID"
// @Success 200 {object} APIResponse{data=RerunResponse}
// @Failure 404 {object} APIResponse
// @Router /pipeline-runs/{id}/rerun [post]
func (c *PipelineController) Rerun(w http.ResponseWriter, r *http.Request) {
	sourceID := chi.URLParam(r, "id")
	err := c.sources.Rerun(r.Context(), middleware.OwnerScope(r.Context()), sourceID)
	if errors.Is(err, datasource.ErrNotFound) {
		reply(w, r, NotFoundResponse(err.Error(), nil))
		return
	}
	if err != nil {
		reply(w, r, InternalErrorResponse("提交重跑任务失败", err))
		return
	}
	reply(w, r, SuccessResponse("提交重跑任务成功", RerunResponse{
		Message:  "Pipeline rerun initiated",
		SourceID: sourceID,
	}))
}
