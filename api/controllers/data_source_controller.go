/*
 * @module api/controllers/data_source_controller
 * @description 数据源控制器，提供数据源创建、上传、列表、详情与数据预览
 * @architecture MVC架构 - 控制器层
 * @documentReference DESIGN.md
 * @stateFlow 请求接收 -> 归属范围 -> 数据源服务 -> 响应返回
 * @rules 创建与上传立即返回，质量流水线在后台执行
 * @dependencies github.com/go-chi/chi/v5, service/datasource
 * @refs service/datasource/service.go
 */

package controllers

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"watchtower-service/api/middleware"
	"watchtower-service/service/datasource"
	"watchtower-service/service/models"
)

const maxUploadSize = 32 << 20

// DataSourceController 数据源控制器
type DataSourceController struct {
	service *datasource.Service
}

// NewDataSourceController 创建数据源控制器实例
func NewDataSourceController(service *datasource.Service) *DataSourceController {
	return &DataSourceController{service: service}
}

// DataPreview 数据预览响应
type DataPreview struct {
	Data  []models.JSONB `json:"data"`
	Total int            `json:"total"`
}

// Create 创建数据源
// @Summary 创建数据源
// @Description insurance/banking 类型自动生成 100 条样例数据，custom 类型为空；创建后在后台执行质量检查
// @Tags 数据源
// @Accept json
// @Produce json
// @Param body body datasource.CreateInput true "数据源信息"
// @Success 200 {object} APIResponse{data=models.DataSource}
// @Failure 400 {object} APIResponse
// @Router /data-sources [post]
func (c *DataSourceController) Create(w http.ResponseWriter, r *http.Request) {
	var input datasource.CreateInput
	if err := decodeJSON(r, &input); err != nil {
		reply(w, r, BadRequestResponse("请求参数格式错误", err))
		return
	}

	source, err := c.service.Create(r.Context(), middleware.OwnerScope(r.Context()), input)
	if errors.Is(err, datasource.ErrInvalidInput) {
		reply(w, r, BadRequestResponse(err.Error(), nil))
		return
	}
	if err != nil {
		reply(w, r, InternalErrorResponse("创建数据源失败", err))
		return
	}
	reply(w, r, SuccessResponse("创建数据源成功", source))
}

// Upload 上传数据文件
// @Summary 上传 CSV/JSON 数据文件
// @Tags 数据源
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV 或 JSON 文件"
// @Param name query string false "数据源名称" default(Uploaded Dataset)
// @Param charset query string false "文件字符集，缺省自动识别"
// @Success 200 {object} APIResponse{data=models.DataSource}
// @Failure 400 {object} APIResponse
// @Router /data-sources/upload [post]
func (c *DataSourceController) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	file, header, err := r.FormFile("file")
	if err != nil {
		reply(w, r, BadRequestResponse("缺少上传文件", err))
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		reply(w, r, BadRequestResponse("读取上传文件失败", err))
		return
	}

	query := r.URL.Query()
	source, err := c.service.Upload(r.Context(), middleware.OwnerScope(r.Context()),
		query.Get("name"), header.Filename, content, query.Get("charset"))
	switch {
	case errors.Is(err, datasource.ErrUnsupportedFormat):
		reply(w, r, BadRequestResponse("Unsupported file format. Use CSV or JSON.", nil))
	case errors.Is(err, datasource.ErrInvalidUpload):
		reply(w, r, BadRequestResponse("Error processing file", err))
	case err != nil:
		reply(w, r, InternalErrorResponse("上传数据源失败", err))
	default:
		reply(w, r, SuccessResponse("上传数据源成功", source))
	}
}

// List 数据源列表
// @Summary 数据源列表
// @Tags 数据源
// @Produce json
// @Success 200 {object} APIResponse{data=[]models.DataSource}
// @Router /data-sources [get]
func (c *DataSourceController) List(w http.ResponseWriter, r *http.Request) {
	sources, err := c.service.List(r.Context(), middleware.OwnerScope(r.Context()))
	if err != nil {
		reply(w, r, InternalErrorResponse("获取数据源列表失败", err))
		return
	}
	reply(w, r, SuccessResponse("获取数据源列表成功", sources))
}

// Get 数据源详情
// @Summary 数据源详情
// @Tags 数据源
// @Produce json
// @Param id path string true "数据源ID"
// @Success 200 {object} APIResponse{data=models.DataSource}
// @Failure 404 {object} APIResponse
// @Router /data-sources/{id} [get]
func (c *DataSourceController) Get(w http.ResponseWriter, r *http.Request) {
	source, err := c.service.Get(r.Context(), middleware.OwnerScope(r.Context()), chi.URLParam(r, "id"))
	if errors.Is(err, datasource.ErrNotFound) {
		reply(w, r, NotFoundResponse(err.Error(), nil))
		return
	}
	if err != nil {
		reply(w, r, InternalErrorResponse("获取数据源失败", err))
		return
	}
	reply(w, r, SuccessResponse("获取数据源成功", source))
}

// Data 数据预览
// @Summary 数据源数据预览
// @Tags 数据源
// @Produce json
// @Param id path string true "数据源ID"
// @Param limit query int false "返回条数" default(50)
// @Success 200 {object} APIResponse{data=DataPreview}
// @Failure 404 {object} APIResponse
// @Router /data-sources/{id}/data [get]
func (c *DataSourceController) Data(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", datasource.DefaultPreviewLimit)
	records, total, err := c.service.Records(r.Context(), middleware.OwnerScope(r.Context()), chi.URLParam(r, "id"), limit)
	if errors.Is(err, datasource.ErrNotFound) {
		reply(w, r, NotFoundResponse(err.Error(), nil))
		return
	}
	if err != nil {
		reply(w, r, InternalErrorResponse("获取数据失败", err))
		return
	}
	reply(w, r, SuccessResponse("获取数据成功", DataPreview{Data: records, Total: total}))
}
