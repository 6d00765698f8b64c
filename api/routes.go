/*
 * @module api/routes
 * @description API路由配置模块，负责初始化和配置所有HTTP路由
 * @architecture RESTful API架构
 * @documentReference DESIGN.md
 * @stateFlow 无状态HTTP请求处理
 * @rules 遵循RESTful API设计规范，统一错误处理和响应格式；除 /auth/me 外鉴权均为可选
 * @dependencies github.com/go-chi/chi/v5, github.com/go-chi/cors, github.com/go-chi/render
 * @refs api/controllers/, api/middleware/auth.go
 */

package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"

	"watchtower-service/api/controllers"
	"watchtower-service/api/middleware"
	"watchtower-service/service"
	"watchtower-service/service/auth"
	"watchtower-service/service/dashboard"
	"watchtower-service/service/datasource"
	"watchtower-service/service/monitoring"
	"watchtower-service/service/pipeline"
)

// Dependencies 路由依赖的服务
type Dependencies struct {
	Auth           *auth.Service
	DataSources    *datasource.Service
	Dashboard      *dashboard.Service
	Results        *pipeline.GormStore
	AlertConfigs   *monitoring.AlertConfigService
	AlertTester    controllers.AlertTester
	Health         *monitoring.HealthChecker
	AllowedOrigins []string
}

// InitRoute 使用全局服务初始化所有API路由
func InitRoute(r *chi.Mux) {
	origins := []string{"*"}
	if service.GlobalConfig != nil {
		origins = service.GlobalConfig.CORS.AllowedOrigins
	}
	RegisterRoutes(r, Dependencies{
		Auth:           service.GlobalAuthService,
		DataSources:    service.GlobalDataSourceService,
		Dashboard:      service.GlobalDashboardService,
		Results:        service.GlobalResultStore,
		AlertConfigs:   service.GlobalAlertConfigService,
		AlertTester:    service.GlobalAlertManager,
		Health:         service.GlobalHealthChecker,
		AllowedOrigins: origins,
	})
}

// RegisterRoutes 注册路由
func RegisterRoutes(r chi.Router, deps Dependencies) {
	// 基础中间件
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(render.SetContentType(render.ContentTypeJSON))

	// CORS配置，允许任意来源时不能携带凭证
	allowAll := len(deps.AllowedOrigins) == 0 || (len(deps.AllowedOrigins) == 1 && deps.AllowedOrigins[0] == "*")
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: !allowAll,
		MaxAge:           300,
	}))

	r.Use(middleware.OptionalAuth(deps.Auth))

	// 健康检查
	healthController := controllers.NewHealthController(deps.Health)
	r.Get("/", healthController.Root)
	r.Get("/health", healthController.Health)
	r.Get("/ready", healthController.Ready)

	// 认证
	r.Route("/auth", func(r chi.Router) {
		authController := controllers.NewAuthController(deps.Auth)
		r.Post("/register", authController.Register)
		r.Post("/login", authController.Login)
		r.With(middleware.RequireUser).Get("/me", authController.Me)
	})

	// 数据源
	r.Route("/data-sources", func(r chi.Router) {
		dataSourceController := controllers.NewDataSourceController(deps.DataSources)
		r.Get("/", dataSourceController.List)
		r.Post("/", dataSourceController.Create)
		r.Post("/upload", dataSourceController.Upload)
		r.Get("/{id}", dataSourceController.Get)
		r.Get("/{id}/data", dataSourceController.Data)
	})

	// 数据质量
	r.Route("/quality-checks", func(r chi.Router) {
		qualityController := controllers.NewQualityController(deps.Results, deps.Dashboard)
		r.Get("/", qualityController.ListChecks)
		r.Get("/summary", qualityController.Summary)
	})

	// 流水线
	r.Route("/pipeline-runs", func(r chi.Router) {
		pipelineController := controllers.NewPipelineController(deps.Results, deps.DataSources)
		r.Get("/", pipelineController.ListRuns)
		r.Get("/{id}", pipelineController.GetRun)
		r.Post("/{id}/rerun", pipelineController.Rerun)
	})

	// 告警
	r.Route("/alerts", func(r chi.Router) {
		alertController := controllers.NewAlertController(deps.AlertConfigs, deps.AlertTester)
		r.Get("/config", alertController.List)
		r.Post("/config", alertController.Create)
		r.Put("/config/{id}", alertController.Update)
		r.Delete("/config/{id}", alertController.Delete)
		r.Post("/test", alertController.Test)
	})

	// 仪表盘与血缘
	dashboardController := controllers.NewDashboardController(deps.Dashboard)
	r.Route("/dashboard", func(r chi.Router) {
		r.Get("/stats", dashboardController.Stats)
		r.Get("/timeline", dashboardController.Timeline)
	})
	r.Get("/lineage/{source_id}", dashboardController.Lineage)
}
