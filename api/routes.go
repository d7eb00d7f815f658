/*
 * @module api/routes
 * @description API路由配置模块,负责初始化和配置所有HTTP路由
 * @architecture RESTful API架构
 * @stateFlow 无状态HTTP请求处理
 * @rules 遵循RESTful API设计规范,统一错误处理和响应格式
 * @dependencies github.com/go-chi/chi/v5, github.com/go-chi/cors, github.com/go-chi/render
 * @refs api/controllers
 */

package api

import (
	"etl-service/api/controllers"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
)

// InitRoute 初始化所有API路由
func InitRoute(r *chi.Mux) {
	// 基础中间件
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(render.SetContentType(render.ContentTypeJSON))

	// CORS配置
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// 健康检查
	healthController := controllers.NewHealthController()
	r.Get("/health", healthController.Health)
	r.Get("/ready", healthController.Ready)

	// 元数据枚举
	metaController := controllers.NewMetaController()
	r.Get("/meta", metaController.GetMeta)

	// 任务管理
	r.Route("/jobs", func(r chi.Router) {
		jobController := controllers.NewJobController()
		r.Post("/", jobController.CreateJob)
		r.Get("/", jobController.ListJobs)
		r.Get("/{id}", jobController.GetJob)
		r.Put("/{id}", jobController.UpdateJob)
		r.Delete("/{id}", jobController.DeleteJob)
		r.Post("/{id}/execute", jobController.ExecuteJob)
		r.Get("/{id}/executions", jobController.GetExecutions)
	})

	// 数据源管理
	r.Route("/datasources", func(r chi.Router) {
		dsController := controllers.NewDataSourceController()
		r.Post("/", dsController.CreateDataSource)
		r.Get("/", dsController.ListDataSources)
		r.Get("/{id}", dsController.GetDataSource)
		r.Delete("/{id}", dsController.DeleteDataSource)
		r.Post("/{id}/connect", dsController.Connect)
		r.Post("/{id}/disconnect", dsController.Disconnect)
		r.Post("/{id}/test", dsController.TestConnection)
		r.Get("/{id}/statistics", dsController.GetStatistics)
	})

	// 转换规则管理
	r.Route("/rules", func(r chi.Router) {
		ruleController := controllers.NewRuleController()
		r.Post("/", ruleController.CreateRule)
		r.Get("/", ruleController.ListRules)
		r.Post("/validate", ruleController.ValidateRule)
		r.Get("/{id}", ruleController.GetRule)
		r.Delete("/{id}", ruleController.DeleteRule)
	})

	// 告警管理
	r.Route("/alerts", func(r chi.Router) {
		alertController := controllers.NewAlertController()
		r.Get("/", alertController.GetAlerts)
		r.Get("/summary", alertController.GetAlertSummary)
		r.Get("/{id}", alertController.GetAlert)
		r.Post("/{id}/acknowledge", alertController.Acknowledge)
	})

	// 系统状态
	r.Route("/status", func(r chi.Router) {
		statusController := controllers.NewStatusController()
		r.Get("/", statusController.GetSystemStatus)
		r.Get("/scheduled", statusController.GetScheduledJobs)
		r.Get("/excluded", statusController.GetExcludedJobs)
	})
}
