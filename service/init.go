/*
 * @module service/init
 * @description 服务初始化模块,构建全局服务实例并完成目录载入与调度启动
 * @architecture 分层架构 - 服务层
 * @stateFlow 应用启动时执行初始化流程: 持久化 -> 注册表 -> 调度器 -> 管道管理器 -> 巡检
 * @rules 持久化存储为可选,未配置数据库时纯内存运行;确保所有依赖服务正常启动后才提供API服务
 * @dependencies etl-service/service/pipeline, etl-service/service/database
 * @refs main.go, api/routes.go
 */

package service

import (
	"context"
	"log"
	"os"
	"time"

	"etl-service/service/alert"
	"etl-service/service/database"
	"etl-service/service/datasource"
	"etl-service/service/meta"
	"etl-service/service/monitoring"
	"etl-service/service/pipeline"
	"etl-service/service/scheduler"
	"etl-service/service/transform"
)

var (
	GlobalCatalogStore      *database.CatalogStore
	GlobalAlertRegistry     *alert.Registry
	GlobalDataSourceManager *datasource.Manager
	GlobalTransformEngine   *transform.Engine
	GlobalScheduler         *scheduler.Scheduler
	GlobalMetrics           *monitoring.Metrics
	GlobalHealthChecker     *monitoring.HealthChecker
	GlobalPipelineManager   *pipeline.Manager
)

// InitServices 初始化全局服务,main 中调用一次
func InitServices() error {
	store, err := database.OpenFromEnv()
	if err != nil {
		return err
	}
	GlobalCatalogStore = store
	if store != nil {
		log.Println("目录持久化存储已启用")
	} else {
		log.Println("未配置数据库,目录使用内存存储")
	}

	GlobalAlertRegistry = alert.NewRegistry()
	GlobalDataSourceManager = datasource.NewManager(nil)
	GlobalTransformEngine = transform.NewEngine()
	GlobalScheduler = scheduler.NewScheduler(GlobalAlertRegistry)
	GlobalMetrics = monitoring.NewMetrics(nil)

	opts := &pipeline.Options{
		ExecuteTimeout: executeTimeoutFromEnv(),
	}
	if store != nil {
		opts.Store = store
	}
	GlobalPipelineManager = pipeline.NewManager(GlobalDataSourceManager,
		GlobalTransformEngine, GlobalScheduler, GlobalAlertRegistry,
		GlobalMetrics, opts)

	if err := GlobalScheduler.Start(); err != nil {
		return err
	}

	if store != nil {
		if err := loadCatalogs(store); err != nil {
			return err
		}
	}

	GlobalHealthChecker = monitoring.NewHealthChecker(GlobalDataSourceManager,
		GlobalAlertRegistry, GlobalMetrics,
		os.Getenv("ETL_HEALTH_CHECK_SPEC"), nil)
	if err := GlobalHealthChecker.Start(); err != nil {
		return err
	}

	log.Println("服务初始化完成")
	return nil
}

// loadCatalogs 从持久化存储载入目录并初始化管道管理器
func loadCatalogs(store *database.CatalogStore) error {
	sources, err := store.LoadDataSources()
	if err != nil {
		return err
	}
	rules, err := store.LoadRules()
	if err != nil {
		return err
	}
	jobs, err := store.LoadJobs()
	if err != nil {
		return err
	}

	// 载入的运行态字段重置,上次进程的运行中状态不可信
	for i := range jobs {
		if jobs[i].Status == meta.JobStatusRunning {
			jobs[i].Status = meta.JobStatusIdle
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	return GlobalPipelineManager.Initialize(ctx, sources, rules, jobs)
}

// ShutdownServices 关闭全局服务,幂等
func ShutdownServices(ctx context.Context) {
	if GlobalHealthChecker != nil {
		GlobalHealthChecker.Stop()
	}
	if GlobalPipelineManager != nil {
		GlobalPipelineManager.Shutdown(ctx)
	}
}

func executeTimeoutFromEnv() time.Duration {
	raw := os.Getenv("ETL_EXECUTE_TIMEOUT")
	if raw == "" {
		return pipeline.DefaultExecuteTimeout
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		log.Printf("无效的ETL_EXECUTE_TIMEOUT配置: %s, 使用默认值", raw)
		return pipeline.DefaultExecuteTimeout
	}
	return d
}
