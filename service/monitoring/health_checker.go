/*
 * @module service/monitoring/health_checker
 * @description 数据源健康巡检,基于 cron 周期检查所有数据源并对离线源产生告警
 * @architecture 定时任务模式 - cron 驱动周期巡检
 * @stateFlow Start 注册 cron 任务 -> 周期执行巡检 -> Stop 停止 cron
 * @rules 同一数据源连续离线只在状态变化时产生告警,避免告警风暴
 * @dependencies github.com/robfig/cron/v3
 * @refs service/datasource/manager.go, service/alert/registry.go
 */

package monitoring

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"etl-service/service/alert"
	"etl-service/service/datasource"
	"etl-service/service/meta"
)

// DefaultHealthCheckSpec 默认巡检周期
const DefaultHealthCheckSpec = "@every 1m"

// HealthChecker 数据源健康巡检器
type HealthChecker struct {
	mu        sync.Mutex
	cron      *cron.Cron
	entryID   cron.EntryID
	dsManager *datasource.Manager
	alerts    *alert.Registry
	metrics   *Metrics
	logger    *slog.Logger
	spec      string
	running   bool

	// 上一轮巡检各数据源是否在线,用于状态变化判断
	lastOnline map[string]bool
}

// NewHealthChecker 创建健康巡检器,spec 为空时使用默认周期
func NewHealthChecker(dsManager *datasource.Manager, alerts *alert.Registry,
	metrics *Metrics, spec string, logger *slog.Logger) *HealthChecker {
	if spec == "" {
		spec = DefaultHealthCheckSpec
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthChecker{
		cron:       cron.New(),
		dsManager:  dsManager,
		alerts:     alerts,
		metrics:    metrics,
		logger:     logger,
		spec:       spec,
		lastOnline: make(map[string]bool),
	}
}

// Start 启动周期巡检
func (h *HealthChecker) Start() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running {
		return nil
	}

	entryID, err := h.cron.AddFunc(h.spec, h.runOnce)
	if err != nil {
		return fmt.Errorf("注册巡检任务失败: %w", err)
	}
	h.entryID = entryID
	h.cron.Start()
	h.running = true
	h.logger.Info("健康巡检已启动", "spec", h.spec)
	return nil
}

// Stop 停止巡检,等待进行中的巡检结束
func (h *HealthChecker) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	h.mu.Unlock()

	ctx := h.cron.Stop()
	<-ctx.Done()
	h.logger.Info("健康巡检已停止")
}

// RunOnce 立即执行一轮巡检,测试和手动触发用
func (h *HealthChecker) RunOnce() {
	h.runOnce()
}

func (h *HealthChecker) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	results := h.dsManager.HealthCheckAll(ctx)

	h.mu.Lock()
	defer h.mu.Unlock()
	for id, status := range results {
		online := status.Status == "online"
		wasOnline, seen := h.lastOnline[id]
		h.lastOnline[id] = online

		if online {
			if seen && !wasOnline {
				h.logger.Info("数据源已恢复", "id", id)
			}
			continue
		}

		h.logger.Warn("数据源健康检查失败", "id", id,
			"status", status.Status, "error", status.ErrorMessage)
		if seen && !wasOnline {
			// 状态未变化,不重复告警
			continue
		}
		if h.alerts != nil {
			_, err := h.alerts.CreateAlert(&alert.CreateAlertRequest{
				Type:      meta.AlertTypeError,
				Severity:  meta.AlertSeverityHigh,
				Category:  meta.AlertCategoryConnection,
				Title:     "数据源离线",
				Message:   fmt.Sprintf("数据源 %s 健康检查失败: %s", id, status.ErrorMessage),
				RelatedID: id,
			})
			if err != nil {
				h.logger.Warn("告警创建失败", "error", err)
			}
			if h.metrics != nil {
				h.metrics.AlertRaised(meta.AlertSeverityHigh)
			}
		}
	}

	// 清理已移除数据源的状态记录
	for id := range h.lastOnline {
		if _, ok := results[id]; !ok {
			delete(h.lastOnline, id)
		}
	}
}
