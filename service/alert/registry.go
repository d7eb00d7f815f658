/*
 * @module service/alert/registry
 * @description 告警注册表，记录系统运行事件，供管道管理器和外部观察者查询
 * @architecture 分层架构 - 业务服务层
 * @documentReference dev_docs/etl_requirements.md
 * @stateFlow 告警创建 -> 追加存储 -> 查询/确认
 * @rules 告警记录追加写入且不可删除，查询按创建时间倒序返回
 * @dependencies etl-service/service/models, etl-service/service/meta
 * @refs service/pipeline/manager.go, service/monitoring/health_checker.go
 */

package alert

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"etl-service/service/meta"
	"etl-service/service/models"

	"github.com/google/uuid"
)

// CreateAlertRequest 创建告警请求
type CreateAlertRequest struct {
	Type      string `json:"type"`
	Severity  string `json:"severity"`
	Category  string `json:"category"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	RelatedID string `json:"related_id,omitempty"`
}

// Filter 告警查询过滤条件，零值字段不参与过滤
type Filter struct {
	Type         string `json:"type,omitempty"`
	Severity     string `json:"severity,omitempty"`
	Category     string `json:"category,omitempty"`
	Acknowledged *bool  `json:"acknowledged,omitempty"`
	Limit        int    `json:"limit,omitempty"`
}

// Registry 告警注册表
type Registry struct {
	mutex  sync.RWMutex
	alerts map[string]*models.Alert
	order  []string // 按创建顺序记录ID，避免排序依赖时间精度
}

// NewRegistry 创建告警注册表实例
func NewRegistry() *Registry {
	return &Registry{
		alerts: make(map[string]*models.Alert),
	}
}

// CreateAlert 创建告警记录
func (r *Registry) CreateAlert(req *CreateAlertRequest) (*models.Alert, error) {
	if req == nil {
		return nil, fmt.Errorf("告警请求不能为空")
	}
	if !meta.IsValidAlertType(req.Type) {
		return nil, fmt.Errorf("无效的告警类型: %s", req.Type)
	}
	if !meta.IsValidAlertSeverity(req.Severity) {
		return nil, fmt.Errorf("无效的告警严重级别: %s", req.Severity)
	}
	if !meta.IsValidAlertCategory(req.Category) {
		return nil, fmt.Errorf("无效的告警类别: %s", req.Category)
	}
	if req.Title == "" {
		return nil, fmt.Errorf("告警标题不能为空")
	}

	a := &models.Alert{
		ID:        uuid.New().String(),
		Type:      req.Type,
		Severity:  req.Severity,
		Category:  req.Category,
		Title:     req.Title,
		Message:   req.Message,
		RelatedID: req.RelatedID,
		CreatedAt: time.Now(),
	}

	r.mutex.Lock()
	r.alerts[a.ID] = a
	r.order = append(r.order, a.ID)
	r.mutex.Unlock()

	return a, nil
}

// GetAlert 按ID查询告警
func (r *Registry) GetAlert(id string) (*models.Alert, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	a, exists := r.alerts[id]
	if !exists {
		return nil, fmt.Errorf("告警 %s 不存在", id)
	}

	copied := *a
	return &copied, nil
}

// GetAlerts 查询告警列表，按创建时间倒序
func (r *Registry) GetAlerts(filter *Filter) []*models.Alert {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	result := make([]*models.Alert, 0)
	for i := len(r.order) - 1; i >= 0; i-- {
		a := r.alerts[r.order[i]]
		if !matchesFilter(a, filter) {
			continue
		}

		copied := *a
		result = append(result, &copied)

		if filter != nil && filter.Limit > 0 && len(result) >= filter.Limit {
			break
		}
	}

	// order切片本身已按创建顺序排列，倒序遍历即最新在前；
	// 这里再按时间稳定排序一次，保证外部导入的历史告警也有序
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return result
}

// Acknowledge 确认告警，返回是否找到目标告警
func (r *Registry) Acknowledge(id string) bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	a, exists := r.alerts[id]
	if !exists {
		return false
	}

	if !a.Acknowledged {
		now := time.Now()
		a.Acknowledged = true
		a.AcknowledgedAt = &now
	}
	return true
}

// Count 统计告警总数
func (r *Registry) Count() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return len(r.alerts)
}

// CountUnacknowledged 统计未确认告警数
func (r *Registry) CountUnacknowledged() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	count := 0
	for _, a := range r.alerts {
		if !a.Acknowledged {
			count++
		}
	}
	return count
}

// matchesFilter 判断告警是否满足过滤条件
func matchesFilter(a *models.Alert, filter *Filter) bool {
	if filter == nil {
		return true
	}
	if filter.Type != "" && a.Type != filter.Type {
		return false
	}
	if filter.Severity != "" && a.Severity != filter.Severity {
		return false
	}
	if filter.Category != "" && a.Category != filter.Category {
		return false
	}
	if filter.Acknowledged != nil && a.Acknowledged != *filter.Acknowledged {
		return false
	}
	return true
}
