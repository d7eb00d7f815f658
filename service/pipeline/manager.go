/*
 * @module service/pipeline/manager
 * @description ETL管道管理器,维护任务/数据源/规则目录,编排抽取-转换-加载执行流程
 * @architecture 管理器模式 - 目录管理与管道编排的核心协调者
 * @stateFlow 初始化目录 -> 调度/手动触发 -> 执行(extract->transform->load) -> 记录结果
 * @rules 同一任务不允许并发执行,立即拒绝而非排队;零行输出视为成功;行级错误累积为warning
 * @dependencies etl-service/service/datasource, etl-service/service/transform, etl-service/service/scheduler
 * @refs service/pipeline/manager_test.go
 */

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"etl-service/service/alert"
	"etl-service/service/datasource"
	"etl-service/service/meta"
	"etl-service/service/models"
	"etl-service/service/monitoring"
	"etl-service/service/scheduler"
	"etl-service/service/transform"
)

// DefaultExecuteTimeout 单次任务执行的默认超时
const DefaultExecuteTimeout = 30 * time.Minute

var (
	// ErrJobNotFound 任务不存在
	ErrJobNotFound = errors.New("任务不存在")
	// ErrJobRunning 任务正在执行中,并发执行被拒绝
	ErrJobRunning = errors.New("任务正在执行中")
	// ErrJobDisabled 任务已禁用
	ErrJobDisabled = errors.New("任务已禁用")
)

// 单任务执行历史保留条数
const maxExecutionHistory = 100

// ExcludedJob 初始化时因引用校验失败被排除的任务
type ExcludedJob struct {
	JobID  string `json:"job_id"`
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// SystemStatus 系统状态汇总
type SystemStatus struct {
	JobCount                int        `json:"job_count"`
	DataSourceCount         int        `json:"data_source_count"`
	TransformationRuleCount int        `json:"transformation_rule_count"`
	RunningJobCount         int        `json:"running_job_count"`
	SchedulerRunning        bool       `json:"scheduler_running"`
	UnacknowledgedAlerts    int        `json:"unacknowledged_alerts"`
	LastFailureAt           *time.Time `json:"last_failure_at,omitempty"`
}

// CatalogPersistence 目录持久化后端,可选
type CatalogPersistence interface {
	SaveDataSource(ds *models.DataSource) error
	DeleteDataSource(id string) error
	SaveRule(rule *models.TransformationRule) error
	DeleteRule(id string) error
	SaveJob(job *models.ETLJob) error
	DeleteJob(id string) error
}

// Options 管道管理器配置项
type Options struct {
	ExecuteTimeout time.Duration
	Logger         *slog.Logger
	Store          CatalogPersistence
}

// Manager ETL管道管理器
type Manager struct {
	mu sync.RWMutex

	jobs     map[string]*models.ETLJob
	sources  map[string]*models.DataSource
	rules    map[string]*models.TransformationRule
	running  map[string]bool
	excluded []ExcludedJob

	executions map[string][]*models.JobExecution

	dsManager *datasource.Manager
	engine    *transform.Engine
	scheduler *scheduler.Scheduler
	alerts    *alert.Registry
	metrics   *monitoring.Metrics

	executeTimeout time.Duration
	logger         *slog.Logger
	store          CatalogPersistence

	lastFailureAt *time.Time
	shutdown      bool
}

// NewManager 创建管道管理器
func NewManager(dsManager *datasource.Manager, engine *transform.Engine,
	sched *scheduler.Scheduler, alerts *alert.Registry,
	metrics *monitoring.Metrics, opts *Options) *Manager {

	timeout := DefaultExecuteTimeout
	logger := slog.Default()
	var store CatalogPersistence
	if opts != nil {
		if opts.ExecuteTimeout > 0 {
			timeout = opts.ExecuteTimeout
		}
		if opts.Logger != nil {
			logger = opts.Logger
		}
		store = opts.Store
	}
	return &Manager{
		jobs:           make(map[string]*models.ETLJob),
		sources:        make(map[string]*models.DataSource),
		rules:          make(map[string]*models.TransformationRule),
		running:        make(map[string]bool),
		executions:     make(map[string][]*models.JobExecution),
		dsManager:      dsManager,
		engine:         engine,
		scheduler:      sched,
		alerts:         alerts,
		metrics:        metrics,
		executeTimeout: timeout,
		logger:         logger,
		store:          store,
	}
}

// persist 目录变更写回持久化存储,未配置时跳过
func (m *Manager) persist(action func(CatalogPersistence) error) {
	if m.store == nil {
		return
	}
	if err := action(m.store); err != nil {
		m.logger.Warn("目录持久化失败", "error", err)
	}
}

// Initialize 载入目录并完成引用校验,引用无效的任务被排除但不中断初始化
func (m *Manager) Initialize(ctx context.Context, sources []models.DataSource,
	rules []models.TransformationRule, jobs []models.ETLJob) error {

	for i := range sources {
		ds := sources[i]
		if err := m.AddDataSource(ctx, &ds); err != nil {
			m.logger.Warn("数据源注册失败", "name", ds.Name, "error", err)
			m.raiseAlert(meta.AlertTypeError, meta.AlertSeverityMedium, meta.AlertCategoryConnection,
				"数据源注册失败", fmt.Sprintf("数据源 %s 注册失败: %v", ds.Name, err), ds.ID)
		}
	}

	for i := range rules {
		rule := rules[i]
		if err := m.AddRule(&rule); err != nil {
			m.logger.Warn("转换规则载入失败", "name", rule.Name, "error", err)
		}
	}

	for i := range jobs {
		job := jobs[i]
		if err := m.AddJob(&job); err != nil {
			m.mu.Lock()
			m.excluded = append(m.excluded, ExcludedJob{
				JobID:  job.ID,
				Name:   job.Name,
				Reason: err.Error(),
			})
			m.mu.Unlock()
			m.logger.Warn("任务被排除", "job", job.Name, "reason", err)
			m.raiseAlert(meta.AlertTypeWarning, meta.AlertSeverityMedium, meta.AlertCategoryJob,
				"任务引用校验失败", fmt.Sprintf("任务 %s 被排除: %v", job.Name, err), job.ID)
		}
	}

	m.logger.Info("管道目录初始化完成",
		"jobs", len(m.jobs), "sources", len(m.sources), "rules", len(m.rules),
		"excluded", len(m.excluded))
	return nil
}

// validateJobRefs 校验任务引用的数据源和规则均存在,调用方需持有读锁或写锁
func (m *Manager) validateJobRefsLocked(job *models.ETLJob) error {
	if len(job.SourceIDs) == 0 {
		return fmt.Errorf("任务必须至少引用一个源数据源")
	}
	if len(job.DestinationIDs) == 0 {
		return fmt.Errorf("任务必须至少引用一个目标数据源")
	}
	for _, id := range job.SourceIDs {
		if _, ok := m.sources[id]; !ok {
			return fmt.Errorf("引用的源数据源不存在: %s", id)
		}
	}
	for _, id := range job.DestinationIDs {
		if _, ok := m.sources[id]; !ok {
			return fmt.Errorf("引用的目标数据源不存在: %s", id)
		}
	}
	for _, id := range job.RuleIDs {
		if _, ok := m.rules[id]; !ok {
			return fmt.Errorf("引用的转换规则不存在: %s", id)
		}
	}
	return nil
}

// AddJob 添加任务,完成引用校验并按需登记调度
func (m *Manager) AddJob(job *models.ETLJob) error {
	if job.Name == "" {
		return fmt.Errorf("任务名称不能为空")
	}
	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	if job.Schedule != nil {
		if err := job.Schedule.Validate(); err != nil {
			return err
		}
	}

	m.mu.Lock()
	if err := m.validateJobRefsLocked(job); err != nil {
		m.mu.Unlock()
		return err
	}
	if job.Status == "" {
		job.Status = meta.JobStatusCreated
	}
	m.jobs[job.ID] = job
	m.mu.Unlock()

	m.persist(func(s CatalogPersistence) error { return s.SaveJob(job) })

	if job.Schedule != nil && job.IsEnabled {
		return m.scheduleJob(job)
	}
	m.setJobStatus(job.ID, meta.JobStatusIdle)
	return nil
}

func (m *Manager) scheduleJob(job *models.ETLJob) error {
	jobID := job.ID
	_, err := m.scheduler.ScheduleJob(jobID, job.Name, job.Schedule, func(id string) {
		ctx, cancel := context.WithTimeout(context.Background(), m.executeTimeout)
		defer cancel()
		if _, err := m.ExecuteJob(ctx, id, meta.TriggerTypeScheduled); err != nil {
			m.logger.Error("调度执行失败", "job_id", id, "error", err)
		}
	})
	if err != nil {
		return err
	}
	m.setJobStatus(jobID, meta.JobStatusScheduled)
	return nil
}

// UpdateJob 更新任务并重建调度登记
func (m *Manager) UpdateJob(job *models.ETLJob) error {
	if job.ID == "" {
		return fmt.Errorf("任务ID不能为空")
	}
	if job.Schedule != nil {
		if err := job.Schedule.Validate(); err != nil {
			return err
		}
	}

	m.mu.Lock()
	existing, ok := m.jobs[job.ID]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("任务不存在: %s", job.ID)
	}
	if m.running[job.ID] {
		m.mu.Unlock()
		return fmt.Errorf("任务正在执行中,不允许更新: %s", job.ID)
	}
	if err := m.validateJobRefsLocked(job); err != nil {
		m.mu.Unlock()
		return err
	}
	job.CreatedAt = existing.CreatedAt
	job.UpdatedAt = time.Now()
	m.jobs[job.ID] = job
	m.mu.Unlock()

	m.persist(func(s CatalogPersistence) error { return s.SaveJob(job) })
	m.scheduler.UnscheduleJob(job.ID)
	if job.Schedule != nil && job.IsEnabled {
		return m.scheduleJob(job)
	}
	m.setJobStatus(job.ID, meta.JobStatusIdle)
	return nil
}

// RemoveJob 移除任务并取消调度
func (m *Manager) RemoveJob(jobID string) error {
	m.mu.Lock()
	if _, ok := m.jobs[jobID]; !ok {
		m.mu.Unlock()
		return fmt.Errorf("任务不存在: %s", jobID)
	}
	if m.running[jobID] {
		m.mu.Unlock()
		return fmt.Errorf("任务正在执行中,不允许删除: %s", jobID)
	}
	delete(m.jobs, jobID)
	delete(m.executions, jobID)
	m.mu.Unlock()

	m.persist(func(s CatalogPersistence) error { return s.DeleteJob(jobID) })
	m.scheduler.UnscheduleJob(jobID)
	return nil
}

// GetJob 获取任务
func (m *Manager) GetJob(jobID string) (*models.ETLJob, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[jobID]
	return job, ok
}

// ListJobs 列出所有任务
func (m *Manager) ListJobs() []*models.ETLJob {
	m.mu.RLock()
	defer m.mu.RUnlock()
	jobs := make([]*models.ETLJob, 0, len(m.jobs))
	for _, job := range m.jobs {
		jobs = append(jobs, job)
	}
	return jobs
}

// AddDataSource 添加数据源并注册到连接管理器
func (m *Manager) AddDataSource(ctx context.Context, ds *models.DataSource) error {
	if ds.Name == "" {
		return fmt.Errorf("数据源名称不能为空")
	}
	if !meta.IsValidDataSourceType(ds.Type) {
		return fmt.Errorf("无效的数据源类型: %s", ds.Type)
	}
	if ds.ID == "" {
		ds.ID = uuid.New().String()
	}

	if err := m.dsManager.Register(ctx, ds); err != nil {
		return err
	}

	m.mu.Lock()
	m.sources[ds.ID] = ds
	m.mu.Unlock()

	m.persist(func(s CatalogPersistence) error { return s.SaveDataSource(ds) })
	return nil
}

// RemoveDataSource 移除数据源,被任务引用时拒绝
func (m *Manager) RemoveDataSource(ctx context.Context, id string) error {
	m.mu.Lock()
	if _, ok := m.sources[id]; !ok {
		m.mu.Unlock()
		return fmt.Errorf("数据源不存在: %s", id)
	}
	for _, job := range m.jobs {
		if containsID(job.SourceIDs, id) || containsID(job.DestinationIDs, id) {
			m.mu.Unlock()
			return fmt.Errorf("数据源被任务 %s 引用,不允许删除", job.Name)
		}
	}
	delete(m.sources, id)
	m.mu.Unlock()

	m.persist(func(s CatalogPersistence) error { return s.DeleteDataSource(id) })
	return m.dsManager.Remove(ctx, id)
}

// GetDataSource 获取数据源配置
func (m *Manager) GetDataSource(id string) (*models.DataSource, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ds, ok := m.sources[id]
	return ds, ok
}

// ListDataSources 列出所有数据源
func (m *Manager) ListDataSources() []*models.DataSource {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sources := make([]*models.DataSource, 0, len(m.sources))
	for _, ds := range m.sources {
		sources = append(sources, ds)
	}
	return sources
}

// AddRule 添加转换规则,配置无效时拒绝
func (m *Manager) AddRule(rule *models.TransformationRule) error {
	if rule.Name == "" {
		return fmt.Errorf("规则名称不能为空")
	}
	if rule.ID == "" {
		rule.ID = uuid.New().String()
	}
	if err := m.engine.ValidateRule(rule); err != nil {
		return err
	}

	m.mu.Lock()
	m.rules[rule.ID] = rule
	m.mu.Unlock()

	m.persist(func(s CatalogPersistence) error { return s.SaveRule(rule) })
	return nil
}

// RemoveRule 移除规则,被任务引用时拒绝
func (m *Manager) RemoveRule(id string) error {
	m.mu.Lock()
	if _, ok := m.rules[id]; !ok {
		m.mu.Unlock()
		return fmt.Errorf("转换规则不存在: %s", id)
	}
	for _, job := range m.jobs {
		if containsID(job.RuleIDs, id) {
			m.mu.Unlock()
			return fmt.Errorf("规则被任务 %s 引用,不允许删除", job.Name)
		}
	}
	delete(m.rules, id)
	m.mu.Unlock()

	m.persist(func(s CatalogPersistence) error { return s.DeleteRule(id) })
	return nil
}

// GetRule 获取规则
func (m *Manager) GetRule(id string) (*models.TransformationRule, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rule, ok := m.rules[id]
	return rule, ok
}

// ListRules 列出所有规则
func (m *Manager) ListRules() []*models.TransformationRule {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rules := make([]*models.TransformationRule, 0, len(m.rules))
	for _, rule := range m.rules {
		rules = append(rules, rule)
	}
	return rules
}

// ExecuteJob 执行任务的抽取-转换-加载全流程,同一任务并发执行被立即拒绝
func (m *Manager) ExecuteJob(ctx context.Context, jobID, triggerType string) (*models.JobExecution, error) {
	m.mu.Lock()
	job, ok := m.jobs[jobID]
	if !ok {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	if m.running[jobID] {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrJobRunning, job.Name)
	}
	if !job.IsEnabled {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrJobDisabled, job.Name)
	}

	m.running[jobID] = true
	prevStatus := job.Status
	job.Status = meta.JobStatusRunning
	sourceIDs := append([]string{}, job.SourceIDs...)
	destIDs := append([]string{}, job.DestinationIDs...)
	ruleList := make([]models.TransformationRule, 0, len(job.RuleIDs))
	for _, id := range job.RuleIDs {
		if rule, ok := m.rules[id]; ok {
			ruleList = append(ruleList, *rule)
		}
	}
	jobName := job.Name
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.JobStarted()
	}

	execution := &models.JobExecution{
		ID:          uuid.New().String(),
		JobID:       jobID,
		TriggerType: triggerType,
		Status:      meta.JobStatusRunning,
		StartTime:   time.Now(),
	}

	execCtx, cancel := context.WithTimeout(ctx, m.executeTimeout)
	defer cancel()

	m.logger.Info("任务开始执行", "job", jobName, "trigger", triggerType)
	m.runPipeline(execCtx, execution, jobName, sourceIDs, destIDs, ruleList)

	now := time.Now()
	execution.EndTime = &now
	execution.Duration = now.Sub(execution.StartTime).Milliseconds()

	m.mu.Lock()
	delete(m.running, jobID)
	var updatedJob *models.ETLJob
	if job, ok := m.jobs[jobID]; ok {
		job.LastRunAt = &execution.StartTime
		if job.Schedule != nil && job.IsEnabled && prevStatus == meta.JobStatusScheduled {
			job.Status = meta.JobStatusScheduled
		} else {
			job.Status = execution.Status
		}
		updatedJob = job
	}
	if execution.Status == meta.JobStatusFailed {
		m.lastFailureAt = &now
	}
	history := append(m.executions[jobID], execution)
	if len(history) > maxExecutionHistory {
		history = history[len(history)-maxExecutionHistory:]
	}
	m.executions[jobID] = history
	m.mu.Unlock()

	if updatedJob != nil {
		m.persist(func(s CatalogPersistence) error { return s.SaveJob(updatedJob) })
	}
	if m.metrics != nil {
		m.metrics.JobFinished(execution.Status, now.Sub(execution.StartTime))
		m.metrics.AddRowsProcessed(execution.LoadedRows)
	}
	m.notifyResult(jobID, jobName, execution)

	m.logger.Info("任务执行结束",
		"job", jobName, "status", execution.Status,
		"extracted", execution.ExtractedRows, "loaded", execution.LoadedRows,
		"row_errors", execution.RowErrorCount, "duration_ms", execution.Duration)
	return execution, nil
}

// runPipeline 执行抽取-转换-加载,结果写入 execution
func (m *Manager) runPipeline(ctx context.Context, execution *models.JobExecution,
	jobName string, sourceIDs, destIDs []string, rules []models.TransformationRule) {

	defer func() {
		if r := recover(); r != nil {
			execution.Status = meta.JobStatusFailed
			execution.ErrorType = meta.ErrorTypeInternal
			execution.ErrorMsg = fmt.Sprintf("任务执行发生未预期错误: %v", r)
			m.logger.Error("任务执行panic", "job", jobName, "panic", r)
		}
	}()

	// 抽取阶段: 所有源的行按顺序拼接
	var records []transform.Record
	for _, sourceID := range sourceIDs {
		resp, err := m.dsManager.Execute(ctx, sourceID, &datasource.ExecuteRequest{
			Operation: datasource.OperationExtract,
		})
		if err != nil {
			execution.Status = meta.JobStatusFailed
			execution.ErrorType = meta.ErrorTypeConnection
			execution.ErrorMsg = fmt.Sprintf("数据源 %s 抽取失败: %v", sourceID, err)
			return
		}
		if !resp.Success {
			execution.Status = meta.JobStatusFailed
			execution.ErrorType = resp.ErrorType
			execution.ErrorMsg = fmt.Sprintf("数据源 %s 抽取失败: %s", sourceID, resp.Error)
			return
		}
		records = append(records, resp.Data...)
	}
	execution.ExtractedRows = len(records)

	// 转换阶段: 配置错误致命,行级错误累积
	result := m.engine.Apply(ctx, records, rules)
	if !result.Success {
		execution.Status = meta.JobStatusFailed
		execution.ErrorType = result.ErrorType
		execution.ErrorMsg = result.Error
		return
	}
	execution.RowErrorCount = len(result.Errors)

	// 加载阶段: 零行输出仍然是成功执行
	for _, destID := range destIDs {
		resp, err := m.dsManager.Execute(ctx, destID, &datasource.ExecuteRequest{
			Operation: datasource.OperationLoad,
			Data:      result.Data,
		})
		if err != nil {
			execution.Status = meta.JobStatusFailed
			execution.ErrorType = meta.ErrorTypeConnection
			execution.ErrorMsg = fmt.Sprintf("数据源 %s 加载失败: %v", destID, err)
			return
		}
		if !resp.Success {
			execution.Status = meta.JobStatusFailed
			execution.ErrorType = resp.ErrorType
			execution.ErrorMsg = fmt.Sprintf("数据源 %s 加载失败: %s", destID, resp.Error)
			return
		}
	}
	execution.LoadedRows = len(result.Data)

	if execution.RowErrorCount > 0 {
		execution.Status = meta.JobStatusWarning
	} else {
		execution.Status = meta.JobStatusSuccess
	}
}

// notifyResult 按执行结果产生告警,失败告警的类别与严重级别由错误分类决定
func (m *Manager) notifyResult(jobID, jobName string, execution *models.JobExecution) {
	switch execution.Status {
	case meta.JobStatusFailed:
		severity := meta.AlertSeverityHigh
		category := meta.AlertCategoryJob
		switch execution.ErrorType {
		case meta.ErrorTypeConnection:
			// 抽取/加载阶段失败
			category = meta.AlertCategoryConnection
		case meta.ErrorTypeInternal:
			severity = meta.AlertSeverityCritical
			category = meta.AlertCategorySystem
		}
		m.raiseAlert(meta.AlertTypeError, severity, category,
			"任务执行失败",
			fmt.Sprintf("任务 %s 执行失败 [%s]: %s", jobName, execution.ErrorType, execution.ErrorMsg),
			jobID)
	case meta.JobStatusWarning:
		m.raiseAlert(meta.AlertTypeWarning, meta.AlertSeverityMedium, meta.AlertCategoryDataQuality,
			"任务执行存在行级错误",
			fmt.Sprintf("任务 %s 执行完成, %d 行转换失败", jobName, execution.RowErrorCount),
			jobID)
	case meta.JobStatusSuccess:
		m.raiseAlert(meta.AlertTypeSuccess, meta.AlertSeverityLow, meta.AlertCategoryJob,
			"任务执行成功",
			fmt.Sprintf("任务 %s 执行成功, 抽取 %d 行, 加载 %d 行", jobName, execution.ExtractedRows, execution.LoadedRows),
			jobID)
	}
}

func (m *Manager) raiseAlert(alertType, severity, category, title, message, relatedID string) {
	if m.alerts == nil {
		return
	}
	if _, err := m.alerts.CreateAlert(&alert.CreateAlertRequest{
		Type:      alertType,
		Severity:  severity,
		Category:  category,
		Title:     title,
		Message:   message,
		RelatedID: relatedID,
	}); err != nil {
		m.logger.Warn("告警创建失败", "title", title, "error", err)
	}
}

// GetExecutions 获取任务执行历史,最新在前
func (m *Manager) GetExecutions(jobID string) []*models.JobExecution {
	m.mu.RLock()
	defer m.mu.RUnlock()
	history := m.executions[jobID]
	result := make([]*models.JobExecution, len(history))
	for i, exec := range history {
		result[len(history)-1-i] = exec
	}
	return result
}

// ExcludedJobs 返回初始化时被排除的任务列表
func (m *Manager) ExcludedJobs() []ExcludedJob {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]ExcludedJob{}, m.excluded...)
}

// IsJobRunning 任务是否正在执行
func (m *Manager) IsJobRunning(jobID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.running[jobID]
}

// GetSystemStatus 汇总当前系统状态
func (m *Manager) GetSystemStatus() *SystemStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	status := &SystemStatus{
		JobCount:                len(m.jobs),
		DataSourceCount:         len(m.sources),
		TransformationRuleCount: len(m.rules),
		RunningJobCount:         len(m.running),
		LastFailureAt:           m.lastFailureAt,
	}
	if m.scheduler != nil {
		status.SchedulerRunning = m.scheduler.IsRunning()
	}
	if m.alerts != nil {
		status.UnacknowledgedAlerts = m.alerts.CountUnacknowledged()
	}
	return status
}

// Shutdown 关闭管道管理器,幂等
func (m *Manager) Shutdown(ctx context.Context) {
	m.mu.Lock()
	if m.shutdown {
		m.mu.Unlock()
		return
	}
	m.shutdown = true
	m.mu.Unlock()

	if m.scheduler != nil {
		m.scheduler.Stop()
	}
	if m.dsManager != nil {
		m.dsManager.Shutdown(ctx)
	}
	m.logger.Info("管道管理器已关闭")
}

func (m *Manager) setJobStatus(jobID, status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if job, ok := m.jobs[jobID]; ok {
		job.Status = status
	}
}

func containsID(ids models.JSONBStringArray, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
