/*
 * @module service/meta/job
 * @description ETL任务元数据定义，包括任务状态、调度频率常量和状态流转校验
 * @architecture 元数据定义层
 * @documentReference dev_docs/etl_requirements.md
 * @stateFlow created -> (idle|scheduled) -> running -> (success|warning|failed) -> idle/scheduled
 * @rules 同一任务同一时刻最多一次执行；running状态的任务拒绝重复执行
 * @refs service/pipeline/manager.go, service/scheduler/scheduler.go
 */

package meta

// ETL任务状态常量
const (
	JobStatusCreated   = "created"
	JobStatusScheduled = "scheduled"
	JobStatusIdle      = "idle"
	JobStatusRunning   = "running"
	JobStatusSuccess   = "success"
	JobStatusWarning   = "warning"
	JobStatusFailed    = "failed"
	JobStatusPaused    = "paused"
	JobStatusCompleted = "completed"
)

// 调度频率常量
const (
	ScheduleFrequencyOnce    = "once"
	ScheduleFrequencyHourly  = "hourly"
	ScheduleFrequencyDaily   = "daily"
	ScheduleFrequencyWeekly  = "weekly"
	ScheduleFrequencyMonthly = "monthly"
)

// 执行触发方式常量
const (
	TriggerTypeManual    = "manual"
	TriggerTypeScheduled = "scheduled"
)

var JobStatuses = []MetaField{
	{Name: "created", DisplayName: "已创建", Type: "string", Required: true},
	{Name: "scheduled", DisplayName: "已调度", Type: "string", Required: true},
	{Name: "idle", DisplayName: "空闲", Type: "string", Required: true},
	{Name: "running", DisplayName: "执行中", Type: "string", Required: true},
	{Name: "success", DisplayName: "执行成功", Type: "string", Required: true},
	{Name: "warning", DisplayName: "部分成功", Type: "string", Required: true},
	{Name: "failed", DisplayName: "执行失败", Type: "string", Required: true},
	{Name: "paused", DisplayName: "已暂停", Type: "string", Required: true},
	{Name: "completed", DisplayName: "已完成", Type: "string", Required: true},
}

var ScheduleFrequencies = []MetaField{
	{Name: "once", DisplayName: "单次", Type: "string", Required: true, Description: "在startDate触发一次，已过期则立即触发"},
	{Name: "hourly", DisplayName: "每小时", Type: "string", Required: true, Description: "自注册起每60分钟触发"},
	{Name: "daily", DisplayName: "每天", Type: "string", Required: true, Description: "每天在timeOfDay触发"},
	{Name: "weekly", DisplayName: "每周", Type: "string", Required: true, Description: "在daysOfWeek指定的每天timeOfDay触发"},
	{Name: "monthly", DisplayName: "每月", Type: "string", Required: true, Description: "每月在startDate同日timeOfDay触发，短月钳制到月末"},
}

// IsValidJobStatus 任务状态验证函数
func IsValidJobStatus(status string) bool {
	validStatuses := map[string]bool{
		JobStatusCreated:   true,
		JobStatusScheduled: true,
		JobStatusIdle:      true,
		JobStatusRunning:   true,
		JobStatusSuccess:   true,
		JobStatusWarning:   true,
		JobStatusFailed:    true,
		JobStatusPaused:    true,
		JobStatusCompleted: true,
	}
	return validStatuses[status]
}

// IsValidScheduleFrequency 调度频率验证函数
func IsValidScheduleFrequency(frequency string) bool {
	validFrequencies := map[string]bool{
		ScheduleFrequencyOnce:    true,
		ScheduleFrequencyHourly:  true,
		ScheduleFrequencyDaily:   true,
		ScheduleFrequencyWeekly:  true,
		ScheduleFrequencyMonthly: true,
	}
	return validFrequencies[frequency]
}

// IsTerminalJobStatus 判断是否为一次执行的终态
func IsTerminalJobStatus(status string) bool {
	return status == JobStatusSuccess || status == JobStatusWarning ||
		status == JobStatusFailed || status == JobStatusCompleted
}
