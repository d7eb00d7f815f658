/*
 * @module service/models/job
 * @description ETL任务实体模型定义，包括源/目标/规则引用、调度配置和状态流转方法
 * @architecture DDD领域驱动设计 - 实体模型
 * @documentReference dev_docs/etl_model.md
 * @stateFlow created -> (idle|scheduled) -> running -> (success|warning|failed) -> idle/scheduled
 * @rules 任务引用的数据源和规则必须在目录中存在，否则任务被排除出活动集
 * @dependencies gorm.io/gorm, github.com/google/uuid
 * @refs service/pipeline/manager.go, service/scheduler/scheduler.go
 */

package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"etl-service/service/meta"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Schedule 调度配置
type Schedule struct {
	Frequency  string    `json:"frequency"`              // once, hourly, daily, weekly, monthly
	StartDate  time.Time `json:"start_date"`             // once必填；monthly取其日作为触发日
	DaysOfWeek []int     `json:"days_of_week,omitempty"` // weekly必填，0=周日
	TimeOfDay  string    `json:"time_of_day,omitempty"`  // daily/weekly/monthly必填，格式 15:04
}

// Validate 校验调度配置的完整性
func (s *Schedule) Validate() error {
	if !meta.IsValidScheduleFrequency(s.Frequency) {
		return fmt.Errorf("无效的调度频率: %s", s.Frequency)
	}

	switch s.Frequency {
	case meta.ScheduleFrequencyOnce:
		if s.StartDate.IsZero() {
			return fmt.Errorf("单次调度必须指定start_date")
		}
	case meta.ScheduleFrequencyWeekly:
		if len(s.DaysOfWeek) == 0 {
			return fmt.Errorf("每周调度必须指定days_of_week")
		}
		for _, d := range s.DaysOfWeek {
			if d < 0 || d > 6 {
				return fmt.Errorf("无效的星期值: %d", d)
			}
		}
		if s.TimeOfDay == "" {
			return fmt.Errorf("每周调度必须指定time_of_day")
		}
	case meta.ScheduleFrequencyDaily, meta.ScheduleFrequencyMonthly:
		if s.TimeOfDay == "" {
			return fmt.Errorf("%s调度必须指定time_of_day", s.Frequency)
		}
	}

	if s.TimeOfDay != "" {
		if _, err := time.Parse("15:04", s.TimeOfDay); err != nil {
			return fmt.Errorf("无效的time_of_day格式: %s", s.TimeOfDay)
		}
	}

	return nil
}

// Schedule 的 Scanner 接口实现
func (s *Schedule) Scan(value interface{}) error {
	if value == nil {
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("类型断言失败: 不是 []byte 或 string")
	}
	return json.Unmarshal(bytes, s)
}

// Schedule 的 Valuer 接口实现
func (s Schedule) Value() (driver.Value, error) {
	return json.Marshal(s)
}

// ETLJob ETL任务模型
type ETLJob struct {
	ID             string           `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name           string           `json:"name" gorm:"not null;size:255"`
	Description    string           `json:"description" gorm:"size:1000"`
	SourceIDs      JSONBStringArray `json:"source_ids" gorm:"type:jsonb;not null"`
	DestinationIDs JSONBStringArray `json:"destination_ids" gorm:"type:jsonb;not null"`
	RuleIDs        JSONBStringArray `json:"rule_ids" gorm:"type:jsonb"`
	Status         string           `json:"status" gorm:"not null;default:'created';size:20"`
	Schedule       *Schedule        `json:"schedule,omitempty" gorm:"type:jsonb"`
	LastRunAt      *time.Time       `json:"last_run_at,omitempty"`
	IsEnabled      bool             `json:"is_enabled" gorm:"not null;default:true"`
	CreatedAt      time.Time        `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt      time.Time        `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// BeforeCreate GORM钩子，创建前生成UUID
func (j *ETLJob) BeforeCreate(tx *gorm.DB) error {
	if j.ID == "" {
		j.ID = uuid.New().String()
	}
	if j.Status == "" {
		j.Status = meta.JobStatusCreated
	}
	return nil
}

// TableName 指定表名
func (ETLJob) TableName() string {
	return "etl_jobs"
}

// CanStart 判断任务当前状态是否允许启动执行
func (j *ETLJob) CanStart() bool {
	return j.IsEnabled && j.Status != meta.JobStatusRunning
}

// JobExecution 任务执行记录
type JobExecution struct {
	ID             string     `json:"id"`
	JobID          string     `json:"job_id"`
	TriggerType    string     `json:"trigger_type"` // manual, scheduled
	Status         string     `json:"status"`
	StartTime      time.Time  `json:"start_time"`
	EndTime        *time.Time `json:"end_time,omitempty"`
	Duration       int64      `json:"duration_ms"`
	ExtractedRows  int        `json:"extracted_rows"`
	LoadedRows     int        `json:"loaded_rows"`
	RowErrorCount  int        `json:"row_error_count"`
	ErrorType      string     `json:"error_type,omitempty"`
	ErrorMsg       string     `json:"error_msg,omitempty"`
}
