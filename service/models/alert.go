/*
 * @module service/models/alert
 * @description 告警实体模型定义，告警记录为追加写入，仅确认标记可变
 * @architecture DDD领域驱动设计 - 实体模型
 * @documentReference dev_docs/etl_model.md
 * @stateFlow 创建 -> (可选)确认；无删除流程
 * @rules 告警按创建时间倒序查询，保留策略不在本服务范围内
 * @dependencies gorm.io/gorm, github.com/google/uuid
 * @refs service/alert/registry.go
 */

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Alert 告警模型
type Alert struct {
	ID             string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Type           string     `json:"type" gorm:"not null;size:20"`     // info, warning, error, success
	Severity       string     `json:"severity" gorm:"not null;size:20"` // low, medium, high, critical
	Category       string     `json:"category" gorm:"not null;size:20"` // system, job, connection, data-quality
	Title          string     `json:"title" gorm:"not null;size:255"`
	Message        string     `json:"message" gorm:"size:2000"`
	RelatedID      string     `json:"related_id,omitempty" gorm:"size:36;index"` // 关联的任务或数据源ID
	Acknowledged   bool       `json:"acknowledged" gorm:"not null;default:false"`
	AcknowledgedAt *time.Time `json:"acknowledged_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP;index"`
}

// BeforeCreate GORM钩子，创建前生成UUID
func (a *Alert) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return nil
}

// TableName 指定表名
func (Alert) TableName() string {
	return "etl_alerts"
}
