/*
 * @module service/models/transformation_rule
 * @description 转换规则实体模型定义，规则配置为类型专属的结构化载荷
 * @architecture DDD领域驱动设计 - 实体模型
 * @documentReference dev_docs/etl_model.md
 * @stateFlow 规则在执行期间视为不可变，修改仅对后续执行生效
 * @rules 规则配置由转换引擎按规则类型穷举解析校验
 * @dependencies gorm.io/gorm, github.com/google/uuid
 * @refs service/transform/engine.go
 */

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TransformationRule 转换规则模型
type TransformationRule struct {
	ID          string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name        string    `json:"name" gorm:"not null;size:255"`
	Description string    `json:"description" gorm:"size:1000"`
	Type        string    `json:"type" gorm:"not null;size:20"` // filter, map, convert, aggregate, custom
	Config      JSONB     `json:"config" gorm:"type:jsonb;not null"`
	IsEnabled   bool      `json:"is_enabled" gorm:"not null;default:true"`
	CreatedAt   time.Time `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// BeforeCreate GORM钩子，创建前生成UUID
func (r *TransformationRule) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

// TableName 指定表名
func (TransformationRule) TableName() string {
	return "etl_transformation_rules"
}
