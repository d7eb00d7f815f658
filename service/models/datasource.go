/*
 * @module service/models/datasource
 * @description 数据源实体模型定义，包括连接配置、连接状态和脚本扩展配置
 * @architecture DDD领域驱动设计 - 实体模型
 * @documentReference dev_docs/etl_model.md
 * @stateFlow 数据源注册后仅通过connect/disconnect/test变更连接状态
 * @rules 被任务引用的数据源不允许删除，连接配置按类型校验
 * @dependencies gorm.io/gorm, github.com/google/uuid
 * @refs service/datasource/interface.go
 */

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DataSource 数据源模型
type DataSource struct {
	ID               string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name             string     `json:"name" gorm:"not null;size:255"`
	Description      string     `json:"description" gorm:"size:1000"`
	Type             string     `json:"type" gorm:"not null;size:50"` // database, api, file, in-memory, custom
	ConnectionConfig JSONB      `json:"connection_config" gorm:"type:jsonb;not null"`
	ParamsConfig     JSONB      `json:"params_config" gorm:"type:jsonb"`
	Script           string     `json:"script" gorm:"type:text"`                      // 动态执行脚本，用于custom类型数据源
	ScriptEnabled    bool       `json:"script_enabled" gorm:"not null;default:false"` // 是否启用脚本执行
	Connected        bool       `json:"connected" gorm:"not null;default:false"`
	LastConnectedAt  *time.Time `json:"last_connected_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt        time.Time  `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// BeforeCreate GORM钩子，创建前生成UUID
func (ds *DataSource) BeforeCreate(tx *gorm.DB) error {
	if ds.ID == "" {
		ds.ID = uuid.New().String()
	}
	return nil
}

// TableName 指定表名
func (DataSource) TableName() string {
	return "etl_data_sources"
}
