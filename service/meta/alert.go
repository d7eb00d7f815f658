/*
 * @module service/meta/alert
 * @description 告警元数据定义，包括告警类型、严重级别、告警类别常量和校验函数
 * @architecture 元数据定义层
 * @documentReference dev_docs/etl_requirements.md
 * @stateFlow 无状态常量定义
 * @rules 告警记录创建后不可修改，仅允许确认操作
 * @refs service/alert/registry.go
 */

package meta

// 告警类型常量
const (
	AlertTypeInfo    = "info"
	AlertTypeWarning = "warning"
	AlertTypeError   = "error"
	AlertTypeSuccess = "success"
)

// 告警严重级别常量
const (
	AlertSeverityLow      = "low"
	AlertSeverityMedium   = "medium"
	AlertSeverityHigh     = "high"
	AlertSeverityCritical = "critical"
)

// 告警类别常量
const (
	AlertCategorySystem      = "system"
	AlertCategoryJob         = "job"
	AlertCategoryConnection  = "connection"
	AlertCategoryDataQuality = "data-quality"
)

var AlertTypes = []MetaField{
	{Name: "info", DisplayName: "信息", Type: "string", Required: true},
	{Name: "warning", DisplayName: "警告", Type: "string", Required: true},
	{Name: "error", DisplayName: "错误", Type: "string", Required: true},
	{Name: "success", DisplayName: "成功", Type: "string", Required: true},
}

var AlertSeverities = []MetaField{
	{Name: "low", DisplayName: "低", Type: "string", Required: true},
	{Name: "medium", DisplayName: "中", Type: "string", Required: true},
	{Name: "high", DisplayName: "高", Type: "string", Required: true},
	{Name: "critical", DisplayName: "严重", Type: "string", Required: true},
}

var AlertCategories = []MetaField{
	{Name: "system", DisplayName: "系统", Type: "string", Required: true},
	{Name: "job", DisplayName: "任务", Type: "string", Required: true},
	{Name: "connection", DisplayName: "连接", Type: "string", Required: true},
	{Name: "data-quality", DisplayName: "数据质量", Type: "string", Required: true},
}

// IsValidAlertType 告警类型验证函数
func IsValidAlertType(alertType string) bool {
	validTypes := map[string]bool{
		AlertTypeInfo:    true,
		AlertTypeWarning: true,
		AlertTypeError:   true,
		AlertTypeSuccess: true,
	}
	return validTypes[alertType]
}

// IsValidAlertSeverity 告警严重级别验证函数
func IsValidAlertSeverity(severity string) bool {
	validSeverities := map[string]bool{
		AlertSeverityLow:      true,
		AlertSeverityMedium:   true,
		AlertSeverityHigh:     true,
		AlertSeverityCritical: true,
	}
	return validSeverities[severity]
}

// IsValidAlertCategory 告警类别验证函数
func IsValidAlertCategory(category string) bool {
	validCategories := map[string]bool{
		AlertCategorySystem:      true,
		AlertCategoryJob:         true,
		AlertCategoryConnection:  true,
		AlertCategoryDataQuality: true,
	}
	return validCategories[category]
}
