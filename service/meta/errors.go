/*
 * @module service/meta/errors
 * @description 错误分类常量定义，连接器和转换引擎以结构化结果返回错误，由管道管理器决定重试或中止
 * @architecture 元数据定义层
 * @documentReference dev_docs/etl_requirements.md
 * @stateFlow 无状态常量定义
 * @rules 行级转换错误不中止整批处理；并发冲突立即拒绝而非排队
 * @refs service/pipeline/manager.go, service/transform/engine.go
 */

package meta

// 错误分类常量
const (
	// ErrorTypeConfiguration 配置错误，仅对当前操作致命
	ErrorTypeConfiguration = "configuration"
	// ErrorTypeConnection 连接错误，可通过重新执行任务重试
	ErrorTypeConnection = "connection"
	// ErrorTypeRowConversion 行级转换错误，非致命，按行累积
	ErrorTypeRowConversion = "row-conversion"
	// ErrorTypeConcurrency 并发冲突，任务已在执行中
	ErrorTypeConcurrency = "concurrency"
	// ErrorTypeNotFound 引用了不存在的实体ID
	ErrorTypeNotFound = "not-found"
	// ErrorTypeInternal 未预期的内部错误，在管道边界捕获并转为任务失败
	ErrorTypeInternal = "internal"
)

// IsValidErrorType 错误分类验证函数
func IsValidErrorType(errorType string) bool {
	validTypes := map[string]bool{
		ErrorTypeConfiguration: true,
		ErrorTypeConnection:    true,
		ErrorTypeRowConversion: true,
		ErrorTypeConcurrency:   true,
		ErrorTypeNotFound:      true,
		ErrorTypeInternal:      true,
	}
	return validTypes[errorType]
}
