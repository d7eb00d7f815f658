/*
 * @module service/meta/datasource
 * @description 数据源元数据定义，包括数据源类型常量、连接状态和校验函数
 * @architecture 元数据定义层
 * @documentReference dev_docs/etl_requirements.md
 * @stateFlow 无状态常量定义
 * @rules 数据源类型为封闭集合，新类型通过注册表的custom机制扩展
 * @refs service/datasource/registry.go
 */

package meta

// 数据源类型常量
const (
	DataSourceTypeDatabase = "database"
	DataSourceTypeAPI      = "api"
	DataSourceTypeFile     = "file"
	DataSourceTypeMemory   = "in-memory"
	DataSourceTypeCustom   = "custom"

	// 扩展类型，通过注册表以custom类别注册
	DataSourceTypeRedis = "redis"
	DataSourceTypeKafka = "kafka"
	DataSourceTypeMQTT  = "mqtt"
)

// 数据源连接状态常量
const (
	DataSourceStatusOnline  = "online"
	DataSourceStatusOffline = "offline"
	DataSourceStatusError   = "error"
	DataSourceStatusTesting = "testing"
)

var DataSourceTypes = []MetaField{
	{
		Name:        "database",
		DisplayName: "数据库",
		Type:        "string",
		Required:    true,
		Description: "关系型数据库数据源，支持PostgreSQL和SQLite",
	},
	{
		Name:        "api",
		DisplayName: "API接口",
		Type:        "string",
		Required:    true,
		Description: "HTTP API数据源",
	},
	{
		Name:        "file",
		DisplayName: "文件",
		Type:        "string",
		Required:    true,
		Description: "本地文件数据源，支持JSON和CSV格式",
	},
	{
		Name:        "in-memory",
		DisplayName: "内存",
		Type:        "string",
		Required:    true,
		Description: "进程内内存数据源，用于测试和中间结果",
	},
	{
		Name:        "custom",
		DisplayName: "自定义",
		Type:        "string",
		Required:    true,
		Description: "脚本驱动的自定义数据源",
	},
}

// IsValidDataSourceType 数据源类型验证函数
func IsValidDataSourceType(dsType string) bool {
	validTypes := map[string]bool{
		DataSourceTypeDatabase: true,
		DataSourceTypeAPI:      true,
		DataSourceTypeFile:     true,
		DataSourceTypeMemory:   true,
		DataSourceTypeCustom:   true,
		DataSourceTypeRedis:    true,
		DataSourceTypeKafka:    true,
		DataSourceTypeMQTT:     true,
	}
	return validTypes[dsType]
}

// IsResidentDataSourceType 判断是否为常驻数据源类型（需要保持连接）
func IsResidentDataSourceType(dsType string) bool {
	residentTypes := map[string]bool{
		DataSourceTypeDatabase: true,
		DataSourceTypeRedis:    true,
		DataSourceTypeKafka:    true,
		DataSourceTypeMQTT:     true,
	}
	return residentTypes[dsType]
}
