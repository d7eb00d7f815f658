/*
 * @module service/meta/transform
 * @description 转换规则元数据定义，包括规则类型、过滤操作符、聚合函数常量和校验函数
 * @architecture 元数据定义层
 * @documentReference dev_docs/etl_requirements.md
 * @stateFlow 无状态常量定义
 * @rules 规则类型和操作符为封闭集合，转换引擎按穷举匹配处理
 * @refs service/transform/engine.go
 */

package meta

// 转换规则类型常量
const (
	RuleTypeFilter    = "filter"
	RuleTypeMap       = "map"
	RuleTypeConvert   = "convert"
	RuleTypeAggregate = "aggregate"
	RuleTypeCustom    = "custom"
)

// 过滤条件操作符常量
const (
	FilterOpEquals      = "equals"
	FilterOpNotEquals   = "notEquals"
	FilterOpGreaterThan = "greaterThan"
	FilterOpLessThan    = "lessThan"
	FilterOpContains    = "contains"
	FilterOpStartsWith  = "startsWith"
	FilterOpIn          = "in"
	FilterOpIsNull      = "isNull"
)

// 过滤条件组合方式常量
const (
	FilterCombineAnd = "and"
	FilterCombineOr  = "or"
)

// 聚合函数常量
const (
	AggregateFuncSum   = "sum"
	AggregateFuncAvg   = "avg"
	AggregateFuncMin   = "min"
	AggregateFuncMax   = "max"
	AggregateFuncCount = "count"
)

// 类型转换目标类型常量
const (
	ConvertTargetString = "string"
	ConvertTargetInt    = "int"
	ConvertTargetFloat  = "float"
	ConvertTargetBool   = "bool"
	ConvertTargetTime   = "time"
)

var RuleTypes = []MetaField{
	{
		Name:        "filter",
		DisplayName: "过滤",
		Type:        "string",
		Required:    true,
		Description: "按字段条件过滤记录",
	},
	{
		Name:        "map",
		DisplayName: "映射",
		Type:        "string",
		Required:    true,
		Description: "字段重命名或取值映射",
	},
	{
		Name:        "convert",
		DisplayName: "类型转换",
		Type:        "string",
		Required:    true,
		Description: "字段类型转换，转换失败记录行级错误",
	},
	{
		Name:        "aggregate",
		DisplayName: "聚合",
		Type:        "string",
		Required:    true,
		Description: "按分组字段聚合，通常作为末尾规则",
	},
	{
		Name:        "custom",
		DisplayName: "自定义脚本",
		Type:        "string",
		Required:    true,
		Description: "通过脚本处理整批记录",
	},
}

// IsValidRuleType 规则类型验证函数
func IsValidRuleType(ruleType string) bool {
	validTypes := map[string]bool{
		RuleTypeFilter:    true,
		RuleTypeMap:       true,
		RuleTypeConvert:   true,
		RuleTypeAggregate: true,
		RuleTypeCustom:    true,
	}
	return validTypes[ruleType]
}

// IsValidFilterOperator 过滤操作符验证函数
func IsValidFilterOperator(op string) bool {
	validOps := map[string]bool{
		FilterOpEquals:      true,
		FilterOpNotEquals:   true,
		FilterOpGreaterThan: true,
		FilterOpLessThan:    true,
		FilterOpContains:    true,
		FilterOpStartsWith:  true,
		FilterOpIn:          true,
		FilterOpIsNull:      true,
	}
	return validOps[op]
}

// IsValidAggregateFunc 聚合函数验证函数
func IsValidAggregateFunc(fn string) bool {
	validFuncs := map[string]bool{
		AggregateFuncSum:   true,
		AggregateFuncAvg:   true,
		AggregateFuncMin:   true,
		AggregateFuncMax:   true,
		AggregateFuncCount: true,
	}
	return validFuncs[fn]
}
