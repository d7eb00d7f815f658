/**
 * @module data_converter
 * @description 数据转换工具模块，负责类型转换、编码转换、时间解析等功能
 * @architecture 工具函数模式，提供无状态转换方法集合
 * @documentReference dev_docs/etl_requirements.md
 * @stateFlow 无状态转换：输入 -> 转换逻辑 -> 输出
 * @rules
 *   - 转换失败返回错误而非零值，由调用方决定降级策略
 *   - 编码转换支持GBK与UTF-8互转
 *   - 时间解析按常用格式依次尝试
 * @dependencies
 *   - github.com/spf13/cast: 类型转换
 *   - golang.org/x/text: 编码转换
 * @refs
 *   - service/transform/*: 转换引擎convert规则
 *   - service/datasource/file.go: 文件数据源编码处理
 */

package utils

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cast"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

// DataConverter 数据转换器
type DataConverter struct{}

// NewDataConverter 创建新的数据转换器实例
func NewDataConverter() *DataConverter {
	return &DataConverter{}
}

// ToString 转换为字符串
func (dc *DataConverter) ToString(value interface{}) string {
	if value == nil {
		return ""
	}

	if t, ok := value.(time.Time); ok {
		return t.Format(time.RFC3339)
	}

	if s, err := cast.ToStringE(value); err == nil {
		return s
	}

	// 复杂类型回退为JSON序列化
	if data, err := json.Marshal(value); err == nil {
		return string(data)
	}
	return fmt.Sprintf("%v", value)
}

// ToInt 转换为整数
func (dc *DataConverter) ToInt(value interface{}) (int, error) {
	if value == nil {
		return 0, fmt.Errorf("nil值无法转换为整数")
	}
	return cast.ToIntE(value)
}

// ToFloat 转换为浮点数
func (dc *DataConverter) ToFloat(value interface{}) (float64, error) {
	if value == nil {
		return 0, fmt.Errorf("nil值无法转换为浮点数")
	}
	return cast.ToFloat64E(value)
}

// ToBool 转换为布尔值
func (dc *DataConverter) ToBool(value interface{}) (bool, error) {
	if value == nil {
		return false, fmt.Errorf("nil值无法转换为布尔值")
	}
	return cast.ToBoolE(value)
}

// ToTime 转换为时间，字符串按常用格式依次尝试解析
func (dc *DataConverter) ToTime(value interface{}) (time.Time, error) {
	if value == nil {
		return time.Time{}, fmt.Errorf("nil值无法转换为时间")
	}

	switch v := value.(type) {
	case time.Time:
		return v, nil
	case string:
		return dc.ParseTime(v, nil)
	default:
		return cast.ToTimeE(value)
	}
}

// ParseTime 按给定格式列表解析时间字符串，layouts为空时使用默认格式集
func (dc *DataConverter) ParseTime(timeStr string, layouts []string) (time.Time, error) {
	if len(layouts) == 0 {
		layouts = []string{
			time.RFC3339,
			"2006-01-02 15:04:05",
			"2006-01-02T15:04:05",
			"2006-01-02",
			"2006/01/02 15:04:05",
			"2006/01/02",
			"15:04:05",
			"15:04",
		}
	}

	for _, layout := range layouts {
		if t, err := time.Parse(layout, timeStr); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("无法解析时间字符串: %s", timeStr)
}

// ConvertType 按目标类型名转换值
func (dc *DataConverter) ConvertType(value interface{}, targetType string) (interface{}, error) {
	switch strings.ToLower(targetType) {
	case "string":
		return dc.ToString(value), nil
	case "int", "integer":
		return dc.ToInt(value)
	case "float", "number":
		return dc.ToFloat(value)
	case "bool", "boolean":
		return dc.ToBool(value)
	case "time", "datetime":
		return dc.ToTime(value)
	default:
		return nil, fmt.Errorf("不支持的目标类型: %s", targetType)
	}
}

// ConvertEncoding 编码转换，支持GBK与UTF-8互转
func (dc *DataConverter) ConvertEncoding(data []byte, fromEncoding, toEncoding string) ([]byte, error) {
	from := strings.ToLower(fromEncoding)
	to := strings.ToLower(toEncoding)

	if from == to {
		return data, nil
	}

	switch {
	case from == "gbk" && to == "utf-8":
		decoder := simplifiedchinese.GBK.NewDecoder()
		result, _, err := transform.Bytes(decoder, data)
		if err != nil {
			return nil, fmt.Errorf("GBK转UTF-8失败: %w", err)
		}
		return result, nil
	case from == "utf-8" && to == "gbk":
		encoder := simplifiedchinese.GBK.NewEncoder()
		result, _, err := transform.Bytes(encoder, data)
		if err != nil {
			return nil, fmt.Errorf("UTF-8转GBK失败: %w", err)
		}
		return result, nil
	default:
		return nil, fmt.Errorf("不支持的编码转换: %s -> %s", fromEncoding, toEncoding)
	}
}

// FormatJSON 格式化为JSON字符串
func (dc *DataConverter) FormatJSON(data interface{}) (string, error) {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("JSON格式化失败: %w", err)
	}
	return string(bytes), nil
}

// ParseJSON 解析JSON字符串
func (dc *DataConverter) ParseJSON(jsonStr string) (interface{}, error) {
	var result interface{}
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		return nil, fmt.Errorf("JSON解析失败: %w", err)
	}
	return result, nil
}

// NormalizeString 标准化字符串：去首尾空白并压缩连续空白
func (dc *DataConverter) NormalizeString(str string) string {
	return strings.Join(strings.Fields(str), " ")
}
