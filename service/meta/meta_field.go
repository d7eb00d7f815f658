package meta

// MetaField 元数据字段定义，用于前端展示可选项
type MetaField struct {
	Name         string      `json:"name"`
	DisplayName  string      `json:"display_name"`
	Type         string      `json:"type"`
	Required     bool        `json:"required"`
	DefaultValue interface{} `json:"default_value"`
	Description  string      `json:"description,omitempty"`
}

// FieldNames 提取元数据字段名称列表
func FieldNames(fields []MetaField) []string {
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		names = append(names, f.Name)
	}
	return names
}
