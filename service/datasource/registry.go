/*
 * @module service/datasource/registry
 * @description 数据源类型注册表,按类型注册构造函数并创建数据源实例
 * @architecture 工厂模式 - 类型字符串到构造函数的映射
 * @documentReference dev_docs/etl_datasource_req.md
 * @stateFlow 程序启动时注册内置类型,运行期按需创建实例
 * @rules 重复注册同一类型会覆盖旧的构造函数;未注册类型创建时返回配置错误
 * @dependencies etl-service/service/meta
 * @refs service/datasource/interface.go
 */

package datasource

import (
	"fmt"
	"sync"

	"etl-service/service/meta"
)

// DataSourceRegistry 数据源类型注册表
type DataSourceRegistry struct {
	mu       sync.RWMutex
	creators map[string]DataSourceCreator
}

// NewDataSourceRegistry 创建注册表并注册内置数据源类型
func NewDataSourceRegistry() *DataSourceRegistry {
	r := &DataSourceRegistry{
		creators: make(map[string]DataSourceCreator),
	}
	r.registerBuiltins()
	return r
}

func (r *DataSourceRegistry) registerBuiltins() {
	r.Register(meta.DataSourceTypeDatabase, func() DataSourceInterface { return NewDatabaseDataSource() })
	r.Register(meta.DataSourceTypeAPI, func() DataSourceInterface { return NewAPIDataSource() })
	r.Register(meta.DataSourceTypeFile, func() DataSourceInterface { return NewFileDataSource() })
	r.Register(meta.DataSourceTypeMemory, func() DataSourceInterface { return NewMemoryDataSource() })
	r.Register(meta.DataSourceTypeCustom, func() DataSourceInterface { return NewScriptDataSource() })
	r.Register(meta.DataSourceTypeRedis, func() DataSourceInterface { return NewRedisDataSource() })
	r.Register(meta.DataSourceTypeKafka, func() DataSourceInterface { return NewKafkaDataSource() })
	r.Register(meta.DataSourceTypeMQTT, func() DataSourceInterface { return NewMQTTDataSource() })
}

// Register 注册数据源类型
func (r *DataSourceRegistry) Register(dsType string, creator DataSourceCreator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creators[dsType] = creator
}

// Create 根据类型创建数据源实例
func (r *DataSourceRegistry) Create(dsType string) (DataSourceInterface, error) {
	r.mu.RLock()
	creator, ok := r.creators[dsType]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("不支持的数据源类型: %s", dsType)
	}
	return creator(), nil
}

// SupportedTypes 返回所有已注册的数据源类型
func (r *DataSourceRegistry) SupportedTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.creators))
	for t := range r.creators {
		types = append(types, t)
	}
	return types
}

// IsSupported 判断类型是否已注册
func (r *DataSourceRegistry) IsSupported(dsType string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.creators[dsType]
	return ok
}
