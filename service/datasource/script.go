/*
 * @module service/datasource/script
 * @description 脚本数据源,通过 yaegi 动态脚本生成或处理行数据
 * @architecture 适配器模式 - 动态脚本执行适配统一数据源接口
 * @documentReference dev_docs/etl_datasource_req.md
 * @stateFlow Init 时编译校验脚本 -> Execute 时以行数据为入参执行
 * @rules 脚本必须返回行数组;抽取时入参为空数组,写入时入参为待处理行
 * @dependencies github.com/traefik/yaegi, etl-service/service/transform
 * @refs service/transform/script.go
 */

package datasource

import (
	"context"
	"fmt"
	"time"

	"etl-service/service/meta"
	"etl-service/service/models"
	"etl-service/service/transform"
)

// ScriptDataSource 脚本数据源
type ScriptDataSource struct {
	BaseDataSource
	executor *transform.ScriptExecutor
	script   string
}

// NewScriptDataSource 创建脚本数据源
func NewScriptDataSource() DataSourceInterface {
	return &ScriptDataSource{executor: transform.NewScriptExecutor()}
}

func (s *ScriptDataSource) Init(ctx context.Context, ds *models.DataSource) error {
	s.InitBase(ds)

	script := ds.Script
	if script == "" {
		script = s.GetConfigString("script")
	}
	if script == "" {
		return fmt.Errorf("脚本数据源需要 script 配置")
	}
	if err := s.executor.Validate(script); err != nil {
		return fmt.Errorf("脚本编译失败: %w", err)
	}
	s.script = script
	return nil
}

func (s *ScriptDataSource) Start(ctx context.Context) error {
	s.SetStarted(true)
	return nil
}

func (s *ScriptDataSource) Execute(ctx context.Context, request *ExecuteRequest) (*ExecuteResponse, error) {
	start := time.Now()

	var input []map[string]interface{}
	switch request.Operation {
	case OperationExtract:
		input = []map[string]interface{}{}
	case OperationLoad:
		input = request.Data
	default:
		return FailResponse(start, meta.ErrorTypeConfiguration,
			fmt.Errorf("不支持的操作类型: %s", request.Operation)), nil
	}

	rows, err := s.executor.Execute(ctx, s.script, input)
	if err != nil {
		s.SetLastError(err)
		return FailResponse(start, meta.ErrorTypeInternal, fmt.Errorf("脚本执行失败: %w", err)), nil
	}

	resp := NewExecuteResponse(start)
	resp.Success = true
	resp.Data = rows
	resp.RowCount = len(rows)
	return resp, nil
}

func (s *ScriptDataSource) Stop(ctx context.Context) error {
	s.SetStarted(false)
	return nil
}

func (s *ScriptDataSource) HealthCheck(ctx context.Context) (*HealthStatus, error) {
	status := &HealthStatus{LastCheck: time.Now()}
	if s.script == "" {
		status.Status = "offline"
		status.ErrorMessage = "脚本未配置"
		return status, nil
	}
	if err := s.executor.Validate(s.script); err != nil {
		status.Status = "error"
		status.ErrorMessage = err.Error()
		return status, nil
	}
	status.Status = "online"
	return status, nil
}

func (s *ScriptDataSource) IsResident() bool { return false }
