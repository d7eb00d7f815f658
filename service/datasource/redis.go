/*
 * @module service/datasource/redis
 * @description Redis 数据源,以列表结构存取 JSON 行数据
 * @architecture 适配器模式 - Redis 列表读写适配统一数据源接口
 * @documentReference dev_docs/etl_datasource_req.md
 * @stateFlow Init 校验配置 -> Start 建立连接 -> Execute 读写列表 -> Stop 关闭
 * @rules 列表元素必须为 JSON 对象;写入使用 RPUSH 保持行顺序
 * @dependencies github.com/go-redis/redis/v8
 * @refs service/datasource/base.go
 */

package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"etl-service/service/meta"
	"etl-service/service/models"
)

// RedisDataSource Redis 数据源
type RedisDataSource struct {
	BaseDataSource
	client *redis.Client
}

// NewRedisDataSource 创建 Redis 数据源
func NewRedisDataSource() DataSourceInterface {
	return &RedisDataSource{}
}

func (r *RedisDataSource) Init(ctx context.Context, ds *models.DataSource) error {
	r.InitBase(ds)
	if err := r.RequireConfig("addr", "key"); err != nil {
		return err
	}
	return nil
}

func (r *RedisDataSource) Start(ctx context.Context) error {
	if r.client != nil {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     r.GetConfigString("addr"),
		Password: r.GetConfigString("password"),
		DB:       r.GetConfigInt("db", 0),
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		r.SetLastError(err)
		return fmt.Errorf("Redis 连接失败: %w", err)
	}
	r.client = client
	r.SetStarted(true)
	r.SetLastError(nil)
	return nil
}

func (r *RedisDataSource) Execute(ctx context.Context, request *ExecuteRequest) (*ExecuteResponse, error) {
	start := time.Now()
	if r.client == nil {
		return FailResponse(start, meta.ErrorTypeConnection, fmt.Errorf("数据源未启动")), nil
	}
	key := r.GetConfigString("key")

	switch request.Operation {
	case OperationExtract:
		items, err := r.client.LRange(ctx, key, 0, -1).Result()
		if err != nil {
			r.SetLastError(err)
			return FailResponse(start, meta.ErrorTypeConnection, err), nil
		}
		rows := make([]map[string]interface{}, 0, len(items))
		for i, item := range items {
			var row map[string]interface{}
			if err := json.Unmarshal([]byte(item), &row); err != nil {
				return FailResponse(start, meta.ErrorTypeConfiguration,
					fmt.Errorf("列表元素 %d 不是 JSON 对象: %w", i, err)), nil
			}
			rows = append(rows, row)
		}
		resp := NewExecuteResponse(start)
		resp.Success = true
		resp.Data = rows
		resp.RowCount = len(rows)
		return resp, nil

	case OperationLoad:
		values := make([]interface{}, 0, len(request.Data))
		for _, row := range request.Data {
			payload, err := json.Marshal(row)
			if err != nil {
				return FailResponse(start, meta.ErrorTypeConfiguration, err), nil
			}
			values = append(values, string(payload))
		}
		if len(values) > 0 {
			if err := r.client.RPush(ctx, key, values...).Err(); err != nil {
				r.SetLastError(err)
				return FailResponse(start, meta.ErrorTypeConnection, err), nil
			}
		}
		resp := NewExecuteResponse(start)
		resp.Success = true
		resp.RowCount = len(values)
		resp.Message = fmt.Sprintf("写入 %d 行到 %s", len(values), key)
		return resp, nil

	default:
		return FailResponse(start, meta.ErrorTypeConfiguration,
			fmt.Errorf("不支持的操作类型: %s", request.Operation)), nil
	}
}

func (r *RedisDataSource) Stop(ctx context.Context) error {
	if r.client == nil {
		return nil
	}
	err := r.client.Close()
	r.client = nil
	r.SetStarted(false)
	return err
}

func (r *RedisDataSource) HealthCheck(ctx context.Context) (*HealthStatus, error) {
	start := time.Now()
	status := &HealthStatus{LastCheck: start}
	if r.client == nil {
		status.Status = "offline"
		status.ErrorMessage = "数据源未启动"
		return status, nil
	}
	if err := r.client.Ping(ctx).Err(); err != nil {
		status.Status = "error"
		status.ErrorMessage = err.Error()
		return status, nil
	}
	status.Status = "online"
	status.ResponseTime = time.Since(start)
	return status, nil
}

func (r *RedisDataSource) IsResident() bool { return true }
