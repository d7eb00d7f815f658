/*
 * @module service/datasource/kafka
 * @description Kafka 数据源,从主题消费 JSON 消息或向主题发布行数据
 * @architecture 适配器模式 - Kafka 主题读写适配统一数据源接口
 * @documentReference dev_docs/etl_datasource_req.md
 * @stateFlow Init 校验配置 -> Start 建立写入器 -> Execute 消费/发布 -> Stop 关闭
 * @rules 抽取按 max_messages 或空闲超时结束;消息体必须为 JSON 对象
 * @dependencies github.com/segmentio/kafka-go
 * @refs service/datasource/base.go
 */

package datasource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	kafka "github.com/segmentio/kafka-go"

	"etl-service/service/meta"
	"etl-service/service/models"
)

// KafkaDataSource Kafka 数据源
type KafkaDataSource struct {
	BaseDataSource
	writer  *kafka.Writer
	brokers []string
	topic   string
}

// NewKafkaDataSource 创建 Kafka 数据源
func NewKafkaDataSource() DataSourceInterface {
	return &KafkaDataSource{}
}

func (k *KafkaDataSource) Init(ctx context.Context, ds *models.DataSource) error {
	k.InitBase(ds)
	if err := k.RequireConfig("brokers", "topic"); err != nil {
		return err
	}
	k.brokers = splitBrokers(k.GetConfigString("brokers"))
	k.topic = k.GetConfigString("topic")
	return nil
}

func splitBrokers(raw string) []string {
	parts := strings.Split(raw, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}

func (k *KafkaDataSource) Start(ctx context.Context) error {
	if k.writer != nil {
		return nil
	}
	k.writer = &kafka.Writer{
		Addr:         kafka.TCP(k.brokers...),
		Topic:        k.topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
	}
	k.SetStarted(true)
	return nil
}

func (k *KafkaDataSource) Execute(ctx context.Context, request *ExecuteRequest) (*ExecuteResponse, error) {
	start := time.Now()
	switch request.Operation {
	case OperationExtract:
		return k.consume(ctx, start)
	case OperationLoad:
		return k.publish(ctx, start, request)
	default:
		return FailResponse(start, meta.ErrorTypeConfiguration,
			fmt.Errorf("不支持的操作类型: %s", request.Operation)), nil
	}
}

func (k *KafkaDataSource) consume(ctx context.Context, start time.Time) (*ExecuteResponse, error) {
	maxMessages := k.GetConfigInt("max_messages", 1000)
	idleTimeout := time.Duration(k.GetConfigInt("idle_timeout_seconds", 5)) * time.Second

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  k.brokers,
		Topic:    k.topic,
		GroupID:  k.GetConfigString("group_id"),
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	defer reader.Close()

	rows := make([]map[string]interface{}, 0, maxMessages)
	for len(rows) < maxMessages {
		readCtx, cancel := context.WithTimeout(ctx, idleTimeout)
		msg, err := reader.ReadMessage(readCtx)
		cancel()
		if err != nil {
			// 空闲超时表示当前没有更多消息,正常结束
			if errors.Is(err, context.DeadlineExceeded) {
				break
			}
			if errors.Is(err, context.Canceled) {
				break
			}
			k.SetLastError(err)
			return FailResponse(start, meta.ErrorTypeConnection, err), nil
		}
		var row map[string]interface{}
		if err := json.Unmarshal(msg.Value, &row); err != nil {
			return FailResponse(start, meta.ErrorTypeConfiguration,
				fmt.Errorf("消息体不是 JSON 对象: %w", err)), nil
		}
		rows = append(rows, row)
	}

	resp := NewExecuteResponse(start)
	resp.Success = true
	resp.Data = rows
	resp.RowCount = len(rows)
	return resp, nil
}

func (k *KafkaDataSource) publish(ctx context.Context, start time.Time, request *ExecuteRequest) (*ExecuteResponse, error) {
	if k.writer == nil {
		return FailResponse(start, meta.ErrorTypeConnection, fmt.Errorf("数据源未启动")), nil
	}

	messages := make([]kafka.Message, 0, len(request.Data))
	for _, row := range request.Data {
		payload, err := json.Marshal(row)
		if err != nil {
			return FailResponse(start, meta.ErrorTypeConfiguration, err), nil
		}
		messages = append(messages, kafka.Message{Value: payload})
	}
	if len(messages) > 0 {
		if err := k.writer.WriteMessages(ctx, messages...); err != nil {
			k.SetLastError(err)
			return FailResponse(start, meta.ErrorTypeConnection, err), nil
		}
	}

	resp := NewExecuteResponse(start)
	resp.Success = true
	resp.RowCount = len(messages)
	resp.Message = fmt.Sprintf("发布 %d 条消息到 %s", len(messages), k.topic)
	return resp, nil
}

func (k *KafkaDataSource) Stop(ctx context.Context) error {
	if k.writer == nil {
		return nil
	}
	err := k.writer.Close()
	k.writer = nil
	k.SetStarted(false)
	return err
}

func (k *KafkaDataSource) HealthCheck(ctx context.Context) (*HealthStatus, error) {
	start := time.Now()
	status := &HealthStatus{LastCheck: start}
	if len(k.brokers) == 0 {
		status.Status = "offline"
		status.ErrorMessage = "未配置 broker 地址"
		return status, nil
	}

	conn, err := kafka.DialContext(ctx, "tcp", k.brokers[0])
	if err != nil {
		status.Status = "error"
		status.ErrorMessage = err.Error()
		return status, nil
	}
	defer conn.Close()

	status.Status = "online"
	status.ResponseTime = time.Since(start)
	return status, nil
}

func (k *KafkaDataSource) IsResident() bool { return true }
