/*
 * @module service/datasource/mqtt
 * @description MQTT 数据源,订阅主题缓存 JSON 消息或向主题发布行数据
 * @architecture 适配器模式 - MQTT 订阅发布适配统一数据源接口
 * @documentReference dev_docs/etl_datasource_req.md
 * @stateFlow Start 连接并订阅 -> 消息进入缓冲区 -> Execute 抽取时排空缓冲区
 * @rules 缓冲区有界,超出容量丢弃最旧消息;消息体必须为 JSON 对象
 * @dependencies github.com/eclipse/paho.mqtt.golang
 * @refs service/datasource/base.go
 */

package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"etl-service/service/meta"
	"etl-service/service/models"
)

// MQTTDataSource MQTT 数据源
type MQTTDataSource struct {
	BaseDataSource
	client mqtt.Client
	topic  string

	bufMu     sync.Mutex
	buffer    []map[string]interface{}
	maxBuffer int
	dropped   int64
}

// NewMQTTDataSource 创建 MQTT 数据源
func NewMQTTDataSource() DataSourceInterface {
	return &MQTTDataSource{}
}

func (m *MQTTDataSource) Init(ctx context.Context, ds *models.DataSource) error {
	m.InitBase(ds)
	if err := m.RequireConfig("broker", "topic"); err != nil {
		return err
	}
	m.topic = m.GetConfigString("topic")
	m.maxBuffer = m.GetConfigInt("max_buffer", 10000)
	return nil
}

func (m *MQTTDataSource) Start(ctx context.Context) error {
	if m.client != nil && m.client.IsConnected() {
		return nil
	}

	opts := mqtt.NewClientOptions().
		AddBroker(m.GetConfigString("broker")).
		SetClientID(m.clientID()).
		SetUsername(m.GetConfigString("username")).
		SetPassword(m.GetConfigString("password")).
		SetAutoReconnect(true).
		SetConnectTimeout(10 * time.Second)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		m.SetLastError(token.Error())
		return fmt.Errorf("MQTT 连接失败: %w", token.Error())
	}

	if token := client.Subscribe(m.topic, 1, m.onMessage); token.Wait() && token.Error() != nil {
		client.Disconnect(250)
		m.SetLastError(token.Error())
		return fmt.Errorf("MQTT 订阅失败: %w", token.Error())
	}

	m.client = client
	m.SetStarted(true)
	m.SetLastError(nil)
	return nil
}

func (m *MQTTDataSource) clientID() string {
	if id := m.GetConfigString("client_id"); id != "" {
		return id
	}
	return "etl-" + m.GetID()
}

func (m *MQTTDataSource) onMessage(_ mqtt.Client, msg mqtt.Message) {
	var row map[string]interface{}
	if err := json.Unmarshal(msg.Payload(), &row); err != nil {
		return
	}
	m.bufMu.Lock()
	defer m.bufMu.Unlock()
	if len(m.buffer) >= m.maxBuffer {
		m.buffer = m.buffer[1:]
		m.dropped++
	}
	m.buffer = append(m.buffer, row)
}

func (m *MQTTDataSource) Execute(ctx context.Context, request *ExecuteRequest) (*ExecuteResponse, error) {
	start := time.Now()

	switch request.Operation {
	case OperationExtract:
		m.bufMu.Lock()
		rows := m.buffer
		m.buffer = nil
		m.bufMu.Unlock()

		resp := NewExecuteResponse(start)
		resp.Success = true
		resp.Data = rows
		resp.RowCount = len(rows)
		return resp, nil

	case OperationLoad:
		if m.client == nil || !m.client.IsConnected() {
			return FailResponse(start, meta.ErrorTypeConnection, fmt.Errorf("数据源未连接")), nil
		}
		for _, row := range request.Data {
			payload, err := json.Marshal(row)
			if err != nil {
				return FailResponse(start, meta.ErrorTypeConfiguration, err), nil
			}
			if token := m.client.Publish(m.topic, 1, false, payload); token.Wait() && token.Error() != nil {
				m.SetLastError(token.Error())
				return FailResponse(start, meta.ErrorTypeConnection, token.Error()), nil
			}
		}
		resp := NewExecuteResponse(start)
		resp.Success = true
		resp.RowCount = len(request.Data)
		resp.Message = fmt.Sprintf("发布 %d 条消息到 %s", len(request.Data), m.topic)
		return resp, nil

	default:
		return FailResponse(start, meta.ErrorTypeConfiguration,
			fmt.Errorf("不支持的操作类型: %s", request.Operation)), nil
	}
}

func (m *MQTTDataSource) Stop(ctx context.Context) error {
	if m.client == nil {
		return nil
	}
	if m.client.IsConnected() {
		if token := m.client.Unsubscribe(m.topic); token.Wait() && token.Error() != nil {
			// 断开前取消订阅失败不阻塞关闭
			m.SetLastError(token.Error())
		}
		m.client.Disconnect(250)
	}
	m.client = nil
	m.SetStarted(false)
	return nil
}

func (m *MQTTDataSource) HealthCheck(ctx context.Context) (*HealthStatus, error) {
	status := &HealthStatus{LastCheck: time.Now()}
	if m.client == nil {
		status.Status = "offline"
		status.ErrorMessage = "数据源未启动"
		return status, nil
	}
	if !m.client.IsConnected() {
		status.Status = "error"
		status.ErrorMessage = "MQTT 连接已断开"
		return status, nil
	}
	m.bufMu.Lock()
	buffered := len(m.buffer)
	dropped := m.dropped
	m.bufMu.Unlock()

	status.Status = "online"
	status.Details = map[string]interface{}{
		"buffered_messages": buffered,
		"dropped_messages":  dropped,
	}
	return status, nil
}

func (m *MQTTDataSource) IsResident() bool { return true }
