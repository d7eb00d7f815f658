/*
 * @module service/datasource/http
 * @description HTTP API 数据源,通过 REST 接口抽取和推送 JSON 数据
 * @architecture 适配器模式 - 将 HTTP 请求响应适配为统一数据源接口
 * @documentReference dev_docs/etl_datasource_req.md
 * @stateFlow 非常驻类型,Execute 时按需发起请求
 * @rules 响应必须为 JSON 数组或含 data 字段的对象;非 2xx 状态码视为连接错误
 * @dependencies net/http, encoding/json
 * @refs service/datasource/base.go
 */

package datasource

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/spf13/cast"

	"etl-service/service/meta"
	"etl-service/service/models"
)

// APIDataSource HTTP API 数据源
type APIDataSource struct {
	BaseDataSource
	client *http.Client
}

// NewAPIDataSource 创建 API 数据源
func NewAPIDataSource() DataSourceInterface {
	return &APIDataSource{}
}

func (a *APIDataSource) Init(ctx context.Context, ds *models.DataSource) error {
	a.InitBase(ds)
	if err := a.RequireConfig("url"); err != nil {
		return err
	}
	if _, err := url.Parse(a.GetConfigString("url")); err != nil {
		return fmt.Errorf("无效的 URL 配置: %w", err)
	}
	timeout := time.Duration(a.GetConfigInt("timeout_seconds", 30)) * time.Second
	a.client = &http.Client{Timeout: timeout}
	return nil
}

func (a *APIDataSource) Start(ctx context.Context) error {
	a.SetStarted(true)
	return nil
}

func (a *APIDataSource) Execute(ctx context.Context, request *ExecuteRequest) (*ExecuteResponse, error) {
	start := time.Now()
	if a.client == nil {
		return FailResponse(start, meta.ErrorTypeConfiguration, fmt.Errorf("数据源未初始化")), nil
	}

	switch request.Operation {
	case OperationExtract:
		return a.extract(ctx, start, request)
	case OperationLoad:
		return a.load(ctx, start, request)
	default:
		return FailResponse(start, meta.ErrorTypeConfiguration,
			fmt.Errorf("不支持的操作类型: %s", request.Operation)), nil
	}
}

func (a *APIDataSource) extract(ctx context.Context, start time.Time, request *ExecuteRequest) (*ExecuteResponse, error) {
	method := a.GetConfigString("method")
	if method == "" {
		method = http.MethodGet
	}

	reqURL := a.GetConfigString("url")
	if len(request.Params) > 0 && method == http.MethodGet {
		parsed, err := url.Parse(reqURL)
		if err != nil {
			return FailResponse(start, meta.ErrorTypeConfiguration, err), nil
		}
		q := parsed.Query()
		for k, v := range request.Params {
			q.Set(k, cast.ToString(v))
		}
		parsed.RawQuery = q.Encode()
		reqURL = parsed.String()
	}

	var body io.Reader
	if method == http.MethodPost && len(request.Params) > 0 {
		payload, err := json.Marshal(request.Params)
		if err != nil {
			return FailResponse(start, meta.ErrorTypeConfiguration, err), nil
		}
		body = bytes.NewReader(payload)
	}

	respBody, err := a.doRequest(ctx, method, reqURL, body)
	if err != nil {
		a.SetLastError(err)
		return FailResponse(start, meta.ErrorTypeConnection, err), nil
	}

	rows, err := parseRows(respBody, a.GetConfigString("data_path"))
	if err != nil {
		return FailResponse(start, meta.ErrorTypeConfiguration, err), nil
	}

	resp := NewExecuteResponse(start)
	resp.Success = true
	resp.Data = rows
	resp.RowCount = len(rows)
	return resp, nil
}

func (a *APIDataSource) load(ctx context.Context, start time.Time, request *ExecuteRequest) (*ExecuteResponse, error) {
	payload, err := json.Marshal(request.Data)
	if err != nil {
		return FailResponse(start, meta.ErrorTypeConfiguration, err), nil
	}
	if _, err := a.doRequest(ctx, http.MethodPost, a.GetConfigString("url"), bytes.NewReader(payload)); err != nil {
		a.SetLastError(err)
		return FailResponse(start, meta.ErrorTypeConnection, err), nil
	}
	resp := NewExecuteResponse(start)
	resp.Success = true
	resp.RowCount = len(request.Data)
	resp.Message = fmt.Sprintf("推送 %d 行", len(request.Data))
	return resp, nil
}

func (a *APIDataSource) doRequest(ctx context.Context, method, reqURL string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token := a.GetConfigString("auth_token"); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if headers, ok := a.GetParam("headers"); ok {
		for k, v := range cast.ToStringMapString(headers) {
			req.Header.Set(k, v)
		}
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("HTTP 请求失败, 状态码: %d", resp.StatusCode)
	}
	return data, nil
}

// parseRows 解析 JSON 响应为行集合,支持顶层数组或指定字段下的数组
func parseRows(body []byte, dataPath string) ([]map[string]interface{}, error) {
	var rows []map[string]interface{}
	if err := json.Unmarshal(body, &rows); err == nil {
		return rows, nil
	}

	var wrapper map[string]interface{}
	if err := json.Unmarshal(body, &wrapper); err != nil {
		return nil, fmt.Errorf("响应不是有效的 JSON: %w", err)
	}
	if dataPath == "" {
		dataPath = "data"
	}
	inner, ok := wrapper[dataPath]
	if !ok {
		// 单对象响应作为一行处理
		return []map[string]interface{}{wrapper}, nil
	}
	items, ok := inner.([]interface{})
	if !ok {
		return nil, fmt.Errorf("响应字段 %s 不是数组", dataPath)
	}
	rows = make([]map[string]interface{}, 0, len(items))
	for _, item := range items {
		row, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("响应字段 %s 包含非对象元素", dataPath)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (a *APIDataSource) Stop(ctx context.Context) error {
	a.SetStarted(false)
	return nil
}

func (a *APIDataSource) HealthCheck(ctx context.Context) (*HealthStatus, error) {
	start := time.Now()
	status := &HealthStatus{LastCheck: start}
	if a.client == nil {
		status.Status = "offline"
		status.ErrorMessage = "数据源未初始化"
		return status, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, a.GetConfigString("url"), nil)
	if err != nil {
		status.Status = "error"
		status.ErrorMessage = err.Error()
		return status, nil
	}
	resp, err := a.client.Do(req)
	if err != nil {
		status.Status = "error"
		status.ErrorMessage = err.Error()
		return status, nil
	}
	resp.Body.Close()

	status.Status = "online"
	status.ResponseTime = time.Since(start)
	status.Details = map[string]interface{}{"status_code": resp.StatusCode}
	return status, nil
}

func (a *APIDataSource) IsResident() bool { return false }
