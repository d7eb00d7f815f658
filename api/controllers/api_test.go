/*
 * @module api/controllers/api_test
 * @description API层集成测试,通过真实路由验证任务全流程与告警接口
 * @architecture 测试层
 * @stateFlow 构建全局服务 -> 初始化路由 -> httptest请求 -> 响应验证
 * @rules 全流程走内存数据源,响应统一为APIResponse信封,状态0表示成功
 * @refs api/routes.go
 */

package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"etl-service/api"
	"etl-service/service"
	"etl-service/service/alert"
	"etl-service/service/datasource"
	"etl-service/service/meta"
	"etl-service/service/pipeline"
	"etl-service/service/scheduler"
	"etl-service/service/transform"
)

type envelope struct {
	Status int             `json:"status"`
	Msg    string          `json:"msg"`
	Data   json.RawMessage `json:"data"`
}

func setupRouter(t *testing.T) *chi.Mux {
	t.Helper()
	service.GlobalAlertRegistry = alert.NewRegistry()
	service.GlobalDataSourceManager = datasource.NewManager(nil)
	service.GlobalTransformEngine = transform.NewEngine()
	service.GlobalScheduler = scheduler.NewScheduler(service.GlobalAlertRegistry)
	service.GlobalPipelineManager = pipeline.NewManager(
		service.GlobalDataSourceManager,
		service.GlobalTransformEngine,
		service.GlobalScheduler,
		service.GlobalAlertRegistry,
		nil,
		&pipeline.Options{ExecuteTimeout: 10 * time.Second},
	)
	t.Cleanup(func() { service.GlobalPipelineManager.Shutdown(context.Background()) })

	r := chi.NewRouter()
	api.InitRoute(r)
	return r
}

func doJSON(t *testing.T, router *chi.Mux, method, path string, body interface{}) *envelope {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	require.Equal(t, http.StatusOK, recorder.Code)

	var resp envelope
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	return &resp
}

func TestHealthEndpoints(t *testing.T) {
	router := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	require.Equal(t, http.StatusOK, recorder.Code)

	var health map[string]interface{}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &health))
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, "etl-service", health["service"])
}

func TestMetaEndpoint(t *testing.T) {
	router := setupRouter(t)

	resp := doJSON(t, router, http.MethodGet, "/meta", nil)
	require.Equal(t, 0, resp.Status)

	var tables map[string]interface{}
	require.NoError(t, json.Unmarshal(resp.Data, &tables))
	assert.Contains(t, tables, "data_source_types")
	assert.Contains(t, tables, "schedule_frequencies")
}

func TestJobLifecycleOverAPI(t *testing.T) {
	router := setupRouter(t)

	// 创建源和目标内存数据源
	srcResp := doJSON(t, router, http.MethodPost, "/datasources", map[string]interface{}{
		"id":   "src",
		"name": "估价数据源",
		"type": meta.DataSourceTypeMemory,
		"connection_config": map[string]interface{}{
			"initial_data": []map[string]interface{}{
				{"price": 10}, {"price": 20}, {"price": 30}, {"price": 15}, {"price": 25},
			},
		},
	})
	require.Equal(t, 0, srcResp.Status, srcResp.Msg)

	dstResp := doJSON(t, router, http.MethodPost, "/datasources", map[string]interface{}{
		"id":                "dst",
		"name":              "结果存储",
		"type":              meta.DataSourceTypeMemory,
		"connection_config": map[string]interface{}{},
	})
	require.Equal(t, 0, dstResp.Status, dstResp.Msg)

	// 创建过滤规则
	ruleResp := doJSON(t, router, http.MethodPost, "/rules", map[string]interface{}{
		"id":   "rule-1",
		"name": "价格过滤",
		"type": meta.RuleTypeFilter,
		"config": map[string]interface{}{
			"conditions": []map[string]interface{}{
				{"field": "price", "operator": "greaterThan", "value": 15},
			},
		},
		"is_enabled": true,
	})
	require.Equal(t, 0, ruleResp.Status, ruleResp.Msg)

	// 创建任务
	jobResp := doJSON(t, router, http.MethodPost, "/jobs", map[string]interface{}{
		"name":            "估价同步任务",
		"source_ids":      []string{"src"},
		"destination_ids": []string{"dst"},
		"rule_ids":        []string{"rule-1"},
	})
	require.Equal(t, 0, jobResp.Status, jobResp.Msg)

	var job struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(jobResp.Data, &job))
	require.NotEmpty(t, job.ID)
	assert.Equal(t, meta.JobStatusIdle, job.Status)

	// 手动执行
	execResp := doJSON(t, router, http.MethodPost, fmt.Sprintf("/jobs/%s/execute", job.ID), nil)
	require.Equal(t, 0, execResp.Status, execResp.Msg)

	var execution struct {
		Status        string `json:"status"`
		TriggerType   string `json:"trigger_type"`
		ExtractedRows int    `json:"extracted_rows"`
		LoadedRows    int    `json:"loaded_rows"`
	}
	require.NoError(t, json.Unmarshal(execResp.Data, &execution))
	assert.Equal(t, meta.JobStatusSuccess, execution.Status)
	assert.Equal(t, meta.TriggerTypeManual, execution.TriggerType)
	assert.Equal(t, 5, execution.ExtractedRows)
	assert.Equal(t, 3, execution.LoadedRows)

	// 执行历史
	histResp := doJSON(t, router, http.MethodGet, fmt.Sprintf("/jobs/%s/executions", job.ID), nil)
	require.Equal(t, 0, histResp.Status)
	var history []json.RawMessage
	require.NoError(t, json.Unmarshal(histResp.Data, &history))
	assert.Len(t, history, 1)

	// 系统状态
	statusResp := doJSON(t, router, http.MethodGet, "/status", nil)
	require.Equal(t, 0, statusResp.Status)
	var systemStatus struct {
		JobCount        int `json:"job_count"`
		DataSourceCount int `json:"data_source_count"`
	}
	require.NoError(t, json.Unmarshal(statusResp.Data, &systemStatus))
	assert.Equal(t, 1, systemStatus.JobCount)
	assert.Equal(t, 2, systemStatus.DataSourceCount)
}

func TestDataSourceConnectionOverAPI(t *testing.T) {
	router := setupRouter(t)

	createResp := doJSON(t, router, http.MethodPost, "/datasources", map[string]interface{}{
		"id":   "mem-1",
		"name": "带凭据数据源",
		"type": meta.DataSourceTypeMemory,
		"connection_config": map[string]interface{}{
			"host":     "localhost",
			"password": "估价平台口令",
		},
	})
	require.Equal(t, 0, createResp.Status, createResp.Msg)

	connectResp := doJSON(t, router, http.MethodPost, "/datasources/mem-1/connect", nil)
	require.Equal(t, 0, connectResp.Status, connectResp.Msg)

	var ds struct {
		Connected        bool                   `json:"connected"`
		ConnectionConfig map[string]interface{} `json:"connection_config"`
	}
	getResp := doJSON(t, router, http.MethodGet, "/datasources/mem-1", nil)
	require.Equal(t, 0, getResp.Status)
	require.NoError(t, json.Unmarshal(getResp.Data, &ds))
	assert.True(t, ds.Connected)

	// 凭据字段不回传明文
	password, _ := ds.ConnectionConfig["password"].(string)
	assert.NotEqual(t, "估价平台口令", password)
	assert.NotEmpty(t, password)
	assert.Equal(t, "localhost", ds.ConnectionConfig["host"])

	disconnectResp := doJSON(t, router, http.MethodPost, "/datasources/mem-1/disconnect", nil)
	require.Equal(t, 0, disconnectResp.Status, disconnectResp.Msg)

	getResp = doJSON(t, router, http.MethodGet, "/datasources/mem-1", nil)
	require.Equal(t, 0, getResp.Status)
	require.NoError(t, json.Unmarshal(getResp.Data, &ds))
	assert.False(t, ds.Connected)

	missingResp := doJSON(t, router, http.MethodPost, "/datasources/ghost/disconnect", nil)
	assert.Equal(t, http.StatusNotFound, missingResp.Status)
}

func TestCreateJobRejectsBadRefs(t *testing.T) {
	router := setupRouter(t)

	resp := doJSON(t, router, http.MethodPost, "/jobs", map[string]interface{}{
		"name":            "引用失效任务",
		"source_ids":      []string{"ghost"},
		"destination_ids": []string{"ghost"},
	})
	assert.Equal(t, http.StatusBadRequest, resp.Status)
}

func TestExecuteJobNotFoundAndGetJobNotFound(t *testing.T) {
	router := setupRouter(t)

	resp := doJSON(t, router, http.MethodPost, "/jobs/ghost/execute", nil)
	assert.Equal(t, http.StatusNotFound, resp.Status)

	resp = doJSON(t, router, http.MethodGet, "/jobs/ghost", nil)
	assert.Equal(t, http.StatusNotFound, resp.Status)
}

func TestAlertEndpoints(t *testing.T) {
	router := setupRouter(t)

	created, err := service.GlobalAlertRegistry.CreateAlert(&alert.CreateAlertRequest{
		Type:     meta.AlertTypeError,
		Severity: meta.AlertSeverityHigh,
		Category: meta.AlertCategoryJob,
		Title:    "任务失败",
	})
	require.NoError(t, err)
	_, err = service.GlobalAlertRegistry.CreateAlert(&alert.CreateAlertRequest{
		Type:     meta.AlertTypeInfo,
		Severity: meta.AlertSeverityLow,
		Category: meta.AlertCategorySystem,
		Title:    "系统启动",
	})
	require.NoError(t, err)

	listResp := doJSON(t, router, http.MethodGet, "/alerts?severity=high", nil)
	require.Equal(t, 0, listResp.Status)
	var alerts []struct {
		Title string `json:"title"`
	}
	require.NoError(t, json.Unmarshal(listResp.Data, &alerts))
	require.Len(t, alerts, 1)
	assert.Equal(t, "任务失败", alerts[0].Title)

	badResp := doJSON(t, router, http.MethodGet, "/alerts?acknowledged=maybe", nil)
	assert.Equal(t, http.StatusBadRequest, badResp.Status)

	ackResp := doJSON(t, router, http.MethodPost, fmt.Sprintf("/alerts/%s/acknowledge", created.ID), nil)
	assert.Equal(t, 0, ackResp.Status)

	missingResp := doJSON(t, router, http.MethodPost, "/alerts/ghost/acknowledge", nil)
	assert.Equal(t, http.StatusNotFound, missingResp.Status)

	summaryResp := doJSON(t, router, http.MethodGet, "/alerts/summary", nil)
	require.Equal(t, 0, summaryResp.Status)
	var summary map[string]int
	require.NoError(t, json.Unmarshal(summaryResp.Data, &summary))
	assert.Equal(t, 2, summary["total"])
	assert.Equal(t, 1, summary["unacknowledged"])
}
