/*
 * @module testutil/test_helper
 * @description 测试工具和辅助函数,提供内存数据库与测试数据工厂
 * @architecture 测试基础设施 - 提供测试通用工具和数据工厂
 * @stateFlow 测试环境初始化 -> 测试数据创建 -> 测试执行 -> 清理资源
 * @rules 提供可重用的测试工具,确保测试环境的一致性
 * @dependencies gorm, sqlite, testify
 * @refs service/models
 */

package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"etl-service/service/meta"
	"etl-service/service/models"
)

// TestDB 测试数据库配置
type TestDB struct {
	DB *gorm.DB
}

// NewTestDB 创建 sqlite 内存测试数据库并完成迁移
func NewTestDB() *TestDB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		panic(fmt.Sprintf("failed to connect test database: %v", err))
	}

	err = db.AutoMigrate(
		&models.DataSource{},
		&models.TransformationRule{},
		&models.ETLJob{},
		&models.Alert{},
	)
	if err != nil {
		panic(fmt.Sprintf("failed to migrate test database: %v", err))
	}

	return &TestDB{DB: db}
}

// CleanDB 清空所有表的数据
func (tdb *TestDB) CleanDB() {
	tables := []string{
		"etl_data_sources",
		"etl_transformation_rules",
		"etl_jobs",
		"etl_alerts",
	}
	for _, table := range tables {
		tdb.DB.Exec(fmt.Sprintf("DELETE FROM %s", table))
	}
}

// Close 关闭数据库连接
func (tdb *TestDB) Close() {
	if db, err := tdb.DB.DB(); err == nil {
		db.Close()
	}
}

// TestDataFactory 测试数据工厂
type TestDataFactory struct {
	DB *gorm.DB
}

// NewTestDataFactory 创建测试数据工厂
func NewTestDataFactory(db *gorm.DB) *TestDataFactory {
	return &TestDataFactory{DB: db}
}

// DataSourceOption 数据源选项函数类型
type DataSourceOption func(*models.DataSource)

// CreateDataSource 创建测试数据源,默认为内存类型
func (f *TestDataFactory) CreateDataSource(opts ...DataSourceOption) *models.DataSource {
	ds := &models.DataSource{
		ID:               generateID("ds"),
		Name:             "测试数据源_" + generateSuffix(),
		Description:      "这是一个测试数据源",
		Type:             meta.DataSourceTypeMemory,
		ConnectionConfig: models.JSONB{},
		ParamsConfig:     models.JSONB{},
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}

	for _, opt := range opts {
		opt(ds)
	}

	if err := f.DB.Create(ds).Error; err != nil {
		panic(fmt.Sprintf("failed to create test data source: %v", err))
	}
	return ds
}

// RuleOption 转换规则选项函数类型
type RuleOption func(*models.TransformationRule)

// CreateRule 创建测试转换规则,默认为 filter 类型
func (f *TestDataFactory) CreateRule(opts ...RuleOption) *models.TransformationRule {
	rule := &models.TransformationRule{
		ID:   generateID("rule"),
		Name: "测试规则_" + generateSuffix(),
		Type: meta.RuleTypeFilter,
		Config: models.JSONB{
			"conditions": []interface{}{
				map[string]interface{}{
					"field":    "price",
					"operator": "greaterThan",
					"value":    0,
				},
			},
		},
		IsEnabled: true,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	for _, opt := range opts {
		opt(rule)
	}

	if err := f.DB.Create(rule).Error; err != nil {
		panic(fmt.Sprintf("failed to create test rule: %v", err))
	}
	return rule
}

// JobOption 任务选项函数类型
type JobOption func(*models.ETLJob)

// CreateJob 创建测试任务
func (f *TestDataFactory) CreateJob(sourceID, destID string, opts ...JobOption) *models.ETLJob {
	job := &models.ETLJob{
		ID:             generateID("job"),
		Name:           "测试任务_" + generateSuffix(),
		Description:    "这是一个测试任务",
		SourceIDs:      models.JSONBStringArray{sourceID},
		DestinationIDs: models.JSONBStringArray{destID},
		RuleIDs:        models.JSONBStringArray{},
		Status:         meta.JobStatusCreated,
		IsEnabled:      true,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}

	for _, opt := range opts {
		opt(job)
	}

	if err := f.DB.Create(job).Error; err != nil {
		panic(fmt.Sprintf("failed to create test job: %v", err))
	}
	return job
}

func generateID(prefix string) string {
	return fmt.Sprintf("%s_%d_%s", prefix, time.Now().UnixNano(), generateSuffix())
}

func generateSuffix() string {
	return fmt.Sprintf("%d", time.Now().UnixNano()%100000)
}

// HTTPTestHelper HTTP测试辅助工具
type HTTPTestHelper struct{}

// NewHTTPTestHelper 创建HTTP测试辅助工具
func NewHTTPTestHelper() *HTTPTestHelper {
	return &HTTPTestHelper{}
}

// CreateJSONRequest 创建JSON请求
func (h *HTTPTestHelper) CreateJSONRequest(method, url string, body interface{}) (*http.Request, error) {
	var reqBody io.Reader

	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return nil, err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// AssertJSONResponse 断言JSON响应
func (h *HTTPTestHelper) AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedBody interface{}) {
	assert.Equal(t, expectedStatus, w.Code)

	if expectedBody != nil {
		var actualBody interface{}
		err := json.Unmarshal(w.Body.Bytes(), &actualBody)
		assert.NoError(t, err)

		expectedJSON, _ := json.Marshal(expectedBody)
		actualJSON, _ := json.Marshal(actualBody)
		assert.JSONEq(t, string(expectedJSON), string(actualJSON))
	}
}
