/*
 * @module service/database/store_test
 * @description 目录持久化存储单元测试,基于内存 sqlite 验证落库与载入
 * @architecture 测试层
 * @stateFlow 打开内存库 -> Save -> Load -> 结果验证
 * @refs store.go
 */

package database

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"etl-service/service/meta"
	"etl-service/service/models"
)

func newTestStore(t *testing.T) *CatalogStore {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	store, err := NewCatalogStore(db)
	require.NoError(t, err)
	return store
}

func TestDataSourceRoundTrip(t *testing.T) {
	store := newTestStore(t)

	ds := &models.DataSource{
		ID:   "ds-1",
		Name: "估价数据库",
		Type: meta.DataSourceTypeDatabase,
		ConnectionConfig: models.JSONB{
			"driver": "postgresql",
			"host":   "db.internal",
			"port":   5432,
		},
	}
	require.NoError(t, store.SaveDataSource(ds))

	loaded, err := store.LoadDataSources()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "估价数据库", loaded[0].Name)
	assert.Equal(t, "db.internal", loaded[0].ConnectionConfig["host"])

	require.NoError(t, store.DeleteDataSource("ds-1"))
	loaded, err = store.LoadDataSources()
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestDataSourceCredentialEncryption(t *testing.T) {
	store := newTestStore(t)

	ds := &models.DataSource{
		ID:   "ds-1",
		Name: "带凭据数据库",
		Type: meta.DataSourceTypeDatabase,
		ConnectionConfig: models.JSONB{
			"host":     "db.internal",
			"password": "估价平台口令",
		},
	}
	require.NoError(t, store.SaveDataSource(ds))

	// Save 不改变内存中的明文
	assert.Equal(t, "估价平台口令", ds.ConnectionConfig["password"])

	// 落库的是密文
	var raw models.DataSource
	require.NoError(t, store.DB().First(&raw, "id = ?", "ds-1").Error)
	stored, _ := raw.ConnectionConfig["password"].(string)
	assert.True(t, strings.HasPrefix(stored, "enc:"), "落库值应为密文: %s", stored)
	assert.NotContains(t, stored, "估价平台口令")
	assert.Equal(t, "db.internal", raw.ConnectionConfig["host"])

	// 载入时解密还原
	loaded, err := store.LoadDataSources()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "估价平台口令", loaded[0].ConnectionConfig["password"])
}

func TestRuleRoundTrip(t *testing.T) {
	store := newTestStore(t)

	rule := &models.TransformationRule{
		ID:   "rule-1",
		Name: "价格过滤",
		Type: meta.RuleTypeFilter,
		Config: models.JSONB{
			"conditions": []interface{}{
				map[string]interface{}{"field": "price", "operator": "greaterThan", "value": 15},
			},
		},
		IsEnabled: true,
	}
	require.NoError(t, store.SaveRule(rule))

	loaded, err := store.LoadRules()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, meta.RuleTypeFilter, loaded[0].Type)
	assert.True(t, loaded[0].IsEnabled)
	conditions, ok := loaded[0].Config["conditions"].([]interface{})
	require.True(t, ok)
	assert.Len(t, conditions, 1)

	require.NoError(t, store.DeleteRule("rule-1"))
}

func TestJobRoundTripWithSchedule(t *testing.T) {
	store := newTestStore(t)

	job := &models.ETLJob{
		ID:             "job-1",
		Name:           "每日估价同步",
		SourceIDs:      models.JSONBStringArray{"src-1", "src-2"},
		DestinationIDs: models.JSONBStringArray{"dst-1"},
		RuleIDs:        models.JSONBStringArray{"rule-1"},
		Status:         meta.JobStatusScheduled,
		Schedule: &models.Schedule{
			Frequency: meta.ScheduleFrequencyDaily,
			TimeOfDay: "02:30",
		},
		IsEnabled: true,
	}
	require.NoError(t, store.SaveJob(job))

	loaded, err := store.LoadJobs()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, models.JSONBStringArray{"src-1", "src-2"}, loaded[0].SourceIDs)
	require.NotNil(t, loaded[0].Schedule)
	assert.Equal(t, meta.ScheduleFrequencyDaily, loaded[0].Schedule.Frequency)
	assert.Equal(t, "02:30", loaded[0].Schedule.TimeOfDay)

	// Save 更新已有记录
	job.Status = meta.JobStatusIdle
	now := time.Now()
	job.LastRunAt = &now
	require.NoError(t, store.SaveJob(job))

	loaded, err = store.LoadJobs()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, meta.JobStatusIdle, loaded[0].Status)
	assert.NotNil(t, loaded[0].LastRunAt)

	require.NoError(t, store.DeleteJob("job-1"))
	loaded, err = store.LoadJobs()
	require.NoError(t, err)
	assert.Empty(t, loaded)
}
