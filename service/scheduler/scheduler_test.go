/*
 * @module service/scheduler/scheduler_test
 * @description 调度器单元测试,覆盖注册/注销/once自动注销/panic捕获
 * @architecture 测试层
 * @stateFlow 启动调度器 -> 注册任务 -> 等待触发 -> 结果验证
 * @rules 触发等待使用通道加超时,避免依赖真实长时钟
 * @refs scheduler.go
 */

package scheduler

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"etl-service/service/alert"
	"etl-service/service/meta"
	"etl-service/service/models"
)

func pastOnceSchedule() *models.Schedule {
	return &models.Schedule{
		Frequency: meta.ScheduleFrequencyOnce,
		StartDate: time.Now().Add(-time.Minute),
	}
}

func waitFired(t *testing.T, fired <-chan string) string {
	t.Helper()
	select {
	case jobID := <-fired:
		return jobID
	case <-time.After(3 * time.Second):
		t.Fatal("等待任务触发超时")
		return ""
	}
}

func TestSchedulerStartStop(t *testing.T) {
	s := NewScheduler(alert.NewRegistry())

	require.NoError(t, s.Start())
	assert.True(t, s.IsRunning())
	assert.Error(t, s.Start())

	s.Stop()
	assert.False(t, s.IsRunning())
	// 重复停止不报错
	s.Stop()
}

func TestScheduleJobValidation(t *testing.T) {
	s := NewScheduler(alert.NewRegistry())

	_, err := s.ScheduleJob("", "任务", pastOnceSchedule(), func(string) {})
	assert.Error(t, err)

	_, err = s.ScheduleJob("job-1", "任务", pastOnceSchedule(), nil)
	assert.Error(t, err)

	_, err = s.ScheduleJob("job-1", "任务", nil, func(string) {})
	assert.Error(t, err)
}

func TestOnceJobFiresAndUnregisters(t *testing.T) {
	s := NewScheduler(alert.NewRegistry())
	require.NoError(t, s.Start())
	defer s.Stop()

	fired := make(chan string, 1)
	job, err := s.ScheduleJob("job-once", "单次任务", pastOnceSchedule(), func(jobID string) {
		fired <- jobID
	})
	require.NoError(t, err)
	assert.Equal(t, "job-once", job.JobID)

	assert.Equal(t, "job-once", waitFired(t, fired))
	s.WaitForDispatch()

	// once触发后自动注销
	_, exists := s.GetScheduledJob("job-once")
	assert.False(t, exists)
}

func TestRecurringJobStaysRegistered(t *testing.T) {
	s := NewScheduler(alert.NewRegistry())
	// 参考时钟拨回,使hourly的首次触发立即到期
	base := time.Now().Add(-2 * time.Hour)
	calls := int64(0)
	s.now = func() time.Time {
		if atomic.AddInt64(&calls, 1) == 1 {
			return base
		}
		return time.Now()
	}
	require.NoError(t, s.Start())
	defer s.Stop()

	fired := make(chan string, 1)
	_, err := s.ScheduleJob("job-hourly", "每小时任务", &models.Schedule{
		Frequency: meta.ScheduleFrequencyHourly,
	}, func(jobID string) {
		fired <- jobID
	})
	require.NoError(t, err)

	waitFired(t, fired)
	s.WaitForDispatch()

	// 循环调度触发后续排,注册仍在
	snapshot, exists := s.GetScheduledJob("job-hourly")
	require.True(t, exists)
	assert.Equal(t, 1, snapshot.FireCount)
	assert.NotNil(t, snapshot.LastFiredAt)
	assert.True(t, snapshot.NextFireAt.After(time.Now()))
}

func TestUnscheduleJob(t *testing.T) {
	s := NewScheduler(alert.NewRegistry())

	_, err := s.ScheduleJob("job-1", "任务", &models.Schedule{
		Frequency: meta.ScheduleFrequencyOnce,
		StartDate: time.Now().Add(time.Hour),
	}, func(string) {})
	require.NoError(t, err)

	assert.True(t, s.UnscheduleJob("job-1"))
	assert.False(t, s.UnscheduleJob("job-1"))
	assert.False(t, s.UnscheduleJob("not-exists"))

	_, exists := s.GetScheduledJob("job-1")
	assert.False(t, exists)
}

func TestRescheduleReplacesRegistration(t *testing.T) {
	s := NewScheduler(alert.NewRegistry())
	future := time.Now().Add(time.Hour)

	_, err := s.ScheduleJob("job-1", "任务", &models.Schedule{
		Frequency: meta.ScheduleFrequencyOnce,
		StartDate: future,
	}, func(string) {})
	require.NoError(t, err)

	later := future.Add(time.Hour)
	snapshot, err := s.ScheduleJob("job-1", "任务v2", &models.Schedule{
		Frequency: meta.ScheduleFrequencyOnce,
		StartDate: later,
	}, func(string) {})
	require.NoError(t, err)
	assert.Equal(t, "任务v2", snapshot.Name)
	assert.Equal(t, later, snapshot.NextFireAt)

	all := s.GetAllScheduledJobs()
	assert.Len(t, all, 1)
}

func TestGetAllScheduledJobs(t *testing.T) {
	s := NewScheduler(alert.NewRegistry())
	future := time.Now().Add(time.Hour)

	for _, id := range []string{"job-a", "job-b", "job-c"} {
		_, err := s.ScheduleJob(id, id, &models.Schedule{
			Frequency: meta.ScheduleFrequencyOnce,
			StartDate: future,
		}, func(string) {})
		require.NoError(t, err)
	}

	assert.Len(t, s.GetAllScheduledJobs(), 3)
}

func TestHandlerPanicRaisesAlert(t *testing.T) {
	alerts := alert.NewRegistry()
	s := NewScheduler(alerts)
	require.NoError(t, s.Start())
	defer s.Stop()

	fired := make(chan string, 1)
	_, err := s.ScheduleJob("job-panic", "异常任务", pastOnceSchedule(), func(jobID string) {
		fired <- jobID
		panic("处理函数崩溃")
	})
	require.NoError(t, err)

	waitFired(t, fired)
	s.WaitForDispatch()

	list := alerts.GetAlerts(&alert.Filter{Category: meta.AlertCategoryJob})
	require.Len(t, list, 1)
	assert.Equal(t, meta.AlertTypeError, list[0].Type)
	assert.Equal(t, meta.AlertSeverityHigh, list[0].Severity)
	assert.Equal(t, "job-panic", list[0].RelatedID)
}
