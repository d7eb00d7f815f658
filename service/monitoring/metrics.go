/*
 * @module service/monitoring/metrics
 * @description Prometheus 指标收集,记录任务执行次数、耗时与运行中任务数
 * @architecture 观察者模式 - 指标随执行事件更新,经 /metrics 暴露
 * @stateFlow 任务开始 -> 运行中计数加一 -> 任务结束 -> 按结果累积计数并观测耗时
 * @rules 指标注册幂等,重复创建使用同一注册表会panic,进程内只创建一次
 * @dependencies github.com/prometheus/client_golang/prometheus
 * @refs service/pipeline/manager.go, main.go
 */

package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics ETL运行指标
type Metrics struct {
	jobExecutions *prometheus.CounterVec
	jobDuration   prometheus.Histogram
	runningJobs   prometheus.Gauge
	rowsProcessed prometheus.Counter
	alertsRaised  *prometheus.CounterVec
}

// NewMetrics 创建并注册指标,registerer 为 nil 时使用默认注册表
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		jobExecutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "etl",
			Name:      "job_executions_total",
			Help:      "任务执行总数,按结果分类",
		}, []string{"result"}),
		jobDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "etl",
			Name:      "job_duration_seconds",
			Help:      "单次任务执行耗时",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900, 1800},
		}),
		runningJobs: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "etl",
			Name:      "running_jobs",
			Help:      "当前正在执行的任务数",
		}),
		rowsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "etl",
			Name:      "rows_processed_total",
			Help:      "累计处理的行数",
		}),
		alertsRaised: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "etl",
			Name:      "alerts_raised_total",
			Help:      "产生的告警总数,按严重级别分类",
		}, []string{"severity"}),
	}

	registerer.MustRegister(m.jobExecutions, m.jobDuration, m.runningJobs,
		m.rowsProcessed, m.alertsRaised)
	return m
}

// JobStarted 任务开始执行
func (m *Metrics) JobStarted() {
	m.runningJobs.Inc()
}

// JobFinished 任务执行结束,按结果状态累积
func (m *Metrics) JobFinished(status string, duration time.Duration) {
	m.runningJobs.Dec()
	m.jobExecutions.WithLabelValues(status).Inc()
	m.jobDuration.Observe(duration.Seconds())
}

// AddRowsProcessed 累积处理行数
func (m *Metrics) AddRowsProcessed(count int) {
	m.rowsProcessed.Add(float64(count))
}

// AlertRaised 记录一次告警
func (m *Metrics) AlertRaised(severity string) {
	m.alertsRaised.WithLabelValues(severity).Inc()
}
