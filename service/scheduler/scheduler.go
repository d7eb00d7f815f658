/*
 * @module service/scheduler/scheduler
 * @description 任务调度器，维护(触发时间,任务ID)最小堆，由单一分发协程驱动定时触发
 * @architecture 最小堆 + 单分发协程的事件驱动定时模型
 * @documentReference dev_docs/etl_requirements.md
 * @stateFlow Idle -> Scheduled -> Firing -> Idle(循环) | Terminal(once触发后或被移除)
 * @rules 各任务独立触发，慢任务不阻塞其他任务的定时；stop()停止未来触发但不取消在途执行；
 *        once调度触发后自动注销；处理函数panic被捕获并转为告警，循环调度照常续排
 * @dependencies etl-service/service/alert, etl-service/service/models, container/heap
 * @refs service/pipeline/manager.go
 */

package scheduler

import (
	"container/heap"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"etl-service/service/alert"
	"etl-service/service/meta"
	"etl-service/service/models"
)

// JobHandler 任务触发处理函数
type JobHandler func(jobID string)

// ScheduledJob 调度中任务的快照视图
type ScheduledJob struct {
	JobID       string           `json:"job_id"`
	Name        string           `json:"name"`
	Schedule    *models.Schedule `json:"schedule"`
	NextFireAt  time.Time        `json:"next_fire_at"`
	LastFiredAt *time.Time       `json:"last_fired_at,omitempty"`
	FireCount   int              `json:"fire_count"`
	CreatedAt   time.Time        `json:"created_at"`
}

// registration 调度注册项，仅在调度器运行期间存在
type registration struct {
	jobID       string
	name        string
	schedule    *models.Schedule
	handler     JobHandler
	version     uint64 // 重复调度同一任务时用于失效旧堆条目
	nextFireAt  time.Time
	lastFiredAt *time.Time
	fireCount   int
	createdAt   time.Time
}

// fireEntry 最小堆条目
type fireEntry struct {
	fireAt  time.Time
	seq     uint64 // 同一触发时刻的确定性排序
	jobID   string
	version uint64
}

// fireHeap (触发时间, 序号)最小堆
type fireHeap []*fireEntry

func (h fireHeap) Len() int { return len(h) }

func (h fireHeap) Less(i, j int) bool {
	if h[i].fireAt.Equal(h[j].fireAt) {
		return h[i].seq < h[j].seq
	}
	return h[i].fireAt.Before(h[j].fireAt)
}

func (h fireHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *fireHeap) Push(x interface{}) { *h = append(*h, x.(*fireEntry)) }

func (h *fireHeap) Pop() interface{} {
	old := *h
	n := len(old)
	entry := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return entry
}

// Scheduler 任务调度器
type Scheduler struct {
	mu       sync.Mutex
	entries  fireHeap
	jobs     map[string]*registration
	seq      uint64
	version  uint64
	running  bool
	wake     chan struct{}
	ctx      context.Context
	cancel   context.CancelFunc
	alerts   *alert.Registry
	now      func() time.Time // 测试注入
	dispatch sync.WaitGroup
}

// NewScheduler 创建调度器实例
func NewScheduler(alerts *alert.Registry) *Scheduler {
	return &Scheduler{
		jobs:   make(map[string]*registration),
		wake:   make(chan struct{}, 1),
		alerts: alerts,
		now:    time.Now,
	}
}

// Start 启动调度器，开始驱动已注册的定时触发
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("调度器已经启动")
	}

	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.running = true

	go s.dispatchLoop(s.ctx)
	slog.Info("任务调度器已启动")
	return nil
}

// Stop 停止调度器，阻止未来触发但不取消在途执行
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel := s.cancel
	s.mu.Unlock()

	cancel()
	slog.Info("任务调度器已停止")
}

// IsRunning 查询调度器是否运行中
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// ScheduleJob 注册调度任务，计算首次触发时间并入堆
// 重复调度同一任务ID时替换原有注册
func (s *Scheduler) ScheduleJob(jobID, name string, schedule *models.Schedule, handler JobHandler) (*ScheduledJob, error) {
	if jobID == "" {
		return nil, fmt.Errorf("任务ID不能为空")
	}
	if handler == nil {
		return nil, fmt.Errorf("处理函数不能为空")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	nextFire, err := ComputeNextFire(schedule, s.now())
	if err != nil {
		return nil, fmt.Errorf("计算触发时间失败: %w", err)
	}

	s.version++
	reg := &registration{
		jobID:      jobID,
		name:       name,
		schedule:   schedule,
		handler:    handler,
		version:    s.version,
		nextFireAt: nextFire,
		createdAt:  s.now(),
	}
	s.jobs[jobID] = reg
	s.pushEntryLocked(reg)
	s.wakeDispatcherLocked()

	return reg.snapshot(), nil
}

// UnscheduleJob 注销调度任务，取消其未来触发，返回是否存在该注册
func (s *Scheduler) UnscheduleJob(jobID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[jobID]; !exists {
		return false
	}

	// 堆中的旧条目通过版本校验在弹出时丢弃
	delete(s.jobs, jobID)
	s.wakeDispatcherLocked()
	return true
}

// GetScheduledJob 查询单个调度任务快照
func (s *Scheduler) GetScheduledJob(jobID string) (*ScheduledJob, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reg, exists := s.jobs[jobID]
	if !exists {
		return nil, false
	}
	return reg.snapshot(), true
}

// GetAllScheduledJobs 查询全部调度任务快照
func (s *Scheduler) GetAllScheduledJobs() []*ScheduledJob {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]*ScheduledJob, 0, len(s.jobs))
	for _, reg := range s.jobs {
		result = append(result, reg.snapshot())
	}
	return result
}

// pushEntryLocked 将注册项的下次触发入堆，调用方需持锁
func (s *Scheduler) pushEntryLocked(reg *registration) {
	s.seq++
	heap.Push(&s.entries, &fireEntry{
		fireAt:  reg.nextFireAt,
		seq:     s.seq,
		jobID:   reg.jobID,
		version: reg.version,
	})
}

// wakeDispatcherLocked 唤醒分发协程重新计算等待时间，调用方需持锁
func (s *Scheduler) wakeDispatcherLocked() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// dispatchLoop 单分发协程：等待最近触发时刻，到期后派发处理函数
func (s *Scheduler) dispatchLoop(ctx context.Context) {
	timer := time.NewTimer(time.Hour)
	defer timer.Stop()

	for {
		s.mu.Lock()
		wait, hasNext := s.nextWaitLocked()
		s.mu.Unlock()

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		if hasNext {
			timer.Reset(wait)
		}

		if hasNext {
			select {
			case <-ctx.Done():
				return
			case <-s.wake:
				continue
			case <-timer.C:
				s.fireDue()
			}
		} else {
			select {
			case <-ctx.Done():
				return
			case <-s.wake:
				continue
			}
		}
	}
}

// nextWaitLocked 计算到最近有效触发的等待时长，丢弃失效堆条目
func (s *Scheduler) nextWaitLocked() (time.Duration, bool) {
	for len(s.entries) > 0 {
		head := s.entries[0]
		reg, exists := s.jobs[head.jobID]
		if !exists || reg.version != head.version {
			heap.Pop(&s.entries)
			continue
		}

		wait := head.fireAt.Sub(s.now())
		if wait < 0 {
			wait = 0
		}
		return wait, true
	}
	return 0, false
}

// fireDue 触发所有到期任务
func (s *Scheduler) fireDue() {
	now := s.now()

	s.mu.Lock()
	var due []*registration
	for len(s.entries) > 0 {
		head := s.entries[0]
		if head.fireAt.After(now) {
			break
		}
		heap.Pop(&s.entries)

		reg, exists := s.jobs[head.jobID]
		if !exists || reg.version != head.version {
			continue
		}

		fired := now
		reg.lastFiredAt = &fired
		reg.fireCount++
		due = append(due, reg)

		if reg.schedule != nil && reg.schedule.Frequency == meta.ScheduleFrequencyOnce {
			// once调度触发后自动注销
			delete(s.jobs, reg.jobID)
			continue
		}

		// 循环调度在派发前续排，处理函数失败不影响续排
		next, err := ComputeNextFire(reg.schedule, now)
		if err != nil {
			slog.Error("续排调度任务失败", "job_id", reg.jobID, "error", err)
			delete(s.jobs, reg.jobID)
			continue
		}
		reg.nextFireAt = next
		s.pushEntryLocked(reg)
	}
	s.mu.Unlock()

	// 处理函数在独立协程中执行，慢任务不阻塞其他任务的定时
	for _, reg := range due {
		s.dispatch.Add(1)
		go s.runHandler(reg)
	}
}

// runHandler 执行处理函数，捕获panic并转为告警
func (s *Scheduler) runHandler(reg *registration) {
	defer s.dispatch.Done()
	defer func() {
		if r := recover(); r != nil {
			slog.Error("调度任务处理函数异常", "job_id", reg.jobID, "panic", r)
			if s.alerts != nil {
				s.alerts.CreateAlert(&alert.CreateAlertRequest{
					Type:      meta.AlertTypeError,
					Severity:  meta.AlertSeverityHigh,
					Category:  meta.AlertCategoryJob,
					Title:     fmt.Sprintf("调度任务 %s 处理函数异常", reg.name),
					Message:   fmt.Sprintf("panic: %v", r),
					RelatedID: reg.jobID,
				})
			}
		}
	}()

	reg.handler(reg.jobID)
}

// WaitForDispatch 等待所有已派发的处理函数返回，供测试和优雅关闭使用
func (s *Scheduler) WaitForDispatch() {
	s.dispatch.Wait()
}

// snapshot 生成注册项的只读快照
func (r *registration) snapshot() *ScheduledJob {
	return &ScheduledJob{
		JobID:       r.jobID,
		Name:        r.name,
		Schedule:    r.schedule,
		NextFireAt:  r.nextFireAt,
		LastFiredAt: r.lastFiredAt,
		FireCount:   r.fireCount,
		CreatedAt:   r.createdAt,
	}
}
