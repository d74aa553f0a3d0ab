package metrics

import (
	"sync"
	"sync/atomic"
)

// automationStats holds counters for the reminder engine.
// Kept simple/thread-safe for use from the engine and exposition.
type automationStats struct {
	runs             uint64
	runFailures      uint64
	tasksCreated     uint64
	dedupSkips       uint64
	dispatchFailures uint64

	mu             sync.Mutex
	byDomain       map[string]*domainCounters
	dispatchByKind map[string]uint64
}

type domainCounters struct {
	Runs         uint64 `json:"runs"`
	RunFailures  uint64 `json:"run_failures"`
	TasksCreated uint64 `json:"tasks_created"`
	DedupSkips   uint64 `json:"dedup_skips"`
}

var auto automationStats

func (s *automationStats) domain(name string) *domainCounters {
	if s.byDomain == nil {
		s.byDomain = make(map[string]*domainCounters)
	}
	d, ok := s.byDomain[name]
	if !ok {
		d = &domainCounters{}
		s.byDomain[name] = d
	}
	return d
}

// IncRun 记录一次完成的引擎运行
func IncRun(domain string) {
	atomic.AddUint64(&auto.runs, 1)
	auto.mu.Lock()
	auto.domain(domain).Runs++
	auto.mu.Unlock()
}

// IncRunFailure 记录一次因资产失败而跳过的运行
func IncRunFailure(domain string) {
	atomic.AddUint64(&auto.runFailures, 1)
	auto.mu.Lock()
	auto.domain(domain).RunFailures++
	auto.mu.Unlock()
}

// IncTaskCreated 记录一条新建任务
func IncTaskCreated(domain string) {
	atomic.AddUint64(&auto.tasksCreated, 1)
	auto.mu.Lock()
	auto.domain(domain).TasksCreated++
	auto.mu.Unlock()
}

// IncDedupSkip 记录一次去重命中
func IncDedupSkip(domain string) {
	atomic.AddUint64(&auto.dedupSkips, 1)
	auto.mu.Lock()
	auto.domain(domain).DedupSkips++
	auto.mu.Unlock()
}

// IncDispatchFailure 记录一次投递失败（email/sms）
func IncDispatchFailure(kind string) {
	atomic.AddUint64(&auto.dispatchFailures, 1)
	auto.mu.Lock()
	if auto.dispatchByKind == nil {
		auto.dispatchByKind = make(map[string]uint64)
	}
	auto.dispatchByKind[kind]++
	auto.mu.Unlock()
}

// Snapshot 返回当前计数器的副本
func Snapshot() map[string]interface{} {
	auto.mu.Lock()
	byDomain := make(map[string]domainCounters, len(auto.byDomain))
	for k, v := range auto.byDomain {
		byDomain[k] = *v
	}
	byKind := make(map[string]uint64, len(auto.dispatchByKind))
	for k, v := range auto.dispatchByKind {
		byKind[k] = v
	}
	auto.mu.Unlock()

	return map[string]interface{}{
		"runs":              atomic.LoadUint64(&auto.runs),
		"run_failures":      atomic.LoadUint64(&auto.runFailures),
		"tasks_created":     atomic.LoadUint64(&auto.tasksCreated),
		"dedup_skips":       atomic.LoadUint64(&auto.dedupSkips),
		"dispatch_failures": atomic.LoadUint64(&auto.dispatchFailures),
		"dispatch_by_kind":  byKind,
		"by_domain":         byDomain,
	}
}
