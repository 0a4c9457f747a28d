package session

import (
	"sort"
	"sync"
	"time"
)

// ManualScheduler 测试用帧调度器：Fire 执行当前挂起的帧回调
type ManualScheduler struct {
	mu      sync.Mutex
	next    FrameID
	pending map[FrameID]func()
}

func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{pending: make(map[FrameID]func())}
}

func (s *ManualScheduler) RequestFrame(fn func()) FrameID {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	s.pending[s.next] = fn
	return s.next
}

func (s *ManualScheduler) CancelFrame(id FrameID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, id)
}

// Pending 挂起的帧数
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Fire 按请求顺序执行当前挂起的回调；回调内新请求的帧留到下一次
func (s *ManualScheduler) Fire() int {
	s.mu.Lock()
	ids := make([]FrameID, 0, len(s.pending))
	for id := range s.pending {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	fns := make([]func(), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.pending[id])
		delete(s.pending, id)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
	return len(fns)
}

type manualTimer struct {
	every time.Duration
	due   time.Duration
	fn    func()
}

// ManualTimers 测试用定时器，由 Advance 推进虚拟时间
type ManualTimers struct {
	mu     sync.Mutex
	now    time.Duration
	next   TimerID
	timers map[TimerID]*manualTimer
}

func NewManualTimers() *ManualTimers {
	return &ManualTimers{timers: make(map[TimerID]*manualTimer)}
}

func (m *ManualTimers) Every(d time.Duration, fn func()) TimerID {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	m.timers[m.next] = &manualTimer{every: d, due: m.now + d, fn: fn}
	return m.next
}

func (m *ManualTimers) Cancel(id TimerID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.timers, id)
}

// Live 仍在运行的定时器数量
func (m *ManualTimers) Live() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.timers)
}

// Advance 推进虚拟时间，依次触发到期的定时器
func (m *ManualTimers) Advance(d time.Duration) {
	m.mu.Lock()
	end := m.now + d
	m.mu.Unlock()

	for {
		m.mu.Lock()
		var (
			id  TimerID
			due time.Duration
			fn  func()
		)
		for tid, t := range m.timers {
			if t.due > end || t.every <= 0 {
				continue
			}
			if fn == nil || t.due < due || (t.due == due && tid < id) {
				id, due, fn = tid, t.due, t.fn
			}
		}
		if fn == nil {
			m.now = end
			m.mu.Unlock()
			return
		}
		m.now = due
		m.timers[id].due += m.timers[id].every
		m.mu.Unlock()
		fn()
	}
}

// MockTimeProvider 可控时间源
type MockTimeProvider struct {
	mu  sync.RWMutex
	now time.Time
}

func NewMockTimeProvider(start time.Time) *MockTimeProvider {
	return &MockTimeProvider{now: start}
}

func (m *MockTimeProvider) Now() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.now
}

func (m *MockTimeProvider) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}

func (m *MockTimeProvider) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = t
}
