package session

import (
	"slices"
	"time"
)

// FrameLoop 由宿主按真实时间驱动的 Scheduler 与 Timers；只在宿主的循环 goroutine 上使用
type FrameLoop struct {
	nextID uint64
	frames map[FrameID]func()
	timers map[TimerID]*loopTimer
	now    func() time.Time
}

type loopTimer struct {
	every time.Duration
	next  time.Time
	fn    func()
}

func NewFrameLoop(now func() time.Time) *FrameLoop {
	if now == nil {
		now = time.Now
	}
	return &FrameLoop{
		frames: make(map[FrameID]func()),
		timers: make(map[TimerID]*loopTimer),
		now:    now,
	}
}

func (l *FrameLoop) RequestFrame(fn func()) FrameID {
	l.nextID++
	id := FrameID(l.nextID)
	l.frames[id] = fn
	return id
}

func (l *FrameLoop) CancelFrame(id FrameID) { delete(l.frames, id) }

func (l *FrameLoop) Every(d time.Duration, fn func()) TimerID {
	l.nextID++
	id := TimerID(l.nextID)
	l.timers[id] = &loopTimer{every: d, next: l.now().Add(d), fn: fn}
	return id
}

func (l *FrameLoop) Cancel(id TimerID) { delete(l.timers, id) }

// Live 挂起的帧与存活的定时器数量
func (l *FrameLoop) Live() (frames, timers int) { return len(l.frames), len(l.timers) }

// Pump 先触发到期的定时器，再执行挂起的帧回调；回调中新请求的帧留到下一次
func (l *FrameLoop) Pump(now time.Time) int {
	for _, id := range sortedKeys(l.timers) {
		t, ok := l.timers[id]
		for ok && !t.next.After(now) {
			t.next = t.next.Add(t.every)
			t.fn()
			// 回调可能取消自身
			t, ok = l.timers[id]
		}
	}

	ids := sortedKeys(l.frames)
	fns := make([]func(), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, l.frames[id])
		delete(l.frames, id)
	}
	for _, fn := range fns {
		fn()
	}
	return len(fns)
}

func sortedKeys[K ~uint64, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
