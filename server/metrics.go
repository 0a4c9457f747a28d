package server

import (
	"sync/atomic"
)

// Metrics 所有会话共享的运行指标（用于监控与调试）
type Metrics struct {
	Loops             int64 // 帧循环次数
	Frames            int64 // 执行的帧回调数
	FramesSent        int64 // 推送的显示列表数
	SendDropped       int64 // 因发送队列满被丢弃的消息数
	InputsAccepted    int64 // 被接受的输入数
	InputsRejected    int64 // 非进行中或解码失败的输入数
	RateLimited       int64 // 因同帧限流被拒绝的输入数
	OldSeqIgnored     int64 // 因旧序列被忽略的输入数
	ChanFullDiscarded int64 // 因通道满被丢弃的输入数
	SessionsStarted   int64
	SessionsFinished  int64
	TotalLoopNs       int64 // 帧循环累计耗时（纳秒）
}

func (m *Metrics) IncAccepted()          { atomic.AddInt64(&m.InputsAccepted, 1) }
func (m *Metrics) IncRejected()          { atomic.AddInt64(&m.InputsRejected, 1) }
func (m *Metrics) IncRateLimited()       { atomic.AddInt64(&m.RateLimited, 1) }
func (m *Metrics) IncOldSeqIgnored()     { atomic.AddInt64(&m.OldSeqIgnored, 1) }
func (m *Metrics) IncChanFullDiscarded() { atomic.AddInt64(&m.ChanFullDiscarded, 1) }
func (m *Metrics) IncSent()              { atomic.AddInt64(&m.FramesSent, 1) }
func (m *Metrics) IncSendDropped()       { atomic.AddInt64(&m.SendDropped, 1) }
func (m *Metrics) IncStarted()           { atomic.AddInt64(&m.SessionsStarted, 1) }
func (m *Metrics) IncFinished()          { atomic.AddInt64(&m.SessionsFinished, 1) }
func (m *Metrics) AddLoop(frames int, ns int64) {
	atomic.AddInt64(&m.Loops, 1)
	atomic.AddInt64(&m.Frames, int64(frames))
	atomic.AddInt64(&m.TotalLoopNs, ns)
}

// Snapshot 返回只读副本，便于 HTTP 输出
func (m *Metrics) Snapshot() map[string]any {
	loops := atomic.LoadInt64(&m.Loops)
	total := atomic.LoadInt64(&m.TotalLoopNs)
	var avgMs float64
	if loops > 0 {
		avgMs = float64(total) / float64(loops) / 1e6
	}
	return map[string]any{
		"loops":               loops,
		"frames":              atomic.LoadInt64(&m.Frames),
		"frames_sent":         atomic.LoadInt64(&m.FramesSent),
		"send_dropped":        atomic.LoadInt64(&m.SendDropped),
		"inputs_accepted":     atomic.LoadInt64(&m.InputsAccepted),
		"inputs_rejected":     atomic.LoadInt64(&m.InputsRejected),
		"rate_limited":        atomic.LoadInt64(&m.RateLimited),
		"old_seq_ignored":     atomic.LoadInt64(&m.OldSeqIgnored),
		"chan_full_discarded": atomic.LoadInt64(&m.ChanFullDiscarded),
		"sessions_started":    atomic.LoadInt64(&m.SessionsStarted),
		"sessions_finished":   atomic.LoadInt64(&m.SessionsFinished),
		"avg_loop_ms":         avgMs,
	}
}
