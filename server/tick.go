package server

import (
	"context"
	"time"
)

// DefaultFPS 每个连接的帧循环频率
const DefaultFPS = 60

func frameInterval(fps int) time.Duration {
	if fps <= 0 {
		fps = DefaultFPS
	}
	return time.Second / time.Duration(fps)
}

// Run 阻塞直到 ctx 结束；退出时停止会话（未完成的局不上报）
func (r *Runner) Run(ctx context.Context) {
	defer close(r.done)
	r.ctx = ctx
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	r.flush()
	for {
		select {
		case <-ctx.Done():
			_ = r.ctrl.Stop()
			r.log.Debugw("runner stopped")
			return
		case now := <-ticker.C:
			r.Loop(now)
		}
	}
}

// Loop 一次帧循环：处理输入 → 推进帧与定时器 → 推送显示列表
func (r *Runner) Loop(now time.Time) {
	start := time.Now()
	r.ProcessInputs()
	frames := r.loop.Pump(now)
	r.flush()
	r.metrics.AddLoop(frames, time.Since(start).Nanoseconds())
}
