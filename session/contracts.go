package session

import (
	"context"
	"time"
)

// FrameID 宿主返回的帧请求标识，0 表示无
type FrameID uint64

// Scheduler 宿主的逐帧回调（浏览器的 requestAnimationFrame、ebiten 的 Update、服务端的 ticker）
type Scheduler interface {
	RequestFrame(fn func()) FrameID
	CancelFrame(id FrameID)
}

// TimerID 周期定时器标识，0 表示无
type TimerID uint64

// Timers 周期定时器；回调与帧回调在同一个 goroutine 上执行
type Timers interface {
	Every(d time.Duration, fn func()) TimerID
	Cancel(id TimerID)
}

type TimeProvider interface {
	Now() time.Time
}

// Immersive 全屏 / 横屏等沉浸模式，失败只记录日志
type Immersive interface {
	Enter() error
	Exit() error
}

// Store 会话结果存储；每局完成时恰好调用一次，不重试
type Store interface {
	Complete(ctx context.Context, r Result) error
}

// ToneEmitter 倒计时提示音（可选）
type ToneEmitter interface {
	Tone(freq float64, d time.Duration)
}

// SystemTime 真实时钟
type SystemTime struct{}

func (SystemTime) Now() time.Time { return time.Now() }

// NoImmersive 不支持沉浸模式的宿主
type NoImmersive struct{}

func (NoImmersive) Enter() error { return nil }
func (NoImmersive) Exit() error  { return nil }
