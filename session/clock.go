package session

import "time"

// Clock 可暂停的会话时钟：活动时长 = 当前 - 开始 - 累计暂停，暂停期间冻结
type Clock struct {
	tp      TimeProvider
	start   time.Time
	paused  time.Duration
	pauseAt time.Time
	pausing bool
}

func NewClock(tp TimeProvider) *Clock {
	if tp == nil {
		tp = SystemTime{}
	}
	return &Clock{tp: tp}
}

// Start 重置并从现在开始计时
func (c *Clock) Start() {
	c.start = c.tp.Now()
	c.paused = 0
	c.pauseAt = time.Time{}
	c.pausing = false
}

func (c *Clock) Pause() {
	if c.pausing {
		return
	}
	c.pausing = true
	c.pauseAt = c.tp.Now()
}

// Resume 把本次暂停时长并入累计，只计一次
func (c *Clock) Resume() {
	if !c.pausing {
		return
	}
	c.paused += c.tp.Now().Sub(c.pauseAt)
	c.pausing = false
	c.pauseAt = time.Time{}
}

func (c *Clock) Paused() bool { return c.pausing }

// TotalPaused 累计暂停时长（含正在进行的暂停）
func (c *Clock) TotalPaused() time.Duration {
	total := c.paused
	if c.pausing {
		total += c.tp.Now().Sub(c.pauseAt)
	}
	return total
}

func (c *Clock) Elapsed() time.Duration {
	now := c.tp.Now()
	if c.pausing {
		now = c.pauseAt
	}
	d := now.Sub(c.start) - c.paused
	if d < 0 {
		return 0
	}
	return d
}
