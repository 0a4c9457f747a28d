package sim

import "time"

// Cooldowns 技能 -> 可用时刻（会话活动时钟）
type Cooldowns map[AbilityID]time.Duration

// Ready 时刻已到即可释放
func (c Cooldowns) Ready(id AbilityID, now time.Duration) bool {
	return now >= c[id]
}

// Remaining 剩余冷却，已到期时为 0
func (c Cooldowns) Remaining(id AbilityID, now time.Duration) time.Duration {
	left := c[id] - now
	if left < 0 {
		return 0
	}
	return left
}

// Fraction 剩余冷却占总冷却的比例 [0,1]，用于渲染扇形
func (c Cooldowns) Fraction(a Ability, now time.Duration) float64 {
	if a.Cooldown <= 0 {
		return 0
	}
	return float64(c.Remaining(a.ID, now)) / float64(a.Cooldown)
}

func (c Cooldowns) Trigger(a Ability, now time.Duration) {
	c[a.ID] = now + a.Cooldown
}

// Sweep 清理已到期的条目
func (c Cooldowns) Sweep(now time.Duration) {
	for id, at := range c {
		if now >= at {
			delete(c, id)
		}
	}
}

func (c Cooldowns) Clone() Cooldowns {
	out := make(Cooldowns, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}
