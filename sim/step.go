package sim

import (
	"fmt"
	"math"
	"time"

	"skilltrainer/geom"
)

// Step 推进一帧。elapsed 为会话活动时长（已扣除暂停）。
// 顺序固定，测试依赖这一顺序：
// 时长检查 → 生存等级 → 生成 → 积分移动 → 持续效果 → 玩家移动 → 施法 → 碰撞 → 射程过期 → 失败上限
func (w *World) Step(elapsed time.Duration, in Intent) {
	if w.Over {
		return
	}
	if elapsed < w.Elapsed {
		elapsed = w.Elapsed
	}

	if !w.Preset.Survival() && elapsed >= w.Preset.Duration {
		w.Elapsed = w.Preset.Duration
		w.creditSurvivors()
		w.finish(ReasonTimeUp)
		w.Entities.Compact()
		return
	}
	w.Elapsed = elapsed
	w.Frame++

	w.Level = w.levelAt(elapsed)
	interval, speed, limit := w.scaled()

	w.spawn(elapsed, interval, speed, limit)
	w.integrate()

	w.decayEffects()
	w.updateCreeps(elapsed)
	w.expireTargets(elapsed)
	w.Cooldowns.Sweep(elapsed)

	w.movePlayer(in.Move)

	if in.Designate != nil {
		w.designate(*in.Designate)
	}
	for _, c := range in.Casts {
		w.cast(c, elapsed)
	}

	w.collide()
	if !w.Over {
		w.expireShots()
	}
	if !w.Over && w.Preset.MaxFailures > 0 && w.Stats.Failures(w.Mode) >= w.Preset.MaxFailures {
		w.finish(ReasonOutOfLives)
	}
	w.Entities.Compact()
}

// levelAt 生存模式等级 = floor(elapsed / window) + 1
func (w *World) levelAt(elapsed time.Duration) int {
	if !w.Preset.Survival() || w.Preset.LevelWindow <= 0 {
		return 1
	}
	return int(elapsed/w.Preset.LevelWindow) + 1
}

// scaled 按等级换算生成间隔、速度和数量上限
func (w *World) scaled() (time.Duration, float64, int) {
	p := w.Preset
	k := w.Level - 1
	interval := p.SpawnInterval
	speed := p.Speed
	limit := p.MaxEntities
	if k > 0 {
		interval = time.Duration(float64(p.SpawnInterval) * math.Pow(1-p.IntervalStep, float64(k)))
		if interval < p.MinSpawnInterval {
			interval = p.MinSpawnInterval
		}
		speed = p.Speed * (1 + p.SpeedStep*float64(k))
		limit = p.MaxEntities + p.CapStep*k
	}
	return interval, speed, limit
}

// spawned 由生成器产生、受上限约束的实体
func (w *World) spawned(e *Entity) bool {
	switch b := e.Body.(type) {
	case *Projectile:
		return b.Hostile
	case *Target, *Creep:
		return true
	default:
		return false
	}
}

func (w *World) spawnBounds() geom.Rect {
	if w.Mode == ModeSkillshot {
		return w.Play
	}
	return w.Bounds
}

func (w *World) spawn(elapsed, interval time.Duration, speed float64, limit int) {
	if elapsed-w.lastSpawn < interval {
		return
	}
	if w.Mode == ModeLastHit {
		// 兵线排满后不再出兵，避免停靠点排到画布外
		limit = min(limit, w.laneSlots())
	}
	live := w.Entities.Count(w.spawned)
	room := limit - live
	if room <= 0 || len(w.Preset.Patterns) == 0 {
		return
	}
	name := w.Preset.Patterns[w.rng.IntN(len(w.Preset.Patterns))]
	pattern, ok := LookupPattern(name)
	if !ok {
		return
	}
	launches := pattern(PatternInput{
		Bounds: w.spawnBounds(),
		Player: w.Player.Pos,
		Speed:  speed,
		Rand:   w.rng,
	})
	if len(launches) > room {
		launches = launches[:room]
	}
	creeps := 0
	if w.Mode == ModeLastHit {
		creeps = w.Entities.Count(func(e *Entity) bool { return e.Kind() == KindCreep })
	}
	p := w.Preset
	for _, l := range launches {
		var body Body
		switch w.Mode {
		case ModeDodge:
			body = &Projectile{Hostile: true, Origin: l.Pos, Speed: speed}
		case ModeSkillshot:
			body = &Target{Lifetime: p.TargetLifetime}
		case ModeLastHit:
			body = &Creep{
				Health:    p.CreepHealth,
				MaxHealth: p.CreepHealth,
				StopX:     w.laneStop(creeps + l.Slot),
				Gold:      p.CreepGold,
			}
		}
		w.add(l.Pos, l.Vel, p.EntityRadius, body)
	}
	w.Stats.Spawned += len(launches)
	w.lastSpawn = elapsed
}

// laneSlots 从兵线前沿到画布左缘能排下的小兵数
func (w *World) laneSlots() int {
	span := LaneFront(w.Bounds) - (w.Bounds.X + w.Preset.EntityRadius)
	return max(int(span/laneSpacing)+1, 1)
}

// laneStop 第 slot 个小兵的停靠点，不越过画布左缘
func (w *World) laneStop(slot int) float64 {
	x := LaneFront(w.Bounds) - float64(slot)*laneSpacing
	return math.Max(x, w.Bounds.X+w.Preset.EntityRadius)
}

func (w *World) integrate() {
	outer := w.Bounds.Inset(-OutOfBoundsMargin)
	w.Entities.Each(func(e *Entity) {
		e.Pos = e.Pos.Add(e.Vel)
		switch b := e.Body.(type) {
		case *Target:
			if (e.Pos.X-e.Radius < w.Play.X && e.Vel.X < 0) || (e.Pos.X+e.Radius > w.Play.Right() && e.Vel.X > 0) {
				e.Vel.X = -e.Vel.X
			}
		case *Creep:
			if !b.Stopped && e.Pos.X >= b.StopX {
				e.Pos.X = b.StopX
				e.Vel = geom.Vec2{}
				b.Stopped = true
			}
		case *Projectile:
			if outer.Contains(e.Pos) || !w.Entities.Remove(e.ID) {
				return
			}
			if b.Hostile {
				w.dodged()
			} else if !b.Homing() {
				w.missed(e.Pos)
			}
		case *AreaBlast:
			if !outer.Contains(e.Pos) && w.Entities.Remove(e.ID) {
				w.missed(e.Pos)
			}
		}
	})
}

func (w *World) decayEffects() {
	kept := w.Effects[:0]
	for _, fx := range w.Effects {
		fx.Life--
		if fx.Life <= 0 {
			continue
		}
		fx.Pos = fx.Pos.Add(fx.Vel)
		kept = append(kept, fx)
	}
	w.Effects = kept
}

// updateCreeps 小兵持续掉血、防御塔攻击最近的停止小兵；非玩家击杀记为漏刀
func (w *World) updateCreeps(elapsed time.Duration) {
	if w.Mode != ModeLastHit {
		return
	}
	p := w.Preset
	w.Entities.Each(func(e *Entity) {
		if c, ok := e.Body.(*Creep); ok && c.Stopped {
			c.Health -= p.CreepDecay
		}
	})

	if p.AIAttackInterval > 0 && elapsed-w.lastStrike >= p.AIAttackInterval {
		tower := TowerPos(w.Bounds)
		var target *Entity
		best := math.Inf(1)
		w.Entities.Each(func(e *Entity) {
			c, ok := e.Body.(*Creep)
			if !ok || !c.Stopped {
				return
			}
			if d := e.Pos.Dist(tower); d < best {
				best, target = d, e
			}
		})
		if target != nil {
			target.Body.(*Creep).Health -= p.AIDamage
			w.addBurst(target.Pos, 4, ToneDanger)
			w.lastStrike = elapsed
		}
	}

	w.Entities.Each(func(e *Entity) {
		c, ok := e.Body.(*Creep)
		if !ok || c.Health > 0 {
			return
		}
		if w.Entities.Remove(e.ID) {
			w.Stats.Denied++
			w.Stats.comboReset()
			w.addText(e.Pos, "missed", ToneMiss)
			if w.Designated == e.ID {
				w.Designated = 0
			}
		}
	})
}

func (w *World) expireTargets(elapsed time.Duration) {
	w.Entities.Each(func(e *Entity) {
		t, ok := e.Body.(*Target)
		if !ok || t.Lifetime <= 0 || elapsed-e.SpawnedAt < t.Lifetime {
			return
		}
		if w.Entities.Remove(e.ID) {
			w.Stats.Expired++
			w.Stats.comboReset()
			w.addBurst(e.Pos, 4, ToneMiss)
		}
	})
}

func (w *World) movePlayer(move geom.Vec2) {
	move = move.ClampLen(1)
	w.Player.Pos = w.Play.Clamp(w.Player.Pos.Add(move.Scale(w.Player.Speed)))
}

// designate 点选最近的小兵作为优先目标；未选中则清除
func (w *World) designate(at geom.Vec2) {
	w.Designated = 0
	best := math.Inf(1)
	w.Entities.Each(func(e *Entity) {
		if e.Kind() != KindCreep {
			return
		}
		d := e.Pos.Dist(at)
		if d <= e.Radius+DesignateSlop && d < best {
			best = d
			w.Designated = e.ID
		}
	})
}

// cast 施法动画总会出现；伤害与范围效果严格受冷却限制
func (w *World) cast(c Cast, now time.Duration) {
	a, ok := w.Player.Ability(c.Ability)
	if !ok {
		return
	}
	from := w.Player.Pos
	w.addRing(from, w.Player.Radius+6, ToneCast)
	if !w.Cooldowns.Ready(a.ID, now) {
		return
	}

	switch a.Shape {
	case ShapeLine:
		w.add(from, geom.FromAngle(c.Angle, a.Speed), a.Radius, &Projectile{
			Ability: a.ID, Origin: from, MaxRange: a.Range, Damage: a.Damage, Speed: a.Speed,
		})
	case ShapeArea:
		frac := c.Distance
		if frac <= 0 || frac > 1 {
			frac = 1
		}
		dest := w.Bounds.Clamp(from.Add(geom.FromAngle(c.Angle, a.Range*frac)))
		vel := dest.Sub(from).Normalize().Scale(a.Speed)
		w.add(from, vel, 8, &AreaBlast{
			Ability: a.ID, Origin: from, Dest: dest, BlastRadius: a.Radius, Damage: a.Damage,
		})
	case ShapeBlink:
		w.Player.Pos = w.Play.Clamp(from.Add(geom.FromAngle(c.Angle, a.Range)))
		w.addBurst(from, 6, ToneCast)
	case ShapeTargeted:
		id := w.pickTarget(a.Range)
		if id == 0 {
			return
		}
		tgt, _ := w.Entities.Get(id)
		w.add(from, tgt.Pos.Sub(from).Normalize().Scale(a.Speed), a.Radius, &Projectile{
			Ability: a.ID, Origin: from, MaxRange: a.Range, Damage: a.Damage, Speed: a.Speed, Target: id,
		})
	default:
		return
	}
	w.Cooldowns.Trigger(a, now)
	w.Stats.Casts++
}

// pickTarget 优先玩家点选的目标（仍存活且在射程内），否则取水平距离最近的小兵
func (w *World) pickTarget(reach float64) EntityID {
	me := w.Player.Pos
	if w.Designated != 0 {
		if e, ok := w.Entities.Get(w.Designated); ok && e.Pos.Dist(me) <= reach {
			return e.ID
		}
		if _, ok := w.Entities.Get(w.Designated); !ok {
			w.Designated = 0
		}
	}
	var id EntityID
	best := math.Inf(1)
	w.Entities.Each(func(e *Entity) {
		if e.Kind() != KindCreep || e.Pos.Dist(me) > reach {
			return
		}
		if dx := math.Abs(e.Pos.X - me.X); dx < best {
			best, id = dx, e.ID
		}
	})
	return id
}

func victim(e *Entity) bool {
	k := e.Kind()
	return k == KindTarget || k == KindCreep
}

func (w *World) collide() {
	w.Entities.Each(func(e *Entity) {
		if w.Over {
			return
		}
		switch b := e.Body.(type) {
		case *Projectile:
			switch {
			case b.Hostile:
				w.collideHostile(e)
			case b.Homing():
				w.steerHoming(e, b)
			default:
				w.collideLine(e, b)
			}
		case *AreaBlast:
			w.detonate(e, b)
		case *Target, *Creep:
		}
	})
}

func (w *World) collideHostile(e *Entity) {
	if e.Pos.Dist(w.Player.Pos) > e.Radius+w.Player.Radius {
		return
	}
	if !w.Entities.Remove(e.ID) {
		return
	}
	w.Stats.HitsTaken++
	w.Stats.comboReset()
	w.addBurst(w.Player.Pos, 10, ToneDanger)
	if w.Mode == ModeDodge {
		w.finish(ReasonPlayerHit)
	}
}

// steerHoming 追踪弹道：目标已消失则静默消散
func (w *World) steerHoming(e *Entity, b *Projectile) {
	tgt, ok := w.Entities.Get(b.Target)
	if !ok {
		w.Entities.Remove(e.ID)
		return
	}
	to := tgt.Pos.Sub(e.Pos)
	if to.Len() > b.Speed+tgt.Radius {
		e.Vel = to.Normalize().Scale(b.Speed)
		return
	}
	if w.Entities.Remove(e.ID) {
		w.strike(tgt, b.Damage)
	}
}

func (w *World) collideLine(e *Entity, b *Projectile) {
	var hit *Entity
	w.Entities.Each(func(t *Entity) {
		if hit != nil || !victim(t) {
			return
		}
		if t.Pos.Dist(e.Pos) <= t.Radius+e.Radius {
			hit = t
		}
	})
	if hit == nil {
		return
	}
	if w.Entities.Remove(e.ID) {
		w.strike(hit, b.Damage)
	}
}

// detonate 范围技能到达落点前不结算
func (w *World) detonate(e *Entity, b *AreaBlast) {
	if !b.Arrived(e.Pos) {
		return
	}
	if !w.Entities.Remove(e.ID) {
		return
	}
	e.Pos = b.Dest
	w.addRing(b.Dest, b.BlastRadius, ToneHit)
	n := 0
	w.Entities.Each(func(t *Entity) {
		if !victim(t) || t.Pos.Dist(b.Dest) > b.BlastRadius+t.Radius {
			return
		}
		w.strike(t, b.Damage)
		n++
	})
	if n == 0 {
		w.missed(b.Dest)
	}
}

// strike 对靶子或小兵结算一次伤害
func (w *World) strike(t *Entity, dmg float64) {
	switch b := t.Body.(type) {
	case *Target:
		if !w.Entities.Remove(t.ID) {
			return
		}
		gain := w.Preset.HitScore + w.Preset.ComboBonus*w.Stats.ComboCurrent
		w.Stats.Hits++
		w.Stats.Score += gain
		w.Stats.comboUp()
		w.addBurst(t.Pos, 8, ToneHit)
		w.addText(t.Pos, fmt.Sprintf("+%d", gain), ToneHit)
	case *Creep:
		b.Health -= dmg
		if b.Health > 0 {
			w.addBurst(t.Pos, 3, ToneNeutral)
			return
		}
		if !w.Entities.Remove(t.ID) {
			return
		}
		w.Stats.LastHits++
		w.Stats.Gold += b.Gold
		w.Stats.Score += w.Preset.HitScore + w.Preset.ComboBonus*w.Stats.ComboCurrent
		w.Stats.comboUp()
		if b.Health > -w.Preset.PerfectWindow {
			w.Stats.Perfect++
			w.Stats.Score += w.Preset.PerfectBonus
			w.addText(t.Pos.Add(geom.V(0, -16)), "perfect!", TonePerfect)
		}
		w.addText(t.Pos, fmt.Sprintf("+%dg", b.Gold), ToneGold)
		w.addBurst(t.Pos, 6, ToneGold)
		if w.Designated == t.ID {
			w.Designated = 0
		}
	}
}

// expireShots 飞完射程仍未命中的直线弹道记为未命中
func (w *World) expireShots() {
	w.Entities.Each(func(e *Entity) {
		b, ok := e.Body.(*Projectile)
		if !ok || b.Hostile || b.Homing() || b.MaxRange <= 0 {
			return
		}
		if e.Pos.Dist(b.Origin) >= b.MaxRange && w.Entities.Remove(e.ID) {
			w.missed(e.Pos)
		}
	})
}

func (w *World) missed(at geom.Vec2) {
	w.Stats.Misses++
	w.Stats.comboReset()
	w.addText(at, "miss", ToneMiss)
}

func (w *World) dodged() {
	w.Stats.Dodges++
	w.Stats.Score += w.Preset.HitScore
	w.Stats.comboUp()
}

// creditSurvivors 时间到时仍在场上、未击中玩家的敌方弹道计为成功躲避
func (w *World) creditSurvivors() {
	if w.Mode != ModeDodge {
		return
	}
	w.Entities.Each(func(e *Entity) {
		if b, ok := e.Body.(*Projectile); ok && b.Hostile && w.Entities.Remove(e.ID) {
			w.dodged()
		}
	})
}
