package render

import (
	"fmt"
	"image/color"
	"math"
	"time"

	"skilltrainer/geom"
	"skilltrainer/input"
	"skilltrainer/sim"
)

// Overlay 阶段遮罩
type Overlay uint8

const (
	OverlayNone Overlay = iota
	OverlayIdle
	OverlayPaused
	OverlayGameOver
)

// View 一帧绘制所需的只读输入。World 与 Controls 可以为空（空闲阶段）
type View struct {
	World      *sim.World
	Controls   *input.Mapper
	Overlay    Overlay
	FinalScore int
}

// Renderer 只读取 View，不修改任何状态；同一 View 重复绘制结果相同
type Renderer struct {
	Theme Theme
}

func New(theme Theme) *Renderer { return &Renderer{Theme: theme} }

const (
	hudText   = 16.0
	smallText = 12.0
	bigText   = 32.0
)

func (r *Renderer) Draw(c Canvas, v View) {
	t := r.Theme
	c.Clear(t.Background)

	w := v.World
	if w != nil {
		r.drawGuides(c, w)
		w.Entities.Each(func(e *sim.Entity) { r.drawEntity(c, w, e) })
		c.FillCircle(w.Player.Pos, w.Player.Radius, t.Player)
		if v.Controls != nil {
			r.drawAim(c, w, v.Controls)
		}
		r.drawEffects(c, w.Effects)
		r.drawHUD(c, w)
	}
	if v.Controls != nil {
		r.drawControls(c, w, v.Controls)
	}
	r.drawOverlay(c, v)
}

func (r *Renderer) drawGuides(c Canvas, w *sim.World) {
	t := r.Theme
	c.StrokeRect(w.Play, 1, t.Guide)
	if w.Mode != sim.ModeLastHit {
		return
	}
	y := sim.LaneY(w.Bounds)
	c.Line(geom.V(w.Bounds.X, y), geom.V(w.Bounds.Right(), y), 2, t.Guide)
	tower := sim.TowerPos(w.Bounds)
	c.FillRect(geom.R(tower.X-14, tower.Y-22, 28, 44), t.Tower)
}

func (r *Renderer) drawEntity(c Canvas, w *sim.World, e *sim.Entity) {
	t := r.Theme
	switch b := e.Body.(type) {
	case *sim.Target:
		c.FillCircle(e.Pos, e.Radius, t.Target)
		if b.Lifetime > 0 {
			left := 1 - float64(w.Elapsed-e.SpawnedAt)/float64(b.Lifetime)
			c.FillSector(e.Pos, e.Radius*0.5, -math.Pi/2, 2*math.Pi*geom.Clamp(left, 0, 1), t.Background)
		}
	case *sim.Projectile:
		if b.Hostile {
			c.FillCircle(e.Pos, e.Radius, t.Hostile)
			return
		}
		c.FillCircle(e.Pos, e.Radius, t.Shot)
	case *sim.AreaBlast:
		c.StrokeCircle(b.Dest, b.BlastRadius, 1, t.Area)
		c.FillCircle(e.Pos, e.Radius, t.Area)
	case *sim.Creep:
		c.FillCircle(e.Pos, e.Radius, t.Creep)
		r.drawHealth(c, e, b)
		if w.Designated == e.ID {
			c.StrokeCircle(e.Pos, e.Radius+5, 2, t.Designated)
		}
	}
}

func (r *Renderer) drawHealth(c Canvas, e *sim.Entity, b *sim.Creep) {
	t := r.Theme
	bar := geom.R(e.Pos.X-e.Radius, e.Pos.Y-e.Radius-8, 2*e.Radius, 4)
	c.FillRect(bar, t.HealthBack)
	frac := 0.0
	if b.MaxHealth > 0 {
		frac = geom.Clamp(b.Health/b.MaxHealth, 0, 1)
	}
	bar.W *= frac
	c.FillRect(bar, t.Health)
}

// drawAim 拖动中的按钮显示施法预览
func (r *Renderer) drawAim(c Canvas, w *sim.World, m *input.Mapper) {
	t := r.Theme
	from := w.Player.Pos
	for _, btn := range m.Buttons {
		if !btn.Aiming() {
			continue
		}
		a, ok := w.Player.Ability(btn.Ability)
		if !ok {
			continue
		}
		switch a.Shape {
		case sim.ShapeLine:
			c.Line(from, from.Add(geom.FromAngle(btn.Angle(), a.Range)), a.Radius*2, t.Aim)
		case sim.ShapeArea:
			dest := w.Bounds.Clamp(from.Add(geom.FromAngle(btn.Angle(), a.Range*btn.Distance())))
			c.StrokeCircle(from, a.Range, 1, t.Aim)
			c.FillCircle(dest, a.Radius, t.Aim)
		case sim.ShapeBlink:
			c.StrokeCircle(w.Play.Clamp(from.Add(geom.FromAngle(btn.Angle(), a.Range))), w.Player.Radius, 2, t.Aim)
		case sim.ShapeTargeted:
			c.StrokeCircle(from, a.Range, 1, t.Aim)
		}
	}
}

func (r *Renderer) drawEffects(c Canvas, effects []sim.Effect) {
	t := r.Theme
	for _, fx := range effects {
		col := fade(t.Tone(fx.Tone), fx.Alpha())
		switch fx.Kind {
		case sim.EffectSpark:
			c.FillCircle(fx.Pos, math.Max(fx.Radius*fx.Alpha(), 0.5), col)
		case sim.EffectText:
			c.Text(fx.Pos, fx.Text, hudText, col)
		case sim.EffectRing:
			c.StrokeCircle(fx.Pos, fx.Radius+(1-fx.Alpha())*12, 2, col)
		}
	}
}

func (r *Renderer) drawHUD(c Canvas, w *sim.World) {
	t := r.Theme
	width, _ := c.Size()
	left, right := HUDLines(w)
	c.Text(geom.V(w.Bounds.X+sim.SideGutter, w.Bounds.Y+20), left, hudText, t.Text)
	c.Text(geom.V(width-sim.SideGutter-float64(len(right))*hudText*0.55, w.Bounds.Y+20), right, hudText, t.Text)
	if w.Stats.ComboCurrent >= 2 {
		c.Text(geom.V(w.Bounds.X+sim.SideGutter, w.Bounds.Y+40), fmt.Sprintf("x%d combo", w.Stats.ComboCurrent), smallText, t.Tone(sim.ToneHit))
	}
}

// HUDLines 抬头显示的左（计数）右（计时与分数）两段文字
func HUDLines(w *sim.World) (string, string) {
	s := w.Stats
	var left string
	switch w.Mode {
	case sim.ModeSkillshot:
		left = fmt.Sprintf("Hits %d  Miss %d  Acc %.0f%%", s.Hits, s.Misses, w.Accuracy())
	case sim.ModeDodge:
		left = fmt.Sprintf("Dodged %d  Hit %d", s.Dodges, s.HitsTaken)
	case sim.ModeLastHit:
		left = fmt.Sprintf("CS %d  Gold %d  Perfect %d  Missed %d", s.LastHits, s.Gold, s.Perfect, s.Denied)
	}
	var clock string
	if w.Preset.Survival() {
		clock = fmt.Sprintf("Lv %d  %s", w.Level, clockText(w.Elapsed, false))
	} else {
		clock = clockText(w.Remaining(), true)
	}
	return left, fmt.Sprintf("%s  Score %d", clock, s.Score)
}

// clockText m:ss；倒计时向上取整，避免提前显示 0:00
func clockText(d time.Duration, ceil bool) string {
	secs := int(d / time.Second)
	if ceil && d%time.Second > 0 {
		secs++
	}
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

func (r *Renderer) drawControls(c Canvas, w *sim.World, m *input.Mapper) {
	t := r.Theme
	c.FillCircle(m.Stick.Center, m.Stick.Radius, t.Stick)
	c.FillCircle(m.Stick.Knob(), m.Stick.Radius*0.4, t.Knob)

	for _, btn := range m.Buttons {
		c.FillCircle(btn.Center, btn.Radius, t.Button)
		edge := t.ButtonEdge
		if btn.Aiming() {
			edge = t.Designated
		}
		c.StrokeCircle(btn.Center, btn.Radius, 2, edge)
		c.Text(btn.Center.Add(geom.V(-6, 4)), abilityLabel(btn.Ability), hudText, t.Text)
		if w == nil {
			continue
		}
		a, ok := w.Player.Ability(btn.Ability)
		if !ok {
			continue
		}
		if frac := w.Cooldowns.Fraction(a, w.Elapsed); frac > 0 {
			c.FillSector(btn.Center, btn.Radius, -math.Pi/2, 2*math.Pi*frac, t.Cooldown)
			left := w.Cooldowns.Remaining(a.ID, w.Elapsed)
			c.Text(btn.Center.Add(geom.V(-8, -btn.Radius-6)), fmt.Sprintf("%.1f", left.Seconds()), smallText, t.TextDim)
		}
	}
}

func abilityLabel(id sim.AbilityID) string {
	switch id {
	case sim.AbilityQ:
		return "Q"
	case sim.AbilityW:
		return "W"
	case sim.AbilityFlash:
		return "F"
	case sim.AbilityAttack:
		return "A"
	}
	return string(id)
}

func (r *Renderer) drawOverlay(c Canvas, v View) {
	if v.Overlay == OverlayNone {
		return
	}
	t := r.Theme
	width, height := c.Size()
	mid := geom.V(width/2, height/2)
	c.FillRect(geom.R(0, 0, width, height), t.Scrim)
	switch v.Overlay {
	case OverlayIdle:
		c.Text(mid.Add(geom.V(-80, 0)), "TAP TO START", bigText, t.Text)
	case OverlayPaused:
		c.Text(mid.Add(geom.V(-60, 0)), "PAUSED", bigText, t.Text)
	case OverlayGameOver:
		c.Text(mid.Add(geom.V(-90, -20)), "GAME OVER", bigText, t.Text)
		if v.World != nil {
			c.Text(mid.Add(geom.V(-90, 16)), v.World.Reason.String(), hudText, t.TextDim)
		}
		c.Text(mid.Add(geom.V(-90, 40)), fmt.Sprintf("Final score %d", v.FinalScore), hudText, t.Tone(sim.ToneGold))
	}
}

func fade(c color.RGBA, alpha float64) color.RGBA {
	c.A = uint8(float64(c.A) * geom.Clamp(alpha, 0, 1))
	return c
}
