package input

import (
	"math"

	"skilltrainer/geom"
	"skilltrainer/sim"
)

const (
	// DefaultMinFraction 范围技能施法距离的下限比例
	DefaultMinFraction = 0.3
	// TapSlop 拖动不超过该距离视为点按，沿用上次的方向
	TapSlop = 8.0
)

// AimButton 单个技能的瞄准按钮。方向在松开后保留
type AimButton struct {
	Ability     sim.AbilityID
	Shape       sim.AbilityShape
	Center      geom.Vec2
	Radius      float64
	MaxDrag     float64
	MinFraction float64

	active   bool
	pointer  int
	origin   geom.Vec2
	dragged  bool
	angle    float64
	distance float64
}

func NewAimButton(a sim.Ability, center geom.Vec2, radius float64) *AimButton {
	return &AimButton{
		Ability:     a.ID,
		Shape:       a.Shape,
		Center:      center,
		Radius:      radius,
		MaxDrag:     radius * 2,
		MinFraction: DefaultMinFraction,
		angle:       -math.Pi / 2,
		distance:    1,
	}
}

func (b *AimButton) Contains(p geom.Vec2) bool { return p.Dist(b.Center) <= b.Radius }

func (b *AimButton) Owns(id int) bool { return b.active && b.pointer == id }

// Aiming 正在拖动瞄准
func (b *AimButton) Aiming() bool { return b.active && b.dragged }

func (b *AimButton) Angle() float64 { return b.angle }

// Distance 施法距离比例 [MinFraction, 1]
func (b *AimButton) Distance() float64 { return b.distance }

func (b *AimButton) Down(p Pointer) bool {
	if b.active || !b.Contains(p.Pos) {
		return false
	}
	b.active = true
	b.pointer = p.ID
	b.origin = b.Center
	b.dragged = false
	b.track(p.Pos)
	return true
}

func (b *AimButton) Move(p Pointer) {
	if b.Owns(p.ID) {
		b.track(p.Pos)
	}
}

// Up 松开时返回一次施法请求
func (b *AimButton) Up(p Pointer) (sim.Cast, bool) {
	if !b.Owns(p.ID) {
		return sim.Cast{}, false
	}
	b.track(p.Pos)
	b.active = false
	b.dragged = false
	return b.Cast(), true
}

// Release 取消当前拖动，不施法
func (b *AimButton) Release() {
	b.active = false
	b.dragged = false
}

// Cast 以当前保留的方向与距离构造施法请求
func (b *AimButton) Cast() sim.Cast {
	c := sim.Cast{Ability: b.Ability, Angle: b.angle}
	if b.Shape == sim.ShapeArea {
		c.Distance = b.distance
	}
	return c
}

func (b *AimButton) track(at geom.Vec2) {
	d := at.Sub(b.origin)
	if d.Len() <= TapSlop {
		return
	}
	b.dragged = true
	b.angle = d.Angle()
	if b.MaxDrag > 0 {
		b.distance = geom.Clamp(d.Len()/b.MaxDrag, b.MinFraction, 1)
	}
}
