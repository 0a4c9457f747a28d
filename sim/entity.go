package sim

import (
	"time"

	"skilltrainer/geom"
)

// EntityID 会话内单调递增，永不复用；0 表示“无”
type EntityID uint64

// Kind 实体种类
type Kind uint8

const (
	KindTarget Kind = iota
	KindProjectile
	KindArea
	KindCreep
)

func (k Kind) String() string {
	switch k {
	case KindTarget:
		return "target"
	case KindProjectile:
		return "projectile"
	case KindArea:
		return "area"
	case KindCreep:
		return "creep"
	default:
		return "unknown"
	}
}

// Body 实体的种类专属数据；未导出方法把实现限制在本包内
type Body interface {
	Kind() Kind
	cloneBody() Body
}

// Entity 可移动实体（靶子 / 小兵 / 弹道）
type Entity struct {
	ID        EntityID
	Pos       geom.Vec2
	Vel       geom.Vec2
	Radius    float64
	SpawnedAt time.Duration // 会话活动时钟
	Body      Body

	dead bool
}

func (e *Entity) Kind() Kind { return e.Body.Kind() }

// Target 技能命中训练的靶子
type Target struct {
	Lifetime time.Duration
}

func (*Target) Kind() Kind { return KindTarget }
func (t *Target) cloneBody() Body {
	c := *t
	return &c
}

// Projectile 直线或追踪弹道。Hostile 为躲避模式中的敌方弹道
type Projectile struct {
	Hostile  bool
	Ability  AbilityID
	Origin   geom.Vec2
	MaxRange float64
	Damage   float64
	Speed    float64
	Target   EntityID // 追踪目标，只保存 id
}

func (*Projectile) Kind() Kind { return KindProjectile }
func (p *Projectile) cloneBody() Body {
	c := *p
	return &c
}

// Homing 是否为追踪弹道
func (p *Projectile) Homing() bool { return p.Target != 0 }

// AreaBlast 飞向落点、到达后才结算的范围技能
type AreaBlast struct {
	Ability     AbilityID
	Origin      geom.Vec2
	Dest        geom.Vec2
	BlastRadius float64
	Damage      float64
}

func (*AreaBlast) Kind() Kind { return KindArea }
func (a *AreaBlast) cloneBody() Body {
	c := *a
	return &c
}

// Arrived 是否已飞到落点
func (a *AreaBlast) Arrived(pos geom.Vec2) bool {
	return pos.Dist(a.Origin) >= a.Dest.Dist(a.Origin)
}

// Creep 补刀模式的小兵
type Creep struct {
	Health    float64
	MaxHealth float64
	StopX     float64
	Stopped   bool
	Gold      int
}

func (*Creep) Kind() Kind { return KindCreep }
func (c *Creep) cloneBody() Body {
	cc := *c
	return &cc
}
