package sim

import (
	"math"
	"math/rand/v2"
	"sync"

	"skilltrainer/geom"
)

// Launch 一个待生成实体的初始位置与速度；Slot 为同批次内的序号
type Launch struct {
	Pos  geom.Vec2
	Vel  geom.Vec2
	Slot int
}

// PatternInput 生成图案的输入。Rand 由世界提供，保证同种子可复现
type PatternInput struct {
	Bounds geom.Rect
	Player geom.Vec2
	Speed  float64
	Rand   *rand.Rand
}

// Pattern 由输入计算一批生成点，不得读写世界状态
type Pattern func(in PatternInput) []Launch

var (
	patternsMu sync.RWMutex
	patterns   = map[string]Pattern{
		"aimed":  aimedPattern,
		"wave":   wavePattern,
		"radial": radialPattern,
		"cross":  crossPattern,
		"random": randomPattern,
		"drift":  driftPattern,
		"lane":   lanePattern,
	}
)

// RegisterPattern 注册（或替换）一个具名图案
func RegisterPattern(name string, p Pattern) {
	patternsMu.Lock()
	defer patternsMu.Unlock()
	patterns[name] = p
}

func LookupPattern(name string) (Pattern, bool) {
	patternsMu.RLock()
	defer patternsMu.RUnlock()
	p, ok := patterns[name]
	return p, ok
}

const (
	waveCount   = 6
	radialCount = 8
	laneCount   = 4
	laneSpacing = 34.0
)

// edgePoint 在边界上取随机一点
func edgePoint(in PatternInput) geom.Vec2 {
	b := in.Bounds
	switch in.Rand.IntN(4) {
	case 0:
		return geom.V(b.X+in.Rand.Float64()*b.W, b.Y)
	case 1:
		return geom.V(b.Right(), b.Y+in.Rand.Float64()*b.H)
	case 2:
		return geom.V(b.X+in.Rand.Float64()*b.W, b.Bottom())
	default:
		return geom.V(b.X, b.Y+in.Rand.Float64()*b.H)
	}
}

// 从边缘直射玩家
func aimedPattern(in PatternInput) []Launch {
	from := edgePoint(in)
	dir := in.Player.Sub(from).Normalize()
	if dir.IsZero() {
		dir = geom.V(0, 1)
	}
	return []Launch{{Pos: from, Vel: dir.Scale(in.Speed)}}
}

// 从某一侧整排推进，随机留一个缺口
func wavePattern(in PatternInput) []Launch {
	b := in.Bounds
	side := in.Rand.IntN(4)
	gap := in.Rand.IntN(waveCount)
	out := make([]Launch, 0, waveCount-1)
	for i := 0; i < waveCount; i++ {
		if i == gap {
			continue
		}
		t := (float64(i) + 0.5) / waveCount
		var l Launch
		switch side {
		case 0:
			l = Launch{Pos: geom.V(b.X+t*b.W, b.Y), Vel: geom.V(0, in.Speed)}
		case 1:
			l = Launch{Pos: geom.V(b.Right(), b.Y+t*b.H), Vel: geom.V(-in.Speed, 0)}
		case 2:
			l = Launch{Pos: geom.V(b.X+t*b.W, b.Bottom()), Vel: geom.V(0, -in.Speed)}
		default:
			l = Launch{Pos: geom.V(b.X, b.Y+t*b.H), Vel: geom.V(in.Speed, 0)}
		}
		l.Slot = len(out)
		out = append(out, l)
	}
	return out
}

// 在远离玩家的随机点向四周爆开
func radialPattern(in PatternInput) []Launch {
	b := in.Bounds
	center := geom.V(b.X+in.Rand.Float64()*b.W, b.Y+in.Rand.Float64()*b.H)
	minDist := math.Min(b.W, b.H) / 3
	if center.Dist(in.Player) < minDist {
		center = b.Clamp(in.Player.Add(center.Sub(in.Player).Normalize().Scale(minDist)))
	}
	out := make([]Launch, radialCount)
	for i := range out {
		a := 2 * math.Pi * float64(i) / radialCount
		out[i] = Launch{Pos: center, Vel: geom.FromAngle(a, in.Speed), Slot: i}
	}
	return out
}

// 四边中点沿玩家所在行列交叉
func crossPattern(in PatternInput) []Launch {
	b := in.Bounds
	p := b.Clamp(in.Player)
	return []Launch{
		{Pos: geom.V(b.X, p.Y), Vel: geom.V(in.Speed, 0), Slot: 0},
		{Pos: geom.V(b.Right(), p.Y), Vel: geom.V(-in.Speed, 0), Slot: 1},
		{Pos: geom.V(p.X, b.Y), Vel: geom.V(0, in.Speed), Slot: 2},
		{Pos: geom.V(p.X, b.Bottom()), Vel: geom.V(0, -in.Speed), Slot: 3},
	}
}

// 边缘随机点飞向场内随机点
func randomPattern(in PatternInput) []Launch {
	b := in.Bounds
	from := edgePoint(in)
	to := geom.V(b.X+b.W*(0.2+0.6*in.Rand.Float64()), b.Y+b.H*(0.2+0.6*in.Rand.Float64()))
	dir := to.Sub(from).Normalize()
	if dir.IsZero() {
		dir = geom.V(1, 0)
	}
	return []Launch{{Pos: from, Vel: dir.Scale(in.Speed)}}
}

// 靶子：上半场随机位置，水平漂移
func driftPattern(in PatternInput) []Launch {
	b := in.Bounds
	pos := geom.V(b.X+b.W*(0.1+0.8*in.Rand.Float64()), b.Y+b.H*(0.15+0.35*in.Rand.Float64()))
	vx := in.Speed
	if in.Rand.IntN(2) == 0 {
		vx = -vx
	}
	return []Launch{{Pos: pos, Vel: geom.V(vx, 0)}}
}

// 小兵：从左侧沿中线成队进入
func lanePattern(in PatternInput) []Launch {
	b := in.Bounds
	y := LaneY(b)
	out := make([]Launch, laneCount)
	for i := range out {
		out[i] = Launch{Pos: geom.V(b.X-float64(i)*laneSpacing, y), Vel: geom.V(in.Speed, 0), Slot: i}
	}
	return out
}

// LaneY 兵线所在的纵坐标
func LaneY(b geom.Rect) float64 { return b.Y + b.H*0.45 }

// LaneFront 小兵停下交战的最前位置
func LaneFront(b geom.Rect) float64 { return b.X + b.W*0.62 }

// TowerPos 敌方防御塔位置（兵线右端）
func TowerPos(b geom.Rect) geom.Vec2 { return geom.V(b.X+b.W*0.86, LaneY(b)) }
