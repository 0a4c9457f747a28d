package sim

import (
	"math"
	"math/rand/v2"
	"slices"
	"time"

	"skilltrainer/geom"
)

// Player 玩家（每局独占，开局重置）
type Player struct {
	Pos       geom.Vec2
	Speed     float64
	Radius    float64
	Abilities []Ability
}

func (p Player) Ability(id AbilityID) (Ability, bool) {
	for _, a := range p.Abilities {
		if a.ID == id {
			return a, true
		}
	}
	return Ability{}, false
}

// Cast 一次技能释放请求；Distance 为范围技能的施法距离比例 (0,1]
type Cast struct {
	Ability  AbilityID `json:"ability"`
	Angle    float64   `json:"angle"`
	Distance float64   `json:"distance"`
}

// Intent 一帧内输入映射器交给模拟的意图
type Intent struct {
	Move      geom.Vec2
	Casts     []Cast
	Designate *geom.Vec2 // 点选目标的位置
}

// EffectKind 纯视觉效果
type EffectKind uint8

const (
	EffectSpark EffectKind = iota
	EffectText
	EffectRing
)

// Tone 效果的语义色调，由主题映射成颜色
type Tone uint8

const (
	ToneNeutral Tone = iota
	ToneHit
	ToneMiss
	ToneGold
	TonePerfect
	ToneCast
	ToneDanger
)

// Effect 粒子 / 飘字 / 施法光圈，每帧 Life 减一，<=0 时移除
type Effect struct {
	Kind    EffectKind
	Tone    Tone
	Pos     geom.Vec2
	Vel     geom.Vec2
	Radius  float64
	Text    string
	Life    int
	MaxLife int
}

// Alpha 剩余生命比例
func (e Effect) Alpha() float64 {
	if e.MaxLife <= 0 {
		return 0
	}
	return float64(e.Life) / float64(e.MaxLife)
}

const (
	sparkLife = 24
	textLife  = 45
	ringLife  = 18
)

// World 权威世界状态：只由 Step 修改，渲染只读
type World struct {
	Mode      Mode
	Preset    Preset
	Bounds    geom.Rect
	Play      geom.Rect // 玩家可移动的子区域
	Player    Player
	Entities  *Arena
	Cooldowns Cooldowns
	Stats     Stats
	Effects   []Effect

	Level      int
	Elapsed    time.Duration // 最近一次推进时的活动时长
	Frame      int
	Designated EntityID
	Over       bool
	Reason     EndReason

	nextID     EntityID
	lastSpawn  time.Duration
	lastStrike time.Duration
	pcg        *rand.PCG
	rng        *rand.Rand
}

// PlayArea 画布内留出 HUD 与操作区之后的可移动区域
func PlayArea(bounds geom.Rect) geom.Rect {
	return geom.R(
		bounds.X+SideGutter,
		bounds.Y+HUDHeight,
		bounds.W-2*SideGutter,
		bounds.H-HUDHeight-ControlsHeight,
	)
}

// NewWorld 以预设和种子创建一个全新的世界
func NewWorld(p Preset, bounds geom.Rect, seed uint64) *World {
	pcg := rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	w := &World{
		Mode:      p.Mode,
		Preset:    p.clone(),
		Bounds:    bounds,
		Play:      PlayArea(bounds),
		Entities:  NewArena(),
		Cooldowns: make(Cooldowns),
		Level:     1,
		pcg:       pcg,
		rng:       rand.New(pcg),
	}
	w.Player = Player{
		Pos:       w.startPos(),
		Speed:     p.PlayerSpeed,
		Radius:    p.PlayerRadius,
		Abilities: slices.Clone(p.Abilities),
	}
	if p.Mode == ModeLastHit {
		// 第一波兵尽快出现
		w.lastSpawn = time.Second - p.SpawnInterval
	}
	return w
}

func (w *World) startPos() geom.Vec2 {
	switch w.Mode {
	case ModeDodge:
		return w.Play.Center()
	default:
		return geom.V(w.Play.Center().X, w.Play.Bottom()-w.Preset.PlayerRadius)
	}
}

// Running 未结束的世界才会被推进
func (w *World) Running() bool { return !w.Over }

// Accuracy 当前模式下的准确率 [0,100]
func (w *World) Accuracy() float64 { return w.Stats.Accuracy(w.Mode) }

// Remaining 剩余时长；生存模式返回 0
func (w *World) Remaining() time.Duration {
	if w.Preset.Survival() {
		return 0
	}
	left := w.Preset.Duration - w.Elapsed
	if left < 0 {
		return 0
	}
	return left
}

// Clone 深拷贝（含随机数状态），用于快照与测试
func (w *World) Clone() *World {
	c := *w
	c.Preset = w.Preset.clone()
	c.Player.Abilities = slices.Clone(w.Player.Abilities)
	c.Entities = w.Entities.Clone()
	c.Cooldowns = w.Cooldowns.Clone()
	c.Effects = slices.Clone(w.Effects)
	pcg := *w.pcg
	c.pcg = &pcg
	c.rng = rand.New(c.pcg)
	return &c
}

func (w *World) add(pos, vel geom.Vec2, radius float64, body Body) EntityID {
	w.nextID++
	w.Entities.Add(Entity{
		ID:        w.nextID,
		Pos:       pos,
		Vel:       vel,
		Radius:    radius,
		SpawnedAt: w.Elapsed,
		Body:      body,
	})
	return w.nextID
}

func (w *World) addText(pos geom.Vec2, text string, tone Tone) {
	w.Effects = append(w.Effects, Effect{
		Kind: EffectText, Tone: tone, Pos: pos, Vel: geom.V(0, -0.8),
		Text: text, Life: textLife, MaxLife: textLife,
	})
}

func (w *World) addRing(pos geom.Vec2, radius float64, tone Tone) {
	w.Effects = append(w.Effects, Effect{
		Kind: EffectRing, Tone: tone, Pos: pos, Radius: radius,
		Life: ringLife, MaxLife: ringLife,
	})
}

// addBurst 均匀角度散开的粒子，不消耗随机数
func (w *World) addBurst(pos geom.Vec2, n int, tone Tone) {
	for i := 0; i < n; i++ {
		a := float64(i) * 2 * math.Pi / float64(n)
		w.Effects = append(w.Effects, Effect{
			Kind: EffectSpark, Tone: tone, Pos: pos, Vel: geom.FromAngle(a, 2.5), Radius: 3,
			Life: sparkLife, MaxLife: sparkLife,
		})
	}
}

func (w *World) finish(r EndReason) {
	w.Over = true
	w.Reason = r
}
