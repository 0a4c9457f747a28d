package sim

import (
	"fmt"
	"slices"
	"sync"
	"time"
)

// Preset 一个模式在某难度下的全部参数
type Preset struct {
	Mode       Mode       `json:"mode"`
	Difficulty Difficulty `json:"difficulty"`

	Duration      time.Duration `json:"duration"` // 0 = 生存模式
	SpawnInterval time.Duration `json:"spawnInterval"`
	Speed         float64       `json:"speed"` // 实体每帧速度
	MaxEntities   int           `json:"maxEntities"`
	Patterns      []string      `json:"patterns"`

	PlayerSpeed  float64   `json:"playerSpeed"`
	PlayerRadius float64   `json:"playerRadius"`
	EntityRadius float64   `json:"entityRadius"`
	Abilities    []Ability `json:"abilities"`

	// 技能命中
	TargetLifetime time.Duration `json:"targetLifetime,omitempty"`

	// 生存模式
	LevelWindow      time.Duration `json:"levelWindow,omitempty"`
	IntervalStep     float64       `json:"intervalStep,omitempty"` // 每级生成间隔缩短比例
	SpeedStep        float64       `json:"speedStep,omitempty"`    // 每级速度提升比例
	CapStep          int           `json:"capStep,omitempty"`
	MinSpawnInterval time.Duration `json:"minSpawnInterval,omitempty"`
	// MaxFailures 失败次数达到该值即结束，0 表示不限
	MaxFailures      int           `json:"maxFailures,omitempty"`

	// 补刀
	CreepHealth      float64       `json:"creepHealth,omitempty"`
	CreepDecay       float64       `json:"creepDecay,omitempty"` // 停止后每帧掉血
	CreepGold        int           `json:"creepGold,omitempty"`
	AIAttackInterval time.Duration `json:"aiAttackInterval,omitempty"`
	AIDamage         float64       `json:"aiDamage,omitempty"`
	PerfectWindow    float64       `json:"perfectWindow,omitempty"` // 击杀后血量落在 (-PerfectWindow, 0] 记为完美

	// 计分
	HitScore       int     `json:"hitScore"`
	ComboBonus     int     `json:"comboBonus"`
	PerfectBonus   int     `json:"perfectBonus,omitempty"`
	TimeWeight     float64 `json:"timeWeight"`
	AccuracyWeight float64 `json:"accuracyWeight"`
}

// Survival 是否为无时长、随时间升级的模式
func (p Preset) Survival() bool { return p.Duration <= 0 }

// Ability 按 id 查技能
func (p Preset) Ability(id AbilityID) (Ability, bool) {
	for _, a := range p.Abilities {
		if a.ID == id {
			return a, true
		}
	}
	return Ability{}, false
}

func (p Preset) clone() Preset {
	p.Patterns = slices.Clone(p.Patterns)
	p.Abilities = slices.Clone(p.Abilities)
	return p
}

type presetKey struct {
	mode Mode
	diff Difficulty
}

// Catalog 可在运行期覆盖的预设表（管理接口会写入）
type Catalog struct {
	mu      sync.RWMutex
	presets map[presetKey]Preset
}

// NewCatalog 以内置预设初始化
func NewCatalog() *Catalog {
	c := &Catalog{presets: make(map[presetKey]Preset)}
	for _, p := range builtinPresets() {
		c.presets[presetKey{p.Mode, p.Difficulty}] = p
	}
	return c
}

// Lookup 未知的模式或难度立即返回具名错误，不做默认回退
func (c *Catalog) Lookup(mode Mode, diff Difficulty) (Preset, error) {
	if !KnownMode(mode) {
		return Preset{}, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
	if !KnownDifficulty(diff) {
		return Preset{}, fmt.Errorf("%w: %q", ErrUnknownDifficulty, diff)
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.presets[presetKey{mode, diff}]
	if !ok {
		return Preset{}, fmt.Errorf("%w: %q for mode %q", ErrUnknownDifficulty, diff, mode)
	}
	return p.clone(), nil
}

// Set 覆盖一条预设
func (c *Catalog) Set(p Preset) error {
	if err := p.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.presets[presetKey{p.Mode, p.Difficulty}] = p.clone()
	return nil
}

// All 按模式、难度排序返回全部预设
func (c *Catalog) All() []Preset {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Preset, 0, len(c.presets))
	for _, p := range c.presets {
		out = append(out, p.clone())
	}
	slices.SortFunc(out, func(a, b Preset) int {
		if a.Mode != b.Mode {
			if a.Mode < b.Mode {
				return -1
			}
			return 1
		}
		return difficultyRank(a.Difficulty) - difficultyRank(b.Difficulty)
	})
	return out
}

// Validate 检查预设可用于开局
func (p Preset) Validate() error {
	if !KnownMode(p.Mode) {
		return fmt.Errorf("%w: %q", ErrUnknownMode, p.Mode)
	}
	if !KnownDifficulty(p.Difficulty) {
		return fmt.Errorf("%w: %q", ErrUnknownDifficulty, p.Difficulty)
	}
	if p.SpawnInterval <= 0 {
		return fmt.Errorf("preset %s/%s: spawn interval must be positive", p.Mode, p.Difficulty)
	}
	if p.MaxEntities <= 0 {
		return fmt.Errorf("preset %s/%s: max entities must be positive", p.Mode, p.Difficulty)
	}
	if len(p.Patterns) == 0 {
		return fmt.Errorf("preset %s/%s: at least one pattern required", p.Mode, p.Difficulty)
	}
	for _, name := range p.Patterns {
		if _, ok := LookupPattern(name); !ok {
			return fmt.Errorf("preset %s/%s: %w: %q", p.Mode, p.Difficulty, ErrUnknownPattern, name)
		}
	}
	if p.Survival() && p.LevelWindow <= 0 {
		return fmt.Errorf("preset %s/%s: survival requires a level window", p.Mode, p.Difficulty)
	}
	if p.MaxFailures < 0 {
		return fmt.Errorf("preset %s/%s: max failures must not be negative", p.Mode, p.Difficulty)
	}
	// 躲避被击中即结束；其余模式的生存局只能靠失败上限收尾
	if p.Survival() && p.Mode != ModeDodge && p.MaxFailures <= 0 {
		return fmt.Errorf("preset %s/%s: survival requires a failure limit", p.Mode, p.Difficulty)
	}
	return nil
}

var defaultCatalog = NewCatalog()

// DefaultCatalog 进程级共享的预设表
func DefaultCatalog() *Catalog { return defaultCatalog }

// LookupPreset 在默认预设表中查找
func LookupPreset(mode Mode, diff Difficulty) (Preset, error) {
	return defaultCatalog.Lookup(mode, diff)
}

func KnownMode(m Mode) bool {
	switch m {
	case ModeSkillshot, ModeDodge, ModeLastHit:
		return true
	}
	return false
}

func KnownDifficulty(d Difficulty) bool {
	return difficultyRank(d) >= 0
}

func difficultyRank(d Difficulty) int {
	switch d {
	case DifficultyEasy:
		return 0
	case DifficultyMedium:
		return 1
	case DifficultyHard:
		return 2
	case DifficultySurvival:
		return 3
	}
	return -1
}

func builtinPresets() []Preset {
	var out []Preset

	skillshot := func(d Difficulty, interval time.Duration, speed float64, limit int, radius float64, life time.Duration) Preset {
		return Preset{
			Mode: ModeSkillshot, Difficulty: d,
			Duration:       60 * time.Second,
			SpawnInterval:  interval,
			Speed:          speed,
			MaxEntities:    limit,
			Patterns:       []string{"drift"},
			PlayerSpeed:    4,
			PlayerRadius:   18,
			EntityRadius:   radius,
			TargetLifetime: life,
			Abilities: []Ability{
				{ID: AbilityQ, Shape: ShapeLine, Range: 520, Damage: 1, Speed: 12, Radius: 10, Cooldown: time.Second},
				{ID: AbilityW, Shape: ShapeArea, Range: 420, Damage: 1, Speed: 14, Radius: 70, Cooldown: 4 * time.Second},
			},
			HitScore:       100,
			ComboBonus:     10,
			TimeWeight:     0.3,
			AccuracyWeight: 0.7,
		}
	}
	out = append(out,
		skillshot(DifficultyEasy, 1500*time.Millisecond, 1.0, 3, 26, 4*time.Second),
		skillshot(DifficultyMedium, 1100*time.Millisecond, 1.8, 4, 22, 3*time.Second),
		skillshot(DifficultyHard, 800*time.Millisecond, 2.6, 5, 18, 2500*time.Millisecond),
	)
	ss := skillshot(DifficultySurvival, 1500*time.Millisecond, 1.0, 3, 22, 3500*time.Millisecond)
	ss.Duration = 0
	withSurvival(&ss)
	ss.MaxFailures = 10
	out = append(out, ss)

	dodge := func(d Difficulty, interval time.Duration, speed float64, limit int, patterns ...string) Preset {
		return Preset{
			Mode: ModeDodge, Difficulty: d,
			Duration:      60 * time.Second,
			SpawnInterval: interval,
			Speed:         speed,
			MaxEntities:   limit,
			Patterns:      patterns,
			PlayerSpeed:   4.5,
			PlayerRadius:  14,
			EntityRadius:  9,
			Abilities: []Ability{
				{ID: AbilityFlash, Shape: ShapeBlink, Range: 120, Cooldown: 10 * time.Second},
			},
			HitScore:       10,
			ComboBonus:     1,
			TimeWeight:     0.5,
			AccuracyWeight: 0.5,
		}
	}
	out = append(out,
		dodge(DifficultyEasy, 1200*time.Millisecond, 3, 6, "aimed", "random", "wave"),
		dodge(DifficultyMedium, 900*time.Millisecond, 4, 9, "aimed", "random", "wave", "radial"),
		dodge(DifficultyHard, 650*time.Millisecond, 5, 12, "aimed", "random", "wave", "radial", "cross"),
	)
	ds := dodge(DifficultySurvival, 1200*time.Millisecond, 3, 6, "aimed", "random", "wave", "radial", "cross")
	ds.Duration = 0
	withSurvival(&ds)
	out = append(out, ds)

	lasthit := func(d Difficulty, interval time.Duration, decay float64, aiDmg float64, attackCD time.Duration) Preset {
		return Preset{
			Mode: ModeLastHit, Difficulty: d,
			Duration:         90 * time.Second,
			SpawnInterval:    interval,
			Speed:            1.2,
			MaxEntities:      8,
			Patterns:         []string{"lane"},
			PlayerSpeed:      3.5,
			PlayerRadius:     18,
			EntityRadius:     14,
			CreepHealth:      300,
			CreepDecay:       decay,
			CreepGold:        20,
			AIAttackInterval: 1500 * time.Millisecond,
			AIDamage:         aiDmg,
			PerfectWindow:    20,
			Abilities: []Ability{
				{ID: AbilityAttack, Shape: ShapeTargeted, Range: 260, Damage: 60, Speed: 9, Radius: 6, Cooldown: attackCD},
			},
			HitScore:       20,
			PerfectBonus:   10,
			ComboBonus:     2,
			TimeWeight:     0.2,
			AccuracyWeight: 0.8,
		}
	}
	out = append(out,
		lasthit(DifficultyEasy, 12*time.Second, 0.05, 35, 1200*time.Millisecond),
		lasthit(DifficultyMedium, 10*time.Second, 0.1, 50, 1400*time.Millisecond),
		lasthit(DifficultyHard, 8*time.Second, 0.15, 70, 1600*time.Millisecond),
	)
	ls := lasthit(DifficultySurvival, 12*time.Second, 0.05, 35, 1200*time.Millisecond)
	ls.Duration = 0
	withSurvival(&ls)
	ls.CapStep = 2
	ls.MaxFailures = 5
	out = append(out, ls)

	return out
}

func withSurvival(p *Preset) {
	p.LevelWindow = 10 * time.Second
	p.IntervalStep = 0.1
	p.SpeedStep = 0.15
	p.CapStep = 1
	p.MinSpawnInterval = 350 * time.Millisecond
}
