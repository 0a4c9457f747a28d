package sim

import (
	"errors"
	"time"
)

// Mode 训练模式
type Mode string

const (
	ModeSkillshot Mode = "skillshot"
	ModeDodge     Mode = "dodge"
	ModeLastHit   Mode = "lasthit"
)

// Difficulty 难度预设；survival 无固定时长，难度随存活时间上升
type Difficulty string

const (
	DifficultyEasy     Difficulty = "easy"
	DifficultyMedium   Difficulty = "medium"
	DifficultyHard     Difficulty = "hard"
	DifficultySurvival Difficulty = "survival"
)

var (
	ErrUnknownMode       = errors.New("unknown mode")
	ErrUnknownDifficulty = errors.New("unknown difficulty")
	ErrUnknownPattern    = errors.New("unknown spawn pattern")
)

// AbilityID 技能标识
type AbilityID string

const (
	AbilityQ      AbilityID = "q"      // 直线技能
	AbilityW      AbilityID = "w"      // 范围技能
	AbilityFlash  AbilityID = "flash"  // 闪现
	AbilityAttack AbilityID = "attack" // 普攻（补刀）
)

// AbilityShape 决定技能释放后产生的实体
type AbilityShape uint8

const (
	ShapeLine AbilityShape = iota
	ShapeArea
	ShapeBlink
	ShapeTargeted
)

// Ability 玩家技能属性
type Ability struct {
	ID       AbilityID     `json:"id"`
	Shape    AbilityShape  `json:"shape"`
	Range    float64       `json:"range"`
	Damage   float64       `json:"damage"`
	Speed    float64       `json:"speed"`  // 每帧移动距离
	Radius   float64       `json:"radius"` // 弹道半径或范围半径
	Cooldown time.Duration `json:"cooldown"`
}

// EndReason 结束原因
type EndReason uint8

const (
	ReasonNone EndReason = iota
	ReasonTimeUp
	ReasonPlayerHit
	ReasonOutOfLives
)

func (r EndReason) String() string {
	switch r {
	case ReasonTimeUp:
		return "time_up"
	case ReasonPlayerHit:
		return "player_hit"
	case ReasonOutOfLives:
		return "out_of_lives"
	default:
		return "none"
	}
}

// 不属于任何预设的调参常量
const (
	OutOfBoundsMargin = 60.0 // 出界判定的外扩边距
	DesignateSlop     = 12.0 // 点选目标时的额外容差
	HUDHeight         = 56.0
	ControlsHeight    = 140.0
	SideGutter        = 32.0
)
