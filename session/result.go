package session

import (
	"math"
	"time"

	"skilltrainer/sim"
)

// Result 一局结束后上报给存储的最终结果
type Result struct {
	SessionID  string         `json:"sessionId" msgpack:"sessionId"`
	Player     string         `json:"player,omitempty" msgpack:"player,omitempty"`
	Mode       sim.Mode       `json:"mode" msgpack:"mode"`
	Difficulty sim.Difficulty `json:"difficulty" msgpack:"difficulty"`
	Completed  bool           `json:"completed" msgpack:"completed"`
	Reason     string         `json:"reason" msgpack:"reason"`
	ElapsedMs  int64          `json:"elapsedMs" msgpack:"elapsedMs"`
	Level      int            `json:"level" msgpack:"level"`
	Stats      sim.Stats      `json:"stats" msgpack:"stats"`
	Accuracy   float64        `json:"accuracy" msgpack:"accuracy"`
	Score      Breakdown      `json:"score" msgpack:"score"`
	StartedAt  time.Time      `json:"startedAt" msgpack:"startedAt"`
	FinishedAt time.Time      `json:"finishedAt" msgpack:"finishedAt"`
}

// Breakdown 最终得分构成
type Breakdown struct {
	Accuracy      float64 `json:"accuracy" msgpack:"accuracy"`
	AccuracyScore float64 `json:"accuracyScore" msgpack:"accuracyScore"`
	TimeScore     float64 `json:"timeScore" msgpack:"timeScore"`
	ComboBonus    float64 `json:"comboBonus" msgpack:"comboBonus"`
	Multiplier    float64 `json:"multiplier" msgpack:"multiplier"`
	Final         float64 `json:"final" msgpack:"final"`
}

const (
	maxFinalScore = 100.0
	maxComboBonus = 20.0
	// 生存模式以 10 个等级窗口作为满分时长
	survivalReferenceLevels = 10
)

// Multiplier 难度系数
func Multiplier(d sim.Difficulty) float64 {
	switch d {
	case sim.DifficultyMedium:
		return 1.2
	case sim.DifficultyHard:
		return 1.5
	case sim.DifficultySurvival:
		return 2.0
	}
	return 1.0
}

// Score 由准确率、坚持时长与连击计算 [0,100] 的最终得分
func Score(p sim.Preset, s sim.Stats, elapsed time.Duration) Breakdown {
	acc := s.Accuracy(p.Mode)
	ref := p.Duration
	if p.Survival() {
		ref = p.LevelWindow * survivalReferenceLevels
	}
	timeScore := 0.0
	if ref > 0 && elapsed > 0 {
		timeScore = math.Min(1, float64(elapsed)/float64(ref)) * 100
	}
	b := Breakdown{
		Accuracy:      acc,
		AccuracyScore: acc * p.AccuracyWeight,
		TimeScore:     timeScore * p.TimeWeight,
		ComboBonus:    math.Min(maxComboBonus, float64(s.ComboMax)*2),
		Multiplier:    Multiplier(p.Difficulty),
	}
	attempts := s.Hits + s.Misses + s.Dodges + s.HitsTaken + s.LastHits + s.Denied
	if attempts == 0 {
		return b
	}
	b.Final = math.Min(maxFinalScore, (b.AccuracyScore+b.TimeScore+b.ComboBonus)*b.Multiplier)
	return b
}
