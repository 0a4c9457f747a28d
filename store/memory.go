package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"skilltrainer/session"
	"skilltrainer/sim"
)

var (
	ErrNotFound  = errors.New("session result not found")
	ErrDuplicate = errors.New("session result already recorded")
)

const (
	defaultLimit = 10
	recentCount  = 10
)

// Memory 进程内的结果存储：按会话 id 去重，支持排行榜与个人统计
type Memory struct {
	mu      sync.RWMutex
	results []session.Result
	byID    map[string]int
}

func NewMemory() *Memory {
	return &Memory{byID: make(map[string]int)}
}

// Complete 记录一局结果；同一会话重复上报返回 ErrDuplicate
func (m *Memory) Complete(_ context.Context, r session.Result) error {
	if r.SessionID == "" {
		return fmt.Errorf("complete: empty session id")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[r.SessionID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicate, r.SessionID)
	}
	m.byID[r.SessionID] = len(m.results)
	m.results = append(m.results, r)
	return nil
}

func (m *Memory) Get(id string) (session.Result, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i, ok := m.byID[id]
	if !ok {
		return session.Result{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return m.results[i], nil
}

func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.results)
}

// Query 过滤条件，空字段不过滤
type Query struct {
	Player     string
	Mode       sim.Mode
	Difficulty sim.Difficulty
	Limit      int
	Offset     int
}

func (q Query) match(r session.Result) bool {
	return (q.Player == "" || r.Player == q.Player) &&
		(q.Mode == "" || r.Mode == q.Mode) &&
		(q.Difficulty == "" || r.Difficulty == q.Difficulty)
}

func (q Query) limit() int {
	if q.Limit <= 0 {
		return defaultLimit
	}
	return q.Limit
}

// List 最近完成的在前
func (m *Memory) List(q Query) []session.Result {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []session.Result
	for i := len(m.results) - 1; i >= 0; i-- {
		if q.match(m.results[i]) {
			out = append(out, m.results[i])
		}
	}
	return page(out, q.Offset, q.limit())
}

// Entry 排行榜条目
type Entry struct {
	Rank       int            `json:"rank"`
	SessionID  string         `json:"sessionId"`
	Player     string         `json:"player,omitempty"`
	Mode       sim.Mode       `json:"mode"`
	Difficulty sim.Difficulty `json:"difficulty"`
	Score      float64        `json:"score"`
	Accuracy   float64        `json:"accuracy"`
	ElapsedMs  int64          `json:"elapsedMs"`
}

// Leaderboard 已完成的局按最终得分降序；同分时先完成者在前
func (m *Memory) Leaderboard(q Query) []Entry {
	m.mu.RLock()
	var rows []session.Result
	for _, r := range m.results {
		if r.Completed && q.match(r) {
			rows = append(rows, r)
		}
	}
	m.mu.RUnlock()

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Score.Final != rows[j].Score.Final {
			return rows[i].Score.Final > rows[j].Score.Final
		}
		return rows[i].FinishedAt.Before(rows[j].FinishedAt)
	})
	rows = page(rows, 0, q.limit())

	out := make([]Entry, len(rows))
	for i, r := range rows {
		out[i] = Entry{
			Rank:       i + 1,
			SessionID:  r.SessionID,
			Player:     r.Player,
			Mode:       r.Mode,
			Difficulty: r.Difficulty,
			Score:      r.Score.Final,
			Accuracy:   r.Accuracy,
			ElapsedMs:  r.ElapsedMs,
		}
	}
	return out
}

// ModeStats 某玩家在一个模式下的汇总
type ModeStats struct {
	Mode         sim.Mode  `json:"mode"`
	Attempts     int       `json:"attempts"`
	Completed    int       `json:"completed"`
	BestScore    float64   `json:"bestScore"`
	BestAccuracy float64   `json:"bestAccuracy"`
	BestCombo    int       `json:"bestCombo"`
	LongestMs    int64     `json:"longestMs"`
	AvgScore     float64   `json:"avgScore"`
	AvgAccuracy  float64   `json:"avgAccuracy"`
	AvgMs        float64   `json:"avgMs"`
	RecentScores []float64 `json:"recentScores"`
}

// Stats 按模式汇总一个玩家的历史；没有记录的模式不出现
func (m *Memory) Stats(player string) []ModeStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []ModeStats
	for _, mode := range []sim.Mode{sim.ModeSkillshot, sim.ModeDodge, sim.ModeLastHit} {
		s := ModeStats{Mode: mode}
		var scoreSum, accSum, msSum float64
		for i := len(m.results) - 1; i >= 0; i-- {
			r := m.results[i]
			if r.Player != player || r.Mode != mode {
				continue
			}
			s.Attempts++
			if !r.Completed {
				continue
			}
			s.Completed++
			scoreSum += r.Score.Final
			accSum += r.Accuracy
			msSum += float64(r.ElapsedMs)
			s.BestScore = max(s.BestScore, r.Score.Final)
			s.BestAccuracy = max(s.BestAccuracy, r.Accuracy)
			s.BestCombo = max(s.BestCombo, r.Stats.ComboMax)
			s.LongestMs = max(s.LongestMs, r.ElapsedMs)
			if len(s.RecentScores) < recentCount {
				s.RecentScores = append(s.RecentScores, r.Score.Final)
			}
		}
		if s.Attempts == 0 {
			continue
		}
		if s.Completed > 0 {
			n := float64(s.Completed)
			s.AvgScore = scoreSum / n
			s.AvgAccuracy = accSum / n
			s.AvgMs = msSum / n
		}
		out = append(out, s)
	}
	return out
}

func page[T any](rows []T, offset, limit int) []T {
	if offset >= len(rows) {
		return nil
	}
	rows = rows[offset:]
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}
