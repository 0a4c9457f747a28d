package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"skilltrainer/sim"
	"skilltrainer/store"
)

// HandleAdminPresets 提供预设的读取与覆盖（只影响之后开局的会话）
// GET /admin/presets               返回全部预设
// GET /admin/presets?mode=dodge&difficulty=easy
// POST /admin/presets              以完整预设 JSON 覆盖对应模式与难度
func (m *Manager) HandleAdminPresets(w http.ResponseWriter, r *http.Request) {
	cat := m.Catalog()
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		if q.Get("mode") == "" {
			writeJSON(w, http.StatusOK, cat.All())
			return
		}
		p, err := cat.Lookup(sim.Mode(q.Get("mode")), sim.Difficulty(q.Get("difficulty")))
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, p)
	case http.MethodPost:
		var p sim.Preset
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if err := cat.Set(p); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		m.log.Infow("preset updated", "mode", p.Mode, "difficulty", p.Difficulty,
			"spawnInterval", p.SpawnInterval, "speed", p.Speed, "maxEntities", p.MaxEntities)
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleMetrics 输出运行指标
// GET /metrics
func (m *Manager) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"connections": m.Len(),
		"results":     m.Results().Len(),
		"metrics":     m.Metrics.Snapshot(),
	})
}

// HandleLeaderboard 排行榜
// GET /leaderboard?mode=skillshot&difficulty=hard&limit=10
func (m *Manager) HandleLeaderboard(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, m.Results().Leaderboard(q))
}

// HandleResults 某玩家最近的结果与按模式汇总
// GET /results?player=alice&mode=dodge&limit=20&offset=0
func (m *Manager) HandleResults(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if q.Player == "" {
		http.Error(w, "missing player query", http.StatusBadRequest)
		return
	}
	res := m.Results()
	writeJSON(w, http.StatusOK, map[string]any{
		"results": res.List(q),
		"stats":   res.Stats(q.Player),
	})
}

func HandleHealthz(w http.ResponseWriter, _ *http.Request) {
	_, _ = w.Write([]byte("ok"))
}

func parseQuery(r *http.Request) (store.Query, error) {
	v := r.URL.Query()
	q := store.Query{
		Player:     v.Get("player"),
		Mode:       sim.Mode(v.Get("mode")),
		Difficulty: sim.Difficulty(v.Get("difficulty")),
	}
	if q.Mode != "" && !sim.KnownMode(q.Mode) {
		return q, fmt.Errorf("%w: %q", sim.ErrUnknownMode, q.Mode)
	}
	if q.Difficulty != "" && !sim.KnownDifficulty(q.Difficulty) {
		return q, fmt.Errorf("%w: %q", sim.ErrUnknownDifficulty, q.Difficulty)
	}
	for key, dst := range map[string]*int{"limit": &q.Limit, "offset": &q.Offset} {
		s := v.Get(key)
		if s == "" {
			continue
		}
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return q, fmt.Errorf("invalid %s %q", key, s)
		}
		*dst = n
	}
	return q, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
