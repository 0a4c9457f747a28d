package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pixil98/go-testutil"

	"skilltrainer/session"
	"skilltrainer/sim"
	"skilltrainer/store"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m := NewManager(ManagerConfig{Catalog: sim.NewCatalog()})
	t.Cleanup(m.Shutdown)
	return m
}

func TestAdminPresets(t *testing.T) {
	m := newTestManager(t)

	override, err := m.Catalog().Lookup(sim.ModeDodge, sim.DifficultyEasy)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	override.Speed = 7.5
	valid, _ := json.Marshal(override)

	broken := override
	broken.Patterns = []string{"no-such-pattern"}
	invalid, _ := json.Marshal(broken)

	tests := map[string]struct {
		method    string
		target    string
		body      []byte
		expStatus int
	}{
		"list":             {method: http.MethodGet, target: "/admin/presets", expStatus: http.StatusOK},
		"lookup":           {method: http.MethodGet, target: "/admin/presets?mode=lasthit&difficulty=hard", expStatus: http.StatusOK},
		"lookup unknown":   {method: http.MethodGet, target: "/admin/presets?mode=lasthit&difficulty=insane", expStatus: http.StatusNotFound},
		"override":         {method: http.MethodPost, target: "/admin/presets", body: valid, expStatus: http.StatusOK},
		"override invalid": {method: http.MethodPost, target: "/admin/presets", body: invalid, expStatus: http.StatusBadRequest},
		"bad json":         {method: http.MethodPost, target: "/admin/presets", body: []byte("{"), expStatus: http.StatusBadRequest},
		"bad method":       {method: http.MethodDelete, target: "/admin/presets", expStatus: http.StatusMethodNotAllowed},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.target, bytes.NewReader(tt.body))
			rec := httptest.NewRecorder()
			m.HandleAdminPresets(rec, req)
			testutil.AssertEqual(t, "status", rec.Code, tt.expStatus)
		})
	}

	got, err := m.Catalog().Lookup(sim.ModeDodge, sim.DifficultyEasy)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	testutil.AssertEqual(t, "override applied", got.Speed, 7.5)

	req := httptest.NewRequest(http.MethodGet, "/admin/presets", nil)
	rec := httptest.NewRecorder()
	m.HandleAdminPresets(rec, req)
	var all []sim.Preset
	if err := json.NewDecoder(rec.Body).Decode(&all); err != nil {
		t.Fatalf("decoding presets: %v", err)
	}
	testutil.AssertEqual(t, "preset count", len(all), 12)
}

func TestLeaderboardAndResults(t *testing.T) {
	m := newTestManager(t)
	finished := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for i, final := range []float64{40, 90, 65} {
		err := m.Results().Complete(context.Background(), session.Result{
			SessionID:  string(rune('a' + i)),
			Player:     "ana",
			Mode:       sim.ModeSkillshot,
			Difficulty: sim.DifficultyHard,
			Completed:  true,
			Score:      session.Breakdown{Final: final},
			FinishedAt: finished.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("seeding: %v", err)
		}
	}

	tests := map[string]struct {
		handler   http.HandlerFunc
		target    string
		expStatus int
	}{
		"leaderboard":          {handler: m.HandleLeaderboard, target: "/leaderboard?mode=skillshot&limit=2", expStatus: http.StatusOK},
		"leaderboard bad mode": {handler: m.HandleLeaderboard, target: "/leaderboard?mode=chess", expStatus: http.StatusBadRequest},
		"leaderboard bad diff": {handler: m.HandleLeaderboard, target: "/leaderboard?difficulty=insane", expStatus: http.StatusBadRequest},
		"bad limit":            {handler: m.HandleLeaderboard, target: "/leaderboard?limit=-1", expStatus: http.StatusBadRequest},
		"results":              {handler: m.HandleResults, target: "/results?player=ana", expStatus: http.StatusOK},
		"results no player":    {handler: m.HandleResults, target: "/results", expStatus: http.StatusBadRequest},
		"metrics":              {handler: m.HandleMetrics, target: "/metrics", expStatus: http.StatusOK},
		"healthz":              {handler: HandleHealthz, target: "/healthz", expStatus: http.StatusOK},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.handler(rec, httptest.NewRequest(http.MethodGet, tt.target, nil))
			testutil.AssertEqual(t, "status", rec.Code, tt.expStatus)
		})
	}

	rec := httptest.NewRecorder()
	m.HandleLeaderboard(rec, httptest.NewRequest(http.MethodGet, "/leaderboard?mode=skillshot&limit=2", nil))
	var board []store.Entry
	if err := json.NewDecoder(rec.Body).Decode(&board); err != nil {
		t.Fatalf("decoding leaderboard: %v", err)
	}
	testutil.AssertEqual(t, "entries", len(board), 2)
	testutil.AssertEqual(t, "top", board[0].Score, 90.0)
	testutil.AssertEqual(t, "second", board[1].Score, 65.0)
}
