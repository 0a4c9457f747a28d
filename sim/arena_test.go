package sim

import (
	"testing"
	"time"

	"github.com/pixil98/go-testutil"

	"skilltrainer/geom"
)

func TestArena_StaleIDIsNotFound(t *testing.T) {
	a := NewArena()
	a.Add(Entity{ID: 1, Body: &Target{}})
	a.Add(Entity{ID: 2, Body: &Target{}})

	testutil.AssertEqual(t, "first remove", a.Remove(1), true)
	testutil.AssertEqual(t, "second remove", a.Remove(1), false)

	_, ok := a.Get(1)
	testutil.AssertEqual(t, "found after remove", ok, false)
	testutil.AssertEqual(t, "live", a.Len(), 1)

	a.Compact()
	_, ok = a.Get(1)
	testutil.AssertEqual(t, "found after compact", ok, false)
	_, ok = a.Get(99)
	testutil.AssertEqual(t, "unknown id", ok, false)
	testutil.AssertEqual(t, "remove unknown", a.Remove(99), false)
}

func TestArena_CompactKeepsOrder(t *testing.T) {
	a := NewArena()
	for id := EntityID(1); id <= 5; id++ {
		a.Add(Entity{ID: id, Body: &Target{}})
	}
	a.Remove(2)
	a.Remove(4)
	a.Compact()

	var got []EntityID
	a.Each(func(e *Entity) { got = append(got, e.ID) })
	want := []EntityID{1, 3, 5}
	testutil.AssertEqual(t, "count", len(got), len(want))
	for i := range want {
		testutil.AssertEqual(t, "id", got[i], want[i])
	}
	e, ok := a.Get(5)
	testutil.AssertEqual(t, "found", ok, true)
	testutil.AssertEqual(t, "index rebuilt", e.ID, EntityID(5))
}

func TestArena_EachSkipsRemovedDuringIteration(t *testing.T) {
	a := NewArena()
	for id := EntityID(1); id <= 3; id++ {
		a.Add(Entity{ID: id, Body: &Target{}})
	}
	visited := 0
	a.Each(func(e *Entity) {
		visited++
		if e.ID == 1 {
			a.Remove(2)
		}
	})
	testutil.AssertEqual(t, "visited", visited, 2)
}

func TestArena_CloneIsIndependent(t *testing.T) {
	a := NewArena()
	a.Add(Entity{ID: 1, Pos: geom.V(1, 1), Body: &Creep{Health: 10}})
	c := a.Clone()

	e, _ := a.Get(1)
	e.Pos = geom.V(5, 5)
	e.Body.(*Creep).Health = 1

	ce, _ := c.Get(1)
	testutil.AssertEqual(t, "pos", ce.Pos, geom.V(1, 1))
	testutil.AssertEqual(t, "health", ce.Body.(*Creep).Health, 10.0)
}

func TestCooldowns(t *testing.T) {
	q := Ability{ID: AbilityQ, Cooldown: time.Second}
	c := make(Cooldowns)

	testutil.AssertEqual(t, "ready initially", c.Ready(AbilityQ, 0), true)
	c.Trigger(q, 2*time.Second)

	tests := map[string]struct {
		now      time.Duration
		expReady bool
		expLeft  time.Duration
	}{
		"just triggered": {now: 2 * time.Second, expReady: false, expLeft: time.Second},
		"half way":       {now: 2500 * time.Millisecond, expReady: false, expLeft: 500 * time.Millisecond},
		"exactly ready":  {now: 3 * time.Second, expReady: true, expLeft: 0},
		"long past":      {now: 10 * time.Second, expReady: true, expLeft: 0},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			testutil.AssertEqual(t, "ready", c.Ready(AbilityQ, tt.now), tt.expReady)
			testutil.AssertEqual(t, "remaining", c.Remaining(AbilityQ, tt.now), tt.expLeft)
		})
	}

	c.Sweep(3 * time.Second)
	testutil.AssertEqual(t, "swept", len(c), 0)
}

func TestStats_Accuracy(t *testing.T) {
	tests := map[string]struct {
		stats Stats
		mode  Mode
		exp   float64
	}{
		"no attempts":    {stats: Stats{}, mode: ModeSkillshot, exp: 0},
		"all hits":       {stats: Stats{Hits: 4}, mode: ModeSkillshot, exp: 100},
		"half":           {stats: Stats{Hits: 2, Misses: 2}, mode: ModeSkillshot, exp: 50},
		"dodge clean":    {stats: Stats{Dodges: 9}, mode: ModeDodge, exp: 100},
		"dodge hit once": {stats: Stats{Dodges: 3, HitsTaken: 1}, mode: ModeDodge, exp: 75},
		"lasthit denied": {stats: Stats{LastHits: 1, Denied: 3}, mode: ModeLastHit, exp: 25},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got := tt.stats.Accuracy(tt.mode)
			testutil.AssertEqual(t, "accuracy", got, tt.exp)
			if got < 0 || got > 100 {
				t.Errorf("accuracy out of range: %f", got)
			}
		})
	}
}

func TestStats_ComboResetsAndMaxNeverDecreases(t *testing.T) {
	var s Stats
	s.comboUp()
	s.comboUp()
	s.comboUp()
	s.comboReset()
	s.comboUp()

	testutil.AssertEqual(t, "current", s.ComboCurrent, 1)
	testutil.AssertEqual(t, "max", s.ComboMax, 3)

	s.comboReset()
	s.comboReset()
	testutil.AssertEqual(t, "current after double reset", s.ComboCurrent, 0)
}
