package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pixil98/go-testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"skilltrainer/geom"
	"skilltrainer/input"
	"skilltrainer/render"
	"skilltrainer/sim"
)

func init() {
	sim.RegisterPattern("session-quiet", func(sim.PatternInput) []sim.Launch { return nil })
}

type recordingStore struct {
	results []Result
	err     error
}

func (s *recordingStore) Complete(_ context.Context, r Result) error {
	s.results = append(s.results, r)
	return s.err
}

type recordingTones struct{ freqs []float64 }

func (t *recordingTones) Tone(freq float64, _ time.Duration) { t.freqs = append(t.freqs, freq) }

type failingImmersive struct{ exits int }

func (f *failingImmersive) Enter() error { return errors.New("fullscreen denied") }
func (f *failingImmersive) Exit() error  { f.exits++; return nil }

type harness struct {
	ctl    *Controller
	sched  *ManualScheduler
	timers *ManualTimers
	clock  *MockTimeProvider
	store  *recordingStore
	tones  *recordingTones
	paints int
}

func quietCatalog(t *testing.T) *sim.Catalog {
	t.Helper()
	cat := sim.NewCatalog()
	for _, p := range cat.All() {
		p.Patterns = []string{"session-quiet"}
		if err := cat.Set(p); err != nil {
			t.Fatalf("set preset: %v", err)
		}
	}
	return cat
}

func newHarness(t *testing.T, opts Options) *harness {
	t.Helper()
	h := &harness{
		sched:  NewManualScheduler(),
		timers: NewManualTimers(),
		clock:  NewMockTimeProvider(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)),
		store:  &recordingStore{},
		tones:  &recordingTones{},
	}
	opts.Scheduler = h.sched
	opts.Timers = h.timers
	opts.Time = h.clock
	opts.Store = h.store
	opts.Tones = h.tones
	if opts.Catalog == nil {
		opts.Catalog = quietCatalog(t)
	}
	opts.Bounds = geom.R(0, 0, 800, 600)
	opts.Seed = func() uint64 { return 42 }
	opts.Paint = func() { h.paints++ }
	h.ctl = NewController(opts)
	return h
}

// advance 推进真实时间，依次触发定时器与帧
func (h *harness) advance(d time.Duration) {
	h.clock.Advance(d)
	h.timers.Advance(d)
	h.sched.Fire()
}

func (h *harness) run(total, step time.Duration) {
	for elapsed := time.Duration(0); elapsed < total; elapsed += step {
		h.advance(step)
	}
}

func (h *harness) mustStart(t *testing.T, mode sim.Mode, diff sim.Difficulty) {
	t.Helper()
	if err := h.ctl.Start(context.Background(), mode, diff); err != nil {
		t.Fatalf("start: %v", err)
	}
}

func (h *harness) assertQuiet(t *testing.T, when string) {
	t.Helper()
	testutil.AssertEqual(t, when+": pending frames", h.sched.Pending(), 0)
	testutil.AssertEqual(t, when+": live timers", h.timers.Live(), 0)
}

type entityState struct {
	Pos, Vel geom.Vec2
	Body     sim.Body
}

func entityStates(w *sim.World) map[sim.EntityID]entityState {
	out := make(map[sim.EntityID]entityState)
	w.Entities.Each(func(e *sim.Entity) {
		out[e.ID] = entityState{Pos: e.Pos, Vel: e.Vel, Body: e.Body}
	})
	return out
}

func TestController_PauseFreezesWorld(t *testing.T) {
	h := newHarness(t, Options{Catalog: sim.NewCatalog()})
	h.mustStart(t, sim.ModeSkillshot, sim.DifficultyEasy)
	h.run(3*time.Second, time.Second/60)
	h.ctl.QuickCast(sim.AbilityQ)
	h.run(100*time.Millisecond, time.Second/60)

	if err := h.ctl.Pause(); err != nil {
		t.Fatalf("pause: %v", err)
	}
	h.assertQuiet(t, "paused")
	snap := h.ctl.World().Clone()
	elapsed := h.ctl.Elapsed()
	if snap.Entities.Len() == 0 || len(snap.Cooldowns) == 0 || len(snap.Effects) == 0 {
		t.Fatalf("expected entities, cooldowns and effects before pausing")
	}

	h.run(10*time.Second, time.Second/60)
	got := h.ctl.World()
	testutil.AssertEqual(t, "frame frozen", got.Frame, snap.Frame)
	testutil.AssertEqual(t, "elapsed frozen", h.ctl.Elapsed(), elapsed)
	testutil.AssertEqual(t, "world elapsed", got.Elapsed, snap.Elapsed)
	testutil.AssertEqual(t, "stats", got.Stats, snap.Stats)
	testutil.AssertEqual(t, "player", got.Player, snap.Player)
	testutil.AssertEqual(t, "entities", entityStates(got), entityStates(snap))
	testutil.AssertEqual(t, "effects", got.Effects, snap.Effects)
	testutil.AssertEqual(t, "cooldowns", got.Cooldowns, snap.Cooldowns)
	testutil.AssertEqual(t, "level", got.Level, snap.Level)
	testutil.AssertEqual(t, "input ignored", h.ctl.HandlePointers([]input.Pointer{{ID: 0, Phase: input.PointerDown, Pos: geom.V(10, 10)}}), false)
	testutil.AssertEqual(t, "still rendered", h.ctl.View().World != nil, true)
}

func TestController_ElapsedExcludesPauses(t *testing.T) {
	h := newHarness(t, Options{})
	h.mustStart(t, sim.ModeSkillshot, sim.DifficultyEasy)

	h.advance(10 * time.Second)
	if err := h.ctl.Pause(); err != nil {
		t.Fatalf("pause: %v", err)
	}
	h.advance(5 * time.Second)
	if err := h.ctl.Resume(); err != nil {
		t.Fatalf("resume: %v", err)
	}
	h.advance(5 * time.Second)

	testutil.AssertEqual(t, "elapsed", h.ctl.Elapsed(), 15*time.Second)
	testutil.AssertEqual(t, "world elapsed", h.ctl.World().Elapsed, 15*time.Second)
	testutil.AssertEqual(t, "one frame pending", h.sched.Pending(), 1)
	testutil.AssertEqual(t, "one countdown", h.timers.Live(), 1)
}

// staleScheduler 模拟取消后仍然触发的宿主帧
type staleScheduler struct {
	fns  []func()
	next FrameID
}

func (s *staleScheduler) RequestFrame(fn func()) FrameID {
	s.fns = append(s.fns, fn)
	s.next++
	return s.next
}

func (s *staleScheduler) CancelFrame(FrameID) {}

func TestController_StaleFrameIsNoOp(t *testing.T) {
	sched := &staleScheduler{}
	clock := NewMockTimeProvider(time.Unix(0, 0))
	ctl := NewController(Options{
		Scheduler: sched,
		Time:      clock,
		Catalog:   quietCatalog(t),
		Bounds:    geom.R(0, 0, 800, 600),
	})
	if err := ctl.Start(context.Background(), sim.ModeDodge, sim.DifficultyEasy); err != nil {
		t.Fatalf("start: %v", err)
	}
	first := sched.fns[0]

	if err := ctl.Pause(); err != nil {
		t.Fatalf("pause: %v", err)
	}
	clock.Advance(time.Second)
	first()
	testutil.AssertEqual(t, "paused frame", ctl.World().Frame, 0)

	if err := ctl.Restart(context.Background()); err != nil {
		t.Fatalf("restart: %v", err)
	}
	first()
	testutil.AssertEqual(t, "previous run frame", ctl.World().Frame, 0)

	sched.fns[len(sched.fns)-1]()
	testutil.AssertEqual(t, "current frame", ctl.World().Frame, 1)
}

func TestController_ReportsExactlyOnceOnTimeUp(t *testing.T) {
	h := newHarness(t, Options{Player: "tester"})
	h.mustStart(t, sim.ModeDodge, sim.DifficultyEasy)

	h.run(65*time.Second, 100*time.Millisecond)

	testutil.AssertEqual(t, "phase", h.ctl.Phase(), PhaseGameOver)
	testutil.AssertEqual(t, "reports", len(h.store.results), 1)
	h.assertQuiet(t, "game over")

	r := h.store.results[0]
	testutil.AssertEqual(t, "session id", r.SessionID, h.ctl.SessionID())
	testutil.AssertEqual(t, "player", r.Player, "tester")
	testutil.AssertEqual(t, "mode", r.Mode, sim.ModeDodge)
	testutil.AssertEqual(t, "difficulty", r.Difficulty, sim.DifficultyEasy)
	testutil.AssertEqual(t, "completed", r.Completed, true)
	testutil.AssertEqual(t, "reason", r.Reason, "time_up")
	testutil.AssertEqual(t, "elapsed ms", r.ElapsedMs, int64(60000))

	if err := h.ctl.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	h.run(time.Second, time.Second/60)
	testutil.AssertEqual(t, "still one report", len(h.store.results), 1)
}

func TestController_SurvivalReportsOnceWhenOutOfLives(t *testing.T) {
	tests := map[string]struct {
		mode sim.Mode
		tune func(p *sim.Preset)
	}{
		"skillshot": {mode: sim.ModeSkillshot, tune: func(p *sim.Preset) { p.TargetLifetime = 500 * time.Millisecond }},
		"lasthit":   {mode: sim.ModeLastHit, tune: func(p *sim.Preset) { p.AIDamage = 1000 }},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			cat := sim.NewCatalog()
			p, err := cat.Lookup(tt.mode, sim.DifficultySurvival)
			if err != nil {
				t.Fatalf("lookup: %v", err)
			}
			tt.tune(&p)
			if err := cat.Set(p); err != nil {
				t.Fatalf("set preset: %v", err)
			}
			h := newHarness(t, Options{Catalog: cat})
			h.mustStart(t, tt.mode, sim.DifficultySurvival)

			for i := 0; i < 60*300 && h.ctl.Phase() == PhasePlaying; i++ {
				h.advance(time.Second / 60)
			}

			testutil.AssertEqual(t, "phase", h.ctl.Phase(), PhaseGameOver)
			testutil.AssertEqual(t, "reports", len(h.store.results), 1)
			h.assertQuiet(t, "game over")
			r := h.store.results[0]
			testutil.AssertEqual(t, "reason", r.Reason, "out_of_lives")
			testutil.AssertEqual(t, "completed", r.Completed, true)

			h.run(5*time.Second, time.Second/60)
			testutil.AssertEqual(t, "still one report", len(h.store.results), 1)
		})
	}
}

func TestController_StopDoesNotReport(t *testing.T) {
	h := newHarness(t, Options{})
	h.mustStart(t, sim.ModeLastHit, sim.DifficultyHard)
	h.run(2*time.Second, time.Second/30)

	if err := h.ctl.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	h.assertQuiet(t, "stopped")
	testutil.AssertEqual(t, "phase", h.ctl.Phase(), PhaseIdle)
	testutil.AssertEqual(t, "world discarded", h.ctl.World() == nil, true)
	testutil.AssertEqual(t, "reports", len(h.store.results), 0)
	_, ok := h.ctl.Result()
	testutil.AssertEqual(t, "no result", ok, false)
}

func TestController_RestartEqualsFreshStart(t *testing.T) {
	h := newHarness(t, Options{})
	h.mustStart(t, sim.ModeSkillshot, sim.DifficultyMedium)
	firstID := h.ctl.SessionID()
	h.ctl.QuickCast(sim.AbilityQ)
	h.run(3*time.Second, time.Second/60)

	if err := h.ctl.Restart(context.Background()); err != nil {
		t.Fatalf("restart: %v", err)
	}
	testutil.AssertEqual(t, "pending frames", h.sched.Pending(), 1)
	testutil.AssertEqual(t, "live timers", h.timers.Live(), 1)

	fresh := newHarness(t, Options{})
	fresh.mustStart(t, sim.ModeSkillshot, sim.DifficultyMedium)

	got, exp := h.ctl.World(), fresh.ctl.World()
	testutil.AssertEqual(t, "stats", got.Stats, exp.Stats)
	testutil.AssertEqual(t, "frame", got.Frame, exp.Frame)
	testutil.AssertEqual(t, "entities", got.Entities.Len(), exp.Entities.Len())
	testutil.AssertEqual(t, "player", got.Player.Pos, exp.Player.Pos)
	testutil.AssertEqual(t, "cooldowns", len(got.Cooldowns), 0)
	testutil.AssertEqual(t, "effects", len(got.Effects), 0)
	testutil.AssertEqual(t, "elapsed", h.ctl.Elapsed(), time.Duration(0))
	if h.ctl.SessionID() == firstID {
		t.Errorf("expected a new session id")
	}

	h.run(time.Second, time.Second/60)
	fresh.run(time.Second, time.Second/60)
	testutil.AssertEqual(t, "same run after restart", h.ctl.World().Stats, fresh.ctl.World().Stats)
}

func TestController_InvalidTransitions(t *testing.T) {
	ctx := context.Background()

	tests := map[string]struct {
		setup  func(t *testing.T, h *harness)
		act    func(c *Controller) error
		expErr error
		phase  Phase
	}{
		"pause from idle":   {act: (*Controller).Pause, expErr: ErrInvalidTransition, phase: PhaseIdle},
		"resume from idle":  {act: (*Controller).Resume, expErr: ErrInvalidTransition, phase: PhaseIdle},
		"restart never run": {act: func(c *Controller) error { return c.Restart(ctx) }, expErr: ErrNoPreviousRun, phase: PhaseIdle},
		"unknown mode": {
			act:    func(c *Controller) error { return c.Start(ctx, "jungle", sim.DifficultyEasy) },
			expErr: sim.ErrUnknownMode, phase: PhaseIdle,
		},
		"unknown difficulty": {
			act:    func(c *Controller) error { return c.Start(ctx, sim.ModeDodge, "expert") },
			expErr: sim.ErrUnknownDifficulty, phase: PhaseIdle,
		},
		"start while playing": {
			setup:  func(t *testing.T, h *harness) { h.mustStart(t, sim.ModeDodge, sim.DifficultyEasy) },
			act:    func(c *Controller) error { return c.Start(ctx, sim.ModeDodge, sim.DifficultyEasy) },
			expErr: ErrInvalidTransition, phase: PhasePlaying,
		},
		"resume while playing": {
			setup:  func(t *testing.T, h *harness) { h.mustStart(t, sim.ModeDodge, sim.DifficultyEasy) },
			act:    (*Controller).Resume,
			expErr: ErrInvalidTransition, phase: PhasePlaying,
		},
		"restart after stop": {
			setup: func(t *testing.T, h *harness) {
				h.mustStart(t, sim.ModeDodge, sim.DifficultyEasy)
				_ = h.ctl.Stop()
			},
			act:   func(c *Controller) error { return c.Restart(ctx) },
			phase: PhasePlaying,
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t, Options{})
			if tt.setup != nil {
				tt.setup(t, h)
			}
			err := tt.act(h.ctl)
			if !errors.Is(err, tt.expErr) {
				t.Errorf("expected %v, got %v", tt.expErr, err)
			}
			testutil.AssertEqual(t, "phase", h.ctl.Phase(), tt.phase)
		})
	}
}

func TestController_ImmersiveFailureIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	imm := &failingImmersive{}
	h := newHarness(t, Options{Immersive: imm, Logger: zap.New(core).Sugar()})

	h.mustStart(t, sim.ModeDodge, sim.DifficultyEasy)
	testutil.AssertEqual(t, "phase", h.ctl.Phase(), PhasePlaying)
	testutil.AssertEqual(t, "warnings", logs.FilterMessage("enter immersive mode failed").Len(), 1)

	if err := h.ctl.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	testutil.AssertEqual(t, "no exit without enter", imm.exits, 0)
}

func TestController_StoreFailureIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	h := newHarness(t, Options{Logger: zap.New(core).Sugar()})
	h.store.err = errors.New("backend down")

	h.mustStart(t, sim.ModeDodge, sim.DifficultyEasy)
	h.run(61*time.Second, time.Second)

	testutil.AssertEqual(t, "phase", h.ctl.Phase(), PhaseGameOver)
	testutil.AssertEqual(t, "attempts", len(h.store.results), 1)
	testutil.AssertEqual(t, "errors", logs.FilterMessage("report session result failed").Len(), 1)
}

func TestController_CountdownBeepsLastSeconds(t *testing.T) {
	h := newHarness(t, Options{})
	h.mustStart(t, sim.ModeDodge, sim.DifficultyEasy)

	h.run(61*time.Second, time.Second)

	testutil.AssertEqual(t, "beeps", len(h.tones.freqs), countdownBeeps)
	testutil.AssertEqual(t, "final beep", h.tones.freqs[len(h.tones.freqs)-1], finalBeepFreq)
	testutil.AssertEqual(t, "phase", h.ctl.Phase(), PhaseGameOver)
}

func TestController_SurvivalHasNoCountdown(t *testing.T) {
	h := newHarness(t, Options{})
	h.mustStart(t, sim.ModeDodge, sim.DifficultySurvival)

	testutil.AssertEqual(t, "timers", h.timers.Live(), 0)
	h.run(25*time.Second, time.Second/10)
	testutil.AssertEqual(t, "level", h.ctl.World().Level, 3)
	testutil.AssertEqual(t, "phase", h.ctl.Phase(), PhasePlaying)
}

func TestController_ViewOverlay(t *testing.T) {
	h := newHarness(t, Options{})
	testutil.AssertEqual(t, "idle paints nothing yet", h.paints, 0)

	h.mustStart(t, sim.ModeSkillshot, sim.DifficultyEasy)
	testutil.AssertEqual(t, "start paints", h.paints, 1)
	h.advance(time.Second / 60)
	testutil.AssertEqual(t, "frame paints", h.paints, 2)

	if err := h.ctl.Pause(); err != nil {
		t.Fatalf("pause: %v", err)
	}
	testutil.AssertEqual(t, "paused overlay", h.ctl.View().Overlay, render.OverlayPaused)
}
