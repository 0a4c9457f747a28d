package termsurf

import (
	"context"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/pixil98/go-testutil"

	"skilltrainer/geom"
	"skilltrainer/session"
	"skilltrainer/sim"
)

type hostHarness struct {
	h      *Host
	screen tcell.SimulationScreen
	clock  *session.MockTimeProvider
}

func newHost(t *testing.T) *hostHarness {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	t.Cleanup(screen.Fini)
	screen.SetSize(80, 24)
	clock := session.NewMockTimeProvider(time.Unix(1000, 0))
	return &hostHarness{
		h:      New(screen, Options{Time: clock}),
		screen: screen,
		clock:  clock,
	}
}

func (hh *hostHarness) key(k tcell.Key, r rune) bool {
	return hh.h.Handle(context.Background(), tcell.NewEventKey(k, r, tcell.ModNone))
}

func (hh *hostHarness) frame(d time.Duration) {
	hh.clock.Advance(d)
	hh.h.Frame(hh.clock.Now())
}

func TestHost_MenuKeys(t *testing.T) {
	hh := newHost(t)
	hh.key(tcell.KeyRune, '2')
	hh.key(tcell.KeyTab, 0)
	hh.key(tcell.KeyEnter, 0)

	testutil.AssertEqual(t, "phase", hh.h.Controller().Phase(), session.PhasePlaying)
	testutil.AssertEqual(t, "mode", hh.h.Menu().Mode, sim.ModeDodge)
	testutil.AssertEqual(t, "difficulty", hh.h.Menu().Difficulty, sim.DifficultyMedium)

	hh.key(tcell.KeyRune, 'p')
	testutil.AssertEqual(t, "paused", hh.h.Controller().Phase(), session.PhasePaused)
	hh.key(tcell.KeyRune, ' ')
	testutil.AssertEqual(t, "resumed", hh.h.Controller().Phase(), session.PhasePlaying)
	hh.key(tcell.KeyEscape, 0)
	testutil.AssertEqual(t, "stopped", hh.h.Controller().Phase(), session.PhaseIdle)
}

func TestHost_QuitKeys(t *testing.T) {
	tests := map[string]tcell.Key{
		"ctrl-q": tcell.KeyCtrlQ,
		"ctrl-c": tcell.KeyCtrlC,
	}
	for name, k := range tests {
		t.Run(name, func(t *testing.T) {
			hh := newHost(t)
			testutil.AssertEqual(t, "continue", hh.h.Handle(context.Background(), tcell.NewEventKey(k, 0, tcell.ModCtrl)), false)
		})
	}
}

func TestHost_ArrowKeysDriveStick(t *testing.T) {
	hh := newHost(t)
	hh.key(tcell.KeyEnter, 0)
	stick := hh.h.Controller().Mapper().Stick

	hh.key(tcell.KeyRight, 0)
	hh.frame(10 * time.Millisecond)
	testutil.AssertEqual(t, "moving", stick.Vector(), geom.V(1, 0))

	hh.frame(HoldTimeout + time.Millisecond)
	testutil.AssertEqual(t, "released", stick.Vector(), geom.Vec2{})
	testutil.AssertEqual(t, "inactive", stick.Active(), false)
}

func TestHost_MouseTapStarts(t *testing.T) {
	hh := newHost(t)
	ctx := context.Background()
	hh.h.Handle(ctx, tcell.NewEventMouse(40, 12, tcell.Button1, tcell.ModNone))
	testutil.AssertEqual(t, "phase", hh.h.Controller().Phase(), session.PhasePlaying)

	hh.h.Handle(ctx, tcell.NewEventMouse(40, 12, tcell.ButtonNone, tcell.ModNone))
	testutil.AssertEqual(t, "release queued", len(hh.h.pending), 1)
	hh.frame(10 * time.Millisecond)
	testutil.AssertEqual(t, "drained", len(hh.h.pending), 0)
}

func TestHost_MouseDragsStick(t *testing.T) {
	hh := newHost(t)
	ctx := context.Background()
	hh.key(tcell.KeyEnter, 0)
	stick := hh.h.Controller().Mapper().Stick

	col, row := hh.h.canvas.CellAt(stick.Center)
	hh.h.Handle(ctx, tcell.NewEventMouse(col, row, tcell.Button1, tcell.ModNone))
	hh.h.Handle(ctx, tcell.NewEventMouse(col+3, row, tcell.Button1, tcell.ModNone))
	hh.frame(10 * time.Millisecond)
	testutil.AssertEqual(t, "active", stick.Active(), true)
	if stick.Vector().X <= 0 {
		t.Errorf("expected a rightward vector, got %v", stick.Vector())
	}

	hh.h.Handle(ctx, tcell.NewEventMouse(col+3, row, tcell.ButtonNone, tcell.ModNone))
	hh.frame(10 * time.Millisecond)
	testutil.AssertEqual(t, "released", stick.Active(), false)
}

func TestHost_IdleFrameShowsHint(t *testing.T) {
	hh := newHost(t)
	hh.frame(0)
	mainc, _, _, _ := hh.screen.GetContent(0, 23)
	testutil.AssertEqual(t, "hint starts with mode", mainc, 's')
}
