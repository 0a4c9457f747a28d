package server

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/pixil98/go-testutil"
	"github.com/vmihailenco/msgpack/v5"

	"skilltrainer/geom"
	"skilltrainer/input"
	"skilltrainer/session"
	"skilltrainer/sim"
	"skilltrainer/store"
)

func init() {
	sim.RegisterPattern("server-quiet", func(sim.PatternInput) []sim.Launch { return nil })
}

type recordingSink struct {
	msgs [][]byte
	full bool
}

func (s *recordingSink) Enqueue(b []byte) bool {
	if s.full {
		return false
	}
	s.msgs = append(s.msgs, b)
	return true
}

// byType 按 type 字段取出 JSON 消息
func (s *recordingSink) byType(t *testing.T, typ string) []json.RawMessage {
	t.Helper()
	var out []json.RawMessage
	for _, b := range s.msgs {
		var head struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(b, &head); err != nil {
			t.Fatalf("decoding outbound message: %v", err)
		}
		if head.Type == typ {
			out = append(out, b)
		}
	}
	return out
}

type runnerHarness struct {
	r       *Runner
	sink    *recordingSink
	clock   *session.MockTimeProvider
	results *store.Memory
	metrics *Metrics
}

func newRunnerHarness(t *testing.T, codec Codec, maxInputs int) *runnerHarness {
	t.Helper()
	cat := sim.NewCatalog()
	for _, p := range cat.All() {
		p.Patterns = []string{"server-quiet"}
		if err := cat.Set(p); err != nil {
			t.Fatalf("set preset: %v", err)
		}
	}
	h := &runnerHarness{
		sink:    &recordingSink{},
		clock:   session.NewMockTimeProvider(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)),
		results: store.NewMemory(),
		metrics: &Metrics{},
	}
	h.r = NewRunner(RunnerOptions{
		ID:               "runner-1",
		Player:           "ana",
		Codec:            codec,
		Catalog:          cat,
		Store:            h.results,
		Metrics:          h.metrics,
		Time:             h.clock,
		Seed:             func() uint64 { return 7 },
		MaxInputsPerLoop: maxInputs,
	}, h.sink)
	return h
}

// loop 推进时钟后执行一次帧循环
func (h *runnerHarness) loop(d time.Duration) {
	h.clock.Advance(d)
	h.r.Loop(h.clock.Now())
}

func pointerMsg(seq int64, phase input.PointerPhase, x, y float64) ClientMessage {
	return ClientMessage{
		Type:     MsgPointer,
		Seq:      seq,
		Pointers: []input.Pointer{{ID: input.MousePointer, Phase: phase, Pos: geom.V(x, y)}},
	}
}

func TestRunner_StartSendsPlayingFrame(t *testing.T) {
	h := newRunnerHarness(t, CodecJSON, 0)
	h.r.OnInput(ClientMessage{Type: MsgStart, Mode: sim.ModeDodge, Difficulty: sim.DifficultyEasy})
	h.loop(16 * time.Millisecond)

	testutil.AssertEqual(t, "phase", h.r.Controller().Phase(), session.PhasePlaying)
	frames := h.sink.byType(t, MsgFrame)
	if len(frames) == 0 {
		t.Fatalf("expected a frame message")
	}
	var f FrameMessage
	if err := json.Unmarshal(frames[len(frames)-1], &f); err != nil {
		t.Fatalf("decoding frame: %v", err)
	}
	testutil.AssertEqual(t, "frame phase", f.Phase, "playing")
	testutil.AssertEqual(t, "frame session", f.Session, h.r.Controller().SessionID())
	testutil.AssertEqual(t, "width", f.Width, Bounds.W)
	if len(f.Ops) == 0 {
		t.Errorf("expected display list ops")
	}
	testutil.AssertEqual(t, "started", h.metrics.SessionsStarted, int64(1))
}

func TestRunner_NoChangeNoFrame(t *testing.T) {
	h := newRunnerHarness(t, CodecJSON, 0)
	h.loop(16 * time.Millisecond)
	sent := len(h.sink.msgs)
	testutil.AssertEqual(t, "idle frame", sent, 1)

	h.loop(16 * time.Millisecond)
	testutil.AssertEqual(t, "nothing new while idle", len(h.sink.msgs), sent)
}

func TestRunner_TimeUpReportsOnce(t *testing.T) {
	h := newRunnerHarness(t, CodecJSON, 0)
	h.r.OnInput(ClientMessage{Type: MsgStart, Mode: sim.ModeDodge, Difficulty: sim.DifficultyEasy})
	for range 70 {
		h.loop(time.Second)
	}

	testutil.AssertEqual(t, "phase", h.r.Controller().Phase(), session.PhaseGameOver)
	results := h.sink.byType(t, MsgResult)
	testutil.AssertEqual(t, "result messages", len(results), 1)

	var rm ResultMessage
	if err := json.Unmarshal(results[0], &rm); err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	testutil.AssertEqual(t, "reason", rm.Result.Reason, "time_up")
	testutil.AssertEqual(t, "player", rm.Result.Player, "ana")
	testutil.AssertEqual(t, "stored", h.results.Len(), 1)
	testutil.AssertEqual(t, "finished", h.metrics.SessionsFinished, int64(1))

	frames, timers := h.r.loop.Live()
	testutil.AssertEqual(t, "no frames left", frames, 0)
	testutil.AssertEqual(t, "no timers left", timers, 0)
}

func TestRunner_InputAccounting(t *testing.T) {
	tests := map[string]struct {
		start       bool
		maxInputs   int
		msgs        []ClientMessage
		expAccepted int64
		expRejected int64
		expLimited  int64
		expOldSeq   int64
	}{
		"idle input rejected": {
			msgs:        []ClientMessage{pointerMsg(0, input.PointerDown, 400, 300)},
			expRejected: 1,
		},
		"playing input accepted": {
			start:       true,
			msgs:        []ClientMessage{pointerMsg(1, input.PointerDown, 400, 300), pointerMsg(2, input.PointerUp, 400, 300)},
			expAccepted: 2,
		},
		"old sequence ignored": {
			start:       true,
			msgs:        []ClientMessage{pointerMsg(5, input.PointerDown, 90, 530), pointerMsg(3, input.PointerMove, 95, 530)},
			expAccepted: 1,
			expOldSeq:   1,
		},
		"rate limited per loop": {
			start:     true,
			maxInputs: 2,
			msgs: []ClientMessage{
				pointerMsg(0, input.PointerDown, 90, 530),
				pointerMsg(0, input.PointerMove, 95, 530),
				pointerMsg(0, input.PointerMove, 100, 530),
			},
			expAccepted: 2,
			expLimited:  1,
		},
		"quick cast of unknown ability rejected": {
			start:       true,
			msgs:        []ClientMessage{{Type: MsgCast, Ability: sim.AbilityQ}},
			expRejected: 1,
		},
		"quick cast flash": {
			start:       true,
			msgs:        []ClientMessage{{Type: MsgCast, Ability: sim.AbilityFlash}},
			expAccepted: 1,
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			h := newRunnerHarness(t, CodecJSON, tt.maxInputs)
			if tt.start {
				h.r.OnInput(ClientMessage{Type: MsgStart, Mode: sim.ModeDodge, Difficulty: sim.DifficultyEasy})
				h.loop(16 * time.Millisecond)
			}
			for _, m := range tt.msgs {
				h.r.OnInput(m)
			}
			h.loop(16 * time.Millisecond)

			testutil.AssertEqual(t, "accepted", h.metrics.InputsAccepted, tt.expAccepted)
			testutil.AssertEqual(t, "rejected", h.metrics.InputsRejected, tt.expRejected)
			testutil.AssertEqual(t, "rate limited", h.metrics.RateLimited, tt.expLimited)
			testutil.AssertEqual(t, "old seq", h.metrics.OldSeqIgnored, tt.expOldSeq)
		})
	}
}

func TestRunner_RejectedControlSendsError(t *testing.T) {
	h := newRunnerHarness(t, CodecJSON, 0)
	h.r.OnInput(ClientMessage{Type: MsgPause, Seq: 9})
	h.r.OnInput(ClientMessage{Type: MsgStart, Seq: 10, Mode: "chess", Difficulty: sim.DifficultyEasy})
	h.loop(16 * time.Millisecond)

	errs := h.sink.byType(t, MsgError)
	testutil.AssertEqual(t, "errors", len(errs), 2)
	var em ErrorMessage
	if err := json.Unmarshal(errs[0], &em); err != nil {
		t.Fatalf("decoding error: %v", err)
	}
	testutil.AssertEqual(t, "seq", em.Seq, int64(9))
	testutil.AssertEqual(t, "phase unchanged", h.r.Controller().Phase(), session.PhaseIdle)
}

func TestRunner_PauseStopsFrames(t *testing.T) {
	h := newRunnerHarness(t, CodecJSON, 0)
	h.r.OnInput(ClientMessage{Type: MsgStart, Mode: sim.ModeSkillshot, Difficulty: sim.DifficultyEasy})
	h.loop(16 * time.Millisecond)
	h.r.OnInput(ClientMessage{Type: MsgPause})
	h.loop(16 * time.Millisecond)

	frames, timers := h.r.loop.Live()
	testutil.AssertEqual(t, "paused frames", frames, 0)
	testutil.AssertEqual(t, "paused timers", timers, 0)

	sent := len(h.sink.msgs)
	h.loop(5 * time.Second)
	testutil.AssertEqual(t, "no frames while paused", len(h.sink.msgs), sent)

	h.r.OnInput(ClientMessage{Type: MsgResume})
	h.loop(16 * time.Millisecond)
	testutil.AssertEqual(t, "resumed", h.r.Controller().Phase(), session.PhasePlaying)
	if h.r.Controller().Elapsed() > time.Second {
		t.Errorf("pause leaked into elapsed: %v", h.r.Controller().Elapsed())
	}
}

func TestRunner_SendDropped(t *testing.T) {
	h := newRunnerHarness(t, CodecJSON, 0)
	h.sink.full = true
	h.loop(16 * time.Millisecond)
	testutil.AssertEqual(t, "dropped", h.metrics.SendDropped, int64(1))
	testutil.AssertEqual(t, "sent", h.metrics.FramesSent, int64(0))
}

func TestRunner_MsgpackFrames(t *testing.T) {
	h := newRunnerHarness(t, CodecMsgpack, 0)
	h.r.OnInput(ClientMessage{Type: MsgStart, Mode: sim.ModeLastHit, Difficulty: sim.DifficultyEasy})
	h.loop(16 * time.Millisecond)

	last := h.sink.msgs[len(h.sink.msgs)-1]
	var f FrameMessage
	if err := msgpack.Unmarshal(last, &f); err != nil {
		t.Fatalf("decoding msgpack frame: %v", err)
	}
	testutil.AssertEqual(t, "type", f.Type, MsgFrame)
	testutil.AssertEqual(t, "phase", f.Phase, "playing")
	if len(f.Ops) == 0 {
		t.Errorf("expected display list ops")
	}
}

func TestParseCodec(t *testing.T) {
	tests := map[string]struct {
		in     string
		exp    Codec
		expErr bool
	}{
		"default": {in: "", exp: CodecJSON},
		"json":    {in: "json", exp: CodecJSON},
		"msgpack": {in: "msgpack", exp: CodecMsgpack},
		"unknown": {in: "xml", expErr: true},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			c, err := ParseCodec(tt.in)
			if tt.expErr {
				if err == nil {
					t.Errorf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			testutil.AssertEqual(t, "codec", c, tt.exp)
		})
	}
}
