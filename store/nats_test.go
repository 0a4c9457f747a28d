package store

import (
	"context"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/pixil98/go-testutil"

	"skilltrainer/sim"
)

func startBroker(t *testing.T) *nats.Conn {
	t.Helper()
	b, err := NewBroker(WithBrokerPort(-1), WithBrokerStartTimeout(5*time.Second))
	if err != nil {
		t.Fatalf("new broker: %v", err)
	}
	if err := b.Start(); err != nil {
		t.Fatalf("start broker: %v", err)
	}
	t.Cleanup(b.Shutdown)

	conn, err := nats.Connect(b.ClientURL())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(conn.Close)
	return conn
}

func TestPublisher_Subject(t *testing.T) {
	p := NewPublisher(nil, "")
	r := result("s", "", sim.ModeLastHit, sim.DifficultyHard, 0, 0)
	testutil.AssertEqual(t, "subject", p.Subject(r), "trainer.results.lasthit.hard")
}

func TestPublisher_MirrorRoundTrip(t *testing.T) {
	conn := startBroker(t)
	mem := NewMemory()
	stop, err := Mirror(conn, "", mem, nil)
	if err != nil {
		t.Fatalf("mirror: %v", err)
	}
	defer stop()
	if err := conn.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	pub := NewPublisher(conn, "")
	sent := result("abc", "ana", sim.ModeSkillshot, sim.DifficultyMedium, 72.5, 3)
	sent.Stats = sim.Stats{Hits: 9, Misses: 1, ComboMax: 6}
	if err := pub.Complete(context.Background(), sent); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := conn.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for mem.Len() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	got, err := mem.Get("abc")
	if err != nil {
		t.Fatalf("mirrored result missing: %v", err)
	}
	testutil.AssertEqual(t, "player", got.Player, "ana")
	testutil.AssertEqual(t, "mode", got.Mode, sim.ModeSkillshot)
	testutil.AssertEqual(t, "final", got.Score.Final, 72.5)
	testutil.AssertEqual(t, "combo", got.Stats.ComboMax, 6)
	testutil.AssertEqual(t, "finished", got.FinishedAt.Equal(sent.FinishedAt), true)
}
