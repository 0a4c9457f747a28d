package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pixil98/go-testutil"

	"skilltrainer/sim"
)

func TestHandleWS_StartAndReceiveFrames(t *testing.T) {
	m := newTestManager(t)
	srv := httptest.NewServer(http.HandlerFunc(m.HandleWS))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?player=ana"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer ws.Close()

	start, _ := json.Marshal(ClientMessage{Type: MsgStart, Seq: 1, Mode: sim.ModeDodge, Difficulty: sim.DifficultyEasy})
	if err := ws.WriteMessage(websocket.TextMessage, start); err != nil {
		t.Fatalf("write: %v", err)
	}

	_ = ws.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		mt, payload, err := ws.ReadMessage()
		if err != nil {
			t.Fatalf("never saw a playing frame: %v", err)
		}
		testutil.AssertEqual(t, "text frames", mt, websocket.TextMessage)
		var f FrameMessage
		if err := json.Unmarshal(payload, &f); err != nil {
			t.Fatalf("decoding: %v", err)
		}
		if f.Type == MsgFrame && f.Phase == "playing" {
			break
		}
	}
	testutil.AssertEqual(t, "one connection", m.Len(), 1)

	_ = ws.Close()
	deadline := time.Now().Add(3 * time.Second)
	for m.Len() > 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	testutil.AssertEqual(t, "runner removed", m.Len(), 0)
}

func TestHandleWS_UnknownCodec(t *testing.T) {
	m := newTestManager(t)
	srv := httptest.NewServer(http.HandlerFunc(m.HandleWS))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?codec=xml"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatalf("expected handshake failure")
	}
	testutil.AssertEqual(t, "status", resp.StatusCode, http.StatusBadRequest)
}
