package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendQueue  = 64
)

// ClientConn 负责发送（写）数据到客户端的轻量包装
type ClientConn struct {
	ws      *websocket.Conn
	msgType int
	send    chan []byte

	closeOnce sync.Once
}

func NewClientConn(ws *websocket.Conn, codec Codec) *ClientConn {
	return &ClientConn{
		ws:      ws,
		msgType: codec.MessageType(),
		send:    make(chan []byte, sendQueue),
	}
}

// Enqueue 将要发送的消息压入队列（非阻塞，满则丢弃）
func (c *ClientConn) Enqueue(b []byte) bool {
	select {
	case c.send <- b:
		return true
	default:
		// 为了实时性，丢弃而不是阻塞帧循环
		return false
	}
}

// Close 关闭发送队列；只由会话循环调用，与 Enqueue 同一 goroutine
func (c *ClientConn) Close() {
	c.closeOnce.Do(func() { close(c.send) })
}

// writePump 独立协程，负责从 send 队列写出到 WS，并定期 ping
func (c *ClientConn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteMessage(c.msgType, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump 读取客户端输入，解码后注入会话循环；退出时取消会话
func (c *ClientConn) readPump(runner *Runner, codec Codec, metrics *Metrics, cancel context.CancelFunc) {
	defer cancel()
	c.ws.SetReadLimit(1 << 20) // 1MB
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error { return c.ws.SetReadDeadline(time.Now().Add(pongWait)) })

	for {
		_, payload, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		var m ClientMessage
		if err := codec.Unmarshal(payload, &m); err != nil {
			metrics.IncRejected()
			continue
		}
		runner.OnInput(m)
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		// 演示环境：允许所有来源（生产环境需严格限制）
		return true
	},
}

// HandleWS WebSocket 接入：?player=alice&codec=msgpack
func (m *Manager) HandleWS(w http.ResponseWriter, r *http.Request) {
	codec, err := ParseCodec(r.URL.Query().Get("codec"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	player := PlayerID(r.URL.Query().Get("player"))

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		m.log.Warnw("websocket upgrade failed", "err", err)
		return
	}

	client := NewClientConn(ws, codec)
	ctx, cancel := context.WithCancel(m.base)
	runner := m.Open(ctx, player, codec, client)

	go func() {
		// 会话循环退出后才关闭发送队列
		<-runner.Done()
		client.Close()
	}()
	go client.writePump()
	go client.readPump(runner, codec, m.Metrics, cancel)
}
