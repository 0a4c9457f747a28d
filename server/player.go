package server

import (
	"skilltrainer/render"
	"skilltrainer/session"
)

// PlayerID 连接上报的玩家名，用于排行榜与个人统计
type PlayerID string

// 出站消息类型
const (
	MsgFrame  = "frame"
	MsgResult = "result"
	MsgError  = "error"
)

// FrameMessage 一帧的显示列表，浏览器按顺序回放
type FrameMessage struct {
	Type      string      `json:"type" msgpack:"type"`
	Seq       uint64      `json:"seq" msgpack:"seq"`
	Session   string      `json:"session,omitempty" msgpack:"session,omitempty"`
	Phase     string      `json:"phase" msgpack:"phase"`
	ElapsedMs int64       `json:"elapsedMs" msgpack:"elapsedMs"`
	Width     float64     `json:"width" msgpack:"width"`
	Height    float64     `json:"height" msgpack:"height"`
	Ops       []render.Op `json:"ops" msgpack:"ops"`
}

// ResultMessage 一局结束后推送一次
type ResultMessage struct {
	Type   string         `json:"type" msgpack:"type"`
	Result session.Result `json:"result" msgpack:"result"`
}

// ErrorMessage 拒绝的控制消息
type ErrorMessage struct {
	Type  string `json:"type" msgpack:"type"`
	Seq   int64  `json:"seq,omitempty" msgpack:"seq,omitempty"`
	Error string `json:"error" msgpack:"error"`
}
