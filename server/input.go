package server

import (
	"skilltrainer/input"
	"skilltrainer/sim"
)

// 入站消息类型
const (
	MsgPointer = "pointer"
	MsgCast    = "cast"
	MsgStart   = "start"
	MsgPause   = "pause"
	MsgResume  = "resume"
	MsgStop    = "stop"
	MsgRestart = "restart"
)

// ClientMessage 客户端输入（意图），在会话循环中解释
// 示例：{"type":"pointer","seq":12,"pointers":[{"id":0,"phase":1,"pos":{"x":90,"y":530}}]}
//
//	{"type":"start","mode":"dodge","difficulty":"easy"}
type ClientMessage struct {
	Type       string          `json:"type" msgpack:"type"`
	Seq        int64           `json:"seq,omitempty" msgpack:"seq,omitempty"` // 客户端本地序列号，用于去重
	Pointers   []input.Pointer `json:"pointers,omitempty" msgpack:"pointers,omitempty"`
	Ability    sim.AbilityID   `json:"ability,omitempty" msgpack:"ability,omitempty"`
	Mode       sim.Mode        `json:"mode,omitempty" msgpack:"mode,omitempty"`
	Difficulty sim.Difficulty  `json:"difficulty,omitempty" msgpack:"difficulty,omitempty"`
}

// control 是否为生命周期控制消息（不参与限流）
func (m ClientMessage) control() bool {
	switch m.Type {
	case MsgStart, MsgPause, MsgResume, MsgStop, MsgRestart:
		return true
	}
	return false
}
