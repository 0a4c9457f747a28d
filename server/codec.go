package server

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"
)

var ErrUnknownCodec = errors.New("unknown codec")

// Codec 连接使用的编码；由 ?codec= 选择
type Codec uint8

const (
	CodecJSON Codec = iota
	CodecMsgpack
)

func ParseCodec(s string) (Codec, error) {
	switch s {
	case "", "json":
		return CodecJSON, nil
	case "msgpack":
		return CodecMsgpack, nil
	}
	return CodecJSON, fmt.Errorf("%w: %q", ErrUnknownCodec, s)
}

func (c Codec) String() string {
	if c == CodecMsgpack {
		return "msgpack"
	}
	return "json"
}

func (c Codec) Marshal(v any) ([]byte, error) {
	if c == CodecMsgpack {
		return msgpack.Marshal(v)
	}
	return json.Marshal(v)
}

func (c Codec) Unmarshal(b []byte, v any) error {
	if c == CodecMsgpack {
		return msgpack.Unmarshal(b, v)
	}
	return json.Unmarshal(b, v)
}

// MessageType 对应的 WebSocket 帧类型
func (c Codec) MessageType() int {
	if c == CodecMsgpack {
		return websocket.BinaryMessage
	}
	return websocket.TextMessage
}
