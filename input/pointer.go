package input

import (
	"math"

	"skilltrainer/geom"
)

// PointerPhase 指针事件阶段
type PointerPhase uint8

const (
	PointerDown PointerPhase = iota + 1
	PointerMove
	PointerUp
)

// MousePointer 鼠标固定使用的指针 id；触摸点使用宿主提供的标识
const MousePointer = 0

// Pointer 一次原始指针事件（鼠标或触摸），坐标为画布坐标
type Pointer struct {
	ID    int          `json:"id" msgpack:"id"`
	Phase PointerPhase `json:"phase" msgpack:"phase"`
	Pos   geom.Vec2    `json:"pos" msgpack:"pos"`
}

// valid 坐标为有限值且阶段已知
func (p Pointer) valid() bool {
	if p.Phase < PointerDown || p.Phase > PointerUp {
		return false
	}
	return finite(p.Pos.X) && finite(p.Pos.Y)
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }
