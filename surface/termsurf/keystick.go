package termsurf

import (
	"time"

	"github.com/gdamore/tcell/v2"

	"skilltrainer/geom"
	"skilltrainer/input"
)

// KeyPointer 方向键模拟摇杆时占用的指针 id
const KeyPointer = 1 << 20

// HoldTimeout 终端没有按键抬起事件，超过这个时长没有重复按键就视为松开
const HoldTimeout = 350 * time.Millisecond

var arrowDirs = map[tcell.Key]geom.Vec2{
	tcell.KeyUp:    geom.V(0, -1),
	tcell.KeyDown:  geom.V(0, 1),
	tcell.KeyLeft:  geom.V(-1, 0),
	tcell.KeyRight: geom.V(1, 0),
}

// keyStick 把方向键的按压转换成对摇杆的按下、拖动、抬起
type keyStick struct {
	held   map[tcell.Key]time.Time
	active bool
	last   geom.Vec2
}

func newKeyStick() *keyStick {
	return &keyStick{held: make(map[tcell.Key]time.Time)}
}

// press 记录一次方向键；非方向键返回 false
func (k *keyStick) press(key tcell.Key, now time.Time) bool {
	if _, ok := arrowDirs[key]; !ok {
		return false
	}
	k.held[key] = now
	return true
}

// dir 仍在保持时间内的方向键合成的方向
func (k *keyStick) dir(now time.Time) geom.Vec2 {
	var v geom.Vec2
	for key, at := range k.held {
		if now.Sub(at) > HoldTimeout {
			delete(k.held, key)
			continue
		}
		v = v.Add(arrowDirs[key])
	}
	return v.Normalize()
}

// poll 生成本帧的指针事件；stick 为空时（未在对局中）只松开
func (k *keyStick) poll(stick *input.Joystick, now time.Time) []input.Pointer {
	if stick == nil {
		k.active = false
		clear(k.held)
		return nil
	}
	// 新一局换了摇杆，重新按下
	if k.active && !stick.Owns(KeyPointer) {
		k.active = false
	}
	d := k.dir(now)
	if d.IsZero() {
		if !k.active {
			return nil
		}
		k.active = false
		return []input.Pointer{{ID: KeyPointer, Phase: input.PointerUp, Pos: stick.Center}}
	}
	at := stick.Center.Add(d.Scale(stick.Radius))
	switch {
	case !k.active:
		k.active, k.last = true, at
		return []input.Pointer{
			{ID: KeyPointer, Phase: input.PointerDown, Pos: stick.Center},
			{ID: KeyPointer, Phase: input.PointerMove, Pos: at},
		}
	case at != k.last:
		k.last = at
		return []input.Pointer{{ID: KeyPointer, Phase: input.PointerMove, Pos: at}}
	}
	return nil
}
