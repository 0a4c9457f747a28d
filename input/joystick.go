package input

import (
	"skilltrainer/geom"
)

// Joystick 虚拟摇杆：只跟随区域内第一个按下的指针
type Joystick struct {
	Center  geom.Vec2
	Radius  float64 // 可按下的区域
	MaxDrag float64 // 达到单位长度所需的拖动距离

	active  bool
	pointer int
	origin  geom.Vec2
	vec     geom.Vec2
}

func NewJoystick(center geom.Vec2, radius float64) *Joystick {
	return &Joystick{Center: center, Radius: radius, MaxDrag: radius}
}

func (j *Joystick) Contains(p geom.Vec2) bool { return p.Dist(j.Center) <= j.Radius }

// Owns 该指针是否正在驱动摇杆
func (j *Joystick) Owns(id int) bool { return j.active && j.pointer == id }

func (j *Joystick) Active() bool { return j.active }

// Down 已有指针时忽略新的按下
func (j *Joystick) Down(p Pointer) bool {
	if j.active || !j.Contains(p.Pos) {
		return false
	}
	j.active = true
	j.pointer = p.ID
	j.origin = j.Center
	j.track(p.Pos)
	return true
}

// Move 指针离开区域后仍以按下时记住的原点计算
func (j *Joystick) Move(p Pointer) {
	if j.Owns(p.ID) {
		j.track(p.Pos)
	}
}

func (j *Joystick) Up(p Pointer) {
	if j.Owns(p.ID) {
		j.Release()
	}
}

func (j *Joystick) Release() {
	j.active = false
	j.vec = geom.Vec2{}
}

func (j *Joystick) track(at geom.Vec2) {
	if j.MaxDrag <= 0 {
		j.vec = geom.Vec2{}
		return
	}
	d := at.Sub(j.origin)
	j.vec = geom.V(d.X/j.MaxDrag, d.Y/j.MaxDrag).ClampLen(1)
}

// Vector 移动意图，长度不超过 1；空闲时为零
func (j *Joystick) Vector() geom.Vec2 { return j.vec }

// Knob 摇杆头的绘制位置
func (j *Joystick) Knob() geom.Vec2 { return j.Center.Add(j.vec.Scale(j.MaxDrag)) }
