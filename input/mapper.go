package input

import (
	"skilltrainer/geom"
	"skilltrainer/sim"
)

const (
	stickRadius  = 60.0
	buttonRadius = 40.0
	buttonGap    = 100.0
)

// Mapper 把原始指针批次路由到摇杆、瞄准按钮和目标点选，
// 每帧由 Intent 取走累计的意图
type Mapper struct {
	Stick   *Joystick
	Buttons []*AimButton

	casts     []sim.Cast
	designate *geom.Vec2
}

// NewMapper 在画布底部操作区内布局摇杆（左）和技能按钮（右，从右向左）
func NewMapper(bounds geom.Rect, abilities []sim.Ability) *Mapper {
	y := bounds.Bottom() - sim.ControlsHeight/2
	m := &Mapper{
		Stick: NewJoystick(geom.V(bounds.X+sim.SideGutter+stickRadius, y), stickRadius),
	}
	x := bounds.Right() - sim.SideGutter - buttonRadius
	for _, a := range abilities {
		m.Buttons = append(m.Buttons, NewAimButton(a, geom.V(x, y), buttonRadius))
		x -= buttonGap
	}
	return m
}

// Handle 处理一批指针事件；空批次或非法事件不产生任何意图
func (m *Mapper) Handle(batch []Pointer) {
	for _, p := range batch {
		if !p.valid() {
			continue
		}
		switch p.Phase {
		case PointerDown:
			m.down(p)
		case PointerMove:
			m.Stick.Move(p)
			for _, b := range m.Buttons {
				b.Move(p)
			}
		case PointerUp:
			m.Stick.Up(p)
			for _, b := range m.Buttons {
				if c, ok := b.Up(p); ok {
					m.casts = append(m.casts, c)
				}
			}
		}
	}
}

func (m *Mapper) down(p Pointer) {
	// 已被某个控件占用的指针不会再次按下；控件区域内的多余触点直接忽略
	if m.Stick.Contains(p.Pos) {
		m.Stick.Down(p)
		return
	}
	for _, b := range m.Buttons {
		if b.Contains(p.Pos) {
			b.Down(p)
			return
		}
	}
	at := p.Pos
	m.designate = &at
}

// QuickCast 热键施法：沿用按钮上次的方向
func (m *Mapper) QuickCast(id sim.AbilityID) bool {
	for _, b := range m.Buttons {
		if b.Ability == id {
			m.casts = append(m.casts, b.Cast())
			return true
		}
	}
	return false
}

// Intent 取走本帧意图：移动向量为摇杆当前值，施法与点选被清空
func (m *Mapper) Intent() sim.Intent {
	in := sim.Intent{
		Move:      m.Stick.Vector(),
		Casts:     m.casts,
		Designate: m.designate,
	}
	m.casts = nil
	m.designate = nil
	return in
}

// Reset 暂停或停止时松开全部控件并丢弃未取走的意图，方向保留
func (m *Mapper) Reset() {
	m.Stick.Release()
	for _, b := range m.Buttons {
		b.Release()
	}
	m.casts = nil
	m.designate = nil
}

// Button 按技能查找按钮
func (m *Mapper) Button(id sim.AbilityID) (*AimButton, bool) {
	for _, b := range m.Buttons {
		if b.Ability == id {
			return b, true
		}
	}
	return nil, false
}
