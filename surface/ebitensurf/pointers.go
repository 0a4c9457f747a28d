package ebitensurf

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"skilltrainer/geom"
	"skilltrainer/input"
	"skilltrainer/surface"
)

// 触摸 id 偏移，避免与鼠标的 0 冲突
const touchIDBase = 1

// pointerPoller 每帧把鼠标与触摸状态翻译成指针事件
type pointerPoller struct {
	touches  []ebiten.TouchID
	released []ebiten.TouchID
	lastPos  map[ebiten.TouchID]geom.Vec2
	mouse    geom.Vec2
}

func newPointerPoller() *pointerPoller {
	return &pointerPoller{lastPos: make(map[ebiten.TouchID]geom.Vec2)}
}

func (p *pointerPoller) poll() []input.Pointer {
	var batch []input.Pointer

	// 鼠标左键
	mx, my := ebiten.CursorPosition()
	pos := geom.V(float64(mx), float64(my))
	switch {
	case inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft):
		batch = append(batch, input.Pointer{ID: input.MousePointer, Phase: input.PointerDown, Pos: pos})
	case inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft):
		batch = append(batch, input.Pointer{ID: input.MousePointer, Phase: input.PointerUp, Pos: pos})
	case ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) && pos != p.mouse:
		batch = append(batch, input.Pointer{ID: input.MousePointer, Phase: input.PointerMove, Pos: pos})
	}
	p.mouse = pos

	// 触摸：新按下、移动、抬起
	p.touches = inpututil.AppendJustPressedTouchIDs(p.touches[:0])
	for _, id := range p.touches {
		x, y := ebiten.TouchPosition(id)
		at := geom.V(float64(x), float64(y))
		p.lastPos[id] = at
		batch = append(batch, input.Pointer{ID: int(id) + touchIDBase, Phase: input.PointerDown, Pos: at})
	}
	p.touches = ebiten.AppendTouchIDs(p.touches[:0])
	for _, id := range p.touches {
		x, y := ebiten.TouchPosition(id)
		at := geom.V(float64(x), float64(y))
		if last, ok := p.lastPos[id]; ok && last != at {
			p.lastPos[id] = at
			batch = append(batch, input.Pointer{ID: int(id) + touchIDBase, Phase: input.PointerMove, Pos: at})
		}
	}
	p.released = inpututil.AppendJustReleasedTouchIDs(p.released[:0])
	for _, id := range p.released {
		at := p.lastPos[id]
		delete(p.lastPos, id)
		batch = append(batch, input.Pointer{ID: int(id) + touchIDBase, Phase: input.PointerUp, Pos: at})
	}
	return batch
}

// 按键到命令
var commandKeys = map[ebiten.Key]surface.Command{
	ebiten.KeyEnter:  surface.CmdStart,
	ebiten.KeyP:      surface.CmdTogglePause,
	ebiten.KeySpace:  surface.CmdTogglePause,
	ebiten.KeyEscape: surface.CmdStop,
	ebiten.Key1:      surface.CmdModeSkillshot,
	ebiten.Key2:      surface.CmdModeDodge,
	ebiten.Key3:      surface.CmdModeLastHit,
	ebiten.KeyTab:    surface.CmdNextDifficulty,
}

var castKeys = map[ebiten.Key]rune{
	ebiten.KeyQ: 'q',
	ebiten.KeyW: 'w',
	ebiten.KeyF: 'f',
	ebiten.KeyA: 'a',
}

func pollCommands() []surface.Command {
	var out []surface.Command
	for k, cmd := range commandKeys {
		if inpututil.IsKeyJustPressed(k) {
			out = append(out, cmd)
		}
	}
	if ebiten.IsKeyPressed(ebiten.KeyControl) && inpututil.IsKeyJustPressed(ebiten.KeyQ) {
		out = append(out, surface.CmdQuit)
	}
	return out
}

func pollCasts() []rune {
	var out []rune
	for k, r := range castKeys {
		if inpututil.IsKeyJustPressed(k) {
			out = append(out, r)
		}
	}
	return out
}
