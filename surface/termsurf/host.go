package termsurf

import (
	"context"
	"errors"
	"time"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"skilltrainer/geom"
	"skilltrainer/input"
	"skilltrainer/render"
	"skilltrainer/session"
	"skilltrainer/sim"
	"skilltrainer/surface"
)

// Bounds 逻辑画布，与其他宿主一致
var Bounds = geom.R(0, 0, 800, 600)

const defaultFPS = 30

// Options 宿主依赖
type Options struct {
	Theme   render.Theme
	Store   session.Store
	Tones   session.ToneEmitter
	Catalog *sim.Catalog
	Logger  *zap.SugaredLogger
	Time    session.TimeProvider
	Player  string
	FPS     int
}

// Host 终端宿主。事件在独立 goroutine 读取，处理与绘制都在 Run 的循环里
type Host struct {
	screen   tcell.Screen
	ctrl     *session.Controller
	loop     *session.FrameLoop
	renderer *render.Renderer
	canvas   *Canvas
	menu     surface.Menu
	stick    *keyStick
	time     session.TimeProvider
	log      *zap.SugaredLogger
	interval time.Duration

	pending   []input.Pointer
	mouseDown bool
}

// New screen 需已 Init
func New(screen tcell.Screen, opts Options) *Host {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	if opts.Theme.Name == "" {
		opts.Theme, _ = render.ResolveTheme(render.DefaultTheme)
	}
	if opts.Time == nil {
		opts.Time = session.SystemTime{}
	}
	if opts.FPS <= 0 {
		opts.FPS = defaultFPS
	}
	cols, rows := screen.Size()
	h := &Host{
		screen:   screen,
		loop:     session.NewFrameLoop(opts.Time.Now),
		renderer: render.New(opts.Theme),
		canvas:   NewCanvas(Bounds.W, Bounds.H, cols, rows),
		menu:     surface.NewMenu(),
		stick:    newKeyStick(),
		time:     opts.Time,
		log:      opts.Logger,
		interval: time.Second / time.Duration(opts.FPS),
	}
	h.ctrl = session.NewController(session.Options{
		Scheduler: h.loop,
		Timers:    h.loop,
		Time:      opts.Time,
		Store:     opts.Store,
		Tones:     opts.Tones,
		Catalog:   opts.Catalog,
		Logger:    opts.Logger,
		Bounds:    Bounds,
		Player:    opts.Player,
	})
	return h
}

func (h *Host) Controller() *session.Controller { return h.ctrl }

func (h *Host) Menu() surface.Menu { return h.menu }

// Run 阻塞到 ctx 结束或用户退出
func (h *Host) Run(ctx context.Context) error {
	h.screen.EnableMouse()
	defer h.screen.DisableMouse()

	events := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := h.screen.PollEvent()
			if ev == nil {
				// Fini 之后返回 nil
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	h.Frame(h.time.Now())
	for {
		select {
		case <-ctx.Done():
			_ = h.ctrl.Stop()
			return nil
		case ev := <-events:
			if !h.Handle(ctx, ev) {
				_ = h.ctrl.Stop()
				return nil
			}
		case now := <-ticker.C:
			h.Frame(now)
		}
	}
}

// Handle 处理一个终端事件；返回 false 表示退出
func (h *Host) Handle(ctx context.Context, ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		h.canvas.Resize(ev.Size())
		h.screen.Sync()
	case *tcell.EventKey:
		return h.key(ctx, ev)
	case *tcell.EventMouse:
		h.mouse(ctx, ev)
	}
	return true
}

func (h *Host) key(ctx context.Context, ev *tcell.EventKey) bool {
	now := h.time.Now()
	switch ev.Key() {
	case tcell.KeyCtrlC, tcell.KeyCtrlQ:
		return false
	case tcell.KeyEnter:
		h.dispatch(ctx, surface.CmdStart)
	case tcell.KeyEscape:
		h.dispatch(ctx, surface.CmdStop)
	case tcell.KeyTab:
		h.dispatch(ctx, surface.CmdNextDifficulty)
	case tcell.KeyRune:
		r := ev.Rune()
		if cmd, ok := runeCommands[r]; ok {
			h.dispatch(ctx, cmd)
			break
		}
		if id, ok := surface.CastKeys[r]; ok && h.ctrl.Phase() == session.PhasePlaying {
			h.ctrl.QuickCast(id)
		}
	default:
		h.stick.press(ev.Key(), now)
	}
	return true
}

var runeCommands = map[rune]surface.Command{
	'p': surface.CmdTogglePause,
	' ': surface.CmdTogglePause,
	'1': surface.CmdModeSkillshot,
	'2': surface.CmdModeDodge,
	'3': surface.CmdModeLastHit,
}

// mouse 左键映射为鼠标指针，坐标取所在格的中心
func (h *Host) mouse(ctx context.Context, ev *tcell.EventMouse) {
	pressed := ev.Buttons()&tcell.Button1 != 0
	at := h.canvas.CellCenter(ev.Position())

	var phase input.PointerPhase
	switch {
	case pressed && !h.mouseDown:
		phase = input.PointerDown
	case pressed:
		phase = input.PointerMove
	case h.mouseDown:
		phase = input.PointerUp
	default:
		return
	}
	h.mouseDown = pressed

	switch h.ctrl.Phase() {
	case session.PhasePlaying:
		h.pending = append(h.pending, input.Pointer{ID: input.MousePointer, Phase: phase, Pos: at})
	case session.PhaseIdle, session.PhaseGameOver:
		if phase == input.PointerDown {
			h.dispatch(ctx, surface.CmdStart)
		}
	}
}

func (h *Host) dispatch(ctx context.Context, cmd surface.Command) {
	if err := h.menu.Dispatch(ctx, h.ctrl, cmd); err != nil && !errors.Is(err, session.ErrInvalidTransition) {
		h.log.Warnw("command failed", "cmd", cmd, "err", err)
	}
}

// Frame 一次循环：交付指针、推进帧与定时器、重绘
func (h *Host) Frame(now time.Time) {
	if h.ctrl.Phase() == session.PhasePlaying {
		var stick *input.Joystick
		if m := h.ctrl.Mapper(); m != nil {
			stick = m.Stick
		}
		batch := append(h.pending, h.stick.poll(stick, now)...)
		h.ctrl.HandlePointers(batch)
	} else {
		h.stick.poll(nil, now)
	}
	h.pending = h.pending[:0]
	h.loop.Pump(now)
	h.draw()
}

func (h *Host) draw() {
	h.renderer.Draw(h.canvas, h.ctrl.View())
	if ph := h.ctrl.Phase(); ph == session.PhaseIdle || ph == session.PhaseGameOver {
		h.canvas.Text(geom.V(Bounds.X+8, Bounds.Bottom()-4), h.menu.Hint(), 12, h.renderer.Theme.TextDim)
	}
	h.canvas.Flush(h.screen)
}
