// Package ebitensurf 桌面 / 移动端窗口宿主：ebiten 的 Update 驱动帧循环，Draw 回放渲染
package ebitensurf

import (
	"context"
	"errors"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"go.uber.org/zap"

	"skilltrainer/geom"
	"skilltrainer/input"
	"skilltrainer/render"
	"skilltrainer/session"
	"skilltrainer/sim"
	"skilltrainer/surface"
)

// Bounds 逻辑画布，窗口缩放由 ebiten 完成
var Bounds = geom.R(0, 0, 800, 600)

// Options 宿主依赖
type Options struct {
	Theme   render.Theme
	Store   session.Store
	Tones   session.ToneEmitter
	Catalog *sim.Catalog
	Logger  *zap.SugaredLogger
	Player  string
	FPS     int
	// Fullscreen 开局时进入全屏
	Fullscreen bool
}

// Game 实现 ebiten.Game
type Game struct {
	ctx      context.Context
	ctrl     *session.Controller
	loop     *session.FrameLoop
	renderer *render.Renderer
	menu     surface.Menu
	pointers *pointerPoller
	log      *zap.SugaredLogger
}

func NewGame(ctx context.Context, opts Options) *Game {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	if opts.Theme.Name == "" {
		opts.Theme, _ = render.ResolveTheme(render.DefaultTheme)
	}
	g := &Game{
		ctx:      ctx,
		loop:     session.NewFrameLoop(nil),
		renderer: render.New(opts.Theme),
		menu:     surface.NewMenu(),
		pointers: newPointerPoller(),
		log:      opts.Logger,
	}
	var immersive session.Immersive = session.NoImmersive{}
	if opts.Fullscreen {
		immersive = Fullscreen{}
	}
	g.ctrl = session.NewController(session.Options{
		Scheduler: g.loop,
		Timers:    g.loop,
		Immersive: immersive,
		Store:     opts.Store,
		Tones:     opts.Tones,
		Catalog:   opts.Catalog,
		Logger:    opts.Logger,
		Bounds:    Bounds,
		Player:    opts.Player,
	})
	if opts.FPS > 0 {
		ebiten.SetTPS(opts.FPS)
	}
	return g
}

func (g *Game) Update() error {
	if g.ctx.Err() != nil {
		_ = g.ctrl.Stop()
		return ebiten.Termination
	}
	for _, cmd := range pollCommands() {
		if cmd == surface.CmdQuit {
			_ = g.ctrl.Stop()
			return ebiten.Termination
		}
		g.dispatch(cmd)
	}

	batch := g.pointers.poll()
	switch g.ctrl.Phase() {
	case session.PhasePlaying:
		g.ctrl.HandlePointers(batch)
		for _, r := range pollCasts() {
			g.ctrl.QuickCast(surface.CastKeys[r])
		}
	case session.PhaseIdle, session.PhaseGameOver:
		// 空闲或结束画面上点击即开局
		for _, p := range batch {
			if p.Phase == input.PointerDown {
				g.dispatch(surface.CmdStart)
				break
			}
		}
	}

	g.loop.Pump(time.Now())
	return nil
}

func (g *Game) dispatch(cmd surface.Command) {
	if err := g.menu.Dispatch(g.ctx, g.ctrl, cmd); err != nil && !errors.Is(err, session.ErrInvalidTransition) {
		g.log.Warnw("command failed", "cmd", cmd, "err", err)
	}
}

func (g *Game) Draw(screen *ebiten.Image) {
	c := NewCanvas(screen, Bounds.W, Bounds.H)
	g.renderer.Draw(c, g.ctrl.View())
	if ph := g.ctrl.Phase(); ph == session.PhaseIdle || ph == session.PhaseGameOver {
		c.Text(geom.V(Bounds.X+16, Bounds.Bottom()-16), g.menu.Hint(), 12, g.renderer.Theme.TextDim)
	}
}

func (g *Game) Layout(_, _ int) (int, int) {
	return int(Bounds.W), int(Bounds.H)
}

// Run 打开窗口并阻塞到退出
func Run(g *Game, title string) error {
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowSize(int(Bounds.W), int(Bounds.H))
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	err := ebiten.RunGame(g)
	if errors.Is(err, ebiten.Termination) {
		return nil
	}
	return err
}

// Fullscreen 开局时进入全屏，结束时退出
type Fullscreen struct{}

func (Fullscreen) Enter() error {
	ebiten.SetFullscreen(true)
	return nil
}

func (Fullscreen) Exit() error {
	ebiten.SetFullscreen(false)
	return nil
}
