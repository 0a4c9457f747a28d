package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"skilltrainer/geom"
	"skilltrainer/input"
	"skilltrainer/render"
	"skilltrainer/sim"
)

// Phase 会话阶段
type Phase uint8

const (
	PhaseIdle Phase = iota
	PhasePlaying
	PhasePaused
	PhaseGameOver
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhasePlaying:
		return "playing"
	case PhasePaused:
		return "paused"
	case PhaseGameOver:
		return "gameOver"
	}
	return "unknown"
}

var (
	ErrInvalidTransition = errors.New("invalid session transition")
	ErrNoPreviousRun     = errors.New("no previous run to restart")
)

const (
	countdownEvery = time.Second
	countdownBeeps = 5 // 最后几秒每秒提示一次
	beepFreq       = 880.0
	finalBeepFreq  = 1320.0
	beepLength     = 120 * time.Millisecond
)

// Options 宿主提供的能力；为空的可选项使用无操作实现
type Options struct {
	Scheduler Scheduler
	Timers    Timers
	Time      TimeProvider
	Immersive Immersive
	Store     Store
	Tones     ToneEmitter
	Catalog   *sim.Catalog
	Logger    *zap.SugaredLogger
	Bounds    geom.Rect
	Player    string
	// Seed 每局随机种子；为空时取开局时刻
	Seed func() uint64
	// Paint 每次推进或阶段变化后调用
	Paint func()
}

// Controller 会话生命周期控制器。非并发安全：宿主保证所有调用在同一个 goroutine
type Controller struct {
	opts  Options
	log   *zap.SugaredLogger
	clock *Clock

	phase  Phase
	gen    uint64 // 每次开局 / 停止递增，过期的帧回调据此失效
	world  *sim.World
	mapper *input.Mapper

	ctx        context.Context
	sessionID  string
	mode       sim.Mode
	difficulty sim.Difficulty
	startedAt  time.Time
	immersed   bool

	frame     FrameID
	countdown TimerID
	lastBeep  int

	result   *Result
	reported bool
}

func NewController(opts Options) *Controller {
	if opts.Time == nil {
		opts.Time = SystemTime{}
	}
	if opts.Immersive == nil {
		opts.Immersive = NoImmersive{}
	}
	if opts.Catalog == nil {
		opts.Catalog = sim.DefaultCatalog()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	return &Controller{
		opts:  opts,
		log:   opts.Logger,
		clock: NewClock(opts.Time),
		ctx:   context.Background(),
	}
}

func (c *Controller) Phase() Phase { return c.phase }

// World 当前世界（空闲时为 nil）；调用方只读
func (c *Controller) World() *sim.World { return c.world }

func (c *Controller) Mapper() *input.Mapper { return c.mapper }

func (c *Controller) SessionID() string { return c.sessionID }

// Elapsed 当前活动时长，暂停时冻结
func (c *Controller) Elapsed() time.Duration {
	switch {
	case c.world == nil:
		return 0
	case c.phase == PhaseGameOver:
		return c.world.Elapsed
	}
	return c.clock.Elapsed()
}

// Result 最近一局已结束的结果
func (c *Controller) Result() (Result, bool) {
	if c.result == nil {
		return Result{}, false
	}
	return *c.result, true
}

// View 交给渲染器的只读视图
func (c *Controller) View() render.View {
	v := render.View{World: c.world, Controls: c.mapper}
	switch c.phase {
	case PhaseIdle:
		v.Overlay = render.OverlayIdle
	case PhasePaused:
		v.Overlay = render.OverlayPaused
	case PhaseGameOver:
		v.Overlay = render.OverlayGameOver
		if c.result != nil {
			v.FinalScore = int(c.result.Score.Final + 0.5)
		}
	}
	return v
}

// Start 只能在空闲或结束阶段开局；未知模式或难度直接返回错误，阶段不变
func (c *Controller) Start(ctx context.Context, mode sim.Mode, diff sim.Difficulty) error {
	if c.phase != PhaseIdle && c.phase != PhaseGameOver {
		return fmt.Errorf("%w: start from %s", ErrInvalidTransition, c.phase)
	}
	p, err := c.opts.Catalog.Lookup(mode, diff)
	if err != nil {
		return err
	}

	c.cancelAll()
	c.gen++
	c.ctx = ctx
	c.mode, c.difficulty = mode, diff
	c.world = sim.NewWorld(p, c.opts.Bounds, c.seed())
	c.mapper = input.NewMapper(c.opts.Bounds, p.Abilities)
	c.sessionID = uuid.NewString()
	c.result = nil
	c.reported = false
	c.lastBeep = 0
	c.startedAt = c.opts.Time.Now()
	c.clock.Start()

	if !c.immersed {
		if err := c.opts.Immersive.Enter(); err != nil {
			c.log.Warnw("enter immersive mode failed", "session", c.sessionID, "err", err)
		} else {
			c.immersed = true
		}
	}

	c.phase = PhasePlaying
	c.arm()
	c.log.Infow("session started", "session", c.sessionID, "mode", mode, "difficulty", diff)
	c.paint()
	return nil
}

// Pause 先取消挂起的帧和倒计时，再切换阶段
func (c *Controller) Pause() error {
	if c.phase != PhasePlaying {
		return fmt.Errorf("%w: pause from %s", ErrInvalidTransition, c.phase)
	}
	c.cancelAll()
	c.clock.Pause()
	c.mapper.Reset()
	c.phase = PhasePaused
	c.log.Debugw("session paused", "session", c.sessionID, "elapsed", c.clock.Elapsed())
	c.paint()
	return nil
}

func (c *Controller) Resume() error {
	if c.phase != PhasePaused {
		return fmt.Errorf("%w: resume from %s", ErrInvalidTransition, c.phase)
	}
	c.clock.Resume()
	c.phase = PhasePlaying
	c.arm()
	c.log.Debugw("session resumed", "session", c.sessionID, "paused", c.clock.TotalPaused())
	c.paint()
	return nil
}

// Stop 任意阶段回到空闲：丢弃世界、取消全部回调、退出沉浸模式；未完成的局不上报
func (c *Controller) Stop() error {
	c.cancelAll()
	c.gen++
	if c.phase == PhasePlaying || c.phase == PhasePaused {
		c.log.Infow("session stopped", "session", c.sessionID, "elapsed", c.clock.Elapsed())
	}
	c.world = nil
	c.mapper = nil
	c.phase = PhaseIdle
	if c.immersed {
		if err := c.opts.Immersive.Exit(); err != nil {
			c.log.Warnw("exit immersive mode failed", "err", err)
		}
		c.immersed = false
	}
	c.paint()
	return nil
}

// Restart 以上一次的模式和难度重新开局
func (c *Controller) Restart(ctx context.Context) error {
	if c.mode == "" {
		return ErrNoPreviousRun
	}
	if err := c.Stop(); err != nil {
		return err
	}
	return c.Start(ctx, c.mode, c.difficulty)
}

// HandlePointers 只在进行中接收输入，其余阶段丢弃
func (c *Controller) HandlePointers(batch []input.Pointer) bool {
	if c.phase != PhasePlaying || len(batch) == 0 {
		return false
	}
	c.mapper.Handle(batch)
	return true
}

func (c *Controller) QuickCast(id sim.AbilityID) bool {
	if c.phase != PhasePlaying {
		return false
	}
	return c.mapper.QuickCast(id)
}

func (c *Controller) arm() {
	gen := c.gen
	c.schedule(gen)
	if c.opts.Timers != nil && !c.world.Preset.Survival() {
		c.countdown = c.opts.Timers.Every(countdownEvery, func() { c.onCountdown(gen) })
	}
}

func (c *Controller) schedule(gen uint64) {
	if c.opts.Scheduler == nil {
		return
	}
	c.frame = c.opts.Scheduler.RequestFrame(func() { c.tick(gen) })
}

func (c *Controller) cancelAll() {
	if c.frame != 0 && c.opts.Scheduler != nil {
		c.opts.Scheduler.CancelFrame(c.frame)
	}
	c.frame = 0
	if c.countdown != 0 && c.opts.Timers != nil {
		c.opts.Timers.Cancel(c.countdown)
	}
	c.countdown = 0
}

// tick 帧回调：先检查阶段与代数，过期回调直接忽略
func (c *Controller) tick(gen uint64) {
	if gen != c.gen || c.phase != PhasePlaying {
		return
	}
	c.frame = 0
	c.advance()
	if c.phase == PhasePlaying {
		c.schedule(gen)
	}
	c.paint()
}

// Advance 宿主不使用 Scheduler 时手动推进一帧
func (c *Controller) Advance() bool {
	if c.phase != PhasePlaying {
		return false
	}
	c.advance()
	c.paint()
	return true
}

func (c *Controller) advance() {
	c.world.Step(c.clock.Elapsed(), c.mapper.Intent())
	if c.world.Over {
		c.finish()
	}
}

func (c *Controller) onCountdown(gen uint64) {
	if gen != c.gen || c.phase != PhasePlaying {
		return
	}
	left := c.world.Preset.Duration - c.clock.Elapsed()
	secs := int((left + time.Second - 1) / time.Second)
	switch {
	case left <= 0:
		// 帧回调被宿主节流时由倒计时结束本局
		c.advance()
		c.paint()
	case secs <= countdownBeeps && secs != c.lastBeep && c.opts.Tones != nil:
		c.lastBeep = secs
		freq := beepFreq
		if secs == 1 {
			freq = finalBeepFreq
		}
		c.opts.Tones.Tone(freq, beepLength)
	}
}

// finish 结束本局并上报恰好一次
func (c *Controller) finish() {
	c.cancelAll()
	c.phase = PhaseGameOver
	w := c.world
	elapsed := w.Elapsed
	r := Result{
		SessionID:  c.sessionID,
		Player:     c.opts.Player,
		Mode:       w.Mode,
		Difficulty: w.Preset.Difficulty,
		Completed:  true,
		Reason:     w.Reason.String(),
		ElapsedMs:  elapsed.Milliseconds(),
		Level:      w.Level,
		Stats:      w.Stats,
		Accuracy:   w.Accuracy(),
		Score:      Score(w.Preset, w.Stats, elapsed),
		StartedAt:  c.startedAt,
		FinishedAt: c.opts.Time.Now(),
	}
	c.result = &r
	c.log.Infow("session finished", "session", r.SessionID, "reason", r.Reason,
		"elapsedMs", r.ElapsedMs, "score", r.Score.Final)
	c.report(r)
}

func (c *Controller) report(r Result) {
	if c.reported || c.opts.Store == nil {
		return
	}
	c.reported = true
	if err := c.opts.Store.Complete(c.ctx, r); err != nil {
		c.log.Errorw("report session result failed", "session", r.SessionID, "err", err)
	}
}

func (c *Controller) seed() uint64 {
	if c.opts.Seed != nil {
		return c.opts.Seed()
	}
	return uint64(c.opts.Time.Now().UnixNano())
}

func (c *Controller) paint() {
	if c.opts.Paint != nil {
		c.opts.Paint()
	}
}
