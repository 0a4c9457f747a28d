package server

import (
	"context"
	"time"

	"go.uber.org/zap"

	"skilltrainer/geom"
	"skilltrainer/render"
	"skilltrainer/session"
	"skilltrainer/sim"
)

// Bounds 服务端会话的逻辑画布，浏览器按比例缩放
var Bounds = geom.R(0, 0, 800, 600)

const (
	inboxSize = 256 // 足够缓冲，避免网络读阻塞帧循环
	// 每次帧循环最多处理的指针消息，控制消息不计入
	defaultMaxInputsPerLoop = 16
)

// Sink 出站消息队列；返回 false 表示被丢弃
type Sink interface {
	Enqueue(b []byte) bool
}

// RunnerOptions 创建会话循环所需的依赖
type RunnerOptions struct {
	ID      string
	Player  PlayerID
	Codec   Codec
	Theme   render.Theme
	FPS     int
	Catalog *sim.Catalog
	Store   session.Store
	Metrics *Metrics
	Logger  *zap.SugaredLogger
	Time    session.TimeProvider
	Seed    func() uint64

	MaxInputsPerLoop int
}

// Runner 一个连接上的训练会话：控制器、输入与渲染都在同一个循环 goroutine 上
type Runner struct {
	ID     string
	Player PlayerID

	ctrl     *session.Controller
	loop     *session.FrameLoop
	renderer *render.Renderer
	rec      *render.Recorder
	codec    Codec
	out      Sink
	metrics  *Metrics
	log      *zap.SugaredLogger
	interval time.Duration
	ctx      context.Context

	inbox chan ClientMessage
	done  chan struct{}

	maxInputsPerLoop int
	inputsThisLoop   int
	lastSeq          int64
	frameSeq         uint64
	dirty            bool
	resultSent       string
}

func NewRunner(opts RunnerOptions, out Sink) *Runner {
	if opts.Metrics == nil {
		opts.Metrics = &Metrics{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	if opts.Time == nil {
		opts.Time = session.SystemTime{}
	}
	if opts.Theme.Name == "" {
		opts.Theme, _ = render.ResolveTheme(render.DefaultTheme)
	}
	if opts.MaxInputsPerLoop <= 0 {
		opts.MaxInputsPerLoop = defaultMaxInputsPerLoop
	}
	r := &Runner{
		ID:               opts.ID,
		Player:           opts.Player,
		loop:             session.NewFrameLoop(opts.Time.Now),
		renderer:         render.New(opts.Theme),
		rec:              render.NewRecorder(Bounds.W, Bounds.H),
		codec:            opts.Codec,
		out:              out,
		metrics:          opts.Metrics,
		log:              opts.Logger.With("runner", opts.ID, "player", opts.Player),
		interval:         frameInterval(opts.FPS),
		ctx:              context.Background(),
		inbox:            make(chan ClientMessage, inboxSize),
		done:             make(chan struct{}),
		maxInputsPerLoop: opts.MaxInputsPerLoop,
	}
	r.ctrl = session.NewController(session.Options{
		Scheduler: r.loop,
		Timers:    r.loop,
		Time:      opts.Time,
		Store:     opts.Store,
		Catalog:   opts.Catalog,
		Logger:    r.log,
		Bounds:    Bounds,
		Player:    string(opts.Player),
		Seed:      opts.Seed,
		Paint:     func() { r.dirty = true },
	})
	r.dirty = true
	return r
}

// Controller 仅供测试与同一 goroutine 内调用
func (r *Runner) Controller() *session.Controller { return r.ctrl }

// Done Run 返回后关闭
func (r *Runner) Done() <-chan struct{} { return r.done }

// OnInput 入站消息不立即处理，等下一次帧循环
func (r *Runner) OnInput(m ClientMessage) {
	// 不阻塞：拥塞时丢弃，保证读协程不被帧循环拖慢
	select {
	case r.inbox <- m:
	default:
		r.metrics.IncChanFullDiscarded()
	}
}

// ProcessInputs 非阻塞地取出当前排队的全部输入
func (r *Runner) ProcessInputs() {
	r.inputsThisLoop = 0
	for {
		select {
		case m := <-r.inbox:
			r.apply(m)
		default:
			return
		}
	}
}

func (r *Runner) apply(m ClientMessage) {
	if m.Seq > 0 {
		if m.Seq <= r.lastSeq {
			r.metrics.IncOldSeqIgnored()
			return
		}
		r.lastSeq = m.Seq
	}
	if m.control() {
		r.control(m)
		return
	}

	if r.inputsThisLoop >= r.maxInputsPerLoop {
		r.metrics.IncRateLimited()
		return
	}
	r.inputsThisLoop++

	var ok bool
	switch m.Type {
	case MsgPointer:
		ok = r.ctrl.HandlePointers(m.Pointers)
	case MsgCast:
		ok = r.ctrl.QuickCast(m.Ability)
	}
	if ok {
		r.metrics.IncAccepted()
	} else {
		r.metrics.IncRejected()
	}
}

func (r *Runner) control(m ClientMessage) {
	var err error
	switch m.Type {
	case MsgStart:
		if err = r.ctrl.Start(r.ctx, m.Mode, m.Difficulty); err == nil {
			r.metrics.IncStarted()
		}
	case MsgRestart:
		if err = r.ctrl.Restart(r.ctx); err == nil {
			r.metrics.IncStarted()
		}
	case MsgPause:
		err = r.ctrl.Pause()
	case MsgResume:
		err = r.ctrl.Resume()
	case MsgStop:
		err = r.ctrl.Stop()
	}
	if err != nil {
		r.log.Debugw("control rejected", "type", m.Type, "err", err)
		r.send(ErrorMessage{Type: MsgError, Seq: m.Seq, Error: err.Error()})
	}
}

// flush 有变化时录制并推送一帧；一局结束时额外推送一次结果
func (r *Runner) flush() {
	if res, ok := r.ctrl.Result(); ok && res.SessionID != r.resultSent {
		r.resultSent = res.SessionID
		r.metrics.IncFinished()
		r.send(ResultMessage{Type: MsgResult, Result: res})
	}
	if !r.dirty {
		return
	}
	r.dirty = false

	r.rec.Reset()
	r.renderer.Draw(r.rec, r.ctrl.View())
	r.frameSeq++
	if r.send(FrameMessage{
		Type:      MsgFrame,
		Seq:       r.frameSeq,
		Session:   r.ctrl.SessionID(),
		Phase:     r.ctrl.Phase().String(),
		ElapsedMs: r.ctrl.Elapsed().Milliseconds(),
		Width:     r.rec.W,
		Height:    r.rec.H,
		Ops:       r.rec.Ops(),
	}) {
		r.metrics.IncSent()
	}
}

func (r *Runner) send(v any) bool {
	b, err := r.codec.Marshal(v)
	if err != nil {
		r.log.Errorw("encode outbound message failed", "err", err)
		return false
	}
	if r.out == nil || !r.out.Enqueue(b) {
		r.metrics.IncSendDropped()
		return false
	}
	return true
}
