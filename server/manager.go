package server

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"skilltrainer/render"
	"skilltrainer/session"
	"skilltrainer/sim"
	"skilltrainer/store"
)

// ManagerConfig 所有连接共享的依赖
type ManagerConfig struct {
	Catalog *sim.Catalog
	// Store 会话结果的上报目标
	Store session.Store
	// Results 排行榜与统计的读取来源
	Results *store.Memory
	Theme   render.Theme
	FPS     int
	Logger  *zap.SugaredLogger
}

// Manager 管理所有连接上的会话循环
type Manager struct {
	cfg     ManagerConfig
	log     *zap.SugaredLogger
	Metrics *Metrics

	mu      sync.RWMutex
	runners map[string]*Runner
	wg      sync.WaitGroup

	// 所有会话循环的父 ctx，Shutdown 时取消
	base   context.Context
	cancel context.CancelFunc
}

func NewManager(cfg ManagerConfig) *Manager {
	if cfg.Catalog == nil {
		cfg.Catalog = sim.DefaultCatalog()
	}
	if cfg.Results == nil {
		cfg.Results = store.NewMemory()
	}
	if cfg.Store == nil {
		cfg.Store = cfg.Results
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop().Sugar()
	}
	base, cancel := context.WithCancel(context.Background())
	return &Manager{
		cfg:     cfg,
		log:     cfg.Logger,
		Metrics: &Metrics{},
		runners: make(map[string]*Runner),
		base:    base,
		cancel:  cancel,
	}
}

func (m *Manager) Catalog() *sim.Catalog  { return m.cfg.Catalog }
func (m *Manager) Results() *store.Memory { return m.cfg.Results }

// Open 为新连接创建会话循环并在后台运行，ctx 结束时自动注销
func (m *Manager) Open(ctx context.Context, player PlayerID, codec Codec, out Sink) *Runner {
	r := NewRunner(RunnerOptions{
		ID:      uuid.NewString(),
		Player:  player,
		Codec:   codec,
		Theme:   m.cfg.Theme,
		FPS:     m.cfg.FPS,
		Catalog: m.cfg.Catalog,
		Store:   m.cfg.Store,
		Metrics: m.Metrics,
		Logger:  m.log,
	}, out)

	m.mu.Lock()
	m.runners[r.ID] = r
	m.mu.Unlock()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer m.remove(r.ID)
		r.Run(ctx)
	}()
	m.log.Infow("runner opened", "runner", r.ID, "player", player, "codec", codec)
	return r
}

func (m *Manager) remove(id string) {
	m.mu.Lock()
	delete(m.runners, id)
	m.mu.Unlock()
}

// Len 当前活跃连接数
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.runners)
}

// Shutdown 停止所有会话循环并等待退出
func (m *Manager) Shutdown() {
	m.cancel()
	m.wg.Wait()
}
