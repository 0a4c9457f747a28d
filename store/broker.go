package store

import (
	"fmt"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"go.uber.org/zap"
)

// Broker 进程内嵌的 NATS 服务，开发模式与测试使用
type Broker struct {
	ns  *server.Server
	log *zap.SugaredLogger

	startupTimeout time.Duration
	host           string
	port           int
}

type BrokerOpt func(*Broker)

func WithBrokerHost(host string) BrokerOpt {
	return func(b *Broker) { b.host = host }
}

// WithBrokerPort -1 表示随机端口
func WithBrokerPort(port int) BrokerOpt {
	return func(b *Broker) { b.port = port }
}

func WithBrokerStartTimeout(d time.Duration) BrokerOpt {
	return func(b *Broker) { b.startupTimeout = d }
}

func WithBrokerLogger(log *zap.SugaredLogger) BrokerOpt {
	return func(b *Broker) { b.log = log }
}

func NewBroker(opts ...BrokerOpt) (*Broker, error) {
	b := &Broker{
		startupTimeout: 10 * time.Second,
		host:           "127.0.0.1",
		log:            zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(b)
	}

	ns, err := server.NewServer(&server.Options{
		Host:   b.host,
		Port:   b.port,
		NoSigs: true, // 信号由应用统一处理
	})
	if err != nil {
		return nil, fmt.Errorf("creating nats server: %w", err)
	}
	b.ns = ns
	return b, nil
}

// Start 启动并等待可连接
func (b *Broker) Start() error {
	b.ns.Start()
	if !b.ns.ReadyForConnections(b.startupTimeout) {
		b.ns.Shutdown()
		return fmt.Errorf("nats server not ready for connections")
	}
	b.log.Infow("nats server listening", "addr", b.ns.Addr())
	return nil
}

func (b *Broker) Shutdown() {
	b.ns.Shutdown()
	b.ns.WaitForShutdown()
}

// ClientURL 客户端连接地址（随机端口时为实际端口）
func (b *Broker) ClientURL() string { return b.ns.ClientURL() }
