package store

import (
	"fmt"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"skilltrainer/config"
	"skilltrainer/session"
)

// Open 按配置选择结果存储，返回写入端与关闭函数。
// NATS 模式下结果发布到主题，results 由订阅镜像维护，供排行榜与统计查询
func Open(cfg config.Config, results *Memory, log *zap.SugaredLogger) (session.Store, func(), error) {
	if cfg.Store != config.StoreNats {
		return results, func() {}, nil
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	url := cfg.NatsURL
	if cfg.NatsEmbedded {
		b, err := NewBroker(WithBrokerHost(cfg.NatsHost), WithBrokerPort(-1), WithBrokerLogger(log))
		if err != nil {
			return nil, nil, err
		}
		if err := b.Start(); err != nil {
			return nil, nil, err
		}
		closers = append(closers, b.Shutdown)
		url = b.ClientURL()
	}

	conn, err := nats.Connect(url, nats.Name("skilltrainer"))
	if err != nil {
		closeAll()
		return nil, nil, fmt.Errorf("connecting to nats at %s: %w", url, err)
	}
	closers = append(closers, conn.Close)

	stop, err := Mirror(conn, cfg.NatsSubject, results, log)
	if err != nil {
		closeAll()
		return nil, nil, err
	}
	closers = append(closers, stop)

	log.Infow("publishing results to nats", "url", url, "subject", cfg.NatsSubject)
	return NewPublisher(conn, cfg.NatsSubject), closeAll, nil
}
