package store

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"

	"skilltrainer/session"
)

// DefaultSubject 结果主题前缀；完整主题为 <prefix>.<mode>.<difficulty>
const DefaultSubject = "trainer.results"

// Publisher 把完成的结果以 msgpack 发布到 NATS，投递失败由调用方记录
type Publisher struct {
	conn   *nats.Conn
	prefix string
}

func NewPublisher(conn *nats.Conn, prefix string) *Publisher {
	if prefix == "" {
		prefix = DefaultSubject
	}
	return &Publisher{conn: conn, prefix: prefix}
}

func (p *Publisher) Subject(r session.Result) string {
	return fmt.Sprintf("%s.%s.%s", p.prefix, r.Mode, r.Difficulty)
}

func (p *Publisher) Complete(_ context.Context, r session.Result) error {
	data, err := msgpack.Marshal(&r)
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	if err := p.conn.Publish(p.Subject(r), data); err != nil {
		return fmt.Errorf("publishing result %s: %w", r.SessionID, err)
	}
	return nil
}

// Mirror 订阅结果主题并写入本地存储（排行榜与统计由它提供）。返回取消订阅函数
func Mirror(conn *nats.Conn, prefix string, dst session.Store, log *zap.SugaredLogger) (func(), error) {
	if prefix == "" {
		prefix = DefaultSubject
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	sub, err := conn.Subscribe(prefix+".>", func(msg *nats.Msg) {
		var r session.Result
		if err := msgpack.Unmarshal(msg.Data, &r); err != nil {
			log.Warnw("dropping undecodable result", "subject", msg.Subject, "err", err)
			return
		}
		if err := dst.Complete(context.Background(), r); err != nil {
			log.Warnw("mirroring result failed", "session", r.SessionID, "err", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("subscribing %s: %w", prefix, err)
	}
	return func() { _ = sub.Unsubscribe() }, nil
}

// Tee 依次写入多个存储，返回第一个错误但不中断其余写入
type Tee []session.Store

func (t Tee) Complete(ctx context.Context, r session.Result) error {
	var first error
	for _, s := range t {
		if err := s.Complete(ctx, r); err != nil && first == nil {
			first = err
		}
	}
	return first
}
