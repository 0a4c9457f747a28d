package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	goerrors "github.com/pixil98/go-errors"
	"go.uber.org/zap/zapcore"

	"skilltrainer/render"
)

const envPrefix = "TRAINER_"

// 结果存储后端
const (
	StoreMemory = "memory"
	StoreNats   = "nats"
)

var ErrInvalid = errors.New("invalid configuration")

// Config 训练器宿主共用的配置；来源优先级：flag > 环境变量 > .env > 默认值
type Config struct {
	Addr     string
	LogLevel string
	LogFile  string
	Theme    string
	Player   string
	FPS      int

	Store        string
	NatsURL      string
	NatsEmbedded bool
	NatsHost     string // 内嵌服务监听地址
	NatsSubject  string
}

func Default() Config {
	return Config{
		Addr:        ":8080",
		LogLevel:    "info",
		LogFile:     "app.log",
		Theme:       render.DefaultTheme,
		FPS:         60,
		Store:       StoreMemory,
		NatsHost:    "127.0.0.1",
		NatsSubject: "trainer.results",
	}
}

// Load 读取 .env（不存在时忽略）与 TRAINER_* 环境变量并校验
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("loading env file: %w", err)
	}
	c := Default()
	if err := c.apply(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c *Config) apply(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(envPrefix + key); ok && v != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	str("ADDR", &c.Addr)
	str("LOG_LEVEL", &c.LogLevel)
	str("LOG_FILE", &c.LogFile)
	str("THEME", &c.Theme)
	str("PLAYER", &c.Player)
	str("STORE", &c.Store)
	str("NATS_URL", &c.NatsURL)
	str("NATS_HOST", &c.NatsHost)
	str("NATS_SUBJECT", &c.NatsSubject)

	el := goerrors.NewErrorList()
	if v, ok := lookup(envPrefix + "FPS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			el.Add(fmt.Errorf("parsing %sFPS: %w", envPrefix, err))
		} else {
			c.FPS = n
		}
	}
	if v, ok := lookup(envPrefix + "NATS_EMBEDDED"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			el.Add(fmt.Errorf("parsing %sNATS_EMBEDDED: %w", envPrefix, err))
		} else {
			c.NatsEmbedded = b
		}
	}
	return el.Err()
}

func (c *Config) Validate() error {
	el := goerrors.NewErrorList()

	if c.Addr == "" {
		el.Add(fmt.Errorf("%w: addr is required", ErrInvalid))
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		el.Add(fmt.Errorf("%w: log level: %w", ErrInvalid, err))
	}
	if _, err := render.ResolveTheme(c.Theme); err != nil {
		el.Add(fmt.Errorf("%w: %w", ErrInvalid, err))
	}
	if c.FPS < 1 || c.FPS > 240 {
		el.Add(fmt.Errorf("%w: fps must be within [1, 240], got %d", ErrInvalid, c.FPS))
	}

	switch c.Store {
	case StoreMemory:
	case StoreNats:
		if c.NatsEmbedded && c.NatsHost == "" {
			el.Add(fmt.Errorf("%w: embedded nats requires a host", ErrInvalid))
		}
		if c.NatsURL == "" && !c.NatsEmbedded {
			el.Add(fmt.Errorf("%w: nats store needs a url or the embedded broker", ErrInvalid))
		}
		if c.NatsSubject == "" || strings.ContainsAny(c.NatsSubject, "*> ") {
			el.Add(fmt.Errorf("%w: nats subject %q must be a literal prefix", ErrInvalid, c.NatsSubject))
		}
	default:
		el.Add(fmt.Errorf("%w: unknown store %q", ErrInvalid, c.Store))
	}

	return el.Err()
}

// Level 已校验过的日志级别
func (c Config) Level() zapcore.Level {
	l, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return zapcore.InfoLevel
	}
	return l
}
