package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"

	"skilltrainer/config"
	"skilltrainer/render"
	"skilltrainer/server"
	"skilltrainer/store"
	"skilltrainer/surface/termsurf"
	"skilltrainer/surface/tone"
)

// 终端版训练器；日志只写文件，避免弄乱屏幕
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	beeps := flag.Bool("tones", false, "play countdown tones through the speaker")
	flag.StringVar(&cfg.Player, "player", cfg.Player, "player name recorded with results")
	flag.Parse()

	if cfg.LogFile == "" {
		cfg.LogFile = config.Default().LogFile
	}
	server.InitLogger(cfg.LogFile, cfg.Level())
	defer server.SyncLogger()
	log := server.Log

	results := store.NewMemory()
	sink, closeStore, err := store.Open(cfg, results, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "store: %v\n", err)
		os.Exit(1)
	}
	defer closeStore()

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "screen: %v\n", err)
		os.Exit(1)
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "screen init: %v\n", err)
		os.Exit(1)
	}
	defer screen.Fini()

	opts := termsurf.Options{
		Store:  sink,
		Logger: log,
		Player: cfg.Player,
		FPS:    min(cfg.FPS, 30),
	}
	opts.Theme, _ = render.ResolveTheme(cfg.Theme)
	if *beeps {
		sp := tone.NewSpeaker()
		if err := sp.Init(); err != nil {
			log.Warnw("audio unavailable, tones disabled", "err", err)
		} else {
			defer sp.Close()
			opts.Tones = sp
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := termsurf.New(screen, opts).Run(ctx); err != nil {
		log.Errorw("terminal host exited", "err", err)
	}
}
