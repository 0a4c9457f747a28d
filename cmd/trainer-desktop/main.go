package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"skilltrainer/config"
	"skilltrainer/render"
	"skilltrainer/server"
	"skilltrainer/store"
	"skilltrainer/surface/ebitensurf"
	"skilltrainer/surface/tone"
)

// 桌面窗口版训练器：本地会话，结果写入配置的存储
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	fullscreen := flag.Bool("fullscreen", false, "enter fullscreen while a run is active")
	mute := flag.Bool("mute", false, "disable countdown tones")
	flag.StringVar(&cfg.Player, "player", cfg.Player, "player name recorded with results")
	flag.Parse()

	server.InitLogger(cfg.LogFile, cfg.Level())
	defer server.SyncLogger()
	log := server.Log

	results := store.NewMemory()
	sink, closeStore, err := store.Open(cfg, results, log)
	if err != nil {
		log.Fatalw("opening result store", "err", err)
	}
	defer closeStore()

	opts := ebitensurf.Options{
		Store:      sink,
		Logger:     log,
		Player:     cfg.Player,
		FPS:        cfg.FPS,
		Fullscreen: *fullscreen,
	}
	opts.Theme, _ = render.ResolveTheme(cfg.Theme)
	if !*mute {
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

	if err := ebitensurf.Run(ebitensurf.NewGame(ctx, opts), "Skill Trainer"); err != nil {
		log.Errorw("game exited", "err", err)
	}
	for _, s := range results.Stats(cfg.Player) {
		log.Infow("session summary", "mode", s.Mode, "attempts", s.Attempts, "best", s.BestScore)
	}
}
