package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"skilltrainer/config"
	"skilltrainer/render"
	"skilltrainer/server"
	"skilltrainer/store"
)

// 训练器服务入口：HTTP + WebSocket，每个连接一个训练会话
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	flag.StringVar(&cfg.Addr, "addr", cfg.Addr, "server listen address, e.g. :8080")
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

	theme, _ := render.ResolveTheme(cfg.Theme)
	mgr := server.NewManager(server.ManagerConfig{
		Store:   sink,
		Results: results,
		Theme:   theme,
		FPS:     cfg.FPS,
		Logger:  log,
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", mgr.HandleWS)
	// 前后端分离：将 / 映射到 web 目录的静态资源
	mux.Handle("/", http.FileServer(http.Dir("web")))
	// 管理与查询接口
	mux.HandleFunc("/admin/presets", mgr.HandleAdminPresets)
	mux.HandleFunc("/metrics", mgr.HandleMetrics)
	mux.HandleFunc("/leaderboard", mgr.HandleLeaderboard)
	mux.HandleFunc("/results", mgr.HandleResults)
	mux.HandleFunc("/healthz", server.HandleHealthz)

	srv := &http.Server{Addr: cfg.Addr, Handler: mux}

	go func() {
		log.Infof("trainer listening on %s; open http://localhost%v/", cfg.Addr, cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	// 优雅退出（Ctrl+C）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	mgr.Shutdown()
}
