package main

import (
	"flag"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/teatak/fenci/config"
	"github.com/teatak/fenci/internal/logger"
	"github.com/teatak/fenci/internal/userstore"
)

func main() {
	configPath := flag.String("config", "", "Path to config.toml")
	addr := flag.String("addr", "", "Listen address, overrides the config")
	flag.Parse()

	log := logger.New("server")

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		log.Fatal("Failed to load config", "err", err)
	}
	if err := logger.SetLevel(cfg.Log.Level); err != nil {
		log.Fatal("Invalid log level", "err", err)
	}
	log = logger.New("server")
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	if err := run(cfg, log); err != nil {
		log.Fatal("Server stopped", "err", err)
	}
}

// run returns instead of exiting so the user store is closed on every path.
func run(cfg *config.Config, log *log.Logger) error {
	// 1. User word store, replayed on every (re)load
	store, err := userstore.Open(cfg.Server.UserStore, logger.New("badger"))
	if err != nil {
		return fmt.Errorf("open user store: %w", err)
	}
	defer store.Close()
	if cfg.Server.UserStore == "" {
		log.Warn("No user_store configured, user words are kept in memory only")
	}

	// 2. Initial Load
	srv := newServer(cfg, store, log)
	if err := srv.reload(); err != nil {
		return fmt.Errorf("initial load: %w", err)
	}

	log.Info("Server started", "addr", cfg.Server.Addr)
	return http.ListenAndServe(cfg.Server.Addr, srv.routes())
}
