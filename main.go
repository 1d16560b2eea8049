package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/dmbar78/ExpenseTracker-sub000/internal/config"
	"github.com/dmbar78/ExpenseTracker-sub000/internal/database"
	"github.com/dmbar78/ExpenseTracker-sub000/internal/ledger"
	"github.com/dmbar78/ExpenseTracker-sub000/internal/rates"
	"github.com/dmbar78/ExpenseTracker-sub000/internal/router"
)

func main() {
	// load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// ensure basic directories exist
	if err := ensureDir(filepath.Dir(cfg.Database.Path)); err != nil {
		log.Fatalf("create data dir: %v", err)
	}
	if err := ensureDir(cfg.Backup.Dir); err != nil {
		log.Fatalf("create backup dir: %v", err)
	}
	if cfg.Log.File != "" {
		if err := ensureDir(filepath.Dir(cfg.Log.File)); err != nil {
			log.Fatalf("create log dir: %v", err)
		}
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			log.Fatalf("open log file: %v", err)
		}
		log.SetOutput(f)
	}

	// init database
	db, err := database.Init(cfg.Database)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}

	// run migrations
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("migrate database: %v", err)
	}

	// engines
	eng := ledger.New(db)
	source := rates.NewChain(
		rates.NewHTTPSource(cfg.Rates.BaseURL, time.Duration(cfg.Rates.TimeoutSeconds)*time.Second),
		rates.IdentitySource{},
	)
	provider := rates.NewProvider(rates.NewStore(db), source)

	// setup router
	r := router.SetupRouter(cfg, db, eng, provider)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Address, cfg.Server.Port)
	log.Printf("server listening on %s", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("run server: %v", err)
	}
}

func ensureDir(dir string) error {
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
