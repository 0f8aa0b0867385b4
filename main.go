package main

import (
	"context"
	"log"
	"os"
	"time"

	"babylog/internal/api"
	"babylog/internal/config"
	"babylog/internal/gemini"
	"babylog/internal/redis"
	"babylog/internal/relay"
	"babylog/internal/tempstore"
	"babylog/internal/worker"

	"github.com/gin-gonic/gin"
)

func main() {
	cfgPath := os.Getenv("BABYLOG_CONFIG")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	store, err := tempstore.New(cfg.BasicConfig.TempDir)
	if err != nil {
		log.Fatalf("init temp store: %v", err)
	}
	sweepCtx, sweepCancel := context.WithCancel(context.Background())
	defer sweepCancel()
	store.StartSweeper(sweepCtx,
		time.Duration(cfg.BasicConfig.TempFileTTL)*time.Minute,
		time.Duration(cfg.BasicConfig.TempSweepInterval)*time.Minute)

	classifier, err := gemini.NewClassifier(context.Background(), cfg.Gemini)
	if err != nil {
		log.Fatalf("init gemini classifier: %v", err)
	}
	formClient := relay.NewFormClient(cfg.Form)

	rdb, err := redis.NewClient(cfg.Redis)
	if err != nil {
		log.Fatalf("create redis client: %v", err)
	}
	if rdb != nil {
		defer rdb.Close()
		log.Printf("sheet csv cache enabled via redis")
	}
	sheet := relay.NewSheetProxy(cfg.Sheet, rdb)

	manager := worker.NewManager(store, classifier, formClient)
	dispatcher := worker.NewDispatcher(worker.DispatcherConfig{
		MinWorkers:        cfg.BasicConfig.MinWorkers,
		MaxWorkers:        cfg.BasicConfig.MaxWorkers,
		QueueSize:         cfg.BasicConfig.QueueSize,
		WorkerIdleTimeout: time.Duration(cfg.BasicConfig.WorkerIdleTimeout) * time.Minute,
	}, manager)

	handlers := api.NewHandler(store, dispatcher, formClient, sheet, cfg.BasicConfig.MaxUploadMB<<20)

	router := gin.Default()
	handlers.RegisterRoutes(router)

	addr := cfg.BasicConfig.ServerAddress
	log.Printf("baby log relay listening on %s", addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
