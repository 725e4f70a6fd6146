package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"github.com/threatlens-io/threatlens/internal/config"
	"github.com/threatlens-io/threatlens/internal/enrich"
	"github.com/threatlens-io/threatlens/internal/ingest"
	"github.com/threatlens-io/threatlens/internal/normalize"
	"github.com/threatlens-io/threatlens/internal/server"
	"github.com/threatlens-io/threatlens/internal/source"
	"github.com/threatlens-io/threatlens/internal/store"
)

func main() {
	addrFlag := flag.String("addr", "", "HTTP listen address (overrides config)")
	configPath := flag.String("config", "threatlens.yaml", "Path to threatlens config file")
	once := flag.Bool("once", false, "Run a single ingestion cycle and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := config.Validate(cfg); err != nil {
		log.Fatalf("invalid config: %v", err)
	}
	if *addrFlag != "" {
		cfg.Server.Addr = *addrFlag
	}

	feedStore, err := store.NewFeedStore(cfg.Store.DataDir, cfg.Store.FeedMaxReadBytes)
	if err != nil {
		log.Fatalf("open feed store: %v", err)
	}
	statusStore, err := store.NewStatusStore(cfg.Store.DataDir)
	if err != nil {
		log.Fatalf("open status store: %v", err)
	}

	var dedup *store.Dedup
	if cfg.Dedup.Enabled {
		dedup = store.NewDedup(cfg.Dedup.MaxKeys, cfg.Dedup.TTL)
		log.Printf("dedup enabled: max=%d ttl=%s", cfg.Dedup.MaxKeys, cfg.Dedup.TTL)
	}

	sources := source.FromConfig(cfg.Sources)
	if len(sources) == 0 {
		log.Fatal("no sources enabled")
	}
	for _, src := range sources {
		log.Printf("configured source: %s", src.Name())
	}

	var translator normalize.Translator
	if cfg.Normalize.TranslateURL != "" {
		translator = normalize.NewHTTPTranslator(cfg.Normalize.TranslateURL, cfg.Normalize.TranslateTimeout)
	}
	normalizer := normalize.New(normalize.WhatlangDetector{}, translator)

	entities, threat, severity := enrich.StagesFromConfig(cfg.Enrich)
	pipeline := enrich.NewPipeline(entities, threat, severity)

	orchestrator := ingest.New(sources, normalizer, pipeline, feedStore, statusStore, dedup, ingest.Options{
		CycleTimeout:        cfg.Ingest.CycleTimeout,
		CountRecordFailures: cfg.Ingest.CountRecordFailures,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *once {
		status, err := orchestrator.RunOnce(ctx)
		if err != nil {
			log.Fatalf("ingestion cycle failed: %v", err)
		}
		log.Printf("ingestion cycle complete: %d records", status.TotalRecords)
		return
	}

	go orchestrator.Run(ctx, cfg.Ingest.Interval)

	srv := server.New(cfg, orchestrator, pipeline, feedStore, statusStore)
	log.Printf("Starting threatlens on %s...", cfg.Server.Addr)
	if err := srv.Start(); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
