// Command feedctl inspects the data files a running threatlens instance
// maintains: the JSONL threat feed and the last-run ingestion status.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/threatlens-io/threatlens/internal/config"
	"github.com/threatlens-io/threatlens/internal/store"
)

func main() {
	configPath := flag.String("config", "threatlens.yaml", "path to threatlens config file")
	dataDir := flag.String("data", "", "data directory (overrides config)")
	n := flag.Int("n", 20, "number of feed records to show (tail)")
	flag.Parse()

	dir := *dataDir
	if dir == "" {
		dir = dataDirFromConfig(*configPath)
	}

	switch flag.Arg(0) {
	case "status":
		printStatus(dir)
	case "tail", "":
		printTail(dir, *n)
	default:
		fmt.Fprintf(os.Stderr, "usage: feedctl [flags] [status|tail]\n")
		flag.PrintDefaults()
		os.Exit(2)
	}
}

func dataDirFromConfig(path string) string {
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	return cfg.Store.DataDir
}

func printStatus(dir string) {
	statusStore, err := store.NewStatusStore(dir)
	if err != nil {
		log.Fatalf("open status store: %v", err)
	}
	printJSON(statusStore.Read())
}

func printTail(dir string, n int) {
	feedStore, err := store.NewFeedStore(dir, 0)
	if err != nil {
		log.Fatalf("open feed store: %v", err)
	}
	records, err := feedStore.ReadLatest(n)
	if err != nil {
		log.Fatalf("read feed: %v", err)
	}
	for _, rec := range records {
		printJSON(rec)
	}
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Fatalf("encode: %v", err)
	}
}
