// Command searchprobe exercises a running blog's search API.
//
// In type mode it drives the typeahead state machine the way a visitor
// typing into the header box would, printing every state change and the
// page the final key press navigates to. In load mode it hammers
// /api/search from concurrent workers and prints a latency report.
//
// Usage:
//
//	go run ./cmd/searchprobe -mode type -q "golang tips" [-select 1]
//	go run ./cmd/searchprobe -mode load [-concurrency 10] [-duration 30s]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Adithya-Monish-Kumar-K/cosmic-blog/internal/typeahead"
	"github.com/Adithya-Monish-Kumar-K/cosmic-blog/pkg/logger"
)

var defaultQueries = []string{
	"go",
	"golang",
	"web development",
	"javascript",
	"react hooks",
	"css grid",
	"testing",
	"performance",
	"database",
	"api design",
	"typescript",
	"deployment",
}

func main() {
	baseURL := flag.String("url", "http://localhost:3000", "base URL of the blog")
	mode := flag.String("mode", "type", "probe mode: type or load")
	query := flag.String("q", "golang", "query to type (type mode)")
	keystroke := flag.Duration("keystroke", 120*time.Millisecond, "delay between simulated keystrokes (type mode)")
	selectIdx := flag.Int("select", -1, "dropdown row to open with Enter; -1 submits the query (type mode)")
	delay := flag.Duration("debounce", typeahead.DefaultDelay, "typeahead debounce delay (type mode)")
	concurrency := flag.Int("concurrency", 10, "number of concurrent workers (load mode)")
	duration := flag.Duration("duration", 30*time.Second, "test duration (load mode)")
	queries := flag.String("queries", "", "comma-separated queries (load mode)")
	logLevel := flag.String("log-level", "warn", "log level")
	flag.Parse()

	logger.Setup(*logLevel, "text")
	searcher := typeahead.NewHTTPSearcher(*baseURL)

	switch *mode {
	case "type":
		cfg := typeConfig{
			Query:     *query,
			Keystroke: *keystroke,
			Select:    *selectIdx,
			Delay:     *delay,
		}
		if _, err := runTyping(context.Background(), searcher, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "probe failed: %v\n", err)
			os.Exit(1)
		}
	case "load":
		cfg := loadConfig{
			Concurrency: *concurrency,
			Duration:    *duration,
			Queries:     defaultQueries,
		}
		if *queries != "" {
			cfg.Queries = strings.Split(*queries, ",")
		}
		fmt.Println("=== Blog Search Load Test ===")
		fmt.Printf("Target:      %s\n", searcher.BaseURL)
		fmt.Printf("Concurrency: %d\n", cfg.Concurrency)
		fmt.Printf("Duration:    %s\n", cfg.Duration)
		fmt.Printf("Queries:     %d unique\n", len(cfg.Queries))
		fmt.Println()

		stats := runLoad(searcher, cfg)
		if !printReport(stats, cfg.Duration) {
			os.Exit(1)
		}
	default:
		fmt.Fprintf(os.Stderr, "unknown mode %q (want type or load)\n", *mode)
		os.Exit(2)
	}
}
