package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jasonaskew/docugraph/internal/backend"
	"github.com/jasonaskew/docugraph/internal/config"
	"github.com/jasonaskew/docugraph/internal/util"
	"github.com/jasonaskew/docugraph/pkg/engine"
	"github.com/jasonaskew/docugraph/pkg/logger"
	"github.com/jasonaskew/docugraph/pkg/logger/console"
)

func main() {
	util.LoadEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	logger.Init(console.New(console.Params{Debug: cfg.Debug}))

	var topK int
	var strategy, division, category string
	var noRerank bool
	flag.IntVar(&topK, "top-k", 5, "number of citations to return")
	flag.StringVar(&strategy, "strategy", "", "retrieval strategy: keyword, vector, entity, community, or hybrid (default)")
	flag.StringVar(&division, "division", "", "restrict results to a division")
	flag.StringVar(&category, "category", "", "restrict results to a category")
	flag.BoolVar(&noRerank, "no-rerank", false, "skip the reranking pass")
	flag.Parse()

	gs, closeStore, err := backend.Open(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to open graph store", "err", err)
	}
	defer closeStore()

	e := engine.New(gs, cfg)
	if err := e.Start(ctx); err != nil {
		logger.Fatal("failed to start engine", "err", err)
	}
	defer e.Shutdown(ctx)

	opts := engine.SearchOptions{
		TopK: topK, Strategy: strategy, UseRerank: !noRerank,
		Division: division, Category: category,
	}

	if args := flag.Args(); len(args) > 0 {
		runQuery(ctx, e, strings.Join(args, " "), opts)
		return
	}

	logger.Info("reading queries from stdin, one per line")
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		query := strings.TrimSpace(scanner.Text())
		if query == "" {
			continue
		}
		runQuery(ctx, e, query, opts)
	}
}

func runQuery(ctx context.Context, e *engine.Engine, query string, opts engine.SearchOptions) {
	result, err := e.Search(ctx, query, opts)
	if err != nil {
		logger.Error("search failed", "query", query, "err", err)
		return
	}
	if len(result.Citations) == 0 {
		fmt.Printf("no results (strategy=%s elapsed_ms=%d)\n", result.StrategyActuallyUsed, result.ElapsedMS)
		return
	}
	for i, c := range result.Citations {
		fmt.Printf("%d. [%s p.%d] score=%.3f\n   %s\n", i+1, c.DocumentName, c.PageNum, c.FinalScore, truncate(c.Text, 200))
	}
	fmt.Printf("(%d candidates considered, strategy=%s, %dms)\n", result.TotalCandidatesConsidered, result.StrategyActuallyUsed, result.ElapsedMS)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
