package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/jasonaskew/docugraph/internal/backend"
	"github.com/jasonaskew/docugraph/internal/config"
	"github.com/jasonaskew/docugraph/internal/util"
	"github.com/jasonaskew/docugraph/pkg/engine"
	"github.com/jasonaskew/docugraph/pkg/ingest"
	"github.com/jasonaskew/docugraph/pkg/logger"
	"github.com/jasonaskew/docugraph/pkg/logger/console"
)

func main() {
	util.LoadEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	logger.Init(console.New(console.Params{Debug: cfg.Debug}))

	var division, category string
	flag.StringVar(&division, "division", "", "division tag applied to every ingested document")
	flag.StringVar(&category, "category", "", "category tag applied to every ingested document")
	flag.Parse()
	paths := flag.Args()
	if len(paths) == 0 {
		logger.Fatal("usage: ingest [-division=...] [-category=...] <pdf-file>...")
	}

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

	var docs []ingest.DocumentInput
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Error("failed to read file, skipping", "path", path, "err", err)
			continue
		}
		docs = append(docs, ingest.DocumentInput{
			ID: filepath.Base(path), Filename: filepath.Base(path), Data: data,
			Division: division, Category: category,
		})
	}
	if len(docs) == 0 {
		logger.Fatal("no readable documents to ingest")
	}

	logger.Info("ingesting documents", "count", len(docs))
	if err := e.Ingest(ctx, docs); err != nil {
		logger.Fatal("ingestion failed", "err", err)
	}

	summary, err := e.SchemaSummary(ctx)
	if err != nil {
		logger.Error("failed to fetch schema summary", "err", err)
		return
	}
	logger.Info("ingestion complete",
		"documents", summary.DocumentCount, "chunks", summary.ChunkCount,
		"entities", summary.EntityCount, "communities", summary.CommunityCount,
	)
}
