// Package main is the Kotae CLI entry point.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/cli"
	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/embedding"
	"github.com/hyperjump/kotae/internal/ingest"
	"github.com/hyperjump/kotae/internal/llm"
	"github.com/hyperjump/kotae/internal/pipeline"
	"github.com/hyperjump/kotae/internal/retriever"
	"github.com/hyperjump/kotae/internal/server"
	"github.com/hyperjump/kotae/internal/store"
	"github.com/hyperjump/kotae/internal/watcher"
	"github.com/hyperjump/kotae/pkg/utils"
)

var version = server.Version

const defaultConfigPath = "/usr/local/etc/kotae/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used. Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "ask":
		runAsk()
	case "ingest":
		runIngest()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("kotae version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	var snapWatcher *watcher.SnapshotWatcher
	if components.Local != nil && cfg.Storage.WatchSnapshot {
		snapWatcher = watcher.NewSnapshotWatcher(cfg.Storage.SnapshotPath, func(path string) {
			passages, vectors, loadErr := store.LoadSnapshot(path)
			if loadErr != nil {
				logger.Warn("snapshot reload skipped", zap.String("path", path), zap.Error(loadErr))
				return
			}
			if loadErr := components.Local.Load(passages, vectors); loadErr != nil {
				logger.Warn("snapshot reload rejected", zap.String("path", path), zap.Error(loadErr))
			}
		}, watcher.WithLogger(logger))
		watchCtx, watchCancel := context.WithCancel(context.Background())
		defer watchCancel()
		if err := snapWatcher.Start(watchCtx); err != nil {
			logger.Warn("snapshot watcher failed to start", zap.Error(err))
		} else {
			defer snapWatcher.Stop()
		}
	}

	srv := server.NewServer(
		components.Pipeline,
		components.Retriever,
		components.Embedder,
		components.Generator,
		cfg,
		logger,
	)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// buildQuestion joins all positional args with spaces so multi-word questions
// work the same with or without shell quoting.
func buildQuestion(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func runAsk() {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	topK := fs.Int("top-k", 0, "number of passages to retrieve (default from config)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: kotae ask [flags] <question>\n\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fs.Usage()
		os.Exit(1)
	}
	question := buildQuestion(fs.Args())
	if question == "" {
		fs.Usage()
		os.Exit(1)
	}

	format := cli.OutputText
	switch *outputFormat {
	case "json":
		format = cli.OutputJSON
	case "text":
	default:
		fmt.Printf("Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	result, err := components.Pipeline.AnswerTopK(context.Background(), question, *topK)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ask failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteAnswer(os.Stdout, result, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runIngest() {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: kotae ingest [flags] <file> [file...]")
		os.Exit(1)
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	var sink ingest.Sink
	if components.Postgres != nil {
		sink = &ingest.PostgresSink{DB: components.Postgres}
	} else {
		sink = &ingest.SnapshotSink{Path: cfg.Storage.SnapshotPath}
	}
	chunker := ingest.NewChunker(cfg.Ingest.SentencesPerChunk, cfg.Ingest.MinTokenLength)
	ingestor := ingest.NewIngestor(chunker, components.Embedder, sink, components.Catalog, logger)

	ctx := context.Background()
	for _, path := range fs.Args() {
		doc, err := ingestor.Ingest(ctx, path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Ingest failed for %s: %v\n", path, err)
			os.Exit(1)
		}
		fmt.Printf("Ingested %s: %d pages, %d chunks (%s)\n", doc.Title, doc.Pages, doc.Chunks, doc.ID)
	}
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer components.Close()

	ctx := context.Background()
	passages, err := components.Retriever.Count(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Count passages failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("retriever_mode:   %s\n", components.Retriever.Mode())
	fmt.Printf("passages:         %d\n", passages)
	if components.Catalog != nil {
		docs, err := components.Catalog.Count(ctx)
		if err == nil {
			fmt.Printf("documents:        %d\n", docs)
		}
	}
	fmt.Printf("top_k:            %d\n", cfg.Retrieval.TopK)
	fmt.Printf("threshold:        %g\n", cfg.Retrieval.Threshold)
	fmt.Printf("embedding_model:  %s\n", cfg.Embedding.Model)
	fmt.Printf("embedding_dims:   %d\n", cfg.Embedding.Dimensions)
	fmt.Printf("llm_model:        %s\n", components.Generator.Model())
}

// Components holds initialized services.
type Components struct {
	Embedder  embedding.Embedder
	Generator llm.Generator
	Retriever retriever.Retriever
	// Local is non-nil in local mode; used for snapshot (re)loads.
	Local *retriever.LocalRetriever
	// Postgres is non-nil in postgres mode.
	Postgres *store.PostgresStore
	Catalog  *store.Catalog
	Pipeline *pipeline.Pipeline
}

func (c *Components) Close() {
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if c.Generator != nil {
		_ = c.Generator.Close()
	}
	if c.Postgres != nil {
		_ = c.Postgres.Close()
	}
	if c.Catalog != nil {
		_ = c.Catalog.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	embedder, err := embedding.New(embedding.Options{
		Backend:    cfg.Embedding.Backend,
		Model:      cfg.Embedding.Model,
		BaseURL:    cfg.Embedding.BaseURL,
		APIKey:     cfg.Embedding.APIKey,
		Dimensions: cfg.Embedding.Dimensions,
		ModelPath:  cfg.Embedding.ModelPath,
		MaxTokens:  cfg.Embedding.MaxTokens,
		CacheSize:  cfg.Embedding.CacheSize,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}

	generator, err := llm.New(llm.Options{
		Backend:     cfg.LLM.Backend,
		Model:       cfg.LLM.Model,
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.LLM.APIKey,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
	}, logger)
	if err != nil {
		_ = embedder.Close()
		return nil, fmt.Errorf("failed to initialize generator: %w", err)
	}

	components := &Components{Embedder: embedder, Generator: generator}

	if cfg.Retrieval.Mode == retriever.ModePostgres {
		pg, err := store.OpenPostgres(context.Background(), cfg.Storage.DatabaseURL, logger)
		if err != nil {
			components.Close()
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		components.Postgres = pg
		if err := pg.EnsureSchema(context.Background(), cfg.Embedding.Dimensions); err != nil {
			components.Close()
			return nil, fmt.Errorf("failed to ensure schema: %w", err)
		}
		ret, err := retriever.New(retriever.Options{
			Mode:         retriever.ModePostgres,
			Dimensions:   cfg.Embedding.Dimensions,
			Threshold:    cfg.Retrieval.Threshold,
			QueryTimeout: time.Duration(cfg.Retrieval.QueryTimeout) * time.Second,
		}, pg.DB(), logger)
		if err != nil {
			components.Close()
			return nil, fmt.Errorf("failed to initialize retriever: %w", err)
		}
		components.Retriever = ret
	} else {
		local, err := retriever.NewLocalRetriever(cfg.Embedding.Dimensions, logger)
		if err != nil {
			components.Close()
			return nil, fmt.Errorf("failed to initialize retriever: %w", err)
		}
		// A missing snapshot is fine at startup; queries fail with not_loaded
		// until one is ingested or appears on disk.
		if passages, vectors, loadErr := store.LoadSnapshot(cfg.Storage.SnapshotPath); loadErr == nil {
			if err := local.Load(passages, vectors); err != nil {
				components.Close()
				return nil, fmt.Errorf("failed to load snapshot: %w", err)
			}
		} else if !errors.Is(loadErr, os.ErrNotExist) {
			logger.Warn("snapshot load skipped", zap.String("path", cfg.Storage.SnapshotPath), zap.Error(loadErr))
		}
		components.Local = local
		components.Retriever = local
	}

	if cfg.Storage.CatalogPath != "" {
		catalog, err := store.OpenCatalog(cfg.Storage.CatalogPath)
		if err != nil {
			components.Close()
			return nil, fmt.Errorf("failed to open catalog: %w", err)
		}
		components.Catalog = catalog
	}

	components.Pipeline = pipeline.New(embedder, components.Retriever, generator, cfg.Retrieval.TopK, logger)
	return components, nil
}

func printUsage() {
	fmt.Println(`kotae - Retrieval-augmented question answering over your documents

Usage:
  kotae server [flags]             Start the HTTP server
  kotae ask [flags] <question>     Answer a question from the command line
  kotae ingest [flags] <file>...   Ingest documents into the index
  kotae status [flags]             Show index and configuration status
  kotae version                    Show version
  kotae help                       Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/kotae/config.yaml)
  --debug            Enable debug logging

Ask Flags:
  --config string    Config file path
  --top-k int        Number of passages to retrieve (default from config)
  --output string    Output format: text or json (default: text)

Ingest Flags:
  --config string    Config file path

Status Flags:
  --config string    Config file path

Examples:
  kotae server
  kotae ask "What are the macronutrients?"
  kotae ask --output json what does protein do
  kotae ingest nutrition.pdf
  kotae status`)
}
