package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/sosai"
	"github.com/poiesic/sosai/ai/openai"
	"github.com/poiesic/sosai/core"
	"github.com/poiesic/sosai/dialog"
	"github.com/poiesic/sosai/precompute"
	"github.com/poiesic/sosai/search"
	"github.com/poiesic/sosai/speech"
)

const defaultRetryDelay = time.Second

func serveCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := sosai.NewApp(cfg)
	if err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}
	defer app.Close()

	return app.Serve(ctx)
}

func askCommand(c *cli.Context) error {
	question := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(question) == "" {
		return fmt.Errorf("a question is required")
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	cfg.WatchCorpus = false

	app, err := sosai.NewApp(cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	var monitor search.Monitor
	if c.Bool("trace") {
		monitor = &search.LogMonitor{Logger: slog.Default()}
	}

	result, err := app.Retriever().RetrieveWithMonitor(c.Context, question, cfg.TopK, monitor)
	if err != nil {
		return err
	}
	printResult(c.App.Writer, result)
	return nil
}

func printResult(w io.Writer, result *core.QueryResult) {
	fmt.Fprintf(w, "질문: %s\n\n", result.Query)
	for i, r := range result.Results {
		fmt.Fprintf(w, "%d. [%s] %.4f  %s\n", i+1, r.Category, r.Similarity, r.Question)
		fmt.Fprintf(w, "   %s\n", r.Answer)
	}
	if len(result.Results) > 0 {
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "답변: %s\n", result.BestAnswer)
}

func precomputeCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	pcfg := &precompute.Config{
		BatchSize:      c.Int("batch-size"),
		PoolSize:       c.Int("pool-size"),
		ReportInterval: c.Int("report-interval"),
		Retry: precompute.RetryPolicy{
			Attempts:  c.Int("max-retries"),
			BaseDelay: c.Duration("retry-delay"),
			MaxDelay:  30 * time.Second,
		},
	}
	if pcfg.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if pcfg.PoolSize <= 0 {
		return fmt.Errorf("pool-size must be greater than 0")
	}
	if pcfg.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if pcfg.Retry.Attempts <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	if err := cfg.AI.Validate(); err != nil {
		return fmt.Errorf("invalid AI configuration: %w", err)
	}
	embedder, err := openai.NewEmbedder(cfg.AI)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	out := c.String("out")
	if out == "" {
		out = cfg.QuestionsPath
	}

	p, err := precompute.New(embedder, pcfg, os.Stderr)
	if err != nil {
		return err
	}
	defer p.Release()

	fmt.Fprintf(os.Stderr, "Input: %s\n", c.String("in"))
	fmt.Fprintf(os.Stderr, "Output: %s\n", out)
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", cfg.AI.EmbeddingHost)
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", cfg.AI.EmbeddingModel)
	fmt.Fprintln(os.Stderr)

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	n, err := p.RunFiles(ctx, c.String("in"), out)
	if err != nil {
		return fmt.Errorf("precompute failed: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Wrote %d questions\n", n)
	return nil
}

func dialogCommand(c *cli.Context) error {
	var speak dialog.Speaker
	if c.Bool("speak") {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		synth, err := openai.NewSynthesizer(cfg.AI)
		if err != nil {
			return fmt.Errorf("failed to create synthesizer: %w", err)
		}
		svc, err := speech.NewService(synth, cfg.StaticDir)
		if err != nil {
			return err
		}
		speak = func(ctx context.Context, text string) error {
			url, err := svc.Speak(ctx, text, speech.DefaultLang)
			if err != nil {
				return err
			}
			slog.Info("reply synthesized", "url", url)
			return nil
		}
	}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return dialog.NewConsole(os.Stdin, c.App.Writer, speak).Run(ctx)
}
