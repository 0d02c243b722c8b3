// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/poiesic/sosai/config"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("failed to read .env: %v", err)
	}

	if err := newCLI().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newCLI() *cli.App {
	return &cli.App{
		Name:  "sosai",
		Usage: "First-aid guidance assistant",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:  "addr",
				Usage: "HTTP listen address (overrides ADDR/PORT)",
			},
			&cli.StringFlag{
				Name:  "questions",
				Usage: "Question table with embeddings (overrides QA_QUESTIONS_CSV)",
			},
			&cli.StringFlag{
				Name:  "answers",
				Usage: "Answer table (overrides QA_ANSWERS_CSV)",
			},
			&cli.StringFlag{
				Name:  "data-dir",
				Usage: "BadgerDB directory for users and profiles (overrides DATA_DIR)",
			},
			&cli.StringFlag{
				Name:  "static-dir",
				Usage: "Directory for synthesized audio (overrides STATIC_DIR)",
			},
			&cli.StringFlag{
				Name:  "policy",
				Usage: "Answer ranking policy: direct or rerank (overrides RANKING_POLICY)",
			},
			&cli.IntFlag{
				Name:  "top-k",
				Usage: "Default number of results (overrides TOP_K)",
			},
			&cli.Float64Flag{
				Name:  "min-similarity",
				Usage: "Drop matches scoring below this value (overrides MIN_SIMILARITY)",
			},
			&cli.StringFlag{
				Name:  "answer-provider",
				Usage: "What answers /chat: retrieval or llm (overrides ANSWER_PROVIDER)",
			},
			&cli.StringFlag{
				Name:  "embedding-host",
				Usage: "Embedding service host URL (overrides EMBEDDING_HOST)",
			},
			&cli.StringFlag{
				Name:  "embedding-model",
				Usage: "Embedding model name (overrides EMBEDDING_MODEL)",
			},
			&cli.StringFlag{
				Name:  "qdrant-addr",
				Usage: "Qdrant gRPC address; empty searches in memory (overrides QDRANT_ADDR)",
			},
			&cli.StringFlag{
				Name:  "nats-url",
				Usage: "NATS server for answer events (overrides NATS_URL)",
			},
			&cli.BoolFlag{
				Name:  "no-watch",
				Usage: "Do not reload the corpus when its files change",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API",
				Action: serveCommand,
			},
			{
				Name:      "ask",
				Usage:     "Answer one question from the corpus",
				ArgsUsage: "<question>",
				Action:    askCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "trace",
						Usage: "Log every retrieval stage at debug level",
					},
				},
			},
			{
				Name:   "precompute",
				Usage:  "Embed a question table so it can be served",
				Action: precomputeCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "in",
						Aliases:  []string{"i"},
						Usage:    "Question table without embeddings",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "out",
						Aliases: []string{"o"},
						Usage:   "Output table (defaults to the configured question table)",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of questions in each embedding call",
						Value: 32,
					},
					&cli.IntFlag{
						Name:  "pool-size",
						Usage: "Number of batches embedded concurrently",
						Value: 2,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N questions",
						Value: 32,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum attempts for each batch",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: defaultRetryDelay,
					},
				},
			},
			{
				Name:   "dialog",
				Usage:  "Run the keyword emergency conversation in the terminal",
				Action: dialogCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "speak",
						Usage: "Synthesize every reply into the static directory",
					},
				},
			},
		},
	}
}

// loadConfig reads the environment, then applies the flags that were set
// explicitly on the command line.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(os.LookupEnv)
	if err != nil {
		return nil, err
	}

	setString := func(flag string, dst *string) {
		if c.IsSet(flag) {
			*dst = c.String(flag)
		}
	}
	setString("addr", &cfg.Addr)
	setString("questions", &cfg.QuestionsPath)
	setString("answers", &cfg.AnswersPath)
	setString("data-dir", &cfg.DataDir)
	setString("static-dir", &cfg.StaticDir)
	setString("policy", &cfg.Policy)
	setString("answer-provider", &cfg.AnswerProvider)
	setString("embedding-host", &cfg.AI.EmbeddingHost)
	setString("embedding-model", &cfg.AI.EmbeddingModel)
	setString("qdrant-addr", &cfg.QdrantAddr)
	setString("nats-url", &cfg.NATSURL)

	if c.IsSet("top-k") {
		cfg.TopK = c.Int("top-k")
	}
	if c.IsSet("min-similarity") {
		v := float32(c.Float64("min-similarity"))
		cfg.MinSimilarity = &v
	}
	if c.Bool("no-watch") {
		cfg.WatchCorpus = false
	}
	return cfg, nil
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
