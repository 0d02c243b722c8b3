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

package sosai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/sosai/ai"
	"github.com/poiesic/sosai/ai/openai"
	"github.com/poiesic/sosai/auth"
	"github.com/poiesic/sosai/config"
	"github.com/poiesic/sosai/corpus"
	"github.com/poiesic/sosai/events"
	"github.com/poiesic/sosai/search"
	"github.com/poiesic/sosai/server"
	"github.com/poiesic/sosai/speech"
	"github.com/poiesic/sosai/storage"
	"github.com/poiesic/sosai/storage/badger"
	"github.com/poiesic/sosai/storage/qdrant"
)

// PruneInterval is how often Serve removes expired audio files.
const PruneInterval = time.Hour

// App holds every long-lived service of the assistant. It is built once
// at startup and shared by the HTTP handlers and the CLI commands.
type App struct {
	config    *config.Config
	backend   *badger.Backend
	users     storage.UserRepository
	profiles  storage.ProfileRepository
	provider  ai.AIProvider
	corpus    *corpus.Holder
	retriever *search.Retriever
	index     *qdrant.Index
	speech    *speech.Service
	auth      *auth.Service
	publisher events.Publisher
	logger    *slog.Logger
}

// AppOption configures an App.
type AppOption func(*appOptions)

type appOptions struct {
	provider  ai.AIProvider
	publisher events.Publisher
	inMemory  bool
	logger    *slog.Logger
}

// WithProvider uses provider instead of connecting to the configured
// OpenAI-compatible services.
func WithProvider(provider ai.AIProvider) AppOption {
	return func(o *appOptions) {
		o.provider = provider
	}
}

// WithPublisher uses publisher instead of connecting to NATS.
func WithPublisher(publisher events.Publisher) AppOption {
	return func(o *appOptions) {
		o.publisher = publisher
	}
}

// WithInMemoryStorage keeps users and profiles in memory.
func WithInMemoryStorage() AppOption {
	return func(o *appOptions) {
		o.inMemory = true
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) AppOption {
	return func(o *appOptions) {
		o.logger = logger
	}
}

// NewApp validates cfg and builds the application. A corpus that fails to
// load is logged and reported by the status endpoints; retrieval answers
// CorpusUnavailable until a reload succeeds.
func NewApp(cfg *config.Config, opts ...AppOption) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	options := &appOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}

	app := &App{
		config: cfg,
		logger: options.logger.With("component", "app"),
	}
	cfg.Warnings(app.logger)

	if err := app.openStorage(options.inMemory); err != nil {
		app.Close()
		return nil, err
	}

	app.provider = options.provider
	if app.provider == nil {
		provider, err := openai.NewProvider(cfg.AI)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.provider = provider
	}

	app.corpus = corpus.NewHolder(cfg.QuestionsPath, cfg.AnswersPath, corpus.WithLogger(options.logger))
	if err := app.corpus.Reload(); err != nil {
		app.logger.Warn("corpus not loaded; retrieval is unavailable until it is fixed", "err", err)
	}

	if err := app.buildRetriever(options.logger); err != nil {
		app.Close()
		return nil, err
	}

	if synth := app.provider.Synthesizer(); synth != nil {
		svc, err := speech.NewService(synth, cfg.StaticDir, speech.WithLogger(options.logger))
		if err != nil {
			app.Close()
			return nil, err
		}
		app.speech = svc
	}

	authSvc, err := auth.NewService(app.users, cfg.JWTSecret,
		auth.WithTokenExpiry(cfg.JWTExpiry),
		auth.WithLogger(options.logger))
	if err != nil {
		app.Close()
		return nil, err
	}
	app.auth = authSvc

	app.publisher = options.publisher
	if app.publisher == nil && cfg.NATSURL != "" {
		pub, err := events.Connect(cfg.NATSURL, cfg.NATSSubject)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("failed to connect to NATS: %w", err)
		}
		app.publisher = pub
	}

	return app, nil
}

func (a *App) openStorage(inMemory bool) error {
	backend, err := badger.OpenBackend(a.config.DataDir, inMemory)
	if err != nil {
		return err
	}
	a.backend = backend

	users, err := badger.NewUserRepository(backend)
	if err != nil {
		return err
	}
	a.users = users
	a.profiles = badger.NewProfileRepository(backend)
	return nil
}

func (a *App) buildRetriever(logger *slog.Logger) error {
	opts := []search.Option{
		search.WithLogger(logger),
		search.WithEmbedTimeout(a.config.EmbedTimeout),
	}

	switch a.config.Policy {
	case config.PolicyRerank:
		opts = append(opts, search.WithPolicy(search.NewRerankPolicy(a.provider.Embedder())))
	default:
		opts = append(opts, search.WithPolicy(search.DirectPolicy{}))
	}
	if a.config.MinSimilarity != nil {
		opts = append(opts, search.WithMinSimilarity(*a.config.MinSimilarity))
	}

	if a.config.QdrantAddr != "" {
		idx, err := qdrant.New(a.config.QdrantAddr, a.config.QdrantCollection)
		if err != nil {
			return err
		}
		a.index = idx
		opts = append(opts, search.WithIndex(idx))
	}

	retriever, err := search.NewRetriever(a.corpus, a.provider.Embedder(), opts...)
	if err != nil {
		return err
	}
	a.retriever = retriever
	return nil
}

func (a *App) Config() *config.Config {
	return a.config
}

func (a *App) Corpus() *corpus.Holder {
	return a.corpus
}

func (a *App) Retriever() *search.Retriever {
	return a.retriever
}

func (a *App) Provider() ai.AIProvider {
	return a.provider
}

// Speech returns the speech service, or nil when no synthesizer is configured.
func (a *App) Speech() *speech.Service {
	return a.speech
}

func (a *App) Auth() *auth.Service {
	return a.auth
}

func (a *App) Profiles() storage.ProfileRepository {
	return a.profiles
}

// AnswerProvider returns the provider selected by configuration.
func (a *App) AnswerProvider() ai.AnswerProvider {
	if a.config.AnswerProvider == config.ProviderLLM {
		return a.provider.Generator()
	}
	return a.retriever
}

// NewServer creates the HTTP server over the app's services.
func (a *App) NewServer(opts ...server.Option) (*server.Server, error) {
	base := []server.Option{
		server.WithLogger(a.logger.With("component", "http")),
		server.WithAnswerProvider(a.config.AnswerProvider, a.AnswerProvider()),
		server.WithAuth(a.auth, a.profiles),
		server.WithAllowOrigins(a.config.AllowOrigins),
		server.WithRateLimit(a.config.RateLimit, a.config.RateBurst),
		server.WithTrustedProxies(a.config.TrustedProxies),
		server.WithDefaultTopK(a.config.TopK),
	}
	if a.speech != nil {
		base = append(base, server.WithSpeech(a.speech))
	}
	if a.publisher != nil {
		base = append(base, server.WithPublisher(a.publisher))
	}
	return server.New(a.corpus, a.retriever, append(base, opts...)...)
}

// Serve runs the HTTP server until ctx is cancelled, together with the
// corpus watcher and audio pruning when they are enabled.
func (a *App) Serve(ctx context.Context) error {
	srv, err := a.NewServer()
	if err != nil {
		return err
	}
	defer srv.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if a.config.WatchCorpus {
		if watcher, err := corpus.NewWatcher(a.corpus); err != nil {
			a.logger.Warn("corpus hot reload disabled", "err", err)
		} else {
			go func() {
				if err := watcher.Run(ctx); err != nil {
					a.logger.Error("corpus watcher stopped", "err", err)
				}
			}()
		}
	}

	if a.speech != nil && a.config.AudioMaxAge > 0 {
		go a.pruneAudio(ctx, PruneInterval)
	}

	return srv.ListenAndServe(ctx, a.config.Addr)
}

func (a *App) pruneAudio(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := a.speech.Prune(a.config.AudioMaxAge)
			if err != nil {
				a.logger.Warn("failed to prune audio", "err", err)
				continue
			}
			if n > 0 {
				a.logger.Info("pruned audio files", "count", n)
			}
		}
	}
}

// Close releases every resource held by the app.
func (a *App) Close() error {
	var errs []error
	if a.publisher != nil {
		errs = append(errs, a.publisher.Close())
	}
	if a.index != nil {
		errs = append(errs, a.index.Close())
	}
	if a.provider != nil {
		if err := a.provider.Close(); err != nil {
			a.logger.Error("error closing AI provider", "err", err)
		}
	}
	if a.profiles != nil {
		errs = append(errs, a.profiles.Close())
	}
	if a.users != nil {
		errs = append(errs, a.users.Close())
	}
	if a.backend != nil {
		if err := a.backend.Close(); err != nil {
			a.logger.Error("error closing backend storage", "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
