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

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/netip"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/sosai/ai"
	"github.com/poiesic/sosai/auth"
	"github.com/poiesic/sosai/config"
	"github.com/poiesic/sosai/corpus"
	"github.com/poiesic/sosai/events"
	"github.com/poiesic/sosai/search"
	"github.com/poiesic/sosai/speech"
	"github.com/poiesic/sosai/storage"
)

const (
	ServiceName = "SOSAI Backend"

	DefaultPublishPoolSize = 4
	DefaultShutdownTimeout = 10 * time.Second

	maxBodyBytes = 1 << 20
)

// Server exposes the assistant over HTTP.
type Server struct {
	corpus       *corpus.Holder
	retriever    *search.Retriever
	answers      ai.AnswerProvider
	providerName string
	speech       *speech.Service
	auth         *auth.Service
	profiles     storage.ProfileRepository
	publisher    events.Publisher
	pool         *ants.Pool
	poolSize     int
	origins      []string
	rateLimit    float64
	rateBurst    int
	proxies      []netip.Prefix
	defaultTopK  int
	logger       *slog.Logger
}

// Option configures a Server.
type Option func(*Server) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithAnswerProvider sets the provider behind /chat. name is reported by
// the status endpoints.
// Default is the retriever.
func WithAnswerProvider(name string, provider ai.AnswerProvider) Option {
	return func(s *Server) error {
		if provider == nil {
			return errors.New("answer provider must not be nil")
		}
		s.providerName = name
		s.answers = provider
		return nil
	}
}

// WithSpeech enables /tts, spoken dialog replies and the static audio route.
func WithSpeech(svc *speech.Service) Option {
	return func(s *Server) error {
		s.speech = svc
		return nil
	}
}

// WithAuth enables the account and medical profile routes, and
// personalized /chat answers for authenticated callers.
func WithAuth(svc *auth.Service, profiles storage.ProfileRepository) Option {
	return func(s *Server) error {
		if svc == nil || profiles == nil {
			return errors.New("auth service and profile repository are both required")
		}
		s.auth = svc
		s.profiles = profiles
		return nil
	}
}

// WithPublisher publishes an event for every answer served.
func WithPublisher(p events.Publisher) Option {
	return func(s *Server) error {
		s.publisher = p
		return nil
	}
}

// WithPublishPoolSize bounds concurrent event publication.
// Default is DefaultPublishPoolSize.
func WithPublishPoolSize(n int) Option {
	return func(s *Server) error {
		if n < 1 {
			return fmt.Errorf("publish pool size must be positive, got %d", n)
		}
		s.poolSize = n
		return nil
	}
}

// WithAllowOrigins sets the CORS allow list.
func WithAllowOrigins(origins []string) Option {
	return func(s *Server) error {
		s.origins = origins
		return nil
	}
}

// WithRateLimit limits each client to limit requests per second.
// A zero limit disables rate limiting.
func WithRateLimit(limit float64, burst int) Option {
	return func(s *Server) error {
		if limit < 0 || burst < 0 || (limit > 0 && burst == 0) {
			return fmt.Errorf("invalid rate limit %v with burst %d", limit, burst)
		}
		s.rateLimit = limit
		s.rateBurst = burst
		return nil
	}
}

// WithTrustedProxies sets the proxy addresses or CIDRs whose
// X-Forwarded-For header names the client for rate limiting. Without it
// clients are keyed by peer address.
func WithTrustedProxies(entries []string) Option {
	return func(s *Server) error {
		proxies, err := config.ParseProxies(entries)
		if err != nil {
			return err
		}
		s.proxies = proxies
		return nil
	}
}

// WithDefaultTopK sets top_k for /answer requests that omit it.
// Default is search.DefaultTopK.
func WithDefaultTopK(k int) Option {
	return func(s *Server) error {
		if k < 1 {
			return fmt.Errorf("%w: got %d", search.ErrInvalidTopK, k)
		}
		s.defaultTopK = k
		return nil
	}
}

// New creates a server answering from retriever over the corpus in holder.
func New(holder *corpus.Holder, retriever *search.Retriever, opts ...Option) (*Server, error) {
	if holder == nil {
		return nil, search.ErrCorpusRequired
	}
	if retriever == nil {
		return nil, ErrRetrieverRequired
	}

	s := &Server{
		corpus:       holder,
		retriever:    retriever,
		answers:      retriever,
		providerName: "retrieval",
		poolSize:     DefaultPublishPoolSize,
		defaultTopK:  search.DefaultTopK,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "server")

	if s.publisher != nil {
		pool, err := ants.NewPool(s.poolSize, ants.WithNonblocking(true))
		if err != nil {
			return nil, fmt.Errorf("failed to create publish pool: %w", err)
		}
		s.pool = pool
	}
	return s, nil
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleStatus)
	mux.HandleFunc("GET /health", s.handleStatus)
	mux.HandleFunc("POST /answer", s.handleAnswer)
	mux.HandleFunc("POST /chat", s.handleChat)
	mux.HandleFunc("POST /dialog", s.handleDialog)
	mux.HandleFunc("POST /tts", s.handleTTS)
	mux.HandleFunc("POST /auth/signup", s.handleSignup)
	mux.HandleFunc("POST /auth/login", s.handleLogin)
	mux.HandleFunc("GET /medical", s.handleGetMedical)
	mux.HandleFunc("PUT /medical", s.handlePutMedical)

	if s.speech != nil {
		prefix := s.speech.URLPrefix()
		mux.Handle("GET "+prefix, http.StripPrefix(prefix, http.FileServer(http.Dir(s.speech.Dir()))))
	}

	mw := []Middleware{
		OTel("sosai"),
		Logger(s.logger),
		Recover(s.logger),
		CORS(s.origins),
	}
	if s.rateLimit > 0 {
		mw = append(mw, RateLimit(s.rateLimit, s.rateBurst, s.proxies...))
	}
	return Chain(mux, mw...)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutCtx)
}

// Close waits for pending event publications.
func (s *Server) Close() error {
	if s.pool == nil {
		return nil
	}
	return s.pool.ReleaseTimeout(DefaultShutdownTimeout)
}

func (s *Server) publish(ctx context.Context, event events.AnswerServed) {
	if s.pool == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	err := s.pool.Submit(func() {
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.Warn("failed to publish event", "source", event.Source, "err", err)
		}
	})
	if err != nil {
		s.logger.Warn("event dropped", "source", event.Source, "err", err)
	}
}
