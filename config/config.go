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

// Package config holds the service configuration and loads it from the
// environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"github.com/poiesic/sosai/ai"
)

const (
	PolicyDirect = "direct"
	PolicyRerank = "rerank"

	ProviderRetrieval = "retrieval"
	ProviderLLM       = "llm"

	// InsecureSecret is the placeholder token secret used when none is
	// configured. It must be replaced in production.
	InsecureSecret = "CHANGE_ME_NOW"
)

type Config struct {
	// Addr is the HTTP listen address.
	Addr string

	QuestionsPath string
	AnswersPath   string
	// WatchCorpus reloads the tables when they change on disk.
	WatchCorpus bool

	// DataDir holds the Badger database for users and profiles.
	DataDir string
	// StaticDir holds synthesized audio served under /static/.
	StaticDir   string
	AudioMaxAge time.Duration

	AllowOrigins []string

	JWTSecret string
	JWTExpiry time.Duration

	Policy        string
	TopK          int
	MinSimilarity *float32
	EmbedTimeout  time.Duration

	// AnswerProvider selects what answers /chat: corpus retrieval or the
	// generation model.
	AnswerProvider string

	// RateLimit is requests per second per client; zero disables limiting.
	RateLimit float64
	RateBurst int
	// TrustedProxies lists proxy addresses or CIDRs whose X-Forwarded-For
	// header identifies the client. Empty means clients are keyed by peer
	// address only.
	TrustedProxies []string

	NATSURL     string
	NATSSubject string

	QdrantAddr       string
	QdrantCollection string

	AI *ai.Config
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Addr:             ":8000",
		QuestionsPath:    "data/questions.csv",
		AnswersPath:      "data/answers.csv",
		WatchCorpus:      true,
		DataDir:          "data/db",
		StaticDir:        "static",
		AudioMaxAge:      24 * time.Hour,
		AllowOrigins:     []string{"https://sosaii.netlify.app"},
		JWTSecret:        InsecureSecret,
		JWTExpiry:        43200 * time.Minute,
		Policy:           PolicyRerank,
		TopK:             3,
		EmbedTimeout:     10 * time.Second,
		AnswerProvider:   ProviderRetrieval,
		RateLimit:        5,
		RateBurst:        10,
		NATSSubject:      "sosai.answers",
		QdrantCollection: "sosai_questions",
		AI:               ai.DefaultConfig(),
	}
}

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// Load returns Default overridden by any variables lookup finds.
// All malformed values are reported together.
func Load(lookup LookupFunc) (*Config, error) {
	c := Default()
	e := &envReader{lookup: lookup}

	if port, ok := e.string("PORT"); ok {
		c.Addr = ":" + port
	}
	e.setString("ADDR", &c.Addr)
	e.setString("QA_QUESTIONS_CSV", &c.QuestionsPath)
	e.setString("QA_ANSWERS_CSV", &c.AnswersPath)
	e.setBool("CORPUS_WATCH", &c.WatchCorpus)
	e.setString("DATA_DIR", &c.DataDir)
	e.setString("STATIC_DIR", &c.StaticDir)
	e.setDuration("AUDIO_MAX_AGE", &c.AudioMaxAge)
	if origins, ok := e.string("ALLOW_ORIGINS"); ok {
		c.AllowOrigins = SplitList(origins)
	}
	e.setString("JWT_SECRET", &c.JWTSecret)
	if minutes, ok := e.int("JWT_EXPIRES_MIN"); ok {
		c.JWTExpiry = time.Duration(minutes) * time.Minute
	}
	e.setString("RANKING_POLICY", &c.Policy)
	e.setInt("TOP_K", &c.TopK)
	if v, ok := e.float("MIN_SIMILARITY"); ok {
		f := float32(v)
		c.MinSimilarity = &f
	}
	e.setDuration("EMBED_TIMEOUT", &c.EmbedTimeout)
	e.setString("ANSWER_PROVIDER", &c.AnswerProvider)
	if v, ok := e.float("RATE_LIMIT"); ok {
		c.RateLimit = v
	}
	e.setInt("RATE_BURST", &c.RateBurst)
	if proxies, ok := e.string("TRUSTED_PROXIES"); ok {
		c.TrustedProxies = SplitList(proxies)
	}
	e.setString("NATS_URL", &c.NATSURL)
	e.setString("NATS_SUBJECT", &c.NATSSubject)
	e.setString("QDRANT_ADDR", &c.QdrantAddr)
	e.setString("QDRANT_COLLECTION", &c.QdrantCollection)

	if host, ok := e.string("AI_HOST"); ok {
		ai.WithHost(host)(c.AI)
	}
	e.setString("EMBEDDING_HOST", &c.AI.EmbeddingHost)
	e.setString("EMBEDDING_MODEL", &c.AI.EmbeddingModel)
	e.setString("GENERATION_HOST", &c.AI.GenerationHost)
	e.setString("GENERATION_MODEL", &c.AI.GenerationModel)
	e.setString("SPEECH_HOST", &c.AI.SpeechHost)
	e.setString("SPEECH_MODEL", &c.AI.SpeechModel)
	e.setString("SPEECH_VOICE", &c.AI.SpeechVoice)
	e.setString("OPENAI_API_KEY", &c.AI.APIToken)

	if err := errors.Join(e.errs...); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return errors.New("config: listen address is required")
	}
	if c.QuestionsPath == "" || c.AnswersPath == "" {
		return errors.New("config: question and answer table paths are required")
	}
	if c.DataDir == "" {
		return errors.New("config: data directory is required")
	}
	if c.StaticDir == "" {
		return errors.New("config: static directory is required")
	}
	if c.JWTSecret == "" {
		return errors.New("config: JWT secret is required")
	}
	if c.JWTExpiry <= 0 {
		return errors.New("config: JWT expiry must be positive")
	}
	switch c.Policy {
	case PolicyDirect, PolicyRerank:
	default:
		return fmt.Errorf("config: unknown ranking policy %q", c.Policy)
	}
	switch c.AnswerProvider {
	case ProviderRetrieval, ProviderLLM:
	default:
		return fmt.Errorf("config: unknown answer provider %q", c.AnswerProvider)
	}
	if c.TopK < 1 {
		return fmt.Errorf("config: top-k must be at least 1, got %d", c.TopK)
	}
	if c.MinSimilarity != nil && !inUnitRange(float64(*c.MinSimilarity)) {
		return fmt.Errorf("config: minimum similarity %v outside [-1, 1]", *c.MinSimilarity)
	}
	if c.EmbedTimeout <= 0 {
		return errors.New("config: embed timeout must be positive")
	}
	if !isFinite(c.RateLimit) || c.RateLimit < 0 || (c.RateLimit > 0 && c.RateBurst < 1) {
		return errors.New("config: rate limit must be non-negative with a positive burst")
	}
	if _, err := ParseProxies(c.TrustedProxies); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.AI == nil {
		return errors.New("config: AI configuration is required")
	}
	return c.AI.Validate()
}

// Warnings logs settings that are valid but unsafe.
func (c *Config) Warnings(logger *slog.Logger) {
	if c.JWTSecret == InsecureSecret {
		logger.Warn("JWT_SECRET is the built-in placeholder; set a real secret in production")
	}
	for _, origin := range c.AllowOrigins {
		if origin == "*" {
			logger.Warn("CORS allows every origin")
		}
	}
}

// ParseProxies parses addresses and CIDR prefixes. A bare address is
// treated as a single-host prefix.
func ParseProxies(entries []string) ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(entries))
	for _, entry := range entries {
		if strings.Contains(entry, "/") {
			p, err := netip.ParsePrefix(entry)
			if err != nil {
				return nil, fmt.Errorf("trusted proxy %q: %w", entry, err)
			}
			prefixes = append(prefixes, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", entry, err)
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func inUnitRange(f float64) bool {
	return isFinite(f) && f >= -1 && f <= 1
}

// SplitList splits a comma separated list, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

type envReader struct {
	lookup LookupFunc
	errs   []error
}

func (e *envReader) string(key string) (string, bool) {
	v, ok := e.lookup(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func (e *envReader) setString(key string, dst *string) {
	if v, ok := e.string(key); ok {
		*dst = v
	}
}

func (e *envReader) int(key string) (int, bool) {
	v, ok := e.string(key)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return 0, false
	}
	return n, true
}

func (e *envReader) setInt(key string, dst *int) {
	if n, ok := e.int(key); ok {
		*dst = n
	}
}

func (e *envReader) float(key string) (float64, bool) {
	v, ok := e.string(key)
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return 0, false
	}
	if !isFinite(f) {
		e.errs = append(e.errs, fmt.Errorf("%s: %q is not a finite number", key, v))
		return 0, false
	}
	return f, true
}

func (e *envReader) setBool(key string, dst *bool) {
	v, ok := e.string(key)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return
	}
	*dst = b
}

func (e *envReader) setDuration(key string, dst *time.Duration) {
	v, ok := e.string(key)
	if !ok {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return
	}
	*dst = d
}
