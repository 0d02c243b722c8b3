package config

import (
	"bytes"
	"log/slog"
	"math"
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(vars map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

func TestLoad_Defaults(t *testing.T) {
	c, err := Load(env(nil))
	require.NoError(t, err)

	assert.Equal(t, ":8000", c.Addr)
	assert.Equal(t, []string{"https://sosaii.netlify.app"}, c.AllowOrigins)
	assert.Equal(t, InsecureSecret, c.JWTSecret)
	assert.Equal(t, 30*24*time.Hour, c.JWTExpiry)
	assert.Equal(t, PolicyRerank, c.Policy)
	assert.Nil(t, c.MinSimilarity)
	assert.NoError(t, c.Validate())
}

func TestLoad_Overrides(t *testing.T) {
	c, err := Load(env(map[string]string{
		"PORT":             "9000",
		"QA_QUESTIONS_CSV": "/srv/q.csv",
		"ALLOW_ORIGINS":    "https://a.example, https://b.example ,",
		"JWT_SECRET":       "s3cret",
		"JWT_EXPIRES_MIN":  "60",
		"RANKING_POLICY":   "direct",
		"TOP_K":            "5",
		"MIN_SIMILARITY":   "0.55",
		"EMBED_TIMEOUT":    "3s",
		"CORPUS_WATCH":     "false",
		"AI_HOST":          "http://gpu:8080",
		"EMBEDDING_MODEL":  "text-embedding-3-small",
		"NATS_URL":         "nats://localhost:4222",
		"EMBEDDING_HOST":   "   ",
	}))
	require.NoError(t, err)

	assert.Equal(t, ":9000", c.Addr)
	assert.Equal(t, "/srv/q.csv", c.QuestionsPath)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, c.AllowOrigins)
	assert.Equal(t, "s3cret", c.JWTSecret)
	assert.Equal(t, time.Hour, c.JWTExpiry)
	assert.Equal(t, PolicyDirect, c.Policy)
	assert.Equal(t, 5, c.TopK)
	require.NotNil(t, c.MinSimilarity)
	assert.InDelta(t, 0.55, *c.MinSimilarity, 1e-6)
	assert.Equal(t, 3*time.Second, c.EmbedTimeout)
	assert.False(t, c.WatchCorpus)
	assert.Equal(t, "http://gpu:8080", c.AI.EmbeddingHost, "blank values are ignored")
	assert.Equal(t, "http://gpu:8080", c.AI.SpeechHost)
	assert.Equal(t, "text-embedding-3-small", c.AI.EmbeddingModel)
	assert.Equal(t, "nats://localhost:4222", c.NATSURL)

	require.NoError(t, c.Validate())
	assert.Equal(t, "http://gpu:8080/v1", c.AI.EmbeddingHost, "validation normalizes hosts")
}

func TestLoad_ADDRWinsOverPORT(t *testing.T) {
	c, err := Load(env(map[string]string{"PORT": "9000", "ADDR": "127.0.0.1:7000"}))
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:7000", c.Addr)
}

func TestLoad_MalformedValues(t *testing.T) {
	_, err := Load(env(map[string]string{
		"TOP_K":          "three",
		"EMBED_TIMEOUT":  "soon",
		"MIN_SIMILARITY": "high",
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TOP_K")
	assert.Contains(t, err.Error(), "EMBED_TIMEOUT")
	assert.Contains(t, err.Error(), "MIN_SIMILARITY")
}

func TestLoad_NonFiniteFloats(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"NaN threshold", "MIN_SIMILARITY", "NaN"},
		{"infinite threshold", "MIN_SIMILARITY", "-Inf"},
		{"NaN rate", "RATE_LIMIT", "nan"},
		{"infinite rate", "RATE_LIMIT", "+Inf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(env(map[string]string{tt.key: tt.val}))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestLoad_TrustedProxies(t *testing.T) {
	c, err := Load(env(map[string]string{"TRUSTED_PROXIES": "10.0.0.0/8, 192.0.2.1"}))
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.0/8", "192.0.2.1"}, c.TrustedProxies)
	require.NoError(t, c.Validate())

	prefixes, err := ParseProxies(c.TrustedProxies)
	require.NoError(t, err)
	assert.Equal(t, []netip.Prefix{
		netip.MustParsePrefix("10.0.0.0/8"),
		netip.MustParsePrefix("192.0.2.1/32"),
	}, prefixes)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no addr", func(c *Config) { c.Addr = "" }},
		{"no questions", func(c *Config) { c.QuestionsPath = "" }},
		{"no data dir", func(c *Config) { c.DataDir = "" }},
		{"no static dir", func(c *Config) { c.StaticDir = "" }},
		{"no secret", func(c *Config) { c.JWTSecret = "" }},
		{"zero expiry", func(c *Config) { c.JWTExpiry = 0 }},
		{"unknown policy", func(c *Config) { c.Policy = "bm25" }},
		{"unknown provider", func(c *Config) { c.AnswerProvider = "notebook" }},
		{"zero top-k", func(c *Config) { c.TopK = 0 }},
		{"threshold out of range", func(c *Config) { f := float32(2); c.MinSimilarity = &f }},
		{"NaN threshold", func(c *Config) { f := float32(math.NaN()); c.MinSimilarity = &f }},
		{"infinite threshold", func(c *Config) { f := float32(math.Inf(1)); c.MinSimilarity = &f }},
		{"NaN rate", func(c *Config) { c.RateLimit = math.NaN() }},
		{"bad trusted proxy", func(c *Config) { c.TrustedProxies = []string{"proxy.local"} }},
		{"zero embed timeout", func(c *Config) { c.EmbedTimeout = 0 }},
		{"negative rate", func(c *Config) { c.RateLimit = -1 }},
		{"rate without burst", func(c *Config) { c.RateBurst = 0 }},
		{"missing ai", func(c *Config) { c.AI = nil }},
		{"invalid ai", func(c *Config) { c.AI.EmbeddingModel = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestWarnings(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	c := Default()
	c.AllowOrigins = []string{"*"}
	c.Warnings(logger)
	assert.Contains(t, buf.String(), "JWT_SECRET")
	assert.Contains(t, buf.String(), "every origin")

	buf.Reset()
	c = Default()
	c.JWTSecret = "real"
	c.Warnings(logger)
	assert.Empty(t, buf.String())
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, SplitList(""))
	assert.Equal(t, []string{"a", "b"}, SplitList(" a ,, b "))
}
