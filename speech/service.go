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

// Package speech turns guidance text into audio files served to clients.
package speech

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/poiesic/sosai/ai"
	"github.com/poiesic/sosai/search"
)

const (
	DefaultLang      = "ko"
	DefaultURLPrefix = "/static/"
)

var (
	// ErrEmptyText is returned when there is nothing to synthesize.
	ErrEmptyText = errors.New("text is required")

	// ErrSynthesizerRequired is returned by NewService without a synthesizer.
	ErrSynthesizerRequired = errors.New("synthesizer required")
)

// Service synthesizes text and stores the audio under a directory that
// is served at URLPrefix.
type Service struct {
	synth     ai.Synthesizer
	dir       string
	urlPrefix string
	logger    *slog.Logger
}

// Option configures a Service.
type Option func(*Service) error

// WithURLPrefix sets the URL path the directory is served under.
// Default is DefaultURLPrefix.
func WithURLPrefix(prefix string) Option {
	return func(s *Service) error {
		if !strings.HasPrefix(prefix, "/") {
			return fmt.Errorf("url prefix %q must start with /", prefix)
		}
		if !strings.HasSuffix(prefix, "/") {
			prefix += "/"
		}
		s.urlPrefix = prefix
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewService creates the audio directory if needed.
func NewService(synth ai.Synthesizer, dir string, opts ...Option) (*Service, error) {
	if synth == nil {
		return nil, ErrSynthesizerRequired
	}
	if dir == "" {
		return nil, errors.New("audio directory required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create audio directory: %w", err)
	}

	s := &Service{
		synth:     synth,
		dir:       dir,
		urlPrefix: DefaultURLPrefix,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "speech")
	return s, nil
}

// Dir returns the directory audio files are written to.
func (s *Service) Dir() string {
	return s.dir
}

// URLPrefix returns the path the directory is served under.
func (s *Service) URLPrefix() string {
	return s.urlPrefix
}

// Speak synthesizes text and returns the URL of the stored audio.
// An empty lang means DefaultLang.
func (s *Service) Speak(ctx context.Context, text, lang string) (string, error) {
	text = search.Normalize(text)
	if text == "" {
		return "", ErrEmptyText
	}
	if lang == "" {
		lang = DefaultLang
	}

	audio, err := s.synth.Synthesize(ctx, text, lang)
	if err != nil {
		return "", fmt.Errorf("synthesize: %w", err)
	}
	if len(audio) == 0 {
		return "", errors.New("synthesize: no audio returned")
	}

	id := uuid.New()
	name := hex.EncodeToString(id[:]) + "." + s.synth.Format()
	if err := s.write(name, audio); err != nil {
		return "", err
	}

	s.logger.Debug("audio stored", "file", name, "bytes", len(audio), "lang", lang)
	return s.urlPrefix + name, nil
}

// write stores audio through a temp file so a served file is never partial.
func (s *Service) write(name string, audio []byte) error {
	tmp, err := os.CreateTemp(s.dir, ".audio-*")
	if err != nil {
		return fmt.Errorf("store audio: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(audio); err != nil {
		tmp.Close()
		return fmt.Errorf("store audio: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("store audio: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("store audio: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		return fmt.Errorf("store audio: %w", err)
	}
	return nil
}

// Prune removes audio files last modified more than maxAge ago and returns
// how many were removed.
func (s *Service) Prune(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-maxAge)
	suffix := "." + s.synth.Format()
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), suffix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(s.dir, entry.Name())); err != nil {
				s.logger.Warn("failed to prune audio file", "file", entry.Name(), "err", err)
				continue
			}
			removed++
		}
	}
	if removed > 0 {
		s.logger.Info("pruned audio files", "count", removed)
	}
	return removed, nil
}
