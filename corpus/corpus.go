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

package corpus

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/poiesic/sosai/core"
)

// DefaultPriorityKeywords lists first-aid action words. Answers containing
// any of them are preferred when re-ranking within a category.
var DefaultPriorityKeywords = []string{
	"냉찜질",
	"찬물",
	"흐르는 물",
	"식혀",
	"식히",
	"119",
	"응급실",
	"병원",
	"소독",
	"거즈",
	"붕대",
	"연고",
	"압박",
	"지혈",
	"심폐소생술",
}

// Corpus is an immutable snapshot of the question and answer tables.
type Corpus struct {
	questions   []core.QuestionRecord
	answers     map[core.CategoryKey][]core.AnswerRecord
	answerCount int
	dimension   int
	fingerprint core.ID
	loadedAt    time.Time
}

// Option configures loading.
type Option func(*options)

type options struct {
	keywords []string
	logger   *slog.Logger
}

// WithPriorityKeywords replaces DefaultPriorityKeywords.
func WithPriorityKeywords(keywords []string) Option {
	return func(o *options) {
		o.keywords = keywords
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
	}
}

func newOptions(opts []Option) *options {
	o := &options{
		keywords: DefaultPriorityKeywords,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Load reads the question and answer tables. Every failure wraps
// core.ErrCorpusLoad.
func Load(questionsPath, answersPath string, opts ...Option) (*Corpus, error) {
	o := newOptions(opts)

	qData, err := os.ReadFile(questionsPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrCorpusLoad, err)
	}
	aData, err := os.ReadFile(answersPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrCorpusLoad, err)
	}

	c, err := Parse(qData, aData, opts...)
	if err != nil {
		return nil, err
	}

	o.logger.Info("corpus loaded",
		"questions", c.Len(),
		"answers", c.answerCount,
		"categories", len(c.answers),
		"dimension", c.dimension,
		"path", questionsPath)
	return c, nil
}

// Parse builds a Corpus from the raw contents of the two tables.
func Parse(questionsCSV, answersCSV []byte, opts ...Option) (*Corpus, error) {
	o := newOptions(opts)

	questions, err := parseQuestions(questionsCSV, true)
	if err != nil {
		return nil, fmt.Errorf("%w: questions: %w", core.ErrCorpusLoad, err)
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: questions: table is empty", core.ErrCorpusLoad)
	}

	dimension := len(questions[0].Vector)
	for i := range questions {
		if len(questions[i].Vector) != dimension {
			return nil, fmt.Errorf("%w: questions: row %d: %w: got %d, want %d",
				core.ErrCorpusLoad, i+2, core.ErrDimensionMismatch, len(questions[i].Vector), dimension)
		}
	}

	answers, err := parseAnswers(answersCSV)
	if err != nil {
		return nil, fmt.Errorf("%w: answers: %w", core.ErrCorpusLoad, err)
	}

	index := make(map[core.CategoryKey][]core.AnswerRecord)
	for _, a := range answers {
		a.HasPriority = containsAny(a.Text, o.keywords)
		index[a.Category] = append(index[a.Category], a)
	}

	for i := range questions {
		if _, ok := index[questions[i].Category]; !ok {
			o.logger.Warn("question has no answers for its category",
				"question", questions[i].Text,
				"category", questions[i].Category.String())
		}
	}

	return &Corpus{
		questions:   questions,
		answers:     index,
		answerCount: len(answers),
		dimension:   dimension,
		fingerprint: core.IDFromContent(string(questionsCSV) + "\x00" + string(answersCSV)),
		loadedAt:    time.Now().UTC(),
	}, nil
}

// Len returns the number of questions.
func (c *Corpus) Len() int {
	return len(c.questions)
}

// Questions returns the question records in corpus order.
// The slice must not be modified.
func (c *Corpus) Questions() []core.QuestionRecord {
	return c.questions
}

// Question returns the question at position i.
func (c *Corpus) Question(i int) (*core.QuestionRecord, bool) {
	if i < 0 || i >= len(c.questions) {
		return nil, false
	}
	return &c.questions[i], true
}

// Answers returns the answers for key in table order.
// The slice must not be modified.
func (c *Corpus) Answers(key core.CategoryKey) []core.AnswerRecord {
	return c.answers[key]
}

// AnswerCount returns the total number of answers.
func (c *Corpus) AnswerCount() int {
	return c.answerCount
}

// Dimension returns the embedding dimensionality shared by all questions.
func (c *Corpus) Dimension() int {
	return c.dimension
}

// Fingerprint identifies the table contents the corpus was built from.
func (c *Corpus) Fingerprint() core.ID {
	return c.fingerprint
}

func (c *Corpus) LoadedAt() time.Time {
	return c.loadedAt
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
