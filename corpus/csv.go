package corpus

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/poiesic/sosai/core"
)

const (
	colQuestion  = "question"
	colCondition = "condition"
	colIntent    = "intent"
	colEmbedding = "embedding"
	colAnswer    = "answer"
)

// columnAliases maps accepted header names to canonical columns.
var columnAliases = map[string]string{
	"question":  colQuestion,
	"질문":        colQuestion,
	"condition": colCondition,
	"disease":   colCondition,
	"category":  colCondition,
	"질병":        colCondition,
	"카테고리":      colCondition,
	"intent":    colIntent,
	"의도":        colIntent,
	"embedding": colEmbedding,
	"임베딩":       colEmbedding,
	"answer":    colAnswer,
	"답변":        colAnswer,
}

var errMissingColumn = errors.New("missing column")

type header map[string]int

func readHeader(r *csv.Reader) (header, error) {
	names, err := r.Read()
	if err == io.EOF {
		return nil, errors.New("no header row")
	}
	if err != nil {
		return nil, err
	}

	h := make(header, len(names))
	for i, name := range names {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if canonical, ok := columnAliases[name]; ok {
			if _, dup := h[canonical]; !dup {
				h[canonical] = i
			}
		}
	}
	return h, nil
}

func (h header) require(cols ...string) error {
	for _, col := range cols {
		if _, ok := h[col]; !ok {
			return fmt.Errorf("%w: %q", errMissingColumn, col)
		}
	}
	return nil
}

func (h header) get(row []string, col string) string {
	i, ok := h[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func newReader(data []byte) *csv.Reader {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = 0
	r.ReuseRecord = false
	return r
}

// parseQuestions reads the question table. When withEmbeddings is false
// the embedding column is optional and ignored.
func parseQuestions(data []byte, withEmbeddings bool) ([]core.QuestionRecord, error) {
	r := newReader(data)
	h, err := readHeader(r)
	if err != nil {
		return nil, err
	}
	required := []string{colQuestion, colCondition}
	if withEmbeddings {
		required = append(required, colEmbedding)
	}
	if err := h.require(required...); err != nil {
		return nil, err
	}

	var records []core.QuestionRecord
	for line := 2; ; line++ {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		rec := core.QuestionRecord{
			Index: len(records),
			Text:  h.get(row, colQuestion),
			Category: core.CategoryKey{
				Condition: h.get(row, colCondition),
				Intent:    h.get(row, colIntent),
			},
		}
		if rec.Text == "" {
			return nil, fmt.Errorf("row %d: empty question", line)
		}
		if withEmbeddings {
			rec.Vector, err = parseEmbedding(h.get(row, colEmbedding))
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", line, err)
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseAnswers(data []byte) ([]core.AnswerRecord, error) {
	r := newReader(data)
	h, err := readHeader(r)
	if err != nil {
		return nil, err
	}
	if err := h.require(colAnswer, colCondition); err != nil {
		return nil, err
	}

	var records []core.AnswerRecord
	for line := 2; ; line++ {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		rec := core.AnswerRecord{
			Index: len(records),
			Text:  h.get(row, colAnswer),
			Category: core.CategoryKey{
				Condition: h.get(row, colCondition),
				Intent:    h.get(row, colIntent),
			},
		}
		if rec.Text == "" {
			return nil, fmt.Errorf("row %d: empty answer", line)
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseEmbedding(cell string) ([]float32, error) {
	if cell == "" {
		return nil, errors.New("empty embedding")
	}
	var vec []float32
	if err := json.Unmarshal([]byte(cell), &vec); err != nil {
		return nil, fmt.Errorf("invalid embedding: %w", err)
	}
	if len(vec) == 0 {
		return nil, errors.New("empty embedding")
	}
	return vec, nil
}

// ReadQuestions parses a question table whose embedding column may be
// missing. Used to prepare a corpus for embedding.
func ReadQuestions(r io.Reader) ([]core.QuestionRecord, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	records, err := parseQuestions(data, false)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrCorpusLoad, err)
	}
	return records, nil
}

// WriteQuestions writes records as a question table with embeddings.
func WriteQuestions(w io.Writer, records []core.QuestionRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{colQuestion, colCondition, colIntent, colEmbedding}); err != nil {
		return err
	}
	for _, rec := range records {
		vec, err := json.Marshal(rec.Vector)
		if err != nil {
			return err
		}
		row := []string{rec.Text, rec.Category.Condition, rec.Category.Intent, string(vec)}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
