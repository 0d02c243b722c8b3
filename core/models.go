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

package core

//go:generate go run ../cmd/musgen

import (
	"encoding/binary"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

type ID uint64

func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// NoAnswerFound is returned as the best answer when no answer record
// matches the selected category.
const NoAnswerFound = "죄송해요, 아직 그 상황에 대한 답변을 찾지 못했어요. 조금 더 구체적으로 말씀해 주실 수 있나요?"

// CategoryKey joins questions to answers. Condition is the ailment
// (e.g. "화상") and Intent the kind of help asked for (e.g. "대처").
type CategoryKey struct {
	Condition string
	Intent    string
}

func (k CategoryKey) String() string {
	return k.Condition + "/" + k.Intent
}

// ID returns a stable content-derived identifier for the key.
func (k CategoryKey) ID() ID {
	return IDFromContent("(" + k.Condition + "," + k.Intent + ")")
}

func (k CategoryKey) IsZero() bool {
	return k.Condition == "" && k.Intent == ""
}

type QuestionRecord struct {
	Index    int // Position in the corpus, used for stable ordering
	Text     string
	Vector   []float32
	Category CategoryKey
}

type AnswerRecord struct {
	Index       int
	Text        string
	Category    CategoryKey
	HasPriority bool // Contains at least one priority first-aid keyword
}

// Match is a single hit returned by an index search.
type Match struct {
	Question *QuestionRecord
	Score    float32
}

// Result is one entry in a QueryResult.
type Result struct {
	Question   string
	Answer     string
	Similarity float32
	Category   CategoryKey
}

type QueryResult struct {
	Query      string
	Results    []Result
	BestAnswer string
}

// Found reports whether the query produced a usable answer.
func (r *QueryResult) Found() bool {
	return len(r.Results) > 0 && r.BestAnswer != NoAnswerFound
}

type User struct {
	Id           ID
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
}

// Profile is the medical profile a user keeps for personalized guidance.
type Profile struct {
	UserId            ID
	Name              string
	BirthDate         string
	BloodType         string
	MedicalHistory    string
	SurgeryHistory    string
	Medications       string
	Allergies         string
	EmergencyContacts string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// PersonalizationText renders the non-empty profile fields as labelled
// lines for inclusion in a generation prompt. Returns "" for a nil or
// empty profile.
func (p *Profile) PersonalizationText() string {
	if p == nil {
		return ""
	}
	fields := []struct {
		label string
		value string
	}{
		{"이름", p.Name},
		{"생년월일", p.BirthDate},
		{"혈액형", p.BloodType},
		{"병력", p.MedicalHistory},
		{"수술 이력", p.SurgeryHistory},
		{"복용 중인 약", p.Medications},
		{"알레르기", p.Allergies},
		{"비상 연락처", p.EmergencyContacts},
	}

	var sb strings.Builder
	for _, f := range fields {
		v := strings.TrimSpace(f.value)
		if v == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(f.label)
		sb.WriteString(": ")
		sb.WriteString(v)
	}
	return sb.String()
}
