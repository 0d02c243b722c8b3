package core

import (
	"strings"
	"testing"
)

func TestIDFromContent(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantSame bool
	}{
		{
			name:     "same content produces same ID",
			content:  "test content",
			wantSame: true,
		},
		{
			name:     "empty string",
			content:  "",
			wantSame: true,
		},
		{
			name:     "hangul content",
			content:  "물집이 생겼어요",
			wantSame: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id1 := IDFromContent(tt.content)
			id2 := IDFromContent(tt.content)

			if tt.wantSame && id1 != id2 {
				t.Errorf("IDFromContent() produced different IDs for same content: %d vs %d", id1, id2)
			}
		})
	}
}

func TestIDFromContent_Different(t *testing.T) {
	id1 := IDFromContent("content1")
	id2 := IDFromContent("content2")

	if id1 == id2 {
		t.Errorf("IDFromContent() produced same ID for different content")
	}
}

func TestCategoryKey(t *testing.T) {
	tests := []struct {
		name   string
		key    CategoryKey
		want   string
		isZero bool
	}{
		{
			name: "condition and intent",
			key:  CategoryKey{Condition: "화상", Intent: "물집"},
			want: "화상/물집",
		},
		{
			name: "condition only",
			key:  CategoryKey{Condition: "화상"},
			want: "화상/",
		},
		{
			name:   "zero key",
			key:    CategoryKey{},
			want:   "/",
			isZero: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.key.String(); got != tt.want {
				t.Errorf("CategoryKey.String() = %v, want %v", got, tt.want)
			}
			if got := tt.key.IsZero(); got != tt.isZero {
				t.Errorf("CategoryKey.IsZero() = %v, want %v", got, tt.isZero)
			}
		})
	}
}

func TestCategoryKey_ID(t *testing.T) {
	a := CategoryKey{Condition: "화상", Intent: "물집"}
	b := CategoryKey{Condition: "화상", Intent: "물집"}
	c := CategoryKey{Condition: "화상", Intent: "대처"}

	if a.ID() != b.ID() {
		t.Errorf("equal keys produced different IDs")
	}
	if a.ID() == c.ID() {
		t.Errorf("different keys produced same ID")
	}
}

func TestProfile_PersonalizationText(t *testing.T) {
	t.Run("nil profile", func(t *testing.T) {
		var p *Profile
		if got := p.PersonalizationText(); got != "" {
			t.Errorf("PersonalizationText() = %q, want empty", got)
		}
	})

	t.Run("empty profile", func(t *testing.T) {
		p := &Profile{UserId: 1}
		if got := p.PersonalizationText(); got != "" {
			t.Errorf("PersonalizationText() = %q, want empty", got)
		}
	})

	t.Run("only non-empty fields in order", func(t *testing.T) {
		p := &Profile{
			UserId:    1,
			BloodType: "A+",
			Allergies: " 페니실린 ",
			Name:      "홍길동",
		}
		want := "이름: 홍길동\n혈액형: A+\n알레르기: 페니실린"
		if got := p.PersonalizationText(); got != want {
			t.Errorf("PersonalizationText() = %q, want %q", got, want)
		}
	})

	t.Run("whitespace-only fields are skipped", func(t *testing.T) {
		p := &Profile{UserId: 1, Medications: "   "}
		if got := p.PersonalizationText(); strings.Contains(got, "복용") {
			t.Errorf("PersonalizationText() = %q, expected medications to be skipped", got)
		}
	})
}

func TestQueryResult_Found(t *testing.T) {
	tests := []struct {
		name   string
		result QueryResult
		want   bool
	}{
		{"no results", QueryResult{BestAnswer: NoAnswerFound}, false},
		{"results with sentinel", QueryResult{Results: []Result{{Question: "q"}}, BestAnswer: NoAnswerFound}, false},
		{"results with answer", QueryResult{Results: []Result{{Question: "q"}}, BestAnswer: "냉찜질을 하세요"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.result.Found(); got != tt.want {
				t.Errorf("Found() = %v, want %v", got, tt.want)
			}
		})
	}
}
