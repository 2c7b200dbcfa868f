package admin

import (
	"errors"
	"testing"

	"github.com/Alijeyrad/surveybot/internal/content"
)

func TestParseAnswers(t *testing.T) {
	tests := []struct {
		name     string
		block    string
		want     []content.NewAnswer
		wantLine int
	}{
		{
			name:  "simple block",
			block: "Never | 0\nSometimes | 1\nOften | 3",
			want:  []content.NewAnswer{{Text: "Never", Value: 0}, {Text: "Sometimes", Value: 1}, {Text: "Often", Value: 3}},
		},
		{
			name:  "blank lines and padding",
			block: "\n  Yes   |  2 \n\n\nNo|-1\n",
			want:  []content.NewAnswer{{Text: "Yes", Value: 2}, {Text: "No", Value: -1}},
		},
		{name: "missing separator", block: "Yes | 1\nNo 0", wantLine: 2},
		{name: "two separators", block: "a | b | 1", wantLine: 1},
		{name: "empty text", block: "ok | 1\n\n | 2", wantLine: 3},
		{name: "non integer", block: "Yes | one", wantLine: 1},
		{name: "empty block", block: "\n \n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAnswers(tt.block)
			if tt.want != nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if len(got) != len(tt.want) {
					t.Fatalf("expected %d answers, got %d", len(tt.want), len(got))
				}
				for i := range got {
					if got[i] != tt.want[i] {
						t.Errorf("answer %d: expected %+v, got %+v", i, tt.want[i], got[i])
					}
				}
				return
			}

			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Field != "answers" {
				t.Errorf("expected field answers, got %q", verr.Field)
			}
			if verr.Line != tt.wantLine {
				t.Errorf("expected line %d, got %d", tt.wantLine, verr.Line)
			}
		})
	}
}

func TestParseScoreRange(t *testing.T) {
	tests := []struct {
		in       string
		min, max int
		ok       bool
	}{
		{in: "0 10", min: 0, max: 10, ok: true},
		{in: "  -5   -1 ", min: -5, max: -1, ok: true},
		{in: "3 3", min: 3, max: 3, ok: true},
		{in: "10 0"},
		{in: "1"},
		{in: "1 2 3"},
		{in: "a 2"},
		{in: "1 b"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			min, max, err := ParseScoreRange(tt.in)
			if !tt.ok {
				var verr *ValidationError
				if !errors.As(err, &verr) {
					t.Fatalf("expected ValidationError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if min != tt.min || max != tt.max {
				t.Errorf("expected %d..%d, got %d..%d", tt.min, tt.max, min, max)
			}
		})
	}
}
