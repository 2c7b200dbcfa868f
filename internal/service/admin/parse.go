package admin

import (
	"strconv"
	"strings"

	"github.com/Alijeyrad/surveybot/internal/content"
)

// ParseAnswers reads an answers block: one "text | value" per line, blank
// lines ignored. The first bad line fails the whole block.
func ParseAnswers(block string) ([]content.NewAnswer, error) {
	var out []content.NewAnswer
	for i, raw := range strings.Split(block, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if strings.Count(line, "|") != 1 {
			return nil, &ValidationError{Line: i + 1, Field: "answers", Reason: `expected "text | value"`}
		}
		text, value, _ := strings.Cut(line, "|")
		text = strings.TrimSpace(text)
		if text == "" {
			return nil, &ValidationError{Line: i + 1, Field: "answers", Reason: "answer text is empty"}
		}
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return nil, &ValidationError{Line: i + 1, Field: "answers", Reason: "value must be an integer"}
		}
		out = append(out, content.NewAnswer{Text: text, Value: n})
	}
	if len(out) == 0 {
		return nil, &ValidationError{Field: "answers", Reason: "at least one answer is required"}
	}
	return out, nil
}

// ParseScoreRange reads "min max".
func ParseScoreRange(s string) (min, max int, err error) {
	parts := strings.Fields(s)
	if len(parts) != 2 {
		return 0, 0, &ValidationError{Field: "score_range", Reason: `expected "min max"`}
	}
	if min, err = strconv.Atoi(parts[0]); err != nil {
		return 0, 0, &ValidationError{Field: "score_range", Reason: "min must be an integer"}
	}
	if max, err = strconv.Atoi(parts[1]); err != nil {
		return 0, 0, &ValidationError{Field: "score_range", Reason: "max must be an integer"}
	}
	if min > max {
		return 0, 0, &ValidationError{Field: "score_range", Reason: "min must not exceed max"}
	}
	return min, max, nil
}
