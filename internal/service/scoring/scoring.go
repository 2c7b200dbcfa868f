// Package scoring maps a finished attempt's total score to a category's
// result message.
package scoring

import (
	"context"
	"fmt"

	"github.com/Alijeyrad/surveybot/internal/content"
)

// RuleSource is the part of content.Store the resolver reads.
type RuleSource interface {
	CategoryResponses(ctx context.Context, categoryID int64) ([]content.CategoryResponse, error)
}

type Resolver struct {
	rules RuleSource
}

func New(rules RuleSource) *Resolver {
	return &Resolver{rules: rules}
}

// Resolve returns the first rule, ordered by (min_score, id), whose range
// contains score. A nil response with a nil error means no rule matched.
func (r *Resolver) Resolve(ctx context.Context, categoryID int64, score int) (*content.CategoryResponse, error) {
	rules, err := r.rules.CategoryResponses(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("load score rules for category %d: %w", categoryID, err)
	}
	return Match(rules, score), nil
}

// Match picks from rules already sorted by (min_score, id).
func Match(rules []content.CategoryResponse, score int) *content.CategoryResponse {
	for i := range rules {
		if rules[i].Covers(score) {
			rule := rules[i]
			return &rule
		}
	}
	return nil
}
