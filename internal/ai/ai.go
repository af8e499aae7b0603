// Package ai defines the narrow interfaces behind which the external AI
// service sits.
package ai

import (
	"context"

	"github.com/augusta-labs/incentive-matcher/internal/store"
)

// Judgement is the structured verdict for one (company, incentive) pair.
type Judgement struct {
	// Score is normalized to [0, 1].
	Score     float64
	Rationale string
	// Raw is the unparsed provider response, kept for debugging.
	Raw string
}

// Judge scores how well a company fits an incentive's eligibility criteria.
type Judge interface {
	Judge(ctx context.Context, company *store.Company, incentive *store.Incentive) (*Judgement, error)
}

// Assistant answers a free-text question given a block of database context.
// Implementations keep conversational history for the lifetime of the value.
type Assistant interface {
	Answer(ctx context.Context, question, context string) (string, error)
}
