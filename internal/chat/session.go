// Package chat composes database context for free-text questions and relays
// them to the AI assistant. The session never writes to the database.
package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/augusta-labs/incentive-matcher/internal/ai"
	"github.com/augusta-labs/incentive-matcher/internal/store"
	"github.com/augusta-labs/incentive-matcher/internal/utils"

	"go.uber.org/zap"
)

// Retriever is the read-only persistence surface the session needs.
type Retriever interface {
	SearchCompanies(ctx context.Context, terms []string, limit int) (store.Companies, error)
	SearchIncentives(ctx context.Context, terms []string, limit int) (store.Incentives, error)
	CorrespondencesFor(ctx context.Context, companyIDs, incentiveIDs []uint) ([]store.Correspondence, error)
	RecentCorrespondences(ctx context.Context, limit int) ([]store.Correspondence, error)
}

const (
	defaultContextLimit = 8
	snippetLength       = 300
)

// Session answers questions about stored companies, incentives and
// correspondences within a single interactive run. History lives in the
// assistant; nothing is persisted.
type Session struct {
	store        Retriever
	assistant    ai.Assistant
	contextLimit int
	logger       *zap.Logger
}

func New(st Retriever, assistant ai.Assistant, contextLimit int, logger *zap.Logger) *Session {
	if contextLimit <= 0 {
		contextLimit = defaultContextLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Session{
		store:        st,
		assistant:    assistant,
		contextLimit: contextLimit,
		logger:       logger,
	}
}

// Ask retrieves rows relevant to the question, composes a context block and
// forwards both to the assistant.
func (s *Session) Ask(ctx context.Context, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", fmt.Errorf("question must not be empty")
	}

	block, err := s.buildContext(ctx, question)
	if err != nil {
		return "", err
	}

	s.logger.Debug("asking assistant",
		zap.String("question", utils.TruncateForLog(question, snippetLength)),
		zap.Int("context_length", len(block)),
	)

	return s.assistant.Answer(ctx, question, block)
}

// buildContext keyword-filters companies and incentives by the question's
// terms and joins in their stored correspondences. When nothing matches it
// falls back to the most recent correspondences so the assistant always has
// some grounding.
func (s *Session) buildContext(ctx context.Context, question string) (string, error) {
	terms := searchTerms(question)

	companies, err := s.store.SearchCompanies(ctx, terms, s.contextLimit)
	if err != nil {
		return "", fmt.Errorf("retrieve companies: %w", err)
	}

	incentives, err := s.store.SearchIncentives(ctx, terms, s.contextLimit)
	if err != nil {
		return "", fmt.Errorf("retrieve incentives: %w", err)
	}

	var correspondences []store.Correspondence
	if companies.Len() > 0 || incentives.Len() > 0 {
		correspondences, err = s.store.CorrespondencesFor(ctx, companies.IDs(), incentives.IDs())
	} else {
		correspondences, err = s.store.RecentCorrespondences(ctx, s.contextLimit)
	}
	if err != nil {
		return "", fmt.Errorf("retrieve correspondences: %w", err)
	}

	var b strings.Builder

	if companies.Len() > 0 {
		b.WriteString("Companies:\n")
		for _, company := range companies {
			fmt.Fprintf(&b, "- [%d] %s", company.ID, company.Label())
			if desc := utils.TruncateForLog(company.TradeDescription, snippetLength); desc != "" {
				fmt.Fprintf(&b, ": %s", desc)
			}
			b.WriteString("\n")
		}
	}

	if incentives.Len() > 0 {
		b.WriteString("Incentives:\n")
		for _, incentive := range incentives {
			fmt.Fprintf(&b, "- [%d] %s", incentive.ID, incentive.Title)
			desc := incentive.AIDescription
			if desc == "" {
				desc = incentive.Description
			}
			if desc = utils.TruncateForLog(desc, snippetLength); desc != "" {
				fmt.Fprintf(&b, ": %s", desc)
			}
			b.WriteString("\n")
		}
	}

	if len(correspondences) > 0 {
		b.WriteString("Correspondences (company matched to incentive):\n")
		for _, row := range correspondences {
			fmt.Fprintf(&b, "- %s matches %q (score %.2f)", row.Company.Name, row.Incentive.Title, row.Score)
			if rationale := utils.TruncateForLog(row.Rationale, snippetLength); rationale != "" {
				fmt.Fprintf(&b, ": %s", rationale)
			}
			b.WriteString("\n")
		}
	}

	return strings.TrimSpace(b.String()), nil
}

// searchTerms extracts lookup terms from a question: lowercase words of four
// or more characters. The store lowercases its side of the comparison.
func searchTerms(question string) []string {
	words := strings.Fields(question)
	terms := make([]string, 0, len(words))
	for _, word := range words {
		word = strings.ToLower(strings.Trim(word, ".,;:!?\"'()"))
		if len([]rune(word)) < 4 {
			continue
		}
		terms = append(terms, word)
	}
	return terms
}
