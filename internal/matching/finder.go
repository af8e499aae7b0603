// Package matching implements the correspondence run: judging every candidate
// (company, incentive) pair and persisting the qualifying ones.
package matching

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/augusta-labs/incentive-matcher/internal/ai"
	"github.com/augusta-labs/incentive-matcher/internal/logger"
	"github.com/augusta-labs/incentive-matcher/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Store is the persistence surface the finder needs.
type Store interface {
	ListIncentives(ctx context.Context) (store.Incentives, error)
	ListCompanies(ctx context.Context) (store.Companies, error)
	SearchCompanies(ctx context.Context, terms []string, limit int) (store.Companies, error)
	CreateCorrespondence(ctx context.Context, c *store.Correspondence) error
}

// Config controls a correspondence run.
type Config struct {
	// Threshold is the minimum score for a correspondence to be persisted.
	Threshold float64
	// CompanyLimit bounds how many candidate companies are judged per incentive.
	CompanyLimit int
}

const defaultCompanyLimit = 25

// Finder drives one correspondence run end to end.
type Finder struct {
	store  Store
	judge  ai.Judge
	config *Config
	logger *zap.Logger
}

// Match is one persisted correspondence, echoed into the run summary.
type Match struct {
	IncentiveID uint    `json:"incentive_id"`
	CompanyID   uint    `json:"company_id"`
	Score       float64 `json:"score"`
	Rationale   string  `json:"rationale,omitempty"`
}

// Summary reports what a run did.
type Summary struct {
	RunID        string    `json:"run_id"`
	Incentives   int       `json:"incentives"`
	PairsJudged  int       `json:"pairs_judged"`
	Matched      int       `json:"matched"`
	PairsSkipped int       `json:"pairs_skipped"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
	Matches      []Match   `json:"matches"`
}

func New(st Store, judge ai.Judge, config *Config, logger *zap.Logger) *Finder {
	if config == nil {
		config = &Config{}
	}
	if config.CompanyLimit <= 0 {
		config.CompanyLimit = defaultCompanyLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Finder{
		store:  st,
		judge:  judge,
		config: config,
		logger: logger,
	}
}

// Run judges all candidate pairs and persists those clearing the threshold.
// AI failures are isolated per pair; any persistence failure aborts the run to
// avoid a silently incomplete correspondence set.
func (f *Finder) Run(ctx context.Context) (*Summary, error) {
	summary := &Summary{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Matches:   []Match{},
	}

	log := f.logger.With(zap.String(logger.FieldRun, summary.RunID))

	incentives, err := f.store.ListIncentives(ctx)
	if err != nil {
		return nil, fmt.Errorf("list incentives: %w", err)
	}
	summary.Incentives = incentives.Len()

	log.Info("starting correspondence run",
		zap.Int("incentives", incentives.Len()),
		zap.Float64("threshold", f.config.Threshold),
	)

	type pair struct {
		company   uint
		incentive uint
	}
	judged := make(map[pair]struct{})

	for i := range incentives {
		incentive := incentives[i]

		companies, err := f.candidates(ctx, &incentive)
		if err != nil {
			return nil, err
		}

		log.Debug("judging incentive",
			zap.Uint("incentive_id", incentive.ID),
			zap.String("title", incentive.Title),
			zap.Int("candidates", companies.Len()),
		)

		for c := range companies {
			company := companies[c]

			key := pair{company: company.ID, incentive: incentive.ID}
			if _, ok := judged[key]; ok {
				continue
			}
			judged[key] = struct{}{}

			if err := ctx.Err(); err != nil {
				return nil, err
			}

			judgement, err := f.judge.Judge(ctx, &company, &incentive)
			summary.PairsJudged++
			if err != nil {
				summary.PairsSkipped++
				log.Warn("AI judgement failed, skipping pair",
					zap.Uint("company_id", company.ID),
					zap.Uint("incentive_id", incentive.ID),
					zap.Error(err),
				)
				continue
			}

			if judgement.Score < f.config.Threshold {
				log.Debug("pair below threshold",
					zap.Uint("company_id", company.ID),
					zap.Uint("incentive_id", incentive.ID),
					zap.Float64("score", judgement.Score),
				)
				continue
			}

			correspondence := &store.Correspondence{
				RunID:       summary.RunID,
				CompanyID:   company.ID,
				IncentiveID: incentive.ID,
				Score:       judgement.Score,
				Rationale:   judgement.Rationale,
			}
			if err := f.store.CreateCorrespondence(ctx, correspondence); err != nil {
				return nil, fmt.Errorf("persist correspondence: %w", err)
			}

			summary.Matched++
			summary.Matches = append(summary.Matches, Match{
				IncentiveID: incentive.ID,
				CompanyID:   company.ID,
				Score:       judgement.Score,
				Rationale:   judgement.Rationale,
			})

			log.Info("correspondence persisted",
				zap.Uint("company_id", company.ID),
				zap.Uint("incentive_id", incentive.ID),
				zap.Float64("score", judgement.Score),
			)
		}
	}

	summary.FinishedAt = time.Now().UTC()

	log.Info("correspondence run completed",
		zap.Int("pairs_judged", summary.PairsJudged),
		zap.Int("matched", summary.Matched),
		zap.Int("pairs_skipped", summary.PairsSkipped),
	)

	return summary, nil
}

// candidates returns the companies worth judging for the incentive: a keyword
// pre-filter when it yields anything, otherwise the full set capped at the
// configured limit.
func (f *Finder) candidates(ctx context.Context, incentive *store.Incentive) (store.Companies, error) {
	terms := keywordTerms(incentive.Title, incentive.AIDescription, incentive.Description)

	if len(terms) > 0 {
		companies, err := f.store.SearchCompanies(ctx, terms, f.config.CompanyLimit)
		if err != nil {
			return nil, fmt.Errorf("search candidate companies: %w", err)
		}
		if companies.Len() > 0 {
			return companies, nil
		}
	}

	companies, err := f.store.ListCompanies(ctx)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	if companies.Len() > f.config.CompanyLimit {
		companies = companies[:f.config.CompanyLimit]
	}
	return companies, nil
}

// WriteFile dumps the summary as indented JSON, mirroring what the run logged.
func (s *Summary) WriteFile(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create results file: %w", err)
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("write results file: %w", err)
	}
	return nil
}
