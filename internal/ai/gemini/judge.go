package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	_ "embed"

	"github.com/augusta-labs/incentive-matcher/internal/ai"
	"github.com/augusta-labs/incentive-matcher/internal/store"
	"github.com/augusta-labs/incentive-matcher/internal/utils"
	"go.uber.org/zap"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, system, message string) (string, error)
}

//go:embed judge_prompt.md
var judgePromptTemplate string

const judgeSystemPrompt = "You are a company-incentive matching assistant. " +
	"Follow the prompt instructions exactly and respond only with the requested JSON object."

const defaultMaxLogLength = 200

// Field crop limits keep the prompt bounded for large imported records.
const (
	cropName        = 200
	cropLabel       = 200
	cropDescription = 1000
)

// Judge asks Gemini to score a (company, incentive) pair.
type Judge struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

var _ ai.Judge = (*Judge)(nil)

func NewJudge(generator *Generator, logger *zap.Logger, maxLogLength int) *Judge {
	return newJudge(generator, logger, maxLogLength)
}

func newJudge(generator contentGenerator, logger *zap.Logger, maxLogLength int) *Judge {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Judge{
		generator: generator,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

func (j *Judge) Judge(ctx context.Context, company *store.Company, incentive *store.Incentive) (*ai.Judgement, error) {
	if company == nil {
		return nil, fmt.Errorf("company is required")
	}
	if incentive == nil {
		return nil, fmt.Errorf("incentive is required")
	}

	companyPayload := map[string]any{
		"id":                crop(strconv.FormatUint(uint64(company.ID), 10), cropName),
		"name":              crop(company.Name, cropName),
		"activity":          crop(company.ActivityLabel, cropLabel),
		"trade_description": crop(company.TradeDescription, cropDescription),
		"website":           crop(company.Website, cropName),
	}

	incentivePayload := map[string]any{
		"id":          incentive.ID,
		"title":       crop(incentive.Title, cropName),
		"description": crop(incentive.Description, cropDescription),
		"criteria":    crop(incentive.AIDescription, cropDescription),
	}

	companyJSON, err := json.MarshalIndent(companyPayload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal company payload: %w", err)
	}

	incentiveJSON, err := json.MarshalIndent(incentivePayload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal incentive payload: %w", err)
	}

	prompt := buildJudgePrompt(string(companyJSON), string(incentiveJSON))

	j.logger.Debug("gemini judge request",
		zap.Uint("company_id", company.ID),
		zap.Uint("incentive_id", incentive.ID),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, j.maxLogLen)),
	)

	raw, err := j.generator.GenerateContent(ctx, judgeSystemPrompt, prompt)
	if err != nil {
		return nil, err
	}

	j.logger.Debug("gemini judge response",
		zap.Uint("company_id", company.ID),
		zap.Uint("incentive_id", incentive.ID),
		zap.String("response_preview", utils.TruncateForLog(raw, j.maxLogLen)),
	)

	judgement, err := parseJudgement(raw)
	if err != nil {
		return nil, err
	}

	judgement.Raw = raw
	return judgement, nil
}

func buildJudgePrompt(companyJSON, incentiveJSON string) string {
	template := judgePromptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Company:\n{{COMPANY_JSON}}\n\nIncentive:\n{{INCENTIVE_JSON}}\n\nJSON Response:"
	}
	prompt := strings.ReplaceAll(template, "{{COMPANY_JSON}}", companyJSON)
	prompt = strings.ReplaceAll(prompt, "{{INCENTIVE_JSON}}", incentiveJSON)
	return prompt
}

func parseJudgement(raw string) (*ai.Judgement, error) {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}

	score := coerceFloat(data["score"])
	if math.IsNaN(score) {
		score = 0
	}
	score = math.Max(0, math.Min(1, score))

	return &ai.Judgement{
		Score:     score,
		Rationale: coerceString(data["rationale"]),
	}, nil
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

func coerceFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case string:
		trimmed := strings.TrimSpace(val)
		if trimmed == "" {
			return math.NaN()
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case fmt.Stringer:
		return strings.TrimSpace(val.String())
	default:
		if v == nil {
			return ""
		}
		bytes, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(bytes)
	}
}

func crop(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-3]) + "..."
}
