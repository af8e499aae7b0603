package gemini

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/augusta-labs/incentive-matcher/internal/ai"
	"github.com/augusta-labs/incentive-matcher/internal/utils"
	"go.uber.org/zap"
)

const assistantSystemPrompt = "You are a helpful assistant for exploring a database of companies, " +
	"public incentives and the correspondences found between them. " +
	"Answer using only the database context supplied with each question. " +
	"When the context does not contain the answer, say so instead of guessing. " +
	"Refer to companies and incentives by name."

type chatter interface {
	Send(ctx context.Context, message string) (string, error)
}

// Assistant answers free-text questions over supplied database context while
// keeping conversational history for the session.
type Assistant struct {
	chat      chatter
	logger    *zap.Logger
	maxLogLen int
}

var _ ai.Assistant = (*Assistant)(nil)

func NewAssistant(generator *Generator, historyLimit int, logger *zap.Logger, maxLogLength int) *Assistant {
	return newAssistant(generator.NewSession(assistantSystemPrompt, historyLimit), logger, maxLogLength)
}

func newAssistant(chat chatter, logger *zap.Logger, maxLogLength int) *Assistant {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Assistant{
		chat:      chat,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

func (a *Assistant) Answer(ctx context.Context, question, dbContext string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", fmt.Errorf("question must not be empty")
	}

	message := question
	if block := strings.TrimSpace(dbContext); block != "" {
		message = fmt.Sprintf("Database context:\n%s\n\nQuestion: %s", block, question)
	}

	a.logger.Debug("gemini assistant request",
		zap.Int("message_length", utf8.RuneCountInString(message)),
		zap.String("message_preview", utils.TruncateForLog(message, a.maxLogLen)),
	)

	answer, err := a.chat.Send(ctx, message)
	if err != nil {
		return "", err
	}

	a.logger.Debug("gemini assistant response",
		zap.String("response_preview", utils.TruncateForLog(answer, a.maxLogLen)),
	)

	return answer, nil
}
