package gemini

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

const (
	defaultModel      = "gemini-2.5-flash"
	defaultMaxRetries = 3

	backoffBase = time.Second
	backoffMax  = 30 * time.Second

	// maxQuotaDelay bounds how long a quota hint may ask us to wait before we
	// give up instead of retrying.
	maxQuotaDelay = 30 * time.Second
)

// sleep is a seam for tests.
var sleep = time.Sleep

type chatSession interface {
	SendMessage(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

type chatCreator interface {
	Create(ctx context.Context, model string, config *genai.GenerateContentConfig, history []*genai.Content) (chatSession, error)
}

type genaiChats struct {
	client *genai.Client
}

func (c *genaiChats) Create(ctx context.Context, model string, config *genai.GenerateContentConfig, history []*genai.Content) (chatSession, error) {
	return c.client.Chats.Create(ctx, model, config, history)
}

// Generator wraps the Google GenAI client to provide prompt-based interactions
// with transient-error retries.
type Generator struct {
	chats      chatCreator
	model      string
	maxRetries int
	logger     *zap.Logger
}

// NewGenerator creates a new Generator configured for the Gemini API backend.
func NewGenerator(ctx context.Context, apiKey, model string, maxRetries int, logger *zap.Logger) (*Generator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}

	if maxRetries < 1 {
		maxRetries = defaultMaxRetries
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &Generator{
		chats:      &genaiChats{client: client},
		model:      model,
		maxRetries: maxRetries,
		logger:     logger,
	}, nil
}

// GenerateContent sends one message under the given system instruction and
// returns the textual response. Each call starts a fresh chat.
func (g *Generator) GenerateContent(ctx context.Context, system, message string) (string, error) {
	return g.generate(ctx, system, message, nil)
}

// NewSession returns a conversational session that replays its history on every
// turn. historyLimit bounds the number of retained turns; zero keeps all.
func (g *Generator) NewSession(system string, historyLimit int) *Session {
	return &Session{g: g, system: system, limit: historyLimit}
}

// Session is a conversation with bounded in-memory history. It is not safe for
// concurrent use.
type Session struct {
	g       *Generator
	system  string
	history []*genai.Content
	limit   int
}

// Send submits one user turn and records both sides in the session history.
func (s *Session) Send(ctx context.Context, message string) (string, error) {
	output, err := s.g.generate(ctx, s.system, message, s.history)
	if err != nil {
		return "", err
	}

	s.history = append(s.history,
		&genai.Content{Role: genai.RoleUser, Parts: []*genai.Part{{Text: message}}},
		&genai.Content{Role: genai.RoleModel, Parts: []*genai.Part{{Text: output}}},
	)
	if s.limit > 0 && len(s.history) > 2*s.limit {
		s.history = s.history[len(s.history)-2*s.limit:]
	}

	return output, nil
}

func (g *Generator) generate(ctx context.Context, system, message string, history []*genai.Content) (string, error) {
	if g == nil || g.chats == nil {
		return "", errors.New("gemini generator is not initialized")
	}

	message = strings.TrimSpace(message)
	if message == "" {
		return "", errors.New("message must not be empty")
	}

	var config *genai.GenerateContentConfig
	if system = strings.TrimSpace(system); system != "" {
		config = &genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{
				Role:  genai.RoleUser,
				Parts: []*genai.Part{{Text: system}},
			},
		}
	}

	attempts := g.maxRetries
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			delay := backoffWithJitter(backoffBase, backoffMax, attempt-1)
			g.logger.Debug("retrying gemini request",
				zap.Int("attempt", attempt+1),
				zap.Duration("delay", delay),
				zap.Error(lastErr),
			)
			sleep(delay)
		}

		if err := ctx.Err(); err != nil {
			return "", err
		}

		chat, err := g.chats.Create(ctx, g.model, config, history)
		if err != nil {
			if !retryable(err) {
				return "", fmt.Errorf("create chat session: %w", err)
			}
			lastErr = err
			continue
		}

		resp, err := chat.SendMessage(ctx, genai.Part{Text: message})
		if err != nil {
			if !retryable(err) {
				return "", fmt.Errorf("generate content: %w", err)
			}
			lastErr = err
			continue
		}

		output := collectText(resp)
		if output == "" {
			return "", errors.New("gemini api returned empty response")
		}
		return output, nil
	}

	return "", fmt.Errorf("generate content after %d attempts: %w", attempts, lastErr)
}

// Model returns the configured model name.
func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.model
}

func collectText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	return strings.TrimSpace(builder.String())
}

var quotaDelayPattern = regexp.MustCompile(`(?i)retry after (\d+)`)

// retryable reports whether the error is worth another attempt: server-side
// failures always are, quota errors only when the hinted delay is short enough,
// and unknown transport errors are given the benefit of the doubt.
func retryable(err error) bool {
	apiErr, ok := apiError(err)
	if !ok {
		return true
	}

	switch {
	case apiErr.Code >= http.StatusInternalServerError:
		return true
	case apiErr.Code == http.StatusTooManyRequests:
		if delay, ok := quotaDelay(apiErr.Message); ok && delay > maxQuotaDelay {
			return false
		}
		return true
	default:
		return false
	}
}

func apiError(err error) (genai.APIError, bool) {
	var byValue genai.APIError
	if errors.As(err, &byValue) {
		return byValue, true
	}
	var byPointer *genai.APIError
	if errors.As(err, &byPointer) && byPointer != nil {
		return *byPointer, true
	}
	return genai.APIError{}, false
}

func quotaDelay(message string) (time.Duration, bool) {
	match := quotaDelayPattern.FindStringSubmatch(message)
	if match == nil {
		return 0, false
	}
	seconds, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, false
	}
	return time.Duration(seconds) * time.Second, true
}

// backoffWithJitter computes delay = min(base * 2^attempt, max) with ±25% jitter.
func backoffWithJitter(base, max time.Duration, attempt int) time.Duration {
	delay := base << uint(attempt)
	if delay > max {
		delay = max
	}

	quarter := delay / 4
	if quarter > 0 {
		jitter := time.Duration(rand.Int64N(int64(quarter*2))) - quarter
		delay += jitter
	}

	return delay
}
