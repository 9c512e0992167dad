// Package llm generates content ideas through OpenAI chat completions.
package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/m3rciful/contentbot/core/logger"
)

// ErrEmptyCompletion is returned when the model produced no usable text.
var ErrEmptyCompletion = errors.New("llm: empty completion")

// Role of a message in a conversation history.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of an idea-generation conversation.
type Message struct {
	Role    Role
	Content string
}

// completionService is the single OpenAI call the generator depends on.
// Kept as an interface so tests can stub the API.
type completionService interface {
	New(ctx context.Context, params openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// Config controls model selection and prompt shaping.
type Config struct {
	Model        string
	MaxTokens    int
	Temperature  float64
	SystemPrompt string
	// HistoryLimit caps how many prior turns are replayed per request.
	HistoryLimit int
}

// Generator produces idea lists from a topic and the running dialogue.
type Generator struct {
	completions completionService
	cfg         Config
}

// NewGenerator builds a Generator talking to the real OpenAI API.
func NewGenerator(apiKey string, cfg Config) *Generator {
	cli := openai.NewClient(option.WithAPIKey(apiKey))
	return &Generator{completions: &cli.Chat.Completions, cfg: cfg}
}

// Generate runs one completion over the history and returns the model text.
// The history must end with a user turn.
func (g *Generator) Generate(ctx context.Context, history []Message) (string, error) {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+1)
	if g.cfg.SystemPrompt != "" {
		msgs = append(msgs, openai.SystemMessage(g.cfg.SystemPrompt))
	}
	for _, m := range trimHistory(history, g.cfg.HistoryLimit) {
		switch m.Role {
		case RoleAssistant:
			msgs = append(msgs, openai.AssistantMessage(m.Content))
		default:
			msgs = append(msgs, openai.UserMessage(m.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:    g.cfg.Model,
		Messages: msgs,
	}
	if g.cfg.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(g.cfg.MaxTokens))
	}
	if g.cfg.Temperature > 0 {
		params.Temperature = openai.Float(g.cfg.Temperature)
	}

	resp, err := g.completions.New(ctx, params)
	if err != nil {
		logger.LLM.ErrorContext(ctx, "Completion failed", "model", g.cfg.Model, "err", err)
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyCompletion
	}
	logger.LLM.DebugContext(ctx, "Completion done", "model", g.cfg.Model, "turns", len(history))
	return text, nil
}

// trimHistory keeps the most recent limit turns, never cutting the last one.
func trimHistory(history []Message, limit int) []Message {
	if limit <= 0 || len(history) <= limit {
		return history
	}
	return history[len(history)-limit:]
}
