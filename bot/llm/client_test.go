package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/require"
)

type stubCompletions struct {
	params  []openai.ChatCompletionNewParams
	content string
	err     error
}

func (s *stubCompletions) New(ctx context.Context, params openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error) {
	s.params = append(s.params, params)
	if s.err != nil {
		return nil, s.err
	}
	return &openai.ChatCompletion{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: s.content}},
		},
	}, nil
}

func newTestGenerator(stub *stubCompletions, cfg Config) *Generator {
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	return &Generator{completions: stub, cfg: cfg}
}

func TestGenerate(t *testing.T) {
	stub := &stubCompletions{content: "  1. Idea one\n2. Idea two  "}
	g := newTestGenerator(stub, Config{SystemPrompt: "be brief", MaxTokens: 100, Temperature: 0.5})

	out, err := g.Generate(context.Background(), []Message{
		{Role: RoleUser, Content: "cooking"},
	})
	require.NoError(t, err)
	require.Equal(t, "1. Idea one\n2. Idea two", out)

	require.Len(t, stub.params, 1)
	p := stub.params[0]
	require.Equal(t, "gpt-4o-mini", p.Model)
	// System prompt plus the single user turn.
	require.Len(t, p.Messages, 2)
	require.Equal(t, int64(100), p.MaxTokens.Value)
	require.InDelta(t, 0.5, p.Temperature.Value, 1e-9)
}

func TestGenerateReplaysHistory(t *testing.T) {
	stub := &stubCompletions{content: "more"}
	g := newTestGenerator(stub, Config{})

	_, err := g.Generate(context.Background(), []Message{
		{Role: RoleUser, Content: "cooking"},
		{Role: RoleAssistant, Content: "ideas"},
		{Role: RoleUser, Content: "more please"},
	})
	require.NoError(t, err)
	require.Len(t, stub.params[0].Messages, 3)
}

func TestGenerateHistoryLimit(t *testing.T) {
	stub := &stubCompletions{content: "ok"}
	g := newTestGenerator(stub, Config{HistoryLimit: 2})

	_, err := g.Generate(context.Background(), []Message{
		{Role: RoleUser, Content: "one"},
		{Role: RoleAssistant, Content: "two"},
		{Role: RoleUser, Content: "three"},
	})
	require.NoError(t, err)
	// Oldest turn trimmed, no system prompt configured.
	require.Len(t, stub.params[0].Messages, 2)
}

func TestGenerateErrors(t *testing.T) {
	boom := errors.New("rate limited")
	g := newTestGenerator(&stubCompletions{err: boom}, Config{})
	_, err := g.Generate(context.Background(), []Message{{Role: RoleUser, Content: "x"}})
	require.ErrorIs(t, err, boom)

	g = newTestGenerator(&stubCompletions{content: "   "}, Config{})
	_, err = g.Generate(context.Background(), []Message{{Role: RoleUser, Content: "x"}})
	require.ErrorIs(t, err, ErrEmptyCompletion)
}
