// Package llm answers live chat messages with an OpenAI-compatible model.
package llm

import (
	"context"
	"errors"
	"fmt"

	chatUC "lending-backend/internal/usecase/livechat"

	openai "github.com/sashabaranov/go-openai"
)

const systemPrompt = `You are the support assistant of a consumer lending service.
Answer questions about loan applications, the processing fee, card and crypto payments,
disbursement and referrals. Be brief and friendly. Never promise an approval, never ask
for card numbers or passwords, and tell the user to ask for a human agent when you
cannot help or the question is about a specific account decision.`

type Assistant struct {
	client    *openai.Client
	model     string
	maxTokens int
}

// New: an empty baseURL targets api.openai.com.
func New(apiKey, baseURL, model string) *Assistant {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Assistant{client: openai.NewClientWithConfig(cfg), model: model, maxTokens: 400}
}

func (a *Assistant) Reply(ctx context.Context, history []chatUC.Turn) (string, error) {
	msgs := make([]openai.ChatCompletionMessage, 0, len(history)+1)
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: systemPrompt})
	for _, t := range history {
		role := openai.ChatMessageRoleAssistant
		if t.FromUser {
			role = openai.ChatMessageRoleUser
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: t.Content})
	}

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     a.model,
		Messages:  msgs,
		MaxTokens: a.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion: no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
