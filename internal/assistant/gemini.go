package assistant

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const geminiModel = "gemini-1.5-flash"

// GeminiProvider implements ChatProvider on top of the Google generative-AI
// SDK.
type GeminiProvider struct {
	client          *genai.Client
	maxOutputTokens int32
}

func NewGeminiProvider(ctx context.Context, apiKey string) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GeminiProvider{client: client, maxOutputTokens: 1000}, nil
}

func (p *GeminiProvider) StartChat(_ context.Context, history []Message) (ChatSession, error) {
	model := p.client.GenerativeModel(geminiModel)
	model.SetMaxOutputTokens(p.maxOutputTokens)

	chat := model.StartChat()
	chat.History = make([]*genai.Content, 0, len(history))
	for _, msg := range history {
		chat.History = append(chat.History, &genai.Content{
			Role:  msg.Role,
			Parts: []genai.Part{genai.Text(msg.Text)},
		})
	}
	return &geminiSession{chat: chat}, nil
}

func (p *GeminiProvider) Close() error {
	return p.client.Close()
}

type geminiSession struct {
	chat *genai.ChatSession
}

func (s *geminiSession) SendMessage(ctx context.Context, text string) (string, error) {
	resp, err := s.chat.SendMessage(ctx, genai.Text(text))
	if err != nil {
		return "", fmt.Errorf("send chat message: %w", err)
	}
	return extractText(resp)
}

func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("empty assistant response")
	}
	var out string
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			out += string(text)
		}
	}
	if out == "" {
		return "", errors.New("assistant response carried no text")
	}
	return out, nil
}
