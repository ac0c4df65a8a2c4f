package openai

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/catalogsearch/internal/domain"
	"github.com/kailas-cloud/catalogsearch/internal/domain/pricing"
)

const systemPrompt = `Bạn là trợ lý tư vấn điện thoại của cửa hàng.
Chỉ dùng danh sách sản phẩm được cung cấp để trả lời, không bịa thêm sản phẩm hay giá.
Nếu danh sách trống hoặc không phù hợp, hãy nói rõ là chưa tìm thấy sản phẩm phù hợp.
Trả lời ngắn gọn bằng tiếng Việt.`

// AnswererConfig holds chat completion settings.
type AnswererConfig struct {
	Config
	MaxTokens   int
	Temperature float32
}

// Answerer composes answers with the chat completions endpoint.
type Answerer struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
	logger      *zap.Logger
}

// NewAnswerer creates a chat-backed answerer.
func NewAnswerer(cfg *AnswererConfig) *Answerer {
	return &Answerer{
		client:      newClient(&cfg.Config),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		logger:      cfg.Logger,
	}
}

// Answer asks the model to answer question from the retrieved products.
// An empty or filtered completion is reported as domain.ErrAnswerRefused.
func (a *Answerer) Answer(ctx context.Context, question string, items []domain.RetrievedProduct) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt(question, items)},
		},
		Temperature: a.temperature,
	}
	if a.maxTokens > 0 {
		req.MaxTokens = a.maxTokens
	}

	resp, err := a.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices: %w", domain.ErrAnswerRefused)
	}

	choice := resp.Choices[0]
	if choice.FinishReason == openai.FinishReasonContentFilter || choice.Message.Refusal != "" {
		a.logger.Warn("Answer refused by model", zap.String("finish_reason", string(choice.FinishReason)))
		return "", fmt.Errorf("finish reason %q: %w", choice.FinishReason, domain.ErrAnswerRefused)
	}
	text := strings.TrimSpace(choice.Message.Content)
	if text == "" {
		return "", fmt.Errorf("empty completion: %w", domain.ErrAnswerRefused)
	}
	return text, nil
}

// userPrompt lists the products in rank order under the question.
func userPrompt(question string, items []domain.RetrievedProduct) string {
	var b strings.Builder
	b.WriteString("Câu hỏi: ")
	b.WriteString(strings.TrimSpace(question))
	b.WriteString("\n\nSản phẩm liên quan:\n")
	if len(items) == 0 {
		b.WriteString("(không có)\n")
	}
	for i, it := range items {
		fmt.Fprintf(&b, "%d. %s", i+1, it.Name)
		if it.Brand != "" {
			fmt.Fprintf(&b, " (%s)", it.Brand)
		}
		if it.ActivePrice != nil {
			b.WriteString(" - giá ")
			b.WriteString(pricing.FormatVND(*it.ActivePrice))
		} else {
			b.WriteString(" - chưa có giá")
		}
		b.WriteByte('\n')
		if d := strings.TrimSpace(it.Description); d != "" {
			b.WriteString("   ")
			b.WriteString(d)
			b.WriteByte('\n')
		}
	}
	return b.String()
}
