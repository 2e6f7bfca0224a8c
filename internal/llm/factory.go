package llm

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// Chatter is the slice of the eino chat model this service calls. Both
// retrieval answering and the classification calls go through it.
type Chatter interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

type ModelConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// NewChatModel builds the OpenAI-compatible chat model. Gemini-compatible
// gateways work through BaseURL.
func NewChatModel(ctx context.Context, cfg *ModelConfig) (Chatter, error) {
	if cfg == nil {
		return nil, fmt.Errorf("model config is nil")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model name is required")
	}
	return openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		BaseURL: cfg.BaseURL,
	})
}
