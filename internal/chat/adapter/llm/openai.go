package llm

import (
	"context"

	sharederrors "github.com/lanyu617/next-chat/internal/shared/errors"

	openai "github.com/sashabaranov/go-openai"
)

// CompletionStream yields a reply incrementally. Recv returns io.EOF when the
// upstream finishes cleanly; any other error means the stream broke mid-reply.
type CompletionStream interface {
	Recv() (string, error)
	Close() error
}

// Completer opens a streaming completion for a single user prompt.
type Completer interface {
	StreamCompletion(ctx context.Context, prompt string) (CompletionStream, error)
}

// OpenAIClient talks to any OpenAI-compatible completion API. The default
// deployment points it at DeepSeek.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

func NewOpenAIClient(apiKey, baseURL, model string) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIClient{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

var _ Completer = (*OpenAIClient)(nil)

func (c *OpenAIClient) StreamCompletion(ctx context.Context, prompt string) (CompletionStream, error) {
	stream, err := c.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Stream: true,
	})
	if err != nil {
		return nil, sharederrors.NewUpstreamError("open completion stream").WithCause(err)
	}
	return &openAIStream{stream: stream}, nil
}

type openAIStream struct {
	stream *openai.ChatCompletionStream
}

func (s *openAIStream) Recv() (string, error) {
	resp, err := s.stream.Recv()
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Delta.Content, nil
}

func (s *openAIStream) Close() error {
	return s.stream.Close()
}
