package cleanup

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"
)

// chatClient speaks the OpenAI chat-completions API against any compatible
// base URL.
type chatClient struct {
	client  oai.Client
	timeout time.Duration
}

func newChatClient(baseURL string, apiKey string, timeout time.Duration, httpClient *http.Client) chatClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithBaseURL(withTrailingSlash(baseURL)),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	}
	return chatClient{client: oai.NewClient(opts...), timeout: timeout}
}

func (c chatClient) complete(ctx context.Context, model string, req Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params := oai.ChatCompletionNewParams{
		Model: shared.ChatModel(model),
		Messages: []oai.ChatCompletionMessageParamUnion{
			oai.SystemMessage(SystemPrompt(req.Mode)),
			oai.UserMessage(req.Text),
		},
		Temperature: param.NewOpt(0.0),
		// Older LM Studio builds ignore max_completion_tokens.
		MaxTokens: param.NewOpt(int64(TokenBudget(req.Text))),
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyChoice
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", ErrEmptyChoice
	}
	return content, nil
}

// listModels returns the ids served at /models, bounded by the client timeout.
func (c chatClient) listModels(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	page, err := c.client.Models.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	ids := make([]string, 0, len(page.Data))
	for _, model := range page.Data {
		ids = append(ids, model.ID)
	}
	return ids, nil
}

func withTrailingSlash(url string) string {
	url = strings.TrimSpace(url)
	if strings.HasSuffix(url, "/") {
		return url
	}
	return url + "/"
}

// timeoutFromMS clamps a millisecond setting to floor.
func timeoutFromMS(ms int, floor time.Duration) time.Duration {
	return max(time.Duration(ms)*time.Millisecond, floor)
}
