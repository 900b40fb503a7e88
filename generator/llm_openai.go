package generator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const (
	// DefaultBaseURL 与 DefaultModel 对应 DeepSeek 的 OpenAI 兼容接口。
	DefaultBaseURL = "https://api.deepseek.com"
	DefaultModel   = "deepseek-chat"

	temperature = 0.5
	maxTokens   = 4000
)

// OpenAILLM implements LLMClient using the official openai-go SDK (chat completions).
// Exactly one round trip per Complete; SDK retries are disabled.
type OpenAILLM struct {
	Model   string
	BaseURL string
	Opts    []option.RequestOption
	Logger  *zap.Logger
}

// NewOpenAILLM validates the endpoint and prepares request options.
func NewOpenAILLM(ep Endpoint) (*OpenAILLM, error) {
	if strings.TrimSpace(ep.APIKey) == "" {
		return nil, ErrConfigMissing
	}
	model := ep.Model
	if model == "" {
		model = DefaultModel
	}
	base := NormalizeBaseURL(ep.BaseURL)
	if base == "" {
		base = DefaultBaseURL
	}
	opts := []option.RequestOption{
		option.WithAPIKey(ep.APIKey),
		// SDK 在 base URL 后直接拼接 chat/completions
		option.WithBaseURL(base + "/"),
		option.WithMaxRetries(0),
		option.WithMiddleware(endpointErrorMiddleware),
		option.WithJSONSet("stream", false),
	}
	return &OpenAILLM{Model: model, BaseURL: base, Opts: opts, Logger: zap.NewNop()}, nil
}

// NormalizeBaseURL strips trailing slashes so the completions path can be appended.
func NormalizeBaseURL(base string) string {
	return strings.TrimRight(strings.TrimSpace(base), "/")
}

func (o *OpenAILLM) Complete(ctx context.Context, prompt Prompt) (string, error) {
	client := openai.NewClient(o.Opts...)
	logger := o.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	start := time.Now()
	resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(prompt.System),
			openai.UserMessage(prompt.User),
		},
		Temperature: openai.Float(temperature),
		MaxTokens:   openai.Int(maxTokens),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	})
	if err != nil {
		var epErr *EndpointError
		if errors.As(err, &epErr) {
			return "", epErr
		}
		return "", fmt.Errorf("llm request: %w", err)
	}
	logger.Debug("llm round trip done",
		zap.String("model", o.Model),
		zap.String("base_url", o.BaseURL),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("choices", len(resp.Choices)),
	)

	r, err := newReply(resp)
	if err != nil {
		return "", err
	}
	return r.Content, nil
}

// reply is the validated boundary between the SDK response and the rest of
// the pipeline: one choice, plain-text content.
type reply struct {
	Content      string
	FinishReason string
}

func newReply(resp *openai.ChatCompletion) (reply, error) {
	if resp == nil || len(resp.Choices) == 0 {
		return reply{}, ErrEmptyReply
	}
	c := resp.Choices[0]
	if strings.TrimSpace(c.Message.Content) == "" {
		return reply{}, ErrEmptyReply
	}
	return reply{Content: c.Message.Content, FinishReason: c.FinishReason}, nil
}

// endpointErrorMiddleware turns non-2xx responses into *EndpointError before the
// SDK decodes them, so bodies that are not JSON still yield the status code.
func endpointErrorMiddleware(req *http.Request, next option.MiddlewareNext) (*http.Response, error) {
	res, err := next(req)
	if err != nil || res.StatusCode < 300 {
		return res, err
	}
	defer res.Body.Close()
	body, _ := io.ReadAll(res.Body)
	return nil, &EndpointError{StatusCode: res.StatusCode, Message: errorMessage(body)}
}

// errorMessage 从错误响应体里取 error.message，兼容少数网关的扁平 message 字段。
func errorMessage(body []byte) string {
	if !gjson.ValidBytes(body) {
		return ""
	}
	for _, path := range []string{"error.message", "message", "error"} {
		v := gjson.GetBytes(body, path)
		if v.Type == gjson.String && strings.TrimSpace(v.String()) != "" {
			return strings.TrimSpace(v.String())
		}
	}
	return ""
}
