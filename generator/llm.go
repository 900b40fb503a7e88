package generator

import "context"

// LLMClient 抽象大模型客户端，便于替换/Mock。
type LLMClient interface {
	Complete(ctx context.Context, prompt Prompt) (string, error)
}

// ClientFactory builds a client for an endpoint; the server uses it to honor
// per-request credentials.
type ClientFactory func(Endpoint) (LLMClient, error)

// NewClient is the default ClientFactory.
func NewClient(ep Endpoint) (LLMClient, error) {
	if ep.Provider == "mock" {
		return MockLLM{}, nil
	}
	return NewOpenAILLM(ep)
}
