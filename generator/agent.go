package generator

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"

	"go.uber.org/zap"

	"github.com/jcy998/SP-idear/taxonomy"
)

// Agent 串联 采样 -> 提示词 -> 模型调用 -> 修复 -> 解析。
// Agent holds no mutable state; one Agent may serve concurrent Generate calls
// as long as its rng (if any) is not shared.
type Agent struct {
	llm        LLMClient
	pool       [][]string
	normalizer *Normalizer
	rng        *rand.Rand
	logger     *zap.Logger
}

// AgentOption customizes an Agent.
type AgentOption func(*Agent)

// WithStimulusPool sets the word pool used for random stimulation.
func WithStimulusPool(pool [][]string) AgentOption {
	return func(a *Agent) { a.pool = pool }
}

// WithNormalizer replaces the default repair rules.
func WithNormalizer(n *Normalizer) AgentOption {
	return func(a *Agent) { a.normalizer = n }
}

// WithRand makes stimulus sampling reproducible. Not safe for concurrent Generate calls.
func WithRand(r *rand.Rand) AgentOption {
	return func(a *Agent) { a.rng = r }
}

// WithLogger sets the logger; nil keeps the no-op logger.
func WithLogger(l *zap.Logger) AgentOption {
	return func(a *Agent) {
		if l != nil {
			a.logger = l
		}
	}
}

func NewAgent(llm LLMClient, opts ...AgentOption) (*Agent, error) {
	if llm == nil {
		return nil, errors.New("llm client is required")
	}
	a := &Agent{
		llm:        llm,
		pool:       taxonomy.Default().StimulusPool(),
		normalizer: defaultNormalizer,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Generate runs the whole pipeline for one request.
func (a *Agent) Generate(ctx context.Context, req Request) (GenerationResponse, error) {
	req.Problem = strings.TrimSpace(req.Problem)
	if req.Problem == "" {
		return GenerationResponse{}, ErrEmptyProblem
	}

	stimuli := SampleStimuli(a.pool, StimulusCount, a.rng)
	prompt := BuildPrompt(req, stimuli)
	a.logger.Info("generating idea report",
		zap.String("category", req.Category),
		zap.String("subcategory", req.Subcategory),
		zap.Strings("stimuli", stimuli),
	)

	raw, err := a.llm.Complete(ctx, prompt)
	if err != nil {
		return GenerationResponse{}, err
	}
	// 调用方已放弃时不再做修复和解析。
	if err := ctx.Err(); err != nil {
		return GenerationResponse{}, err
	}

	normalized := a.normalizer.Normalize(raw)
	report, err := ParseReport(normalized)
	if err != nil {
		var mErr *MalformedReportError
		if errors.As(err, &mErr) {
			mErr.Raw = raw
			a.logger.Error("malformed report",
				zap.Error(mErr.Err),
				zap.String("raw", raw),
				zap.String("normalized", normalized),
			)
		}
		return GenerationResponse{}, err
	}

	if verr := report.Validate(); verr != nil {
		a.logger.Warn("report shape differs from protocol", zap.Error(verr))
	}
	a.logger.Info("idea report ready",
		zap.Int("sections", len(report.Sections)),
		zap.Int("ideas", report.IdeaCount()),
	)
	return report, nil
}

// Generate builds a client for ep and runs one generation. It fails with
// ErrConfigMissing when ep has no API key.
func Generate(ctx context.Context, req Request, ep Endpoint, opts ...AgentOption) (GenerationResponse, error) {
	llm, err := NewClient(ep)
	if err != nil {
		return GenerationResponse{}, err
	}
	agent, err := NewAgent(llm, opts...)
	if err != nil {
		return GenerationResponse{}, err
	}
	if o, ok := llm.(*OpenAILLM); ok {
		o.Logger = agent.logger
	}
	return agent.Generate(ctx, req)
}
