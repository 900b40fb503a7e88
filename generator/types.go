package generator

import (
	"errors"
	"fmt"
)

// Request 是一次生成的输入：领域、场景与用户难题。
type Request struct {
	Category    string
	Subcategory string
	Problem     string
}

// Endpoint 描述 OpenAI 兼容接口的连接信息。
type Endpoint struct {
	Provider string
	APIKey   string
	BaseURL  string
	Model    string
}

// IdeaDetail is one concrete proposal.
type IdeaDetail struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// MethodSection groups the ideas produced by one lateral-thinking method.
type MethodSection struct {
	MethodName    string       `json:"methodName"`
	MethodSummary string       `json:"methodSummary"`
	Ideas         []IdeaDetail `json:"ideas"`
}

// GenerationResponse is the typed idea report.
type GenerationResponse struct {
	Sections []MethodSection `json:"sections"`
}

// IdeaCount 返回报告中的方案总数。
func (r GenerationResponse) IdeaCount() int {
	n := 0
	for _, s := range r.Sections {
		n += len(s.Ideas)
	}
	return n
}

// Validate reports deviations from the ten-method, three-idea shape.
// The pipeline never repairs these; callers decide what to do with them.
func (r GenerationResponse) Validate() error {
	var errs []error
	if len(r.Sections) != len(Methods) {
		errs = append(errs, fmt.Errorf("expected %d sections, got %d", len(Methods), len(r.Sections)))
	}
	for i, s := range r.Sections {
		if len(s.Ideas) != IdeasPerMethod {
			errs = append(errs, fmt.Errorf("section %d (%s): expected %d ideas, got %d", i+1, s.MethodName, IdeasPerMethod, len(s.Ideas)))
		}
	}
	return errors.Join(errs...)
}
