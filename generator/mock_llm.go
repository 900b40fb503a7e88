package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// MockLLM 一个简单的占位实现，便于本地调试，不调用外部模型。
// 输出故意带说明文字和代码块标记，走一遍完整的修复流程。
type MockLLM struct{}

func (m MockLLM) Complete(ctx context.Context, prompt Prompt) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	report := GenerationResponse{Sections: make([]MethodSection, 0, len(Methods))}
	for i, method := range Methods {
		sec := MethodSection{
			MethodName:    fmt.Sprintf("%d. %s", i+1, method.Name),
			MethodSummary: method.Principle,
		}
		for j := 0; j < IdeasPerMethod; j++ {
			sec.Ideas = append(sec.Ideas, IdeaDetail{
				Title:       fmt.Sprintf("示例方案 %d-%d", i+1, j+1),
				Description: fmt.Sprintf("根据提示生成的占位内容：%s", prompt.User),
			})
		}
		report.Sections = append(report.Sections, sec)
	}
	body, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("好的，以下是为您生成的水平思维报告：\n\n")
	sb.WriteString("```json\n")
	sb.Write(body)
	sb.WriteString("\n```\n")
	return sb.String(), nil
}
