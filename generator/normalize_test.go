package generator

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "valid json untouched",
			input: `{"sections":[{"methodName":"m","methodSummary":"s","ideas":[{"title":"t","description":"d"}]}]}`,
			want:  `{"sections":[{"methodName":"m","methodSummary":"s","ideas":[{"title":"t","description":"d"}]}]}`,
		},
		{
			name:  "prose around json",
			input: "好的，以下是报告：\n{\"a\":1}\n希望对你有帮助。",
			want:  `{"a":1}`,
		},
		{
			name:  "markdown fence",
			input: "```json\n{\"a\":1}\n```",
			want:  `{"a":1}`,
		},
		{
			name:  "fence fallback without braces",
			input: "```json\n[1,2]\n```",
			want:  `[1,2]`,
		},
		{
			name:  "trailing comma in object",
			input: `{"a":1,}`,
			want:  `{"a":1}`,
		},
		{
			name:  "trailing comma in array",
			input: `[1,2,]`,
			want:  `[1,2]`,
		},
		{
			name:  "trailing comma with whitespace",
			input: "{\"a\":[1,2 ,\n ] ,\n}",
			want:  "{\"a\":[1,2 \n ] \n}",
		},
		{
			name:  "repeated trailing commas",
			input: `{"a":[1,,]}`,
			want:  `{"a":[1]}`,
		},
		{
			name:  "idea closed by bracket",
			input: `{"description":"x"]`,
			want:  `{"description":"x"}`,
		},
		{
			name:  "idea closed by bracket with escaped quote",
			input: `{"ideas":[{"title":"t","description":"say \"hi\"" ]]}`,
			want:  `{"ideas":[{"title":"t","description":"say \"hi\""}]}`,
		},
		{
			name:  "ideas array closed by brace",
			input: `{"sections":[{"ideas":[{"title":"t","description":"x"}}]}`,
			want:  `{"sections":[{"ideas":[{"title":"t","description":"x"}]]}`,
		},
		{
			name:  "ideas array closed by brace, object never closed",
			input: `{"ideas":[{"description":"x"}}}`,
			want:  `{"ideas":[{"description":"x"}]}`,
		},
		{
			name:  "no json at all",
			input: "抱歉，我无法完成这个请求。",
			want:  "抱歉，我无法完成这个请求。",
		},
		{
			name:  "empty",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestNormalizeCaseBKeepsPrefix(t *testing.T) {
	prefix := `{"sections":[{"methodName":"m","ideas":[`
	got := Normalize(prefix + `{"description":"x"}}}]}`)
	assert.Equal(t, prefix+`{"description":"x"}]}]}`, got)
}

func TestNormalizeIsIdempotent(t *testing.T) {
	inputs := []string{
		`{"a":1,}`,
		`[1,2,]`,
		`[1,,,]`,
		`{"description":"x"]`,
		`{"description":"x"}}`,
		`{"description":"x"}}}`,
		`{"description":"x"]}}`,
		"text {\"a\":[1,],} more text } tail",
		"```json\n{\"a\":1}\n```",
		"```json\n[1,]\n```",
		"{\"a\":[1" + strings.Repeat(",", 20) + "]}",
		"[1" + strings.Repeat(", ", 40) + "\n]",
		"no braces here",
		"}{",
		`{"a":"b, }"}`,
		`{"ideas":[{"title":"t","description":"d"},{"title":"t2","description":"d2"}}]}`,
		sampleReply(t, 10, 3),
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}

func TestNormalizeRepairsFullReply(t *testing.T) {
	body := sampleJSON(t, 10, 3)
	// 模拟两类常见错误：数组尾逗号 + ideas 数组被 } 闭合。
	broken := strings.Replace(body, `"}]`, `"},]`, 1)
	idx := strings.LastIndex(broken, `"}]`)
	require.Greater(t, idx, 0)
	broken = broken[:idx] + `"}}` + broken[idx+3:]

	var probe map[string]any
	require.Error(t, json.Unmarshal([]byte(broken), &probe))

	got := Normalize("Here you go:\n```json\n" + broken + "\n```")
	report, err := ParseReport(got)
	require.NoError(t, err)
	assert.Len(t, report.Sections, 10)
	assert.NoError(t, report.Validate())
}

func TestNormalizerRulesAreOrderedAndExtensible(t *testing.T) {
	n := NewNormalizer()
	assert.Equal(t, []string{"extract-json-span", "trailing-comma", "idea-closed-by-bracket", "ideas-closed-by-brace"}, n.Rules())

	smartQuotes := RepairRule{
		Name:  "smart-quotes",
		Apply: func(s string) string { return strings.NewReplacer("“", `"`, "”", `"`).Replace(s) },
	}
	extended := n.With(smartQuotes)
	assert.Len(t, extended.Rules(), 5)
	assert.Len(t, n.Rules(), 4, "With must not modify the receiver")

	assert.Equal(t, `{"a":"b"}`, extended.Normalize(`{“a”:“b”,}`))
}

func TestRulesIndividually(t *testing.T) {
	assert.Equal(t, `{"a":1}`, extractJSONSpan(`prefix {"a":1} suffix`))
	assert.Equal(t, `[1]`, extractJSONSpan("```json\n[1]\n```"))
	assert.Equal(t, `[1,2]`, removeTrailingCommas(`[1,2,]`))
	// 一整段逗号在一次调用里删完
	assert.Equal(t, `{"a":[1]}`, removeTrailingCommas(`{"a":[1`+strings.Repeat(",", 20)+`]}`))
	assert.Equal(t, "[1 \n]", removeTrailingCommas("[1, ,\t, \n]"))
	assert.Equal(t, `{"description":"x"}`, closeIdeaObjects(`{"description":"x"]`))
	assert.Equal(t, `{"description":"x"}]`, closeIdeaArrays(`{"description":"x"}}`))
	// 合法结构不受影响
	assert.Equal(t, `[{"description":"x"}]`, closeIdeaObjects(`[{"description":"x"}]`))
	assert.Equal(t, `[{"description":"x"}]}`, closeIdeaArrays(`[{"description":"x"}]}`))
}

func sampleJSON(t *testing.T, sections, ideas int) string {
	t.Helper()
	report := GenerationResponse{}
	for i := 0; i < sections; i++ {
		sec := MethodSection{MethodName: Methods[i%len(Methods)].Name, MethodSummary: "summary"}
		for j := 0; j < ideas; j++ {
			sec.Ideas = append(sec.Ideas, IdeaDetail{Title: "标题", Description: "详情"})
		}
		report.Sections = append(report.Sections, sec)
	}
	b, err := json.Marshal(report)
	require.NoError(t, err)
	return string(b)
}

func sampleReply(t *testing.T, sections, ideas int) string {
	return "好的，下面是报告。\n```json\n" + sampleJSON(t, sections, ideas) + "\n```\n以上。"
}
