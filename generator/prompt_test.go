package generator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcy998/SP-idear/taxonomy"
)

const testProblem = "我们的线下门店客流量连续三个月下滑"

func TestBuildInstructionIsPure(t *testing.T) {
	stimuli := []string{"灯塔", "章鱼", "沙漏"}
	a := BuildInstruction("商业与管理", "增长策略", testProblem, stimuli)
	b := BuildInstruction("商业与管理", "增长策略", testProblem, stimuli)
	assert.Equal(t, a, b)
}

func TestBuildInstructionBindsStimuliByPosition(t *testing.T) {
	stimuli := []string{"灯塔", "章鱼", "沙漏"}
	text := BuildInstruction("商业与管理", "增长策略", testProblem, stimuli)

	prev := -1
	for i, w := range stimuli {
		assert.Equal(t, 1, strings.Count(text, w), "word %q", w)
		slot := "方案 " + string(rune('1'+i)) + " 必须使用随机词：【" + w + "】"
		idx := strings.Index(text, slot)
		require.GreaterOrEqual(t, idx, 0, "missing slot %q", slot)
		assert.Greater(t, idx, prev)
		prev = idx
	}

	// 刺激词必须落在第 7 个方法块里。
	m7 := strings.Index(text, "7. **"+Methods[6].Name)
	m8 := strings.Index(text, "8. **"+Methods[7].Name)
	require.True(t, m7 >= 0 && m8 > m7)
	for _, w := range stimuli {
		idx := strings.Index(text, w)
		assert.True(t, idx > m7 && idx < m8, "word %q outside method 7", w)
	}
}

func TestBuildInstructionStructure(t *testing.T) {
	text := BuildInstruction("产品与服务创新", "服务体验", testProblem, []string{"灯塔", "章鱼", "沙漏"})

	require.Len(t, Methods, 10)
	last := -1
	for i, m := range Methods {
		idx := strings.Index(text, m.Name)
		require.GreaterOrEqual(t, idx, 0, "method %d missing", i+1)
		assert.Greater(t, idx, last, "method %d out of order", i+1)
		last = idx
	}
	assert.Equal(t, 10, strings.Count(text, "   - 任务："))

	assert.Contains(t, text, "- 领域: 产品与服务创新 - 服务体验\n")
	assert.Contains(t, text, "- 用户难题: "+testProblem+"\n")
	for _, want := range []string{
		"纯 JSON", "```json", "尾部逗号", "正确转义",
		`"sections"`, `"methodName"`, `"methodSummary"`, `"ideas"`, `"title"`, `"description"`,
	} {
		assert.Contains(t, text, want)
	}
}

func TestBuildInstructionWithShortStimuli(t *testing.T) {
	text := BuildInstruction("c", "s", testProblem, []string{"灯塔"})
	assert.Contains(t, text, "方案 1 必须使用随机词：【灯塔】")
	assert.Contains(t, text, "方案 2 请自选")
	assert.Contains(t, text, "方案 3 请自选")
}

func TestBuildPromptRestatesProblem(t *testing.T) {
	p := BuildPrompt(Request{Category: "c", Subcategory: "s", Problem: testProblem}, []string{"灯塔", "章鱼", "沙漏"})
	assert.Equal(t, "请开始生成水平思维报告，针对难题: \""+testProblem+"\"", p.User)
	assert.Contains(t, p.System, testProblem)
}

// Every word in the shipped pool must be countable in the prompt: it may not
// occur in the fixed template, in the test context, or inside another word.
func TestStimulusPoolDoesNotCollideWithTemplate(t *testing.T) {
	template := BuildInstruction("商业与管理", "增长策略", testProblem, nil)
	var words []string
	for _, g := range taxonomy.Default().StimulusPool() {
		words = append(words, g...)
	}
	require.GreaterOrEqual(t, len(words), StimulusCount)

	for _, w := range words {
		assert.NotContains(t, template, w)
		for _, other := range words {
			if other != w {
				assert.NotContains(t, other, w, "%q contains %q", other, w)
			}
		}
	}
}
