package generator

import (
	"regexp"
	"strings"
)

// RepairRule 是一条独立的文本修复规则，Apply 必须是纯函数。
type RepairRule struct {
	Name  string
	Apply func(string) string
}

var (
	jsonSpanRe      = regexp.MustCompile(`(?s)\{.*\}`)
	leadingFenceRe  = regexp.MustCompile("^```json\\s*")
	trailingFenceRe = regexp.MustCompile("\\s*```$")
	trailingCommaRe = regexp.MustCompile(`,(?:\s*,)*(\s*[}\]])`)
	// "description": "..." ]  -> idea 对象被 ] 错误闭合
	unclosedIdeaRe = regexp.MustCompile(`("description"\s*:\s*"(?:[^"\\]|\\.)*")\s*\]`)
	// "description": "..." } }  -> ideas 数组被 } 错误闭合
	unclosedIdeasRe = regexp.MustCompile(`("description"\s*:\s*"(?:[^"\\]|\\.)*"\s*})\s*}`)
)

// DefaultRules returns the built-in repairs in the order they must run.
func DefaultRules() []RepairRule {
	return []RepairRule{
		{Name: "extract-json-span", Apply: extractJSONSpan},
		{Name: "trailing-comma", Apply: removeTrailingCommas},
		{Name: "idea-closed-by-bracket", Apply: closeIdeaObjects},
		{Name: "ideas-closed-by-brace", Apply: closeIdeaArrays},
	}
}

// maxNormalizeRounds 只用来防止自定义规则互相来回改写；默认规则每轮都把
// 一整段逗号一次删完，不会逼近这个上限。
const maxNormalizeRounds = 16

// Normalizer applies an ordered rule list to raw model output.
type Normalizer struct {
	rules []RepairRule
}

// NewNormalizer builds a normalizer from rules; with no rules it uses DefaultRules.
func NewNormalizer(rules ...RepairRule) *Normalizer {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Normalizer{rules: rules}
}

// With returns a copy with extra rules appended after the existing ones.
func (n *Normalizer) With(rules ...RepairRule) *Normalizer {
	all := make([]RepairRule, 0, len(n.rules)+len(rules))
	all = append(all, n.rules...)
	all = append(all, rules...)
	return &Normalizer{rules: all}
}

// Rules lists the rule names in application order.
func (n *Normalizer) Rules() []string {
	names := make([]string, len(n.rules))
	for i, r := range n.rules {
		names[i] = r.Name
	}
	return names
}

// Normalize runs every rule in order, repeating the whole pass until the text
// stops changing, so Normalize(Normalize(x)) == Normalize(x).
func (n *Normalizer) Normalize(raw string) string {
	text := raw
	for round := 0; round < maxNormalizeRounds; round++ {
		next := text
		for _, r := range n.rules {
			next = r.Apply(next)
		}
		if next == text {
			break
		}
		text = next
	}
	return text
}

var defaultNormalizer = NewNormalizer()

// Normalize repairs raw model output with the default rules.
func Normalize(raw string) string {
	return defaultNormalizer.Normalize(raw)
}

// extractJSONSpan 贪婪匹配第一个 { 到最后一个 }，去掉前后的说明文字和代码块标记。
func extractJSONSpan(s string) string {
	if m := jsonSpanRe.FindString(s); m != "" {
		return m
	}
	s = leadingFenceRe.ReplaceAllString(s, "")
	return trailingFenceRe.ReplaceAllString(s, "")
}

func removeTrailingCommas(s string) string {
	if !strings.Contains(s, ",") {
		return s
	}
	return trailingCommaRe.ReplaceAllString(s, "${1}")
}

func closeIdeaObjects(s string) string {
	return unclosedIdeaRe.ReplaceAllString(s, "${1}}")
}

func closeIdeaArrays(s string) string {
	return unclosedIdeasRe.ReplaceAllString(s, "${1}]")
}
