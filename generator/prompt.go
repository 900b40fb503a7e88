package generator

import (
	"fmt"
	"strings"
)

// IdeasPerMethod 每种方法要求的方案数。
const IdeasPerMethod = 3

// Prompt 表示发送给 LLM 的消息：一条 system 指令和一条 user 消息。
type Prompt struct {
	System string
	User   string
}

// Method 是十种水平思维方法之一。
type Method struct {
	Name      string
	Principle string
	Task      string
}

// Methods is the fixed ten-method protocol, in report order.
// The seventh entry is random stimulation; its task is rendered from the sampled words.
var Methods = []Method{
	{
		Name:      "生成多种方案 (Alternatives)",
		Principle: "别满足于现有方案或最明显的方案。列出当前方案，然后问“还有其他方式吗？”，逼迫大脑生成新路径。",
		Task:      "针对问题，生成 3 个截然不同的替代方案。",
	},
	{
		Name:      "挑战假设 (Challenging Assumptions)",
		Principle: "列出问题中被认为是“理所当然”的假设（如边界、规则、习惯），问“为什么要这样？能换吗？”，通过打破假设来生成新想法。",
		Task:      "识别 3 个核心假设并分别打破它们，生成 3 个方案。",
	},
	{
		Name:      "创新与混搭 (Innovation)",
		Principle: "不是等灵感，而是系统产生。将问题分解为旧元素，并随机混搭新元素（如科技、娱乐、生态），问“如何更好？”。",
		Task:      "使用“分解+混搭”技巧生成 3 个方案。",
	},
	{
		Name:      "暂缓判断 (Suspended Judgment)",
		Principle: "先收集“疯狂”的想法，不批评，之后再从中提取价值。",
		Task:      "提出 3 个看似荒谬、疯狂或不可能的想法，然后给出优化后的可行落地版本（格式：疯狂想法 -> 优化落地）。",
	},
	{
		Name:      "设计 (Design)",
		Principle: "从零或改进东西。定义目标（功能+实用），抽象其功能（如“杯子”抽象为“盛水容器”），然后重组元素设计新物。",
		Task:      "基于功能抽象，重新设计 3 个解决方案。",
	},
	{
		Name:      "反转法 (Reversal)",
		Principle: "倒过来想。列出正常的方式（如方向、关系、因果），将其完全反转（如“学生教老师”、“顾客付钱给公司”），从中寻找新视角。",
		Task:      "使用反转技巧生成 3 个方案。",
	},
	{
		Name:      "随机刺激 (Random Stimulation)",
		Principle: "引入一个完全无关的词汇，强行建立它与问题的联系。",
		Task:      "分别将这三个词的特征（物理特征、功能、隐喻）与问题强行联结，生成 3 个截然不同的方案。**请在方案描述中明确指出是如何联结该随机词的。**",
	},
	{
		Name:      "新词 PO (New Word PO)",
		Principle: "使用 \"PO\" 作为激发工具，提出一个挑衅性的陈述（如“PO 汽车是方形的”），然后利用这个不稳定的跳板移动到新想法。",
		Task:      "提出 3 个 PO 陈述，并由此移动生成的 3 个方案。",
	},
	{
		Name:      "分解 (Fractionation)",
		Principle: "将大问题拆解成小块，逐个重组，避免整体卡住。问“每个部分能换吗？”。",
		Task:      "将问题分解为不同部分，对部分进行重组，生成 3 个方案。",
	},
	{
		Name:      "类比法 (Analogy)",
		Principle: "用相似的东西比喻（如动物、自然现象、其他行业），借用其运作原理来解决问题。",
		Task:      "寻找 3 个类比对象，借用其原理生成 3 个方案。",
	},
}

// randomStimulationIndex is the zero-based position of method 7.
const randomStimulationIndex = 6

// BuildPrompt 生成完整的 system/user 消息。
func BuildPrompt(req Request, stimuli []string) Prompt {
	return Prompt{
		System: BuildInstruction(req.Category, req.Subcategory, req.Problem, stimuli),
		User:   fmt.Sprintf("请开始生成水平思维报告，针对难题: \"%s\"", req.Problem),
	}
}

// BuildInstruction renders the system instruction. It is pure: the same
// arguments always produce the same text. Each stimulus word appears exactly
// once, bound to the idea slot matching its index.
func BuildInstruction(category, subcategory, problem string, stimuli []string) string {
	var sb strings.Builder
	sb.WriteString("你是一位精通爱德华·德·波诺（Edward de Bono）水平思维方法论的顶级创意顾问。\n\n")
	sb.WriteString("你的任务是为客户（用户）的难题生成一份完整的《水平思维创意解决方案报告》。\n")
	sb.WriteString(fmt.Sprintf("你需要**严格按照**以下 %d 种水平思维方法逐一进行思考，并且**每种方法必须生成 %d 个具体的创新方案**（共 %d 个方案）。\n\n",
		len(Methods), IdeasPerMethod, len(Methods)*IdeasPerMethod))
	sb.WriteString("请严格遵循以下执行步骤和方法定义：\n\n")

	for i, m := range Methods {
		sb.WriteString(fmt.Sprintf("%d. **%s**\n", i+1, m.Name))
		sb.WriteString(fmt.Sprintf("   - 方法逻辑：%s\n", m.Principle))
		if i == randomStimulationIndex {
			writeStimuli(&sb, stimuli)
		}
		sb.WriteString(fmt.Sprintf("   - 任务：%s\n\n", m.Task))
	}

	sb.WriteString("上下文信息：\n")
	sb.WriteString(fmt.Sprintf("- 领域: %s - %s\n", category, subcategory))
	sb.WriteString(fmt.Sprintf("- 用户难题: %s\n\n", problem))

	sb.WriteString("输出要求：\n")
	sb.WriteString("- **必须且只能返回纯 JSON 格式**。\n")
	sb.WriteString("- 不要包含 markdown 代码块标记（如 ```json）。\n")
	sb.WriteString("- 确保所有 JSON 字符串内的双引号都被正确转义。\n")
	sb.WriteString("- 严禁在 JSON 结构中出现尾部逗号。\n")
	sb.WriteString("- 确保对象使用 } 闭合，数组使用 ] 闭合。特别注意 ideas 数组必须以 ] 结尾。\n")
	sb.WriteString("- JSON 结构必须严格符合以下 interface：\n")
	sb.WriteString(schemaExample)
	sb.WriteString("- 语言: 简体中文。\n")
	sb.WriteString("- 内容质量: 具体、可执行、脑洞大开但有落地逻辑。\n")
	return sb.String()
}

func writeStimuli(sb *strings.Builder, stimuli []string) {
	sb.WriteString(fmt.Sprintf("   - **关键指令**：你必须分别使用我提供的 %d 个不同的随机词来生成 %d 个方案：\n", StimulusCount, IdeasPerMethod))
	for i := 0; i < StimulusCount; i++ {
		if i < len(stimuli) {
			sb.WriteString(fmt.Sprintf("     - 方案 %d 必须使用随机词：【%s】\n", i+1, stimuli[i]))
			continue
		}
		// 词库不足时让模型自选，保持三个方案位置完整。
		sb.WriteString(fmt.Sprintf("     - 方案 %d 请自选一个与问题毫不相关的随机名词\n", i+1))
	}
}

const schemaExample = `{
  "sections": [
    {
      "methodName": "方法名称",
      "methodSummary": "方法简介",
      "ideas": [
        { "title": "方案标题", "description": "方案详情" },
        { "title": "方案标题", "description": "方案详情" },
        { "title": "方案标题", "description": "方案详情" }
      ]
    }
  ]
}
`
