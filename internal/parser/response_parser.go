package parser

import (
	"strconv"
	"strings"

	"ai-resume-matcher/internal/types"
)

// 段落标记，逐行按此顺序做大小写敏感的子串匹配，先匹配者生效
const (
	scoreMarker   = "Matching Score:"
	summaryMarker = "Summary:"
	editsMarker   = "Suggested Edits:"
)

// section 解析状态
type section int

const (
	sectionNone section = iota
	sectionScore
	sectionSummary
	sectionEdits
)

func (s section) String() string {
	switch s {
	case sectionScore:
		return "SCORE"
	case sectionSummary:
		return "SUMMARY"
	case sectionEdits:
		return "EDITS"
	default:
		return "NONE"
	}
}

// responseParser 逐行驱动的四状态解析器
type responseParser struct {
	state  section
	result types.AnalysisResult
}

// ParseAnalysisResponse 把模型的自由文本回答解析为结构化结果。
// 对任意输入都返回结果：缺失或格式错误的字段分别退化为 nil / "" / 空列表
func ParseAnalysisResponse(text string) types.AnalysisResult {
	p := &responseParser{
		state:  sectionNone,
		result: types.AnalysisResult{SuggestedEdits: []string{}},
	}
	for _, line := range strings.Split(text, "\n") {
		p.feed(line)
	}
	return p.result
}

func (p *responseParser) feed(line string) {
	switch {
	case strings.Contains(line, scoreMarker):
		p.state = sectionScore
		p.result.MatchingScore = parseScoreLine(line)
	case strings.Contains(line, summaryMarker):
		p.state = sectionSummary
		p.result.Summary = strings.TrimSpace(afterFirstColon(line))
	case strings.Contains(line, editsMarker):
		p.state = sectionEdits
	default:
		p.accumulate(line)
	}
}

// accumulate 处理非标记行
func (p *responseParser) accumulate(line string) {
	trimmed := strings.TrimSpace(line)
	switch p.state {
	case sectionSummary:
		// 空行同样追加
		p.result.Summary += "\n" + trimmed
	case sectionEdits:
		if strings.HasPrefix(trimmed, "-") {
			p.result.SuggestedEdits = append(p.result.SuggestedEdits, trimmed)
		}
	}
}

// parseScoreLine 取第一个与第二个冒号之间的文本，再取 "/" 之前的整数。
// 没有冒号、没有 "/"、不是整数或超出 [0,100] 时返回 nil
func parseScoreLine(line string) *int {
	parts := strings.Split(line, ":")
	if len(parts) < 2 {
		return nil
	}
	scorePart := strings.TrimSpace(parts[1])

	numerator, _, found := strings.Cut(scorePart, "/")
	if !found {
		return nil
	}
	score, err := strconv.Atoi(strings.TrimSpace(numerator))
	if err != nil || score < 0 || score > 100 {
		return nil
	}
	return &score
}

// afterFirstColon 只在第一个冒号处切分，保留后面的冒号
func afterFirstColon(line string) string {
	_, rest, _ := strings.Cut(line, ":")
	return rest
}
