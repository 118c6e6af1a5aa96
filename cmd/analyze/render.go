package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"ai-resume-matcher/internal/processor"
	"ai-resume-matcher/internal/types"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("69"))
	labelStyle = lipgloss.NewStyle().Bold(true)
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)

	bandStyles = map[types.MatchBand]lipgloss.Style{
		types.BandStrong:  lipgloss.NewStyle().Foreground(lipgloss.Color("#2ECC71")).Bold(true),
		types.BandGood:    lipgloss.NewStyle().Foreground(lipgloss.Color("#FFA500")).Bold(true),
		types.BandGap:     lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4B4B")).Bold(true),
		types.BandUnknown: mutedStyle,
	}
)

// scoreText 分数缺失显示 N/A，0 分照常显示 0/100
func scoreText(score *int) string {
	if score == nil {
		return "N/A"
	}
	return fmt.Sprintf("%d/100", *score)
}

func renderResult(r types.AnalysisResult) string {
	band := r.Band()
	style := bandStyles[band]

	var b strings.Builder
	b.WriteString(titleStyle.Render("简历匹配分析"))
	b.WriteString("\n\n")
	b.WriteString(labelStyle.Render("Matching Score: "))
	b.WriteString(style.Render(scoreText(r.MatchingScore)))
	b.WriteString("\n")
	b.WriteString(style.Render(band.Insight()))
	b.WriteString("\n\n")

	b.WriteString(labelStyle.Render("Summary"))
	b.WriteString("\n")
	if r.Summary == "" {
		b.WriteString(mutedStyle.Render("(无)"))
	} else {
		b.WriteString(r.Summary)
	}
	b.WriteString("\n\n")

	b.WriteString(labelStyle.Render("Suggested Edits"))
	b.WriteString("\n")
	if len(r.SuggestedEdits) == 0 {
		b.WriteString(mutedStyle.Render("(无)"))
		b.WriteString("\n")
	}
	for _, edit := range r.SuggestedEdits {
		b.WriteString(edit)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderAnswer(a *processor.Answer) string {
	var b strings.Builder
	b.WriteString(labelStyle.Render("Answer"))
	b.WriteString("\n")
	b.WriteString(a.Answer)
	b.WriteString("\n\n")
	b.WriteString(labelStyle.Render(fmt.Sprintf("Sources (%d)", len(a.Sources))))
	for i, src := range a.Sources {
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render(fmt.Sprintf("[%d] score=%.3f", i+1, src.Score)))
		b.WriteString(" ")
		b.WriteString(strings.ReplaceAll(src.Content, "\n", " "))
	}
	return b.String()
}
