package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAnalysisResponse_WellFormed(t *testing.T) {
	text := `Matching Score: 82/100
Summary: Strong backend background with relevant API work.
Suggested Edits:
- Add Python experience
- Quantify achievements`

	r := ParseAnalysisResponse(text)
	require.NotNil(t, r.MatchingScore)
	assert.Equal(t, 82, *r.MatchingScore)
	assert.Equal(t, "Strong backend background with relevant API work.", r.Summary)
	assert.Equal(t, []string{"- Add Python experience", "- Quantify achievements"}, r.SuggestedEdits)
}

func TestParseAnalysisResponse_EmptyInput(t *testing.T) {
	r := ParseAnalysisResponse("")
	assert.Nil(t, r.MatchingScore)
	assert.Equal(t, "", r.Summary)
	assert.NotNil(t, r.SuggestedEdits, "空列表而不是 nil")
	assert.Empty(t, r.SuggestedEdits)
}

func TestParseAnalysisResponse_SummaryOnly(t *testing.T) {
	r := ParseAnalysisResponse("Summary: foo bar")
	assert.Nil(t, r.MatchingScore)
	assert.Equal(t, "foo bar", r.Summary)
	assert.Empty(t, r.SuggestedEdits)
}

func TestParseScoreLine(t *testing.T) {
	tests := []struct {
		name string
		line string
		want *int
	}{
		{"标准格式", "Matching Score: 82/100", intPtr(82)},
		{"带空格", "Matching Score:   75 / 100", intPtr(75)},
		{"零分", "Matching Score: 0/100", intPtr(0)},
		{"满分", "Matching Score: 100/100", intPtr(100)},
		{"前缀文本", "**Matching Score: 64/100**", intPtr(64)},
		{"N/A", "Matching Score: N/A", nil},
		{"无斜杠", "Matching Score: 82", nil},
		{"冒号后为空", "Matching Score:", nil},
		{"小数", "Matching Score: 82.5/100", nil},
		{"超出范围", "Matching Score: 120/100", nil},
		{"负数", "Matching Score: -5/100", nil},
		{"第二个冒号截断", "Matching Score: 90/100 (scale: 0-100)", intPtr(90)},
		{"冒号截断掉斜杠", "Matching Score: 90 (scale: 0/100)", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := ParseAnalysisResponse(tt.line)
			if tt.want == nil {
				assert.Nil(t, r.MatchingScore)
				return
			}
			require.NotNil(t, r.MatchingScore)
			assert.Equal(t, *tt.want, *r.MatchingScore)
		})
	}
}

func TestParseAnalysisResponse_EditsStopAtSummaryMarker(t *testing.T) {
	text := `Suggested Edits:
- Add Python experience
- Quantify achievements
Summary: wrap-up`

	r := ParseAnalysisResponse(text)
	assert.Equal(t, []string{"- Add Python experience", "- Quantify achievements"}, r.SuggestedEdits)
	assert.Equal(t, "wrap-up", r.Summary)
	assert.Nil(t, r.MatchingScore)
}

func TestParseAnalysisResponse_EditsDropNonBulletLines(t *testing.T) {
	text := "Suggested Edits:\nHere are some ideas:\n  - indented edit  \n* star bullet\n\n-tight"

	r := ParseAnalysisResponse(text)
	assert.Equal(t, []string{"- indented edit", "-tight"}, r.SuggestedEdits)
}

func TestParseAnalysisResponse_SummaryAccumulation(t *testing.T) {
	text := "Summary: first line\n  second line  \n\nthird: with colon\nSuggested Edits:\n- one"

	r := ParseAnalysisResponse(text)
	assert.Equal(t, "first line\nsecond line\n\nthird: with colon", r.Summary)
	assert.Equal(t, []string{"- one"}, r.SuggestedEdits)
}

func TestParseAnalysisResponse_SummaryKeepsFurtherColons(t *testing.T) {
	r := ParseAnalysisResponse("Summary: ratio: 3:1 strengths")
	assert.Equal(t, "ratio: 3:1 strengths", r.Summary)
}

func TestParseAnalysisResponse_SummaryAbsorbsTrailingText(t *testing.T) {
	// 没有后续标记时，剩余行（包括末尾空行）全部并入摘要
	text := "Summary: good\nextra paragraph\n"
	r := ParseAnalysisResponse(text)
	assert.Equal(t, "good\nextra paragraph\n", r.Summary)
}

func TestParseAnalysisResponse_LinesBeforeMarkersDropped(t *testing.T) {
	text := "Sure! Here is my analysis.\n- not an edit\nMatching Score: 70/100\nignored after score\n- also ignored"

	r := ParseAnalysisResponse(text)
	require.NotNil(t, r.MatchingScore)
	assert.Equal(t, 70, *r.MatchingScore)
	assert.Equal(t, "", r.Summary)
	assert.Empty(t, r.SuggestedEdits)
}

func TestParseAnalysisResponse_MarkerPriority(t *testing.T) {
	// 同一行同时包含多个标记时按 score > summary > edits 的顺序
	// 分数取第一个与第二个冒号之间的文本，这里是 " x Matching Score"，解析不出分数
	r := ParseAnalysisResponse("Summary: x Matching Score: 55/100\nmore")
	assert.Nil(t, r.MatchingScore)
	assert.Equal(t, "", r.Summary, "进入 SCORE 状态后后续行被丢弃")
	assert.Empty(t, r.SuggestedEdits)

	r = ParseAnalysisResponse("Suggested Edits: Summary: both\nmore")
	assert.Equal(t, "Summary: both\nmore", r.Summary)
	assert.Empty(t, r.SuggestedEdits)
}

func TestParseAnalysisResponse_CaseSensitiveMarkers(t *testing.T) {
	r := ParseAnalysisResponse("matching score: 90/100\nSUMMARY: loud\nsuggested edits:\n- x")
	assert.Nil(t, r.MatchingScore)
	assert.Equal(t, "", r.Summary)
	assert.Empty(t, r.SuggestedEdits)
}

func TestParseAnalysisResponse_DuplicatedMarkers(t *testing.T) {
	text := `Matching Score: 40/100
Suggested Edits:
- first
Matching Score: 60/100
Summary: one
Summary: two
Suggested Edits:
- second`

	r := ParseAnalysisResponse(text)
	require.NotNil(t, r.MatchingScore)
	assert.Equal(t, 60, *r.MatchingScore, "后出现的分数覆盖前者")
	assert.Equal(t, "two", r.Summary)
	assert.Equal(t, []string{"- first", "- second"}, r.SuggestedEdits)
}

func TestParseAnalysisResponse_ReorderedSections(t *testing.T) {
	text := "Suggested Edits:\n- a\nSummary: s\nMatching Score: 91/100"

	r := ParseAnalysisResponse(text)
	require.NotNil(t, r.MatchingScore)
	assert.Equal(t, 91, *r.MatchingScore)
	assert.Equal(t, "s", r.Summary)
	assert.Equal(t, []string{"- a"}, r.SuggestedEdits)
}

func TestParseAnalysisResponse_LaterInvalidScoreClears(t *testing.T) {
	r := ParseAnalysisResponse("Matching Score: 80/100\nMatching Score: N/A")
	assert.Nil(t, r.MatchingScore)
}

func TestParseAnalysisResponse_CRLF(t *testing.T) {
	r := ParseAnalysisResponse("Matching Score: 77/100\r\nSummary: ok\r\nSuggested Edits:\r\n- fix\r\n")
	require.NotNil(t, r.MatchingScore)
	assert.Equal(t, 77, *r.MatchingScore)
	assert.Equal(t, "ok", r.Summary)
	assert.Equal(t, []string{"- fix"}, r.SuggestedEdits)
}

func TestSectionString(t *testing.T) {
	assert.Equal(t, "NONE", sectionNone.String())
	assert.Equal(t, "SCORE", sectionScore.String())
	assert.Equal(t, "SUMMARY", sectionSummary.String())
	assert.Equal(t, "EDITS", sectionEdits.String())
}

func FuzzParseAnalysisResponse(f *testing.F) {
	seeds := []string{
		"",
		"Matching Score: 82/100\nSummary: x\nSuggested Edits:\n- y",
		"Matching Score:",
		"::::////",
		"Summary:\n\n\n",
		"Suggested Edits:\n-\n--\n- -",
		"\x00\xff Matching Score: 9999999999999999999999/100",
	}
	for _, s := range seeds {
		f.Add(s)
	}
	f.Fuzz(func(t *testing.T, text string) {
		r := ParseAnalysisResponse(text)
		if r.MatchingScore != nil {
			if *r.MatchingScore < 0 || *r.MatchingScore > 100 {
				t.Fatalf("score out of range: %d", *r.MatchingScore)
			}
		}
		if r.SuggestedEdits == nil {
			t.Fatal("edits must not be nil")
		}
		for _, e := range r.SuggestedEdits {
			if !strings.HasPrefix(e, "-") {
				t.Fatalf("edit without dash: %q", e)
			}
		}
	})
}

func intPtr(v int) *int { return &v }
