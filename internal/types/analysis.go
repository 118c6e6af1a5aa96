package types

import (
	"errors"
	"strings"
)

// ErrInvalidRequest 分析请求缺少简历或 JD
var ErrInvalidRequest = errors.New("invalid analysis request")

// AnalysisRequest 一次匹配分析的输入：简历全文与 JD 全文
type AnalysisRequest struct {
	ResumeText     string `json:"resume_text"`
	JobDescription string `json:"job_description"`
}

// Validate 两段文本都不能为空（仅含空白也视为空）
func (r AnalysisRequest) Validate() error {
	switch {
	case strings.TrimSpace(r.ResumeText) == "":
		return errors.Join(ErrInvalidRequest, errors.New("resume text is empty"))
	case strings.TrimSpace(r.JobDescription) == "":
		return errors.Join(ErrInvalidRequest, errors.New("job description is empty"))
	}
	return nil
}

// AnalysisResult 模型输出解析后的结构化结果。MatchingScore 为 nil 表示分数缺失
type AnalysisResult struct {
	MatchingScore  *int     `json:"matching_score"`
	Summary        string   `json:"summary"`
	SuggestedEdits []string `json:"suggested_edits"`
}

// HasScore 是否解析出了分数
func (r AnalysisResult) HasScore() bool {
	return r.MatchingScore != nil
}

// Band 按分数划分的匹配档位
func (r AnalysisResult) Band() MatchBand {
	return BandFor(r.MatchingScore)
}

// MatchBand 匹配档位
type MatchBand string

const (
	BandStrong  MatchBand = "strong"
	BandGood    MatchBand = "good"
	BandGap     MatchBand = "gap"
	BandUnknown MatchBand = "unknown"
)

// BandFor >=70 strong, >=50 good, 其余 gap；分数缺失为 unknown
func BandFor(score *int) MatchBand {
	switch {
	case score == nil:
		return BandUnknown
	case *score >= 70:
		return BandStrong
	case *score >= 50:
		return BandGood
	default:
		return BandGap
	}
}

// Insight 档位对应的提示语
func (b MatchBand) Insight() string {
	switch b {
	case BandStrong:
		return "Strong match! Your resume aligns well with the job requirements."
	case BandGood:
		return "Good potential! Some improvements could strengthen your application."
	case BandGap:
		return "Significant gaps identified. Consider major revisions to better match the role."
	default:
		return "No matching score could be read from the model response."
	}
}
