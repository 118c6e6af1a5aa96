package parser

import (
	"fmt"
	"strings"

	"ai-resume-matcher/internal/types"
)

// analysisPromptTemplate 匹配分析提示词，%[1]s 为简历全文，%[2]s 为 JD 全文
const analysisPromptTemplate = `You are an AI assistant that specializes in matching resumes to job descriptions.
Given a resume and a job description, perform the following tasks:
1. Identify key skills from the resume that match the job description.
2. Identify relevant project experience from the resume that aligns with the job requirements.
3. Assess the overall compatibility between the resume and the job description.
4. Generate a matching score out of 100, where 100 is a perfect match.
5. Provide a concise summary explaining the matching score, highlighting strengths and weaknesses.
6. Suggest specific edits to the resume to better match the job description. Provide these as a bulleted list.

Resume: %[1]s
Job Description: %[2]s

Please provide the output in the following format:

Matching Score: [SCORE]/100
Summary: [SUMMARY TEXT]
Suggested Edits:
- [EDIT 1]
- [EDIT 2]
- ...
`

// qaPromptTemplate 检索问答提示词，把检索到的片段直接拼进上下文
const qaPromptTemplate = `Use the following pieces of context to answer the question at the end. If you don't know the answer, just say that you don't know, don't try to make up an answer.

%s

Question: %s
Helpful Answer:`

// BuildAnalysisPrompt 原样代入简历和 JD 全文，不截断、不校验长度
func BuildAnalysisPrompt(resume, jobDescription string) string {
	return fmt.Sprintf(analysisPromptTemplate, resume, jobDescription)
}

// BuildQAPrompt 按检索顺序拼接片段，片段之间空一行
func BuildQAPrompt(question string, chunks []types.ScoredChunk) string {
	parts := make([]string, 0, len(chunks))
	for _, ch := range chunks {
		parts = append(parts, ch.Content)
	}
	return fmt.Sprintf(qaPromptTemplate, strings.Join(parts, "\n\n"), question)
}
