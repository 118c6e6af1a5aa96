package parser

import (
	"fmt"

	"ai-resume-matcher/internal/types"
)

// Chunker 按字符（rune）切分文本，相邻分块重叠 overlap 个字符
type Chunker struct {
	size    int
	overlap int
}

// NewChunker 校验分块参数。参数非法时返回 ErrConfiguration，不做任何修正
func NewChunker(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", ErrConfiguration, size)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("%w: chunk overlap must not be negative, got %d", ErrConfiguration, overlap)
	}
	if overlap >= size {
		return nil, fmt.Errorf("%w: chunk overlap (%d) must be smaller than chunk size (%d)", ErrConfiguration, overlap, size)
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

func (c *Chunker) Size() int { return c.size }

func (c *Chunker) Overlap() int { return c.overlap }

// Split 从左到右输出分块。除最后一块外每块恰好 size 个字符，
// 去掉后续分块开头的 overlap 个字符后依次拼接即为原文。空文本返回空切片
func (c *Chunker) Split(blob string) []types.Chunk {
	runes := []rune(blob)
	n := len(runes)
	if n == 0 {
		return []types.Chunk{}
	}

	step := c.size - c.overlap
	chunks := make([]types.Chunk, 0, c.countFor(n))
	for start := 0; ; start += step {
		end := start + c.size
		if end > n {
			end = n
		}
		chunks = append(chunks, types.Chunk{
			Content: string(runes[start:end]),
			Start:   start,
			End:     end,
		})
		if end == n {
			break
		}
	}
	return chunks
}

// countFor 长度为 n 的文本会产生的分块数
func (c *Chunker) countFor(n int) int {
	if n == 0 {
		return 0
	}
	if n <= c.size {
		return 1
	}
	step := c.size - c.overlap
	return 1 + (n-c.size+step-1)/step
}

// Reassemble 按重叠规则把分块还原成原文
func Reassemble(chunks []types.Chunk, overlap int) string {
	if len(chunks) == 0 {
		return ""
	}
	out := []rune(chunks[0].Content)
	for _, ch := range chunks[1:] {
		out = append(out, []rune(ch.Content)[overlap:]...)
	}
	return string(out)
}
