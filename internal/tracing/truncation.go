package tracing

import (
	"strings"
)

const (
	// DefaultMaxLength 默认属性最大长度
	DefaultMaxLength = 200
	// MaxRedisLength Redis 键最大长度
	MaxRedisLength = 100
	// MaxDocumentLength 简历/JD 片段最大长度
	MaxDocumentLength = 150
	// MaxPromptLength 提示词片段最大长度
	MaxPromptLength = 120
)

// piiKeywords 属性名包含这些关键字时对值做掩码
var piiKeywords = []string{
	"email", "phone", "password", "id_card", "address", "name",
	"姓名", "地址", "身份证", "secret", "token", "api_key",
}

// SafeAttributeValue 返回可写入 span 的属性值：敏感字段掩码，过长字段截断
func SafeAttributeValue(name string, value string, maxLength int) string {
	lowerName := strings.ToLower(name)
	for _, keyword := range piiKeywords {
		if strings.Contains(lowerName, keyword) {
			return MaskPII(value)
		}
	}
	return TruncateString(value, maxLength)
}

// MaskPII 保留首尾字符，其余替换为 *
func MaskPII(value string) string {
	if value == "" {
		return ""
	}

	runes := []rune(value)
	n := len(runes)
	switch {
	case n == 1:
		return "*"
	case n == 2:
		return string(runes[0]) + "*"
	case n <= 4:
		return string(runes[0]) + strings.Repeat("*", n-2) + string(runes[n-1])
	default:
		// "13812345678" -> "13*******78"
		return string(runes[:2]) + strings.Repeat("*", n-4) + string(runes[n-2:])
	}
}

// TruncateString 超长时保留首尾，中间用 ... 连接
func TruncateString(s string, maxLength int) string {
	runes := []rune(s)
	if len(runes) <= maxLength {
		return s
	}
	if maxLength <= 3 {
		return string(runes[:maxLength])
	}

	half := (maxLength - 3) / 2
	if half < 1 {
		half = 1
	}
	return string(runes[:half]) + "..." + string(runes[len(runes)-half:])
}

func SafeRedisKey(key string) string {
	return TruncateString(key, MaxRedisLength)
}

// SafeDocumentContent 简历或 JD 正文只保留片段
func SafeDocumentContent(content string) string {
	return TruncateString(content, MaxDocumentLength)
}

func SafePrompt(prompt string) string {
	return TruncateString(prompt, MaxPromptLength)
}
