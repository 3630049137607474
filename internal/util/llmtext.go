package util

import "strings"

// 模型返回的"JSON"经常裹着 markdown 代码围栏或附带解释文字，
// 这里集中处理清洗逻辑，调用方拿到的字符串可直接交给 json.Unmarshal。

// StripCodeFence 去掉包裹在内容外层的 ```json / ``` 围栏。
// 没有围栏时原样返回（仅去除首尾空白）。
func StripCodeFence(input string) string {
	clean := strings.TrimSpace(input)

	if strings.HasPrefix(clean, "```json") {
		clean = strings.TrimPrefix(clean, "```json")
	} else if strings.HasPrefix(clean, "```") {
		clean = strings.TrimPrefix(clean, "```")
	}
	clean = strings.TrimLeft(clean, "\r\n")

	clean = strings.TrimSuffix(clean, "```")

	return strings.TrimSpace(clean)
}

// ExtractJSONPayload 从嘈杂文本中抽取 JSON 负载：
// 先去围栏；若整体就是以 { 或 [ 开头的内容则直接返回，
// 否则取第一个括号配平的 {...} 或 [...] 区间。找不到时返回空串。
func ExtractJSONPayload(input string) string {
	clean := StripCodeFence(input)
	if clean == "" {
		return ""
	}
	if clean[0] == '{' || clean[0] == '[' {
		if span := balancedSpan(clean, 0); span != "" {
			return span
		}
	}

	for i := 0; i < len(clean); i++ {
		if clean[i] == '{' || clean[i] == '[' {
			if span := balancedSpan(clean, i); span != "" {
				return span
			}
		}
	}
	return ""
}

// balancedSpan 从 start 处的开括号扫到配平的闭括号，
// 跳过字符串字面量内部的括号和转义字符。
func balancedSpan(s string, start int) string {
	open := s[start]
	var close byte
	switch open {
	case '{':
		close = '}'
	case '[':
		close = ']'
	default:
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}
