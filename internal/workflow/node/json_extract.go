package node

import (
	"encoding/json"
	"strings"
)

// ExtractJSONObject 从模型输出中取出 JSON 对象或数组。
// 先去掉 ```json 代码围栏，再截取第一个 { 或 [ 到最后一个匹配的闭合符；
// 截取结果不是合法 JSON 时原样返回去空白后的输入，由调用方的解码报错。
func ExtractJSONObject(s string) string {
	raw := stripCodeFence(strings.TrimSpace(s))
	if raw == "" || json.Valid([]byte(raw)) {
		return raw
	}

	start := strings.IndexAny(raw, "{[")
	if start < 0 {
		return raw
	}
	closer := "}"
	if raw[start] == '[' {
		closer = "]"
	}
	end := strings.LastIndex(raw, closer)
	if end <= start {
		return raw
	}

	candidate := raw[start : end+1]
	if json.Valid([]byte(candidate)) {
		return candidate
	}
	return raw
}

func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		// 去掉语言标记，如 json
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
