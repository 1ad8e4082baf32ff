package node

import (
	"regexp"
	"strconv"
	"strings"
)

func IsResponseFormatUnsupportedError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "response_format"):
		return true
	case strings.Contains(msg, "json_object"):
		return true
	case strings.Contains(msg, "unknown parameter") && strings.Contains(msg, "response"):
		return true
	case strings.Contains(msg, "invalid") && strings.Contains(msg, "response"):
		return true
	default:
		return false
	}
}

var statusCodePattern = regexp.MustCompile(`status code:\s*(\d{3})`)

// GatewayStatus 从 OpenAI 兼容网关的错误中提取 HTTP 状态码，无法识别时返回 0
func GatewayStatus(err error) int {
	if err == nil {
		return 0
	}
	m := statusCodePattern.FindStringSubmatch(err.Error())
	if len(m) != 2 {
		return 0
	}
	code, _ := strconv.Atoi(m[1])
	return code
}

// IsRateLimitedError 网关返回 429
func IsRateLimitedError(err error) bool {
	return GatewayStatus(err) == 429
}

// IsPaymentRequiredError 网关返回 402
func IsPaymentRequiredError(err error) bool {
	return GatewayStatus(err) == 402
}
