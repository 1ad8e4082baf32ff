// Package model 定义工作流输入输出
package model

import (
	"time"

	"anime-forge-api/internal/config"
)

// LLMParams 单次调用的模型参数，空值沿用提供商默认
type LLMParams struct {
	Provider    string
	Model       string
	Temperature *float32
	MaxTokens   *int
}

type LLMUsageMeta struct {
	Provider         string
	Model            string
	PromptTokens     int
	CompletionTokens int
	Temperature      float64
	GeneratedAt      time.Time
}

// ParamsFromConfig 工作流配置转换为调用参数，零值表示沿用提供商默认
func ParamsFromConfig(wf config.WorkflowLLMConfig) LLMParams {
	p := LLMParams{Provider: wf.Provider, Model: wf.Model}
	if wf.Temperature > 0 {
		t := float32(wf.Temperature)
		p.Temperature = &t
	}
	if wf.MaxTokens > 0 {
		n := wf.MaxTokens
		p.MaxTokens = &n
	}
	return p
}
