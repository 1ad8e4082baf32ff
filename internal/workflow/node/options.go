package node

import (
	"context"
	"fmt"
	"strings"

	openaiopts "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	wfmodel "anime-forge-api/internal/workflow/model"
	"anime-forge-api/pkg/logger"
)

// BuildModelOptions 组装采样参数，jsonObject 为 true 时要求 json_object 输出
func BuildModelOptions(p wfmodel.LLMParams, jsonObject bool) []model.Option {
	opts := make([]model.Option, 0, 4)
	if p.Temperature != nil {
		opts = append(opts, model.WithTemperature(*p.Temperature))
	}
	if p.MaxTokens != nil {
		opts = append(opts, model.WithMaxTokens(*p.MaxTokens))
	}
	if strings.TrimSpace(p.Model) != "" {
		opts = append(opts, model.WithModel(strings.TrimSpace(p.Model)))
	}
	if jsonObject {
		opts = append(opts, openaiopts.WithExtraFields(map[string]any{
			"response_format": map[string]any{"type": "json_object"},
		}))
	}
	return opts
}

// WithChatModelCallbacks 为直接调用的 ChatModel 挂上全局回调
func WithChatModelCallbacks(ctx context.Context, nodeName string) context.Context {
	return callbacks.InitCallbacks(ctx, &callbacks.RunInfo{
		Name:      nodeName,
		Type:      "ChatModel",
		Component: components.ComponentOfChatModel,
	})
}

// GenerateJSON 以 json_object 模式调用模型，提供商不支持时退回纯提示词
func GenerateJSON(ctx context.Context, chatModel model.BaseChatModel, msgs []*schema.Message, p wfmodel.LLMParams) (*schema.Message, error) {
	outMsg, err := chatModel.Generate(ctx, msgs, BuildModelOptions(p, true)...)
	if err != nil && IsResponseFormatUnsupportedError(err) {
		logger.Warn(ctx, "llm json_object not supported, fallback to prompt-only",
			"provider", strings.TrimSpace(p.Provider),
			"model", strings.TrimSpace(p.Model),
			"error", err.Error(),
		)
		outMsg, err = chatModel.Generate(ctx, msgs, BuildModelOptions(p, false)...)
	}
	if err != nil {
		return nil, err
	}
	if outMsg == nil {
		return nil, fmt.Errorf("empty llm response")
	}
	return outMsg, nil
}

// UsageMeta 从模型输出中提取用量
func UsageMeta(p wfmodel.LLMParams, out *schema.Message) wfmodel.LLMUsageMeta {
	meta := wfmodel.LLMUsageMeta{
		Provider: strings.TrimSpace(p.Provider),
		Model:    strings.TrimSpace(p.Model),
	}
	if p.Temperature != nil {
		meta.Temperature = float64(*p.Temperature)
	}
	if out != nil && out.ResponseMeta != nil && out.ResponseMeta.Usage != nil {
		meta.PromptTokens = out.ResponseMeta.Usage.PromptTokens
		meta.CompletionTokens = out.ResponseMeta.Usage.CompletionTokens
	}
	return meta
}
