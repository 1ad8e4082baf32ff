// Package pipeline 单次调用的结构化生成流程
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"

	llmctx "anime-forge-api/internal/domain/service"
	"anime-forge-api/internal/domain/session"
	wfmodel "anime-forge-api/internal/workflow/model"
	wfnode "anime-forge-api/internal/workflow/node"
	workflowport "anime-forge-api/internal/workflow/port"
	workflowprompt "anime-forge-api/internal/workflow/prompt"
)

var defaultPromptRegistry = workflowprompt.NewRegistry()

// Pipeline 结构化 JSON 生成
type Pipeline struct {
	factory workflowport.ChatModelFactory
}

func NewPipeline(factory workflowport.ChatModelFactory) *Pipeline {
	return &Pipeline{factory: factory}
}

// generate 渲染模板并以 JSON 模式调用模型，返回截取后的 JSON 文本
func (p *Pipeline) generate(ctx context.Context, workflow string, id workflowprompt.PromptID, vars map[string]any, params wfmodel.LLMParams) (string, wfmodel.LLMUsageMeta, error) {
	if p == nil || p.factory == nil {
		return "", wfmodel.LLMUsageMeta{}, fmt.Errorf("llm factory not configured")
	}

	tpl, err := defaultPromptRegistry.ChatTemplate(id)
	if err != nil {
		return "", wfmodel.LLMUsageMeta{}, err
	}
	msgs, err := tpl.Format(ctx, vars)
	if err != nil {
		return "", wfmodel.LLMUsageMeta{}, err
	}

	provider := strings.TrimSpace(params.Provider)
	ctx = llmctx.WithLLMCall(ctx, workflow, provider, session.UserID(ctx))
	chatModel, err := p.factory.Get(ctx, provider)
	if err != nil {
		return "", wfmodel.LLMUsageMeta{}, err
	}

	ctx = wfnode.WithChatModelCallbacks(ctx, workflow)
	outMsg, err := wfnode.GenerateJSON(ctx, chatModel, msgs, params)
	if err != nil {
		return "", wfmodel.LLMUsageMeta{}, err
	}

	meta := wfnode.UsageMeta(params, outMsg)
	meta.GeneratedAt = time.Now().UTC()

	raw := wfnode.ExtractJSONObject(contentOf(outMsg))
	if strings.TrimSpace(raw) == "" {
		return "", meta, fmt.Errorf("empty %s output", workflow)
	}
	return raw, meta, nil
}

func contentOf(msg *schema.Message) string {
	if msg == nil {
		return ""
	}
	return msg.Content
}
