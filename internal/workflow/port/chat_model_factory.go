package port

import (
	"context"

	"github.com/cloudwego/eino/components/model"
)

// ChatModelFactory 工作流层对 LLM ChatModel 的最小依赖（port），name 为空时使用默认提供商
type ChatModelFactory interface {
	Get(ctx context.Context, name string) (model.BaseChatModel, error)
}
