// Package callback 注册 Eino 全局回调：指标、链路与用量流水
package callback

import (
	"sync"

	einocallbacks "github.com/cloudwego/eino/callbacks"
	cbtemplate "github.com/cloudwego/eino/utils/callbacks"

	"anime-forge-api/internal/domain/service"
)

var initOnce sync.Once

// Init 注册 Eino 全局 callbacks（进程级一次）
func Init(usageRecorder service.LLMUsageRecorder) {
	initOnce.Do(func() {
		einocallbacks.AppendGlobalHandlers(NewHandler(usageRecorder))
	})
}

// NewHandler 构造 ChatModel 回调处理器
func NewHandler(usageRecorder service.LLMUsageRecorder) einocallbacks.Handler {
	return cbtemplate.NewHandlerHelper().
		ChatModel(newChatModelCallbackHandler(usageRecorder)).
		Handler()
}
