// Package llm 提供 LLM 客户端工厂
package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"anime-forge-api/internal/config"
)

// ChatModelBuilder 按提供商配置构造 ChatModel
type ChatModelBuilder func(ctx context.Context, name string, cfg config.ProviderConfig) (model.BaseChatModel, error)

// EinoFactory 管理多个 Eino ChatModel 客户端实例
type EinoFactory struct {
	config *config.LLMConfig
	build  ChatModelBuilder
	models map[string]model.BaseChatModel
	mu     sync.RWMutex
}

// NewEinoFactory 创建 Eino LLM 工厂
func NewEinoFactory(cfg *config.Config) *EinoFactory {
	return NewEinoFactoryWithBuilder(&cfg.LLM, newOpenAIChatModel)
}

// NewEinoFactoryWithBuilder 使用自定义构造函数创建工厂
func NewEinoFactoryWithBuilder(cfg *config.LLMConfig, build ChatModelBuilder) *EinoFactory {
	return &EinoFactory{
		config: cfg,
		build:  build,
		models: make(map[string]model.BaseChatModel),
	}
}

// Get 获取指定名称的 ChatModel，如果未指定则返回默认客户端
func (f *EinoFactory) Get(ctx context.Context, name string) (model.BaseChatModel, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = f.config.DefaultProvider
	}

	f.mu.RLock()
	m, ok := f.models[name]
	f.mu.RUnlock()
	if ok {
		return m, nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if m, ok = f.models[name]; ok {
		return m, nil
	}

	providerCfg, ok := f.config.Providers[name]
	if !ok {
		return nil, fmt.Errorf("provider %s not found in LLM config", name)
	}

	chatModel, err := f.build(ctx, name, providerCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create eino chat model for %s: %w", name, err)
	}

	f.models[name] = chatModel
	return chatModel, nil
}

// Default 返回默认 ChatModel
func (f *EinoFactory) Default(ctx context.Context) (model.BaseChatModel, error) {
	return f.Get(ctx, "")
}

func newOpenAIChatModel(ctx context.Context, _ string, cfg config.ProviderConfig) (model.BaseChatModel, error) {
	maxTokens := cfg.MaxTokens
	temperature := float32(cfg.Temperature)
	return openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:      cfg.APIKey,
		BaseURL:     cfg.BaseURL,
		Model:       cfg.Model,
		MaxTokens:   &maxTokens,
		Temperature: &temperature,
		Timeout:     cfg.Timeout,
	})
}
