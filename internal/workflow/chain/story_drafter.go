// Package chain 多步编排的对话流程
package chain

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	llmctx "anime-forge-api/internal/domain/service"
	"anime-forge-api/internal/domain/session"
	wfmodel "anime-forge-api/internal/workflow/model"
	wfnode "anime-forge-api/internal/workflow/node"
	workflowport "anime-forge-api/internal/workflow/port"
	workflowprompt "anime-forge-api/internal/workflow/prompt"
)

var defaultPromptRegistry = workflowprompt.NewRegistry()

// 历史消息条数上限
const maxHistoryTurns = 20

type StoryDrafterChain struct {
	factory workflowport.ChatModelFactory

	chainOnce sync.Once
	chain     compose.Runnable[*wfmodel.DrafterInput, *schema.Message]
	chainErr  error
}

func NewStoryDrafterChain(factory workflowport.ChatModelFactory) *StoryDrafterChain {
	return &StoryDrafterChain{factory: factory}
}

func (c *StoryDrafterChain) Invoke(ctx context.Context, in *wfmodel.DrafterInput) (*schema.Message, error) {
	if c == nil || c.factory == nil {
		return nil, fmt.Errorf("llm factory not configured")
	}
	if in == nil {
		return nil, fmt.Errorf("input is nil")
	}
	if strings.TrimSpace(in.Message) == "" {
		return nil, fmt.Errorf("message is empty")
	}

	chain, err := c.getChain()
	if err != nil {
		return nil, err
	}
	ctx = llmctx.WithLLMCall(ctx, llmctx.WorkflowStoryDrafter, strings.TrimSpace(in.Provider), session.UserID(ctx))
	return chain.Invoke(ctx, in)
}

type drafterState struct {
	In       *wfmodel.DrafterInput
	Messages []*schema.Message
	OutMsg   *schema.Message
}

func (c *StoryDrafterChain) getChain() (compose.Runnable[*wfmodel.DrafterInput, *schema.Message], error) {
	c.chainOnce.Do(func() {
		c.chain, c.chainErr = c.buildChain(context.Background())
	})
	return c.chain, c.chainErr
}

func (c *StoryDrafterChain) buildChain(ctx context.Context) (compose.Runnable[*wfmodel.DrafterInput, *schema.Message], error) {
	chain := compose.NewChain[*wfmodel.DrafterInput, *schema.Message]()

	chain.AppendLambda(
		compose.InvokableLambda(func(_ context.Context, in *wfmodel.DrafterInput) (*drafterState, error) {
			return &drafterState{In: in}, nil
		}),
		compose.WithNodeName("story_drafter.init"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(ctx context.Context, st *drafterState) (*drafterState, error) {
			msgs, err := formatDrafterMessages(ctx, st.In)
			if err != nil {
				return nil, err
			}
			st.Messages = msgs
			return st, nil
		}),
		compose.WithNodeName("story_drafter.template"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(ctx context.Context, st *drafterState) (*drafterState, error) {
			chatModel, err := c.factory.Get(ctx, strings.TrimSpace(st.In.Provider))
			if err != nil {
				return nil, err
			}
			ctx = wfnode.WithChatModelCallbacks(ctx, llmctx.WorkflowStoryDrafter)
			outMsg, err := chatModel.Generate(ctx, st.Messages, wfnode.BuildModelOptions(st.In.LLMParams, false)...)
			if err != nil {
				return nil, err
			}
			if outMsg == nil || strings.TrimSpace(outMsg.Content) == "" {
				return nil, fmt.Errorf("empty llm response")
			}
			st.OutMsg = outMsg
			return st, nil
		}),
		compose.WithNodeName("story_drafter.llm"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(_ context.Context, st *drafterState) (*schema.Message, error) {
			return st.OutMsg, nil
		}),
		compose.WithNodeName("story_drafter.finalize"),
	)

	return chain.Compile(ctx)
}

func formatDrafterMessages(ctx context.Context, in *wfmodel.DrafterInput) ([]*schema.Message, error) {
	tpl, err := defaultPromptRegistry.ChatTemplate(workflowprompt.PromptStoryDrafterV1)
	if err != nil {
		return nil, err
	}

	history := in.History
	if len(history) > maxHistoryTurns {
		history = history[len(history)-maxHistoryTurns:]
	}

	vars := map[string]any{
		"project_name":             strings.TrimSpace(in.ProjectName),
		"story_bible_block":        wfnode.BuildStoryBibleBlock(in.StoryBible),
		"message":                  strings.TrimSpace(in.Message),
		workflowprompt.HistoryKey: wfnode.BuildHistoryMessages(history),
	}
	return tpl.Format(ctx, vars)
}
