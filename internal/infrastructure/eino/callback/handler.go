package callback

import (
	"context"
	"time"

	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/model"
	cbtemplate "github.com/cloudwego/eino/utils/callbacks"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"anime-forge-api/internal/domain/service"
	"anime-forge-api/pkg/logger"
	"anime-forge-api/pkg/metrics"
)

// call 一次模型调用的标签与起始时间，OnStart 写入 ctx
type call struct {
	workflow string
	provider string
	model    string
	user     string
	start    time.Time
}

type callKey struct{}

func callFrom(ctx context.Context) call {
	if c, ok := ctx.Value(callKey{}).(call); ok {
		return c
	}
	return call{
		workflow: service.WorkflowFromContext(ctx),
		provider: service.ProviderFromContext(ctx),
		user:     service.LLMUserFromContext(ctx),
	}
}

func (c call) elapsed() time.Duration {
	if c.start.IsZero() {
		return 0
	}
	return time.Since(c.start)
}

func (c call) observe(status string) {
	metrics.LLMCallTotal.WithLabelValues(c.workflow, c.provider, c.model, status).Inc()
	if d := c.elapsed(); d > 0 {
		metrics.LLMCallDuration.WithLabelValues(c.workflow, c.provider, c.model).Observe(d.Seconds())
	}
}

// usageTap 指标、span 与 llm_usage_events 流水
type usageTap struct {
	recorder service.LLMUsageRecorder
}

func (t usageTap) onStart(ctx context.Context, info *einocb.RunInfo, in *model.CallbackInput) context.Context {
	c := callFrom(ctx)
	c.start = time.Now()
	if in != nil && in.Config != nil {
		c.model = in.Config.Model
	}
	ctx = context.WithValue(ctx, callKey{}, c)

	attrs := []attribute.KeyValue{
		attribute.String("eino.workflow", c.workflow),
		attribute.String("llm.provider", c.provider),
		attribute.String("llm.model", c.model),
	}
	if info != nil {
		attrs = append(attrs, attribute.String("eino.node_name", info.Name))
	}
	ctx, _ = otel.Tracer("eino").Start(ctx, "llm."+c.workflow, trace.WithAttributes(attrs...))
	return ctx
}

func (t usageTap) onEnd(ctx context.Context, _ *einocb.RunInfo, out *model.CallbackOutput) context.Context {
	c := callFrom(ctx)
	if out != nil && out.Config != nil && out.Config.Model != "" {
		c.model = out.Config.Model
	}
	c.observe("success")

	span := trace.SpanFromContext(ctx)
	defer span.End()
	if out == nil || out.TokenUsage == nil {
		return ctx
	}

	prompt, completion := out.TokenUsage.PromptTokens, out.TokenUsage.CompletionTokens
	metrics.LLMTokensUsed.WithLabelValues(c.workflow, c.provider, c.model, "prompt").Add(float64(prompt))
	metrics.LLMTokensUsed.WithLabelValues(c.workflow, c.provider, c.model, "completion").Add(float64(completion))
	span.SetAttributes(
		attribute.Int("llm.prompt_tokens", prompt),
		attribute.Int("llm.completion_tokens", completion),
	)

	if t.recorder == nil || prompt+completion == 0 {
		return ctx
	}
	err := t.recorder.Record(ctx, service.LLMUsageInput{
		UserID:           c.user,
		Workflow:         c.workflow,
		Provider:         c.provider,
		Model:            c.model,
		PromptTokens:     prompt,
		CompletionTokens: completion,
		DurationMs:       int(c.elapsed().Milliseconds()),
	})
	if err != nil {
		logger.Warn(ctx, "failed to record llm usage", "workflow", c.workflow, "error", err)
	}
	return ctx
}

func (t usageTap) onError(ctx context.Context, _ *einocb.RunInfo, err error) context.Context {
	callFrom(ctx).observe("error")

	span := trace.SpanFromContext(ctx)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.End()
	return ctx
}

func newChatModelCallbackHandler(recorder service.LLMUsageRecorder) *cbtemplate.ModelCallbackHandler {
	tap := usageTap{recorder: recorder}
	return &cbtemplate.ModelCallbackHandler{
		OnStart: tap.onStart,
		OnEnd:   tap.onEnd,
		OnError: tap.onError,
	}
}
