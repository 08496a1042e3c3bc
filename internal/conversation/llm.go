package conversation

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/maxai/calendar-assistant/internal/observability/metrics"
)

var llmTracer = otel.Tracer("assistant.internal.conversation.llm")

// LLMRequest is a single completion request to the language model.
type LLMRequest struct {
	System      string
	Prompt      string
	MaxTokens   int32
	Temperature float32
}

// LLMResponse carries the raw completion text.
type LLMResponse struct {
	Text string
}

// LLMClient is the language-model collaborator contract.
type LLMClient interface {
	Complete(ctx context.Context, req LLMRequest) (LLMResponse, error)
}

// instrumentedLLM records round-trip latency for every completion.
type instrumentedLLM struct {
	inner   LLMClient
	metrics *metrics.ChatMetrics
	purpose string
}

// NewInstrumentedLLM wraps client so completions are observed under the
// given purpose label.
func NewInstrumentedLLM(client LLMClient, m *metrics.ChatMetrics, purpose string) LLMClient {
	if m == nil {
		return client
	}
	return &instrumentedLLM{inner: client, metrics: m, purpose: purpose}
}

func (c *instrumentedLLM) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	start := time.Now()
	resp, err := c.inner.Complete(ctx, req)
	c.metrics.ObserveLLMLatency(c.purpose, time.Since(start).Seconds())
	return resp, err
}

// tracedLLM opens a span around each completion round-trip.
type tracedLLM struct {
	inner   LLMClient
	purpose string
}

// NewTracedLLM wraps client so every completion runs inside a trace span
// labeled with the purpose.
func NewTracedLLM(client LLMClient, purpose string) LLMClient {
	return &tracedLLM{inner: client, purpose: purpose}
}

func (c *tracedLLM) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	ctx, span := llmTracer.Start(ctx, "conversation.llm", trace.WithAttributes(
		attribute.String("llm.purpose", c.purpose),
		attribute.Int("llm.max_tokens", int(req.MaxTokens)),
	))
	defer span.End()

	resp, err := c.inner.Complete(ctx, req)
	if err != nil {
		span.RecordError(err)
	}
	return resp, err
}

// timeoutLLM bounds every completion with a deadline.
type timeoutLLM struct {
	inner   LLMClient
	timeout time.Duration
}

// NewTimeoutLLM wraps client so each completion is cut off after timeout.
// A non-positive timeout returns client unchanged.
func NewTimeoutLLM(client LLMClient, timeout time.Duration) LLMClient {
	if timeout <= 0 {
		return client
	}
	return &timeoutLLM{inner: client, timeout: timeout}
}

func (c *timeoutLLM) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.inner.Complete(ctx, req)
}
