package anthropic

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/ideaflow/internal/resilience"
)

func TestMessageResponse_Text(t *testing.T) {
	r := &MessageResponse{Content: []ContentBlock{
		{Type: "text", Text: `{"title":`},
		{Type: "tool_use", Text: "ignored"},
		{Type: "text", Text: `"x"}`},
	}}
	assert.Equal(t, `{"title":"x"}`, r.Text())
}

func TestCachedSystem(t *testing.T) {
	blocks := CachedSystem("instructions")
	assert.Len(t, blocks, 1)
	assert.Equal(t, "5m", blocks[0].CacheControl.TTL)
}

func TestEstimateCost(t *testing.T) {
	usage := TokenUsage{InputTokens: 1_000_000, OutputTokens: 1_000_000}
	assert.InDelta(t, 6.00, usage.EstimateCost("claude-haiku-4-5-20251001"), 0.001)
	assert.InDelta(t, 18.00, usage.EstimateCost("claude-sonnet-4-5-20250929"), 0.001)
	assert.Zero(t, usage.EstimateCost("unknown-model"))

	cached := TokenUsage{CacheCreationInputTokens: 1_000_000, CacheReadInputTokens: 1_000_000}
	// 1.25 + 0.10 of the $1.00 input rate.
	assert.InDelta(t, 1.35, cached.EstimateCost("claude-haiku-4-5-20251001"), 0.001)
}

func TestLogCost_DoesNotPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		TokenUsage{InputTokens: 100, OutputTokens: 50}.LogCost("unknown-model", "extract")
	})
}

func TestClassify_NetworkErrorIsTransient(t *testing.T) {
	err := classify(errors.New("read tcp: connection reset by peer"))
	assert.True(t, resilience.IsTransient(err))

	assert.False(t, resilience.IsTransient(classify(errors.New("invalid request"))))
}
