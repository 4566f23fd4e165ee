package agentloop

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/martinemde/toolloop/llm"
)

// streamingGateway streams each response as one delta per word. With cutOff
// set the stream closes before its finish event.
type streamingGateway struct {
	scriptedGateway
	deltas []string
	cutOff bool
}

func (g *streamingGateway) Stream(_ context.Context, req llm.Request) (<-chan llm.StreamEvent, error) {
	g.requests = append(g.requests, req)
	if g.err != nil {
		return nil, g.err
	}
	ch := make(chan llm.StreamEvent, len(g.deltas)+2)
	ch <- llm.StreamEvent{Type: llm.StreamStart}
	text := ""
	for _, d := range g.deltas {
		text += d
		ch <- llm.StreamEvent{Type: llm.TextDelta, Delta: d}
	}
	if g.cutOff {
		close(ch)
		return ch, nil
	}
	ch <- llm.StreamEvent{Type: llm.StreamFinish, Response: &llm.Response{
		StopReason: llm.StopEndTurn,
		Content:    []llm.Block{llm.TextBlock(text)},
	}}
	close(ch)
	return ch, nil
}

func TestConversationSendAccumulatesHistory(t *testing.T) {
	gw := &scriptedGateway{responses: []*llm.Response{
		textResponse("Nice to meet you, Ada."),
		textResponse("Your name is Ada."),
	}}
	conv := NewConversation(gw, WithSystemPrompt("Be friendly."), WithModel("sonnet"), WithLogger(quietLogger()))

	reply, err := conv.Send(context.Background(), "My name is Ada.")
	require.NoError(t, err)
	assert.Equal(t, "Nice to meet you, Ada.", reply)

	reply, err = conv.Send(context.Background(), "What is my name?")
	require.NoError(t, err)
	assert.Equal(t, "Your name is Ada.", reply)

	require.Len(t, gw.requests, 2)
	assert.Len(t, gw.requests[0].Turns, 1)
	assert.Len(t, gw.requests[1].Turns, 3)
	assert.Equal(t, "Be friendly.", gw.requests[1].System)
	assert.Equal(t, "sonnet", gw.requests[1].Model)
	assert.Empty(t, gw.requests[1].Tools)
	assert.Equal(t, 4, conv.Log().Len())

	conv.Reset()
	assert.Equal(t, 0, conv.Log().Len())
}

func TestConversationSendFailureKeepsLog(t *testing.T) {
	gw := &scriptedGateway{err: errors.New("offline")}
	conv := NewConversation(gw, WithLogger(quietLogger()))

	_, err := conv.Send(context.Background(), "hello")
	require.Error(t, err)
	assert.Equal(t, 0, conv.Log().Len())
}

func TestConversationStream(t *testing.T) {
	gw := &streamingGateway{deltas: []string{"Once", " upon", " a time"}}
	conv := NewConversation(gw, WithLogger(quietLogger()))

	var got []string
	reply, err := conv.Stream(context.Background(), "Tell me a story", func(d string) error {
		got = append(got, d)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Once", " upon", " a time"}, got)
	assert.Equal(t, "Once upon a time", reply)
	assert.Equal(t, 2, conv.Log().Len())
}

func TestConversationStreamCallbackError(t *testing.T) {
	gw := &streamingGateway{deltas: []string{"a", "b"}}
	conv := NewConversation(gw, WithLogger(quietLogger()))

	stop := errors.New("stop")
	_, err := conv.Stream(context.Background(), "x", func(string) error { return stop })
	require.ErrorIs(t, err, stop)
	assert.Equal(t, 0, conv.Log().Len())
}

func TestConversationStreamCutOffKeepsLog(t *testing.T) {
	gw := &streamingGateway{deltas: []string{"Once", " upon"}, cutOff: true}
	conv := NewConversation(gw, WithLogger(quietLogger()))

	reply, err := conv.Stream(context.Background(), "Tell me a story", nil)
	require.ErrorIs(t, err, llm.ErrIncompleteStream)
	assert.Empty(t, reply)
	assert.Equal(t, 0, conv.Log().Len())
}

func TestConversationStreamCancelledKeepsLog(t *testing.T) {
	gw := &streamingGateway{deltas: []string{"Once", " upon"}, cutOff: true}
	conv := NewConversation(gw, WithLogger(quietLogger()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := conv.Stream(ctx, "Tell me a story", nil)
	var abort *llm.AbortError
	require.ErrorAs(t, err, &abort)
	assert.Equal(t, 0, conv.Log().Len())
}

func TestConversationStreamRequiresStreamingGateway(t *testing.T) {
	conv := NewConversation(&scriptedGateway{}, WithLogger(quietLogger()))
	_, err := conv.Stream(context.Background(), "x", nil)
	assert.ErrorContains(t, err, "does not support streaming")
}
