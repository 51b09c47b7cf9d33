package nlu

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gridbot/internal/dialogue"
	"gridbot/internal/llm"
)

func TestParseIntent(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		text   string
		intent string
		slots  map[string]string
	}{
		{text: "stop", intent: dialogue.IntentStop},
		{text: "Help", intent: dialogue.IntentHelp},
		{text: "hello", intent: dialogue.IntentWelcome},
		{text: "set my username", intent: dialogue.IntentSetUsername},
		{text: "set my username to Alice", intent: dialogue.IntentSetUsername, slots: map[string]string{"username": "Alice"}},
		{text: "my site is CERN-PROD", intent: dialogue.IntentSetSite, slots: map[string]string{"sitename": "CERN-PROD"}},
		{text: "set my site", intent: dialogue.IntentSetSite},
		{text: "get my jobs", intent: dialogue.IntentJobsStatus},
		{text: "get my tasks in last 3 days", intent: dialogue.IntentTasksStatus, slots: map[string]string{"duration": "3 days"}},
		{text: "my jobs in last week", intent: dialogue.IntentJobsStatus, slots: map[string]string{"duration": "week"}},
		{text: "get my site state", intent: dialogue.IntentSiteStatus},
		{text: "what is my site state", intent: dialogue.IntentSiteStatus},
		{text: "jobs at site BNL", intent: dialogue.IntentSiteStatus, slots: map[string]string{"sitename": "BNL"}},
		{text: "get system status", intent: dialogue.IntentSystemStatus},
		{text: "get perfsonar status", intent: dialogue.IntentSystemStatus, slots: map[string]string{"system": "perfsonar"}},
		{text: "Check FTS system status", intent: dialogue.IntentSystemStatus, slots: map[string]string{"system": "fts"}},
		{text: "my data", intent: dialogue.IntentData},
		{text: "my transfers in last week", intent: dialogue.IntentTransfers, slots: map[string]string{"duration": "week"}},
		{text: "order a pizza", intent: ""},
		{text: "   ", intent: ""},
	}
	for _, tc := range testCases {
		t.Run(tc.text, func(t *testing.T) {
			res := ParseIntent(tc.text)
			assert.Equal(t, tc.intent, res.Intent)
			for name, want := range tc.slots {
				assert.Equal(t, want, res.Slots[name].Value, name)
			}
			if len(tc.slots) == 0 {
				assert.Empty(t, res.Slots)
			}
		})
	}
}

type fakeClient struct {
	content string
	err     error
}

func (f fakeClient) Generate(context.Context, []llm.Message) (llm.Response, error) {
	return llm.Response{Content: f.content}, f.err
}

type fakeToolClient struct {
	fakeClient
	calls []llm.ToolCall
	tools []llm.Tool
}

func (f *fakeToolClient) GenerateWithTools(_ context.Context, _ []llm.Message, tools []llm.Tool) (llm.Response, error) {
	f.tools = tools
	return llm.Response{Content: f.content, ToolCalls: f.calls}, f.err
}

func TestLLMParsesJSONReply(t *testing.T) {
	t.Parallel()
	r := NewLLM(fakeClient{content: "Sure!\n```json\n{\"intent\":\"TasksStatus\",\"duration\":\"P2D\",\"username\":\"\"}\n```"})

	res, err := r.Recognize(context.Background(), "how did my tasks do over two days")
	require.NoError(t, err)
	assert.Equal(t, dialogue.IntentTasksStatus, res.Intent)
	assert.Equal(t, map[string]dialogue.Slot{"duration": {Value: "P2D"}}, res.Slots)
}

func TestLLMUsesToolCalls(t *testing.T) {
	t.Parallel()
	c := &fakeToolClient{calls: []llm.ToolCall{{
		Function: llm.FunctionCall{Name: llm.ClassifyIntentTool, Arguments: map[string]any{"intent": "SystemStatus", "system": "elastic"}},
	}}}
	res, err := NewLLM(c).Recognize(context.Background(), "is elastic ok?")
	require.NoError(t, err)
	assert.Equal(t, dialogue.IntentSystemStatus, res.Intent)
	assert.Equal(t, "elastic", res.Slots[dialogue.SlotSystem].Value)
	require.Len(t, c.tools, 1)
	assert.Equal(t, llm.ClassifyIntentTool, c.tools[0].Function.Name)
}

func TestLLMRejectsUnknownIntent(t *testing.T) {
	t.Parallel()
	res, err := NewLLM(fakeClient{content: `{"intent":"LaunchMissiles"}`}).Recognize(context.Background(), "x")
	require.NoError(t, err)
	assert.False(t, res.Recognized())

	_, err = NewLLM(fakeClient{content: "no idea"}).Recognize(context.Background(), "x")
	assert.Error(t, err)
}

func TestChainFallsThrough(t *testing.T) {
	t.Parallel()
	failing := NewLLM(fakeClient{err: errors.New("quota")})
	chain := NewChain(zerolog.Nop(), Keywords{}, failing)

	res, err := chain.Recognize(context.Background(), "get my jobs")
	require.NoError(t, err)
	assert.Equal(t, dialogue.IntentJobsStatus, res.Intent)

	res, err = chain.Recognize(context.Background(), "something else entirely")
	require.NoError(t, err)
	assert.False(t, res.Recognized())

	llmHit := NewLLM(fakeClient{content: `{"intent":"Data"}`})
	res, _ = NewChain(zerolog.Nop(), Keywords{}, llmHit).Recognize(context.Background(), "how large is my stuff")
	assert.Equal(t, dialogue.IntentData, res.Intent)
}
