package nlu

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"gridbot/internal/dialogue"
	"gridbot/internal/llm"
)

var (
	classifiableIntents = []string{
		dialogue.IntentWelcome, dialogue.IntentHelp, dialogue.IntentSetUsername, dialogue.IntentSetSite,
		dialogue.IntentJobsStatus, dialogue.IntentTasksStatus, dialogue.IntentSiteStatus,
		dialogue.IntentSystemStatus, dialogue.IntentData, dialogue.IntentTransfers, dialogue.IntentStop,
	}
	classifiableSystems = []string{"elastic", "fts", "perfsonar", "frontier"}

	slotArgs = []string{dialogue.SlotUsername, dialogue.SlotSite, dialogue.SlotSystem, dialogue.SlotDuration}
)

const classifierPrompt = `You route requests for an assistant that reports on ATLAS grid computing.
Pick exactly one intent from: %s.
Systems are: %s.
Reply with JSON only: {"intent": "...", "username": "...", "sitename": "...", "system": "...", "duration": "P2D"}.
Omit slots that the request does not mention. Use an empty intent when nothing fits.`

// LLM classifies free text with a language model. Providers with function
// calling get a classify_intent tool; others are asked for bare JSON.
type LLM struct {
	client llm.Client
}

func NewLLM(client llm.Client) *LLM {
	return &LLM{client: client}
}

func (l *LLM) Recognize(ctx context.Context, text string) (Result, error) {
	msgs := []llm.Message{
		{Role: "system", Content: fmt.Sprintf(classifierPrompt, strings.Join(classifiableIntents, ", "), strings.Join(classifiableSystems, ", "))},
		{Role: "user", Content: text},
	}

	if tc, ok := l.client.(llm.ToolClient); ok {
		resp, err := tc.GenerateWithTools(ctx, msgs, llm.IntentTools(classifiableIntents, classifiableSystems))
		if err != nil {
			return Result{}, fmt.Errorf("classify: %w", err)
		}
		for _, call := range resp.ToolCalls {
			if call.Function.Name == llm.ClassifyIntentTool {
				return fromArgs(call.Function.Arguments), nil
			}
		}
		if resp.Content == "" {
			return Result{}, nil
		}
		return parseContent(resp.Content)
	}

	resp, err := l.client.Generate(ctx, msgs)
	if err != nil {
		return Result{}, fmt.Errorf("classify: %w", err)
	}
	return parseContent(resp.Content)
}

func parseContent(content string) (Result, error) {
	start, end := strings.Index(content, "{"), strings.LastIndex(content, "}")
	if start < 0 || end < start {
		return Result{}, fmt.Errorf("classifier reply has no JSON object: %q", content)
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(content[start:end+1]), &args); err != nil {
		return Result{}, fmt.Errorf("decode classifier reply: %w", err)
	}
	return fromArgs(args), nil
}

func fromArgs(args map[string]any) Result {
	intent, _ := args["intent"].(string)
	if !known(intent) {
		return Result{}
	}
	res := Result{Intent: intent}
	for _, name := range slotArgs {
		v, _ := args[name].(string)
		if v = strings.TrimSpace(v); v == "" {
			continue
		}
		if res.Slots == nil {
			res.Slots = map[string]dialogue.Slot{}
		}
		res.Slots[name] = dialogue.Slot{Value: v}
	}
	return res
}

func known(intent string) bool {
	for _, i := range classifiableIntents {
		if i == intent {
			return true
		}
	}
	return false
}
