package llm

type Tool struct {
	Type     string   `json:"type"`
	Function Function `json:"function"`
}

type Function struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

type ToolCall struct {
	ID       string
	Type     string
	Function FunctionCall
}

type FunctionCall struct {
	Name      string
	Arguments map[string]any
}

const ClassifyIntentTool = "classify_intent"

// IntentTools describes the single classification function the recognizer
// asks the model to call.
func IntentTools(intents, systems []string) []Tool {
	return []Tool{
		{
			Type: "function",
			Function: Function{
				Name:        ClassifyIntentTool,
				Description: "Classifies a request to the ATLAS computing assistant into one intent and extracts its slots.",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"intent": map[string]any{
							"type": "string",
							"enum": intents,
						},
						"username": map[string]any{
							"type":        "string",
							"description": "Grid username when the user sets it",
						},
						"sitename": map[string]any{
							"type":        "string",
							"description": "Computing site name, e.g. CERN-PROD",
						},
						"system": map[string]any{
							"type": "string",
							"enum": systems,
						},
						"duration": map[string]any{
							"type":        "string",
							"description": "Lookback window as ISO-8601, e.g. P2D or PT6H",
						},
					},
					"required": []string{"intent"},
				},
			},
		},
	}
}
