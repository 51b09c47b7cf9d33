package dialogue

// OutcomeKind tags what a turn produced.
type OutcomeKind int

const (
	KindFulfilled OutcomeKind = iota
	KindNeedsSlot
	KindPreconditionFailed
	KindEnded
	KindUnknownIntent
	KindBackendUnavailable
)

func (k OutcomeKind) String() string {
	switch k {
	case KindFulfilled:
		return "fulfilled"
	case KindNeedsSlot:
		return "needs_slot"
	case KindPreconditionFailed:
		return "precondition_failed"
	case KindEnded:
		return "ended"
	case KindUnknownIntent:
		return "unknown_intent"
	case KindBackendUnavailable:
		return "backend_unavailable"
	default:
		return "unknown"
	}
}

func (k OutcomeKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *OutcomeKind) UnmarshalText(b []byte) error {
	for c := KindFulfilled; c <= KindBackendUnavailable; c++ {
		if c.String() == string(b) {
			*k = c
			return nil
		}
	}
	*k = KindUnknownIntent
	return nil
}

// Outcome is what a handler returns. Text is the speech, Slot the slot to
// elicit next, Reason a short machine-readable cause for failed
// preconditions.
type Outcome struct {
	Kind     OutcomeKind
	Text     string
	Reprompt string
	Slot     string
	Reason   string
}

func Fulfilled(text string) Outcome { return Outcome{Kind: KindFulfilled, Text: text} }

func NeedsSlot(slot, prompt string) Outcome {
	return Outcome{Kind: KindNeedsSlot, Slot: slot, Text: prompt, Reprompt: prompt}
}

func PreconditionFailed(reason, prompt string) Outcome {
	return Outcome{Kind: KindPreconditionFailed, Reason: reason, Text: prompt}
}

func Ended(text string) Outcome { return Outcome{Kind: KindEnded, Text: text} }

func (o Outcome) WithReprompt(r string) Outcome {
	o.Reprompt = r
	return o
}

func (o Outcome) Eliciting(slot string) Outcome {
	o.Slot = slot
	return o
}

// Response is the channel-neutral answer every front end renders.
type Response struct {
	SpeechText    string      `json:"speech_text"`
	RepromptText  string      `json:"reprompt_text,omitempty"`
	ExpectingSlot string      `json:"expecting_slot,omitempty"`
	EndSession    bool        `json:"end_session"`
	Kind          OutcomeKind `json:"outcome"`
}
