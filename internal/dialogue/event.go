package dialogue

import "strings"

// Canonical intent names.
const (
	IntentWelcome      = "Welcome"
	IntentHelp         = "Help"
	IntentSetUsername  = "SetUsername"
	IntentSetSite      = "SetSite"
	IntentJobsStatus   = "JobsStatus"
	IntentTasksStatus  = "TasksStatus"
	IntentSiteStatus   = "SiteStatus"
	IntentSystemStatus = "SystemStatus"
	IntentData         = "Data"
	IntentTransfers    = "Transfers"
	IntentStop         = "Stop"
	IntentSessionEnded = "SessionEnded"

	// IntentUnknown labels metrics and the turn log for any intent without
	// a handler, keeping label cardinality bounded.
	IntentUnknown = "Unknown"
)

// Slot names.
const (
	SlotUsername = "username"
	SlotSite     = "sitename"
	SlotDuration = "duration"
	SlotInterval = "interval"
	SlotSystem   = "system"
)

var intentAliases = map[string]string{
	"LaunchRequest":          IntentWelcome,
	"Default Welcome Intent": IntentWelcome,
	"AMAZON.HelpIntent":      IntentHelp,
	"Jobs":                   IntentJobsStatus,
	"Tasks":                  IntentTasksStatus,
	"GetSiteStatus":          IntentSiteStatus,
	"AMAZON.StopIntent":      IntentStop,
	"AMAZON.CancelIntent":    IntentStop,
	"Cancel":                 IntentStop,
	"SessionEndedRequest":    IntentSessionEnded,
}

var slotAliases = map[string]string{
	"ADCsystem":  SlotSystem,
	"ADC_system": SlotSystem,
}

// Canonical maps a legacy front-end intent name onto the canonical one.
// Unknown names come back unchanged.
func Canonical(intent string) string {
	intent = strings.TrimSpace(intent)
	if c, ok := intentAliases[intent]; ok {
		return c
	}
	return intent
}

// Slot is one filled slot. ResolvedID is the entity-resolution id when the
// front end supplied one; Amount and Unit carry structured durations.
type Slot struct {
	Value      string `json:"value,omitempty"`
	ResolvedID string `json:"resolved_id,omitempty"`
	Amount     int    `json:"amount,omitempty"`
	Unit       string `json:"unit,omitempty"`
}

func (s Slot) Empty() bool { return s == Slot{} }

// ID is the resolved id, or the raw value when unresolved.
func (s Slot) ID() string {
	if s.ResolvedID != "" {
		return s.ResolvedID
	}
	return s.Value
}

// Event is one recognized turn.
type Event struct {
	SessionID string
	Channel   string
	Intent    string
	Slots     map[string]Slot
}

// CanonicalSlots returns slots with legacy names folded in.
func (e Event) CanonicalSlots() map[string]Slot {
	out := make(map[string]Slot, len(e.Slots))
	for name, s := range e.Slots {
		if c, ok := slotAliases[name]; ok {
			name = c
		}
		out[name] = s
	}
	return out
}
