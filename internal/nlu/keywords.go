package nlu

import (
	"context"
	"strings"
	"unicode"

	"gridbot/internal/dialogue"
)

// Keywords is the deterministic recognizer. It never fails.
type Keywords struct{}

func (Keywords) Recognize(_ context.Context, text string) (Result, error) {
	return ParseIntent(text), nil
}

var (
	stopWords  = []string{"stop", "cancel", "bye", "goodbye", "exit", "quit"}
	helpWords  = []string{"help", "options", "what can you do"}
	greetWords = []string{"hello", "hi", "hey", "welcome", "start"}

	systemKeywords = map[string]string{
		"elastic":       "elastic",
		"elasticsearch": "elastic",
		"fts":           "fts",
		"perfsonar":     "perfsonar",
		"frontier":      "frontier",
	}

	durationUnits = map[string]bool{
		"second": true, "seconds": true, "minute": true, "minutes": true,
		"hour": true, "hours": true, "day": true, "days": true,
		"week": true, "weeks": true, "month": true, "months": true,
	}
)

// ParseIntent extracts an intent and slots from free text with keyword and
// pattern matching.
func ParseIntent(text string) Result {
	lower := strings.ToLower(strings.TrimSpace(text))
	raw := tokenise(text)
	words := make([]string, len(raw))
	for i, w := range raw {
		words[i] = strings.ToLower(w)
	}
	if len(words) == 0 {
		return Result{}
	}

	switch {
	case hasAny(words, stopWords):
		return Result{Intent: dialogue.IntentStop}
	case hasPhrase(lower, helpWords):
		return Result{Intent: dialogue.IntentHelp}
	}

	if contains(words, "username") {
		if v := valueAfter(words, raw, "username"); v != "" {
			return withSlot(dialogue.IntentSetUsername, dialogue.SlotUsername, v)
		}
		return Result{Intent: dialogue.IntentSetUsername}
	}
	if isSetting(words, lower) && contains(words, "site") {
		v := valueAfter(words, raw, "site")
		switch {
		case v == "":
			return Result{Intent: dialogue.IntentSetSite}
		case !isStateWord(strings.ToLower(v)):
			return withSlot(dialogue.IntentSetSite, dialogue.SlotSite, v)
		}
	}

	slots := map[string]dialogue.Slot{}
	if d := extractDuration(words); d != "" {
		slots[dialogue.SlotDuration] = dialogue.Slot{Value: d}
	}

	for _, w := range words {
		if sys, ok := systemKeywords[w]; ok {
			slots[dialogue.SlotSystem] = dialogue.Slot{Value: sys}
			return Result{Intent: dialogue.IntentSystemStatus, Slots: slots}
		}
	}

	switch {
	case contains(words, "system") && hasAny(words, []string{"status", "state"}):
		return Result{Intent: dialogue.IntentSystemStatus, Slots: slots}
	case contains(words, "tasks") || contains(words, "task"):
		return Result{Intent: dialogue.IntentTasksStatus, Slots: slots}
	case contains(words, "site"):
		if v := valueAfter(words, raw, "site"); v != "" && !isStateWord(strings.ToLower(v)) {
			slots[dialogue.SlotSite] = dialogue.Slot{Value: v}
		}
		return Result{Intent: dialogue.IntentSiteStatus, Slots: slots}
	case contains(words, "jobs") || contains(words, "job"):
		return Result{Intent: dialogue.IntentJobsStatus, Slots: slots}
	case contains(words, "transfers") || contains(words, "transfer"):
		return Result{Intent: dialogue.IntentTransfers, Slots: slots}
	case contains(words, "data"):
		return Result{Intent: dialogue.IntentData}
	case hasAny(words, greetWords):
		return Result{Intent: dialogue.IntentWelcome}
	}
	return Result{}
}

func withSlot(intent, slot, value string) Result {
	return Result{Intent: intent, Slots: map[string]dialogue.Slot{slot: {Value: value}}}
}

func tokenise(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' && r != '_' && r != '^'
	})
}

func contains(words []string, w string) bool {
	for _, x := range words {
		if x == w {
			return true
		}
	}
	return false
}

func hasAny(words, candidates []string) bool {
	for _, c := range candidates {
		if contains(words, c) {
			return true
		}
	}
	return false
}

func hasPhrase(lower string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(" "+lower+" ", " "+p+" ") {
			return true
		}
	}
	return false
}

func isSetting(words []string, lower string) bool {
	return hasAny(words, []string{"set", "change", "use"}) || strings.Contains(lower, "site is ")
}

func isStateWord(w string) bool {
	switch w {
	case "state", "status", "states", "jobs", "in", "for", "during", "last", "past":
		return true
	}
	return false
}

// valueAfter returns the raw token following key, skipping "is", "to" and
// "as".
func valueAfter(words, raw []string, key string) string {
	for i, w := range words {
		if w != key {
			continue
		}
		for j := i + 1; j < len(words); j++ {
			switch words[j] {
			case "is", "to", "as":
				continue
			}
			return raw[j]
		}
	}
	return ""
}

// extractDuration finds "last week", "past 3 days" or "in last 12 hours".
func extractDuration(words []string) string {
	for i, w := range words {
		if w != "last" && w != "past" {
			continue
		}
		if i+1 >= len(words) {
			return ""
		}
		next := words[i+1]
		if durationUnits[next] {
			return next
		}
		if i+2 < len(words) && isNumber(next) && durationUnits[words[i+2]] {
			return next + " " + words[i+2]
		}
	}
	return ""
}

func isNumber(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
