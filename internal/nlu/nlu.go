// Package nlu turns free text into a recognized intent with slots.
package nlu

import (
	"context"

	"github.com/rs/zerolog"

	"gridbot/internal/dialogue"
)

// Result is a recognized turn. An empty Intent means nothing was recognized.
type Result struct {
	Intent string
	Slots  map[string]dialogue.Slot
}

func (r Result) Recognized() bool { return r.Intent != "" }

type Recognizer interface {
	Recognize(ctx context.Context, text string) (Result, error)
}

// Chain tries each recognizer in order and returns the first hit. A failing
// recognizer is logged and skipped.
type Chain struct {
	recognizers []Recognizer
	log         zerolog.Logger
}

func NewChain(log zerolog.Logger, rs ...Recognizer) *Chain {
	out := &Chain{log: log}
	for _, r := range rs {
		if r != nil {
			out.recognizers = append(out.recognizers, r)
		}
	}
	return out
}

func (c *Chain) Recognize(ctx context.Context, text string) (Result, error) {
	for _, r := range c.recognizers {
		res, err := r.Recognize(ctx, text)
		if err != nil {
			c.log.Warn().Err(err).Msg("recognizer failed")
			continue
		}
		if res.Recognized() {
			return res, nil
		}
	}
	return Result{}, nil
}
