package dialogue

import (
	"math/rand/v2"
	"sync"
)

// Suggestions are the follow-up hints appended to fulfilled answers.
var Suggestions = []string{
	"\nTo learn all options say \"Help\".",
	"\nWould you like to know status of an ADC system? Say \"get system status\".",
	"\nTo learn about your grid jobs, say \"get my jobs\" or \"get my tasks\".",
	"\nTo get state of an ATLAS site, say \"get my site\".",
	"\nMaybe check your data size? Say \"my data\".",
	"\nMaybe check state of your transfers? Say \"my transfers\".",
	"\nTo check your transfers say for example \"my transfers in last week\".",
	"\nTo check persfonar indexing say \"get perfsonar status\".",
	"\nTo check FTS status say \"Check FTS system status\".",
	"\nTo exit ATLAS computing skill say \"Stop\".",
}

type Suggester interface {
	Suggest() string
}

// SuggesterFunc adapts a plain function.
type SuggesterFunc func() string

func (f SuggesterFunc) Suggest() string { return f() }

// RandomSuggester draws uniformly from Suggestions.
type RandomSuggester struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSuggester seeds the draw so tests and replays are reproducible.
func NewSuggester(seed uint64) *RandomSuggester {
	return &RandomSuggester{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (s *RandomSuggester) Suggest() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Suggestions[s.rng.IntN(len(Suggestions))]
}
