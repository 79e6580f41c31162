package verify

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/DenisKurek/memoract/internal/config"
)

// Options tunes the simulated backends. Zero value means time-seeded
// randomness and real sleeps; tests pin a seed and skip the delays.
type Options struct {
	Seed       int64
	SkipDelays bool
}

// simulator is the shared plumbing of the mocked services: a jittered
// processing delay and seeded random draws for outcomes and scores.
type simulator struct {
	mu     sync.Mutex
	rng    *rand.Rand
	tuning config.ServiceTuning
	skip   bool
}

func newSimulator(tuning config.ServiceTuning, opts Options) *simulator {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &simulator{
		rng:    rand.New(rand.NewSource(seed)),
		tuning: tuning,
		skip:   opts.SkipDelays,
	}
}

// process sleeps for a jittered delay within the tuning window and returns
// the elapsed milliseconds for display. The wait is not interruptible:
// the simulated backend always resolves.
func (s *simulator) process(_ context.Context) int64 {
	s.mu.Lock()
	span := s.tuning.MaxDelayMS - s.tuning.MinDelayMS
	ms := s.tuning.MinDelayMS
	if span > 0 {
		ms += s.rng.Intn(span + 1)
	}
	s.mu.Unlock()

	if !s.skip {
		time.Sleep(time.Duration(ms) * time.Millisecond)
	}
	return int64(ms)
}

// draw decides the pass/fail branch before any scores are computed.
func (s *simulator) draw() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64() < s.tuning.SuccessRate
}

// between returns a 2-decimal value in [lo, hi).
func (s *simulator) between(lo, hi float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return round2(lo + s.rng.Float64()*(hi-lo))
}

func (s *simulator) pick(msgs []string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return msgs[s.rng.Intn(len(msgs))]
}

// sample returns 1..max distinct entries from list, shuffled.
func (s *simulator) sample(list []string, max int) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.rng.Intn(max) + 1
	out := make([]string, 0, n)
	for _, i := range s.rng.Perm(len(list))[:n] {
		out = append(out, list[i])
	}
	return out
}

func (s *simulator) chance(p float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64() < p
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
