package logger

import (
	"strconv"
	"strings"
	"sync/atomic"
)

// sampler lets one event in every N through. N <= 1 lets everything through.
type sampler struct {
	every atomic.Int64
	n     atomic.Int64
}

func newSampler(every int64) *sampler {
	s := &sampler{}
	s.every.Store(every)
	return s
}

func (s *sampler) Allow() bool {
	every := s.every.Load()
	if every <= 1 {
		return true
	}
	return s.n.Add(1)%every == 1
}

// parseSample reads "1/N" or "N". Empty keeps the default of 50; "0" disables sampling.
func parseSample(raw string) int64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 50
	}
	if _, den, ok := strings.Cut(raw, "/"); ok {
		raw = den
	}
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || n < 0 {
		return 50
	}
	return n
}
