package numerator

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MockGenerator is a test implementation of Generator.
// Use in unit tests to avoid database dependencies.
type MockGenerator struct {
	mu   sync.Mutex
	seqs map[string]int64

	NextCodeFunc func(ctx context.Context, cfg Config, opts *Options, period time.Time) (string, error)
}

// NextCode implements Generator. Without a custom func it produces
// deterministic in-memory sequences in the real wire format.
func (m *MockGenerator) NextCode(ctx context.Context, cfg Config, opts *Options, period time.Time) (string, error) {
	if m.NextCodeFunc != nil {
		return m.NextCodeFunc(ctx, cfg, opts, period)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.seqs == nil {
		m.seqs = make(map[string]int64)
	}
	key := fmt.Sprintf("%s_%s", cfg.Prefix, period.Format("0601"))
	m.seqs[key]++

	pad := cfg.PadWidth
	if pad <= 0 {
		pad = 4
	}
	return fmt.Sprintf("%s%s-%0*d", cfg.Prefix, period.Format("0601"), pad, m.seqs[key]), nil
}

// SetNext implements Generator.
func (m *MockGenerator) SetNext(ctx context.Context, cfg Config, period time.Time, value int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.seqs == nil {
		m.seqs = make(map[string]int64)
	}
	key := fmt.Sprintf("%s_%s", cfg.Prefix, period.Format("0601"))
	m.seqs[key] = value - 1
	return nil
}

// Ensure compile-time interface compliance.
var _ Generator = (*MockGenerator)(nil)
