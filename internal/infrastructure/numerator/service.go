// Package numerator provides the PostgreSQL implementation of document
// auto-numbering. It implements the core/numerator.Generator interface.
package numerator

import (
	"context"
	"fmt"
	"sync"
	"time"

	corenumerator "partsync/internal/core/numerator"
	"partsync/internal/infrastructure/storage/postgres"
)

type cachedRange struct {
	current int64
	max     int64
}

// Service generates document codes backed by the sys_sequences table.
// When called inside a transaction the sequence update joins it, so a
// rolled-back document never burns a strict code.
type Service struct {
	txManager *postgres.TxManager

	cacheMu sync.Mutex
	ranges  map[string]*cachedRange
}

// Ensure compile-time interface compliance.
var _ corenumerator.Generator = (*Service)(nil)

// New creates a new numerator service.
func New(txManager *postgres.TxManager) *Service {
	return &Service{
		txManager: txManager,
		ranges:    make(map[string]*cachedRange),
	}
}

// NextCode generates the next code for the prefix in the given period.
// Pattern: {PREFIX}{YYMM}-{NNNN} (e.g. PO2501-0001), sequence scoped
// per prefix per month.
func (s *Service) NextCode(ctx context.Context, cfg corenumerator.Config, opts *corenumerator.Options, period time.Time) (string, error) {
	if s == nil {
		return "", fmt.Errorf("numerator service is not initialized")
	}
	if opts == nil {
		opts = corenumerator.DefaultOptions()
	}

	key := buildKey(cfg, period)

	var num int64
	var err error
	switch opts.Strategy {
	case corenumerator.StrategyCached:
		num, err = s.nextCached(ctx, key, opts)
	case corenumerator.StrategyStrict:
		fallthrough
	default:
		num, err = s.nextStrict(ctx, key)
	}
	if err != nil {
		return "", err
	}

	return formatCode(cfg, period, num), nil
}

// nextStrict fetches the next number from the database with
// UPSERT + RETURNING. Gap-free under concurrency.
func (s *Service) nextStrict(ctx context.Context, key string) (int64, error) {
	querier := s.txManager.GetQuerier(ctx)

	var num int64
	err := querier.QueryRow(ctx, `
        INSERT INTO sys_sequences (key, current_val)
        VALUES ($1, 1)
        ON CONFLICT (key) DO UPDATE SET current_val = sys_sequences.current_val + 1
        RETURNING current_val
	`, key).Scan(&num)
	if err != nil {
		return 0, fmt.Errorf("strict next: %w", err)
	}
	return num, nil
}

// nextCached serves numbers from an in-memory range, reserving a new
// block from the database when exhausted. Restarts may leave gaps,
// which is acceptable for high-volume internal codes.
func (s *Service) nextCached(ctx context.Context, key string, opts *corenumerator.Options) (int64, error) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	rng, ok := s.ranges[key]
	if !ok {
		rng = &cachedRange{}
		s.ranges[key] = rng
	}

	if rng.current >= rng.max {
		size := opts.RangeSize
		if size <= 0 {
			size = 50
		}

		// Range reservation always goes straight to the pool: a block
		// claimed inside a rolled-back transaction would hand out the
		// same numbers twice.
		var newMax int64
		err := s.txManager.Pool().QueryRow(ctx, `
            INSERT INTO sys_sequences (key, current_val)
            VALUES ($1, $2)
            ON CONFLICT (key) DO UPDATE SET current_val = sys_sequences.current_val + $2
            RETURNING current_val
		`, key, size).Scan(&newMax)
		if err != nil {
			return 0, fmt.Errorf("reserve range: %w", err)
		}

		rng.current = newMax - size
		rng.max = newMax
	}

	rng.current++
	return rng.current, nil
}

// SetNext sets the next sequence value (for data migration).
func (s *Service) SetNext(ctx context.Context, cfg corenumerator.Config, period time.Time, value int64) error {
	key := buildKey(cfg, period)

	var result int64
	err := s.txManager.GetQuerier(ctx).QueryRow(ctx, `
		INSERT INTO sys_sequences (key, current_val)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET current_val = $2
		RETURNING current_val
	`, key, value-1).Scan(&result)

	s.cacheMu.Lock()
	delete(s.ranges, key)
	s.cacheMu.Unlock()

	return err
}

func buildKey(cfg corenumerator.Config, period time.Time) string {
	return fmt.Sprintf("%s_%s", cfg.Prefix, period.Format("0601"))
}

func formatCode(cfg corenumerator.Config, period time.Time, num int64) string {
	pad := cfg.PadWidth
	if pad <= 0 {
		pad = 4
	}
	return fmt.Sprintf("%s%s-%0*d", cfg.Prefix, period.Format("0601"), pad, num)
}

// ParseCode extracts the numeric tail from a formatted code.
// Returns -1 when the code does not match the expected shape.
func ParseCode(formatted string) int64 {
	var num int64
	if _, err := fmt.Sscanf(formatted, "%*[^-]-%d", &num); err != nil {
		return -1
	}
	return num
}
