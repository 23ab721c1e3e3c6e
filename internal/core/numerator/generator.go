// Package numerator provides domain contracts for transaction code generation.
// Implementations live in the infrastructure layer.
package numerator

import (
	"context"
	"time"
)

// Generator generates sequential transaction codes.
//
// Pattern: {PREFIX}{YYMM}-{NNNN} (e.g. PO2501-0001). The sequence is
// scoped per prefix per period, so purchase orders and inbound
// transactions number independently and restart each month.
type Generator interface {
	// NextCode generates the next code for the prefix in the given period.
	NextCode(ctx context.Context, cfg Config, opts *Options, period time.Time) (string, error)

	// SetNext sets the next sequence value (for data migration).
	SetNext(ctx context.Context, cfg Config, period time.Time, value int64) error
}
