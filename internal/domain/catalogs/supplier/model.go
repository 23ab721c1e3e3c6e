// Package supplier provides the supplier master-data catalog.
package supplier

import (
	"context"
	"time"

	"partsync/internal/core/apperror"
	"partsync/internal/core/id"
)

// Supplier is a vendor parts are purchased from.
type Supplier struct {
	ID           id.ID     `db:"id" json:"id"`
	Code         string    `db:"code" json:"code"`
	Name         string    `db:"name" json:"name"`
	ContactName  string    `db:"contact_name" json:"contactName,omitempty"`
	ContactEmail string    `db:"contact_email" json:"contactEmail,omitempty"`
	Phone        string    `db:"phone" json:"phone,omitempty"`
	LeadTimeDays int       `db:"lead_time_days" json:"leadTimeDays"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// New creates a supplier with generated ID and timestamps.
func New(code, name string, leadTimeDays int) *Supplier {
	now := time.Now().UTC()
	return &Supplier{
		ID:           id.New(),
		Code:         code,
		Name:         name,
		LeadTimeDays: leadTimeDays,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Validate checks supplier invariants.
func (s *Supplier) Validate(ctx context.Context) error {
	if s.Code == "" {
		return apperror.NewValidation("supplier code is required").WithDetail("field", "code")
	}
	if s.Name == "" {
		return apperror.NewValidation("supplier name is required").WithDetail("field", "name")
	}
	if s.LeadTimeDays < 0 {
		return apperror.NewValidation("lead time cannot be negative").WithDetail("field", "leadTimeDays")
	}
	return nil
}
