// AngelaMos | 2026
// entity.go

package inquiry

import (
	"time"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusResolved Status = "resolved"
)

// Inquiry is one export enquiry. IDs come from a sequence and are never
// reused, even after delete or clear.
type Inquiry struct {
	ID          int64      `db:"id"`
	Name        string     `db:"name"`
	Company     string     `db:"company"`
	Country     string     `db:"country"`
	RiceVariety string     `db:"rice_variety"`
	QuantityMT  float64    `db:"quantity_mt"`
	Message     string     `db:"message"`
	Email       *string    `db:"email"`
	Phone       *string    `db:"phone"`
	Status      Status     `db:"status"`
	SubmittedAt time.Time  `db:"submitted_at"`
	ResolvedAt  *time.Time `db:"resolved_at"`
}

func (i *Inquiry) IsResolved() bool {
	return i.Status == StatusResolved
}

// KnownVarieties is the list offered by the contact form. Submissions are not
// limited to it.
var KnownVarieties = []string{
	"Basmati 1121",
	"Pusa Basmati",
	"Steam Basmati",
	"Traditional Basmati",
	"IR-64 Parboiled",
	"Long Grain White",
	"Sona Masoori",
	"Other",
}
