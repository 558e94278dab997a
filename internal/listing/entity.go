// AngelaMos | 2026
// entity.go

package listing

import (
	"time"
)

// Listing is one entry on the public services page.
type Listing struct {
	ID          int64     `db:"id"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
	Details     string    `db:"details"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}
