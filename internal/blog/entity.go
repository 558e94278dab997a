// AngelaMos | 2026
// entity.go

package blog

import (
	"time"
)

const DateLayout = "2006-01-02"

type Post struct {
	ID               int64     `db:"id"`
	Title            string    `db:"title"`
	Content          string    `db:"content"`
	ImageDescription string    `db:"image_description"`
	PublishedDate    time.Time `db:"published_date"`
	CreatedAt        time.Time `db:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"`
}
