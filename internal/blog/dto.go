// AngelaMos | 2026
// dto.go

package blog

import (
	"strings"
	"time"
)

type PostRequest struct {
	Title            string `json:"title"             validate:"required,min=1,max=200"`
	Content          string `json:"content"           validate:"required,min=1,max=50000"`
	ImageDescription string `json:"image_description" validate:"max=500"`
	PublishedDate    string `json:"published_date"    validate:"omitempty,datetime=2006-01-02"`
}

func (r *PostRequest) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Content = strings.TrimSpace(r.Content)
	r.ImageDescription = strings.TrimSpace(r.ImageDescription)
	r.PublishedDate = strings.TrimSpace(r.PublishedDate)
}

// ToPost builds the stored form. An empty published_date means today in UTC.
// Call only after validation.
func (r *PostRequest) ToPost(now time.Time) *Post {
	published := now.UTC().Truncate(24 * time.Hour)
	if r.PublishedDate != "" {
		if d, err := time.Parse(DateLayout, r.PublishedDate); err == nil {
			published = d
		}
	}

	return &Post{
		Title:            r.Title,
		Content:          r.Content,
		ImageDescription: r.ImageDescription,
		PublishedDate:    published,
	}
}

type PostResponse struct {
	ID               int64     `json:"id"`
	Title            string    `json:"title"`
	Content          string    `json:"content"`
	ImageDescription string    `json:"image_description"`
	PublishedDate    string    `json:"published_date"`
	Timestamp        int64     `json:"timestamp"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func ToResponse(p *Post) PostResponse {
	return PostResponse{
		ID:               p.ID,
		Title:            p.Title,
		Content:          p.Content,
		ImageDescription: p.ImageDescription,
		PublishedDate:    p.PublishedDate.Format(DateLayout),
		Timestamp:        p.CreatedAt.UnixNano(),
		CreatedAt:        p.CreatedAt.UTC(),
		UpdatedAt:        p.UpdatedAt.UTC(),
	}
}

func ToResponseList(posts []Post) []PostResponse {
	out := make([]PostResponse, 0, len(posts))
	for i := range posts {
		out = append(out, ToResponse(&posts[i]))
	}
	return out
}
