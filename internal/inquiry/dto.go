// AngelaMos | 2026
// dto.go

package inquiry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/azadnexus/backend/internal/core"
)

// Quantity accepts either a JSON number or a numeric string. Anything else is
// kept verbatim so validation can report it against quantity_mt.
type Quantity string

func (q *Quantity) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*q = ""
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("quantity_mt: %w", err)
		}
		*q = Quantity(strings.TrimSpace(s))
		return nil
	}

	*q = Quantity(data)
	return nil
}

func (q Quantity) Float() (float64, bool) {
	return core.ParseQuantity(string(q))
}

type SubmitRequest struct {
	Name         string   `json:"name"          validate:"required,min=2,max=100"`
	Company      string   `json:"company"       validate:"required,min=2,max=150"`
	Country      string   `json:"country"       validate:"required,min=2,max=100"`
	RiceVariety  string   `json:"rice_variety"  validate:"required,min=1,max=100"`
	RiceCategory string   `json:"rice_category" validate:"-"`
	QuantityMT   Quantity `json:"quantity_mt"   validate:"required,positive_quantity"`
	Message      string   `json:"message"       validate:"required,min=5,max=5000"`
	Email        *string  `json:"email"         validate:"omitempty,email,max=255"`
	Phone        *string  `json:"phone"         validate:"omitempty,max=40,phone_digits"`
}

// Normalize trims every field, folds the rice_category alias into
// rice_variety and drops blank optional fields.
func (r *SubmitRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Company = strings.TrimSpace(r.Company)
	r.Country = strings.TrimSpace(r.Country)
	r.RiceVariety = strings.TrimSpace(r.RiceVariety)
	r.RiceCategory = strings.TrimSpace(r.RiceCategory)
	r.Message = strings.TrimSpace(r.Message)
	r.QuantityMT = Quantity(strings.TrimSpace(string(r.QuantityMT)))

	if r.RiceVariety == "" {
		r.RiceVariety = r.RiceCategory
	}

	r.Email = trimOptional(r.Email)
	r.Phone = trimOptional(r.Phone)
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func (r *SubmitRequest) ToInquiry() *Inquiry {
	qty, _ := r.QuantityMT.Float()
	return &Inquiry{
		Name:        r.Name,
		Company:     r.Company,
		Country:     r.Country,
		RiceVariety: r.RiceVariety,
		QuantityMT:  qty,
		Message:     r.Message,
		Email:       r.Email,
		Phone:       r.Phone,
		Status:      StatusPending,
	}
}

type SubmitResponse struct {
	ID int64 `json:"id"`
}

type InquiryResponse struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Company     string     `json:"company"`
	Country     string     `json:"country"`
	RiceVariety string     `json:"rice_variety"`
	QuantityMT  float64    `json:"quantity_mt"`
	Message     string     `json:"message"`
	Email       *string    `json:"email"`
	Phone       *string    `json:"phone"`
	Status      Status     `json:"status"`
	Timestamp   int64      `json:"timestamp"`
	SubmittedAt time.Time  `json:"submitted_at"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
}

func ToResponse(i *Inquiry) InquiryResponse {
	return InquiryResponse{
		ID:          i.ID,
		Name:        i.Name,
		Company:     i.Company,
		Country:     i.Country,
		RiceVariety: i.RiceVariety,
		QuantityMT:  i.QuantityMT,
		Message:     i.Message,
		Email:       i.Email,
		Phone:       i.Phone,
		Status:      i.Status,
		Timestamp:   i.SubmittedAt.UnixNano(),
		SubmittedAt: i.SubmittedAt.UTC(),
		ResolvedAt:  i.ResolvedAt,
	}
}

func ToResponseList(items []Inquiry) []InquiryResponse {
	out := make([]InquiryResponse, 0, len(items))
	for i := range items {
		out = append(out, ToResponse(&items[i]))
	}
	return out
}

type ClearResponse struct {
	Deleted int64 `json:"deleted"`
}

type VarietiesResponse struct {
	Varieties []string `json:"varieties"`
}
