// AngelaMos | 2026
// sort.go

package inquiry

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

type SortField string

const (
	SortByID          SortField = "id"
	SortByName        SortField = "name"
	SortByCompany     SortField = "company"
	SortByCountry     SortField = "country"
	SortByRiceVariety SortField = "rice_variety"
	SortByQuantity    SortField = "quantity_mt"
	SortByMessage     SortField = "message"
	SortByEmail       SortField = "email"
	SortByPhone       SortField = "phone"
	SortByStatus      SortField = "status"
	SortBySubmittedAt SortField = "submitted_at"
)

var sortFields = []SortField{
	SortByID, SortByName, SortByCompany, SortByCountry, SortByRiceVariety,
	SortByQuantity, SortByMessage, SortByEmail, SortByPhone, SortByStatus,
	SortBySubmittedAt,
}

type SortOrder string

const (
	Ascending  SortOrder = "asc"
	Descending SortOrder = "desc"
)

type SortState struct {
	Field SortField `json:"field"`
	Order SortOrder `json:"order"`
}

// DefaultSort shows the newest inquiry first.
var DefaultSort = SortState{Field: SortByID, Order: Descending}

// Toggle mirrors a column-header click: the same column flips direction, a
// new column starts ascending.
func (s SortState) Toggle(field SortField) SortState {
	if s.Field == field {
		if s.Order == Ascending {
			return SortState{Field: field, Order: Descending}
		}
		return SortState{Field: field, Order: Ascending}
	}
	return SortState{Field: field, Order: Ascending}
}

// ParseSort reads query values. Empty values fall back to DefaultSort; an
// empty order with a field given means ascending.
func ParseSort(field, order string) (SortState, error) {
	field = strings.ToLower(strings.TrimSpace(field))
	order = strings.ToLower(strings.TrimSpace(order))

	if field == "" && order == "" {
		return DefaultSort, nil
	}

	s := SortState{Field: DefaultSort.Field, Order: Ascending}
	if field != "" {
		if !slices.Contains(sortFields, SortField(field)) {
			return SortState{}, fmt.Errorf("unknown sort field %q", field)
		}
		s.Field = SortField(field)
	}

	switch SortOrder(order) {
	case "":
	case Ascending, Descending:
		s.Order = SortOrder(order)
	default:
		return SortState{}, fmt.Errorf("unknown sort order %q", order)
	}

	return s, nil
}

// Sort orders items in place. Ties on the chosen field fall back to id, so
// the descending order is always the exact reverse of the ascending one.
func Sort(items []Inquiry, s SortState) {
	slices.SortStableFunc(items, func(a, b Inquiry) int {
		c := compareBy(s.Field, &a, &b)
		if c == 0 {
			c = cmp.Compare(a.ID, b.ID)
		}
		if s.Order == Descending {
			return -c
		}
		return c
	})
}

func compareBy(field SortField, a, b *Inquiry) int {
	switch field {
	case SortByID:
		return cmp.Compare(a.ID, b.ID)
	case SortByQuantity:
		return cmp.Compare(a.QuantityMT, b.QuantityMT)
	case SortBySubmittedAt:
		return a.SubmittedAt.Compare(b.SubmittedAt)
	case SortByName:
		return strings.Compare(a.Name, b.Name)
	case SortByCompany:
		return strings.Compare(a.Company, b.Company)
	case SortByCountry:
		return strings.Compare(a.Country, b.Country)
	case SortByRiceVariety:
		return strings.Compare(a.RiceVariety, b.RiceVariety)
	case SortByMessage:
		return strings.Compare(a.Message, b.Message)
	case SortByEmail:
		return strings.Compare(deref(a.Email), deref(b.Email))
	case SortByPhone:
		return strings.Compare(deref(a.Phone), deref(b.Phone))
	case SortByStatus:
		return strings.Compare(string(a.Status), string(b.Status))
	default:
		return 0
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
