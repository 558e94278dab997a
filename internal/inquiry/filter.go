// AngelaMos | 2026
// filter.go

package inquiry

import (
	"strings"
)

type Filter struct {
	Status  Status
	Country string
	Search  string
}

func (f Filter) IsZero() bool {
	return f.Status == "" && f.Country == "" && f.Search == ""
}

func (f Filter) Match(i *Inquiry) bool {
	if f.Status != "" && i.Status != f.Status {
		return false
	}

	if f.Country != "" && !strings.EqualFold(strings.TrimSpace(f.Country), i.Country) {
		return false
	}

	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		fields := []string{i.Name, i.Company, i.Country, i.Message, i.RiceVariety}
		for _, v := range fields {
			if strings.Contains(strings.ToLower(v), q) {
				return true
			}
		}
		return false
	}

	return true
}

// Apply returns the matching items in their original order.
func (f Filter) Apply(items []Inquiry) []Inquiry {
	if f.IsZero() {
		return items
	}

	out := make([]Inquiry, 0, len(items))
	for i := range items {
		if f.Match(&items[i]) {
			out = append(out, items[i])
		}
	}
	return out
}
