package domain

import "strings"

// DefaultPageLimit caps list responses when the caller gives no limit.
const DefaultPageLimit = 10

// ListQuery selects and pages shipments. Status filters by exact value,
// case-insensitive. Search matches tracking id, customer name or customer
// email by case-insensitive substring.
type ListQuery struct {
	Page   int
	Limit  int
	Status string
	Search string
}

// Normalized returns a copy with page and limit clamped to sane values and
// the filter terms trimmed.
func (q ListQuery) Normalized() ListQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = DefaultPageLimit
	}
	q.Status = strings.ToLower(strings.TrimSpace(q.Status))
	q.Search = strings.TrimSpace(q.Search)
	return q
}

// Matches reports whether the shipment passes the query's status and
// search filters. Pagination is the backend's job.
func (q ListQuery) Matches(s *Shipment) bool {
	if q.Status != "" && !strings.EqualFold(string(s.Status), q.Status) {
		return false
	}
	if q.Search != "" {
		needle := strings.ToLower(q.Search)
		if !strings.Contains(strings.ToLower(s.TrackingID), needle) &&
			!strings.Contains(strings.ToLower(s.CustomerInfo.Name), needle) &&
			!strings.Contains(strings.ToLower(s.CustomerInfo.Email), needle) {
			return false
		}
	}
	return true
}

// Pagination describes one page of a filtered result set. Total counts the
// filtered set, not the whole collection.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// NewPagination computes the page descriptor, with pages = ceil(total/limit).
func NewPagination(page, limit, total int) Pagination {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return Pagination{Page: page, Limit: limit, Total: total, Pages: pages}
}

// ShipmentPage is one page of shipments plus its pagination descriptor.
type ShipmentPage struct {
	Data       []*Shipment `json:"data"`
	Pagination Pagination  `json:"pagination"`
}

// StorageStats is the diagnostic summary a backend reports. Only Total is
// guaranteed; backends add what their storage can cheaply answer.
type StorageStats struct {
	Backend      string         `json:"backend"`
	Available    bool           `json:"available"`
	Total        int            `json:"total"`
	ByStatus     map[string]int `json:"byStatus,omitempty"`
	StorageBytes int64          `json:"storageBytes,omitempty"`
}
