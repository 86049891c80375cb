package shared

import (
	"net/http"
	"strconv"
)

type Pagination struct {
	Limit  int
	Offset int
}

// ParsePagination reads limit and offset, ignoring values that are not
// positive integers and capping limit at maxLimit.
func ParsePagination(r *http.Request, defaultLimit, maxLimit int) Pagination {
	page := Pagination{Limit: defaultLimit}
	query := r.URL.Query()
	if n, err := strconv.Atoi(query.Get("limit")); err == nil && n > 0 {
		page.Limit = min(n, maxLimit)
	}
	if n, err := strconv.Atoi(query.Get("offset")); err == nil && n >= 0 {
		page.Offset = n
	}
	return page
}

// SetTotal exposes the unpaged row count to list clients.
func SetTotal(w http.ResponseWriter, total int) {
	w.Header().Set("X-Total-Count", strconv.Itoa(total))
}
