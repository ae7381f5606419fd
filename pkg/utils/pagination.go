package utils

import (
	"net/http"
	"strconv"
)

// GetPaginationDetails reads page/page_size query params. Pages are
// 1-indexed, page_size is capped at 200.
func GetPaginationDetails(r *http.Request) (int, int, int) {
	sizeStr := r.URL.Query().Get("page_size")
	pageSize := 50
	if val, err := strconv.Atoi(sizeStr); err == nil && val > 0 {
		pageSize = val
	}
	if pageSize > 200 {
		pageSize = 200
	}

	pageStr := r.URL.Query().Get("page")
	page := 1
	if val, err := strconv.Atoi(pageStr); err == nil && val > 0 {
		page = val
	}

	offset := (page - 1) * pageSize
	return pageSize, offset, page
}
