package util

import (
	"strconv"
	"strings"
)

const DefaultPageSize = 10

func ParseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

func Calculate(page, size int) (offset, limit int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = DefaultPageSize
	}
	offset = (page - 1) * size
	return offset, size
}

// OrderClause builds an "<column> <dir>" string for gorm's Order from
// user-supplied sortBy/sortingDir params. sortBy must be one of the
// allowed column names, otherwise def is used.
func OrderClause(sortBy, dir, def string, allowed ...string) string {
	col := def
	for _, a := range allowed {
		if a == sortBy {
			col = sortBy
			break
		}
	}
	if strings.EqualFold(dir, "desc") {
		return col + " DESC"
	}
	return col + " ASC"
}

// Meta is the pagination envelope every list endpoint returns.
func Meta(page, limit, offset int, total int64) map[string]any {
	return map[string]any{
		"page":        page,
		"size":        limit,
		"total":       total,
		"total_pages": (total + int64(limit) - 1) / int64(limit),
		"has_prev":    page > 1,
		"has_next":    int64(offset+limit) < total,
	}
}
