package memory

import (
	"sort"
	"time"

	"supportmatch/internal/utils"
)

// sortKeyFunc maps a sortable column of an item to a comparable value.
type sortKeyFunc[T any] func(item T, column string) float64

func timeKey(t time.Time) float64 {
	return float64(t.UnixNano())
}

// paginate sorts items by params and returns the requested page with the total.
func paginate[T any](items []T, params *utils.PaginationParams, key sortKeyFunc[T], id func(T) string) ([]T, int64) {
	if params == nil {
		params = utils.DefaultPagination()
	}
	params.Normalize()

	column := params.Sort
	desc := params.Order == "desc"

	sort.SliceStable(items, func(i, j int) bool {
		ki := key(items[i], column)
		kj := key(items[j], column)
		if ki != kj {
			if desc {
				return ki > kj
			}
			return ki < kj
		}
		return id(items[i]) < id(items[j])
	})

	total := int64(len(items))
	start := params.GetSkip()
	if start >= len(items) {
		return []T{}, total
	}
	end := start + params.GetLimit()
	if end > len(items) {
		end = len(items)
	}
	return items[start:end], total
}
