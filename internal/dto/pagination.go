package dto

// Paginated is the envelope of every list response.
type Paginated[T any] struct {
	Data       []T   `json:"data"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// NewPaginated converts items with fn and computes the page count.
func NewPaginated[S, T any](items []S, total int64, page, pageSize int, fn func(*S) T) Paginated[T] {
	data := make([]T, 0, len(items))
	for i := range items {
		data = append(data, fn(&items[i]))
	}

	totalPages := 0
	if pageSize > 0 {
		totalPages = int(total / int64(pageSize))
		if total%int64(pageSize) != 0 {
			totalPages++
		}
	}

	return Paginated[T]{
		Data:       data,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
	}
}
