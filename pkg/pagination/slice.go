package pagination

import "context"

// SliceSource 已排序切片上的 Source，marker 通过 Key 定位
type SliceSource[T any] struct {
	Items []T
	Key   func(T) string
}

func (s SliceSource[T]) Count(_ context.Context) (int64, error) {
	return int64(len(s.Items)), nil
}

func (s SliceSource[T]) Head(_ context.Context, limit int) ([]T, error) {
	if limit > len(s.Items) {
		limit = len(s.Items)
	}
	return append([]T(nil), s.Items[:limit]...), nil
}

func (s SliceSource[T]) After(_ context.Context, marker T, limit int) ([]T, error) {
	key := s.Key(marker)
	for i, item := range s.Items {
		if s.Key(item) != key {
			continue
		}
		rest := s.Items[i+1:]
		if limit > len(rest) {
			limit = len(rest)
		}
		return append([]T(nil), rest[:limit]...), nil
	}
	return []T{}, nil
}

// Slice 对内存结果做窗口切分，用于全量扫描后的分页
func Slice[T any](items []T, page, pageSize int) (*Page[T], error) {
	if page < 1 || pageSize < 1 {
		return nil, ErrInvalidPage
	}
	total := len(items)
	result := &Page[T]{
		Items:       []T{},
		Total:       int64(total),
		TotalPages:  TotalPages(int64(total), pageSize),
		CurrentPage: page,
		HasMore:     total > page*pageSize,
	}
	start := (page - 1) * pageSize
	if start >= total {
		return result, nil
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	result.Items = append(result.Items, items[start:end]...)
	return result, nil
}
