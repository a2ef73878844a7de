// Package pagination 在只支持 "排序 + limit + startAfter" 的查询接口上实现页码分页。
//
// 深页会从集合开头重新扫描以找到 start-after 标记，代价为 O(page × pageSize)。
// 结果只在两次调用之间集合不变时保证无重复、无遗漏。
package pagination

import (
	"context"
	"errors"
)

// ErrInvalidPage page 或 pageSize 小于 1
var ErrInvalidPage = errors.New("page and pageSize must be >= 1")

// Page 一页数据
type Page[T any] struct {
	Items       []T   `json:"items"`
	Total       int64 `json:"total"`
	TotalPages  int   `json:"totalPages"`
	CurrentPage int   `json:"currentPage"`
	HasMore     bool  `json:"hasMore"`
}

// Source 有序集合的最小查询能力
type Source[T any] interface {
	// Count 集合总数
	Count(ctx context.Context) (int64, error)
	// Head 按排序取前 limit 条
	Head(ctx context.Context, limit int) ([]T, error)
	// After 取严格位于 marker 之后的 limit 条
	After(ctx context.Context, marker T, limit int) ([]T, error)
}

// TotalPages ceil(total / pageSize)
func TotalPages(total int64, pageSize int) int {
	if pageSize < 1 || total <= 0 {
		return 0
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}

// Paginate 返回第 page 页（从 1 开始）
func Paginate[T any](ctx context.Context, src Source[T], page, pageSize int) (*Page[T], error) {
	if page < 1 || pageSize < 1 {
		return nil, ErrInvalidPage
	}

	total, err := src.Count(ctx)
	if err != nil {
		return nil, err
	}

	result := &Page[T]{
		Items:       []T{},
		Total:       total,
		TotalPages:  TotalPages(total, pageSize),
		CurrentPage: page,
	}
	if page > result.TotalPages {
		return result, nil
	}

	var items []T
	if page == 1 {
		items, err = src.Head(ctx, pageSize)
	} else {
		skip := (page - 1) * pageSize
		var prefix []T
		prefix, err = src.Head(ctx, skip)
		if err != nil {
			return nil, err
		}
		// 计数后集合被删减，标记不存在
		if len(prefix) < skip {
			return result, nil
		}
		items, err = src.After(ctx, prefix[len(prefix)-1], pageSize)
	}
	if err != nil {
		return nil, err
	}

	if items != nil {
		result.Items = items
	}
	result.HasMore = page < result.TotalPages
	return result, nil
}
