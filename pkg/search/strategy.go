package search

import (
	"context"
	"seafood_shop/pkg/pagination"
)

// MaxBatchSize 单批最大拉取条数
const MaxBatchSize = 500

// Strategy 检索策略，两种实现共享同一谓词
type Strategy[T any] interface {
	Search(ctx context.Context, pred Predicate[T], page, pageSize int) (*pagination.Page[T], error)
}

// FullScan 拉取整个集合后在内存过滤再分页
// 适合多字段异构条件、集合规模较小的场景
type FullScan[T any] struct {
	Load func(ctx context.Context) ([]T, error)
}

func (s FullScan[T]) Search(ctx context.Context, pred Predicate[T], page, pageSize int) (*pagination.Page[T], error) {
	if page < 1 || pageSize < 1 {
		return nil, pagination.ErrInvalidPage
	}
	items, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return pagination.Slice(filter(items, pred), page, pageSize)
}

// Batched 按排序分批拉取并过滤，凑够本页所需即停止
//
// 默认多看一条匹配项，因此 HasMore 准确；TotalPages 只基于已扫描的文档，
// 是真实值的下界。Accurate 为 true 时扫描到集合末尾。
type Batched[T any] struct {
	Source    pagination.Source[T]
	BatchSize int
	Accurate  bool
}

func (s Batched[T]) batchSize() int {
	if s.BatchSize < 1 || s.BatchSize > MaxBatchSize {
		return MaxBatchSize
	}
	return s.BatchSize
}

func (s Batched[T]) Search(ctx context.Context, pred Predicate[T], page, pageSize int) (*pagination.Page[T], error) {
	if page < 1 || pageSize < 1 {
		return nil, pagination.ErrInvalidPage
	}

	required := page*pageSize + 1
	var (
		matches []T
		last    T
		started bool
	)

	for s.Accurate || len(matches) < required {
		limit := s.batchSize()
		if !s.Accurate && required-len(matches) < limit {
			limit = required - len(matches)
		}

		var (
			batch []T
			err   error
		)
		if !started {
			batch, err = s.Source.Head(ctx, limit)
		} else {
			batch, err = s.Source.After(ctx, last, limit)
		}
		if err != nil {
			return nil, err
		}
		if len(batch) == 0 {
			break
		}

		started = true
		last = batch[len(batch)-1]
		matches = append(matches, filter(batch, pred)...)

		if len(batch) < limit {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	return pagination.Slice(matches, page, pageSize)
}

func filter[T any](items []T, pred Predicate[T]) []T {
	if pred == nil {
		return items
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		if pred(item) {
			out = append(out, item)
		}
	}
	return out
}
