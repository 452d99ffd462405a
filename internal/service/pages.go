package service

import (
	"context"
	"iter"

	"task-tracker/internal/model"
)

// paginate turns a page fetcher into a lazy sequence. Each range over the
// result starts again from the first page; iteration stops at the first
// error, which is yielded once.
func paginate[T any](ctx context.Context, size int, fetch func(context.Context, model.PageRequest) (*model.Page[T], error)) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for number := 1; ; number++ {
			page, err := fetch(ctx, model.PageRequest{Number: number, Size: size})
			if err != nil {
				var zero T
				yield(zero, err)
				return
			}
			for _, item := range page.Items {
				if !yield(item, nil) {
					return
				}
			}
			if len(page.Items) == 0 || !page.HasMore() {
				return
			}
		}
	}
}
