package demo

import (
	"context"

	"github.com/flowstate/flowstate/internal/constants"
	"github.com/flowstate/flowstate/internal/logger"
	"github.com/flowstate/flowstate/internal/retry"
)

// Fetched is a value with its provenance. Err holds the primary failure,
// if any, even when a fallback supplied the value.
type Fetched[T any] struct {
	Value  T
	Source constants.Source
	Err    error
}

// FetchWithFallback runs primary under retry. If it fails, or isEmpty
// reports the result unusable, mock supplies the value; if mock fails too,
// empty does. It never returns without a value.
func FetchWithFallback[T any](
	ctx context.Context,
	name string,
	primary func(ctx context.Context) (T, error),
	mock func() (T, error),
	empty func() T,
	isEmpty func(T) bool,
	opts ...retry.Option,
) Fetched[T] {
	v, err := retry.Value(ctx, primary, opts...)
	if err == nil && (isEmpty == nil || !isEmpty(v)) {
		return Fetched[T]{Value: v, Source: constants.SourceStore}
	}
	if err != nil {
		logger.Warn("Store read failed, using mock data", "collection", name, "error", err)
	} else {
		logger.Info("Store returned no data, using mock data", "collection", name)
	}

	if mock != nil {
		m, mockErr := mock()
		if mockErr == nil {
			return Fetched[T]{Value: m, Source: constants.SourceMock, Err: err}
		}
		logger.Error("Mock data unavailable", "collection", name, "error", mockErr)
	}
	return Fetched[T]{Value: empty(), Source: constants.SourceEmpty, Err: err}
}
