package reconcile

import (
	"context"
	"errors"

	"github.com/bnema/dockyard/internal/domain"
)

// FindOrCreate returns the entity found by find, creating it with create
// when find reports domain.ErrNotFound. When create loses a race against a
// concurrent writer and reports domain.ErrAlreadyExists, find runs once more
// and its result wins. The boolean is true only when this call created the
// entity.
func FindOrCreate[T any](
	ctx context.Context,
	find func(context.Context) (T, error),
	create func(context.Context) (T, error),
) (T, bool, error) {
	var zero T

	found, err := find(ctx)
	if err == nil {
		return found, false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return zero, false, err
	}

	created, err := create(ctx)
	if err == nil {
		return created, true, nil
	}
	if !errors.Is(err, domain.ErrAlreadyExists) {
		return zero, false, err
	}

	found, err = find(ctx)
	if err != nil {
		return zero, false, err
	}
	return found, false, nil
}
