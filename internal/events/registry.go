package events

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/noah-isme/pos-till/internal/obs"
)

// Registry keeps observers in registration order and ignores duplicates.
// Observers are compared with ==; values whose dynamic type is not comparable
// (structs holding slices or maps) are always appended, so register pointers
// when deduplication matters.
type Registry[O comparable] struct {
	observers []O
}

// Add registers o unless it is the zero value or already present. It reports
// whether the observer was added.
func (r *Registry[O]) Add(o O) bool {
	var zero O
	t := reflect.TypeOf(any(o))
	if t == nil {
		return false
	}
	if t.Comparable() {
		if o == zero {
			return false
		}
		for _, existing := range r.observers {
			if existing == o {
				return false
			}
		}
	}
	r.observers = append(r.observers, o)
	return true
}

// AddAll registers every observer in order, skipping duplicates.
func (r *Registry[O]) AddAll(observers ...O) {
	for _, o := range observers {
		r.Add(o)
	}
}

// Len returns the number of registered observers.
func (r *Registry[O]) Len() int {
	return len(r.observers)
}

// Snapshot returns a copy of the observers in registration order.
func (r *Registry[O]) Snapshot() []O {
	out := make([]O, len(r.observers))
	copy(out, r.observers)
	return out
}

// Notify invokes fn for every observer registered when it starts, in
// registration order. A failing or panicking observer does not stop the
// fan-out; all failures are joined into the returned error and counted under
// topic.
func (r *Registry[O]) Notify(ctx context.Context, topic string, fn func(context.Context, O) error) error {
	var joined error
	for i, o := range r.Snapshot() {
		if err := invoke(ctx, o, fn); err != nil {
			obs.CountObserverFailure(topic)
			joined = errors.Join(joined, fmt.Errorf("events: %s observer %d (%T): %w", topic, i, o, err))
		}
	}
	return joined
}

func invoke[O any](ctx context.Context, o O, fn func(context.Context, O) error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return fn(ctx, o)
}
