// Package registry is a small name-keyed store used for lazily created plumbing
// such as capability message channels and per-agent event channels.
package registry

import (
	"slices"

	"github.com/alphadose/haxmap"
)

type Registry[T any] interface {
	Get(name string) (T, bool)
	// GetOrAdd returns the value stored under name, computing and storing it
	// with valueFn when absent. The boolean reports whether the value was loaded.
	GetOrAdd(name string, valueFn func() T) (T, bool)
	Del(name string)
	Len() int
	// Names returns the registered names in sorted order.
	Names() []string
	Clear()
}

type registry[T any] struct {
	values *haxmap.Map[string, T]
}

func New[T any]() Registry[T] {
	return &registry[T]{
		values: haxmap.New[string, T](),
	}
}

func (r *registry[T]) Get(name string) (T, bool) {
	return r.values.Get(name)
}

func (r *registry[T]) GetOrAdd(name string, valueFn func() T) (T, bool) {
	return r.values.GetOrCompute(name, valueFn)
}

func (r *registry[T]) Del(name string) {
	r.values.Del(name)
}

func (r *registry[T]) Len() int {
	return int(r.values.Len())
}

func (r *registry[T]) Names() []string {
	names := make([]string, 0, r.values.Len())
	r.values.ForEach(func(name string, _ T) bool {
		names = append(names, name)
		return true
	})
	slices.Sort(names)
	return names
}

func (r *registry[T]) Clear() {
	for _, name := range r.Names() {
		r.values.Del(name)
	}
}
