package binding

// memo holds a value computed at most once, with an explicit present marker so that a
// nil result is cached too.
type memo[T any] struct {
	value T
	ok    bool
}

// get returns the cached value or calls load and caches its result. Errors are not
// cached.
func (m *memo[T]) get(load func() (T, error)) (T, error) {
	if m.ok {
		return m.value, nil
	}
	v, err := load()
	if err != nil {
		var zero T
		return zero, err
	}
	m.value, m.ok = v, true
	return v, nil
}

func (m *memo[T]) cached() bool {
	return m.ok
}

func (m *memo[T]) reset() {
	var zero T
	m.value, m.ok = zero, false
}
