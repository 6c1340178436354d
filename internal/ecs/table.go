package ecs

// Table stores one component type keyed by entity handle. Registering a table
// against a store wires it into Maintain so destroyed entities lose their
// components automatically.
type Table[T any] struct {
	store *Store
	items map[Handle]*T
}

func NewTable[T any](store *Store) *Table[T] {
	t := &Table[T]{store: store, items: make(map[Handle]*T)}
	store.registerCleaner(func(h Handle) {
		delete(t.items, h)
	})
	return t
}

// Set attaches or replaces the component for the entity.
func (t *Table[T]) Set(h Handle, value T) {
	if t == nil || !t.store.Alive(h) {
		return
	}
	copied := value
	t.items[h] = &copied
}

// Get returns a mutable reference to the entity's component, or nil.
func (t *Table[T]) Get(h Handle) *T {
	if t == nil {
		return nil
	}
	return t.items[h]
}

// Has reports whether the entity carries this component.
func (t *Table[T]) Has(h Handle) bool {
	if t == nil {
		return false
	}
	_, ok := t.items[h]
	return ok
}

// Remove detaches the component without destroying the entity.
func (t *Table[T]) Remove(h Handle) {
	if t == nil {
		return
	}
	delete(t.items, h)
}

// Len reports the number of attached components.
func (t *Table[T]) Len() int {
	if t == nil {
		return 0
	}
	return len(t.items)
}

// Each visits every component. Mutating the visited value is allowed;
// attaching or removing components during iteration is not.
func (t *Table[T]) Each(fn func(h Handle, value *T)) {
	if t == nil {
		return
	}
	for h, v := range t.items {
		fn(h, v)
	}
}

// Handles snapshots the keys of the table, useful when a visit needs to
// attach or remove components mid-iteration.
func (t *Table[T]) Handles() []Handle {
	if t == nil {
		return nil
	}
	handles := make([]Handle, 0, len(t.items))
	for h := range t.items {
		handles = append(handles, h)
	}
	return handles
}

// Join2 visits entities carrying both components, iterating the smaller table.
func Join2[A, B any](a *Table[A], b *Table[B], fn func(h Handle, av *A, bv *B)) {
	if a == nil || b == nil {
		return
	}
	if len(a.items) <= len(b.items) {
		for h, av := range a.items {
			if bv, ok := b.items[h]; ok {
				fn(h, av, bv)
			}
		}
		return
	}
	for h, bv := range b.items {
		if av, ok := a.items[h]; ok {
			fn(h, av, bv)
		}
	}
}

// Join3 visits entities carrying all three components.
func Join3[A, B, C any](a *Table[A], b *Table[B], c *Table[C], fn func(h Handle, av *A, bv *B, cv *C)) {
	if c == nil {
		return
	}
	Join2(a, b, func(h Handle, av *A, bv *B) {
		if cv, ok := c.items[h]; ok {
			fn(h, av, bv, cv)
		}
	})
}
