package ecs

// Handle identifies an entity. Equality compares both the slot index and the
// generation, so a handle held across an entity's destruction never aliases
// the slot's next occupant.
type Handle struct {
	Index      uint32
	Generation uint32
}

// Nil is the zero handle. Generation 0 is never issued to a live entity.
var Nil = Handle{}

// IsNil reports whether the handle is the zero value.
func (h Handle) IsNil() bool {
	return h.Generation == 0
}

type slot struct {
	generation uint32
	alive      bool
}

// Store issues entity handles and coordinates deferred destruction. Component
// data lives in Tables registered against the store; Maintain strips the
// components of destroyed entities once per tick.
type Store struct {
	slots          []slot
	free           []uint32
	liveCount      int
	pendingDestroy []Handle
	pendingSet     map[Handle]struct{}
	cleaners       []func(Handle)
}

func NewStore() *Store {
	return &Store{pendingSet: make(map[Handle]struct{})}
}

// Create allocates a new entity handle. The handle is live immediately.
func (s *Store) Create() Handle {
	var index uint32
	if n := len(s.free); n > 0 {
		index = s.free[n-1]
		s.free = s.free[:n-1]
	} else {
		s.slots = append(s.slots, slot{})
		index = uint32(len(s.slots) - 1)
	}
	sl := &s.slots[index]
	sl.generation++
	if sl.generation == 0 {
		sl.generation = 1
	}
	sl.alive = true
	s.liveCount++
	return Handle{Index: index, Generation: sl.generation}
}

// Alive reports whether the handle refers to a live entity. Entities queued
// for destruction remain alive until Maintain commits the removal, so systems
// within a tick observe a consistent snapshot.
func (s *Store) Alive(h Handle) bool {
	if s == nil || h.IsNil() || int(h.Index) >= len(s.slots) {
		return false
	}
	sl := s.slots[h.Index]
	return sl.alive && sl.generation == h.Generation
}

// PendingDestroy reports whether the handle is queued for removal this tick.
func (s *Store) PendingDestroy(h Handle) bool {
	if s == nil {
		return false
	}
	_, ok := s.pendingSet[h]
	return ok
}

// Destroy queues the entity for removal at the next Maintain. Reads through
// the handle stay valid until then.
func (s *Store) Destroy(h Handle) {
	if !s.Alive(h) {
		return
	}
	if _, ok := s.pendingSet[h]; ok {
		return
	}
	s.pendingSet[h] = struct{}{}
	s.pendingDestroy = append(s.pendingDestroy, h)
}

// Maintain commits pending destructions, stripping components and recycling
// slots. Called once per tick after all systems finish.
func (s *Store) Maintain() []Handle {
	if len(s.pendingDestroy) == 0 {
		return nil
	}
	committed := s.pendingDestroy
	s.pendingDestroy = nil
	s.pendingSet = make(map[Handle]struct{})
	for _, h := range committed {
		if int(h.Index) >= len(s.slots) {
			continue
		}
		sl := &s.slots[h.Index]
		if !sl.alive || sl.generation != h.Generation {
			continue
		}
		for _, clean := range s.cleaners {
			clean(h)
		}
		sl.alive = false
		s.liveCount--
		s.free = append(s.free, h.Index)
	}
	return committed
}

// Len reports the number of live entities, including those pending destroy.
func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return s.liveCount
}

func (s *Store) registerCleaner(clean func(Handle)) {
	s.cleaners = append(s.cleaners, clean)
}
