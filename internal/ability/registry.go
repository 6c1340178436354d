package ability

import (
	"fmt"
	"sync"
)

// Handler implements one ability's behaviour. Implementations must be
// stateless: everything they need arrives through the request, the
// definition, and the level data.
type Handler interface {
	AbilityID() string
	CanExecute(req Request, def *Definition, state CasterState) bool
	Execute(req Request, def *Definition, level LevelData) []Effect
}

// CanExecuteDefault is the standard gate chain: cooldown or a spare charge,
// a target matching the declared kind, and enough mana. Handlers that need
// extra conditions call this first and layer on top.
func CanExecuteDefault(req Request, def *Definition, state CasterState) bool {
	if def == nil {
		return false
	}
	if def.Kind == KindToggle && state.ToggleState {
		// Toggling off is always allowed.
		return true
	}
	if state.CooldownRemaining > 0 && state.Charges <= 0 {
		return false
	}
	switch def.Target {
	case TargetUnit:
		if !req.HasTarget {
			return false
		}
	case TargetPoint:
		if !req.HasPoint {
			return false
		}
	}
	level, ok := def.Level(req.Level)
	if !ok {
		return false
	}
	return state.Mana >= level.ManaCost
}

// Base supplies the id and the default gate so handlers only write Execute.
type Base struct {
	ID string
}

func (b Base) AbilityID() string { return b.ID }

func (b Base) CanExecute(req Request, def *Definition, state CasterState) bool {
	return CanExecuteDefault(req, def, state)
}

// Registry maps ability ids to handlers. Callers own their registry; there is
// no package-level default.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register adds a handler. Duplicate ids are a wiring bug and rejected.
func (r *Registry) Register(h Handler) error {
	if h == nil {
		return fmt.Errorf("ability: nil handler")
	}
	id := h.AbilityID()
	if id == "" {
		return fmt.Errorf("ability: handler with empty id")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.handlers[id]; exists {
		return fmt.Errorf("ability: duplicate handler %q", id)
	}
	r.handlers[id] = h
	return nil
}

// Lookup finds the handler for an ability id.
func (r *Registry) Lookup(id string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[id]
	return h, ok
}

// IDs lists registered ability ids, for validation against campaign data.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.handlers))
	for id := range r.handlers {
		ids = append(ids, id)
	}
	return ids
}
