// Package vision scopes outbound traffic per player. The default build ships
// the passthrough filter; a fog-of-war implementation can replace it without
// touching the hub.
package vision

import "siegefall/server/internal/net/proto"

// Filter decides whether a player's session receives a message.
type Filter interface {
	Visible(player string, msg proto.Message) bool
}

// Passthrough shows everything to everyone.
type Passthrough struct{}

func (Passthrough) Visible(string, proto.Message) bool { return true }

// FilterFunc adapts a function into a Filter.
type FilterFunc func(player string, msg proto.Message) bool

func (f FilterFunc) Visible(player string, msg proto.Message) bool {
	if f == nil {
		return true
	}
	return f(player, msg)
}
