package handler

import (
	"sort"

	"github.com/afikmenashe/incident-notifier/services/notifier/internal/models"
)

// Registry manages channels by the action type they serve.
type Registry struct {
	channels map[models.ActionType]Channel
}

// NewRegistry creates a new channel registry.
func NewRegistry() *Registry {
	return &Registry{
		channels: make(map[models.ActionType]Channel),
	}
}

// Register registers a channel. A later registration for the same type replaces the earlier one.
func (r *Registry) Register(ch Channel) {
	r.channels[ch.Type()] = ch
}

// Get retrieves the channel for an action type.
func (r *Registry) Get(t models.ActionType) (Channel, bool) {
	ch, ok := r.channels[t]
	return ch, ok
}

// List returns all registered action types in ascending order.
func (r *Registry) List() []models.ActionType {
	types := make([]models.ActionType, 0, len(r.channels))
	for t := range r.channels {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}
