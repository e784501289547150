package nn

import (
	"github.com/sightline-ml/sightline/internal/tensor"
)

// ForwardObservable is implemented by layers whose forward output can be
// observed without altering it. Observers fire in registration order after
// the layer computes its output.
type ForwardObservable[B tensor.Backend] interface {
	RegisterForwardHook(fn func(output *tensor.Tensor[float32, B])) *ForwardHookHandle[B]
	ForwardHookCount() int
}

// forwardHooks is an observer registry embedded in layers that support
// output observation.
type forwardHooks[B tensor.Backend] struct {
	hooks  []forwardHookEntry[B]
	nextID int
}

type forwardHookEntry[B tensor.Backend] struct {
	id int
	fn func(output *tensor.Tensor[float32, B])
}

// ForwardHookHandle identifies a registered forward observer so it can be
// removed.
type ForwardHookHandle[B tensor.Backend] struct {
	registry *forwardHooks[B]
	id       int
}

// Remove unregisters the observer. Safe to call more than once.
func (h *ForwardHookHandle[B]) Remove() {
	if h.registry == nil {
		return
	}
	for i, entry := range h.registry.hooks {
		if entry.id == h.id {
			h.registry.hooks = append(h.registry.hooks[:i], h.registry.hooks[i+1:]...)
			break
		}
	}
	h.registry = nil
}

// RegisterForwardHook registers an observer for the layer's forward output.
func (r *forwardHooks[B]) RegisterForwardHook(fn func(output *tensor.Tensor[float32, B])) *ForwardHookHandle[B] {
	r.nextID++
	r.hooks = append(r.hooks, forwardHookEntry[B]{id: r.nextID, fn: fn})
	return &ForwardHookHandle[B]{registry: r, id: r.nextID}
}

// ForwardHookCount returns the number of registered forward observers.
func (r *forwardHooks[B]) ForwardHookCount() int {
	return len(r.hooks)
}

// fire invokes observers with the layer output, in registration order.
func (r *forwardHooks[B]) fire(output *tensor.Tensor[float32, B]) {
	for _, entry := range r.hooks {
		entry.fn(output)
	}
}
