// Package hooking lets observers attach to named positions inside a
// simulated component.
package hooking

// HookPos names a point in a component where observers are called, such as
// a cache access or an eviction.
type HookPos struct {
	Name string
}

// HookCtx is passed to every observer. Domain is the component that fired,
// Item is the subject of the event and Detail carries event-specific data.
type HookCtx struct {
	Domain Hookable
	Pos    *HookPos
	Item   any
	Detail any
}

// Hookable is a component that observers can attach to.
type Hookable interface {
	// AcceptHook attaches an observer.
	AcceptHook(hook Hook)

	// NumHooks counts the attached observers.
	NumHooks() int

	// Hooks lists the attached observers in attachment order.
	Hooks() []Hook
}

// Hook observes a Hookable component.
type Hook interface {
	// Func is called each time the component reaches a hook position.
	Func(ctx HookCtx)
}

// HookFunc adapts a plain function to the Hook interface. Only pointers to a
// HookFunc can be registered, since function values are not comparable.
type HookFunc func(ctx HookCtx)

// Func calls f.
func (f *HookFunc) Func(ctx HookCtx) {
	(*f)(ctx)
}

// HookableBase keeps the observer list. Components embed it to become
// Hookable and call InvokeHook at their hook positions.
type HookableBase struct {
	hookList []Hook
}

// NumHooks counts the attached observers.
func (h *HookableBase) NumHooks() int {
	return len(h.hookList)
}

// Hooks lists the attached observers in attachment order.
func (h *HookableBase) Hooks() []Hook {
	return h.hookList
}

// AcceptHook attaches an observer. Attaching the same observer twice panics.
func (h *HookableBase) AcceptHook(hook Hook) {
	if h.indexOf(hook) >= 0 {
		panic("duplicated hook")
	}

	h.hookList = append(h.hookList, hook)
}

// RemoveHook detaches an observer. Unknown observers are ignored.
func (h *HookableBase) RemoveHook(hook Hook) {
	i := h.indexOf(hook)
	if i < 0 {
		return
	}

	h.hookList = append(h.hookList[:i], h.hookList[i+1:]...)
}

func (h *HookableBase) indexOf(hook Hook) int {
	for i, registered := range h.hookList {
		if registered == hook {
			return i
		}
	}

	return -1
}

// InvokeHook calls every attached observer with ctx, in attachment order.
func (h *HookableBase) InvokeHook(ctx HookCtx) {
	for _, hook := range h.hookList {
		hook.Func(ctx)
	}
}
