package tristate

import "sync"

// Lifecycle is an external source of activation events, such as a UI
// component being attached and detached. Each registration returns a
// function that removes it.
type Lifecycle interface {
	OnActivate(fn func()) (remove func())
	OnDeactivate(fn func()) (remove func())
}

// Observe subscribes cb while lc is active: activation adds cb and
// deactivation removes it again. cb is returned unchanged together with a
// stop function that removes any live subscription and unregisters both
// lifecycle handlers. After stop, later lifecycle events are ignored.
//
// Example:
//
//	_, stop := clock.Observe(view, tristate.CallbackFunc(render))
//	defer stop()
func (c *Condition) Observe(lc Lifecycle, cb Callback) (Callback, func()) {
	var (
		mu      sync.Mutex
		sub     Subscription
		stopped bool
	)
	unsubscribe := func() {
		if sub == 0 {
			return
		}
		c.RemoveCallback(sub)
		sub = 0
	}

	removeActivate := lc.OnActivate(func() {
		mu.Lock()
		defer mu.Unlock()
		if stopped || sub != 0 {
			return
		}
		sub = c.AddCallback(cb)
	})
	removeDeactivate := lc.OnDeactivate(func() {
		mu.Lock()
		defer mu.Unlock()
		unsubscribe()
	})

	var once sync.Once
	stop := func() {
		once.Do(func() {
			removeActivate()
			removeDeactivate()

			mu.Lock()
			defer mu.Unlock()
			stopped = true
			unsubscribe()
		})
	}
	return cb, stop
}

// LifecycleRegistry is a host-side Lifecycle driven by explicit Activate
// and Deactivate calls. An activation handler registered while the
// registry is active runs immediately.
type LifecycleRegistry struct {
	mu         sync.Mutex
	active     bool
	next       int
	activate   map[int]func()
	deactivate map[int]func()
}

// NewLifecycleRegistry creates an inactive LifecycleRegistry.
func NewLifecycleRegistry() *LifecycleRegistry {
	return &LifecycleRegistry{
		activate:   make(map[int]func()),
		deactivate: make(map[int]func()),
	}
}

// OnActivate registers fn for activation events.
func (r *LifecycleRegistry) OnActivate(fn func()) func() {
	r.mu.Lock()
	id := r.register(r.activate, fn)
	active := r.active
	r.mu.Unlock()

	if active {
		fn()
	}
	return func() { r.unregister(r.activate, id) }
}

// OnDeactivate registers fn for deactivation events.
func (r *LifecycleRegistry) OnDeactivate(fn func()) func() {
	r.mu.Lock()
	id := r.register(r.deactivate, fn)
	r.mu.Unlock()
	return func() { r.unregister(r.deactivate, id) }
}

// Active reports whether the registry is active.
func (r *LifecycleRegistry) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// Activate marks the registry active and runs activation handlers in
// registration order. It does nothing if already active.
func (r *LifecycleRegistry) Activate() {
	r.transition(true)
}

// Deactivate marks the registry inactive and runs deactivation handlers in
// registration order. It does nothing if already inactive.
func (r *LifecycleRegistry) Deactivate() {
	r.transition(false)
}

func (r *LifecycleRegistry) transition(active bool) {
	r.mu.Lock()
	if r.active == active {
		r.mu.Unlock()
		return
	}
	r.active = active
	handlers := r.deactivate
	if active {
		handlers = r.activate
	}
	ordered := make([]func(), 0, len(handlers))
	for id := 0; id < r.next; id++ {
		if fn, ok := handlers[id]; ok {
			ordered = append(ordered, fn)
		}
	}
	r.mu.Unlock()

	for _, fn := range ordered {
		fn()
	}
}

func (r *LifecycleRegistry) register(handlers map[int]func(), fn func()) int {
	id := r.next
	r.next++
	handlers[id] = fn
	return id
}

func (r *LifecycleRegistry) unregister(handlers map[int]func(), id int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(handlers, id)
}

var _ Lifecycle = (*LifecycleRegistry)(nil)
