package tristate

// registry is the ordered set of callbacks registered on a Condition.
// Entries keep insertion order. Removal only marks an entry dead; dead
// entries are purged on the next notification pass or when the registry
// empties. Callers synchronize access.
type registry struct {
	entries []registration
	live    int
	next    Subscription
}

type registration struct {
	id Subscription
	cb Callback
}

// add appends cb and returns its token.
func (r *registry) add(cb Callback) Subscription {
	r.next++
	r.entries = append(r.entries, registration{id: r.next, cb: cb})
	r.live++
	return r.next
}

// remove marks the entry for id dead. It reports whether a live entry was found.
func (r *registry) remove(id Subscription) bool {
	if id == 0 {
		return false
	}
	for i := range r.entries {
		if r.entries[i].id != id {
			continue
		}
		if r.entries[i].cb == nil {
			return false
		}
		r.entries[i].cb = nil
		r.live--
		if r.live == 0 {
			r.reset()
		}
		return true
	}
	return false
}

// len returns the number of live entries.
func (r *registry) len() int {
	return r.live
}

// snapshot purges dead entries and returns the live callbacks in order.
// The returned slice is owned by the caller.
func (r *registry) snapshot() []Callback {
	if r.live == 0 {
		r.reset()
		return nil
	}
	out := make([]Callback, 0, r.live)
	kept := r.entries[:0]
	for _, e := range r.entries {
		if e.cb == nil {
			continue
		}
		kept = append(kept, e)
		out = append(out, e.cb)
	}
	for i := len(kept); i < len(r.entries); i++ {
		r.entries[i] = registration{}
	}
	r.entries = kept
	return out
}

func (r *registry) reset() {
	for i := range r.entries {
		r.entries[i] = registration{}
	}
	r.entries = r.entries[:0]
}
