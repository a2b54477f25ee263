package tristate

import "sync"

// errorHistory retains the last limit errors recorded against a Condition:
// recovered callback panics and monitor failures. A nil history records
// nothing, which is the state of a Condition without ErrorHistorySize.
type errorHistory struct {
	mu    sync.Mutex
	limit int
	errs  []error
}

func newErrorHistory(limit int) *errorHistory {
	if limit <= 0 {
		return nil
	}
	return &errorHistory{
		limit: limit,
		errs:  make([]error, 0, limit),
	}
}

// record appends err, evicting the oldest entry once limit is reached.
func (h *errorHistory) record(err error) {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.errs) == h.limit {
		copy(h.errs, h.errs[1:])
		h.errs[h.limit-1] = nil
		h.errs = h.errs[:h.limit-1]
	}
	h.errs = append(h.errs, err)
}

// snapshot returns a copy of the retained errors, oldest first, or nil.
func (h *errorHistory) snapshot() []error {
	if h == nil {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.errs) == 0 {
		return nil
	}
	return append([]error(nil), h.errs...)
}

func (h *errorHistory) reset() {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	clear(h.errs)
	h.errs = h.errs[:0]
}
