package ingest

import "sync"

// Registry enforces law-number uniqueness within one ingestion run. It is
// the only shared mutable state of the batch; Claim is a single atomic
// check-and-insert so two concurrent workers can never both accept the
// same law number.
type Registry struct {
	mu   sync.Mutex
	nums map[string]string // law_number -> doc id
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{nums: make(map[string]string)}
}

// Claim registers a law number, returning false if it was already claimed.
// First occurrence wins.
func (r *Registry) Claim(lawNumber, docID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.nums[lawNumber]; ok {
		return false
	}
	r.nums[lawNumber] = docID
	return true
}

// Release withdraws a claim whose record was never accepted, so a later
// occurrence of the law number can still win. Only the claim holder may
// release.
func (r *Registry) Release(lawNumber, docID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.nums[lawNumber]; ok && id == docID {
		delete(r.nums, lawNumber)
	}
}

// Len returns the number of claimed law numbers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.nums)
}
