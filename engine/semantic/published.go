package semantic

import (
	"sync/atomic"

	"github.com/LexiconAI/lexicon-mvp/engine/domain"
)

// Snapshot is one complete, immutable corpus version: the searchable index
// plus the document table it was built from. A snapshot is never mutated
// after publication.
type Snapshot struct {
	Version string
	Index   Searcher
	Docs    map[string]domain.LawDocument
	Size    int
}

// Empty reports whether the snapshot holds no documents.
func (s *Snapshot) Empty() bool { return s == nil || s.Size == 0 }

// Published holds the active corpus snapshot. A rebuild constructs a fresh
// snapshot off to the side and swaps it in atomically, so in-flight queries
// see the old snapshot entirely or the new one entirely, never a mix.
type Published struct {
	ptr atomic.Pointer[Snapshot]
}

// NewPublished creates an empty holder; Load returns nil until the first
// Swap.
func NewPublished() *Published { return &Published{} }

// Load returns the active snapshot, or nil if none has been published.
func (p *Published) Load() *Snapshot { return p.ptr.Load() }

// Swap publishes a fully built snapshot and returns the previous one.
func (p *Published) Swap(s *Snapshot) *Snapshot { return p.ptr.Swap(s) }
