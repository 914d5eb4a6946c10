package semantic

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/LexiconAI/lexicon-mvp/engine/domain"
)

func snapshotOfSize(t *testing.T, version string, n int) *Snapshot {
	t.Helper()
	ix, err := NewMemoryIndex(2)
	if err != nil {
		t.Fatal(err)
	}
	docs := make(map[string]domain.LawDocument, n)
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("doc-%d", i)
		if err := ix.Insert(id, []float32{float32(i + 1), 1}); err != nil {
			t.Fatal(err)
		}
		docs[id] = domain.LawDocument{ID: id, LawNumber: fmt.Sprintf("%d", i+1)}
	}
	return &Snapshot{Version: version, Index: ix, Docs: docs, Size: n}
}

func TestPublishedLoadBeforeSwap(t *testing.T) {
	p := NewPublished()
	if p.Load() != nil {
		t.Fatal("expected nil before first swap")
	}
	var snap *Snapshot
	if !snap.Empty() {
		t.Fatal("nil snapshot should report empty")
	}
}

func TestPublishedSwapReturnsPrevious(t *testing.T) {
	p := NewPublished()
	first := snapshotOfSize(t, "v1", 1)
	second := snapshotOfSize(t, "v2", 2)

	if prev := p.Swap(first); prev != nil {
		t.Fatal("first swap should return nil")
	}
	if prev := p.Swap(second); prev != first {
		t.Fatal("second swap should return the first snapshot")
	}
	if got := p.Load(); got != second {
		t.Fatal("Load should see the latest snapshot")
	}
}

func TestPublishedConcurrentReadersSeeWholeSnapshots(t *testing.T) {
	p := NewPublished()
	p.Swap(snapshotOfSize(t, "v1", 3))

	var wg sync.WaitGroup
	stop := make(chan struct{})

	// Readers must always observe a consistent index/doc-table pair.
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				snap := p.Load()
				if snap.Empty() {
					continue
				}
				hits, err := snap.Index.Search(context.Background(), []float32{1, 1}, snap.Size)
				if err != nil {
					t.Errorf("Search: %v", err)
					return
				}
				for _, h := range hits {
					if _, ok := snap.Docs[h.DocID]; !ok {
						t.Errorf("snapshot %s: hit %s missing from doc table", snap.Version, h.DocID)
						return
					}
				}
			}
		}()
	}

	for i := 0; i < 50; i++ {
		p.Swap(snapshotOfSize(t, fmt.Sprintf("v%d", i), i%5+1))
	}
	close(stop)
	wg.Wait()
}
