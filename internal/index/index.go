package index

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
)

// Metadata mirrors the chunk position key. The index holds it as a
// reference only; the chunk store owns the rows it points at.
type Metadata struct {
	DocumentID string `json:"document_id"`
	PageNumber int    `json:"page_number"`
	ChunkIndex int    `json:"chunk_index"`
}

// Entry is one unit of indexable content. Vector may carry a precomputed
// embedding; entries without one are embedded during Build.
type Entry struct {
	Content string
	Meta    Metadata
	Vector  []float32
}

// Result is a single nearest-neighbor match, best first.
type Result struct {
	Content string   `json:"content"`
	Meta    Metadata `json:"metadata"`
	Score   float32  `json:"score"`
}

// Embedder converts text into fixed-length vectors.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// BuildError reports a failed index construction. No partial snapshot is
// ever published when Build fails.
type BuildError struct {
	Err error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("index build failed: %v", e.Err)
}

func (e *BuildError) Unwrap() error { return e.Err }

// Index serves similarity search over an immutable snapshot. The snapshot
// pointer is the only shared mutable state: writers build unlocked against a
// fresh snapshot directory and hold the lock just to swap the pointer, so a
// slow rebuild never stalls an in-flight search.
type Index struct {
	mu       sync.RWMutex
	snap     *snapshot
	pubMu    sync.Mutex
	dir      string
	embedder Embedder
	log      *logrus.Entry
}

func New(dir string, embedder Embedder, log *logrus.Logger) *Index {
	return &Index{
		dir:      dir,
		embedder: embedder,
		log:      log.WithField("component", "index"),
	}
}

// Loaded reports whether a snapshot is installed and servable.
func (ix *Index) Loaded() bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.snap != nil
}

// Len returns the number of indexed entries.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if ix.snap == nil {
		return 0
	}
	return len(ix.snap.Records)
}

// Load installs the persisted snapshot, if any. Returns ErrSnapshotMissing
// when no complete snapshot exists at the configured directory.
func (ix *Index) Load() error {
	snap, err := loadSnapshot(ix.dir)
	if err != nil {
		return err
	}

	ix.mu.Lock()
	ix.snap = snap
	ix.mu.Unlock()

	ix.log.WithField("entries", len(snap.Records)).Info("index snapshot loaded")
	return nil
}

// Build constructs a fresh index from the given entries, persists it and
// installs it. Embedding failure for any entry aborts the whole build.
func (ix *Index) Build(ctx context.Context, entries []Entry) error {
	snap, err := ix.buildSnapshot(ctx, entries)
	if err != nil {
		return &BuildError{Err: err}
	}
	return ix.publish(snap)
}

// Append adds entries to the currently loaded index and persists the result.
// If no index is loaded it behaves as Build. Entries are never mutated in
// place; Append publishes a fresh snapshot holding old plus new entries.
func (ix *Index) Append(ctx context.Context, entries []Entry) error {
	ix.mu.RLock()
	current := ix.snap
	ix.mu.RUnlock()

	if current == nil {
		return ix.Build(ctx, entries)
	}

	next, err := ix.buildSnapshot(ctx, entries)
	if err != nil {
		return &BuildError{Err: err}
	}

	merged := &snapshot{
		Vectors: append(append([][]float32{}, current.Vectors...), next.Vectors...),
		Records: append(append([]Record{}, current.Records...), next.Records...),
	}
	return ix.publish(merged)
}

// RebuildAndSwap builds a complete new snapshot at a temporary location and
// atomically replaces the persisted one. Until the final swap the previous
// snapshot stays fully servable; on any failure before the swap the
// temporary location is discarded and readers are unaffected.
func (ix *Index) RebuildAndSwap(ctx context.Context, entries []Entry) error {
	snap, err := ix.buildSnapshot(ctx, entries)
	if err != nil {
		return &BuildError{Err: err}
	}
	return ix.publish(snap)
}

// Search returns up to k nearest entries by cosine similarity, best match
// first. An empty or absent index yields an empty result set, not an error.
func (ix *Index) Search(vector []float32, k int) []Result {
	ix.mu.RLock()
	snap := ix.snap
	ix.mu.RUnlock()

	if snap == nil || len(snap.Records) == 0 || k <= 0 {
		return nil
	}

	query := normalize(vector)

	scores := make([]float32, len(snap.Vectors))
	for i, v := range snap.Vectors {
		scores[i] = dot(v, query)
	}

	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	if k > len(order) {
		k = len(order)
	}
	results := make([]Result, 0, k)
	for _, i := range order[:k] {
		rec := snap.Records[i]
		results = append(results, Result{
			Content: rec.Content,
			Meta:    rec.Meta,
			Score:   scores[i],
		})
	}
	return results
}

// buildSnapshot embeds entries as needed and assembles an immutable
// snapshot. Runs without holding the index lock.
func (ix *Index) buildSnapshot(ctx context.Context, entries []Entry) (*snapshot, error) {
	var missing []int
	var texts []string
	for i, e := range entries {
		if len(e.Vector) == 0 {
			missing = append(missing, i)
			texts = append(texts, e.Content)
		}
	}

	vectors := make([][]float32, len(entries))
	for i, e := range entries {
		vectors[i] = e.Vector
	}

	if len(texts) > 0 {
		embedded, err := ix.embedder.EmbedTexts(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embedding %d entries: %w", len(texts), err)
		}
		if len(embedded) != len(texts) {
			return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(embedded), len(texts))
		}
		for j, i := range missing {
			vectors[i] = embedded[j]
		}
	}

	snap := &snapshot{
		Vectors: make([][]float32, len(entries)),
		Records: make([]Record, len(entries)),
	}
	for i, e := range entries {
		snap.Vectors[i] = normalize(vectors[i])
		snap.Records[i] = Record{Content: e.Content, Meta: e.Meta}
	}
	return snap, nil
}

// publish persists snap and installs it as current. The write happens to a
// fresh snapshot directory; only the CURRENT pointer replacement and the
// in-memory pointer swap are visible to readers, both atomic. Publishers are
// serialized so the on-disk pointer and the in-memory pointer always name
// the same snapshot and the losing writer's directory is always swept.
func (ix *Index) publish(snap *snapshot) error {
	ix.pubMu.Lock()
	defer ix.pubMu.Unlock()

	if err := writeSnapshot(ix.dir, snap); err != nil {
		return err
	}

	ix.mu.Lock()
	ix.snap = snap
	ix.mu.Unlock()

	ix.log.WithField("entries", len(snap.Records)).Info("index snapshot published")
	return nil
}

func dot(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float32
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}

func normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	norm := float32(math.Sqrt(sum))
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = x / norm
	}
	return out
}
