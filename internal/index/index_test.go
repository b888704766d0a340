package index

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmbedder struct {
	vectors map[string][]float32
	err     error
}

func (f *fakeEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, ok := f.vectors[text]
		if !ok {
			return nil, fmt.Errorf("no vector for %q", text)
		}
		out[i] = v
	}
	return out, nil
}

func newTestIndex(t *testing.T, embedder Embedder) *Index {
	t.Helper()
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	return New(t.TempDir(), embedder, log)
}

func entry(content, docID string, page, idx int, vector []float32) Entry {
	return Entry{
		Content: content,
		Meta:    Metadata{DocumentID: docID, PageNumber: page, ChunkIndex: idx},
		Vector:  vector,
	}
}

func TestBuildAndSearchReflexivity(t *testing.T) {
	ix := newTestIndex(t, &fakeEmbedder{})

	entries := []Entry{
		entry("free speech", "doc", 1, 0, []float32{1, 0, 0}),
		entry("due process", "doc", 1, 1, []float32{0, 1, 0}),
		entry("federal structure", "doc", 2, 0, []float32{0, 0, 1}),
	}
	require.NoError(t, ix.Build(context.Background(), entries))

	for _, e := range entries {
		results := ix.Search(e.Vector, 1)
		require.Len(t, results, 1)
		assert.Equal(t, e.Meta, results[0].Meta)
		assert.Equal(t, e.Content, results[0].Content)
		assert.InDelta(t, 1.0, float64(results[0].Score), 1e-5)
	}
}

func TestSearchFewerEntriesThanK(t *testing.T) {
	ix := newTestIndex(t, &fakeEmbedder{})

	require.NoError(t, ix.Build(context.Background(), []Entry{
		entry("a", "doc", 1, 0, []float32{1, 0}),
		entry("b", "doc", 1, 1, []float32{0.6, 0.8}),
	}))

	results := ix.Search([]float32{1, 0}, 5)
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].Content)
	assert.Equal(t, "b", results[1].Content)
	assert.GreaterOrEqual(t, results[0].Score, results[1].Score)
}

func TestSearchEmptyIndex(t *testing.T) {
	ix := newTestIndex(t, &fakeEmbedder{})
	assert.Empty(t, ix.Search([]float32{1, 0}, 3))

	require.NoError(t, ix.Build(context.Background(), nil))
	assert.Empty(t, ix.Search([]float32{1, 0}, 3))
}

func TestBuildEmbedsMissingVectors(t *testing.T) {
	emb := &fakeEmbedder{vectors: map[string][]float32{
		"alpha": {1, 0},
		"beta":  {0, 1},
	}}
	ix := newTestIndex(t, emb)

	require.NoError(t, ix.Build(context.Background(), []Entry{
		entry("alpha", "doc", 1, 0, nil),
		entry("beta", "doc", 1, 1, nil),
	}))

	results := ix.Search([]float32{0, 1}, 1)
	require.Len(t, results, 1)
	assert.Equal(t, "beta", results[0].Content)
}

func TestBuildErrorPublishesNothing(t *testing.T) {
	ix := newTestIndex(t, &fakeEmbedder{err: errors.New("embedding backend down")})

	err := ix.Build(context.Background(), []Entry{entry("a", "doc", 1, 0, nil)})

	var buildErr *BuildError
	require.ErrorAs(t, err, &buildErr)
	assert.False(t, ix.Loaded())

	fresh := New(ix.dir, &fakeEmbedder{}, logrus.New())
	assert.ErrorIs(t, fresh.Load(), ErrSnapshotMissing)
}

func TestAppendBuildsWhenEmpty(t *testing.T) {
	ix := newTestIndex(t, &fakeEmbedder{})

	require.NoError(t, ix.Append(context.Background(), []Entry{
		entry("a", "doc", 1, 0, []float32{1, 0}),
	}))
	assert.Equal(t, 1, ix.Len())
}

func TestAppendExtendsLoadedIndex(t *testing.T) {
	ix := newTestIndex(t, &fakeEmbedder{})
	ctx := context.Background()

	require.NoError(t, ix.Build(ctx, []Entry{entry("a", "doc", 1, 0, []float32{1, 0})}))
	require.NoError(t, ix.Append(ctx, []Entry{entry("b", "doc", 1, 1, []float32{0, 1})}))

	assert.Equal(t, 2, ix.Len())
	results := ix.Search([]float32{0, 1}, 1)
	require.Len(t, results, 1)
	assert.Equal(t, "b", results[0].Content)
}

func TestSnapshotRoundTrip(t *testing.T) {
	dir := t.TempDir()
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	ix := New(dir, &fakeEmbedder{}, log)
	require.NoError(t, ix.Build(context.Background(), []Entry{
		entry("persisted", "doc", 3, 2, []float32{0.6, 0.8}),
	}))

	reloaded := New(dir, &fakeEmbedder{}, log)
	require.NoError(t, reloaded.Load())
	require.Equal(t, 1, reloaded.Len())

	results := reloaded.Search([]float32{0.6, 0.8}, 1)
	require.Len(t, results, 1)
	assert.Equal(t, "persisted", results[0].Content)
	assert.Equal(t, Metadata{DocumentID: "doc", PageNumber: 3, ChunkIndex: 2}, results[0].Meta)
}

func TestLoadMissingSnapshot(t *testing.T) {
	ix := newTestIndex(t, &fakeEmbedder{})
	assert.ErrorIs(t, ix.Load(), ErrSnapshotMissing)
}

func TestRebuildAndSwapUnderConcurrentSearch(t *testing.T) {
	ix := newTestIndex(t, &fakeEmbedder{})
	ctx := context.Background()

	require.NoError(t, ix.Build(ctx, []Entry{entry("old", "doc", 1, 0, []float32{1, 0})}))

	var wg sync.WaitGroup
	stop := make(chan struct{})
	torn := make(chan string, 1)

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				results := ix.Search([]float32{1, 0}, 1)
				if len(results) != 1 {
					continue
				}
				if c := results[0].Content; c != "old" && c != "new" {
					select {
					case torn <- c:
					default:
					}
					return
				}
			}
		}()
	}

	for i := 0; i < 50; i++ {
		content := "old"
		if i%2 == 1 {
			content = "new"
		}
		require.NoError(t, ix.RebuildAndSwap(ctx, []Entry{
			entry(content, "doc", 1, 0, []float32{1, 0}),
		}))
	}
	close(stop)
	wg.Wait()

	select {
	case c := <-torn:
		t.Fatalf("search observed a torn snapshot: %q", c)
	default:
	}
}

func TestConcurrentPublishersStayConsistent(t *testing.T) {
	dir := t.TempDir()
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	ix := New(dir, &fakeEmbedder{}, log)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				content := fmt.Sprintf("writer-%d-%d", i, j)
				assert.NoError(t, ix.RebuildAndSwap(ctx, []Entry{
					entry(content, "doc", 1, 0, []float32{1, 0}),
				}))
			}
		}(i)
	}
	wg.Wait()

	// The on-disk pointer and the in-memory snapshot must name the same
	// state, so a restart serves exactly what the live index served.
	live := ix.Search([]float32{1, 0}, 1)
	require.Len(t, live, 1)

	reloaded := New(dir, &fakeEmbedder{}, log)
	require.NoError(t, reloaded.Load())
	results := reloaded.Search([]float32{1, 0}, 1)
	require.Len(t, results, 1)
	assert.Equal(t, live[0].Content, results[0].Content)

	// Losing snapshot directories are swept; only the current one survives.
	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	var dirs []string
	for _, f := range files {
		if f.IsDir() {
			dirs = append(dirs, f.Name())
		}
	}
	require.Len(t, dirs, 1)

	name, err := readCurrent(dir)
	require.NoError(t, err)
	assert.Equal(t, name, dirs[0])
}

func TestRebuildFailureKeepsPreviousSnapshot(t *testing.T) {
	dir := t.TempDir()
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	ix := New(dir, &fakeEmbedder{}, log)
	ctx := context.Background()
	require.NoError(t, ix.Build(ctx, []Entry{entry("stable", "doc", 1, 0, []float32{1, 0})}))

	ix.embedder = &fakeEmbedder{err: errors.New("backend down")}
	err := ix.RebuildAndSwap(ctx, []Entry{entry("next", "doc", 1, 0, nil)})

	var buildErr *BuildError
	require.ErrorAs(t, err, &buildErr)

	results := ix.Search([]float32{1, 0}, 1)
	require.Len(t, results, 1)
	assert.Equal(t, "stable", results[0].Content)

	reloaded := New(dir, &fakeEmbedder{}, log)
	require.NoError(t, reloaded.Load())
	results = reloaded.Search([]float32{1, 0}, 1)
	require.Len(t, results, 1)
	assert.Equal(t, "stable", results[0].Content)
}
