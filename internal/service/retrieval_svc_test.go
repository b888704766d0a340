package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Advik16/LegalAI/internal/index"
)

type fakeQueryEmbedder struct {
	vector []float32
	err    error
}

func (f *fakeQueryEmbedder) EmbedQuery(context.Context, string) ([]float32, error) {
	return f.vector, f.err
}

type fakeSearcher struct {
	results []index.Result
	loaded  bool
	gotK    int
	gotVec  []float32
}

func (f *fakeSearcher) Search(vector []float32, k int) []index.Result {
	f.gotVec = vector
	f.gotK = k
	return f.results
}

func (f *fakeSearcher) Loaded() bool { return f.loaded }

func TestRetrieveDefaultsTopK(t *testing.T) {
	searcher := &fakeSearcher{loaded: true}
	svc := NewRetrievalService(&fakeQueryEmbedder{vector: []float32{1, 0}}, searcher, 0, testLogger())

	_, err := svc.Retrieve(context.Background(), "question", 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultTopK, searcher.gotK)

	_, err = svc.Retrieve(context.Background(), "question", -3)
	require.NoError(t, err)
	assert.Equal(t, DefaultTopK, searcher.gotK)
}

func TestRetrieveConfiguredDefaultTopK(t *testing.T) {
	searcher := &fakeSearcher{loaded: true}
	svc := NewRetrievalService(&fakeQueryEmbedder{vector: []float32{1, 0}}, searcher, 3, testLogger())

	// An unset request k falls back to the configured default.
	_, err := svc.Retrieve(context.Background(), "question", 0)
	require.NoError(t, err)
	assert.Equal(t, 3, searcher.gotK)

	// An explicit request k still wins.
	_, err = svc.Retrieve(context.Background(), "question", 5)
	require.NoError(t, err)
	assert.Equal(t, 5, searcher.gotK)
}

func TestRetrieveIndexNotLoaded(t *testing.T) {
	svc := NewRetrievalService(&fakeQueryEmbedder{vector: []float32{1, 0}}, &fakeSearcher{loaded: false}, 1, testLogger())

	_, err := svc.Retrieve(context.Background(), "question", 1)

	var rerr *RetrievalError
	require.ErrorAs(t, err, &rerr)
}

func TestRetrieveEmbedFailure(t *testing.T) {
	embedder := &fakeQueryEmbedder{err: errors.New("backend down")}
	svc := NewRetrievalService(embedder, &fakeSearcher{loaded: true}, 1, testLogger())

	_, err := svc.Retrieve(context.Background(), "question", 1)

	var rerr *RetrievalError
	require.ErrorAs(t, err, &rerr)
	assert.ErrorIs(t, err, embedder.err)
}

func TestRetrievePreservesIndexOrder(t *testing.T) {
	searcher := &fakeSearcher{
		loaded: true,
		results: []index.Result{
			{Content: "best", Meta: index.Metadata{DocumentID: "d", PageNumber: 1, ChunkIndex: 0}, Score: 0.9},
			{Content: "second", Meta: index.Metadata{DocumentID: "d", PageNumber: 1, ChunkIndex: 1}, Score: 0.7},
		},
	}
	svc := NewRetrievalService(&fakeQueryEmbedder{vector: []float32{1, 0}}, searcher, 1, testLogger())

	matches, err := svc.Retrieve(context.Background(), "question", 2)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "best", matches[0].Content)
	assert.Equal(t, float32(0.9), matches[0].Score)
	assert.Equal(t, "second", matches[1].Content)
	assert.Equal(t, []float32{1, 0}, searcher.gotVec)
}
