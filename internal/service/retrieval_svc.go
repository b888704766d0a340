package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/Advik16/LegalAI/internal/index"
)

// DefaultTopK keeps the pipeline on single-top-chunk grounding; answers are
// generated from one chunk, not a fusion of several.
const DefaultTopK = 1

// QueryEmbedder embeds a question into the index's vector space.
type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Searcher is the read side of the vector index.
type Searcher interface {
	Search(vector []float32, k int) []index.Result
	Loaded() bool
}

// Match is a ranked retrieval result.
type Match struct {
	Content string         `json:"content"`
	Meta    index.Metadata `json:"metadata"`
	Score   float32        `json:"score"`
}

// RetrievalService embeds a question and returns the nearest chunks in the
// index's similarity order, unchanged. No secondary re-ranking is applied.
type RetrievalService struct {
	embedder QueryEmbedder
	index    Searcher
	defaultK int
	log      *logrus.Entry
}

// NewRetrievalService configures retrieval; defaultK applies to requests
// that do not name a top_k, falling back to DefaultTopK when unset.
func NewRetrievalService(embedder QueryEmbedder, idx Searcher, defaultK int, log *logrus.Logger) *RetrievalService {
	if defaultK <= 0 {
		defaultK = DefaultTopK
	}
	return &RetrievalService{
		embedder: embedder,
		index:    idx,
		defaultK: defaultK,
		log:      log.WithField("component", "retrieval"),
	}
}

func (s *RetrievalService) Retrieve(ctx context.Context, question string, k int) ([]Match, error) {
	if k <= 0 {
		k = s.defaultK
	}

	if !s.index.Loaded() {
		return nil, &RetrievalError{Err: errors.New("no index snapshot loaded")}
	}

	vector, err := s.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return nil, &RetrievalError{Err: fmt.Errorf("embedding question: %w", err)}
	}

	results := s.index.Search(vector, k)
	s.log.WithFields(logrus.Fields{
		"top_k":   k,
		"matches": len(results),
	}).Debug("semantic search complete")

	matches := make([]Match, len(results))
	for i, r := range results {
		matches[i] = Match{Content: r.Content, Meta: r.Meta, Score: r.Score}
	}
	return matches, nil
}
