package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"github.com/sirupsen/logrus"

	"github.com/Advik16/LegalAI/internal/chunker"
	"github.com/Advik16/LegalAI/internal/index"
	"github.com/Advik16/LegalAI/internal/model"
)

// BatchEmbedder embeds chunk contents at ingestion time.
type BatchEmbedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Indexer is the write side of the vector index.
type Indexer interface {
	Load() error
	Loaded() bool
	Build(ctx context.Context, entries []index.Entry) error
	RebuildAndSwap(ctx context.Context, entries []index.Entry) error
}

// IngestResult summarizes a completed document ingestion.
type IngestResult struct {
	DocumentID string `json:"document_id"`
	Chunks     int    `json:"chunks"`
}

// IngestService turns page text into chunk rows and keeps the vector index
// in sync with the chunk store. Re-ingesting a document_id replaces all of
// its chunks; there is no partial-document update.
type IngestService struct {
	chunks   ChunkStore
	embedder BatchEmbedder
	idx      Indexer
	splitter *chunker.Splitter
	log      *logrus.Entry
}

func NewIngestService(chunks ChunkStore, embedder BatchEmbedder, idx Indexer, splitter *chunker.Splitter, log *logrus.Logger) *IngestService {
	return &IngestService{
		chunks:   chunks,
		embedder: embedder,
		idx:      idx,
		splitter: splitter,
		log:      log.WithField("component", "ingest"),
	}
}

// IngestDocument chunks the pages, embeds every chunk, replaces the
// document's rows and rebuilds the index over the whole corpus. Embedding
// happens before any mutation, so a failed embedding call leaves both the
// store and the index untouched.
func (s *IngestService) IngestDocument(ctx context.Context, documentID, title string, pages []chunker.Page) (*IngestResult, error) {
	if documentID == "" {
		documentID = uuid.New().String()
	}

	pieces := s.splitter.SplitPages(pages)
	if len(pieces) == 0 {
		return nil, fmt.Errorf("document %s produced no chunks", documentID)
	}

	texts := make([]string, len(pieces))
	for i, p := range pieces {
		texts[i] = p.Content
	}
	vectors, err := s.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding %d chunks: %w", len(pieces), err)
	}
	if len(vectors) != len(pieces) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(pieces))
	}

	rows := make([]model.Chunk, len(pieces))
	for i, p := range pieces {
		rows[i] = model.Chunk{
			DocumentID: documentID,
			ChunkID:    uuid.New().String(),
			Title:      title,
			PageNumber: p.PageNumber,
			ChunkIndex: p.ChunkIndex,
			Content:    p.Content,
			Embedding:  pgvector.NewVector(vectors[i]),
		}
	}

	if err := s.chunks.ReplaceDocument(ctx, documentID, rows); err != nil {
		return nil, fmt.Errorf("replacing document chunks: %w", err)
	}

	all, err := s.chunks.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing chunks for reindex: %w", err)
	}
	if err := s.idx.RebuildAndSwap(ctx, entriesFromChunks(all)); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"document_id": documentID,
		"chunks":      len(rows),
		"corpus":      len(all),
	}).Info("document ingested and index swapped")

	return &IngestResult{DocumentID: documentID, Chunks: len(rows)}, nil
}

// EnsureIndex loads the persisted snapshot at startup, rebuilding it from
// the chunk store when it is absent. An empty store leaves the index
// unloaded; retrieval reports it unusable until a document is ingested.
func (s *IngestService) EnsureIndex(ctx context.Context) error {
	err := s.idx.Load()
	if err == nil {
		return nil
	}
	if !errors.Is(err, index.ErrSnapshotMissing) {
		return err
	}

	count, err := s.chunks.CountAll(ctx)
	if err != nil {
		return fmt.Errorf("counting chunks: %w", err)
	}
	if count == 0 {
		s.log.Info("no snapshot and no chunks; index stays empty until first ingest")
		return nil
	}

	all, err := s.chunks.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("listing chunks for rebuild: %w", err)
	}
	s.log.WithField("chunks", len(all)).Info("rebuilding index snapshot from chunk store")
	return s.idx.Build(ctx, entriesFromChunks(all))
}

// entriesFromChunks reuses the embeddings stored on the rows, so rebuilds
// from the store do not re-call the embedding API.
func entriesFromChunks(chunks []model.Chunk) []index.Entry {
	entries := make([]index.Entry, len(chunks))
	for i, c := range chunks {
		entries[i] = index.Entry{
			Content: c.Content,
			Meta: index.Metadata{
				DocumentID: c.DocumentID,
				PageNumber: c.PageNumber,
				ChunkIndex: c.ChunkIndex,
			},
			Vector: c.Embedding.Slice(),
		}
	}
	return entries
}
