package service

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/Advik16/LegalAI/internal/model"
	"github.com/Advik16/LegalAI/internal/repository"
)

// ChunkStore is the slice of the chunk repository the services consume.
type ChunkStore interface {
	FindByID(ctx context.Context, documentID, chunkID string) (*model.Chunk, error)
	FindByPosition(ctx context.Context, documentID string, pageNumber, chunkIndex int) (*model.Chunk, error)
	ReplaceDocument(ctx context.Context, documentID string, chunks []model.Chunk) error
	ListAll(ctx context.Context) ([]model.Chunk, error)
	CountAll(ctx context.Context) (int64, error)
}

// ChunkService resolves index matches back to durable chunk rows.
type ChunkService struct {
	chunks ChunkStore
	log    *logrus.Entry
}

func NewChunkService(chunks ChunkStore, log *logrus.Logger) *ChunkService {
	return &ChunkService{
		chunks: chunks,
		log:    log.WithField("component", "chunks"),
	}
}

// ResolveSource maps a retrieved (document_id, page_number, chunk_index) to
// the chunk_id of its durable row. Incomplete metadata or an absent row
// yields ErrSourceUnresolved.
func (s *ChunkService) ResolveSource(ctx context.Context, documentID string, pageNumber, chunkIndex int) (string, error) {
	if documentID == "" || pageNumber < 1 || chunkIndex < 0 {
		return "", ErrSourceUnresolved
	}

	chunk, err := s.chunks.FindByPosition(ctx, documentID, pageNumber, chunkIndex)
	if errors.Is(err, repository.ErrNotFound) {
		return "", ErrSourceUnresolved
	}
	if err != nil {
		return "", err
	}
	return chunk.ChunkID, nil
}
