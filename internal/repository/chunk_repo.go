package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/Advik16/LegalAI/internal/model"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("record not found")

type ChunkRepository struct {
	db *gorm.DB
}

func NewChunkRepository(db *gorm.DB) *ChunkRepository {
	return &ChunkRepository{db: db}
}

func (r *ChunkRepository) CreateBatch(ctx context.Context, chunks []model.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&chunks).Error
}

// ReplaceDocument deletes every chunk of a document and inserts the new set
// in one transaction. Documents are never partially updated.
func (r *ChunkRepository) ReplaceDocument(ctx context.Context, documentID string, chunks []model.Chunk) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("document_id = ?", documentID).Delete(&model.Chunk{}).Error; err != nil {
			return err
		}
		if len(chunks) == 0 {
			return nil
		}
		return tx.Create(&chunks).Error
	})
}

func (r *ChunkRepository) FindByID(ctx context.Context, documentID, chunkID string) (*model.Chunk, error) {
	var chunk model.Chunk
	err := r.db.WithContext(ctx).
		Where("document_id = ? AND chunk_id = ?", documentID, chunkID).
		First(&chunk).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &chunk, nil
}

// FindByPosition resolves the (document_id, page_number, chunk_index) lookup
// key attached to an index match back to the durable row.
func (r *ChunkRepository) FindByPosition(ctx context.Context, documentID string, pageNumber, chunkIndex int) (*model.Chunk, error) {
	var chunk model.Chunk
	err := r.db.WithContext(ctx).
		Where("document_id = ? AND page_number = ? AND chunk_index = ?", documentID, pageNumber, chunkIndex).
		First(&chunk).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &chunk, nil
}

func (r *ChunkRepository) ListAll(ctx context.Context) ([]model.Chunk, error) {
	var chunks []model.Chunk
	err := r.db.WithContext(ctx).
		Order("document_id, page_number, chunk_index").
		Find(&chunks).Error
	return chunks, err
}

func (r *ChunkRepository) CountAll(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Chunk{}).Count(&count).Error
	return count, err
}

func (r *ChunkRepository) DeleteByDocumentID(ctx context.Context, documentID string) error {
	return r.db.WithContext(ctx).Where("document_id = ?", documentID).Delete(&model.Chunk{}).Error
}
