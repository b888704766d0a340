package model

import (
	"time"

	"github.com/pgvector/pgvector-go"
)

// Chunk is the smallest retrievable unit of document text. Identity is
// (document_id, chunk_id); (document_id, page_number, chunk_index) is the
// lookup key used to resolve an index match back to a durable row.
type Chunk struct {
	DocumentID string          `gorm:"size:64;primaryKey;uniqueIndex:idx_chunk_position,priority:1" json:"document_id"`
	ChunkID    string          `gorm:"size:64;primaryKey" json:"chunk_id"`
	Title      string          `gorm:"size:255" json:"title"`
	PageNumber int             `gorm:"not null;uniqueIndex:idx_chunk_position,priority:2" json:"page_number"`
	ChunkIndex int             `gorm:"not null;uniqueIndex:idx_chunk_position,priority:3" json:"chunk_index"`
	Content    string          `gorm:"type:text;not null" json:"content"`
	Embedding  pgvector.Vector `gorm:"type:vector(1536)" json:"-"`
	CreatedAt  time.Time       `json:"created_at"`
}

func (Chunk) TableName() string {
	return "chunks"
}
