package service

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/Advik16/LegalAI/internal/model"
	"github.com/Advik16/LegalAI/internal/repository"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	return log
}

// fakeChunkStore is an in-memory ChunkStore.
type fakeChunkStore struct {
	mu         sync.Mutex
	rows       []model.Chunk
	replaceErr error
	listErr    error
}

func (f *fakeChunkStore) FindByID(_ context.Context, documentID, chunkID string) (*model.Chunk, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows {
		if r.DocumentID == documentID && r.ChunkID == chunkID {
			row := r
			return &row, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeChunkStore) FindByPosition(_ context.Context, documentID string, pageNumber, chunkIndex int) (*model.Chunk, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows {
		if r.DocumentID == documentID && r.PageNumber == pageNumber && r.ChunkIndex == chunkIndex {
			row := r
			return &row, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeChunkStore) ReplaceDocument(_ context.Context, documentID string, chunks []model.Chunk) error {
	if f.replaceErr != nil {
		return f.replaceErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.rows[:0]
	for _, r := range f.rows {
		if r.DocumentID != documentID {
			kept = append(kept, r)
		}
	}
	f.rows = append(kept, chunks...)
	return nil
}

func (f *fakeChunkStore) ListAll(_ context.Context) ([]model.Chunk, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Chunk, len(f.rows))
	copy(out, f.rows)
	return out, nil
}

func (f *fakeChunkStore) CountAll(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.rows)), nil
}

// fakeConversationStore is an in-memory ConversationStore.
type fakeConversationStore struct {
	mu        sync.Mutex
	rows      map[string]model.Conversation
	createErr error
	updateErr error
}

func newFakeConversationStore() *fakeConversationStore {
	return &fakeConversationStore{rows: map[string]model.Conversation{}}
}

func (f *fakeConversationStore) Create(_ context.Context, conv *model.Conversation) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[conv.ConversationID] = copyConversation(conv)
	return nil
}

func (f *fakeConversationStore) FindByID(_ context.Context, conversationID string) (*model.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[conversationID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := copyConversation(&row)
	return &out, nil
}

func (f *fakeConversationStore) Update(_ context.Context, conv *model.Conversation) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[conv.ConversationID] = copyConversation(conv)
	return nil
}

func copyConversation(conv *model.Conversation) model.Conversation {
	out := *conv
	out.Messages.History = append([]model.Turn(nil), conv.Messages.History...)
	return out
}
