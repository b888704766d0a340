package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Advik16/LegalAI/internal/model"
	"github.com/Advik16/LegalAI/internal/repository"
)

// ConversationStore is the slice of the conversation repository the service
// consumes.
type ConversationStore interface {
	Create(ctx context.Context, conv *model.Conversation) error
	FindByID(ctx context.Context, conversationID string) (*model.Conversation, error)
	Update(ctx context.Context, conv *model.Conversation) error
}

// Anchor is everything needed to continue a conversation: the chunk it is
// grounded on plus its message state.
type Anchor struct {
	DocumentID string
	ChunkID    string
	Content    string
	Messages   model.Messages
}

// ConversationService owns the single-slot-plus-log conversation model.
// Extending a conversation is a read-modify-write of its messages; a
// per-conversation mutex keeps concurrent extensions from interleaving and
// silently dropping a history entry. Locks are reference counted and
// released once the last holder finishes, so the table does not grow with
// the number of conversations ever touched.
type ConversationService struct {
	store   ConversationStore
	chunks  ChunkStore
	locksMu sync.Mutex
	locks   map[string]*convLock
	log     *logrus.Entry
}

type convLock struct {
	mu   sync.Mutex
	refs int
}

func NewConversationService(store ConversationStore, chunks ChunkStore, log *logrus.Logger) *ConversationService {
	return &ConversationService{
		store:  store,
		chunks: chunks,
		locks:  map[string]*convLock{},
		log:    log.WithField("component", "conversations"),
	}
}

// Start creates a conversation anchored to a chunk, with the first turn as
// current and an empty history.
func (s *ConversationService) Start(ctx context.Context, userID, documentID, chunkID, query, response string) (string, error) {
	now := time.Now()
	conv := &model.Conversation{
		ConversationID: uuid.New().String(),
		UserID:         userID,
		DocumentID:     documentID,
		ChunkID:        chunkID,
		Messages: model.Messages{
			Current: model.Turn{Query: query, Response: response},
			History: []model.Turn{},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Create(ctx, conv); err != nil {
		return "", &PersistenceError{Err: err}
	}
	return conv.ConversationID, nil
}

// Extend pushes the existing current turn onto history and installs the new
// one. Fails with ErrConversationNotFound if the conversation is absent.
func (s *ConversationService) Extend(ctx context.Context, conversationID, query, response string) error {
	lock := s.acquire(conversationID)
	lock.mu.Lock()
	defer func() {
		lock.mu.Unlock()
		s.release(conversationID, lock)
	}()

	conv, err := s.store.FindByID(ctx, conversationID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrConversationNotFound
	}
	if err != nil {
		return err
	}

	conv.Messages.Push(model.Turn{Query: query, Response: response})
	conv.UpdatedAt = time.Now()
	if err := s.store.Update(ctx, conv); err != nil {
		return &PersistenceError{Err: err}
	}
	return nil
}

// Get fetches a conversation row.
func (s *ConversationService) Get(ctx context.Context, conversationID string) (*model.Conversation, error) {
	conv, err := s.store.FindByID(ctx, conversationID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrConversationNotFound
	}
	if err != nil {
		return nil, err
	}
	return conv, nil
}

// Anchor loads the conversation and the content of its anchored chunk.
// Fails with ErrChunkContentMissing when the chunk is gone or empty.
func (s *ConversationService) Anchor(ctx context.Context, conversationID string) (*Anchor, error) {
	conv, err := s.Get(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	chunk, err := s.chunks.FindByID(ctx, conv.DocumentID, conv.ChunkID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrChunkContentMissing
	}
	if err != nil {
		return nil, err
	}
	if chunk.Content == "" {
		return nil, ErrChunkContentMissing
	}

	return &Anchor{
		DocumentID: conv.DocumentID,
		ChunkID:    conv.ChunkID,
		Content:    chunk.Content,
		Messages:   conv.Messages,
	}, nil
}

func (s *ConversationService) acquire(conversationID string) *convLock {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	lock, ok := s.locks[conversationID]
	if !ok {
		lock = &convLock{}
		s.locks[conversationID] = lock
	}
	lock.refs++
	return lock
}

func (s *ConversationService) release(conversationID string, lock *convLock) {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	lock.refs--
	if lock.refs == 0 {
		delete(s.locks, conversationID)
	}
}
