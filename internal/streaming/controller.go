package streaming

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Advik16/LegalAI/internal/service"
)

// state tracks a request through the answer pipeline.
type state string

const (
	stateStarted         state = "started"
	stateStreaming       state = "streaming"
	stateResolvingSource state = "resolving_source"
	statePersisting      state = "persisting"
	stateDone            state = "done"
	stateError           state = "error"
)

// SourceResolver maps retrieved chunk metadata to a durable chunk_id.
type SourceResolver interface {
	ResolveSource(ctx context.Context, documentID string, pageNumber, chunkIndex int) (string, error)
}

// Conversations is the conversation state machine the controller checkpoints
// into once a stream completes.
type Conversations interface {
	Start(ctx context.Context, userID, documentID, chunkID, query, response string) (string, error)
	Extend(ctx context.Context, conversationID, query, response string) error
	Anchor(ctx context.Context, conversationID string) (*service.Anchor, error)
}

// AnswerRequest is a new question grounded on a retrieved top match.
type AnswerRequest struct {
	UserID   string
	Question string
	Match    service.Match
}

// Controller drives token-by-token answer generation and reconciles the
// accumulated result with the conversation store. Every stream it produces
// terminates with the done sentinel, whatever happens in between.
type Controller struct {
	gen    service.Generator
	chunks SourceResolver
	convs  Conversations
	log    *logrus.Entry
}

func NewController(gen service.Generator, chunks SourceResolver, convs Conversations, log *logrus.Logger) *Controller {
	return &Controller{
		gen:    gen,
		chunks: chunks,
		convs:  convs,
		log:    log.WithField("component", "stream"),
	}
}

// Answer streams a grounded answer for a fresh question. The source event
// precedes any token; that ordering is part of the transport contract.
// Consumers must drain the channel until it closes.
func (c *Controller) Answer(ctx context.Context, req AnswerRequest) <-chan Event {
	events := make(chan Event)

	go func() {
		defer close(events)

		// Persistence outlives client cancellation: once tokens have been
		// accumulated the checkpoint runs to completion.
		persistCtx := context.WithoutCancel(ctx)

		meta := SourceMeta{
			PageNumber: req.Match.Meta.PageNumber,
			ChunkIndex: req.Match.Meta.ChunkIndex,
			DocumentID: req.Match.Meta.DocumentID,
		}
		c.transition(stateStarted)
		events <- NewSourceEvent(meta)

		full, ok := c.streamTokens(ctx, events, answerMessages(req.Match.Content, req.Question))
		if !ok {
			return
		}

		c.transition(stateResolvingSource)
		chunkID, err := c.chunks.ResolveSource(persistCtx, meta.DocumentID, meta.PageNumber, meta.ChunkIndex)
		if err != nil {
			c.fail(events, err)
			return
		}

		c.transition(statePersisting)
		conversationID, err := c.convs.Start(persistCtx, req.UserID, meta.DocumentID, chunkID, req.Question, full)
		if err != nil {
			c.log.WithError(err).Warn("conversation checkpoint failed; stream completes without conversation_id")
			conversationID = ""
		}

		c.transition(stateDone)
		events <- NewFinalEvent(Final{
			FinalResponse:  full,
			DocumentID:     meta.DocumentID,
			ChunkID:        chunkID,
			ConversationID: conversationID,
		})
		events <- NewDoneEvent()
	}()

	return events
}

// Continue streams the next turn of an existing conversation. No source
// event is emitted; the source is already fixed for an ongoing conversation.
func (c *Controller) Continue(ctx context.Context, conversationID, question string) <-chan Event {
	events := make(chan Event)

	go func() {
		defer close(events)

		persistCtx := context.WithoutCancel(ctx)

		c.transition(stateStarted)
		anchor, err := c.convs.Anchor(persistCtx, conversationID)
		if err != nil {
			c.fail(events, err)
			return
		}

		full, ok := c.streamTokens(ctx, events, continuationMessages(anchor.Content, anchor.Messages, question))
		if !ok {
			return
		}

		c.transition(statePersisting)
		finalID := conversationID
		if err := c.convs.Extend(persistCtx, conversationID, question, full); err != nil {
			c.log.WithError(err).Warn("conversation extension failed; stream completes without conversation_id")
			finalID = ""
		}

		c.transition(stateDone)
		events <- NewFinalEvent(Final{
			FinalResponse:  full,
			DocumentID:     anchor.DocumentID,
			ChunkID:        anchor.ChunkID,
			ConversationID: finalID,
		})
		events <- NewDoneEvent()
	}()

	return events
}

// streamTokens pulls tokens one at a time, forwarding each as its own event
// while accumulating the full response. Each send yields control so the
// transport can flush the token before the next one is requested. Returns
// ok=false if the stream already terminated with an error event.
func (c *Controller) streamTokens(ctx context.Context, events chan<- Event, messages []service.ChatMessage) (string, bool) {
	c.transition(stateStreaming)

	stream, err := c.gen.Stream(ctx, messages)
	if err != nil {
		c.fail(events, err)
		return "", false
	}

	var full strings.Builder
	for {
		if ctx.Err() != nil {
			// Caller disconnected: stop pulling, keep what was accumulated.
			c.log.Debug("caller cancelled; ceasing token pulls")
			break
		}
		token, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			c.fail(events, err)
			return "", false
		}
		full.WriteString(token)
		events <- NewTokenEvent(token)
	}
	return full.String(), true
}

// fail converts any pipeline error into a single error event and still
// terminates the stream cleanly with the sentinel.
func (c *Controller) fail(events chan<- Event, err error) {
	c.transition(stateError)
	c.log.WithError(err).Error("answer stream failed")
	events <- NewErrorEvent(err.Error())
	events <- NewDoneEvent()
}

func (c *Controller) transition(s state) {
	c.log.WithField("state", s).Debug("stream state")
}
