package streaming

import "encoding/json"

// EventType identifies a streaming event.
type EventType string

const (
	EventTypeSource EventType = "source"
	EventTypeToken  EventType = "token"
	EventTypeError  EventType = "error"
	EventTypeFinal  EventType = "final"
	EventTypeDone   EventType = "done"
)

// DoneSentinel is the literal payload terminating every stream, success or
// failure. Consumers rely on it to detect end-of-stream unambiguously.
const DoneSentinel = "[DONE]"

// SourceMeta identifies the chunk an answer is grounded on.
type SourceMeta struct {
	PageNumber int    `json:"page_number"`
	ChunkIndex int    `json:"chunk_index"`
	DocumentID string `json:"document_id"`
}

// Final carries the accumulated response and resolved identifiers.
// ConversationID is empty when post-stream persistence failed; that failure
// never surfaces as a stream error.
type Final struct {
	FinalResponse  string `json:"final_response"`
	DocumentID     string `json:"document_id"`
	ChunkID        string `json:"chunk_id"`
	ConversationID string `json:"conversation_id,omitempty"`
}

// Event is one item of a response stream.
type Event struct {
	Type   EventType
	Source *SourceMeta
	Token  string
	Err    string
	Final  *Final
}

func NewSourceEvent(meta SourceMeta) Event {
	return Event{Type: EventTypeSource, Source: &meta}
}

func NewTokenEvent(token string) Event {
	return Event{Type: EventTypeToken, Token: token}
}

func NewErrorEvent(msg string) Event {
	return Event{Type: EventTypeError, Err: msg}
}

func NewFinalEvent(final Final) Event {
	return Event{Type: EventTypeFinal, Final: &final}
}

func NewDoneEvent() Event {
	return Event{Type: EventTypeDone}
}

// Payload renders the event's wire body. Every stream frame is written as
// `data: <payload>\n\n`; the done sentinel is literal, not JSON.
func (e Event) Payload() ([]byte, error) {
	switch e.Type {
	case EventTypeSource:
		return json.Marshal(map[string]*SourceMeta{"source": e.Source})
	case EventTypeToken:
		return json.Marshal(map[string]string{"token": e.Token})
	case EventTypeError:
		return json.Marshal(map[string]string{"error": e.Err})
	case EventTypeFinal:
		return json.Marshal(e.Final)
	case EventTypeDone:
		return []byte(DoneSentinel), nil
	default:
		return json.Marshal(map[string]string{})
	}
}
