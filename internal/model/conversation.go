package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Turn is a single question/answer pair.
type Turn struct {
	Query    string `json:"query"`
	Response string `json:"response"`
}

// Messages holds the live turn plus the log of completed turns, oldest
// first. History never contains the live Current turn; Push moves the old
// Current into History before a new turn is installed.
type Messages struct {
	Current Turn   `json:"current"`
	History []Turn `json:"history"`
}

// Push archives the current turn and installs the new one.
func (m *Messages) Push(next Turn) {
	m.History = append(m.History, m.Current)
	m.Current = next
}

func (m Messages) Value() (driver.Value, error) {
	return json.Marshal(m)
}

func (m *Messages) Scan(value interface{}) error {
	if value == nil {
		*m = Messages{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("unsupported messages column type %T", value)
	}
}

// Conversation anchors a multi-turn exchange to a single chunk.
type Conversation struct {
	ConversationID string    `gorm:"size:64;primaryKey" json:"conversation_id"`
	UserID         string    `gorm:"size:64;index" json:"user_id"`
	DocumentID     string    `gorm:"size:64;not null" json:"document_id"`
	ChunkID        string    `gorm:"size:64;not null" json:"chunk_id"`
	Messages       Messages  `gorm:"type:jsonb" json:"messages"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (Conversation) TableName() string {
	return "conversations"
}
