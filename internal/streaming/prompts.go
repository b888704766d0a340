package streaming

import (
	"fmt"

	"github.com/Advik16/LegalAI/internal/model"
	"github.com/Advik16/LegalAI/internal/service"
)

const consultantPrompt = "You are an expert law consultant. Answer the given question using only the " +
	"following context; do not draw on other sources.\n\nContext:\n%s"

// answerMessages builds the single-turn prompt grounding the answer on one
// chunk.
func answerMessages(chunkContent, question string) []service.ChatMessage {
	return []service.ChatMessage{
		{Role: service.RoleSystem, Content: fmt.Sprintf(consultantPrompt, chunkContent)},
		{Role: service.RoleUser, Content: question},
	}
}

// continuationMessages replays a conversation's history and current turn as
// chat messages before the new question, keeping the same chunk grounding.
func continuationMessages(chunkContent string, msgs model.Messages, question string) []service.ChatMessage {
	out := []service.ChatMessage{
		{Role: service.RoleSystem, Content: fmt.Sprintf(consultantPrompt, chunkContent)},
	}
	for _, turn := range msgs.History {
		out = append(out,
			service.ChatMessage{Role: service.RoleUser, Content: turn.Query},
			service.ChatMessage{Role: service.RoleAssistant, Content: turn.Response},
		)
	}
	out = append(out,
		service.ChatMessage{Role: service.RoleUser, Content: msgs.Current.Query},
		service.ChatMessage{Role: service.RoleAssistant, Content: msgs.Current.Response},
		service.ChatMessage{Role: service.RoleUser, Content: question},
	)
	return out
}
