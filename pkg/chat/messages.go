package chat

import (
	"fmt"

	"github.com/openai/openai-go"

	"github.com/minhyannv/chatgpt-cli-go/pkg/transcript"
)

// Message is the wire projection of a turn. It mirrors transcript.Turn but is
// kept separate: the wire shape is the upstream API's contract, the turn is
// the storage format.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// BuildMessages composes the outgoing message list. An empty history is
// seeded with the system prompt; otherwise every stored turn is projected in
// order. The new prompt is always last.
func BuildMessages(history transcript.Transcript, prompt, systemPrompt string) []Message {
	if len(history) == 0 {
		return []Message{
			{Role: string(transcript.RoleSystem), Content: systemPrompt},
			{Role: string(transcript.RoleUser), Content: prompt},
		}
	}

	out := make([]Message, 0, len(history)+1)
	for _, turn := range history {
		out = append(out, Message{Role: string(turn.Role), Content: turn.Content})
	}
	return append(out, Message{Role: string(transcript.RoleUser), Content: prompt})
}

func toOpenAIMessages(messages []Message) ([]openai.ChatCompletionMessageParamUnion, error) {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for i, msg := range messages {
		switch transcript.Role(msg.Role) {
		case transcript.RoleSystem:
			out = append(out, openai.SystemMessage(msg.Content))
		case transcript.RoleUser:
			out = append(out, openai.UserMessage(msg.Content))
		case transcript.RoleAssistant:
			out = append(out, openai.AssistantMessage(msg.Content))
		default:
			return nil, fmt.Errorf("invalid message role at index %d: %q", i, msg.Role)
		}
	}
	return out, nil
}
