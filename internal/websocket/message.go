package websocket

import (
	"encoding/json"

	"github.com/rs/zerolog/log"
)

// Message defines the structure for websocket messages.
type Message struct {
	Action  string      `json:"action"`
	Payload interface{} `json:"payload"`
}

// SubscribePayload selects the post a client wants events for.
type SubscribePayload struct {
	PostID string `json:"postId"`
}

// Encode marshals a message, returning nil on failure.
func Encode(action string, payload interface{}) []byte {
	b, err := json.Marshal(Message{Action: action, Payload: payload})
	if err != nil {
		log.Error().Err(err).Str("action", action).Msg("Failed to encode websocket message")
		return nil
	}
	return b
}

// NewErrorMessage builds an error message for a single client.
func NewErrorMessage(msg string) []byte {
	return Encode("error", map[string]string{"error": msg})
}
