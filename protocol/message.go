// Package protocol defines the wire types exchanged between the workflow
// runtime, the agent, and connected frontends. All types marshal to JSON.
package protocol

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// ChatMessage is one turn of a conversation, routed between the agent and
// frontends over the bridge.
type ChatMessage struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// NewChatMessage creates a message with a fresh ID and the current time.
func NewChatMessage(role Role, content string) ChatMessage {
	return ChatMessage{
		ID:        generateID(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
}

func NewUserMessage(content string) ChatMessage {
	return NewChatMessage(RoleUser, content)
}

func NewAssistantMessage(content string) ChatMessage {
	return NewChatMessage(RoleAssistant, content)
}

func NewSystemMessage(content string) ChatMessage {
	return NewChatMessage(RoleSystem, content)
}

func (m ChatMessage) String() string {
	return fmt.Sprintf("ChatMessage{ID: %s, Role: %s}", m.ID, m.Role)
}

// DecodeChatMessage parses a JSON-encoded chat message and rejects payloads
// with an unknown role.
func DecodeChatMessage(data []byte) (ChatMessage, error) {
	var m ChatMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return ChatMessage{}, fmt.Errorf("failed to decode chat message: %w", err)
	}
	if !m.Role.Valid() {
		return ChatMessage{}, fmt.Errorf("invalid chat message role: %q", m.Role)
	}
	return m, nil
}

// Encode marshals the message for transport.
func (m ChatMessage) Encode() ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to encode chat message: %w", err)
	}
	return data, nil
}

func generateID() string {
	return uuid.Must(uuid.NewV7()).String()
}
