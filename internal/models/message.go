package models

import (
	"strings"
	"time"
)

// ChatMessage is a single entry of the transcript. Messages are never modified once appended to a
// session's history; the order of the history is the order of the conversation.
type ChatMessage struct {
	Type      MessageType `json:"type"`
	Content   string      `json:"content"`
	Timestamp time.Time   `json:"timestamp"`
	IsVoice   bool        `json:"isVoice,omitempty"`
}

// MessageType tells who authored a message.
type MessageType string

const (
	// MessageTypeUser marks a message written or spoken by the student.
	MessageTypeUser MessageType = "user"
	// MessageTypeAI marks a message produced by the assistant, including the fixed error replies.
	MessageTypeAI MessageType = "ai"
)

// Fixed assistant replies appended to the transcript when a request fails.
const (
	ChatApology          = "Sorry, there was an error processing your request. Please try again."
	TranscriptionApology = "Sorry, there was an error transcribing your voice message. Please try again."
)

// Banner texts shown above the chat transcript.
const (
	TranscriptionFailedBanner = "Failed to transcribe audio. Please try again."
	MicrophoneDeniedBanner    = "Failed to access microphone. Please check your permissions."
)

// NewUserMessage returns a user message stamped with the current time.
func NewUserMessage(content string, isVoice bool) ChatMessage {
	return ChatMessage{
		Type:      MessageTypeUser,
		Content:   content,
		Timestamp: time.Now().UTC(),
		IsVoice:   isVoice,
	}
}

// NewAIMessage returns an assistant message stamped with the current time.
func NewAIMessage(content string) ChatMessage {
	return ChatMessage{
		Type:      MessageTypeAI,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
}

// ConversationHistory flattens a transcript into the plain-text context the backend expects, one
// "Student: ..." or "Assistant: ..." line per message.
func ConversationHistory(history []ChatMessage) string {
	lines := make([]string, len(history))
	for i, msg := range history {
		speaker := "Assistant"
		if msg.Type == MessageTypeUser {
			speaker = "Student"
		}
		lines[i] = speaker + ": " + msg.Content
	}
	return strings.Join(lines, "\n")
}
