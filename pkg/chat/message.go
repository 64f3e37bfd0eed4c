// Package chat defines the conversation data model shared across the gateway.
package chat

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Sender identifies who authored a message.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// Status tracks a message through its lifecycle. A message is never mutated
// after creation; the awaiting-response placeholder is removed and replaced,
// not edited.
type Status string

const (
	StatusSending   Status = "sending"
	StatusDelivered Status = "delivered"
	StatusAwaiting  Status = "awaiting-response"
	StatusError     Status = "error"
)

// ErrEmptyMessage is returned when a message would carry no content at all.
var ErrEmptyMessage = errors.New("message needs text, image, or audio content")

// Message is a single entry in a conversation. Media payloads are stored as
// data URLs (data:<mime>;base64,<payload>).
type Message struct {
	ID        string    `json:"id"`
	Text      string    `json:"text,omitempty"`
	ImageData string    `json:"imageData,omitempty"`
	AudioData string    `json:"audioData,omitempty"`
	Sender    Sender    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
	Status    Status    `json:"status"`
}

// NewUserMessage creates a delivered user message. At least one of text,
// image, or audio must be present.
func NewUserMessage(text, imageData, audioData string) (Message, error) {
	if text == "" && imageData == "" && audioData == "" {
		return Message{}, ErrEmptyMessage
	}

	return Message{
		ID:        uuid.NewString(),
		Text:      text,
		ImageData: imageData,
		AudioData: audioData,
		Sender:    SenderUser,
		Timestamp: time.Now(),
		Status:    StatusDelivered,
	}, nil
}

// NewAssistantMessage creates a delivered assistant message.
func NewAssistantMessage(text string) (Message, error) {
	if text == "" {
		return Message{}, ErrEmptyMessage
	}

	return Message{
		ID:        uuid.NewString(),
		Text:      text,
		Sender:    SenderAssistant,
		Timestamp: time.Now(),
		Status:    StatusDelivered,
	}, nil
}

// NewErrorMessage creates an assistant message carrying a failure explanation.
func NewErrorMessage(text string) Message {
	return Message{
		ID:        uuid.NewString(),
		Text:      text,
		Sender:    SenderAssistant,
		Timestamp: time.Now(),
		Status:    StatusError,
	}
}

// NewPlaceholder creates the transient awaiting-response entry shown while a
// model request is in flight. Its text holds a progress label rather than
// content, and it is the only message allowed to exist without content.
func NewPlaceholder(label string) Message {
	return Message{
		ID:        uuid.NewString(),
		Text:      label,
		Sender:    SenderAssistant,
		Timestamp: time.Now(),
		Status:    StatusAwaiting,
	}
}

// HasContent reports whether the message carries any real content.
func (m Message) HasContent() bool {
	return m.Text != "" || m.ImageData != "" || m.AudioData != ""
}

// WithoutPlaceholders returns a copy of msgs with awaiting-response entries
// removed. The input slice is never modified.
func WithoutPlaceholders(msgs []Message) []Message {
	out := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		if m.Status == StatusAwaiting {
			continue
		}
		out = append(out, m)
	}

	return out
}
