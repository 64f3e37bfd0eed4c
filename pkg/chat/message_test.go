package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUserMessageRequiresContent(t *testing.T) {
	_, err := NewUserMessage("", "", "")
	assert.ErrorIs(t, err, ErrEmptyMessage)

	msg, err := NewUserMessage("hi", "", "")
	require.NoError(t, err)
	assert.Equal(t, SenderUser, msg.Sender)
	assert.Equal(t, StatusDelivered, msg.Status)
	assert.NotEmpty(t, msg.ID)
	assert.True(t, msg.HasContent())
}

func TestNewUserMessageMediaOnly(t *testing.T) {
	msg, err := NewUserMessage("", "data:image/png;base64,AAAA", "")
	require.NoError(t, err)
	assert.True(t, msg.HasContent())
	assert.Empty(t, msg.Text)
}

func TestNewPlaceholder(t *testing.T) {
	msg := NewPlaceholder("Thinking…")

	assert.Equal(t, StatusAwaiting, msg.Status)
	assert.Equal(t, SenderAssistant, msg.Sender)
	assert.Equal(t, "Thinking…", msg.Text)
}

func TestWithoutPlaceholders(t *testing.T) {
	user, err := NewUserMessage("hello", "", "")
	require.NoError(t, err)
	reply, err := NewAssistantMessage("hi there")
	require.NoError(t, err)

	msgs := []Message{user, NewPlaceholder("Thinking…"), reply}
	kept := WithoutPlaceholders(msgs)

	require.Len(t, kept, 2)
	assert.Equal(t, user.ID, kept[0].ID)
	assert.Equal(t, reply.ID, kept[1].ID)
	assert.Len(t, msgs, 3)
}
