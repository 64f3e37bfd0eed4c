package gemini

import (
	"context"
	"errors"
	"testing"

	genai "github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/api/googleapi"

	"github.com/mydocta/docta/pkg/prompt"
)

func TestMapError(t *testing.T) {
	blocked := &genai.BlockedError{}
	assert.ErrorIs(t, mapError(blocked), ErrContentBlocked)

	assert.ErrorIs(t, mapError(&googleapi.Error{Code: 404}), ErrModelNotFound)
	assert.ErrorIs(t, mapError(&googleapi.Error{Code: 401}), ErrUnauthorized)
	assert.ErrorIs(t, mapError(&googleapi.Error{Code: 403}), ErrUnauthorized)

	plain := errors.New("connection reset")
	assert.Equal(t, plain, mapError(plain))
	assert.Equal(t, &googleapi.Error{Code: 500}, mapError(&googleapi.Error{Code: 500}))
}

func TestSafetySettingsMapping(t *testing.T) {
	settings := safetySettings(prompt.DefaultSafetyRules(), zap.NewNop())

	require.Len(t, settings, 4)
	for _, s := range settings {
		assert.Equal(t, genai.HarmBlockMediumAndAbove, s.Threshold)
	}
}

func TestSafetySettingsSkipsUnknownRules(t *testing.T) {
	rules := []prompt.SafetyRule{
		{Category: "harassment", Threshold: "block-none"},
		{Category: "nonsense", Threshold: "block-none"},
		{Category: "harassment", Threshold: "nonsense"},
	}

	settings := safetySettings(rules, zap.NewNop())
	require.Len(t, settings, 1)
	assert.Equal(t, genai.HarmCategoryHarassment, settings[0].Category)
	assert.Equal(t, genai.HarmBlockNone, settings[0].Threshold)
}

func TestGenerateWithoutCredentialFailsPerRequest(t *testing.T) {
	c, err := New(context.Background(), Config{Model: "gemini-1.5-flash"}, zap.NewNop())
	require.NoError(t, err)
	defer c.Close()

	req, err := prompt.Build(prompt.Input{Text: "hi"}, nil)
	require.NoError(t, err)

	_, err = c.Generate(context.Background(), req)
	assert.ErrorIs(t, err, ErrMissingCredential)
}

func TestToPartsKeepsOrder(t *testing.T) {
	parts := toParts([]prompt.Part{
		{MIMEType: "image/png", Data: []byte("img")},
		{MIMEType: "audio/webm", Data: []byte("aud")},
		{Text: "describe these"},
	})

	require.Len(t, parts, 3)
	assert.Equal(t, genai.Blob{MIMEType: "image/png", Data: []byte("img")}, parts[0])
	assert.Equal(t, genai.Blob{MIMEType: "audio/webm", Data: []byte("aud")}, parts[1])
	assert.Equal(t, genai.Text("describe these"), parts[2])
}
