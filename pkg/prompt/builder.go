// Package prompt assembles model requests from the current user input and
// prior conversation state.
package prompt

import (
	"errors"
	"fmt"

	"github.com/mydocta/docta/pkg/chat"
	"github.com/mydocta/docta/pkg/media"
)

// Role tags a turn with its author on the model side of the boundary.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

var (
	// ErrNoContent is returned when a submission carries no text, image, or
	// audio. Detected before anything is built or sent.
	ErrNoContent = errors.New("submission has no text, image, or audio content")

	// ErrBadMedia is returned when a supplied media payload is malformed or
	// the wrong kind.
	ErrBadMedia = errors.New("invalid media payload")
)

// personaInstructions is the fixed system/persona text injected as the first
// synthetic turn of every new conversation. It also instructs the model on
// the report sentinel protocol.
const personaInstructions = `You are MyDocta, a warm and careful virtual health assistant. You help the user describe their symptoms, ask clarifying questions one at a time, and never give a diagnosis or prescribe medication. Encourage the user to see a healthcare professional for anything serious.

When the user indicates the consultation is ending, produce a concise summary of the session as a bulleted list, wrapped exactly between the lines "` + chat.ReportStartMarker + `" and "` + chat.ReportEndMarker + `". Do not use those marker lines anywhere else in your replies.`

// cannedGreeting is the fixed model-role reply paired with the persona turn,
// so the model sees a conversation that has already been opened.
const cannedGreeting = "Hello! I'm MyDocta, your virtual health assistant. How are you feeling today?"

// Default instructions synthesized when a turn carries media but no text.
const (
	defaultImageInstruction = "Please look at this image and tell me what you observe that could be medically relevant."
	defaultAudioInstruction = "Please listen to this audio message and respond to what I said."
)

// Part is one piece of a turn's content: either text or an inline media blob.
type Part struct {
	Text     string
	MIMEType string
	Data     []byte
}

// Turn is one exchange unit sent to the model, tagged with its role.
type Turn struct {
	Role  Role
	Parts []Part
}

// Input is the current user submission. At least one field must be present.
type Input struct {
	Text         string
	ImageDataURL string
	AudioDataURL string
}

// GenerationParams are the fixed sampling parameters that accompany every
// request unconditionally.
type GenerationParams struct {
	Temperature     float32
	TopP            float32
	TopK            int32
	MaxOutputTokens int32
}

// DefaultGenerationParams returns the parameters sent with every request.
func DefaultGenerationParams() GenerationParams {
	return GenerationParams{
		Temperature:     0.7,
		TopP:            0.95,
		TopK:            40,
		MaxOutputTokens: 8192,
	}
}

// SafetyRule maps a harm category to a block threshold. The full policy is
// sent with every request unconditionally.
type SafetyRule struct {
	Category  string `toml:"category"`
	Threshold string `toml:"threshold"`
}

// DefaultSafetyRules returns the fixed content-safety policy.
func DefaultSafetyRules() []SafetyRule {
	return []SafetyRule{
		{Category: "harassment", Threshold: "block-medium-and-above"},
		{Category: "hate-speech", Threshold: "block-medium-and-above"},
		{Category: "sexually-explicit", Threshold: "block-medium-and-above"},
		{Category: "dangerous-content", Threshold: "block-medium-and-above"},
	}
}

// Request is an ordered list of turns ready for the model gateway. The final
// turn is always the current user turn.
type Request struct {
	Turns []Turn
}

// Build packages the current submission and prior conversation into a model
// request.
//
// Prior messages are filtered to those with non-empty text and a delivered or
// sending status; placeholders and error messages never reach the model. When
// the filtered history is empty this is the conversation-opening turn, and
// exactly two synthetic turns (persona instructions, canned greeting) are
// prepended ahead of the current turn. Current-turn parts keep a fixed order:
// image, audio, text.
func Build(in Input, prior []chat.Message) (*Request, error) {
	if in.Text == "" && in.ImageDataURL == "" && in.AudioDataURL == "" {
		return nil, ErrNoContent
	}

	parts, err := buildCurrentParts(in)
	if err != nil {
		return nil, err
	}

	history := filterHistory(prior)

	turns := make([]Turn, 0, len(history)+3)
	if len(history) == 0 {
		turns = append(turns,
			Turn{Role: RoleUser, Parts: []Part{{Text: personaInstructions}}},
			Turn{Role: RoleModel, Parts: []Part{{Text: cannedGreeting}}},
		)
	}
	turns = append(turns, history...)
	turns = append(turns, Turn{Role: RoleUser, Parts: parts})

	return &Request{Turns: turns}, nil
}

func buildCurrentParts(in Input) ([]Part, error) {
	var parts []Part

	if in.ImageDataURL != "" {
		if err := media.ValidateImage(in.ImageDataURL); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadMedia, err)
		}
		mimeType, data, err := media.Decode(in.ImageDataURL)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadMedia, err)
		}
		parts = append(parts, Part{MIMEType: mimeType, Data: data})
	}

	if in.AudioDataURL != "" {
		mimeType, data, err := media.Decode(in.AudioDataURL)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadMedia, err)
		}
		parts = append(parts, Part{MIMEType: mimeType, Data: data})
	}

	text := in.Text
	if text == "" {
		// Image wins over audio; the UI never submits both in one turn.
		if in.ImageDataURL != "" {
			text = defaultImageInstruction
		} else {
			text = defaultAudioInstruction
		}
	}
	parts = append(parts, Part{Text: text})

	return parts, nil
}

func filterHistory(prior []chat.Message) []Turn {
	turns := make([]Turn, 0, len(prior))
	for _, m := range prior {
		if m.Text == "" {
			continue
		}
		if m.Status != chat.StatusDelivered && m.Status != chat.StatusSending {
			continue
		}

		role := RoleUser
		if m.Sender == chat.SenderAssistant {
			role = RoleModel
		}
		turns = append(turns, Turn{Role: role, Parts: []Part{{Text: m.Text}}})
	}

	return turns
}
