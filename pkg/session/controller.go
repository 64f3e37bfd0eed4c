// Package session orchestrates a chat turn end to end: append the user
// message and a transient placeholder, build the model request, call the
// gateway, then replace the placeholder with the split response or an error
// message. At most one submission is in flight at a time.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/qmuntal/stateless"
	"go.uber.org/zap"

	"github.com/mydocta/docta/pkg/chat"
	"github.com/mydocta/docta/pkg/gemini"
	"github.com/mydocta/docta/pkg/media"
	"github.com/mydocta/docta/pkg/prompt"
	"github.com/mydocta/docta/pkg/store"
)

// FSM states for a single submission.
type FSMState stateless.State

var (
	StateIdle             FSMState = "Idle"
	StateSending          FSMState = "Sending"
	StateAwaitingResponse FSMState = "AwaitingResponse"
	StateDelivered        FSMState = "Delivered"
	StateFailed           FSMState = "Failed"
)

// FSM triggers.
type FSMTrigger stateless.Trigger

var (
	TriggerSubmit    FSMTrigger = "Submit"
	TriggerBuilt     FSMTrigger = "Built"
	TriggerSucceeded FSMTrigger = "Succeeded"
	TriggerFailed    FSMTrigger = "Failed"
)

// ErrBusy is returned when a submission arrives while another is in flight.
var ErrBusy = errors.New("a submission is already in flight")

// Progress labels shown in the transient placeholder message.
const (
	labelThinking = "Thinking…"
	labelImage    = "Processing image…"
	labelAudio    = "Processing audio…"
)

// Outcome is the result of a delivered submission.
type Outcome struct {
	// Messages are the assistant messages appended for this turn (zero, one,
	// or two: pre-report and/or post-report text).
	Messages []chat.Message

	// Report is the extracted report, nil when the reply carried none.
	Report *chat.Report

	// Response is the conversational text with the report stripped out.
	Response string
}

// Controller owns the conversation state for one session slot. It is the
// only mutator of the conversation, and always replaces the whole slice
// rather than editing messages in place.
type Controller struct {
	mu     sync.Mutex
	busy   bool
	msgs   []chat.Message
	report *chat.Report

	slot      string
	generator gemini.Generator
	storer    store.Storer
	logger    *zap.Logger
}

// New creates a Controller for the given slot.
func New(generator gemini.Generator, storer store.Storer, slot string, logger *zap.Logger) *Controller {
	return &Controller{
		slot:      slot,
		generator: generator,
		storer:    storer,
		logger:    logger,
	}
}

// Hydrate loads the persisted conversation for the slot. Called once at
// startup.
func (c *Controller) Hydrate(ctx context.Context) error {
	msgs, err := c.storer.Load(ctx, c.slot)
	if err != nil {
		return fmt.Errorf("hydrating session: %w", err)
	}

	c.mu.Lock()
	c.msgs = chat.WithoutPlaceholders(msgs)
	c.mu.Unlock()

	return nil
}

// Seed adopts a client-provided history, but only when the slot is empty.
// The stored conversation stays authoritative otherwise. Returns whether the
// history was adopted.
func (c *Controller) Seed(ctx context.Context, history []chat.Message) bool {
	kept := make([]chat.Message, 0, len(history))
	for _, m := range chat.WithoutPlaceholders(history) {
		if m.HasContent() {
			kept = append(kept, m)
		}
	}
	if len(kept) == 0 {
		return false
	}

	c.mu.Lock()
	if len(c.msgs) > 0 {
		c.mu.Unlock()
		return false
	}
	c.msgs = kept
	c.mu.Unlock()

	c.persist(ctx, kept)

	return true
}

// History returns a copy of the conversation in display order.
func (c *Controller) History() []chat.Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]chat.Message, len(c.msgs))
	copy(out, c.msgs)

	return out
}

// CurrentReport returns the report extracted from the latest reply, or nil.
func (c *Controller) CurrentReport() *chat.Report {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.report
}

// Reset starts a new session: the conversation and the report are cleared
// unconditionally, regardless of prior state.
func (c *Controller) Reset(ctx context.Context) error {
	c.mu.Lock()
	c.msgs = nil
	c.report = nil
	c.mu.Unlock()

	if err := c.storer.Clear(ctx, c.slot); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}

	return nil
}

// Submit runs one user turn through the pipeline. It rejects with ErrBusy
// while another submission is in flight, and with a validation error (before
// any message is appended or any network call made) when the input is empty
// or carries malformed media.
func (c *Controller) Submit(ctx context.Context, in prompt.Input) (*Outcome, error) {
	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return nil, ErrBusy
	}
	c.busy = true
	prior := make([]chat.Message, len(c.msgs))
	copy(prior, c.msgs)
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.busy = false
		c.mu.Unlock()
	}()

	if in.AudioDataURL != "" {
		media.CheckAudio(in.AudioDataURL, c.logger)
	}

	// Validation happens before the state machine starts: a rejected
	// submission never touches the conversation or the gateway.
	req, err := prompt.Build(in, prior)
	if err != nil {
		return nil, err
	}

	turn := &turnContext{req: req, input: in}
	fsm := c.newTurnFSM(turn)

	if err := fsm.FireCtx(ctx, TriggerSubmit); err != nil {
		return nil, fmt.Errorf("session state machine: %w", err)
	}

	switch fsm.MustState() {
	case StateDelivered:
		return turn.outcome, nil
	case StateFailed:
		return nil, turn.lastErr
	default:
		return nil, fmt.Errorf("session ended in unexpected state: %v", fsm.MustState())
	}
}

// turnContext carries per-submission data across FSM states.
type turnContext struct {
	input       prompt.Input
	req         *prompt.Request
	placeholder chat.Message
	raw         string
	outcome     *Outcome
	lastErr     error
}

func (c *Controller) newTurnFSM(turn *turnContext) *stateless.StateMachine {
	fsm := stateless.NewStateMachine(StateIdle)

	fsm.Configure(StateIdle).
		Permit(TriggerSubmit, StateSending)

	// Sending: append the user message and the placeholder, then hand off to
	// the gateway call.
	fsm.Configure(StateSending).
		OnEntry(func(ctx context.Context, _ ...any) error {
			userMsg, err := chat.NewUserMessage(turn.input.Text, turn.input.ImageDataURL, turn.input.AudioDataURL)
			if err != nil {
				turn.lastErr = err
				return fsm.FireCtx(ctx, TriggerFailed)
			}

			turn.placeholder = chat.NewPlaceholder(placeholderLabel(turn.input))
			c.appendMessages(ctx, userMsg, turn.placeholder)

			return fsm.FireCtx(ctx, TriggerBuilt)
		}).
		Permit(TriggerBuilt, StateAwaitingResponse).
		Permit(TriggerFailed, StateFailed)

	// AwaitingResponse: the single suspend point. No cancellation beyond
	// context propagation, no retry.
	fsm.Configure(StateAwaitingResponse).
		OnEntry(func(ctx context.Context, _ ...any) error {
			raw, err := c.generator.Generate(ctx, turn.req)
			if err != nil {
				c.logger.Error("model request failed", zap.Error(err))
				turn.lastErr = err
				return fsm.FireCtx(ctx, TriggerFailed)
			}
			turn.raw = raw

			return fsm.FireCtx(ctx, TriggerSucceeded)
		}).
		Permit(TriggerSucceeded, StateDelivered).
		Permit(TriggerFailed, StateFailed)

	// Delivered: remove the placeholder and append the split reply. A reply
	// with no conversational text and no report is an empty-response failure.
	fsm.Configure(StateDelivered).
		OnEntry(func(ctx context.Context, _ ...any) error {
			split := chat.SplitReport(turn.raw)
			text := split.ConversationalText()

			if split.Report == nil && text == "" {
				turn.lastErr = gemini.ErrEmptyResponse
				return fsm.FireCtx(ctx, TriggerFailed)
			}

			var appended []chat.Message
			for _, segment := range []string{split.PreText, split.PostText} {
				if segment == "" {
					continue
				}
				msg, err := chat.NewAssistantMessage(segment)
				if err != nil {
					turn.lastErr = err
					return fsm.FireCtx(ctx, TriggerFailed)
				}
				appended = append(appended, msg)
			}

			c.completeTurn(ctx, turn.placeholder.ID, appended, split.Report, true)
			turn.outcome = &Outcome{Messages: appended, Report: split.Report, Response: text}

			if split.Report != nil {
				c.logger.Info("report extracted from reply", zap.Int("body_len", len(split.Report.Body)))
			}

			return nil
		}).
		Permit(TriggerFailed, StateFailed)

	// Failed: remove the placeholder and append one error message. The
	// current report is left untouched; only a model reply replaces it.
	fsm.Configure(StateFailed).
		OnEntry(func(ctx context.Context, _ ...any) error {
			errMsg := chat.NewErrorMessage(failureText(turn.lastErr))
			c.completeTurn(ctx, turn.placeholder.ID, []chat.Message{errMsg}, nil, false)

			return nil
		})

	return fsm
}

// appendMessages replaces the conversation with a copy that has msgs
// appended, then persists the new snapshot.
func (c *Controller) appendMessages(ctx context.Context, msgs ...chat.Message) {
	c.mu.Lock()
	next := make([]chat.Message, 0, len(c.msgs)+len(msgs))
	next = append(next, c.msgs...)
	next = append(next, msgs...)
	c.msgs = next
	c.mu.Unlock()

	c.persist(ctx, next)
}

// completeTurn removes the placeholder, appends the turn's outcome messages,
// and optionally replaces the report state.
func (c *Controller) completeTurn(ctx context.Context, placeholderID string, msgs []chat.Message, report *chat.Report, updateReport bool) {
	c.mu.Lock()
	next := make([]chat.Message, 0, len(c.msgs)+len(msgs))
	for _, m := range c.msgs {
		if placeholderID != "" && m.ID == placeholderID {
			continue
		}
		next = append(next, m)
	}
	next = append(next, msgs...)
	c.msgs = next
	if updateReport {
		c.report = report
	}
	c.mu.Unlock()

	c.persist(ctx, next)
}

// persist saves the snapshot; a storage failure is logged but never fails
// the turn.
func (c *Controller) persist(ctx context.Context, msgs []chat.Message) {
	if err := c.storer.Save(ctx, c.slot, msgs); err != nil {
		c.logger.Warn("failed to persist conversation", zap.Error(err))
	}
}

func placeholderLabel(in prompt.Input) string {
	switch {
	case in.ImageDataURL != "":
		return labelImage
	case in.AudioDataURL != "":
		return labelAudio
	default:
		return labelThinking
	}
}

// failureText converts a gateway failure into the single visible assistant
// message shown for it.
func failureText(err error) string {
	switch {
	case errors.Is(err, gemini.ErrMissingCredential):
		return "Sorry, the assistant is not configured correctly. Please contact support."
	case errors.Is(err, gemini.ErrContentBlocked):
		return "Sorry, I can't respond to that request. Please rephrase and try again."
	case errors.Is(err, gemini.ErrModelNotFound):
		return "Sorry, the assistant is temporarily unavailable. Please try again later."
	case errors.Is(err, gemini.ErrUnauthorized):
		return "Sorry, the assistant could not be authorized. Please contact support."
	case errors.Is(err, gemini.ErrEmptyResponse):
		return "Sorry, I didn't catch that. Could you try again?"
	default:
		return "Sorry, something went wrong while contacting the assistant. Please try again."
	}
}
