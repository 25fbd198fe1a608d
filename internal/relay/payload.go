package relay

import (
	"errors"
	"fmt"

	"github.com/notiteams/activity-api/internal/cards"
)

// ErrMalformedPayload marks caller-input validation failures. They are
// rejected before any storage or connector call.
var ErrMalformedPayload = errors.New("relay: malformed payload")

// TextMessage is the styled-text payload shape. Pointer fields
// distinguish "absent" from zero values.
type TextMessage struct {
	Title      *string               `json:"title,omitempty"`
	TitleColor *cards.Color          `json:"title_color,omitempty"`
	Text       string                `json:"text"`
	Style      *cards.ContainerStyle `json:"style,omitempty"`
	Bleed      *bool                 `json:"bleed,omitempty"`
	TitleStyle *cards.ContainerStyle `json:"title_style,omitempty"`
	TitleBleed *bool                 `json:"title_bleed,omitempty"`
	Summary    *string               `json:"summary,omitempty"`
}

// Payload is the tagged union a send or update carries: exactly one of
// Text, Message, or Card must be populated. Summary applies to Card
// payloads only.
type Payload struct {
	Text    *string
	Message *TextMessage
	Card    map[string]any
	Summary string
}

// Validate enforces the exactly-one rule and field-level constraints.
func (p Payload) Validate() error {
	filled := 0
	if p.Text != nil {
		filled++
	}
	if p.Message != nil {
		filled++
	}
	if p.Card != nil {
		filled++
	}
	if filled != 1 {
		return fmt.Errorf("%w: one and only one of message, text, or card must be filled", ErrMalformedPayload)
	}

	if m := p.Message; m != nil {
		if m.Text == "" {
			return fmt.Errorf("%w: message.text is required", ErrMalformedPayload)
		}
		if m.TitleColor != nil && !m.TitleColor.Valid() {
			return fmt.Errorf("%w: unknown title_color %q", ErrMalformedPayload, *m.TitleColor)
		}
		if m.Style != nil && !m.Style.Valid() {
			return fmt.Errorf("%w: unknown style %q", ErrMalformedPayload, *m.Style)
		}
		if m.TitleStyle != nil && !m.TitleStyle.Valid() {
			return fmt.Errorf("%w: unknown title_style %q", ErrMalformedPayload, *m.TitleStyle)
		}
	}
	return nil
}

// BuildActivity turns a validated payload into the activity to dispatch.
func (p Payload) BuildActivity() cards.Activity {
	switch {
	case p.Text != nil:
		return cards.SimpleMessage(*p.Text, cards.SimpleMessageOpts{})
	case p.Message != nil:
		m := p.Message
		opts := cards.SimpleMessageOpts{}
		if m.Title != nil {
			opts.Title = *m.Title
		}
		if m.TitleColor != nil {
			opts.TitleColor = *m.TitleColor
		}
		if m.TitleStyle != nil {
			opts.TitleStyle = *m.TitleStyle
		}
		if m.TitleBleed != nil {
			opts.TitleBleed = *m.TitleBleed
		}
		if m.Style != nil {
			opts.Style = *m.Style
		}
		if m.Bleed != nil {
			opts.Bleed = *m.Bleed
		}
		if m.Summary != nil {
			opts.Summary = *m.Summary
		}
		return cards.SimpleMessage(m.Text, opts)
	default:
		return cards.CardMessage(p.Card, p.Summary)
	}
}
