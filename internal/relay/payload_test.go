package relay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notiteams/activity-api/internal/cards"
)

func TestValidateExactlyOne(t *testing.T) {
	tests := []struct {
		name    string
		payload Payload
		wantErr bool
	}{
		{"text only", Payload{Text: strptr("hi")}, false},
		{"message only", Payload{Message: &TextMessage{Text: "hi"}}, false},
		{"card only", Payload{Card: map[string]any{"type": "AdaptiveCard"}}, false},
		{"nothing", Payload{}, true},
		{"text and message", Payload{Text: strptr("hi"), Message: &TextMessage{Text: "x"}}, true},
		{"message and card", Payload{Message: &TextMessage{Text: "x"}, Card: map[string]any{}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.payload.Validate()
			if tt.wantErr {
				require.ErrorIs(t, err, ErrMalformedPayload)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestValidateMessageFields(t *testing.T) {
	badColor := cards.Color("crimson")
	err := Payload{Message: &TextMessage{Text: "x", TitleColor: &badColor}}.Validate()
	require.ErrorIs(t, err, ErrMalformedPayload)

	badStyle := cards.ContainerStyle("loud")
	err = Payload{Message: &TextMessage{Text: "x", Style: &badStyle}}.Validate()
	require.ErrorIs(t, err, ErrMalformedPayload)

	err = Payload{Message: &TextMessage{Text: ""}}.Validate()
	require.ErrorIs(t, err, ErrMalformedPayload)

	good := cards.ColorGood
	require.NoError(t, Payload{Message: &TextMessage{Text: "x", TitleColor: &good}}.Validate())
}

func TestBuildActivityText(t *testing.T) {
	got := Payload{Text: strptr("hello")}.BuildActivity()
	assert.Equal(t, "hello", got.Text)
	assert.Empty(t, got.Attachments)
}

func TestBuildActivityMessage(t *testing.T) {
	color := cards.ColorWarning
	bleed := true
	got := Payload{Message: &TextMessage{
		Title:      strptr("Heads up"),
		TitleColor: &color,
		Text:       "something happened",
		Bleed:      &bleed,
	}}.BuildActivity()

	assert.Equal(t, "Heads up", got.Summary)
	require.Len(t, got.Attachments, 1)
}

func TestBuildActivityCardUsesPayloadSummary(t *testing.T) {
	card := map[string]any{"type": "AdaptiveCard"}
	got := Payload{Card: card, Summary: "hint"}.BuildActivity()

	assert.Equal(t, "hint", got.Summary)
	require.Len(t, got.Attachments, 1)
	assert.Equal(t, card, got.Attachments[0].Content)
}
