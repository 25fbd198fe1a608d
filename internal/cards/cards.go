// Package cards builds Adaptive Card documents and the Bot Framework
// activity envelope that carries them. Builders are pure: same input,
// same document.
package cards

const (
	schemaURL     = "https://adaptivecards.io/schemas/adaptive-card.json"
	schemaVersion = "1.5"

	// AdaptiveCardContentType is the attachment content type Teams expects.
	AdaptiveCardContentType = "application/vnd.microsoft.card.adaptive"
)

// Color is a TextBlock color in the Adaptive Card sense (not CSS, not RGB).
type Color string

const (
	ColorDefault   Color = "default"
	ColorDark      Color = "dark"
	ColorLight     Color = "light"
	ColorAccent    Color = "accent"
	ColorGood      Color = "good"
	ColorWarning   Color = "warning"
	ColorAttention Color = "attention"
)

// Valid reports whether c is a known Adaptive Card color.
func (c Color) Valid() bool {
	switch c {
	case ColorDefault, ColorDark, ColorLight, ColorAccent, ColorGood, ColorWarning, ColorAttention:
		return true
	}
	return false
}

// ContainerStyle styles a Container block.
type ContainerStyle string

const (
	StyleDefault   ContainerStyle = "default"
	StyleEmphasis  ContainerStyle = "emphasis"
	StyleGood      ContainerStyle = "good"
	StyleAttention ContainerStyle = "attention"
	StyleWarning   ContainerStyle = "warning"
	StyleAccent    ContainerStyle = "accent"
)

// Valid reports whether s is a known container style.
func (s ContainerStyle) Valid() bool {
	switch s {
	case StyleDefault, StyleEmphasis, StyleGood, StyleAttention, StyleWarning, StyleAccent:
		return true
	}
	return false
}

// BlockStyle is the TextBlock style attribute.
type BlockStyle string

const (
	BlockDefault BlockStyle = "default"
	BlockHeading BlockStyle = "heading"
)

// FontSize is the TextBlock size attribute.
type FontSize string

const (
	SizeDefault    FontSize = "default"
	SizeSmall      FontSize = "small"
	SizeMedium     FontSize = "medium"
	SizeLarge      FontSize = "large"
	SizeExtraLarge FontSize = "extraLarge"
)

// FontWeight is the TextBlock weight attribute.
type FontWeight string

const (
	WeightDefault FontWeight = "default"
	WeightLighter FontWeight = "lighter"
	WeightBolder  FontWeight = "bolder"
)

// Spacing is the TextBlock spacing attribute.
type Spacing string

const (
	SpacingNone       Spacing = "none"
	SpacingSmall      Spacing = "small"
	SpacingDefault    Spacing = "default"
	SpacingMedium     Spacing = "medium"
	SpacingLarge      Spacing = "large"
	SpacingExtraLarge Spacing = "extraLarge"
	SpacingPadding    Spacing = "padding"
)

// FontType is the TextBlock font family attribute.
type FontType string

const (
	FontDefault   FontType = "default"
	FontMonospace FontType = "monospace"
)

// Element is a node of the closed Adaptive Card body set.
type Element interface {
	build() map[string]any
}

// TextBlock is a leaf text node. Zero-valued attributes are omitted
// from the document.
type TextBlock struct {
	Text     string
	Style    BlockStyle
	Color    Color
	Weight   FontWeight
	Size     FontSize
	Spacing  Spacing
	FontType FontType
}

func (b TextBlock) build() map[string]any {
	item := map[string]any{
		"type": "TextBlock",
		"text": b.Text,
		"wrap": true,
	}
	if b.Style != "" {
		item["style"] = string(b.Style)
	}
	if b.Color != "" {
		item["color"] = string(b.Color)
	}
	if b.Weight != "" {
		item["weight"] = string(b.Weight)
	}
	if b.Size != "" {
		item["size"] = string(b.Size)
	}
	if b.Spacing != "" {
		item["spacing"] = string(b.Spacing)
	}
	if b.FontType != "" {
		item["fontType"] = string(b.FontType)
	}
	return item
}

// Container holds child elements with an optional style and bleed.
type Container struct {
	Items []Element
	Style ContainerStyle
	Bleed bool
}

func (c Container) build() map[string]any {
	items := make([]map[string]any, 0, len(c.Items))
	for _, el := range c.Items {
		items = append(items, el.build())
	}
	item := map[string]any{
		"type":  "Container",
		"items": items,
	}
	if c.Style != "" {
		item["style"] = string(c.Style)
	}
	if c.Bleed {
		item["bleed"] = true
	}
	return item
}

// New assembles an Adaptive Card document from body elements.
func New(elements ...Element) map[string]any {
	body := make([]map[string]any, 0, len(elements))
	for _, el := range elements {
		body = append(body, el.build())
	}
	return map[string]any{
		"type":    "AdaptiveCard",
		"$schema": schemaURL,
		"version": schemaVersion,
		"body":    body,
	}
}

// ChannelAccount identifies a bot or user on the channel.
type ChannelAccount struct {
	ID string `json:"id"`
}

// Attachment carries a card inside an activity.
type Attachment struct {
	ContentType string         `json:"contentType"`
	Content     map[string]any `json:"content"`
}

// Activity is the Bot Framework message envelope sent to the connector.
type Activity struct {
	Type        string          `json:"type"`
	ChannelID   string          `json:"channelId,omitempty"`
	From        *ChannelAccount `json:"from,omitempty"`
	Text        string          `json:"text,omitempty"`
	Summary     string          `json:"summary,omitempty"`
	Attachments []Attachment    `json:"attachments,omitempty"`
}

// SimpleMessageOpts are the styling knobs for SimpleMessage. Zero values
// mean "not requested".
type SimpleMessageOpts struct {
	Title      string
	TitleColor Color
	TitleStyle ContainerStyle
	TitleBleed bool
	Style      ContainerStyle
	Bleed      bool
	Summary    string
}

// SimpleMessage builds an activity from text plus optional title and
// container styling. With no title and no styling the result is a plain
// text activity with no card wrapper; simple messages stay cheap. The
// notification summary defaults to Summary, then Title, then the text.
func SimpleMessage(text string, opts SimpleMessageOpts) Activity {
	summary := opts.Summary
	if summary == "" {
		summary = opts.Title
	}
	if summary == "" {
		summary = text
	}

	// Title attributes only matter once there is a title; on their own
	// they must not force the card form.
	styled := opts.Title != "" || opts.Style != "" || opts.Bleed
	if !styled {
		return Activity{
			Type:    "message",
			Text:    text,
			Summary: summary,
		}
	}

	var body []Element
	if opts.Title != "" {
		body = append(body, Container{
			Style: opts.TitleStyle,
			Bleed: opts.TitleBleed,
			Items: []Element{TextBlock{
				Text:   opts.Title,
				Style:  BlockHeading,
				Color:  opts.TitleColor,
				Weight: WeightBolder,
				Size:   SizeLarge,
			}},
		})
	}
	body = append(body, Container{
		Style: opts.Style,
		Bleed: opts.Bleed,
		Items: []Element{TextBlock{Text: text}},
	})

	return CardMessage(New(body...), summary)
}

// CardMessage wraps a caller-built Adaptive Card document. The summary is
// used as the notification hint and may be empty.
func CardMessage(card map[string]any, summary string) Activity {
	return Activity{
		Type:    "message",
		Summary: summary,
		Attachments: []Attachment{{
			ContentType: AdaptiveCardContentType,
			Content:     card,
		}},
	}
}
