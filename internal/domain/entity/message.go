package entity

// Message is a single outbound delivery.
type Message struct {
	// Recipient is the channel-specific destination (chat ID, webhook name).
	Recipient string

	// Text is the plain-text body.
	Text string

	// DisablePreview asks the channel not to render link previews.
	DisablePreview bool
}
