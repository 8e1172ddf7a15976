package messaging

import "context"

const (
	ChannelMessenger = "messenger"
	ChannelWhatsApp  = "whatsapp"
)

// Sender delivers outbound text on a chat channel. The transport itself is an
// external collaborator; the engine only produces the text.
type Sender interface {
	SendText(ctx context.Context, recipient, channel, text string) error
}
