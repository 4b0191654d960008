package notifier

import "context"

// Channel is a named notification sink.
type Channel string

const (
	// ChannelBunker receives integrity warnings (bad fingerprints, hints of
	// tampering).
	ChannelBunker Channel = "bunker"
	// ChannelCM receives moderation outcomes (restrictions, bans,
	// multiaccount findings).
	ChannelCM Channel = "cm"
	// ChannelStaff receives general staff-facing messages.
	ChannelStaff Channel = "staff"
	// ChannelGeneral receives public announcements.
	ChannelGeneral Channel = "general"
)

// Notifier delivers human-readable messages to named channels. Delivery is
// best-effort: failures are logged and never propagated to callers.
type Notifier interface {
	Notify(ctx context.Context, channel Channel, message string)
}
