package providers

import (
	"context"

	"github.com/zatekoja/medfinder/internal/domain/entities"
)

// EventBus publishes pharmacy lifecycle events to interested consumers
type EventBus interface {
	// Publish publishes an event to all subscribers of channel
	Publish(ctx context.Context, channel string, event *entities.PharmacyEvent) error

	// Close releases the underlying connection
	Close() error
}

const (
	// EventChannelPharmacyUpdates is the channel for all pharmacy lifecycle events
	EventChannelPharmacyUpdates = "pharmacy:updates"

	// EventChannelRegionalPrefix is the prefix for state-scoped channels
	EventChannelRegionalPrefix = "region:"
)

// GetRegionalChannel returns the channel name for pharmacies in a state
func GetRegionalChannel(state string) string {
	return EventChannelRegionalPrefix + state
}
