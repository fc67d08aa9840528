package runtime

import (
	"context"
	"errors"
	"time"

	"github.com/leeforge/plugincatalog/catalog"
	"github.com/leeforge/plugincatalog/plugin"
)

var (
	// ErrBusClosed is returned when publishing to a closed EventBus.
	ErrBusClosed = errors.New("event bus is closed")

	// ErrPublishTimeout is returned when the publish buffer is full and context expires.
	ErrPublishTimeout = errors.New("event publish timeout: buffer full")
)

// Topics published for catalog changes. TopicAll subscribes to every topic.
const (
	TopicAll          = "*"
	TopicRegistered   = "catalog.registered"
	TopicReplaced     = "catalog.replaced"
	TopicUnregistered = "catalog.unregistered"
	TopicActivation   = "catalog.activation"
	TopicCleared      = "catalog.cleared"
)

// Event is a catalog change as delivered to bus subscribers.
type Event struct {
	ID       string        `json:"id"`
	Topic    string        `json:"topic"`
	PluginID string        `json:"pluginId,omitempty"`
	Family   plugin.Family `json:"family,omitempty"`
	// PreviousFamily is set when a replacement moved the id between families.
	PreviousFamily plugin.Family          `json:"previousFamily,omitempty"`
	Previous       plugin.ActivationState `json:"previous,omitempty"`
	Current        plugin.ActivationState `json:"current,omitempty"`
	Timestamp      time.Time              `json:"timestamp"`
}

// EventHandler is the typed handler for events.
type EventHandler func(ctx context.Context, event Event) error

// Subscription represents an active event subscription.
type Subscription interface {
	Unsubscribe()
}

// TopicFor maps a catalog change kind to its bus topic.
func TopicFor(kind catalog.ChangeKind) string {
	switch kind {
	case catalog.ChangeRegistered:
		return TopicRegistered
	case catalog.ChangeReplaced:
		return TopicReplaced
	case catalog.ChangeUnregistered:
		return TopicUnregistered
	case catalog.ChangeActivation:
		return TopicActivation
	case catalog.ChangeCleared:
		return TopicCleared
	default:
		return "catalog." + kind.String()
	}
}
