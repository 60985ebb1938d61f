// Package events defines the wire format shared by every service: a JSON
// envelope {type, data, timestamp} published to Kafka with the short code as
// partition key.
package events

import (
	"encoding/json"
	"fmt"
	"time"
)

// Topics the services publish to and consume from.
const (
	TopicURLEvents = "url.events"
	TopicURLClicks = "url.clicks"
)

// Known event types. Consumers must tolerate values outside this set.
const (
	TypeURLCreated = "url.created"
	TypeURLClicked = "url.clicked"
)

// Sentinel values for optional click fields so downstream aggregation never
// deals with absent data.
const (
	UnknownUserAgent = "unknown"
	UnknownReferer   = "unknown"
	UnknownIPAddress = "0.0.0.0"
)

// Envelope is the raw wire shape of every published event.
type Envelope struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// Event is the decoded form of an envelope. Exactly one of the concrete
// types below is produced per envelope; unrecognized types decode to
// Unknown rather than failing.
type Event interface {
	// EventType returns the wire type string.
	EventType() string
	// PartitionKey returns the key used to route the event, the short code.
	PartitionKey() string
}

// Compile-time interface checks
var (
	_ Event = URLCreated{}
	_ Event = URLClicked{}
	_ Event = Unknown{}
)

// URLCreated is published by the shorten service after a registry write
// commits. Both the cache warmer and the analytics indexer consume it.
type URLCreated struct {
	Code        string    `json:"code"`
	OriginalURL string    `json:"original_url"`
	CreatedAt   time.Time `json:"created_at"`
}

func (e URLCreated) EventType() string    { return TypeURLCreated }
func (e URLCreated) PartitionKey() string { return e.Code }

// URLClicked is published by the redirect service after a redirect response
// is prepared. Optional fields are always populated with sentinel values.
type URLClicked struct {
	Code        string    `json:"code"`
	OriginalURL string    `json:"original_url"`
	Timestamp   time.Time `json:"timestamp"`
	UserAgent   string    `json:"user_agent"`
	IPAddress   string    `json:"ip_address"`
	Referer     string    `json:"referer"`
}

func (e URLClicked) EventType() string    { return TypeURLClicked }
func (e URLClicked) PartitionKey() string { return e.Code }

// Unknown carries an event type this version of the code does not recognize.
// Consumers ignore it instead of crashing so new event types can be rolled
// out producer-first.
type Unknown struct {
	Type string
}

func (e Unknown) EventType() string    { return e.Type }
func (e Unknown) PartitionKey() string { return "" }

// Encode wraps an event in its envelope and marshals it for the wire.
func Encode(e Event, at time.Time) ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", e.EventType(), err)
	}
	return json.Marshal(Envelope{
		Type:      e.EventType(),
		Data:      data,
		Timestamp: at.UTC(),
	})
}

// Decode parses an envelope once at the bus boundary and returns the typed
// event. An unrecognized type is not an error.
func Decode(raw []byte) (Event, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("unmarshal envelope: %w", err)
	}

	switch env.Type {
	case TypeURLCreated:
		var e URLCreated
		if err := json.Unmarshal(env.Data, &e); err != nil {
			return nil, fmt.Errorf("unmarshal %s payload: %w", env.Type, err)
		}
		return e, nil
	case TypeURLClicked:
		var e URLClicked
		if err := json.Unmarshal(env.Data, &e); err != nil {
			return nil, fmt.Errorf("unmarshal %s payload: %w", env.Type, err)
		}
		return e, nil
	default:
		return Unknown{Type: env.Type}, nil
	}
}
