package connection

import (
	"errors"
	"log/slog"
	"time"
)

// Errors
var (
	ErrInvalidConfig   = errors.New("invalid config")
	ErrNotConnected    = errors.New("not connected")
	ErrActorStopped    = errors.New("actor stopped")
	ErrNotFound        = errors.New("no actor for object id")
	ErrStaleConnection = errors.New("connection stale (no ping)")
	ErrAlreadyClosed   = errors.New("already closed")
)

// Status is the connection state of an actor.
type Status int

const (
	StatusDisconnected Status = iota
	StatusConnecting
	StatusConnected
)

func (s Status) String() string {
	switch s {
	case StatusDisconnected:
		return "disconnected"
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	default:
		return "unknown"
	}
}

// EventType identifies an event delivered to subscribers.
type EventType int

const (
	// EventConnected is delivered after the transport opens.
	EventConnected EventType = iota

	// EventDisconnected is delivered after the transport drops or fails to
	// open. Reason carries the cause.
	EventDisconnected

	// EventMessage carries one inbound frame, verbatim.
	EventMessage
)

func (t EventType) String() string {
	switch t {
	case EventConnected:
		return "connected"
	case EventDisconnected:
		return "disconnected"
	case EventMessage:
		return "message"
	default:
		return "unknown"
	}
}

// Event is what subscribers receive: lifecycle transitions and raw frames,
// tagged with the actor that produced them. Payloads are never parsed here.
type Event struct {
	ObjectID   string
	Type       EventType
	Data       []byte    // EventMessage only
	Reason     error     // EventDisconnected only
	ReceivedAt time.Time // Local timestamp when the actor processed the event
}

// TimestampedMessage wraps raw frame data with its receive timestamp.
type TimestampedMessage struct {
	Data       []byte    // Raw frame bytes from the WebSocket
	ReceivedAt time.Time // Local timestamp when the read returned
}

// TransportConfig configures a single WebSocket transport.
type TransportConfig struct {
	URL          string        // WebSocket URL (set by the actor)
	Token        string        // Bearer token for the Authorization header
	PingInterval time.Duration // Interval between keepalive pings
	PingTimeout  time.Duration // Max time without ping/pong before the connection is stale
	WriteTimeout time.Duration // Write deadline for sends
	BufferSize   int           // Inbound message channel buffer size
}

// DefaultTransportConfig returns sensible defaults.
func DefaultTransportConfig() TransportConfig {
	return TransportConfig{
		PingInterval: 15 * time.Second,
		PingTimeout:  60 * time.Second,
		WriteTimeout: 5 * time.Second,
		BufferSize:   1000,
	}
}

// TransportFactory builds the transport an actor dials with. Overridable in
// tests; production actors use NewTransport.
type TransportFactory func(cfg TransportConfig, logger *slog.Logger) Transport

// ActorConfig configures a connection actor.
type ActorConfig struct {
	URL            string          // Fully-resolved WebSocket URL
	AutoReconnect  bool            // Schedule reconnects after a disconnect
	BackoffInitial time.Duration   // First reconnect delay
	BackoffMax     time.Duration   // Cap for doubled reconnect delays
	Transport      TransportConfig // Settings for each dialed transport
	Factory        TransportFactory
}

// DefaultActorConfig returns an actor config with reconnection enabled.
func DefaultActorConfig(url string) ActorConfig {
	return ActorConfig{
		URL:            url,
		AutoReconnect:  true,
		BackoffInitial: 500 * time.Millisecond,
		BackoffMax:     30 * time.Second,
		Transport:      DefaultTransportConfig(),
	}
}

// ActorStats is a snapshot of one actor's state.
type ActorStats struct {
	ObjectID    string
	Status      Status
	Subscribers int
	DialCount   int64         // Transport open attempts since creation
	NextBackoff time.Duration // Delay the next scheduled reconnect would use
	LastError   error         // Most recent transport failure, nil after a clean connect
}
