package dobject

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/edgeobj/dobject-go/connection"
)

// WebSocketURL resolves the streaming endpoint for an object: the base URL
// with its scheme rewritten to ws(s) and the object's socket path appended.
func (c *Client) WebSocketURL(objectID string) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
		// Already a WebSocket URL.
	default:
		return "", fmt.Errorf("unsupported scheme %q in base url", u.Scheme)
	}

	u.Path = strings.TrimRight(u.Path, "/") + "/objects/" + url.PathEscape(objectID) + "/websocket"

	return u.String(), nil
}

// ConnectOption adjusts the actor config used by Connect.
type ConnectOption func(*connection.ActorConfig)

// WithActorConfig applies fn to the actor config before the actor is created.
func WithActorConfig(fn func(*connection.ActorConfig)) ConnectOption {
	return fn
}

// Connect returns the live connection actor for objectID, creating one if
// none exists. The actor starts dialing immediately; subscribe to it for
// lifecycle events and inbound frames.
func (c *Client) Connect(objectID string, opts ...ConnectOption) (*connection.Actor, error) {
	wsu, err := c.WebSocketURL(objectID)
	if err != nil {
		return nil, err
	}

	cfg := connection.DefaultActorConfig(wsu)
	cfg.Transport.Token = c.apiKey
	for _, opt := range opts {
		opt(&cfg)
	}

	return c.conns.GetOrCreate(objectID, cfg)
}

// Disconnect stops the actor for objectID, if any.
func (c *Client) Disconnect(objectID string) error {
	return c.conns.Stop(objectID)
}
