package dobject

import (
	"encoding/json"
	"fmt"
)

// Envelope is the JSON envelope carried on both the HTTP and WebSocket paths.
type Envelope struct {
	Type string          `json:"type"`
	ID   string          `json:"id,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Envelope types used by the service.
const (
	TypeInit   = "init"
	TypeCall   = "call"
	TypeResult = "result"
	TypeError  = "error"
)

// ObjectInfo describes one durable object, from GET /objects.
type ObjectInfo struct {
	ID        string `json:"id"`
	CreatedAt string `json:"created_at,omitempty"`
	Class     string `json:"class,omitempty"`
}

// listObjectsResponse from GET /objects.
type listObjectsResponse struct {
	Objects []ObjectInfo `json:"objects"`
}

// stateValue wraps a single key's value on the state endpoints.
type stateValue struct {
	Value json.RawMessage `json:"value"`
}

// CallError is an application-level failure reported by the object itself, as
// opposed to a transport or HTTP failure.
type CallError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *CallError) Error() string {
	return fmt.Sprintf("object call failed: %s: %s", e.Code, e.Message)
}
