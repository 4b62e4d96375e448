package dobject

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/google/uuid"
)

// Init initializes a durable object with the given data. Initializing an
// already-initialized object is up to the service; errors come back as
// APIError.
func (c *Client) Init(ctx context.Context, objectID string, data any) error {
	env, err := newEnvelope(TypeInit, data)
	if err != nil {
		return err
	}

	path := "/objects/" + url.PathEscape(objectID) + "/init"
	if err := c.post(ctx, path, env, nil); err != nil {
		return fmt.Errorf("init object %s: %w", objectID, err)
	}

	return nil
}

// Call invokes a method on a durable object and returns its raw result. An
// error envelope from the object surfaces as *CallError.
func (c *Client) Call(ctx context.Context, objectID, method string, args any) (json.RawMessage, error) {
	env, err := newEnvelope(TypeCall, args)
	if err != nil {
		return nil, err
	}

	path := "/objects/" + url.PathEscape(objectID) + "/call/" + url.PathEscape(method)

	var resp Envelope
	if err := c.post(ctx, path, env, &resp); err != nil {
		return nil, fmt.Errorf("call %s on object %s: %w", method, objectID, err)
	}

	if resp.Type == TypeError {
		callErr := &CallError{}
		if err := json.Unmarshal(resp.Data, callErr); err != nil {
			return nil, fmt.Errorf("call %s on object %s: undecodable error envelope", method, objectID)
		}
		return nil, fmt.Errorf("call %s on object %s: %w", method, objectID, callErr)
	}

	return resp.Data, nil
}

// ListObjects returns all objects visible to this client.
func (c *Client) ListObjects(ctx context.Context) ([]ObjectInfo, error) {
	var resp listObjectsResponse
	if err := c.get(ctx, "/objects", nil, &resp); err != nil {
		return nil, fmt.Errorf("list objects: %w", err)
	}

	return resp.Objects, nil
}

// newEnvelope wraps data in a request envelope with a fresh request id.
func newEnvelope(envType string, data any) (*Envelope, error) {
	env := &Envelope{
		Type: envType,
		ID:   uuid.NewString(),
	}

	if data != nil {
		payload, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("encode envelope data: %w", err)
		}
		env.Data = payload
	}

	return env, nil
}
