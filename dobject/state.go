package dobject

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
)

// GetState fetches the value stored under key on an object.
func (c *Client) GetState(ctx context.Context, objectID, key string) (json.RawMessage, error) {
	var resp stateValue
	if err := c.get(ctx, statePath(objectID, key), nil, &resp); err != nil {
		return nil, fmt.Errorf("get state %s/%s: %w", objectID, key, err)
	}

	return resp.Value, nil
}

// PutState stores value under key on an object, replacing any previous value.
func (c *Client) PutState(ctx context.Context, objectID, key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode state value: %w", err)
	}

	body := stateValue{Value: payload}
	if err := c.put(ctx, statePath(objectID, key), body); err != nil {
		return fmt.Errorf("put state %s/%s: %w", objectID, key, err)
	}

	return nil
}

// DeleteState removes key from an object's state. Deleting a missing key
// surfaces whatever the service reports, typically a 404 APIError.
func (c *Client) DeleteState(ctx context.Context, objectID, key string) error {
	if err := c.del(ctx, statePath(objectID, key)); err != nil {
		return fmt.Errorf("delete state %s/%s: %w", objectID, key, err)
	}

	return nil
}

func statePath(objectID, key string) string {
	return "/objects/" + url.PathEscape(objectID) + "/state/" + url.PathEscape(key)
}
