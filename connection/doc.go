// Package connection manages persistent WebSocket connections to durable objects.
//
// Each logical object gets one Actor: a goroutine that owns the socket for its
// full lifecycle and mediates all traffic for it. The actor:
//   - Dials the object's WebSocket URL as soon as it is created
//   - Fans every inbound frame and lifecycle transition out to subscribers
//   - Reconnects with exponential backoff when the transport drops
//
// The Supervisor keeps at most one live actor per object id and hands out
// handles to callers. Frames are delivered as opaque bytes; envelope decoding
// belongs to the dobject package, never here.
package connection
