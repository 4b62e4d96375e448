// Package dobject is the high-level client for a durable object service.
//
// It maps domain calls onto the service's HTTP API (initialize, method
// invocation, key-value state) and builds WebSocket URLs for the streaming
// side, delegating socket lifecycle to a connection.Supervisor. Requests and
// responses travel in a {type, id, data} JSON envelope; envelope handling
// lives here so the connection layer can stay payload-agnostic.
package dobject
