// Package metrics provides Prometheus metrics for monitoring.
//
// Key metrics:
//   - Per-object connection status
//   - Reconnect and dial attempt counts
//   - Inbound message and lifecycle event rates
package metrics
