// Package database provides the PostgreSQL connection pool used by the
// event journal. The journal stores every connection event observed by
// the client in the object_events table for offline replay and audit.
package database
