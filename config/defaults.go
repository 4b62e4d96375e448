package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultAPITimeout     = 30 * time.Second
	DefaultMaxRetries     = 3
	DefaultBackoffInitial = 500 * time.Millisecond
	DefaultBackoffMax     = 30 * time.Second
	DefaultPingInterval   = 15 * time.Second
	DefaultPingTimeout    = 60 * time.Second
	DefaultWriteTimeout   = 5 * time.Second
	DefaultBufferSize     = 1000
	DefaultDBPort         = 5432
	DefaultDBSSLMode      = "prefer"
	DefaultMaxConns       = 10
	DefaultMinConns       = 2
	DefaultBatchSize      = 1000
	DefaultFlushInterval  = 1 * time.Second
	DefaultJournalBuffer  = 10000
	DefaultMetricsPort    = 9090
	DefaultMetricsPath    = "/metrics"
)

func (c *Config) applyDefaults() {
	// Service defaults
	if c.Service.Timeout == 0 {
		c.Service.Timeout = DefaultAPITimeout
	}
	if c.Service.MaxRetries == 0 {
		c.Service.MaxRetries = DefaultMaxRetries
	}

	// Connection defaults
	if c.Connection.AutoReconnect == nil {
		enabled := true
		c.Connection.AutoReconnect = &enabled
	}
	if c.Connection.BackoffInitial == 0 {
		c.Connection.BackoffInitial = DefaultBackoffInitial
	}
	if c.Connection.BackoffMax == 0 {
		c.Connection.BackoffMax = DefaultBackoffMax
	}
	if c.Connection.PingInterval == 0 {
		c.Connection.PingInterval = DefaultPingInterval
	}
	if c.Connection.PingTimeout == 0 {
		c.Connection.PingTimeout = DefaultPingTimeout
	}
	if c.Connection.WriteTimeout == 0 {
		c.Connection.WriteTimeout = DefaultWriteTimeout
	}
	if c.Connection.BufferSize == 0 {
		c.Connection.BufferSize = DefaultBufferSize
	}

	// Journal defaults
	applyDBDefaults(&c.Journal.Postgres)
	if c.Journal.BatchSize == 0 {
		c.Journal.BatchSize = DefaultBatchSize
	}
	if c.Journal.FlushInterval == 0 {
		c.Journal.FlushInterval = DefaultFlushInterval
	}
	if c.Journal.BufferSize == 0 {
		c.Journal.BufferSize = DefaultJournalBuffer
	}

	// Metrics defaults
	if c.Metrics.Port == 0 {
		c.Metrics.Port = DefaultMetricsPort
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
