package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	yaml := `
service:
  base_url: https://objects.example.com
  api_key: test-key
connection:
  backoff_initial: 250ms
  backoff_max: 10s
journal:
  enabled: true
  postgres:
    host: localhost
    port: 5432
    name: test_db
    user: testuser
    password: testpass
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Service.BaseURL != "https://objects.example.com" {
		t.Errorf("Service.BaseURL = %q, want %q", cfg.Service.BaseURL, "https://objects.example.com")
	}
	if cfg.Connection.BackoffInitial != 250*time.Millisecond {
		t.Errorf("Connection.BackoffInitial = %v, want %v", cfg.Connection.BackoffInitial, 250*time.Millisecond)
	}
	if cfg.Journal.Postgres.Host != "localhost" {
		t.Errorf("Journal.Postgres.Host = %q, want %q", cfg.Journal.Postgres.Host, "localhost")
	}
}

func TestLoadWithEnvSubstitution(t *testing.T) {
	t.Setenv("TEST_API_KEY", "secret123")

	yaml := `
service:
  base_url: https://objects.example.com
  api_key: ${TEST_API_KEY}
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Service.APIKey != "secret123" {
		t.Errorf("Service.APIKey = %q, want %q", cfg.Service.APIKey, "secret123")
	}
}

func TestLoadWithDefaults(t *testing.T) {
	yaml := `
service:
  base_url: https://objects.example.com
journal:
  enabled: true
  postgres:
    host: localhost
    name: test_db
    user: testuser
    password: testpass
`
	path := writeTempFile(t, yaml)

	cfg, err := LoadWithDefaults(path)
	if err != nil {
		t.Fatalf("LoadWithDefaults failed: %v", err)
	}

	// Check defaults were applied
	if cfg.Service.Timeout != DefaultAPITimeout {
		t.Errorf("Service.Timeout = %v, want default %v", cfg.Service.Timeout, DefaultAPITimeout)
	}
	if cfg.Connection.AutoReconnect == nil || !*cfg.Connection.AutoReconnect {
		t.Errorf("Connection.AutoReconnect = %v, want default true", cfg.Connection.AutoReconnect)
	}
	if cfg.Connection.BackoffInitial != DefaultBackoffInitial {
		t.Errorf("Connection.BackoffInitial = %v, want default %v", cfg.Connection.BackoffInitial, DefaultBackoffInitial)
	}
	if cfg.Journal.Postgres.Port != DefaultDBPort {
		t.Errorf("Journal.Postgres.Port = %d, want default %d", cfg.Journal.Postgres.Port, DefaultDBPort)
	}
	if cfg.Journal.Postgres.MaxConns != DefaultMaxConns {
		t.Errorf("Journal.Postgres.MaxConns = %d, want default %d", cfg.Journal.Postgres.MaxConns, DefaultMaxConns)
	}
	if cfg.Metrics.Port != DefaultMetricsPort {
		t.Errorf("Metrics.Port = %d, want default %d", cfg.Metrics.Port, DefaultMetricsPort)
	}
}

func TestAutoReconnectExplicitFalse(t *testing.T) {
	yaml := `
service:
  base_url: https://objects.example.com
connection:
  auto_reconnect: false
`
	path := writeTempFile(t, yaml)

	cfg, err := LoadWithDefaults(path)
	if err != nil {
		t.Fatalf("LoadWithDefaults failed: %v", err)
	}

	if cfg.Connection.AutoReconnect == nil || *cfg.Connection.AutoReconnect {
		t.Errorf("Connection.AutoReconnect = %v, want explicit false", cfg.Connection.AutoReconnect)
	}
}

func TestValidate(t *testing.T) {
	validConn := ConnectionConfig{
		BackoffInitial: DefaultBackoffInitial,
		BackoffMax:     DefaultBackoffMax,
		BufferSize:     DefaultBufferSize,
	}

	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name:    "missing base url",
			cfg:     Config{},
			wantErr: "service.base_url is required",
		},
		{
			name: "unsupported scheme",
			cfg: Config{
				Service:    ServiceConfig{BaseURL: "ftp://objects.example.com"},
				Connection: validConn,
			},
			wantErr: `service.base_url has unsupported scheme "ftp"`,
		},
		{
			name: "backoff initial exceeds max",
			cfg: Config{
				Service: ServiceConfig{BaseURL: "https://objects.example.com"},
				Connection: ConnectionConfig{
					BackoffInitial: time.Minute,
					BackoffMax:     time.Second,
					BufferSize:     100,
				},
			},
			wantErr: "connection.backoff_initial (1m0s) cannot exceed backoff_max (1s)",
		},
		{
			name: "journal enabled without postgres host",
			cfg: Config{
				Service:    ServiceConfig{BaseURL: "https://objects.example.com"},
				Connection: validConn,
				Journal:    JournalConfig{Enabled: true},
			},
			wantErr: "journal.postgres.host is required",
		},
		{
			name: "min_conns exceeds max_conns",
			cfg: Config{
				Service:    ServiceConfig{BaseURL: "https://objects.example.com"},
				Connection: validConn,
				Journal: JournalConfig{
					Enabled:    true,
					Postgres:   DBConfig{Host: "localhost", Name: "db", User: "user", Password: "pass", MaxConns: 5, MinConns: 10},
					BatchSize:  1000,
					BufferSize: 10000,
				},
			},
			wantErr: "journal.postgres.min_conns (10) cannot exceed max_conns (5)",
		},
		{
			name: "metrics port out of range",
			cfg: Config{
				Service:    ServiceConfig{BaseURL: "https://objects.example.com"},
				Connection: validConn,
				Metrics:    MetricsConfig{Enabled: true, Port: 70000},
			},
			wantErr: "metrics.port must be between 1 and 65535, got 70000",
		},
		{
			name: "valid config",
			cfg: Config{
				Service:    ServiceConfig{BaseURL: "https://objects.example.com"},
				Connection: validConn,
				Journal: JournalConfig{
					Enabled:    true,
					Postgres:   DBConfig{Host: "localhost", Name: "db", User: "user", Password: "pass", MaxConns: 10, MinConns: 2},
					BatchSize:  1000,
					BufferSize: 10000,
				},
				Metrics: MetricsConfig{Enabled: true, Port: 9090},
			},
			wantErr: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
			} else {
				if err == nil {
					t.Errorf("Validate() expected error containing %q, got nil", tt.wantErr)
				} else if err.Error() != tt.wantErr {
					t.Errorf("Validate() error = %q, want %q", err.Error(), tt.wantErr)
				}
			}
		})
	}
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}
