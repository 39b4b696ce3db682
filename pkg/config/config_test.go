package config

import "testing"

func TestToEnvKey(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"database_url", "database_url"},
		{"http-port", "http_port"},
		{"catchUpBatch", "catch_Up_Batch"},
	}

	for _, tt := range tests {
		if got := toEnvKey(tt.key); got != tt.want {
			t.Errorf("toEnvKey(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "valid",
			cfg: Config{
				Store: StoreConfig{URL: "postgresql://localhost/db"},
				Node:  NodeConfig{URL: "http://127.0.0.1:12037", MaxBatch: 50, MaxWorkers: 4},
				HTTP:  HTTPConfig{Port: 8080},
			},
			wantErr: false,
		},
		{
			name: "missing store url",
			cfg: Config{
				Node: NodeConfig{URL: "http://127.0.0.1:12037", MaxBatch: 50, MaxWorkers: 4},
				HTTP: HTTPConfig{Port: 8080},
			},
			wantErr: true,
		},
		{
			name: "missing node url",
			cfg: Config{
				Store: StoreConfig{URL: "postgresql://localhost/db"},
				Node:  NodeConfig{MaxBatch: 50, MaxWorkers: 4},
				HTTP:  HTTPConfig{Port: 8080},
			},
			wantErr: true,
		},
		{
			name: "batch out of range",
			cfg: Config{
				Store: StoreConfig{URL: "postgresql://localhost/db"},
				Node:  NodeConfig{URL: "http://127.0.0.1:12037", MaxBatch: 0, MaxWorkers: 4},
				HTTP:  HTTPConfig{Port: 8080},
			},
			wantErr: true,
		},
		{
			name: "bad port",
			cfg: Config{
				Store: StoreConfig{URL: "postgresql://localhost/db"},
				Node:  NodeConfig{URL: "http://127.0.0.1:12037", MaxBatch: 50, MaxWorkers: 4},
				HTTP:  HTTPConfig{Port: 0},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestIsLoopback(t *testing.T) {
	tests := []struct {
		host string
		want bool
	}{
		{"127.0.0.1", true},
		{"localhost", true},
		{"::1", true},
		{"", true},
		{"explorer.example.com", false},
		{"0.0.0.0", false},
	}

	for _, tt := range tests {
		if got := IsLoopback(tt.host); got != tt.want {
			t.Errorf("IsLoopback(%q) = %v, want %v", tt.host, got, tt.want)
		}
	}
}
