package config

import (
	"os"
	"testing"
	"time"
)

// validConfig returns a configuration that passes Validate.
func validConfig() *Config {
	return &Config{
		Server: ServerConfig{Port: "8080", Env: "development"},
		Database: DatabaseConfig{
			Host: "localhost", Port: "5432", Name: "deedchain",
			User: "postgres", Password: "postgres", PoolMin: 2, PoolMax: 10,
		},
		CORS: CORSConfig{Origins: []string{"http://localhost:3000"}},
		Settlement: SettlementConfig{
			MinDelay:     time.Second,
			MaxDelay:     3 * time.Second,
			Timeout:      30 * time.Second,
			ExplorerHost: "sepolia.etherscan.io",
		},
		Storage: StorageConfig{Dir: "./data", PublicBaseURL: "http://localhost:8080/documents"},
		Tracing: TracingConfig{Exporter: "stdout"},
	}
}

func TestLoad_WithDefaults(t *testing.T) {
	clearConfigEnvVars()

	// Password has no default
	t.Setenv("DB_PASSWORD", "testpass")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("Expected port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Server.Env != "development" {
		t.Errorf("Expected env development, got %s", cfg.Server.Env)
	}
	if cfg.Database.Name != "deedchain" {
		t.Errorf("Expected db name deedchain, got %s", cfg.Database.Name)
	}
	if cfg.Database.PoolMin != 2 || cfg.Database.PoolMax != 10 {
		t.Errorf("Expected pool 2..10, got %d..%d", cfg.Database.PoolMin, cfg.Database.PoolMax)
	}
	if len(cfg.CORS.Origins) != 2 {
		t.Errorf("Expected 2 CORS origins, got %d", len(cfg.CORS.Origins))
	}
	if cfg.Settlement.Timeout != 30*time.Second {
		t.Errorf("Expected settlement timeout 30s, got %s", cfg.Settlement.Timeout)
	}
	if cfg.Settlement.MinDelay != time.Second || cfg.Settlement.MaxDelay != 3*time.Second {
		t.Errorf("Expected settlement delay 1s..3s, got %s..%s", cfg.Settlement.MinDelay, cfg.Settlement.MaxDelay)
	}
	if cfg.Settlement.ExplorerHost != "sepolia.etherscan.io" {
		t.Errorf("Expected default explorer host, got %s", cfg.Settlement.ExplorerHost)
	}
	if cfg.Storage.PublicBaseURL != "http://localhost:8080/documents" {
		t.Errorf("Unexpected storage base URL %s", cfg.Storage.PublicBaseURL)
	}
	if cfg.Redis.Addr != "" {
		t.Errorf("Expected Redis to be disabled by default, got %s", cfg.Redis.Addr)
	}
	if cfg.Tracing.Enabled {
		t.Error("Expected tracing to be disabled by default")
	}
}

func TestLoad_WithEnvironmentVariables(t *testing.T) {
	clearConfigEnvVars()

	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_PASSWORD", "testpass")
	t.Setenv("DB_POOL_MIN", "5")
	t.Setenv("DB_POOL_MAX", "20")
	t.Setenv("CORS_ORIGINS", "http://example.com,https://app.example.com")
	t.Setenv("SETTLEMENT_MIN_DELAY", "0s")
	t.Setenv("SETTLEMENT_MAX_DELAY", "500ms")
	t.Setenv("SETTLEMENT_TIMEOUT", "10s")
	t.Setenv("STORAGE_PUBLIC_BASE_URL", "https://cdn.example.com/docs/")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("LOCK_TTL", "45s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("Expected port 9090, got %s", cfg.Server.Port)
	}
	if cfg.Server.Env != "production" {
		t.Errorf("Expected env production, got %s", cfg.Server.Env)
	}
	if cfg.Database.PoolMin != 5 || cfg.Database.PoolMax != 20 {
		t.Errorf("Expected pool 5..20, got %d..%d", cfg.Database.PoolMin, cfg.Database.PoolMax)
	}
	if cfg.CORS.Origins[0] != "http://example.com" {
		t.Errorf("Expected first origin http://example.com, got %s", cfg.CORS.Origins[0])
	}
	if cfg.Settlement.MaxDelay != 500*time.Millisecond {
		t.Errorf("Expected max delay 500ms, got %s", cfg.Settlement.MaxDelay)
	}
	if cfg.Settlement.Timeout != 10*time.Second {
		t.Errorf("Expected timeout 10s, got %s", cfg.Settlement.Timeout)
	}
	if cfg.Storage.PublicBaseURL != "https://cdn.example.com/docs" {
		t.Errorf("Expected trailing slash to be trimmed, got %s", cfg.Storage.PublicBaseURL)
	}
	if cfg.Redis.Addr != "localhost:6379" || cfg.Redis.LockTTL != 45*time.Second {
		t.Errorf("Unexpected redis config %+v", cfg.Redis)
	}
}

func TestLoad_MissingPassword(t *testing.T) {
	clearConfigEnvVars()

	_, err := Load()
	if err == nil {
		t.Error("Expected error when DB_PASSWORD is missing")
	}
}

func TestValidate_InvalidPoolSizes(t *testing.T) {
	tests := []struct {
		name    string
		poolMin int
		poolMax int
		wantErr bool
	}{
		{name: "negative pool min", poolMin: -1, poolMax: 10, wantErr: true},
		{name: "zero pool max", poolMin: 0, poolMax: 0, wantErr: true},
		{name: "pool min greater than max", poolMin: 15, poolMax: 10, wantErr: true},
		{name: "valid pool sizes", poolMin: 2, poolMax: 10, wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Database.PoolMin = tt.poolMin
			cfg.Database.PoolMax = tt.poolMax

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_MissingRequiredFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{name: "missing port", mutate: func(c *Config) { c.Server.Port = "" }},
		{name: "missing db host", mutate: func(c *Config) { c.Database.Host = "" }},
		{name: "missing db password", mutate: func(c *Config) { c.Database.Password = "" }},
		{name: "missing CORS origins", mutate: func(c *Config) { c.CORS.Origins = []string{} }},
		{name: "negative settlement delay", mutate: func(c *Config) { c.Settlement.MinDelay = -time.Second }},
		{name: "max delay below min delay", mutate: func(c *Config) { c.Settlement.MaxDelay = 0 }},
		{name: "zero settlement timeout", mutate: func(c *Config) { c.Settlement.Timeout = 0 }},
		{name: "missing explorer host", mutate: func(c *Config) { c.Settlement.ExplorerHost = "" }},
		{name: "missing storage dir", mutate: func(c *Config) { c.Storage.Dir = "" }},
		{name: "missing storage base URL", mutate: func(c *Config) { c.Storage.PublicBaseURL = "" }},
		{name: "redis without lock TTL", mutate: func(c *Config) { c.Redis.Addr = "localhost:6379" }},
		{name: "unknown tracing exporter", mutate: func(c *Config) { c.Tracing.Exporter = "jaeger" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Expected validation error but got none")
			}
		})
	}
}

func TestParseOrigins(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect []string
	}{
		{name: "single origin", input: "http://localhost:3000", expect: []string{"http://localhost:3000"}},
		{
			name:   "origins with spaces",
			input:  " http://localhost:3000 , http://localhost:3001 ",
			expect: []string{"http://localhost:3000", "http://localhost:3001"},
		},
		{name: "empty string", input: "", expect: []string{}},
		{name: "only commas", input: ",,,", expect: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseOrigins(tt.input)
			if len(result) != len(tt.expect) {
				t.Errorf("Expected %d origins, got %d", len(tt.expect), len(result))
				return
			}
			for i, origin := range result {
				if origin != tt.expect[i] {
					t.Errorf("Expected origin %s at index %d, got %s", tt.expect[i], i, origin)
				}
			}
		})
	}
}

// clearConfigEnvVars unsets every variable Load reads so defaults apply.
func clearConfigEnvVars() {
	for _, key := range []string{
		"PORT", "ENV", "DB_HOST", "DB_PORT", "DB_NAME", "DB_USER", "DB_PASSWORD",
		"DB_POOL_MIN", "DB_POOL_MAX", "DB_AUTO_MIGRATE", "CORS_ORIGINS",
		"SETTLEMENT_MIN_DELAY", "SETTLEMENT_MAX_DELAY", "SETTLEMENT_TIMEOUT", "EXPLORER_HOST",
		"STORAGE_DIR", "STORAGE_PUBLIC_BASE_URL", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
		"LOCK_TTL", "TRACING_ENABLED", "TRACING_EXPORTER", "TRACING_SERVICE_NAME",
	} {
		os.Unsetenv(key)
	}
}
