package config

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.JWT.AccessTTL != 15*time.Minute {
		t.Errorf("AccessTTL = %v, want 15m", cfg.JWT.AccessTTL)
	}
	if cfg.JWT.RefreshTTL != 7*24*time.Hour {
		t.Errorf("RefreshTTL = %v, want 168h", cfg.JWT.RefreshTTL)
	}
	if cfg.Cookie.Name != "refreshToken" {
		t.Errorf("Cookie.Name = %q, want refreshToken", cfg.Cookie.Name)
	}
	if cfg.IsProduction() {
		t.Error("default environment should not be production")
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_ACCESS_SECRET", "prod-access")
	t.Setenv("JWT_REFRESH_SECRET", "prod-refresh")
	t.Setenv("SEED_ADMIN_PASSWORD", "Pr0d-Admin!")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("JWT_ACCESS_TTL", "5m")
	t.Setenv("DB_MAX_OPEN_CONNS", "not-a-number")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if !cfg.IsProduction() {
		t.Error("expected production environment")
	}
	if cfg.Database.Port != 6543 {
		t.Errorf("Database.Port = %d, want 6543", cfg.Database.Port)
	}
	if !cfg.Redis.Enabled {
		t.Error("expected redis enabled")
	}
	if cfg.JWT.AccessTTL != 5*time.Minute {
		t.Errorf("AccessTTL = %v, want 5m", cfg.JWT.AccessTTL)
	}
	if cfg.Database.MaxOpenConns != 50 {
		t.Errorf("invalid int should fall back to default, got %d", cfg.Database.MaxOpenConns)
	}
	if got := cfg.RedisAddress(); got != "localhost:6379" {
		t.Errorf("RedisAddress() = %q", got)
	}
}

func TestLoadConfigRejectsSharedSecret(t *testing.T) {
	t.Setenv("JWT_ACCESS_SECRET", "same")
	t.Setenv("JWT_REFRESH_SECRET", "same")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error when access and refresh secrets are equal")
	}
}

func TestLoadConfigProductionRequiresSecrets(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr bool
	}{
		{name: "all defaults", env: map[string]string{}, wantErr: true},
		{name: "default refresh secret", env: map[string]string{
			"JWT_ACCESS_SECRET": "prod-access", "SEED_ADMIN_PASSWORD": "Pr0d-Admin!"}, wantErr: true},
		{name: "default access secret", env: map[string]string{
			"JWT_REFRESH_SECRET": "prod-refresh", "SEED_ADMIN_PASSWORD": "Pr0d-Admin!"}, wantErr: true},
		{name: "default seed password", env: map[string]string{
			"JWT_ACCESS_SECRET": "prod-access", "JWT_REFRESH_SECRET": "prod-refresh"}, wantErr: true},
		{name: "seeding disabled", env: map[string]string{
			"JWT_ACCESS_SECRET": "prod-access", "JWT_REFRESH_SECRET": "prod-refresh", "SEED_ENABLED": "false"}},
		{name: "everything explicit", env: map[string]string{
			"JWT_ACCESS_SECRET": "prod-access", "JWT_REFRESH_SECRET": "prod-refresh", "SEED_ADMIN_PASSWORD": "Pr0d-Admin!"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("APP_ENV", "production")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := LoadConfig()
			if (err != nil) != tt.wantErr {
				t.Errorf("LoadConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadConfigDevelopmentKeepsDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.JWT.AccessSecret != defaultAccessSecret || cfg.Seed.AdminPassword != defaultSeedPassword {
		t.Error("development should fall back to the built-in defaults")
	}
}
