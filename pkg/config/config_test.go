package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, StorageSQLite, cfg.StorageDriver)
	assert.Equal(t, AuthJWT, cfg.AuthProvider)
	assert.Equal(t, 24*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, 64, cfg.WSSendBuffer)
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.NeedsFirebase())
}

func TestLoad_ReadsEnvironment(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("WS_WRITE_TIMEOUT", "3s")
	t.Setenv("MESSAGE_RATE_BURST", "2")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, 3*time.Second, cfg.WSWriteTimeout)
	assert.Equal(t, 2, cfg.MessageRateBurst)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "unknown storage driver",
			mutate:  func(c *Config) { c.StorageDriver = "mongo" },
			wantErr: "unknown STORAGE_DRIVER",
		},
		{
			name:    "firestore without project",
			mutate:  func(c *Config) { c.StorageDriver = StorageFirestore },
			wantErr: "FIREBASE_PROJECT_ID",
		},
		{
			name: "default secret in production",
			mutate: func(c *Config) {
				c.Environment = "production"
			},
			wantErr: "JWT_SECRET",
		},
		{
			name:    "unknown auth provider",
			mutate:  func(c *Config) { c.AuthProvider = "ldap" },
			wantErr: "unknown AUTH_PROVIDER",
		},
		{
			name: "firestore with project",
			mutate: func(c *Config) {
				c.StorageDriver = StorageFirestore
				c.FirebaseProject = "campus"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Environment:   "development",
				StorageDriver: StorageSQLite,
				SQLitePath:    "test.db",
				AuthProvider:  AuthJWT,
				JWTSecret:     "development-secret",
				WSSendBuffer:  8,
			}
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
