package config

import (
	"encoding/hex"
	"os"
	"sync"
	"testing"
)

// ---------------------------------------------------------------------------
// ApplyEnvOverrides
// ---------------------------------------------------------------------------

// envVars lists every variable ApplyEnvOverrides reads.
var envVars = []string{
	"PIMONITOR_SMTP_PASSWORD",
	"PIMONITOR_AUTH_TOKEN",
	"PIMONITOR_LOG_LEVEL",
	"PIMONITOR_PAUSE_FILE",
}

func Test_ApplyEnvOverrides_Cases(t *testing.T) {
	tests := []struct {
		name     string
		env      map[string]string // variables to set; all others are unset
		initial  Config
		validate func(t *testing.T, cfg *Config)
	}{
		{
			name: "no variables leaves config untouched",
			initial: Config{
				Email:  EmailConfig{Password: "file"},
				Server: ServerConfig{AuthToken: "existing", Port: 9090},
				Log:    LogConfig{Level: "info"},
				Paths:  PathsConfig{PauseFile: "pause.json"},
			},
			validate: func(t *testing.T, cfg *Config) {
				t.Helper()
				if cfg.Email.Password != "file" || cfg.Server.AuthToken != "existing" {
					t.Errorf("secrets changed: %q / %q", cfg.Email.Password, cfg.Server.AuthToken)
				}
				if cfg.Server.Port != 9090 || cfg.Log.Level != "info" || cfg.Paths.PauseFile != "pause.json" {
					t.Errorf("config changed: %+v", cfg)
				}
			},
		},
		{
			name: "every variable overrides its field",
			env: map[string]string{
				"PIMONITOR_SMTP_PASSWORD": "smtp-secret",
				"PIMONITOR_AUTH_TOKEN":    "new-token",
				"PIMONITOR_LOG_LEVEL":     "debug",
				"PIMONITOR_PAUSE_FILE":    "/run/pause.json",
			},
			initial: Config{
				Email:  EmailConfig{Password: "file"},
				Server: ServerConfig{AuthToken: "old"},
				Log:    LogConfig{Level: "info"},
				Paths:  PathsConfig{PauseFile: "pause.json"},
			},
			validate: func(t *testing.T, cfg *Config) {
				t.Helper()
				if cfg.Email.Password != "smtp-secret" {
					t.Errorf("Email.Password = %q", cfg.Email.Password)
				}
				if cfg.Server.AuthToken != "new-token" {
					t.Errorf("Server.AuthToken = %q", cfg.Server.AuthToken)
				}
				if cfg.Log.Level != "debug" {
					t.Errorf("Log.Level = %q", cfg.Log.Level)
				}
				if cfg.Paths.PauseFile != "/run/pause.json" {
					t.Errorf("Paths.PauseFile = %q", cfg.Paths.PauseFile)
				}
			},
		},
		{
			name: "empty variable does not clear existing value",
			env:  map[string]string{"PIMONITOR_AUTH_TOKEN": ""},
			initial: Config{
				Server: ServerConfig{AuthToken: "existing"},
			},
			validate: func(t *testing.T, cfg *Config) {
				t.Helper()
				if cfg.Server.AuthToken != "existing" {
					t.Errorf("Server.AuthToken = %q, want existing", cfg.Server.AuthToken)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, k := range envVars {
				// Register cleanup via t.Setenv, then immediately remove
				// the variable so os.LookupEnv returns (_, false).
				t.Setenv(k, "")
				os.Unsetenv(k)
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg := tt.initial
			ApplyEnvOverrides(&cfg)
			tt.validate(t, &cfg)
		})
	}
}

// ---------------------------------------------------------------------------
// Serve-mode tokens
// ---------------------------------------------------------------------------

// checkToken fails unless token is 16 random bytes in hex.
func checkToken(t *testing.T, token string) {
	t.Helper()
	raw, err := hex.DecodeString(token)
	if err != nil {
		t.Fatalf("token %q is not hex: %v", token, err)
	}
	if len(raw) != 16 {
		t.Errorf("token decodes to %d bytes, want 16", len(raw))
	}
}

func Test_EnsureAuthToken_Cases(t *testing.T) {
	tests := []struct {
		name     string
		existing string
		validate func(t *testing.T, cfg *Config, token string)
	}{
		{
			name:     "configured token is kept",
			existing: "from-config-file",
			validate: func(t *testing.T, cfg *Config, token string) {
				t.Helper()
				if token != "from-config-file" || cfg.Server.AuthToken != token {
					t.Errorf("token = %q, cfg token = %q, want from-config-file", token, cfg.Server.AuthToken)
				}
			},
		},
		{
			name: "missing token is generated and stored",
			validate: func(t *testing.T, cfg *Config, token string) {
				t.Helper()
				checkToken(t, token)
				if cfg.Server.AuthToken != token {
					t.Errorf("cfg token = %q, want returned %q", cfg.Server.AuthToken, token)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Server.AuthToken = tt.existing
			token, err := EnsureAuthToken(cfg)
			if err != nil {
				t.Fatalf("EnsureAuthToken: %v", err)
			}
			tt.validate(t, cfg, token)
		})
	}
}

func Test_GenerateRandomToken_Unique(t *testing.T) {
	const n = 50

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[string]struct{}, n)
	)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			token, err := GenerateRandomToken()
			if err != nil {
				t.Errorf("GenerateRandomToken: %v", err)
				return
			}
			mu.Lock()
			seen[token] = struct{}{}
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(seen) != n {
		t.Errorf("%d unique tokens from %d calls", len(seen), n)
	}
	for token := range seen {
		checkToken(t, token)
	}
}
