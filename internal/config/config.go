// Package config provides configuration loading and defaults for pimonitor.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	monerrors "github.com/jamesprial/pi-monitor/internal/errors"
	"github.com/jamesprial/pi-monitor/internal/system"
	"github.com/jamesprial/pi-monitor/internal/thresholds"
)

// ThresholdsConfig holds the alert limit for each metric. Every field is
// required; pointers distinguish an omitted limit from an explicit zero.
// Each limit keeps the literal it was written as for alert lines.
type ThresholdsConfig struct {
	CPU  *thresholds.Limit `json:"cpu" yaml:"cpu"`
	RAM  *thresholds.Limit `json:"ram" yaml:"ram"`
	Temp *thresholds.Limit `json:"temp" yaml:"temp"`
	Disk *thresholds.Limit `json:"disk" yaml:"disk"`
}

// Limits returns the thresholds as evaluator limits. Missing values are
// zero; call Validate first.
func (t ThresholdsConfig) Limits() thresholds.Limits {
	deref := func(p *thresholds.Limit) thresholds.Limit {
		if p == nil {
			return thresholds.Limit{}
		}
		return *p
	}
	return thresholds.Limits{CPU: deref(t.CPU), RAM: deref(t.RAM), Temp: deref(t.Temp), Disk: deref(t.Disk)}
}

// EmailConfig holds SMTP delivery settings for alert mail.
type EmailConfig struct {
	Host      string   `json:"host" yaml:"host"`
	Port      int      `json:"port" yaml:"port"`
	Username  string   `json:"username" yaml:"username"`
	Password  string   `json:"password" yaml:"password"`
	Receivers []string `json:"receivers" yaml:"receivers"`
	Sender    string   `json:"sender" yaml:"sender"`
	Subject   string   `json:"subject" yaml:"subject"`
	// StartTLS upgrades the connection before authenticating. The server
	// must advertise STARTTLS when this is set.
	StartTLS bool `json:"start_tls" yaml:"start_tls"`
}

// Addr returns host:port.
func (e EmailConfig) Addr() string {
	return fmt.Sprintf("%s:%d", e.Host, e.Port)
}

// CommandsConfig overrides the argument vector used for each metric.
type CommandsConfig struct {
	CPU  []string `json:"cpu" yaml:"cpu"`
	RAM  []string `json:"ram" yaml:"ram"`
	Temp []string `json:"temp" yaml:"temp"`
	Disk []string `json:"disk" yaml:"disk"`
	// TimeoutSeconds bounds each command. Zero waits indefinitely.
	TimeoutSeconds int `json:"timeout_seconds" yaml:"timeout_seconds"`
}

// Commands returns the configured argument vectors.
func (c CommandsConfig) Commands() system.Commands {
	return system.Commands{CPU: c.CPU, RAM: c.RAM, Temp: c.Temp, Disk: c.Disk}
}

// Timeout returns TimeoutSeconds as a duration.
func (c CommandsConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// PingConfig controls the website pinger.
type PingConfig struct {
	TimeoutSeconds int `json:"timeout_seconds" yaml:"timeout_seconds"`
	Concurrency    int `json:"concurrency" yaml:"concurrency"`
}

// PathsConfig holds filesystem paths used by the monitor.
type PathsConfig struct {
	PauseFile string `json:"pause_file" yaml:"pause_file"`
}

// LogConfig selects log verbosity and encoding.
type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

// AuditConfig controls audit logging behaviour.
type AuditConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	LogPath string `json:"log_path" yaml:"log_path"`
}

// ServerConfig holds network and authentication settings for serve mode.
type ServerConfig struct {
	Port      int    `json:"port" yaml:"port"`
	AuthToken string `json:"auth_token" yaml:"auth_token"`
	// IntervalSeconds schedules monitoring cycles while serving. Zero
	// disables the scheduler.
	IntervalSeconds int `json:"interval_seconds" yaml:"interval_seconds"`
}

// Config is the top-level configuration structure for pimonitor.
type Config struct {
	Thresholds ThresholdsConfig `json:"thresholds" yaml:"thresholds"`
	Email      EmailConfig      `json:"email" yaml:"email"`
	Commands   CommandsConfig   `json:"commands" yaml:"commands"`
	Websites   []string         `json:"websites" yaml:"websites"`
	Ping       PingConfig       `json:"ping" yaml:"ping"`
	Paths      PathsConfig      `json:"paths" yaml:"paths"`
	Log        LogConfig        `json:"log" yaml:"log"`
	Audit      AuditConfig      `json:"audit" yaml:"audit"`
	Server     ServerConfig     `json:"server" yaml:"server"`
}

// DefaultConfig returns a new Config populated with sensible default values.
// Thresholds have no defaults. Each call returns a distinct instance.
func DefaultConfig() *Config {
	cmds := system.DefaultCommands()
	return &Config{
		Email: EmailConfig{
			Port:     587,
			Subject:  "Raspberry Pi Server Warnings",
			StartTLS: true,
		},
		Commands: CommandsConfig{
			CPU:  cmds.CPU,
			RAM:  cmds.RAM,
			Temp: cmds.Temp,
			Disk: cmds.Disk,
		},
		Ping: PingConfig{
			TimeoutSeconds: 10,
			Concurrency:    4,
		},
		Paths: PathsConfig{
			PauseFile: "pause.json",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "auto",
		},
		Audit: AuditConfig{
			Enabled: false,
			LogPath: "audit.log",
		},
		Server: ServerConfig{
			Port: 8080,
		},
	}
}

// LoadConfig reads path over DefaultConfig. Files ending in .yaml or .yml are
// parsed as YAML and anything else as JSON. Unknown JSON keys are ignored.
// Every failure is a *errors.ConfigError.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &monerrors.ConfigError{Path: path, Err: err}
	}

	cfg := DefaultConfig()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, &monerrors.ConfigError{Path: path, Err: fmt.Errorf("unmarshal: %w", err)}
	}

	return cfg, nil
}

// Load is the startup path: it loads .env files, reads path, applies
// environment overrides and validates the result.
func Load(path string) (*Config, error) {
	LoadDotEnv(filepath.Join(filepath.Dir(path), ".env"))

	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	ApplyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, &monerrors.ConfigError{Path: path, Err: err}
	}
	return cfg, nil
}

// LoadDotEnv loads each existing file into the process environment without
// overriding variables that are already set. Missing files are skipped and
// the names of loaded files are returned.
func LoadDotEnv(files ...string) []string {
	var loaded []string
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err == nil {
			loaded = append(loaded, f)
		}
	}
	return loaded
}

// Validate reports every problem with cfg joined into one error.
func (c *Config) Validate() error {
	var errs []error

	limits := []struct {
		name string
		v    *thresholds.Limit
	}{
		{"cpu", c.Thresholds.CPU},
		{"ram", c.Thresholds.RAM},
		{"temp", c.Thresholds.Temp},
		{"disk", c.Thresholds.Disk},
	}
	for _, l := range limits {
		if l.v == nil {
			errs = append(errs, fmt.Errorf("thresholds.%s is required", l.name))
		}
	}

	cmds := []struct {
		name string
		argv []string
	}{
		{"cpu", c.Commands.CPU},
		{"ram", c.Commands.RAM},
		{"temp", c.Commands.Temp},
		{"disk", c.Commands.Disk},
	}
	for _, cmd := range cmds {
		if len(cmd.argv) == 0 || cmd.argv[0] == "" {
			errs = append(errs, fmt.Errorf("commands.%s must name a program", cmd.name))
		}
	}
	if c.Commands.TimeoutSeconds < 0 {
		errs = append(errs, errors.New("commands.timeout_seconds must not be negative"))
	}

	if len(c.Email.Receivers) > 0 {
		if c.Email.Host == "" {
			errs = append(errs, errors.New("email.host is required when receivers are set"))
		}
		if c.Email.Sender == "" {
			errs = append(errs, errors.New("email.sender is required when receivers are set"))
		}
	}
	if c.Email.Port < 0 || c.Email.Port > 65535 {
		errs = append(errs, fmt.Errorf("email.port %d out of range", c.Email.Port))
	}

	if c.Ping.TimeoutSeconds < 0 {
		errs = append(errs, errors.New("ping.timeout_seconds must not be negative"))
	}
	if c.Ping.Concurrency < 0 {
		errs = append(errs, errors.New("ping.concurrency must not be negative"))
	}
	if c.Paths.PauseFile == "" {
		errs = append(errs, errors.New("paths.pause_file is required"))
	}
	if c.Audit.Enabled && c.Audit.LogPath == "" {
		errs = append(errs, errors.New("audit.log_path is required when audit is enabled"))
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Server.IntervalSeconds < 0 {
		errs = append(errs, errors.New("server.interval_seconds must not be negative"))
	}

	return errors.Join(errs...)
}

// ApplyEnvOverrides updates cfg in place with values from environment variables.
// Recognized variables:
//   - PIMONITOR_SMTP_PASSWORD overrides cfg.Email.Password
//   - PIMONITOR_AUTH_TOKEN overrides cfg.Server.AuthToken
//   - PIMONITOR_LOG_LEVEL overrides cfg.Log.Level
//   - PIMONITOR_PAUSE_FILE overrides cfg.Paths.PauseFile
func ApplyEnvOverrides(cfg *Config) {
	if pw := os.Getenv("PIMONITOR_SMTP_PASSWORD"); pw != "" {
		cfg.Email.Password = pw
	}
	if token := os.Getenv("PIMONITOR_AUTH_TOKEN"); token != "" {
		cfg.Server.AuthToken = token
	}
	if level := os.Getenv("PIMONITOR_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if path := os.Getenv("PIMONITOR_PAUSE_FILE"); path != "" {
		cfg.Paths.PauseFile = path
	}
}

// EnsureAuthToken generates a random auth token and sets it on cfg if
// cfg.Server.AuthToken is empty. It returns the token (existing or generated)
// and any error encountered during generation.
func EnsureAuthToken(cfg *Config) (string, error) {
	if cfg.Server.AuthToken != "" {
		return cfg.Server.AuthToken, nil
	}
	token, err := GenerateRandomToken()
	if err != nil {
		return "", fmt.Errorf("generate auth token: %w", err)
	}
	cfg.Server.AuthToken = token
	return token, nil
}

// GenerateRandomToken returns a 32-character hex-encoded cryptographically
// random token string.
func GenerateRandomToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("rand.Read: %w", err)
	}
	return hex.EncodeToString(b), nil
}
