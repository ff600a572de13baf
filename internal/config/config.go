package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	DefaultConfigFile   = "forage-agent.toml"
	DefaultEnvFile      = ".env"
	DefaultSandboxDir   = "./sandbox"
	DefaultAuditLog     = "./audit.log"
	DefaultModel        = "llama-3.1-8b-instant"
	DefaultGeneratorURL = "https://api.groq.com/openai/v1"
	DefaultPort         = 5000
	DefaultRetries      = 3
	DefaultMaxFiles     = 50
	DefaultMaxFileBytes = 1024 * 1024
	DefaultMaxReadBytes = 1024 * 1024
	DefaultMaxBuffer    = 1024 * 1024

	DefaultCommandTimeout = 15 * time.Second
	DefaultTestTimeout    = 10 * time.Second
)

// DefaultAllowCommands is used when ALLOW_CMDS is unset.
var DefaultAllowCommands = []string{"echo", "ls", "pwd", "cat", "npm", "git"}

// FixedDenyCommands can never be executed, whatever the allow list says.
var FixedDenyCommands = []string{"rm", "sudo", "curl", "wget", "shutdown", "reboot"}

// Config is the agent configuration, read once at startup.
type Config struct {
	SandboxDir         string        `toml:"sandbox_dir"`
	AuditLog           string        `toml:"audit_log"`
	AutoApprove        bool          `toml:"auto_approve"`
	MaxSelfHealRetries int           `toml:"max_self_heal_retries"`
	AllowCommands      []string      `toml:"allow_commands"`
	DenyCommands       []string      `toml:"deny_commands"` // added to FixedDenyCommands
	APIKey             string        `toml:"api_key"`
	Model              string        `toml:"model"`
	BaseURL            string        `toml:"base_url"`
	Port               int           `toml:"port"`
	MaxFiles           int           `toml:"max_files"`
	MaxFileBytes       int64         `toml:"max_file_bytes"`
	MaxReadBytes       int64         `toml:"max_read_bytes"`
	MaxStreamBuffer    int           `toml:"max_stream_buffer"`
	CommandTimeout     time.Duration `toml:"command_timeout"`
	TestTimeout        time.Duration `toml:"test_timeout"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		SandboxDir:         DefaultSandboxDir,
		AuditLog:           DefaultAuditLog,
		MaxSelfHealRetries: DefaultRetries,
		AllowCommands:      append([]string(nil), DefaultAllowCommands...),
		Model:              DefaultModel,
		BaseURL:            DefaultGeneratorURL,
		Port:               DefaultPort,
		MaxFiles:           DefaultMaxFiles,
		MaxFileBytes:       DefaultMaxFileBytes,
		MaxReadBytes:       DefaultMaxReadBytes,
		MaxStreamBuffer:    DefaultMaxBuffer,
		CommandTimeout:     DefaultCommandTimeout,
		TestTimeout:        DefaultTestTimeout,
	}
}

// MaxAttempts is the total number of write attempts the self-heal loop may
// make: the initial write plus one per retry.
func (c *Config) MaxAttempts() int {
	return c.MaxSelfHealRetries + 1
}

// DeniedCommands returns the fixed deny set plus any configured additions.
func (c *Config) DeniedCommands() []string {
	denied := append([]string(nil), FixedDenyCommands...)
	for _, cmd := range c.DenyCommands {
		if !contains(denied, cmd) {
			denied = append(denied, cmd)
		}
	}
	return denied
}

// Validate checks that the Config is valid.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.SandboxDir) == "" {
		return fmt.Errorf("sandbox_dir is required")
	}
	if c.MaxSelfHealRetries < 0 {
		return fmt.Errorf("max_self_heal_retries must be >= 0 (got %d)", c.MaxSelfHealRetries)
	}
	if c.MaxFiles <= 0 {
		return fmt.Errorf("max_files must be positive (got %d)", c.MaxFiles)
	}
	if c.MaxFileBytes <= 0 {
		return fmt.Errorf("max_file_bytes must be positive (got %d)", c.MaxFileBytes)
	}
	if c.MaxReadBytes <= 0 {
		return fmt.Errorf("max_read_bytes must be positive (got %d)", c.MaxReadBytes)
	}
	if c.MaxStreamBuffer <= 0 {
		return fmt.Errorf("max_stream_buffer must be positive (got %d)", c.MaxStreamBuffer)
	}
	if c.CommandTimeout <= 0 || c.TestTimeout <= 0 {
		return fmt.Errorf("command_timeout and test_timeout must be positive")
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535 (got %d)", c.Port)
	}

	for _, cmd := range c.AllowCommands {
		if err := ValidateCommandToken(cmd); err != nil {
			return fmt.Errorf("allow_commands: %w", err)
		}
	}
	for _, cmd := range c.DenyCommands {
		if err := ValidateCommandToken(cmd); err != nil {
			return fmt.Errorf("deny_commands: %w", err)
		}
	}
	for _, cmd := range c.AllowCommands {
		if contains(c.DeniedCommands(), cmd) {
			return fmt.Errorf("command %q is both allowed and denied", cmd)
		}
	}

	return nil
}

// ValidateCommandToken checks a single allow/deny list entry.
// Entries are bare executable names: no whitespace, no path separators.
func ValidateCommandToken(token string) error {
	if token == "" {
		return fmt.Errorf("command name cannot be empty")
	}
	if strings.ContainsAny(token, " \t\r\n") {
		return fmt.Errorf("invalid command name %q: contains whitespace", token)
	}
	if strings.ContainsAny(token, `/\`) {
		return fmt.Errorf("invalid command name %q: must be a bare executable name", token)
	}
	return nil
}

// ParseCommandList splits a comma separated list of command names.
// Empty entries are dropped; duplicates are collapsed.
func ParseCommandList(s string) ([]string, error) {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if err := ValidateCommandToken(part); err != nil {
			return nil, err
		}
		if !contains(out, part) {
			out = append(out, part)
		}
	}
	return out, nil
}

// LoadFile decodes a TOML config file over c.
func (c *Config) LoadFile(path string) error {
	if _, err := toml.DecodeFile(path, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides fields from environment variables.
// lookup has the signature of os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("SANDBOX_DIR"); ok && v != "" {
		c.SandboxDir = v
	}
	if v, ok := lookup("AUDIT_LOG"); ok && v != "" {
		c.AuditLog = v
	}
	if v, ok := lookup("AUTO_APPROVE"); ok && v != "" {
		c.AutoApprove = strings.EqualFold(strings.TrimSpace(v), "true")
	}
	if v, ok := lookup("MAX_SELF_HEAL_RETRIES"); ok && v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid MAX_SELF_HEAL_RETRIES %q: %w", v, err)
		}
		c.MaxSelfHealRetries = n
	}
	if v, ok := lookup("ALLOW_CMDS"); ok && v != "" {
		cmds, err := ParseCommandList(v)
		if err != nil {
			return fmt.Errorf("invalid ALLOW_CMDS: %w", err)
		}
		c.AllowCommands = cmds
	}
	if v, ok := lookup("DENY_CMDS"); ok && v != "" {
		cmds, err := ParseCommandList(v)
		if err != nil {
			return fmt.Errorf("invalid DENY_CMDS: %w", err)
		}
		c.DenyCommands = cmds
	}
	if v, ok := lookup("GROQ_API_KEY"); ok && v != "" {
		c.APIKey = strings.TrimSpace(v)
	}
	if v, ok := lookup("MODEL"); ok && v != "" {
		c.Model = v
	}
	if v, ok := lookup("GENERATOR_URL"); ok && v != "" {
		c.BaseURL = strings.TrimRight(v, "/")
	}
	if v, ok := lookup("PORT"); ok && v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Port = n
	}
	return nil
}

// LoadOptions controls where Load looks for configuration.
type LoadOptions struct {
	// ConfigFile is an explicit TOML file; it must exist when set.
	// When empty, DefaultConfigFile is used if present.
	ConfigFile string

	// EnvFile is a dotenv file loaded into the process environment
	// without overriding variables that are already set. It must exist
	// when set. When empty, DefaultEnvFile is used if present.
	EnvFile string
}

// Load builds the configuration from defaults, the TOML file, the dotenv
// file and the process environment, in that order, and validates it.
func Load(opts LoadOptions) (*Config, error) {
	cfg := Default()

	configFile := opts.ConfigFile
	if configFile == "" && fileExists(DefaultConfigFile) {
		configFile = DefaultConfigFile
	}
	if configFile != "" {
		if err := cfg.LoadFile(configFile); err != nil {
			return nil, err
		}
	}

	envFile := opts.EnvFile
	if envFile == "" && fileExists(DefaultEnvFile) {
		envFile = DefaultEnvFile
	}
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// AbsAuditLog returns the audit log path as an absolute path.
func (c *Config) AbsAuditLog() (string, error) {
	return filepath.Abs(c.AuditLog)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
