package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Oracle providers
const (
	ProviderNone     = "none"
	ProviderVertexAI = "vertexai"
	ProviderOllama   = "ollama"
)

// Structuring modes
const (
	ModeHeuristic          = "heuristic"
	ModeOracle             = "oracle"
	ModeOracleSections     = "oracle_sections"
	ModeOracleWithFallback = "oracle_with_fallback"
)

// Config holds application configuration
type Config struct {
	OracleProvider  string `json:"oracle_provider"`
	StructuringMode string `json:"structuring_mode"`

	GoogleCloudProject    string `json:"google_cloud_project"`
	GoogleCloudLocation   string `json:"google_cloud_location"`
	GoogleCredentialsPath string `json:"google_credentials_path"`
	VertexModel           string `json:"vertex_model"`

	OllamaURL   string `json:"ollama_url"`
	OllamaModel string `json:"ollama_model"`

	GmailCredentialsPath string `json:"gmail_credentials_path"`
	GmailTokenPath       string `json:"gmail_token_path"`

	UploadsDir  string `json:"uploads_dir"`
	OutputDir   string `json:"output_dir"`
	FrontendURL string `json:"frontend_url"`
	Port        string `json:"port"`
	MaxUploadMB int64  `json:"max_upload_mb"`
}

// DefaultConfig returns a new config with default values
func DefaultConfig() *Config {
	return &Config{
		OracleProvider:      ProviderNone,
		StructuringMode:     ModeHeuristic,
		GoogleCloudLocation: "us-central1",
		VertexModel:         "gemini-1.5-flash",
		OllamaURL:           "http://localhost:11434",
		OllamaModel:         "llama3.2",
		GmailTokenPath:      "token.json",
		UploadsDir:          "uploads",
		OutputDir:           "output",
		FrontendURL:         "http://localhost:3000",
		Port:                "8081",
		MaxUploadMB:         32,
	}
}

// GetConfigPath returns the path to the configuration file
// On Windows: %APPDATA%/ResumeTailor/config.json
// On Unix: ~/.config/ResumeTailor/config.json
func GetConfigPath() (string, error) {
	var configDir string

	if os.Getenv("APPDATA") != "" {
		configDir = filepath.Join(os.Getenv("APPDATA"), "ResumeTailor")
	} else {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get user home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config", "ResumeTailor")
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return filepath.Join(configDir, "config.json"), nil
}

// Load loads configuration from the default config path, then applies
// .env and environment overrides
func Load() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	return LoadFrom(configPath)
}

// LoadFrom loads configuration from a specific path, then applies .env and
// environment overrides
func LoadFrom(path string) (*Config, error) {
	config, err := ReadFile(path)
	if err != nil {
		return nil, err
	}

	// a missing .env is normal outside development
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	if err := config.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	return config, nil
}

// ReadFile reads a config file without consulting the environment. A missing
// file yields the defaults.
func ReadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// ApplyEnv overrides fields from environment variables looked up with lookup
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	overrides := []struct {
		key   string
		field *string
	}{
		{"ORACLE_PROVIDER", &c.OracleProvider},
		{"STRUCTURING_MODE", &c.StructuringMode},
		{"GOOGLE_CLOUD_PROJECT", &c.GoogleCloudProject},
		{"GOOGLE_CLOUD_LOCATION", &c.GoogleCloudLocation},
		{"GOOGLE_APPLICATION_CREDENTIALS", &c.GoogleCredentialsPath},
		{"VERTEX_MODEL", &c.VertexModel},
		{"OLLAMA_URL", &c.OllamaURL},
		{"OLLAMA_MODEL", &c.OllamaModel},
		{"FRONTEND_URL", &c.FrontendURL},
		{"PORT", &c.Port},
	}

	for _, o := range overrides {
		if v, ok := lookup(o.key); ok && v != "" {
			*o.field = v
		}
	}

	if v, ok := lookup("MAX_UPLOAD_MB"); ok && v != "" {
		mb, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid MAX_UPLOAD_MB %q: %w", v, err)
		}
		c.MaxUploadMB = mb
	}

	return nil
}

// Save saves the configuration to the default config path
func (c *Config) Save() error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	return c.SaveTo(configPath)
}

// SaveTo saves the configuration to a specific path
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// NeedsOracle reports whether the structuring mode calls the oracle
func (c *Config) NeedsOracle() bool {
	return c.StructuringMode != ModeHeuristic
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.OracleProvider {
	case ProviderNone, ProviderVertexAI, ProviderOllama:
	default:
		return fmt.Errorf("unknown oracle_provider %q", c.OracleProvider)
	}

	switch c.StructuringMode {
	case ModeHeuristic, ModeOracle, ModeOracleSections, ModeOracleWithFallback:
	default:
		return fmt.Errorf("unknown structuring_mode %q", c.StructuringMode)
	}

	if c.NeedsOracle() && c.OracleProvider == ProviderNone {
		return fmt.Errorf("structuring_mode %s requires an oracle_provider", c.StructuringMode)
	}

	if c.OracleProvider == ProviderVertexAI {
		if c.GoogleCloudProject == "" {
			return fmt.Errorf("google_cloud_project is required")
		}
		if c.GoogleCloudLocation == "" {
			return fmt.Errorf("google_cloud_location is required")
		}
	}

	if c.OracleProvider == ProviderOllama && c.OllamaURL == "" {
		return fmt.Errorf("ollama_url is required")
	}

	if c.GoogleCredentialsPath != "" {
		if _, err := os.Stat(c.GoogleCredentialsPath); err != nil {
			return fmt.Errorf("google credentials file not found: %w", err)
		}
	}

	if c.GmailCredentialsPath != "" {
		if _, err := os.Stat(c.GmailCredentialsPath); err != nil {
			return fmt.Errorf("gmail credentials file not found: %w", err)
		}
	}

	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("max_upload_mb must be positive")
	}

	return nil
}

// MaxUploadBytes returns the upload limit in bytes
func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}
