package config

import (
	"os"
	"path/filepath"
	"testing"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Expected defaults to validate, got %v", err)
	}
	if cfg.Port != "8081" {
		t.Errorf("Expected port 8081, got %s", cfg.Port)
	}
	if cfg.MaxUploadBytes() != 32<<20 {
		t.Errorf("Expected 32MB limit, got %d", cfg.MaxUploadBytes())
	}
}

func TestSaveAndReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	cfg := DefaultConfig()
	cfg.OracleProvider = ProviderOllama
	cfg.StructuringMode = ModeOracleWithFallback
	cfg.OllamaModel = "qwen2.5"

	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo() failed: %v", err)
	}

	loaded, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() failed: %v", err)
	}
	if loaded.OracleProvider != ProviderOllama || loaded.StructuringMode != ModeOracleWithFallback {
		t.Errorf("Unexpected loaded config: %+v", loaded)
	}
	if loaded.OllamaModel != "qwen2.5" {
		t.Errorf("Expected qwen2.5, got %s", loaded.OllamaModel)
	}
	if loaded.UploadsDir != "uploads" {
		t.Errorf("Expected default uploads dir, got %s", loaded.UploadsDir)
	}
}

func TestReadFileMissingReturnsDefaults(t *testing.T) {
	cfg, err := ReadFile(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("ReadFile() failed: %v", err)
	}
	if cfg.StructuringMode != ModeHeuristic {
		t.Errorf("Expected default mode, got %s", cfg.StructuringMode)
	}
}

func TestReadFileRejectsBadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadFile(path); err == nil {
		t.Error("Expected error for malformed config")
	}
}

func TestApplyEnv(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.ApplyEnv(envMap(map[string]string{
		"ORACLE_PROVIDER":      "vertexai",
		"GOOGLE_CLOUD_PROJECT": "my-project",
		"PORT":                 "9000",
		"OLLAMA_URL":           "",
		"MAX_UPLOAD_MB":        "8",
	}))
	if err != nil {
		t.Fatalf("ApplyEnv() failed: %v", err)
	}

	if cfg.OracleProvider != ProviderVertexAI {
		t.Errorf("Expected vertexai, got %s", cfg.OracleProvider)
	}
	if cfg.GoogleCloudProject != "my-project" {
		t.Errorf("Expected my-project, got %s", cfg.GoogleCloudProject)
	}
	if cfg.Port != "9000" {
		t.Errorf("Expected 9000, got %s", cfg.Port)
	}
	if cfg.OllamaURL != "http://localhost:11434" {
		t.Errorf("Empty variable should not override, got %s", cfg.OllamaURL)
	}
	if cfg.MaxUploadMB != 8 {
		t.Errorf("Expected 8, got %d", cfg.MaxUploadMB)
	}

	if err := cfg.ApplyEnv(envMap(map[string]string{"MAX_UPLOAD_MB": "lots"})); err == nil {
		t.Error("Expected error for non-numeric MAX_UPLOAD_MB")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:   "heuristic without provider",
			mutate: func(c *Config) {},
		},
		{
			name:    "unknown provider",
			mutate:  func(c *Config) { c.OracleProvider = "openai" },
			wantErr: true,
		},
		{
			name:    "unknown mode",
			mutate:  func(c *Config) { c.StructuringMode = "magic" },
			wantErr: true,
		},
		{
			name:    "oracle mode without provider",
			mutate:  func(c *Config) { c.StructuringMode = ModeOracle },
			wantErr: true,
		},
		{
			name: "vertex without project",
			mutate: func(c *Config) {
				c.OracleProvider = ProviderVertexAI
				c.StructuringMode = ModeOracle
			},
			wantErr: true,
		},
		{
			name: "vertex with project",
			mutate: func(c *Config) {
				c.OracleProvider = ProviderVertexAI
				c.StructuringMode = ModeOracleSections
				c.GoogleCloudProject = "p"
			},
		},
		{
			name: "ollama without url",
			mutate: func(c *Config) {
				c.OracleProvider = ProviderOllama
				c.OllamaURL = ""
			},
			wantErr: true,
		},
		{
			name:    "missing credentials file",
			mutate:  func(c *Config) { c.GoogleCredentialsPath = "/nonexistent/creds.json" },
			wantErr: true,
		},
		{
			name:    "zero upload limit",
			mutate:  func(c *Config) { c.MaxUploadMB = 0 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
