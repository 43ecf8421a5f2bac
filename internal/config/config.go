package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
)

// Config represents the main configuration for dr. It is loaded once at
// process start and passed explicitly into the wiring; nothing reads it
// through mutable global state.
type Config struct {
	InstanceID       string              `toml:"instance_id"`
	BaseDir          string              `toml:"base_dir"`
	LogDir           string              `toml:"log_dir"`
	AuthorizedEmails []string            `toml:"authorized_emails"`
	GitHub           GitHubConfig        `toml:"github"`
	ObjectStore      ObjectStoreConfig   `toml:"object_store"`
	DocumentStore    DocumentStoreConfig `toml:"document_store"`
	Identity         IdentityConfig      `toml:"identity"`
	Audit            AuditConfig         `toml:"audit"`
	Server           ServerConfig        `toml:"server"`
	TokenPath        string              `toml:"token_path"`
}

// GitHubConfig identifies the code repository archived in every backup.
type GitHubConfig struct {
	Owner  string `toml:"owner"`
	Repo   string `toml:"repo"`
	Branch string `toml:"branch"`
}

// ObjectStoreConfig configures the backup artifact storage.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type ObjectStoreConfig struct {
	Type string `toml:"type"` // "s3" or "memory"

	// S3-specific fields (only used when Type == "s3")
	S3Bucket   string `toml:"s3_bucket,omitempty"`
	S3Prefix   string `toml:"s3_prefix,omitempty"`
	S3Region   string `toml:"s3_region,omitempty"`
	S3Endpoint string `toml:"s3_endpoint,omitempty"` // custom endpoint (minio etc.), empty for AWS
}

// DocumentStoreConfig configures the live whole-tree document store.
type DocumentStoreConfig struct {
	Type    string `toml:"type"`               // "http" or "memory"
	BaseURL string `toml:"base_url,omitempty"` // only used for type=http
}

// IdentityConfig configures the identity provider admin API.
type IdentityConfig struct {
	Type    string `toml:"type"`               // "http" or "memory"
	BaseURL string `toml:"base_url,omitempty"` // only used for type=http
}

// AuditConfig configures the local operation audit log.
type AuditConfig struct {
	Type    string `toml:"type"`               // "sqlite" or "memory"
	DataDir string `toml:"data_dir,omitempty"` // only used for type=sqlite
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// Secrets are never written to the config file; they come from the
// environment, parsed once at startup.
type Secrets struct {
	// AdminKey is the shared secret for the unattended purge endpoint.
	AdminKey string `env:"DR_ADMIN_KEY"`
	// GitHubToken authorizes archive downloads of private repositories.
	// Empty means anonymous requests.
	GitHubToken string `env:"DR_GITHUB_TOKEN"`
	// JWTSecret verifies caller identity tokens on the HTTP API.
	JWTSecret string `env:"DR_JWT_SECRET"`
	// DocumentStoreAuth is appended to document store requests.
	DocumentStoreAuth string `env:"DR_DOCSTORE_AUTH"`
	// IdentityKey authenticates identity provider admin calls.
	IdentityKey string `env:"DR_IDENTITY_KEY"`
	// S3AccessKey and S3SecretKey select static credentials for the object
	// store; both empty means the SDK's default credential chain.
	S3AccessKey string `env:"DR_S3_ACCESS_KEY"`
	S3SecretKey string `env:"DR_S3_SECRET_KEY"`
}

// SecretsFromEnv parses the Secrets struct from environment variables.
func SecretsFromEnv() (*Secrets, error) {
	var s Secrets
	if err := env.Parse(&s); err != nil {
		return nil, fmt.Errorf("parsing secrets from environment: %w", err)
	}
	return &s, nil
}

// NewConfig creates a new Config with the provided values and defaults.
func NewConfig(instanceID, baseDir string) *Config {
	return &Config{
		InstanceID:    instanceID,
		BaseDir:       baseDir,
		LogDir:        filepath.Join(baseDir, "log"),
		GitHub:        GitHubConfig{Branch: "main"},
		ObjectStore:   ObjectStoreConfig{Type: "s3"},
		DocumentStore: DocumentStoreConfig{Type: "http"},
		Identity:      IdentityConfig{Type: "http"},
		Audit: AuditConfig{
			Type:    "sqlite",
			DataDir: filepath.Join(baseDir, "db"),
		},
		Server:    ServerConfig{Addr: ":8680"},
		TokenPath: filepath.Join(baseDir, "keys", "github-token.age"),
	}
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// writeToFile writes a Config to the specified file path.
func writeToFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path with the provided Config.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
