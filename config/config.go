// Package config loads the protocol's server and client configuration
// from YAML files, applying package defaults and LSFTP_-prefixed
// environment variable overrides on top.
package config

import (
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/iyotee/LSFTP/cryptosuite"
	"github.com/iyotee/LSFTP/errs"
)

// CryptoPolicyConfig selects the minimum acceptable crypto suite and the
// default suite offered during a handshake.
type CryptoPolicyConfig struct {
	MinKEM       string `yaml:"min_kem"`
	MinSignature string `yaml:"min_signature"`
	DefaultAEAD  string `yaml:"default_aead"`
	DefaultHash  string `yaml:"default_hash"`
}

// HardwareAuthConfig configures which hardware authenticator families
// are enabled and how they are discovered.
type HardwareAuthConfig struct {
	Enabled             bool     `yaml:"enabled"`
	RequiredDevices     []string `yaml:"required_devices"`
	UseSimulated        bool     `yaml:"use_simulated"`
	RequireHardwareAuth bool     `yaml:"require_hardware_auth"`
}

// AuditConfig configures the audit logger's sinks.
type AuditConfig struct {
	JournalPath   string `yaml:"journal_path"`
	SyslogAddr    string `yaml:"syslog_addr"`
	SIEMEndpoint  string `yaml:"siem_endpoint"`
	SIEMAPIKey    string `yaml:"siem_api_key"`
	SignEvents    bool   `yaml:"sign_events"`
	RetentionDays int    `yaml:"retention_days"`
	Postgres      *PostgresConfig `yaml:"postgres,omitempty"`
}

// PostgresConfig mirrors the audit Postgres sink's connection settings.
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
}

// ServerConfig is the top-level server configuration.
type ServerConfig struct {
	ListenAddr          string             `yaml:"listen_addr"`
	RootDir             string             `yaml:"root_dir"`
	MaxConcurrentConns  int                `yaml:"max_concurrent_connections"`
	SessionTimeout      time.Duration      `yaml:"session_timeout"`
	KeyRotationInterval time.Duration      `yaml:"key_rotation_interval"`
	MaxFileSize         uint64             `yaml:"max_file_size"`
	CertFile            string             `yaml:"cert_file"`
	KeyFile             string             `yaml:"key_file"`
	IdentityCertFile    string             `yaml:"identity_cert_file"`
	Crypto              CryptoPolicyConfig `yaml:"crypto"`
	HardwareAuth        HardwareAuthConfig `yaml:"hardware_auth"`
	Audit               AuditConfig        `yaml:"audit"`
}

// ClientConfig is the top-level client configuration.
type ClientConfig struct {
	ServerAddr       string             `yaml:"server_addr"`
	CACertFile       string             `yaml:"ca_cert_file"`
	ChunkSize        int                `yaml:"chunk_size"`
	IdentityCertFile string             `yaml:"identity_cert_file"`
	IdentityKeyFile  string             `yaml:"identity_key_file"`
	Crypto           CryptoPolicyConfig `yaml:"crypto"`
	HardwareAuth     HardwareAuthConfig `yaml:"hardware_auth"`
	Audit            AuditConfig        `yaml:"audit"`
}

// Package default limits for unset configuration fields.
const (
	DefaultChunkSize               = 1 << 20
	DefaultMaxFileSize             = 100 << 30
	DefaultSessionTimeout          = 3600 * time.Second
	DefaultKeyRotationInterval     = 300 * time.Second
	DefaultMaxConcurrentConns      = 1000
	DefaultAuditRetentionDays      = 2555
)

// LoadServerConfig reads and parses a YAML server configuration file,
// applies package defaults for unset fields, then applies LSFTP_*
// environment variable overrides.
func LoadServerConfig(path string) (*ServerConfig, error) {
	cfg := &ServerConfig{}
	if err := loadYAML(path, cfg); err != nil {
		return nil, err
	}
	applyServerDefaults(cfg)
	applyServerEnvOverrides(cfg)
	return cfg, nil
}

// LoadClientConfig reads and parses a YAML client configuration file,
// applies package defaults, then LSFTP_* environment variable overrides.
func LoadClientConfig(path string) (*ClientConfig, error) {
	cfg := &ClientConfig{}
	if err := loadYAML(path, cfg); err != nil {
		return nil, err
	}
	applyClientDefaults(cfg)
	applyClientEnvOverrides(cfg)
	return cfg, nil
}

func loadYAML(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errs.NewConfig("config_read_failed", "failed to read configuration file", err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return errs.NewConfig("config_parse_failed", "failed to parse configuration file as YAML", err)
	}
	return nil
}

func applyServerDefaults(cfg *ServerConfig) {
	if cfg.MaxConcurrentConns == 0 {
		cfg.MaxConcurrentConns = DefaultMaxConcurrentConns
	}
	if cfg.SessionTimeout == 0 {
		cfg.SessionTimeout = DefaultSessionTimeout
	}
	if cfg.KeyRotationInterval == 0 {
		cfg.KeyRotationInterval = DefaultKeyRotationInterval
	}
	if cfg.MaxFileSize == 0 {
		cfg.MaxFileSize = DefaultMaxFileSize
	}
	if cfg.Audit.RetentionDays == 0 {
		cfg.Audit.RetentionDays = DefaultAuditRetentionDays
	}
	applyCryptoDefaults(&cfg.Crypto)
}

func applyClientDefaults(cfg *ClientConfig) {
	if cfg.ChunkSize == 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if cfg.Audit.RetentionDays == 0 {
		cfg.Audit.RetentionDays = DefaultAuditRetentionDays
	}
	applyCryptoDefaults(&cfg.Crypto)
}

func applyCryptoDefaults(c *CryptoPolicyConfig) {
	if c.MinKEM == "" {
		c.MinKEM = "classical-ecdh"
	}
	if c.MinSignature == "" {
		c.MinSignature = "classical-ed25519"
	}
	if c.DefaultAEAD == "" {
		c.DefaultAEAD = "chacha20-poly1305"
	}
	if c.DefaultHash == "" {
		c.DefaultHash = "blake3"
	}
}

// applyServerEnvOverrides overrides select ServerConfig fields from
// LSFTP_-prefixed environment variables, taking precedence over the YAML
// file. Only operational fields a deployment is likely to override per
// environment (address, root, timeouts) are wired; structural config
// (crypto policy, audit sinks) stays file-only to avoid fragile
// partial overrides of a nested struct via flat env vars.
func applyServerEnvOverrides(cfg *ServerConfig) {
	if v, ok := os.LookupEnv("LSFTP_LISTEN_ADDR"); ok {
		cfg.ListenAddr = v
	}
	if v, ok := os.LookupEnv("LSFTP_ROOT_DIR"); ok {
		cfg.RootDir = v
	}
	if v, ok := os.LookupEnv("LSFTP_SESSION_TIMEOUT_SECONDS"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.SessionTimeout = time.Duration(n) * time.Second
		}
	}
	if v, ok := os.LookupEnv("LSFTP_MAX_CONCURRENT_CONNECTIONS"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxConcurrentConns = n
		}
	}
	if v, ok := os.LookupEnv("LSFTP_CERT_FILE"); ok {
		cfg.CertFile = v
	}
	if v, ok := os.LookupEnv("LSFTP_KEY_FILE"); ok {
		cfg.KeyFile = v
	}
}

// MinSuite builds the cryptosuite.Suite a handshake must meet or exceed,
// from the policy's configured minimum KEM and signature algorithms and
// its default AEAD and hash.
func (c CryptoPolicyConfig) MinSuite() cryptosuite.Suite {
	return cryptosuite.Suite{
		Version:   cryptosuite.ProtocolVersion,
		KEM:       cryptosuite.KEMAlgorithm(c.MinKEM),
		Signature: cryptosuite.SignatureAlgorithm(c.MinSignature),
		AEAD:      cryptosuite.AEADAlgorithm(c.DefaultAEAD),
		Hash:      cryptosuite.HashAlgorithm(c.DefaultHash),
	}
}

// OfferedSuites returns the suite list a client offers during a
// handshake, in preference order: the protocol default (hybrid
// classical+post-quantum) first, falling back to the policy's configured
// minimum if that differs from the default.
func (c CryptoPolicyConfig) OfferedSuites() []cryptosuite.Suite {
	def := cryptosuite.Default()
	def.AEAD = cryptosuite.AEADAlgorithm(c.DefaultAEAD)
	def.Hash = cryptosuite.HashAlgorithm(c.DefaultHash)
	min := c.MinSuite()
	if min.Equal(def) {
		return []cryptosuite.Suite{def}
	}
	return []cryptosuite.Suite{def, min}
}

// PermittedSuites returns the suite list a server accepts, in the same
// preference order as OfferedSuites.
func (c CryptoPolicyConfig) PermittedSuites() []cryptosuite.Suite {
	return c.OfferedSuites()
}

func applyClientEnvOverrides(cfg *ClientConfig) {
	if v, ok := os.LookupEnv("LSFTP_SERVER_ADDR"); ok {
		cfg.ServerAddr = v
	}
	if v, ok := os.LookupEnv("LSFTP_CA_CERT_FILE"); ok {
		cfg.CACertFile = v
	}
	if v, ok := os.LookupEnv("LSFTP_CHUNK_SIZE"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.ChunkSize = n
		}
	}
}
