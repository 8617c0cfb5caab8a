// FILE: src/internal/config/tls.go
package config

// TLSConfig enables HTTPS on the MCP listener
type TLSConfig struct {
	Enabled  bool   `toml:"enabled"`
	CertFile string `toml:"cert_file"`
	KeyFile  string `toml:"key_file"`

	// Require client certificates signed by ClientCAFile
	ClientAuth   bool   `toml:"client_auth"`
	ClientCAFile string `toml:"client_ca_file"`

	// "TLS1.2" or "TLS1.3"
	MinVersion string `toml:"min_version"`
	MaxVersion string `toml:"max_version"`

	// Comma-separated suite names, TLS 1.2 only
	CipherSuites string `toml:"cipher_suites"`
}
