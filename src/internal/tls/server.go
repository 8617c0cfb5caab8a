// FILE: src/internal/tls/server.go
package tls

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"

	"pgmoneta-mcp/src/internal/config"
	"pgmoneta-mcp/src/internal/core"

	"github.com/lixenwraith/log"
)

// NewServerConfig builds the listener TLS configuration. Returns nil when TLS
// is disabled.
func NewServerConfig(cfg *config.TLSConfig, logger *log.Logger) (*tls.Config, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, nil
	}

	cert, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load server cert/key: %w", core.ErrConfig, err)
	}

	tlsConfig := &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   parseTLSVersion(cfg.MinVersion, tls.VersionTLS12),
		MaxVersion:   parseTLSVersion(cfg.MaxVersion, tls.VersionTLS13),
		NextProtos:   []string{"http/1.1"},
	}

	if cfg.CipherSuites != "" {
		suites, err := parseCipherSuites(cfg.CipherSuites)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", core.ErrConfig, err)
		}
		tlsConfig.CipherSuites = suites
	} else {
		tlsConfig.CipherSuites = defaultCipherSuites
	}

	if cfg.ClientAuth {
		if cfg.ClientCAFile == "" {
			return nil, fmt.Errorf("%w: client_auth is enabled but client_ca_file is not specified", core.ErrConfig)
		}
		caCert, err := os.ReadFile(cfg.ClientCAFile)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read client CA file: %w", core.ErrConfig, err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("%w: failed to parse client CA certificate", core.ErrConfig)
		}
		tlsConfig.ClientCAs = pool
		tlsConfig.ClientAuth = tls.RequireAndVerifyClientCert
	}

	logger.Info("msg", "TLS enabled for MCP listener",
		"component", "tls",
		"min_version", tlsVersionString(tlsConfig.MinVersion),
		"max_version", tlsVersionString(tlsConfig.MaxVersion),
		"client_auth", cfg.ClientAuth)
	return tlsConfig, nil
}
