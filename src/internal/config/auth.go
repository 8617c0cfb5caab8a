// FILE: src/internal/config/auth.go
package config

// AuthConfig protects the MCP endpoint
type AuthConfig struct {
	// Authentication type: "none", "bearer"
	Type string `toml:"type"`

	// Bearer token auth
	BearerAuth *BearerAuthConfig `toml:"bearer_auth"`
}

type BearerAuthConfig struct {
	// Static tokens
	Tokens []string `toml:"tokens"`

	// JWT validation
	JWT *JWTConfig `toml:"jwt"`
}

type JWTConfig struct {
	// HMAC signing key
	SigningKey string `toml:"signing_key"`

	// Expected issuer
	Issuer string `toml:"issuer"`

	// Expected audience
	Audience string `toml:"audience"`
}
