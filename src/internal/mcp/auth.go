// FILE: src/internal/mcp/auth.go
package mcp

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"pgmoneta-mcp/src/internal/config"
	"pgmoneta-mcp/src/internal/core"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lixenwraith/log"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
)

// Principal identifies an authenticated caller
type Principal struct {
	Subject string
	Method  string // none, bearer, jwt
}

// Authenticator validates the Authorization header of MCP requests.
// A nil *Authenticator admits every request.
type Authenticator struct {
	tokens     [][]byte
	jwtParser  *jwt.Parser
	jwtKeyFunc jwt.Keyfunc
	logger     *log.Logger
}

// NewAuthenticator returns nil when authentication is disabled
func NewAuthenticator(cfg *config.AuthConfig, logger *log.Logger) (*Authenticator, error) {
	if cfg == nil || cfg.Type == "" || cfg.Type == "none" {
		return nil, nil
	}
	if cfg.Type != "bearer" || cfg.BearerAuth == nil {
		return nil, fmt.Errorf("%w: unsupported auth type: %s", core.ErrConfig, cfg.Type)
	}

	a := &Authenticator{logger: logger}
	for _, token := range cfg.BearerAuth.Tokens {
		a.tokens = append(a.tokens, []byte(token))
	}

	if jwtCfg := cfg.BearerAuth.JWT; jwtCfg != nil && jwtCfg.SigningKey != "" {
		opts := []jwt.ParserOption{
			jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}),
			jwt.WithLeeway(5 * time.Second),
			jwt.WithExpirationRequired(),
		}
		if jwtCfg.Issuer != "" {
			opts = append(opts, jwt.WithIssuer(jwtCfg.Issuer))
		}
		if jwtCfg.Audience != "" {
			opts = append(opts, jwt.WithAudience(jwtCfg.Audience))
		}
		a.jwtParser = jwt.NewParser(opts...)

		key := []byte(jwtCfg.SigningKey)
		a.jwtKeyFunc = func(*jwt.Token) (any, error) {
			return key, nil
		}
	}

	logger.Info("msg", "Authenticator initialized",
		"component", "auth",
		"static_tokens", len(a.tokens),
		"jwt", a.jwtParser != nil)
	return a, nil
}

// Authenticate checks an Authorization header value
func (a *Authenticator) Authenticate(authHeader string) (*Principal, error) {
	if a == nil {
		return &Principal{Method: "none"}, nil
	}

	token, ok := strings.CutPrefix(authHeader, "Bearer ")
	if !ok || token == "" {
		return nil, ErrMissingToken
	}

	for _, known := range a.tokens {
		if subtle.ConstantTimeCompare(known, []byte(token)) == 1 {
			return &Principal{Method: "bearer"}, nil
		}
	}

	if a.jwtParser == nil {
		return nil, ErrInvalidToken
	}

	claims := jwt.RegisteredClaims{}
	if _, err := a.jwtParser.ParseWithClaims(token, &claims, a.jwtKeyFunc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	return &Principal{Subject: claims.Subject, Method: "jwt"}, nil
}
