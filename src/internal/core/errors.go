// FILE: src/internal/core/errors.go
package core

import "errors"

// Error kinds. Callers match with errors.Is; the wrapped cause carries the detail.
var (
	ErrConfig           = errors.New("configuration error")
	ErrNotFound         = errors.New("not found")
	ErrCrypto           = errors.New("crypto error")
	ErrAuth             = errors.New("authentication error")
	ErrIO               = errors.New("i/o error")
	ErrDecode           = errors.New("decode error")
	ErrProtocol         = errors.New("protocol error")
	ErrUnrecognizedEnum = errors.New("unrecognized enum")
	ErrApplication      = errors.New("application error")
)
