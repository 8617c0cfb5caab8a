// FILE: src/internal/core/const.go
package core

// ClientVersion matches the pgmoneta-cli release the management protocol is pinned to
const ClientVersion = "0.20.0"

// Management response keys
const (
	ManagementCategoryOutcome = "Outcome"
	ManagementArgumentStatus  = "Status"
)

// MasterKeyPath is relative to the user's home directory
const MasterKeyPath = ".pgmoneta-mcp/master.key"

// Vault layout and scrypt work factors (log2(N)=17, r=8, p=1)
const (
	NonceLen      = 12
	SaltLen       = 16
	DerivedKeyLen = 32

	ScryptLogN = 17
	ScryptR    = 8
	ScryptP    = 1
)

// Startup frame identity
const (
	ProtocolMagic   = 196608
	ServiceDatabase = "admin"
	ApplicationName = "pgmoneta"
)

// Transport defaults
const (
	DefaultPgmonetaPort     = 5001
	DefaultListenPort       = 8000
	DefaultDialTimeout      = 10
	DefaultHandshakeTimeout = 30
	DefaultRequestTimeout   = 60

	// MaxResponseSize bounds a single management reply body
	MaxResponseSize = 16 * 1024 * 1024
	// MaxAuthMessageSize bounds a single authentication reply
	MaxAuthMessageSize = 8 * 1024
)
