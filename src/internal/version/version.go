// FILE: src/internal/version/version.go
package version

import "fmt"

// Name is reported to MCP clients as the server implementation
const Name = "pgmoneta-mcp"

var (
	// Version is set at compile time via -ldflags
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// String returns the version with build metadata
func String() string {
	return fmt.Sprintf("%s %s (commit: %s, built: %s)", Name, Version, GitCommit, BuildTime)
}

// Short returns just the version tag
func Short() string {
	return Version
}
