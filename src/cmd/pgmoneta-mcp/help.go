// FILE: src/cmd/pgmoneta-mcp/help.go
package main

const helpText = `pgmoneta-mcp: MCP server for pgmoneta, the backup/restore tool for PostgreSQL.

Usage:
  pgmoneta-mcp [options] [--<section.key>=<value>...]

Options:
  -c, --conf <path>        Path to configuration file
                           (default: ~/.pgmoneta-mcp/pgmoneta-mcp.toml)
  -u, --users <path>       Path to users file
                           (default: users_file from config, else beside the config file)
  -q, --quiet              Suppress all console output, including errors
  -v, --version            Display version information and exit
  -h, --help               Display this help message and exit

Configuration Sources (Precedence: CLI > Env > File > Defaults):
  --pgmoneta.host=backup.internal   Any config key can be set on the command line
  PGMONETA_MCP_PGMONETA_PORT=5002   or through PGMONETA_MCP_ environment variables

Environment Variables:
  PGMONETA_MCP_CONFIG_FILE   Config file path
  PGMONETA_MCP_CONFIG_DIR    Config directory

Credentials are managed with pgmoneta-mcp-admin:
  pgmoneta-mcp-admin master-key
  pgmoneta-mcp-admin user add -U <admin> -f <users file>
`
