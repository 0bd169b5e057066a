package config

import "github.com/spf13/cobra"

// RegisterFlags registers common CLI flags on the provided root command
func RegisterFlags(cmd *cobra.Command) {
	if cmd == nil {
		return
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().BoolP("quiet", "q", false, "Suppress all output except errors")
	cmd.PersistentFlags().Bool("json", false, "Write logs as JSON to stderr")
	cmd.PersistentFlags().String("db", "", "Path to the SQLite database (default \""+DefaultDBPath+"\")")
	cmd.PersistentFlags().StringSlice("proxy", nil, "HTTP/SOCKS5 proxy, repeat to rotate (e.g., http://localhost:8080)")
	cmd.PersistentFlags().String("timeout", "", "Per-request timeout (default 30s)")
	cmd.PersistentFlags().String("user-agent", "", "Override every site's user agent")
	cmd.PersistentFlags().Bool("cloudflare", false, "Use the Cloudflare-friendly TLS transport")
	cmd.PersistentFlags().Bool("debug", false, "Add extraction notes to reports")
	cmd.PersistentFlags().String("dump-dir", "", "Write every fetched page to this directory")
	cmd.PersistentFlags().String("config", "", "Path to configuration file (optional)")
}
