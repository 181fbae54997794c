// Package commands implements the ldapquery CLI.
package commands

import (
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/xonoko/ldapquery"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"

	// Global flags.
	cfgFile  string
	logLevel string
	logJSON  bool
)

var rootCmd = &cobra.Command{
	Use:   "ldapquery",
	Short: "Look up users in an LDAP directory the way the ldap query node does",
	Long: `ldapquery runs the LDAP query decision node outside of an authentication tree.

The node configuration is read from the [ldap-query] section of an INI file.

Use "ldapquery [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. It is called by main.main().
func Execute() error {
	return rootCmd.Execute()
}

// GetRootCmd returns the root command for testing purposes.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "ldapquery.ini", "node configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "write logs as JSON")

	rootCmd.AddCommand(lookupCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(pingCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

func newLogger() hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:       "ldapquery",
		Level:      hclog.LevelFromString(logLevel),
		JSONFormat: logJSON,
		Output:     os.Stderr,
	})
}

func loadConfig() (ldapquery.Config, error) {
	return ldapquery.LoadConfigFile(cfgFile)
}
