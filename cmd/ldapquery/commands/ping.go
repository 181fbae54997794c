package commands

import (
	"io"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/xonoko/ldapquery"
	"github.com/xonoko/ldapquery/directory"
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check every configured server",
	Long: `Connect to each primary and secondary server in turn and read its root DSE.
The admin credentials are not used.`,
	RunE: runPing,
}

type pingResult struct {
	server string
	role   string
	err    error
}

func runPing(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger()

	var results []pingResult
	for _, server := range cfg.PrimaryServers {
		results = append(results, pingServer(cmd, cfg, server, "primary", logger))
	}
	for _, server := range cfg.SecondaryServers {
		results = append(results, pingServer(cmd, cfg, server, "secondary", logger))
	}
	printPing(cmd.OutOrStdout(), results)
	return nil
}

func pingServer(cmd *cobra.Command, cfg ldapquery.Config, server, role string, logger hclog.Logger) pingResult {
	dc := cfg.DirectoryConfig()
	dc.PrimaryServers = []string{server}
	dc.SecondaryServers = nil
	dc.HeartbeatInterval = 0

	result := pingResult{server: server, role: role}
	client, err := directory.NewClient(dc, logger.Named("directory"))
	if err != nil {
		result.err = err
		return result
	}
	conn, err := client.Connect(cmd.Context())
	if err != nil {
		result.err = err
		return result
	}
	defer conn.Close()

	logger.Debug("pinging ldap server", "server", conn.Server())
	result.err = conn.Ping(cmd.Context())
	return result
}

func printPing(w io.Writer, results []pingResult) {
	var rows [][]string
	for _, r := range results {
		status, msg := "UP", ""
		if r.err != nil {
			status, msg = "DOWN", r.err.Error()
		}
		rows = append(rows, []string{r.server, r.role, status, msg})
	}
	printTable(w, []string{"SERVER", "ROLE", "STATUS", "ERROR"}, rows)
}
