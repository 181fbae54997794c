package commands

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/xonoko/ldapquery"
)

var (
	stateFile string
	locales   []string
)

var lookupCmd = &cobra.Command{
	Use:   "lookup <username>",
	Short: "Run the node for one user",
	Long: `Run the LDAP query node for one user and print the outcome, its localized
label and the resulting shared state.

Examples:
  # Look up alice
  ldapquery lookup alice --config node.ini

  # Start from an existing shared state
  ldapquery lookup alice --state state.json --locale de`,
	Args: cobra.ExactArgs(1),
	RunE: runLookup,
}

func init() {
	lookupCmd.Flags().StringVar(&stateFile, "state", "", "JSON file holding the initial shared state")
	lookupCmd.Flags().StringSliceVar(&locales, "locale", []string{"en"}, "preferred locales, most preferred first")
}

type lookupResult struct {
	Outcome     ldapquery.Outcome     `json:"outcome"`
	Label       string                `json:"label"`
	SharedState ldapquery.SharedState `json:"sharedState"`
}

func runLookup(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	state, err := readState(stateFile)
	if err != nil {
		return err
	}
	state[ldapquery.UsernameKey] = args[0]

	node, err := ldapquery.NewNode(cfg, ldapquery.WithLogger(newLogger()))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	action := node.Process(ctx, ldapquery.TreeContext{SharedState: state, Locales: locales})

	result := lookupResult{Outcome: action.Outcome, SharedState: action.SharedState}
	for _, o := range node.Outcomes(locales) {
		if o.Outcome == action.Outcome {
			result.Label = o.Label
		}
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// readState loads the initial shared state. A missing path or a JSON null
// yields an empty state, any other non-object JSON is rejected.
func readState(path string) (ldapquery.SharedState, error) {
	if path == "" {
		return ldapquery.SharedState{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "cannot read shared state")
	}

	var decoded interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, errors.Wrapf(err, "cannot parse shared state %s", path)
	}
	switch v := decoded.(type) {
	case nil:
		return ldapquery.SharedState{}, nil
	case map[string]interface{}:
		return ldapquery.SharedState(v), nil
	default:
		return nil, errors.Errorf("shared state %s must be a JSON object, got %T", path, v)
	}
}
