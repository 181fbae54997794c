package commands

import (
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/xonoko/ldapquery"
	"github.com/xonoko/ldapquery/internal/i18n"
)

var schemaLocales []string

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "List the node settings",
	Long: `List the node settings in presentation order with their localized label,
default value and whether they must be set.`,
	RunE: runSchema,
}

func init() {
	schemaCmd.Flags().StringSliceVar(&schemaLocales, "locale", []string{"en"}, "preferred locales, most preferred first")
}

func runSchema(cmd *cobra.Command, args []string) error {
	messages, err := i18n.New()
	if err != nil {
		return err
	}
	printSchema(cmd.OutOrStdout(), messages, schemaLocales)
	return nil
}

func printSchema(w io.Writer, messages *i18n.Bundle, locales []string) {
	var rows [][]string
	for _, a := range ldapquery.Schema() {
		rows = append(rows, []string{
			strconv.Itoa(a.Order),
			a.Name,
			messages.Message(locales, a.Name),
			a.Default,
			strconv.FormatBool(a.Required),
		})
	}
	printTable(w, []string{"ORDER", "NAME", "LABEL", "DEFAULT", "REQUIRED"}, rows)
}
