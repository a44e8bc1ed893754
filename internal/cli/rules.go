package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ppiankov/actcheck/internal/rules"
)

// rulesCmd represents the rules command
var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the compliance rules",
	Long:  `List the six compliance rules in evaluation order with the section each one checks.`,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		printRules(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(rulesCmd)
}

func printRules(w io.Writer) {
	for i, r := range rules.Default() {
		fmt.Fprintf(w, "%d. %s\n   section: %s\n", i+1, r.Text, r.Field)
	}
}
