package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the dataset schema",
	Long: `Print the table and column descriptions for the three datasets, in the
same form the question pipeline shows the model.

Examples:
  adlens schema`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(SchemaText())
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}
