package main

import (
	"github.com/spf13/cobra"
)

func newListCmd(flags *globalFlags) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the apps reported by the endpoint",
		Long: `Fetch the app registry once and print its contents in server order.

Examples:
  appsync list
  appsync list -o json | jq '.[].name'
  appsync list --output yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(output); err != nil {
				return err
			}

			app, err := openContext(cmd, flags)
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.Start(cmd.Context()).Wait(cmd.Context()); err != nil {
				return err
			}
			return writeApps(cmd.OutOrStdout(), output, app.Collections.Apps().Apps())
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", formatTable, "output format: table, json or yaml")
	return cmd
}
