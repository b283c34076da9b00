package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/appsync/internal/infrastructure/httpclient"
)

func newShowCmd(flags *globalFlags) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the app entity at the endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(output); err != nil {
				return err
			}

			app, err := openContext(cmd, flags)
			if err != nil {
				return err
			}
			defer app.Close()

			rec := app.Models.App()
			if err := rec.Fetch(cmd.Context()); err != nil {
				if httpclient.IsNotFound(err) {
					return fmt.Errorf("no app at %s", rec.URL())
				}
				return err
			}
			if rec.IsNew() {
				return fmt.Errorf("no app at %s", rec.URL())
			}
			return writeApp(cmd.OutOrStdout(), output, rec.App())
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", formatTable, "output format: table, json or yaml")
	return cmd
}

func newCreateCmd(flags *globalFlags) *cobra.Command {
	var attrs []string

	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create an app",
		Long: `Create an app with the given name and print the id and uuid the server assigned.

Examples:
  appsync create Calendar
  appsync create Calendar --set icon=calendar.png --set category=productivity`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openContext(cmd, flags)
			if err != nil {
				return err
			}
			defer app.Close()

			rec := app.Models.App()
			if err := rec.Set("name", args[0]); err != nil {
				return err
			}
			for _, attr := range attrs {
				key, value, ok := strings.Cut(attr, "=")
				if !ok || key == "" {
					return fmt.Errorf("invalid --set %q, want key=value", attr)
				}
				if err := rec.Set(key, value); err != nil {
					return err
				}
			}

			if err := rec.Save(cmd.Context()); err != nil {
				return err
			}

			uuid, _ := rec.Get("uuid")
			fmt.Fprintf(cmd.OutOrStdout(), "created app %s (uuid %v)\n", rec.ID(), uuid)
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&attrs, "set", nil, "extra attribute as key=value (repeatable)")
	return cmd
}

func newDeleteCmd(flags *globalFlags) *cobra.Command {
	var appID string

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete the app entity at the endpoint",
		Long: `Delete the app entity at the endpoint.

Without --id the entity is fetched first to learn its id.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openContext(cmd, flags)
			if err != nil {
				return err
			}
			defer app.Close()

			rec := app.Models.App()
			if appID != "" {
				if err := rec.Set("id", appID); err != nil {
					return err
				}
			} else if err := rec.Fetch(cmd.Context()); err != nil && !httpclient.IsNotFound(err) {
				return err
			}

			if rec.IsNew() {
				return fmt.Errorf("no app to delete at %s", rec.URL())
			}
			if err := rec.Destroy(cmd.Context()); err != nil {
				if httpclient.IsNotFound(err) {
					return fmt.Errorf("no app to delete at %s", rec.URL())
				}
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "deleted app %s\n", rec.ID())
			return nil
		},
	}

	cmd.Flags().StringVar(&appID, "id", "", "id of the app to delete")
	return cmd
}
