package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newIndexCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "index <url>",
		Short: "Fetch and index a song from a source URL",
		Long:  "Asks the daemon to download the source and add it to the catalog. Requires an identity token (--token or MELODEX_TOKEN).",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if ctx.token() == "" {
				return fmt.Errorf("an identity token is required: pass --token or set MELODEX_TOKEN (see 'melodex login')")
			}
			client, err := ctx.client()
			if err != nil {
				return err
			}
			result, err := client.ManualIndex(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if result.Message != "" {
				fmt.Fprintln(out, result.Message)
			} else {
				fmt.Fprintln(out, "Indexed.")
			}
			return nil
		},
	}
}
