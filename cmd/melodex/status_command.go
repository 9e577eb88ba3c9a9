package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon health and dependency status",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			health, err := client.Health(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Daemon: %s (pid %d)\n", health.Status, health.PID)

			rows := make([][]string, 0, len(health.Dependencies))
			for _, dep := range health.Dependencies {
				state := "ok"
				if !dep.Available {
					state = "missing"
				}
				rows = append(rows, []string{dep.Name, state, dep.Detail})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Dependency", "State", "Detail"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}
}
