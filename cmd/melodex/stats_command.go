package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"
)

func newStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show catalog statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			stats, err := client.Stats(cmd.Context())
			if err != nil {
				return err
			}

			genres := make([]string, 0, len(stats.Genres))
			for genre := range stats.Genres {
				genres = append(genres, genre)
			}
			sort.Slice(genres, func(i, j int) bool {
				if stats.Genres[genres[i]] != stats.Genres[genres[j]] {
					return stats.Genres[genres[i]] > stats.Genres[genres[j]]
				}
				return genres[i] < genres[j]
			})

			rows := make([][]string, 0, len(genres))
			for _, genre := range genres {
				rows = append(rows, []string{genre, strconv.Itoa(stats.Genres[genre])})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(
				[]string{"Genre", "Songs"},
				rows,
				[]columnAlignment{alignLeft, alignRight},
			))
			fmt.Fprintf(out, "Total songs: %d\n", stats.TotalSongs)
			return nil
		},
	}
}
