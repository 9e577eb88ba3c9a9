package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newSongsCommand(ctx *commandContext) *cobra.Command {
	var genre string
	var search string
	var limit int
	var offset int

	cmd := &cobra.Command{
		Use:   "songs",
		Short: "List the song catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			page, err := client.Songs(cmd.Context(), genre, search, limit, offset)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(page.Songs) == 0 {
				fmt.Fprintln(out, "No songs matched.")
				return nil
			}

			rows := make([][]string, 0, len(page.Songs))
			for _, song := range page.Songs {
				rows = append(rows, []string{
					strconv.FormatInt(song.ID, 10),
					song.Title,
					song.Artist,
					song.Genre,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Title", "Artist", "Genre"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
			))
			fmt.Fprintf(out, "Showing %d of %d (offset %d)\n", len(page.Songs), page.Total, page.Offset)
			return nil
		},
	}

	cmd.Flags().StringVar(&genre, "genre", "", "Filter by genre")
	cmd.Flags().StringVar(&search, "search", "", "Filter by title or artist substring")
	cmd.Flags().IntVar(&limit, "limit", 20, "Page size")
	cmd.Flags().IntVar(&offset, "offset", 0, "Page offset")
	return cmd
}
