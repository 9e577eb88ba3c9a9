package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newRecognizeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "recognize <audio-file>",
		Short: "Identify a song from an audio sample",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			result, err := client.Recognize(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !result.MatchFound {
				fmt.Fprintln(out, "No match found.")
				return nil
			}

			rows := make([][]string, 0, len(result.Matches))
			for _, match := range result.Matches {
				source := "catalog"
				if match.IsShazamMatch {
					source = "shazam"
				}
				rows = append(rows, []string{
					match.Title,
					match.Artist,
					match.Genre,
					strconv.FormatFloat(match.Confidence, 'f', 2, 64),
					source,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Title", "Artist", "Genre", "Confidence", "Source"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}
}
