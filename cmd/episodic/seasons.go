package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var seasonsCmd = &cobra.Command{
	Use:   "seasons <title-id>",
	Short: "List a title's episodes grouped by season (via episodicd)",
	Args:  cobra.ExactArgs(1),
	RunE:  runSeasonsCmd,
}

func init() {
	rootCmd.AddCommand(seasonsCmd)
	seasonsCmd.Flags().Bool("episodes", false, "List every episode")
}

func runSeasonsCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	showEpisodes, _ := cmd.Flags().GetBool("episodes")

	resp, err := NewClient(daemonURL(cfg)).Seasons(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("seasons: %w", err)
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), resp)
	}
	renderSeasons(cmd.OutOrStdout(), resp, showEpisodes)
	return nil
}

func renderSeasons(w io.Writer, resp *SeasonsResponse, showEpisodes bool) {
	if len(resp.Seasons) == 0 {
		fmt.Fprintln(w, "No seasons")
		return
	}
	total := 0
	for _, g := range resp.Seasons {
		total += g.EpisodeCount
		fmt.Fprintf(w, "Season %-3d %s episodes\n", g.SeasonNumber, formatVotes(g.EpisodeCount))
		if showEpisodes {
			for _, ep := range g.Episodes {
				fmt.Fprintf(w, "  %s\n", episodeLine(ep))
			}
		}
	}
	fmt.Fprintf(w, "\n%d seasons, %s episodes\n", len(resp.Seasons), formatVotes(total))
}
