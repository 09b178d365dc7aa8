package commands

import (
	"github.com/spf13/cobra"

	"github.com/OCAP2/boatsync/internal/printer"
	"github.com/OCAP2/boatsync/internal/view"
)

var searchSelect string

var searchCmd = &cobra.Command{
	Use:   "search [type]",
	Short: "Search boats by type",
	Long: `Search boats by type and print the results table. Without a type every
boat is listed.

With --select, the tile is selected after the search. The boat map and the
similar-boats cards follow the selection.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVar(&searchSelect, "select", "", "select the boat with this id")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	var typeID string
	if len(args) == 1 {
		typeID = args[0]
	}
	out := cmd.OutOrStdout()

	return withSession(cmd.Context(), out, nil, func(s *view.Session) error {
		s.Search.Search(typeID)
		s.Wait()
		if err := s.Results.Err(); err != nil {
			return printer.Error(out, "Search failed", err.Error())
		}

		if searchSelect != "" {
			s.Results.SelectTile(searchSelect)
			s.Wait()
		}

		printer.Boats(out, s.Results.Rows(), s.Results.SelectedID())
		if searchSelect != "" {
			printDetail(out, s)
		}
		return nil
	})
}
