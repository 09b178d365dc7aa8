package commands

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/OCAP2/boatsync/internal/printer"
	"github.com/OCAP2/boatsync/internal/view"
	"github.com/OCAP2/boatsync/pkg/core"
)

var showBy string

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a boat on the map with similar boats",
	Long: `Select a boat and print its map marker together with the boats similar
to it by type, length and price. Use --by to print a single card.`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	showCmd.Flags().StringVar(&showBy, "by", "", "only list boats similar by this field (Type, Length or Price)")
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	var only core.SimilarBy
	if showBy != "" {
		by, err := core.ParseSimilarBy(showBy)
		if err != nil {
			return printer.Error(out, "Invalid --by", err.Error(), "Use Type, Length or Price.")
		}
		only = by
	}

	return withSession(cmd.Context(), out, nil, func(s *view.Session) error {
		s.Selection.Select(args[0])
		s.Wait()

		if err := s.Detail.Err(); err != nil {
			return printer.Error(out, "Failed to load boat", err.Error())
		}
		printDetail(out, s)
		for _, by := range []core.SimilarBy{core.SimilarByType, core.SimilarByLength, core.SimilarByPrice} {
			if only != "" && by != only {
				continue
			}
			printSimilar(out, s.Similar[by])
		}
		return nil
	})
}

func printDetail(out io.Writer, s *view.Session) {
	printer.Heading(out, "\nBoat %s", s.Detail.RecordID())
	if err := s.Detail.Err(); err != nil {
		printer.Toast(out, core.Notification{Title: "Error", Message: err.Error(), Severity: core.SeverityError})
		return
	}
	printer.Markers(out, s.Detail.Markers())
}

func printSimilar(out io.Writer, p *view.SimilarPresenter) {
	printer.Heading(out, "\n%s", p.Title())
	if err := p.Err(); err != nil {
		printer.Toast(out, core.Notification{Title: "Error", Message: err.Error(), Severity: core.SeverityError})
		return
	}
	printer.Boats(out, p.Boats(), "")
}
