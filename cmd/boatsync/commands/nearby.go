package commands

import (
	"github.com/spf13/cobra"

	"github.com/OCAP2/boatsync/internal/geo"
	"github.com/OCAP2/boatsync/internal/position"
	"github.com/OCAP2/boatsync/internal/printer"
	"github.com/OCAP2/boatsync/internal/view"
)

var nearbyAt string

var nearbyCmd = &cobra.Command{
	Use:   "nearby [type]",
	Short: "Show boats near you on a map",
	Long: `Print the viewer marker followed by the nearest boats of a type. The
viewer's position is taken from --at; without it the configured default map
position is used.`,
	Example: `  boatsync nearby sail --at 50.53,10.03`,
	Args:    cobra.MaximumNArgs(1),
	RunE:    runNearby,
}

func init() {
	nearbyCmd.Flags().StringVar(&nearbyAt, "at", "", "viewer position as lat,lon")
	rootCmd.AddCommand(nearbyCmd)
}

func runNearby(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	provider := position.Unavailable
	if nearbyAt != "" {
		pos, err := geo.ParsePosition(nearbyAt)
		if err != nil {
			return printer.Error(out, "Invalid position", err.Error(), "Example: --at 50.53,10.03")
		}
		provider = position.Static(pos)
	}

	var typeID string
	if len(args) == 1 {
		typeID = args[0]
	}

	return withSession(cmd.Context(), out, provider, func(s *view.Session) error {
		s.Nearby.Mount(cmd.Context(), typeID)
		s.Wait()
		printer.Markers(out, s.Nearby.Markers())
		return nil
	})
}
