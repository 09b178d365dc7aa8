package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/OCAP2/boatsync/internal/printer"
	"github.com/OCAP2/boatsync/internal/view"
	"github.com/OCAP2/boatsync/pkg/core"
)

var editSet []string

var editCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Edit a boat",
	Long: `Edit fields of one boat and save them as a single batch. The boat's type
is searched first so the saved values flow back into the results table.

Numeric fields (length, price, latitude, longitude) are parsed as numbers.
"null" clears a field.`,
	Example: `  boatsync edit a01 --set name="Sea Gale" --set price=51000`,
	Args:    cobra.ExactArgs(1),
	RunE:    runEdit,
}

func init() {
	editCmd.Flags().StringArrayVar(&editSet, "set", nil, "field=value to change (repeatable)")
	rootCmd.AddCommand(editCmd)
}

func runEdit(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fields, err := parseAssignments(editSet)
	if err != nil {
		return printer.Error(out, "Invalid --set", err.Error(), "Example: --set price=51000")
	}

	return withSession(cmd.Context(), out, nil, func(s *view.Session) error {
		s.Selection.Select(args[0])
		s.Wait()
		boats := s.RecordQuery.Data()
		if len(boats) == 0 {
			return printer.Error(out, "Failed to load boat", fmt.Sprint(s.Detail.Err()))
		}

		s.Search.Search(boats[0].TypeID)
		s.Wait()

		if err := saveEdit(cmd.Context(), out, s, core.EditDraft{EntityID: args[0], Fields: fields}); err != nil {
			return err
		}
		s.Wait()
		printer.Boats(out, s.Results.Rows(), args[0])
		return nil
	})
}

// saveEdit submits one draft. A batch rejected before the write is printed like
// any other invalid input.
func saveEdit(ctx context.Context, out io.Writer, s *view.Session, draft core.EditDraft) error {
	_, err := s.Results.Save(ctx, []core.EditDraft{draft})
	if err == nil {
		return nil
	}
	var cfgErr *core.ConfigurationError
	if errors.As(err, &cfgErr) {
		return printer.Error(out, "Invalid edit", cfgErr.Error())
	}
	return fmt.Errorf("save failed: %w", err)
}

var numericFields = map[string]bool{
	core.FieldLength:    true,
	core.FieldPrice:     true,
	core.FieldLatitude:  true,
	core.FieldLongitude: true,
}

// parseAssignments turns field=value pairs into draft fields.
func parseAssignments(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, fmt.Errorf("nothing to change")
	}
	fields := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		name, raw, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("%q is not field=value", pair)
		}
		name = strings.TrimSpace(name)
		if !core.IsEditableField(name) {
			return nil, fmt.Errorf("%q is not an editable field", name)
		}

		switch {
		case raw == "null":
			fields[name] = nil
		case numericFields[name]:
			v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			fields[name] = v
		default:
			fields[name] = raw
		}
	}
	return fields, nil
}
