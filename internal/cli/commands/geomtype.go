package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mapframe-labs/mapframe/pkg/geom"
)

// NewGeomTypeCmd creates the geomtype command.
func NewGeomTypeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "geomtype <table|query>",
		Short: "Show the broad geometry class of a table or query",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, client, _, err := openDataset(cmd, args[0])
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			class, err := ds.ComputeGeomType(cmd.Context())
			if err != nil {
				return err
			}
			if class == geom.ClassUnknown {
				fmt.Fprintln(cmd.OutOrStdout(), "no geometry")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(class))
			return nil
		},
	}
}
