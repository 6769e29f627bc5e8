package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewDeleteCmd creates the delete command.
func NewDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <table>",
		Short: "Drop a remote table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, client, _, err := openDataset(cmd, args[0])
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			dropped, err := ds.Delete(cmd.Context())
			if err != nil {
				return err
			}
			if dropped {
				fmt.Fprintf(cmd.OutOrStdout(), "Table %q dropped\n", ds.TableName())
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Table %q does not exist, nothing to drop\n", ds.TableName())
			}
			return nil
		},
	}
}
