package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// NewArchiveCommand creates the archive command.
func NewArchiveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "archive <batch-id>",
		Short: "Write the batch provenance bundle to the archive",
		Long: `Write the batch details, timeline and verification report as one JSON
object to the configured archive (filesystem, S3 or memory).

Objects are keyed by ledger length and never overwritten, so archiving the
same batch twice without new transfers reports the existing object.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(rootOpts, cmd, func(ctx context.Context, a *app) error {
				res, err := a.svc.ArchiveProvenance(ctx, args[0])
				if err != nil {
					return err
				}
				return a.out.Success(res, func(w io.Writer) {
					state := "archived"
					if !res.Created {
						state = "already archived"
					}
					fmt.Fprintf(w, "Batch %s %s at %s (%d bytes).\n", args[0], state, res.Key, res.Info.Size)
				})
			})
		},
	}
}
