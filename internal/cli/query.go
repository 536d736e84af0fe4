package cli

import (
	"context"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shubh1021/AgriTrace/internal/core"
)

// NewActorsCommand creates the actors command.
func NewActorsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "actors",
		Short:         "List the registered supply chain participants",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(rootOpts, cmd, func(_ context.Context, a *app) error {
				actors := a.directory.List()
				return a.out.Success(actors, func(w io.Writer) {
					tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
					fmt.Fprintln(tw, "ID\tNAME\tROLE\tEMAIL")
					for _, actor := range actors {
						fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", actor.ID, actor.DisplayName, actor.Role, actor.Email)
					}
					_ = tw.Flush()
				})
			})
		},
	}
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <batch-id>",
		Short: "Show a batch with its custody ledger and certificate",
		Long: `Show the consumer-facing view of a batch: the batch itself, every
transfer with both parties resolved, the farmer, the retailer once the batch
reached the shelf, and the grading certificate if one was issued.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(rootOpts, cmd, func(ctx context.Context, a *app) error {
				details, err := a.svc.GetBatchDetails(ctx, args[0])
				if err != nil {
					return err
				}
				return a.out.Success(details, func(w io.Writer) { renderDetails(w, a, details) })
			})
		},
	}
}

// ListOptions holds flags for the list command.
type ListOptions struct {
	*RootOptions
	Actor string
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List batches",
		Long: `List batches, optionally as seen by one actor.

Farmers see the batches they registered, distributors the batches at the
farm or in their custody, retailers the batches they hold.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Actor, "actor", "", "list the batches visible to this actor")

	return cmd
}

func runList(opts *ListOptions, cmd *cobra.Command) error {
	return withApp(opts.RootOptions, cmd, func(ctx context.Context, a *app) error {
		var batches []core.Batch
		if opts.Actor != "" {
			var err error
			if batches, err = a.svc.ListBatchesForActor(ctx, opts.Actor); err != nil {
				return err
			}
		} else {
			batches = a.svc.Store().ListBatches()
			sort.SliceStable(batches, func(i, j int) bool {
				if !batches[i].CreatedAt.Equal(batches[j].CreatedAt) {
					return batches[i].CreatedAt.Before(batches[j].CreatedAt)
				}
				return batches[i].ID < batches[j].ID
			})
		}
		if batches == nil {
			batches = []core.Batch{}
		}
		return a.out.Success(batches, func(w io.Writer) { renderBatchTable(w, batches) })
	})
}

// NewTimelineCommand creates the timeline command.
func NewTimelineCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "timeline <batch-id>",
		Short:         "Show the provenance timeline of a batch",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(rootOpts, cmd, func(ctx context.Context, a *app) error {
				events, err := a.svc.Reconstruct(ctx, args[0])
				if err != nil {
					return err
				}
				return a.out.Success(events, func(w io.Writer) { renderTimeline(w, events) })
			})
		},
	}
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <batch-id>",
		Short: "Recompute and compare every stored digest of a batch",
		Long: `Recompute the creation digest, every transfer receipt and the certificate
digest of a batch and compare them with the stored values.

Exits with status 1 when any digest does not match.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(rootOpts, cmd, func(ctx context.Context, a *app) error {
				report, err := a.svc.VerifyBatch(ctx, args[0])
				if err != nil {
					return err
				}
				if !report.Valid {
					if a.out.Format != "json" {
						renderReport(a.out.Writer, report)
					}
					msg := fmt.Sprintf("batch %s: %d digest mismatch(es)", report.BatchID, len(report.Mismatches()))
					_ = a.out.Error(ErrCodeIntegrity, msg, report)
					return &ExitError{Code: ExitFailure, Message: msg, Reported: true}
				}
				return a.out.Success(report, func(w io.Writer) { renderReport(w, report) })
			})
		},
	}
}
