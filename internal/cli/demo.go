package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/shubh1021/AgriTrace/internal/core"
	"github.com/shubh1021/AgriTrace/pkg/domain"
)

// DemoOptions holds flags for the demo command.
type DemoOptions struct {
	*RootOptions
	Sell bool
}

// DemoResult is the outcome of one scripted journey.
type DemoResult struct {
	Batch        core.Batch              `json:"batch"`
	Certificate  core.GradingCertificate `json:"certificate"`
	Timeline     []core.ProvenanceEvent  `json:"timeline"`
	Verification core.VerificationReport `json:"verification"`
	Archive      core.ArchiveResult      `json:"archive"`
}

// NewDemoCommand creates the demo command.
func NewDemoCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DemoOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Walk one batch from harvest to the retail shelf",
		Long: `Run a scripted journey with the seeded participants: the farmer
registers a batch of tomatoes, the distributor collects it by truck and
delivers it to the retailer, who prices it. The farmer then certifies the
batch, and the provenance is verified and archived.

Use --sell to finish with a sale to a consumer.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Sell, "sell", false, "sell the batch after pricing")

	return cmd
}

func runDemo(opts *DemoOptions, cmd *cobra.Command) error {
	return withApp(opts.RootOptions, cmd, func(ctx context.Context, a *app) error {
		farmer, distributor, retailer, err := a.demoCast()
		if err != nil {
			return err
		}
		svc := a.svc

		draft := domain.NewDraft("Tomatoes", decimal.NewFromInt(100), "Salinas, CA", "2026-09-30", "Grade A")
		batch, _, err := svc.CreateBatch(ctx, farmer.ID, draft)
		if err != nil {
			return err
		}
		a.out.VerboseLog("created %s", batch.ID)

		truck := &core.TransportDetails{Mode: "Truck", VehicleNumber: "CA-7KX-2291", DriverName: "Sam Ortiz"}
		if batch, _, err = svc.ClaimBatch(ctx, batch.ID, distributor.ID, truck); err != nil {
			return err
		}
		if batch, _, err = svc.TransferToRetailer(ctx, batch.ID, distributor.ID, retailer.ID); err != nil {
			return err
		}
		if batch, _, err = svc.SetPrice(ctx, batch.ID, retailer.ID, decimal.RequireFromString("4.50")); err != nil {
			return err
		}
		if opts.Sell {
			if batch, _, err = svc.SellToConsumer(ctx, batch.ID, retailer.ID); err != nil {
				return err
			}
		}
		cert, _, err := svc.IssueCertificate(ctx, batch.ID, "Premium", "USDA Organic")
		if err != nil {
			return err
		}

		result := DemoResult{Certificate: cert}
		if result.Batch, err = svc.GetBatch(ctx, batch.ID); err != nil {
			return err
		}
		if result.Timeline, err = svc.Reconstruct(ctx, batch.ID); err != nil {
			return err
		}
		if result.Verification, err = svc.VerifyBatch(ctx, batch.ID); err != nil {
			return err
		}
		if result.Archive, err = svc.ArchiveProvenance(ctx, batch.ID); err != nil {
			return err
		}

		return a.out.Success(result, func(w io.Writer) {
			a.renderBatch(w, result.Batch)
			fmt.Fprintln(w)
			renderTimeline(w, result.Timeline)
			fmt.Fprintln(w)
			renderReport(w, result.Verification)
			fmt.Fprintf(w, "Provenance archived at %s.\n", result.Archive.Key)
		})
	})
}

// demoCast picks the first farmer, distributor and retailer of the directory.
func (a *app) demoCast() (farmer, distributor, retailer core.Actor, err error) {
	var ok bool
	if farmer, ok = a.directory.FindFirstByRole(core.RoleFarmer); !ok {
		return farmer, distributor, retailer, domain.NotFoundError{Entity: core.EntityActor, ID: string(core.RoleFarmer)}
	}
	if distributor, ok = a.directory.FindFirstByRole(core.RoleDistributor); !ok {
		return farmer, distributor, retailer, domain.NotFoundError{Entity: core.EntityActor, ID: string(core.RoleDistributor)}
	}
	if retailer, ok = a.directory.FindFirstByRole(core.RoleRetailer); !ok {
		return farmer, distributor, retailer, domain.NotFoundError{Entity: core.EntityActor, ID: string(core.RoleRetailer)}
	}
	return farmer, distributor, retailer, nil
}
