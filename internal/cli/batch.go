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

// CreateOptions holds flags for the create command.
type CreateOptions struct {
	*RootOptions
	Farmer      string
	Product     string
	Quantity    string
	Location    string
	HarvestDate string
	Grade       string
	Name        string
}

// NewCreateCommand creates the create command.
func NewCreateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CreateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Register a harvested batch",
		Long: `Register a new batch at the farm.

All harvest fields are required. When --name is omitted the registry
derives one from the product and harvest details.

Examples:
  agritrace create --farmer user_farmer_1 --product Tomatoes --quantity 100 \
    --location "Salinas, CA" --harvest-date 2026-09-30 --grade "Grade A"`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreate(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Farmer, "farmer", "", "farmer actor id (required)")
	_ = cmd.MarkFlagRequired("farmer")
	cmd.Flags().StringVar(&opts.Product, "product", "", "product type")
	cmd.Flags().StringVar(&opts.Quantity, "quantity", "", "quantity in kg")
	cmd.Flags().StringVar(&opts.Location, "location", "", "harvest location")
	cmd.Flags().StringVar(&opts.HarvestDate, "harvest-date", "", "harvest date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.Grade, "grade", "", "quality grade at harvest")
	cmd.Flags().StringVar(&opts.Name, "name", "", "batch name (optional)")

	return cmd
}

// draft builds the intake form from the flags that were actually set, so
// missing fields are reported by the registry rather than defaulted here.
func (o *CreateOptions) draft(cmd *cobra.Command) (domain.DraftBatch, error) {
	var d domain.DraftBatch
	flags := cmd.Flags()
	if flags.Changed("product") {
		d.SetProductType(o.Product)
	}
	if flags.Changed("quantity") {
		q, err := decimal.NewFromString(o.Quantity)
		if err != nil {
			return d, domain.ValidationError{Field: "quantity", Reason: fmt.Sprintf("%q is not a number", o.Quantity)}
		}
		d.SetQuantity(q)
	}
	if flags.Changed("location") {
		d.SetLocation(o.Location)
	}
	if flags.Changed("harvest-date") {
		d.SetHarvestDate(o.HarvestDate)
	}
	if flags.Changed("grade") {
		d.SetQualityGrade(o.Grade)
	}
	if flags.Changed("name") {
		d.SetName(o.Name)
	}
	return d, nil
}

func runCreate(opts *CreateOptions, cmd *cobra.Command) error {
	return withApp(opts.RootOptions, cmd, func(ctx context.Context, a *app) error {
		draft, err := opts.draft(cmd)
		if err != nil {
			return err
		}
		if missing := draft.Missing(); len(missing) > 0 {
			a.out.VerboseLog("missing fields: %v", missing)
		}
		batch, res, err := a.svc.CreateBatch(ctx, opts.Farmer, draft)
		if err != nil {
			return err
		}
		a.reportViolations(res)
		return a.out.Success(batch, func(w io.Writer) {
			fmt.Fprintf(w, "Created batch %s.\n", batch.ID)
			a.renderBatch(w, batch)
		})
	})
}

// ClaimOptions holds flags for the claim command.
type ClaimOptions struct {
	*RootOptions
	Distributor string
	Mode        string
	Vehicle     string
	Driver      string
}

// NewClaimCommand creates the claim command.
func NewClaimCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ClaimOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "claim <batch-id>",
		Short: "Take custody of a batch at the farm",
		Long: `Record a distributor collecting a batch from the farm.

Only batches still at the farm can be claimed; the first claim wins.

Examples:
  agritrace claim batch_1727769600000 --distributor user_distributor_1 \
    --mode Truck --vehicle CA-1234 --driver "Sam Ortiz"`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClaim(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Distributor, "distributor", "", "distributor actor id (required)")
	_ = cmd.MarkFlagRequired("distributor")
	cmd.Flags().StringVar(&opts.Mode, "mode", "", "transport mode")
	cmd.Flags().StringVar(&opts.Vehicle, "vehicle", "", "vehicle number")
	cmd.Flags().StringVar(&opts.Driver, "driver", "", "driver name")

	return cmd
}

func (o *ClaimOptions) transport() *core.TransportDetails {
	if o.Mode == "" && o.Vehicle == "" && o.Driver == "" {
		return nil
	}
	return &core.TransportDetails{Mode: o.Mode, VehicleNumber: o.Vehicle, DriverName: o.Driver}
}

func runClaim(opts *ClaimOptions, batchID string, cmd *cobra.Command) error {
	return withApp(opts.RootOptions, cmd, func(ctx context.Context, a *app) error {
		batch, res, err := a.svc.ClaimBatch(ctx, batchID, opts.Distributor, opts.transport())
		if err != nil {
			return err
		}
		a.reportViolations(res)
		return a.out.Success(batch, func(w io.Writer) {
			fmt.Fprintf(w, "%s claimed batch %s.\n", a.actorName(opts.Distributor), batch.ID)
			a.renderBatch(w, batch)
		})
	})
}

// TransferOptions holds flags for the transfer command.
type TransferOptions struct {
	*RootOptions
	From string
	To   string
}

// NewTransferCommand creates the transfer command.
func NewTransferCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TransferOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "transfer <batch-id>",
		Short: "Hand a batch in transit to a retailer",
		Long: `Record the distributor delivering a batch to a retailer.

Examples:
  agritrace transfer batch_1727769600000 --from user_distributor_1 --to user_retailer_1`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransfer(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.From, "from", "", "current distributor id (required)")
	_ = cmd.MarkFlagRequired("from")
	cmd.Flags().StringVar(&opts.To, "to", "", "receiving retailer id (required)")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}

func runTransfer(opts *TransferOptions, batchID string, cmd *cobra.Command) error {
	return withApp(opts.RootOptions, cmd, func(ctx context.Context, a *app) error {
		batch, res, err := a.svc.TransferToRetailer(ctx, batchID, opts.From, opts.To)
		if err != nil {
			return err
		}
		a.reportViolations(res)
		return a.out.Success(batch, func(w io.Writer) {
			fmt.Fprintf(w, "Batch %s delivered to %s.\n", batch.ID, a.actorName(opts.To))
			a.renderBatch(w, batch)
		})
	})
}

// PriceOptions holds flags for the price command.
type PriceOptions struct {
	*RootOptions
	Retailer string
	Price    string
}

// NewPriceCommand creates the price command.
func NewPriceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PriceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "price <batch-id>",
		Short: "Set the shelf price of a stocked batch",
		Long: `Set or change the retail price of a batch held by the retailer.

Every change is appended to the batch price history.

Examples:
  agritrace price batch_1727769600000 --retailer user_retailer_1 --price 4.50`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPrice(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Retailer, "retailer", "", "retailer actor id (required)")
	_ = cmd.MarkFlagRequired("retailer")
	cmd.Flags().StringVar(&opts.Price, "price", "", "price in dollars (required)")
	_ = cmd.MarkFlagRequired("price")

	return cmd
}

func runPrice(opts *PriceOptions, batchID string, cmd *cobra.Command) error {
	return withApp(opts.RootOptions, cmd, func(ctx context.Context, a *app) error {
		price, err := decimal.NewFromString(opts.Price)
		if err != nil {
			return domain.ValidationError{Field: "price", Reason: fmt.Sprintf("%q is not a number", opts.Price)}
		}
		batch, res, err := a.svc.SetPrice(ctx, batchID, opts.Retailer, price)
		if err != nil {
			return err
		}
		a.reportViolations(res)
		return a.out.Success(batch, func(w io.Writer) {
			fmt.Fprintf(w, "Price of batch %s set to $%s.\n", batch.ID, price.StringFixed(2))
			a.renderBatch(w, batch)
		})
	})
}

// SellOptions holds flags for the sell command.
type SellOptions struct {
	*RootOptions
	Retailer string
}

// NewSellCommand creates the sell command.
func NewSellCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SellOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "sell <batch-id>",
		Short:         "Mark a priced batch as sold to a consumer",
		Args:          cobra.ExactArgs(1),
		Example:       "  agritrace sell batch_1727769600000 --retailer user_retailer_1",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSell(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Retailer, "retailer", "", "retailer actor id (required)")
	_ = cmd.MarkFlagRequired("retailer")

	return cmd
}

func runSell(opts *SellOptions, batchID string, cmd *cobra.Command) error {
	return withApp(opts.RootOptions, cmd, func(ctx context.Context, a *app) error {
		batch, res, err := a.svc.SellToConsumer(ctx, batchID, opts.Retailer)
		if err != nil {
			return err
		}
		a.reportViolations(res)
		return a.out.Success(batch, func(w io.Writer) {
			fmt.Fprintf(w, "Batch %s sold.\n", batch.ID)
			a.renderBatch(w, batch)
		})
	})
}

// CertifyOptions holds flags for the certify command.
type CertifyOptions struct {
	*RootOptions
	Grade     string
	Standards string
}

// NewCertifyCommand creates the certify command.
func NewCertifyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CertifyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "certify <batch-id>",
		Short: "Issue a grading certificate for a batch",
		Long: `Issue a grading certificate on behalf of the batch's farmer.

The batch quality grade follows the latest certificate.

Examples:
  agritrace certify batch_1727769600000 --grade Premium --standards "USDA Organic"`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCertify(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Grade, "grade", "", "certified grade (required)")
	_ = cmd.MarkFlagRequired("grade")
	cmd.Flags().StringVar(&opts.Standards, "standards", "", "quality standards applied (required)")
	_ = cmd.MarkFlagRequired("standards")

	return cmd
}

func runCertify(opts *CertifyOptions, batchID string, cmd *cobra.Command) error {
	return withApp(opts.RootOptions, cmd, func(ctx context.Context, a *app) error {
		cert, res, err := a.svc.IssueCertificate(ctx, batchID, opts.Grade, opts.Standards)
		if err != nil {
			return err
		}
		a.reportViolations(res)
		return a.out.Success(cert, func(w io.Writer) {
			fmt.Fprintf(w, "Certificate %s issued for batch %s.\n", cert.ID, cert.BatchID)
			fmt.Fprintf(w, "  Grade:     %s\n", cert.Grade)
			fmt.Fprintf(w, "  Standards: %s\n", cert.QualityStandards)
			fmt.Fprintf(w, "  Issued by: %s\n", a.actorName(cert.IssuedByActorID))
			fmt.Fprintf(w, "  Digest:    %s\n", cert.CertificateDigest)
		})
	})
}
