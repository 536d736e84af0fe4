package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/shubh1021/AgriTrace/internal/core"
)

const minuteLayout = "January 2, 2006 3:04 PM"

func (a *app) renderBatch(w io.Writer, b core.Batch) {
	fmt.Fprintf(w, "Batch %s\n", b.ID)
	fmt.Fprintf(w, "  Name:      %s\n", b.Name)
	fmt.Fprintf(w, "  Product:   %s, %s kg\n", b.ProductType, b.Quantity.String())
	fmt.Fprintf(w, "  Harvest:   %s on %s (grade %s)\n", b.HarvestLocation, b.HarvestDate, b.CreationGrade())
	fmt.Fprintf(w, "  Status:    %s\n", b.Status)
	fmt.Fprintf(w, "  Custodian: %s\n", a.actorName(b.CurrentOwnerID))
	if b.CurrentPrice != nil {
		fmt.Fprintf(w, "  Price:     $%s\n", b.CurrentPrice.StringFixed(2))
	}
	if b.QualityGrade != b.CreationGrade() {
		fmt.Fprintf(w, "  Graded:    %s\n", b.QualityGrade)
	}
	fmt.Fprintf(w, "  Trace URL: %s\n", b.QRCodeURL)
}

func renderBatchTable(w io.Writer, batches []core.Batch) {
	if len(batches) == 0 {
		fmt.Fprintln(w, "No batches found.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPRODUCT\tQUANTITY\tSTATUS\tCUSTODIAN\tPRICE")
	for _, b := range batches {
		price := "-"
		if b.CurrentPrice != nil {
			price = "$" + b.CurrentPrice.StringFixed(2)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", b.ID, b.ProductType, b.Quantity.String(), b.Status, b.CurrentOwnerID, price)
	}
	_ = tw.Flush()
}

func renderDetails(w io.Writer, a *app, d core.BatchDetails) {
	a.renderBatch(w, d.Batch)
	if d.Farmer != nil {
		fmt.Fprintf(w, "  Farmer:    %s <%s>\n", d.Farmer.DisplayName, d.Farmer.ID)
	}
	if d.Retailer != nil {
		fmt.Fprintf(w, "  Retailer:  %s <%s>\n", d.Retailer.DisplayName, d.Retailer.ID)
	}
	if d.Certificate != nil {
		c := d.Certificate
		fmt.Fprintf(w, "  Certificate %s: grade %s, %s, issued %s\n", c.ID, c.Grade, c.QualityStandards, c.IssueDate.Format(minuteLayout))
	}
	if len(d.Transfers) == 0 {
		fmt.Fprintln(w, "  Transfers: none")
		return
	}
	fmt.Fprintln(w, "  Transfers:")
	for _, t := range d.Transfers {
		from, to := t.FromActorID, t.ToActorID
		if t.From != nil {
			from = t.From.DisplayName
		}
		if t.To != nil {
			to = t.To.DisplayName
		}
		fmt.Fprintf(w, "    #%d %s -> %s at %s\n", t.Sequence, from, to, t.Timestamp.Format(minuteLayout))
		if tr := t.TransportDetails; tr != nil {
			fmt.Fprintf(w, "       by %s %s, driver %s\n", tr.Mode, tr.VehicleNumber, tr.DriverName)
		}
	}
}

func renderTimeline(w io.Writer, events []core.ProvenanceEvent) {
	for i, e := range events {
		fmt.Fprintf(w, "%d. %s  [%s]\n", i+1, e.Title, e.Timestamp.Format(minuteLayout))
		for _, line := range e.Details {
			fmt.Fprintf(w, "   %s\n", line)
		}
	}
}

func renderReport(w io.Writer, r core.VerificationReport) {
	for _, c := range r.Checks {
		state := "ok"
		if !c.Valid {
			state = "MISMATCH"
		}
		fmt.Fprintf(w, "%-8s %-12s %s\n", state, c.Entity, c.ID)
	}
	if r.Valid {
		fmt.Fprintf(w, "Batch %s verified: %d digests match.\n", r.BatchID, len(r.Checks))
	}
}
