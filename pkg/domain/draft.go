package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DraftBatch collects batch creation input that may arrive piecemeal, for
// example from a conversational intake. Each field carries its own presence
// flag; nothing crosses into a Batch until Validate succeeds.
type DraftBatch struct {
	productType  string
	quantity     decimal.Decimal
	location     string
	harvestDate  string
	qualityGrade string
	name         string

	hasProductType  bool
	hasQuantity     bool
	hasLocation     bool
	hasHarvestDate  bool
	hasQualityGrade bool
	hasName         bool
}

// BatchInput is the validated, complete form of a DraftBatch.
type BatchInput struct {
	ProductType  string
	Quantity     decimal.Decimal
	Location     string
	HarvestDate  string
	QualityGrade string
	// Name is optional; empty means the registry's name generator decides.
	Name string
}

// NewDraft returns a draft with all fields set, convenient for callers that
// already hold complete form data.
func NewDraft(productType string, quantity decimal.Decimal, location, harvestDate, qualityGrade string) DraftBatch {
	var d DraftBatch
	d.SetProductType(productType)
	d.SetQuantity(quantity)
	d.SetLocation(location)
	d.SetHarvestDate(harvestDate)
	d.SetQualityGrade(qualityGrade)
	return d
}

func (d *DraftBatch) SetProductType(v string)       { d.productType, d.hasProductType = v, true }
func (d *DraftBatch) SetQuantity(v decimal.Decimal) { d.quantity, d.hasQuantity = v, true }
func (d *DraftBatch) SetLocation(v string)          { d.location, d.hasLocation = v, true }
func (d *DraftBatch) SetHarvestDate(v string)       { d.harvestDate, d.hasHarvestDate = v, true }
func (d *DraftBatch) SetQualityGrade(v string)      { d.qualityGrade, d.hasQualityGrade = v, true }

// SetName supplies an explicit batch name, bypassing the name generator.
func (d *DraftBatch) SetName(v string) { d.name, d.hasName = v, true }

// Missing lists the required fields not yet supplied, in intake order.
func (d DraftBatch) Missing() []string {
	var out []string
	if !d.hasProductType || strings.TrimSpace(d.productType) == "" {
		out = append(out, "productType")
	}
	if !d.hasQuantity {
		out = append(out, "quantity")
	}
	if !d.hasLocation || strings.TrimSpace(d.location) == "" {
		out = append(out, "location")
	}
	if !d.hasHarvestDate || strings.TrimSpace(d.harvestDate) == "" {
		out = append(out, "harvestDate")
	}
	if !d.hasQualityGrade || strings.TrimSpace(d.qualityGrade) == "" {
		out = append(out, "qualityGrade")
	}
	return out
}

// Complete reports whether every required field is present.
func (d DraftBatch) Complete() bool { return len(d.Missing()) == 0 }

// Validate checks the draft wholesale and returns the complete input.
func (d DraftBatch) Validate() (BatchInput, error) {
	if missing := d.Missing(); len(missing) > 0 {
		return BatchInput{}, ValidationError{Field: missing[0], Reason: "is required"}
	}
	if !d.quantity.IsPositive() {
		return BatchInput{}, ValidationError{Field: "quantity", Reason: "must be greater than zero"}
	}
	harvested := strings.TrimSpace(d.harvestDate)
	if _, err := time.Parse(time.DateOnly, harvested); err != nil {
		return BatchInput{}, ValidationError{Field: "harvestDate", Reason: "must be a calendar date (YYYY-MM-DD)"}
	}
	in := BatchInput{
		ProductType:  strings.TrimSpace(d.productType),
		Quantity:     d.quantity,
		Location:     strings.TrimSpace(d.location),
		HarvestDate:  harvested,
		QualityGrade: strings.TrimSpace(d.qualityGrade),
	}
	if d.hasName {
		in.Name = strings.TrimSpace(d.name)
	}
	return in, nil
}
