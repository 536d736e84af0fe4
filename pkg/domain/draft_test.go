package domain

import (
	"errors"
	"reflect"
	"testing"

	"github.com/shopspring/decimal"
)

func TestDraftMissingFieldsInIntakeOrder(t *testing.T) {
	var d DraftBatch
	want := []string{"productType", "quantity", "location", "harvestDate", "qualityGrade"}
	if got := d.Missing(); !reflect.DeepEqual(got, want) {
		t.Fatalf("missing = %v, want %v", got, want)
	}
	d.SetQuantity(decimal.NewFromInt(10))
	d.SetLocation("   ")
	if got := d.Missing(); !reflect.DeepEqual(got, []string{"productType", "location", "harvestDate", "qualityGrade"}) {
		t.Fatalf("unexpected missing fields %v", got)
	}
	if d.Complete() {
		t.Fatalf("partial draft reported complete")
	}
}

func TestDraftValidate(t *testing.T) {
	cases := []struct {
		name  string
		draft DraftBatch
		field string
	}{
		{"empty product", NewDraft("", decimal.NewFromInt(1), "Valley", "2024-07-20", "A"), "productType"},
		{"zero quantity", NewDraft("Tomatoes", decimal.Zero, "Valley", "2024-07-20", "A"), "quantity"},
		{"negative quantity", NewDraft("Tomatoes", decimal.NewFromInt(-3), "Valley", "2024-07-20", "A"), "quantity"},
		{"blank grade", NewDraft("Tomatoes", decimal.NewFromInt(3), "Valley", "2024-07-20", " "), "qualityGrade"},
		{"harvest date not a date", NewDraft("Tomatoes", decimal.NewFromInt(3), "Valley", "last Tuesday", "A"), "harvestDate"},
		{"harvest date day first", NewDraft("Tomatoes", decimal.NewFromInt(3), "Valley", "20/07/2024", "A"), "harvestDate"},
		{"harvest date impossible day", NewDraft("Tomatoes", decimal.NewFromInt(3), "Valley", "2024-02-30", "A"), "harvestDate"},
		{"harvest date with time", NewDraft("Tomatoes", decimal.NewFromInt(3), "Valley", "2024-07-20T08:00:00Z", "A"), "harvestDate"},
		{"quantity before date", NewDraft("Tomatoes", decimal.Zero, "Valley", "soon", "A"), "quantity"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.draft.Validate()
			var ve ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if ve.Field != tc.field {
				t.Fatalf("field = %q, want %q", ve.Field, tc.field)
			}
		})
	}
}

func TestDraftValidateTrimsAndKeepsName(t *testing.T) {
	d := NewDraft(" Tomatoes ", decimal.RequireFromString("100.5"), " Green Valley ", " 2024-07-20 ", " Grade A ")
	in, err := d.Validate()
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if in.ProductType != "Tomatoes" || in.Location != "Green Valley" || in.HarvestDate != "2024-07-20" || in.QualityGrade != "Grade A" {
		t.Fatalf("expected trimmed values, got %+v", in)
	}
	if in.Name != "" {
		t.Fatalf("expected empty name without SetName, got %q", in.Name)
	}
	d.SetName(" Heirloom Lot ")
	in, err = d.Validate()
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if in.Name != "Heirloom Lot" {
		t.Fatalf("name = %q", in.Name)
	}
	if !in.Quantity.Equal(decimal.RequireFromString("100.5")) {
		t.Fatalf("quantity = %s", in.Quantity)
	}
}
