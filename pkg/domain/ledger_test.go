package domain

import (
	"testing"
	"time"
)

func TestSortLedgerBreaksTiesBySequence(t *testing.T) {
	base := time.Date(2024, 7, 21, 9, 0, 0, 0, time.UTC)
	ledger := []Transfer{
		{ID: "c", Sequence: 3, Timestamp: base.Add(time.Minute)},
		{ID: "b", Sequence: 2, Timestamp: base},
		{ID: "a", Sequence: 1, Timestamp: base},
	}
	SortLedger(ledger)
	for i, want := range []string{"a", "b", "c"} {
		if ledger[i].ID != want {
			t.Fatalf("position %d = %s, want %s", i, ledger[i].ID, want)
		}
	}
}

func TestLastTransferTo(t *testing.T) {
	ledger := []Transfer{
		{ID: "t1", ToActorID: "d1"},
		{ID: "t2", ToActorID: "r1"},
		{ID: "t3", ToActorID: "d1"},
	}
	if got, ok := LastTransferTo(ledger, "d1"); !ok || got.ID != "t3" {
		t.Fatalf("expected t3, got %+v", got)
	}
	if _, ok := LastTransferTo(ledger, "nobody"); ok {
		t.Fatalf("expected no transfer")
	}
}
