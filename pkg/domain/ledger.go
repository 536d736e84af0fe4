package domain

import "sort"

// SortLedger orders transfers by timestamp ascending, breaking ties by
// insertion sequence.
func SortLedger(transfers []Transfer) {
	sort.SliceStable(transfers, func(i, j int) bool {
		a, b := transfers[i], transfers[j]
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.Before(b.Timestamp)
		}
		return a.Sequence < b.Sequence
	})
}

// LastTransferTo returns the most recent ledger entry addressed to actorID.
// transfers must already be in ledger order.
func LastTransferTo(transfers []Transfer, actorID string) (Transfer, bool) {
	for i := len(transfers) - 1; i >= 0; i-- {
		if transfers[i].ToActorID == actorID {
			return transfers[i], true
		}
	}
	return Transfer{}, false
}
