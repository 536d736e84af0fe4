package core

import "github.com/shubh1021/AgriTrace/pkg/domain"

// decodeChangePayload decodes a change snapshot into T. It reports false when
// the payload is undefined, empty or does not decode.
func decodeChangePayload[T any](payload domain.ChangePayload) (T, bool) {
	out, err := domain.DecodeChangePayload[T](payload)
	return out, err == nil
}

// batchChange is a decoded batch mutation.
type batchChange struct {
	action Action
	before Batch
	after  Batch
	// hasBefore is false for creations.
	hasBefore bool
}

// batchChanges decodes every batch change in commit order.
func batchChanges(changes []Change) []batchChange {
	var out []batchChange
	for _, c := range changes {
		if c.Entity != EntityBatch {
			continue
		}
		after, ok := decodeChangePayload[Batch](c.After)
		if !ok {
			continue
		}
		bc := batchChange{action: c.Action, after: after}
		bc.before, bc.hasBefore = decodeChangePayload[Batch](c.Before)
		out = append(out, bc)
	}
	return out
}

// appendedTransfers decodes the transfers appended in this transaction.
func appendedTransfers(changes []Change) []Transfer {
	var out []Transfer
	for _, c := range changes {
		if c.Entity != EntityTransfer || c.Action != ActionAppend {
			continue
		}
		if t, ok := decodeChangePayload[Transfer](c.After); ok {
			out = append(out, t)
		}
	}
	return out
}
