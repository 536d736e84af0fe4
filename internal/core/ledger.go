package core

import (
	"context"

	"github.com/shubh1021/AgriTrace/internal/digest"
	"github.com/shubh1021/AgriTrace/pkg/domain"
)

// Ledger is the read side of the append-only transfer log.
type Ledger struct {
	store PersistentStore
}

// NewLedger returns a ledger reader over store.
func NewLedger(store PersistentStore) *Ledger {
	return &Ledger{store: store}
}

// Ledger returns the transfer log reader of the service's store.
func (s *Service) Ledger() *Ledger { return NewLedger(s.store) }

// ListFor returns the batch's transfers in ledger order. A batch with no
// transfers yields an empty slice; an unknown batch is NotFound.
func (l *Ledger) ListFor(ctx context.Context, batchID string) ([]Transfer, error) {
	var (
		out   []Transfer
		found bool
	)
	err := l.store.View(ctx, batchID, func(view TransactionView) error {
		_, found = view.FindBatch(batchID)
		out = view.ListTransfers(batchID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, domain.NotFoundError{Entity: EntityBatch, ID: batchID}
	}
	if out == nil {
		out = []Transfer{}
	}
	return out, nil
}

// DigestCheck compares one stored fingerprint with a fresh computation.
type DigestCheck struct {
	Entity   EntityType `json:"entity"`
	ID       string     `json:"id"`
	Stored   string     `json:"stored"`
	Computed string     `json:"computed"`
	Valid    bool       `json:"valid"`
}

func newDigestCheck(entity EntityType, id, stored, computed string) DigestCheck {
	return DigestCheck{Entity: entity, ID: id, Stored: stored, Computed: computed, Valid: stored == computed}
}

// Verify recomputes every transfer receipt of the batch.
func (l *Ledger) Verify(ctx context.Context, batchID string) ([]DigestCheck, error) {
	var (
		checks []DigestCheck
		found  bool
	)
	err := l.store.View(ctx, batchID, func(view TransactionView) error {
		var batch Batch
		batch, found = view.FindBatch(batchID)
		if found {
			checks = receiptChecks(batch, view.ListTransfers(batchID))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, domain.NotFoundError{Entity: EntityBatch, ID: batchID}
	}
	return checks, nil
}

func receiptChecks(batch Batch, transfers []Transfer) []DigestCheck {
	checks := make([]DigestCheck, 0, len(transfers))
	for _, t := range transfers {
		checks = append(checks, newDigestCheck(EntityTransfer, t.ID, t.ReceiptDigest, digest.ReceiptOf(batch, t).Sum()))
	}
	return checks
}
