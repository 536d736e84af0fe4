package core

import (
	"context"
	"fmt"

	"github.com/shubh1021/AgriTrace/pkg/domain"
)

const rulePriceHistory = "price_history_append_only"

// PriceHistoryRule keeps price history append-only. New entries must come
// from the owner while the batch is At Retailer, and the current price
// always mirrors the latest entry.
func PriceHistoryRule() domain.Rule {
	return priceHistoryRule{}
}

type priceHistoryRule struct{}

func (priceHistoryRule) Name() string { return rulePriceHistory }

func (priceHistoryRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	block := func(id, format string, args ...any) {
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     rulePriceHistory,
			Severity: domain.SeverityBlock,
			Message:  fmt.Sprintf(format, args...),
			Entity:   EntityBatch,
			EntityID: id,
		})
	}
	for _, c := range batchChanges(changes) {
		after := c.after
		if !c.hasBefore {
			if len(after.PriceHistory) > 0 || after.CurrentPrice != nil {
				block(after.ID, "batch %s must be created without prices", after.ID)
			}
			continue
		}
		before := c.before
		if len(after.PriceHistory) < len(before.PriceHistory) {
			block(after.ID, "batch %s price history shrank from %d to %d entries", after.ID, len(before.PriceHistory), len(after.PriceHistory))
			continue
		}
		rewritten := false
		for i, prev := range before.PriceHistory {
			if !samePriceEntry(prev, after.PriceHistory[i]) {
				block(after.ID, "batch %s price history entry %d was rewritten", after.ID, i)
				rewritten = true
				break
			}
		}
		if rewritten {
			continue
		}
		for _, entry := range after.PriceHistory[len(before.PriceHistory):] {
			switch {
			case before.Status != StatusAtRetailer || after.Status != StatusAtRetailer:
				block(after.ID, "batch %s priced outside %q", after.ID, StatusAtRetailer)
			case entry.SetByActorID != before.CurrentOwnerID:
				block(after.ID, "batch %s priced by %s, owner is %s", after.ID, entry.SetByActorID, before.CurrentOwnerID)
			case !entry.Price.IsPositive():
				block(after.ID, "batch %s priced at non-positive %s", after.ID, entry.Price)
			}
		}
		latest, ok := after.LatestPrice()
		switch {
		case ok && (after.CurrentPrice == nil || !after.CurrentPrice.Equal(latest.Price)):
			block(after.ID, "batch %s current price does not match its latest entry", after.ID)
		case !ok && after.CurrentPrice != nil:
			block(after.ID, "batch %s has a current price without history", after.ID)
		}
	}
	return res, nil
}

func samePriceEntry(a, b PriceEntry) bool {
	return a.Price.Equal(b.Price) && a.SetByActorID == b.SetByActorID && a.Timestamp.Equal(b.Timestamp)
}
