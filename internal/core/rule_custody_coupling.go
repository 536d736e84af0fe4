package core

import (
	"context"
	"fmt"

	"github.com/shubh1021/AgriTrace/pkg/domain"
)

const ruleCustodyCoupling = "custody_coupling"

// CustodyCouplingRule ties custody to the ledger: status and owner move
// together and only alongside a transfer appended to the new owner, except
// for a sale, which sets Sold and keeps the owner. Every appended transfer
// must in turn hand the batch to its recipient.
func CustodyCouplingRule() domain.Rule {
	return custodyCouplingRule{}
}

type custodyCouplingRule struct{}

func (custodyCouplingRule) Name() string { return ruleCustodyCoupling }

func (custodyCouplingRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	block := func(entity EntityType, id, format string, args ...any) {
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     ruleCustodyCoupling,
			Severity: domain.SeverityBlock,
			Message:  fmt.Sprintf(format, args...),
			Entity:   entity,
			EntityID: id,
		})
	}

	appended := appendedTransfers(changes)
	recipients := make(map[string]struct{}, len(appended))
	for _, t := range appended {
		recipients[t.BatchID+"\x00"+t.ToActorID] = struct{}{}
	}

	for _, c := range batchChanges(changes) {
		if !c.hasBefore {
			continue
		}
		before, after := c.before, c.after
		statusChanged := before.Status != after.Status
		ownerChanged := before.CurrentOwnerID != after.CurrentOwnerID
		if !statusChanged && !ownerChanged {
			continue
		}
		if before.Status == StatusAtRetailer && after.Status == StatusSold && !ownerChanged {
			continue
		}
		if statusChanged != ownerChanged {
			block(EntityBatch, after.ID, "batch %s changed status and owner independently", after.ID)
			continue
		}
		if _, ok := recipients[after.ID+"\x00"+after.CurrentOwnerID]; !ok {
			block(EntityBatch, after.ID, "batch %s changed owner to %s without a ledger transfer", after.ID, after.CurrentOwnerID)
		}
	}

	for _, t := range appended {
		batch, ok := view.FindBatch(t.BatchID)
		if !ok {
			block(EntityTransfer, t.ID, "transfer %s references unknown batch %s", t.ID, t.BatchID)
			continue
		}
		if batch.CurrentOwnerID != t.ToActorID {
			block(EntityTransfer, t.ID, "transfer %s to %s did not hand over batch %s", t.ID, t.ToActorID, t.BatchID)
		}
	}
	return res, nil
}
