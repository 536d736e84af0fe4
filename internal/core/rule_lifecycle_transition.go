package core

import (
	"context"
	"fmt"

	"github.com/shubh1021/AgriTrace/pkg/domain"
)

const ruleLifecycleTransition = "lifecycle_transition"

// LifecycleTransitionRule blocks batch status changes outside
// At Farm -> In Transit -> At Retailer -> Sold, and creations that do not
// start At Farm with the farmer as owner.
func LifecycleTransitionRule() domain.Rule {
	return lifecycleTransitionRule{}
}

type lifecycleTransitionRule struct{}

// batchTransitions lists the forward edge out of each non-terminal state.
var batchTransitions = map[BatchStatus]BatchStatus{
	StatusAtFarm:     StatusInTransit,
	StatusInTransit:  StatusAtRetailer,
	StatusAtRetailer: StatusSold,
}

func (lifecycleTransitionRule) Name() string { return ruleLifecycleTransition }

func (lifecycleTransitionRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	block := func(id, format string, args ...any) {
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     ruleLifecycleTransition,
			Severity: domain.SeverityBlock,
			Message:  fmt.Sprintf(format, args...),
			Entity:   EntityBatch,
			EntityID: id,
		})
	}
	for _, c := range batchChanges(changes) {
		after := c.after
		if !after.Status.Valid() {
			block(after.ID, "batch %s is set to invalid status %q", after.ID, after.Status)
			continue
		}
		if !c.hasBefore {
			if after.Status != StatusAtFarm {
				block(after.ID, "batch %s must be created %q, got %q", after.ID, StatusAtFarm, after.Status)
			}
			if after.CurrentOwnerID != after.FarmerID {
				block(after.ID, "batch %s must be created owned by its farmer", after.ID)
			}
			continue
		}
		from, to := c.before.Status, after.Status
		if c.before.SoldAt != nil && (after.SoldAt == nil || !after.SoldAt.Equal(*c.before.SoldAt)) {
			block(after.ID, "batch %s sale time cannot change", after.ID)
		}
		if from == to {
			continue
		}
		if to == StatusSold && after.SoldAt == nil {
			block(after.ID, "batch %s moved to %q without a sale time", after.ID, to)
		}
		if next, ok := batchTransitions[from]; !ok || next != to {
			block(after.ID, "cannot move batch %s from %q to %q", after.ID, from, to)
		}
	}
	return res, nil
}
