package core

import (
	"context"
	"sort"

	"github.com/shubh1021/AgriTrace/pkg/domain"
)

// EnrichedTransfer is a ledger entry with both parties resolved. Unknown
// actors stay nil.
type EnrichedTransfer struct {
	Transfer
	From *Actor `json:"fromUser,omitempty"`
	To   *Actor `json:"toUser,omitempty"`
}

// BatchDetails is the consumer-facing view of one batch.
type BatchDetails struct {
	Batch       Batch               `json:"batch"`
	Transfers   []EnrichedTransfer  `json:"transfers"`
	Farmer      *Actor              `json:"farmer,omitempty"`
	Retailer    *Actor              `json:"retailer,omitempty"`
	Certificate *GradingCertificate `json:"certificate,omitempty"`
}

// GetBatch returns the committed batch with id.
func (s *Service) GetBatch(_ context.Context, id string) (Batch, error) {
	b, ok := s.store.GetBatch(id)
	if !ok {
		return Batch{}, domain.NotFoundError{Entity: EntityBatch, ID: id}
	}
	return b, nil
}

// ListBatchesByFarmer returns every batch the farmer created, whoever owns
// it now.
func (s *Service) ListBatchesByFarmer(_ context.Context, farmerID string) []Batch {
	return s.filterBatches(func(b Batch) bool { return b.FarmerID == farmerID })
}

// ListBatchesForDistributor returns the distributor's batches in transit.
func (s *Service) ListBatchesForDistributor(_ context.Context, distributorID string) []Batch {
	return s.filterBatches(func(b Batch) bool {
		return b.CurrentOwnerID == distributorID && b.Status == StatusInTransit
	})
}

// ListBatchesForRetailer returns the batches stocked at the retailer.
func (s *Service) ListBatchesForRetailer(_ context.Context, retailerID string) []Batch {
	return s.filterBatches(func(b Batch) bool {
		return b.CurrentOwnerID == retailerID && b.Status == StatusAtRetailer
	})
}

// ListBatchesForActor dispatches on the actor's role: farmers see what they
// grew, distributors and retailers see what they currently hold, consumers
// see nothing.
func (s *Service) ListBatchesForActor(ctx context.Context, actorID string) ([]Batch, error) {
	actor, ok := s.directory.FindByID(actorID)
	if !ok {
		return nil, domain.NotFoundError{Entity: EntityActor, ID: actorID}
	}
	switch actor.Role {
	case RoleFarmer:
		return s.ListBatchesByFarmer(ctx, actorID), nil
	case RoleDistributor:
		return s.ListBatchesForDistributor(ctx, actorID), nil
	case RoleRetailer:
		return s.ListBatchesForRetailer(ctx, actorID), nil
	default:
		return []Batch{}, nil
	}
}

func (s *Service) filterBatches(keep func(Batch) bool) []Batch {
	out := []Batch{}
	for _, b := range s.store.ListBatches() {
		if keep(b) {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// GetBatchDetails reads the batch, its ledger and its certificate from one
// snapshot and resolves the actors involved. The retailer is the recipient
// of the last transfer once the batch has reached a retailer.
func (s *Service) GetBatchDetails(ctx context.Context, id string) (BatchDetails, error) {
	var (
		details BatchDetails
		found   bool
	)
	err := s.store.View(ctx, id, func(view TransactionView) error {
		batch, ok := view.FindBatch(id)
		if !ok {
			return nil
		}
		found = true
		details = s.describe(batch, view.ListTransfers(id))
		details.Certificate = certificateOf(view, batch)
		return nil
	})
	if err != nil {
		return BatchDetails{}, err
	}
	if !found {
		return BatchDetails{}, domain.NotFoundError{Entity: EntityBatch, ID: id}
	}
	return details, nil
}

func (s *Service) describe(batch Batch, transfers []Transfer) BatchDetails {
	details := BatchDetails{
		Batch:     batch,
		Transfers: make([]EnrichedTransfer, 0, len(transfers)),
		Farmer:    s.lookupActor(batch.FarmerID),
	}
	for _, t := range transfers {
		details.Transfers = append(details.Transfers, EnrichedTransfer{
			Transfer: t,
			From:     s.lookupActor(t.FromActorID),
			To:       s.lookupActor(t.ToActorID),
		})
	}
	if batch.Status == StatusAtRetailer || batch.Status == StatusSold {
		if n := len(details.Transfers); n > 0 {
			details.Retailer = details.Transfers[n-1].To
		}
	}
	return details
}

func (s *Service) lookupActor(id string) *Actor {
	if id == "" {
		return nil
	}
	a, ok := s.directory.FindByID(id)
	if !ok {
		return nil
	}
	return &a
}
