package core

import (
	"context"
	"time"

	"github.com/shubh1021/AgriTrace/internal/identity"
	"github.com/shubh1021/AgriTrace/pkg/domain"
)

// EventKind classifies a provenance event.
type EventKind string

const (
	EventFarmed       EventKind = "Farmed"
	EventDistribution EventKind = "Distribution"
	EventRetail       EventKind = "Retail"
	EventSold         EventKind = "Sold"
)

const (
	dayLayout    = "January 2, 2006"
	minuteLayout = "January 2, 2006 3:04 PM"
)

// ProvenanceEvent is one human-readable step of a batch's journey.
type ProvenanceEvent struct {
	Kind      EventKind `json:"status"`
	Title     string    `json:"title"`
	Details   []string  `json:"details"`
	Timestamp time.Time `json:"timestamp"`
	ActorID   string    `json:"actorId,omitempty"`
}

// Reconstruct projects the batch and its ledger, read from one snapshot,
// into an ordered timeline.
func (s *Service) Reconstruct(ctx context.Context, batchID string) ([]ProvenanceEvent, error) {
	var (
		events []ProvenanceEvent
		found  bool
	)
	err := s.store.View(ctx, batchID, func(view TransactionView) error {
		batch, ok := view.FindBatch(batchID)
		if !ok {
			return nil
		}
		found = true
		events = BuildTimeline(batch, view.ListTransfers(batchID), s.directory)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, domain.NotFoundError{Entity: EntityBatch, ID: batchID}
	}
	return events, nil
}

// BuildTimeline derives the events for batch from its ledger-ordered
// transfers. It has no side effects. Event timestamps never decrease.
func BuildTimeline(batch Batch, transfers []Transfer, dir identity.Directory) []ProvenanceEvent {
	events := make([]ProvenanceEvent, 0, len(transfers)+3)

	if farmer, ok := dir.FindByID(batch.FarmerID); ok {
		events = append(events, ProvenanceEvent{
			Kind:  EventFarmed,
			Title: "Harvested by " + farmer.DisplayName,
			Details: []string{
				"Product: " + batch.ProductType,
				"Location: " + batch.HarvestLocation,
				"Harvest Date: " + formatHarvestDate(batch.HarvestDate),
				"Quantity: " + batch.Quantity.String() + " kg",
				"Quality: " + batch.QualityGrade,
			},
			Timestamp: batch.CreatedAt,
			ActorID:   farmer.ID,
		})
	}

	for _, t := range transfers {
		events = append(events, ProvenanceEvent{
			Kind:  EventDistribution,
			Title: "Transferred to " + identity.DisplayName(dir, t.ToActorID, "Unknown"),
			Details: []string{
				"Handled by: " + identity.DisplayName(dir, t.FromActorID, "Unknown"),
				"Date: " + t.Timestamp.UTC().Format(minuteLayout),
			},
			Timestamp: t.Timestamp,
			ActorID:   t.ToActorID,
		})
	}

	if batch.Status == StatusAtRetailer || batch.Status == StatusSold {
		var retailerID string
		stocked := batch.UpdatedAt
		if n := len(transfers); n > 0 {
			retailerID = transfers[n-1].ToActorID
			stocked = transfers[n-1].Timestamp
		}
		retail := ProvenanceEvent{
			Kind:      EventRetail,
			Title:     "Stocked at " + identity.DisplayName(dir, retailerID, "Retailer"),
			Details:   []string{"Awaiting pricing information."},
			Timestamp: stocked,
			ActorID:   retailerID,
		}
		if latest, ok := batch.LatestPrice(); ok {
			retail.Details = []string{
				"Price set on " + latest.Timestamp.UTC().Format(dayLayout),
				"Price: $" + latest.Price.StringFixed(2),
			}
			retail.Timestamp = latest.Timestamp
		}
		events = append(events, retail)
	}

	if batch.Status == StatusSold {
		soldAt := batch.UpdatedAt
		if batch.SoldAt != nil {
			soldAt = *batch.SoldAt
		}
		sold := ProvenanceEvent{
			Kind:      EventSold,
			Title:     "Sold to consumer",
			Details:   []string{"Sold by: " + identity.DisplayName(dir, batch.CurrentOwnerID, "Retailer")},
			Timestamp: soldAt,
			ActorID:   batch.CurrentOwnerID,
		}
		if batch.CurrentPrice != nil {
			sold.Details = append(sold.Details, "Final price: $"+batch.CurrentPrice.StringFixed(2))
		}
		events = append(events, sold)
	}

	for i := 1; i < len(events); i++ {
		if events[i].Timestamp.Before(events[i-1].Timestamp) {
			events[i].Timestamp = events[i-1].Timestamp
		}
	}
	return events
}

func formatHarvestDate(raw string) string {
	d, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return raw
	}
	return d.Format(dayLayout)
}
