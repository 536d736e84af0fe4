package core

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shubh1021/AgriTrace/internal/identity"
	"github.com/shubh1021/AgriTrace/pkg/domain"
)

func TestBuildTimelineAtFarm(t *testing.T) {
	b := ruleBatch(StatusAtFarm, farmerID)
	events := BuildTimeline(b, nil, identity.Default())
	if len(events) != 1 {
		t.Fatalf("expected a single farm event, got %d", len(events))
	}
	farm := events[0]
	if farm.Kind != EventFarmed || farm.Title != "Harvested by Green Valley Farms" {
		t.Fatalf("unexpected farm event %+v", farm)
	}
	want := []string{
		"Product: Tomatoes",
		"Location: Salinas, CA",
		"Harvest Date: September 30, 2026",
		"Quantity: 100 kg",
		"Quality: Grade A",
	}
	if !reflect.DeepEqual(farm.Details, want) {
		t.Fatalf("unexpected farm details %q", farm.Details)
	}
	if !farm.Timestamp.Equal(b.CreatedAt) || farm.ActorID != farmerID {
		t.Fatalf("expected farm event at creation by the farmer, got %+v", farm)
	}
}

func TestBuildTimelineUnknownActors(t *testing.T) {
	b := ruleBatch(StatusAtRetailer, "user_gone")
	transfers := []Transfer{
		{ID: "t1", BatchID: b.ID, Sequence: 1, FromActorID: farmerID, ToActorID: "user_lost", Timestamp: testEpoch.Add(time.Hour)},
		{ID: "t2", BatchID: b.ID, Sequence: 2, FromActorID: "user_lost", ToActorID: "user_gone", Timestamp: testEpoch.Add(2 * time.Hour)},
	}
	events := BuildTimeline(b, transfers, identity.NewStatic())
	if len(events) != 3 {
		t.Fatalf("expected two distribution events and a retail event, got %d", len(events))
	}
	if events[0].Title != "Transferred to Unknown" || events[0].Details[0] != "Handled by: Unknown" {
		t.Fatalf("expected placeholders, got %+v", events[0])
	}
	if events[0].Details[1] != "Date: October 1, 2026 9:00 AM" {
		t.Fatalf("unexpected date line %q", events[0].Details[1])
	}
	retail := events[2]
	if retail.Kind != EventRetail || retail.Title != "Stocked at Retailer" {
		t.Fatalf("unexpected retail event %+v", retail)
	}
	if !reflect.DeepEqual(retail.Details, []string{"Awaiting pricing information."}) {
		t.Fatalf("expected pending pricing marker, got %q", retail.Details)
	}
}

func TestBuildTimelineSoldWithPrice(t *testing.T) {
	b := ruleBatch(StatusSold, retailerID)
	priced := testEpoch.Add(3 * time.Hour)
	b.PriceHistory = []PriceEntry{
		{Price: decimal.RequireFromString("5"), SetByActorID: retailerID, Timestamp: priced.Add(-time.Minute)},
		{Price: decimal.RequireFromString("4.5"), SetByActorID: retailerID, Timestamp: priced},
	}
	b.CurrentPrice = decPtr("4.5")
	b.UpdatedAt = priced.Add(time.Hour)
	transfers := []Transfer{
		{ID: "t1", Sequence: 1, FromActorID: farmerID, ToActorID: distributorID, Timestamp: testEpoch.Add(time.Hour)},
		{ID: "t2", Sequence: 2, FromActorID: distributorID, ToActorID: retailerID, Timestamp: testEpoch.Add(2 * time.Hour)},
	}

	events := BuildTimeline(b, transfers, identity.Default())
	kinds := make([]EventKind, 0, len(events))
	for _, e := range events {
		kinds = append(kinds, e.Kind)
	}
	if !reflect.DeepEqual(kinds, []EventKind{EventFarmed, EventDistribution, EventDistribution, EventRetail, EventSold}) {
		t.Fatalf("unexpected event order %v", kinds)
	}
	retail := events[3]
	if retail.Title != "Stocked at The Corner Market" {
		t.Fatalf("unexpected retail title %q", retail.Title)
	}
	if !reflect.DeepEqual(retail.Details, []string{"Price set on October 1, 2026", "Price: $4.50"}) {
		t.Fatalf("unexpected retail details %q", retail.Details)
	}
	sold := events[4]
	if !reflect.DeepEqual(sold.Details, []string{"Sold by: The Corner Market", "Final price: $4.50"}) {
		t.Fatalf("unexpected sold details %q", sold.Details)
	}
}

func TestBuildTimelineSoldUsesSaleTime(t *testing.T) {
	soldAt := testEpoch.Add(3 * time.Hour)
	b := ruleBatch(StatusSold, retailerID)
	b.SoldAt = &soldAt
	b.UpdatedAt = soldAt.Add(24 * time.Hour)
	transfers := []Transfer{
		{ID: "t1", Sequence: 1, FromActorID: farmerID, ToActorID: distributorID, Timestamp: testEpoch.Add(time.Hour)},
		{ID: "t2", Sequence: 2, FromActorID: distributorID, ToActorID: retailerID, Timestamp: testEpoch.Add(2 * time.Hour)},
	}
	events := BuildTimeline(b, transfers, identity.Default())
	last := events[len(events)-1]
	if last.Kind != EventSold || !last.Timestamp.Equal(soldAt) {
		t.Fatalf("expected sold event at %s, got %s %s", soldAt, last.Kind, last.Timestamp)
	}
}

func TestBuildTimelineClampsTimestamps(t *testing.T) {
	b := ruleBatch(StatusInTransit, distributorID)
	b.CreatedAt = testEpoch.Add(time.Hour)
	transfers := []Transfer{
		{ID: "t1", Sequence: 1, FromActorID: farmerID, ToActorID: distributorID, Timestamp: testEpoch},
	}
	events := BuildTimeline(b, transfers, identity.Default())
	for i := 1; i < len(events); i++ {
		if events[i].Timestamp.Before(events[i-1].Timestamp) {
			t.Fatalf("event %d runs backwards: %s before %s", i, events[i].Timestamp, events[i-1].Timestamp)
		}
	}
	if !events[1].Timestamp.Equal(b.CreatedAt) {
		t.Fatalf("expected distribution clamped to creation time, got %s", events[1].Timestamp)
	}
}

func TestReconstructIsStable(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	b := mustStock(t, svc)
	mustPrice(t, svc, b.ID, "4.50")

	first, err := svc.Reconstruct(ctx, b.ID)
	if err != nil {
		t.Fatalf("reconstruct: %v", err)
	}
	second, err := svc.Reconstruct(ctx, b.ID)
	if err != nil {
		t.Fatalf("reconstruct again: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical timelines, got\n%+v\n%+v", first, second)
	}
	for i := 1; i < len(first); i++ {
		if first[i].Timestamp.Before(first[i-1].Timestamp) {
			t.Fatalf("timeline not ordered at %d", i)
		}
	}
	if _, err := svc.Reconstruct(ctx, "batch_missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
