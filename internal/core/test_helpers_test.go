package core

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shubh1021/AgriTrace/pkg/domain"
)

const (
	farmerID      = "user_farmer_1"
	distributorID = "user_distributor_1"
	retailerID    = "user_retailer_1"
	consumerID    = "user_consumer_1"
)

var testEpoch = time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC)

// stepClock advances by step on every reading so each recorded fact gets a
// distinct, increasing timestamp.
type stepClock struct {
	mu   sync.Mutex
	next time.Time
	step time.Duration
}

func newStepClock() *stepClock {
	return &stepClock{next: testEpoch, step: time.Minute}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.next
	c.next = c.next.Add(c.step)
	return now
}

func newTestService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	base := []Option{WithClock(newStepClock())}
	return NewInMemoryService(NewDefaultRulesEngine(), append(base, opts...)...)
}

func tomatoDraft() DraftBatch {
	return domain.NewDraft("Tomatoes", decimal.NewFromInt(100), "Salinas, CA", "2026-09-30", "Grade A")
}

func truck() *TransportDetails {
	return &TransportDetails{Mode: "Truck", VehicleNumber: "CA-4821", DriverName: "Sam Ortiz"}
}

func mustCreate(t *testing.T, svc *Service) Batch {
	t.Helper()
	b, _, err := svc.CreateBatch(context.Background(), farmerID, tomatoDraft())
	if err != nil {
		t.Fatalf("create batch: %v", err)
	}
	return b
}

func mustClaim(t *testing.T, svc *Service, id string) Batch {
	t.Helper()
	b, _, err := svc.ClaimBatch(context.Background(), id, distributorID, truck())
	if err != nil {
		t.Fatalf("claim batch: %v", err)
	}
	return b
}

// mustStock walks a new batch to the default retailer.
func mustStock(t *testing.T, svc *Service) Batch {
	t.Helper()
	b := mustCreate(t, svc)
	mustClaim(t, svc, b.ID)
	b, _, err := svc.TransferToRetailer(context.Background(), b.ID, distributorID, retailerID)
	if err != nil {
		t.Fatalf("transfer to retailer: %v", err)
	}
	return b
}

func mustPrice(t *testing.T, svc *Service, id, price string) Batch {
	t.Helper()
	b, _, err := svc.SetPrice(context.Background(), id, retailerID, decimal.RequireFromString(price))
	if err != nil {
		t.Fatalf("set price: %v", err)
	}
	return b
}

func mustChangePayload[T any](t *testing.T, value T) domain.ChangePayload {
	t.Helper()
	payload, err := domain.NewChangePayloadFromValue(value)
	if err != nil {
		t.Fatalf("build change payload: %v", err)
	}
	return payload
}

func strPtr(v string) *string {
	return &v
}

func decPtr(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}
