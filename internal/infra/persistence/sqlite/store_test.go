package sqlite

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/shubh1021/AgriTrace/pkg/domain"
)

func createBatch(t *testing.T, store *Store, id string) {
	t.Helper()
	if _, err := store.RunInTransaction(context.Background(), id, func(tx domain.Transaction) error {
		if _, err := tx.CreateBatch(domain.Batch{
			ProductType:    "Tomatoes",
			Quantity:       decimal.NewFromInt(100),
			Status:         domain.StatusAtFarm,
			FarmerID:       "farmer",
			CurrentOwnerID: "farmer",
		}); err != nil {
			return err
		}
		if _, err := tx.AppendTransfer(domain.Transfer{FromActorID: "farmer", ToActorID: "dist"}); err != nil {
			return err
		}
		_, err := tx.CreateCertificate(domain.GradingCertificate{Grade: "A"})
		return err
	}); err != nil {
		t.Fatalf("create: %v", err)
	}
}

func TestSQLiteStorePersistAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.db")
	store, err := NewStore(path, domain.NewRulesEngine())
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	createBatch(t, store, "b1")
	if store.Path() != path {
		t.Fatalf("path = %s", store.Path())
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reloaded, err := NewStore(path, domain.NewRulesEngine())
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	t.Cleanup(func() { _ = reloaded.Close() })
	b, ok := reloaded.GetBatch("b1")
	if !ok || !b.Quantity.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected reloaded batch, got %+v", b)
	}
	if got := len(reloaded.ListTransfers("b1")); got != 1 {
		t.Fatalf("expected 1 transfer, got %d", got)
	}
}

func TestSQLiteStoreWritesEveryBucket(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "state.db"), domain.NewRulesEngine())
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	createBatch(t, store, "b1")
	var count int
	if err := store.DB().QueryRow(`SELECT COUNT(*) FROM state`).Scan(&count); err != nil {
		t.Fatalf("count buckets: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 buckets, got %d", count)
	}
}

func TestSQLiteStoreSkipsPersistOnFailure(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "state.db"), domain.NewRulesEngine())
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	_, err = store.RunInTransaction(context.Background(), "b1", func(tx domain.Transaction) error {
		_, err := tx.AppendTransfer(domain.Transfer{})
		return err
	})
	if err == nil {
		t.Fatalf("expected failure for append on missing batch")
	}
	var count int
	if err := store.DB().QueryRow(`SELECT COUNT(*) FROM state`).Scan(&count); err != nil {
		t.Fatalf("count buckets: %v", err)
	}
	if count != 0 {
		t.Fatalf("failed transaction must not persist, found %d buckets", count)
	}
}

func TestSQLiteStoreUndoesCommitWhenSnapshotFails(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "state.db"), domain.NewRulesEngine())
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	createBatch(t, store, "b1")
	if err := store.DB().Close(); err != nil {
		t.Fatalf("close db: %v", err)
	}

	claim := func(tx domain.Transaction) error {
		b, ok := tx.FindBatch("b1")
		if !ok {
			return domain.NotFoundError{Entity: domain.EntityBatch, ID: "b1"}
		}
		if b.Status != domain.StatusAtFarm {
			return domain.InvalidStateError{BatchID: "b1", Status: b.Status, Operation: "claim"}
		}
		_, err := tx.UpdateBatch("b1", func(b *domain.Batch) error {
			b.Status = domain.StatusInTransit
			b.CurrentOwnerID = "dist"
			return nil
		})
		return err
	}
	for attempt := 1; attempt <= 2; attempt++ {
		_, err := store.RunInTransaction(context.Background(), "b1", claim)
		if err == nil || !strings.Contains(err.Error(), "persist snapshot") {
			t.Fatalf("attempt %d: expected snapshot failure, got %v", attempt, err)
		}
	}
	b, ok := store.GetBatch("b1")
	if !ok || b.Status != domain.StatusAtFarm || b.CurrentOwnerID != "farmer" {
		t.Fatalf("expected unsaved claim undone, got %+v", b)
	}

	if _, err := store.RunInTransaction(context.Background(), "b2", func(tx domain.Transaction) error {
		_, err := tx.CreateBatch(domain.Batch{Status: domain.StatusAtFarm})
		return err
	}); err == nil {
		t.Fatalf("expected snapshot failure for creation")
	}
	if _, ok := store.GetBatch("b2"); ok {
		t.Fatalf("unsaved batch must not stay visible")
	}
}
