package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/shubh1021/AgriTrace/internal/blob"
	"github.com/shubh1021/AgriTrace/internal/core"
	"github.com/shubh1021/AgriTrace/pkg/domain"
)

type storeVariant struct {
	name string
	open func(t *testing.T) domain.PersistentStore
}

func storeVariants() []storeVariant {
	return []storeVariant{
		{
			name: "memory-store",
			open: func(_ *testing.T) domain.PersistentStore {
				return core.NewMemoryStore(core.NewDefaultRulesEngine())
			},
		},
		{
			name: "sqlite-store",
			open: func(t *testing.T) domain.PersistentStore {
				s, err := core.NewSQLiteStore(filepath.Join(t.TempDir(), "agritrace.db"), core.NewDefaultRulesEngine())
				if err != nil {
					t.Fatalf("new sqlite store: %v", err)
				}
				t.Cleanup(func() { _ = s.Close() })
				return s
			},
		},
	}
}

type blobVariant struct {
	name string
	open func(t *testing.T) blob.Store
}

func blobVariants() []blobVariant {
	return []blobVariant{
		{
			name: "memory-blob",
			open: func(_ *testing.T) blob.Store { return blob.NewMemory() },
		},
		{
			name: "filesystem-blob",
			open: func(t *testing.T) blob.Store {
				fs, err := blob.NewFilesystem(t.TempDir())
				if err != nil {
					t.Fatalf("new filesystem blob: %v", err)
				}
				return fs
			},
		},
		{
			name: "mock-s3-blob",
			open: func(_ *testing.T) blob.Store { return blob.NewMockS3ForTests() },
		},
	}
}

// TestIntegrationSmoke walks one batch from farm to shelf on every store and
// archives its provenance into every archive backend.
func TestIntegrationSmoke(t *testing.T) {
	ctx := context.Background()

	for _, sv := range storeVariants() {
		for _, bv := range blobVariants() {
			t.Run(sv.name+"/"+bv.name, func(t *testing.T) {
				store := sv.open(t)
				archive := bv.open(t)
				metrics := core.NewExpvarMetricsRecorder("")
				var traces bytes.Buffer
				tracer := core.NewJSONTracer(&traces)
				svc := core.NewService(store,
					core.WithMetricsRecorder(metrics),
					core.WithTracer(tracer),
					core.WithArchive(archive),
				)

				draft := domain.NewDraft("Strawberries", decimal.NewFromInt(40), "Watsonville, CA", "2026-10-02", "Grade A")
				b, res, err := svc.CreateBatch(ctx, "user_farmer_1", draft)
				if err != nil {
					t.Fatalf("create: %v", err)
				}
				if res.HasBlocking() {
					t.Fatalf("unexpected blocking violations: %+v", res.Violations)
				}
				if _, _, err := svc.ClaimBatch(ctx, b.ID, "user_distributor_1", &domain.TransportDetails{Mode: "Reefer", VehicleNumber: "CA-88", DriverName: "Lee"}); err != nil {
					t.Fatalf("claim: %v", err)
				}
				if _, _, err := svc.TransferToRetailer(ctx, b.ID, "user_distributor_1", "user_retailer_1"); err != nil {
					t.Fatalf("transfer: %v", err)
				}
				if _, _, err := svc.SetPrice(ctx, b.ID, "user_retailer_1", decimal.RequireFromString("6.25")); err != nil {
					t.Fatalf("price: %v", err)
				}

				got, ok := store.GetBatch(b.ID)
				if !ok || got.Status != domain.StatusAtRetailer || got.CurrentOwnerID != "user_retailer_1" {
					t.Fatalf("expected batch on the shelf, got %+v", got)
				}
				if n := len(store.ListTransfers(b.ID)); n != 2 {
					t.Fatalf("expected two ledger entries, got %d", n)
				}

				archived, err := svc.ArchiveProvenance(ctx, b.ID)
				if err != nil {
					t.Fatalf("archive: %v", err)
				}
				if !archived.Created || archived.Info.Size <= 0 {
					t.Fatalf("unexpected archive result %+v", archived)
				}
				_, rc, err := archive.Get(ctx, archived.Key)
				if err != nil {
					t.Fatalf("archive get: %v", err)
				}
				raw, err := io.ReadAll(rc)
				_ = rc.Close()
				if err != nil {
					t.Fatalf("read bundle: %v", err)
				}
				var bundle core.ProvenanceBundle
				if err := json.Unmarshal(raw, &bundle); err != nil {
					t.Fatalf("decode bundle: %v", err)
				}
				if !bundle.Verification.Valid || len(bundle.Timeline) != 4 || bundle.Details.Batch.ID != b.ID {
					t.Fatalf("unexpected bundle %+v", bundle)
				}

				if _, err := archive.Put(ctx, archived.Key, bytes.NewReader(raw), blob.PutOptions{}); !errors.Is(err, blob.ErrExists) {
					t.Fatalf("expected archived objects to be immutable, got %v", err)
				}

				snapshot := metrics.Snapshot()
				if snapshot.Operations["create_batch"].Calls != 1 || snapshot.Operations["archive_provenance"].Calls != 1 {
					t.Fatalf("unexpected metrics %+v", snapshot.Operations)
				}
				var foundSpan bool
				for _, entry := range tracer.Entries() {
					if entry.Operation == "set_price" && entry.Status == "success" {
						foundSpan = true
						break
					}
				}
				if !foundSpan || traces.Len() == 0 {
					t.Fatalf("expected set_price span, entries=%+v", tracer.Entries())
				}
			})
		}
	}
}
