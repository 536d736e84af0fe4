package domain

import "context"

// Transaction exposes the domain operations that a persistence implementation
// must support within an atomic scope. A transaction is bound to a single
// batch; the ledger only grows through AppendTransfer.
type Transaction interface {
	Snapshot() TransactionView
	FindBatch(id string) (Batch, bool)
	CreateBatch(Batch) (Batch, error)
	UpdateBatch(id string, mutator func(*Batch) error) (Batch, error)
	AppendTransfer(Transfer) (Transfer, error)
	ListTransfers() []Transfer
	CreateCertificate(GradingCertificate) (GradingCertificate, error)
	FindCertificate(id string) (GradingCertificate, bool)
}

// TransactionView provides read-only access to snapshot data for rules.
type TransactionView interface {
	FindBatch(id string) (Batch, bool)
	ListTransfers(batchID string) []Transfer
	FindCertificate(id string) (GradingCertificate, bool)
}

// PersistentStore is a minimal abstraction over durable backends. It mirrors
// the subset of store capabilities used directly by higher layers.
type PersistentStore interface {
	// RunInTransaction executes fn while holding the exclusive lock for batchID.
	RunInTransaction(ctx context.Context, batchID string, fn func(Transaction) error) (Result, error)
	// View executes fn against a consistent snapshot of batchID.
	View(ctx context.Context, batchID string, fn func(TransactionView) error) error
	GetBatch(id string) (Batch, bool)
	ListBatches() []Batch
	ListTransfers(batchID string) []Transfer
	GetCertificate(id string) (GradingCertificate, bool)
}
