// Package memory provides an in-memory implementation of the batch
// persistence store used for tests, the CLI demo and as the transactional
// core of the snapshotting SQL stores.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shubh1021/AgriTrace/pkg/domain"
)

// Compile-time contract assertion ensuring memory.Store adheres to the domain persistence interface.
var _ domain.PersistentStore = (*Store)(nil)

type (
	// Batch aliases domain.Batch.
	Batch = domain.Batch
	// Transfer aliases domain.Transfer.
	Transfer = domain.Transfer
	// GradingCertificate aliases domain.GradingCertificate.
	GradingCertificate = domain.GradingCertificate
	// Change aliases domain.Change captured in transactions.
	Change = domain.Change
	// Result aliases domain.Result summarizing rule evaluation.
	Result = domain.Result
	// RulesEngine aliases domain.RulesEngine used to evaluate rules.
	RulesEngine = domain.RulesEngine
	// Transaction aliases domain.Transaction representing a mutable unit of work.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView providing read-only state.
	TransactionView = domain.TransactionView
)

// batchState is everything owned by one batch: the record, its ledger and
// every certificate ever issued for it. Version counts commits to the cell
// since it was loaded.
type batchState struct {
	exists       bool
	version      uint64
	batch        Batch
	transfers    []Transfer
	certificates map[string]GradingCertificate
}

func (s batchState) clone() batchState {
	out := batchState{
		exists:       s.exists,
		version:      s.version,
		batch:        cloneBatch(s.batch),
		transfers:    make([]Transfer, len(s.transfers)),
		certificates: make(map[string]GradingCertificate, len(s.certificates)),
	}
	for i, t := range s.transfers {
		out.transfers[i] = cloneTransfer(t)
	}
	for id, c := range s.certificates {
		out.certificates[id] = c
	}
	return out
}

// batchCell is the independently lockable unit of the store.
type batchCell struct {
	mu    sync.RWMutex
	state batchState
}

// Snapshot captures a point-in-time clone of the store state.
type Snapshot struct {
	Batches      map[string]Batch              `json:"batches"`
	Transfers    map[string][]Transfer         `json:"transfers"`
	Certificates map[string]GradingCertificate `json:"certificates"`
}

func cloneBatch(b Batch) Batch {
	cp := b
	if b.CurrentPrice != nil {
		price := *b.CurrentPrice
		cp.CurrentPrice = &price
	}
	if b.GradingCertificateID != nil {
		id := *b.GradingCertificateID
		cp.GradingCertificateID = &id
	}
	if b.SoldAt != nil {
		at := *b.SoldAt
		cp.SoldAt = &at
	}
	if b.PriceHistory != nil {
		cp.PriceHistory = append(make([]domain.PriceEntry, 0, len(b.PriceHistory)), b.PriceHistory...)
	}
	return cp
}

func cloneTransfer(t Transfer) Transfer {
	cp := t
	if t.TransportDetails != nil {
		details := *t.TransportDetails
		cp.TransportDetails = &details
	}
	return cp
}

func ledger(transfers []Transfer) []Transfer {
	out := make([]Transfer, len(transfers))
	for i, t := range transfers {
		out[i] = cloneTransfer(t)
	}
	domain.SortLedger(out)
	return out
}

// Store provides an in-memory transactional store. Each batch lives in its
// own cell; transactions on different batches never contend.
type Store struct {
	mu     sync.RWMutex
	cells  map[string]*batchCell
	engine *RulesEngine
	nowFn  func() time.Time
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *RulesEngine) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	return &Store{
		cells:  make(map[string]*batchCell),
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) cell(batchID string) *batchCell {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cells[batchID]
}

// ExportState clones the current store state for external persistence.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	cells := make(map[string]*batchCell, len(s.cells))
	for id, c := range s.cells {
		cells[id] = c
	}
	s.mu.RUnlock()

	snap := Snapshot{
		Batches:      make(map[string]Batch, len(cells)),
		Transfers:    make(map[string][]Transfer, len(cells)),
		Certificates: make(map[string]GradingCertificate),
	}
	for id, c := range cells {
		c.mu.RLock()
		state := c.state.clone()
		c.mu.RUnlock()
		snap.Batches[id] = state.batch
		if len(state.transfers) > 0 {
			snap.Transfers[id] = state.transfers
		}
		for certID, cert := range state.certificates {
			snap.Certificates[certID] = cert
		}
	}
	return snap
}

// ImportState replaces the store state with the provided snapshot. Transfers
// and certificates whose batch is absent from the snapshot are dropped.
func (s *Store) ImportState(snapshot Snapshot) {
	cells := make(map[string]*batchCell, len(snapshot.Batches))
	for id, b := range snapshot.Batches {
		b.ID = id
		if b.PriceHistory == nil {
			b.PriceHistory = []domain.PriceEntry{}
		}
		state := batchState{
			exists:       true,
			batch:        cloneBatch(b),
			certificates: make(map[string]GradingCertificate),
		}
		for i, t := range snapshot.Transfers[id] {
			t.BatchID = id
			if t.Sequence == 0 {
				t.Sequence = i + 1
			}
			state.transfers = append(state.transfers, cloneTransfer(t))
		}
		cells[id] = &batchCell{state: state}
	}
	for certID, cert := range snapshot.Certificates {
		c, ok := cells[cert.BatchID]
		if !ok {
			continue
		}
		cert.ID = certID
		c.state.certificates[certID] = cert
	}
	s.mu.Lock()
	s.cells = cells
	s.mu.Unlock()
}

// RulesEngine exposes the currently configured engine.
func (s *Store) RulesEngine() *RulesEngine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// NowFunc returns the time provider used for transaction timestamps.
func (s *Store) NowFunc() func() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nowFn
}

// transaction is a mutation set applied to one batch cell.
type transaction struct {
	batchID string
	state   batchState
	changes []Change
	now     time.Time
	err     error
}

// transactionView exposes a read-only snapshot of one batch to rules and readers.
type transactionView struct {
	batchID string
	state   *batchState
}

func newTransactionView(batchID string, state *batchState) TransactionView {
	return transactionView{batchID: batchID, state: state}
}

// FindBatch returns the batch when id matches the viewed batch.
func (v transactionView) FindBatch(id string) (Batch, bool) {
	if id != v.batchID || !v.state.exists {
		return Batch{}, false
	}
	return cloneBatch(v.state.batch), true
}

// ListTransfers returns the viewed batch's ledger in ledger order.
func (v transactionView) ListTransfers(batchID string) []Transfer {
	if batchID != v.batchID || !v.state.exists {
		return nil
	}
	return ledger(v.state.transfers)
}

// FindCertificate returns a certificate issued for the viewed batch.
func (v transactionView) FindCertificate(id string) (GradingCertificate, bool) {
	c, ok := v.state.certificates[id]
	return c, ok
}

// RunInTransaction executes fn under the exclusive lock of batchID. The
// mutations become visible only when fn succeeds and no rule blocks.
func (s *Store) RunInTransaction(ctx context.Context, batchID string, fn func(tx Transaction) error) (Result, error) {
	res, _, err := s.RunUndoable(ctx, batchID, fn)
	return res, err
}

// RunUndoable is RunInTransaction that also returns an undo function for the
// commit. Undo restores the batch as it was before fn and reports true, or
// reports false and changes nothing once a later transaction has committed
// on the same batch. Failed transactions return a no-op undo.
func (s *Store) RunUndoable(ctx context.Context, batchID string, fn func(tx Transaction) error) (Result, func() bool, error) {
	if batchID == "" {
		return Result{}, undoNothing, domain.ValidationError{Field: "batchId", Reason: "is required"}
	}
	cell := s.cell(batchID)
	attached := cell != nil
	if !attached {
		// Unknown ids get a private cell that is published only if the
		// transaction creates the batch.
		cell = &batchCell{state: batchState{certificates: map[string]GradingCertificate{}}}
	}
	cell.mu.Lock()
	defer cell.mu.Unlock()

	tx := &transaction{
		batchID: batchID,
		state:   cell.state.clone(),
		now:     s.NowFunc()(),
	}
	if err := fn(tx); err != nil {
		return Result{}, undoNothing, err
	}
	if tx.err != nil {
		return Result{}, undoNothing, tx.err
	}

	var result Result
	if engine := s.RulesEngine(); engine != nil {
		view := newTransactionView(batchID, &tx.state)
		res, err := engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return Result{}, undoNothing, err
		}
		result = res
		if res.HasBlocking() {
			return res, undoNothing, domain.RuleViolationError{Result: res}
		}
	}

	prior := cell.state
	tx.state.version = prior.version + 1
	if attached {
		cell.state = tx.state
		return result, s.undoCommit(batchID, cell, prior, tx.state.version), nil
	}
	if !tx.state.exists {
		return result, undoNothing, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.cells[batchID]; dup {
		return Result{}, undoNothing, fmt.Errorf("batch %q already exists", batchID)
	}
	cell.state = tx.state
	s.cells[batchID] = cell
	return result, s.undoCommit(batchID, cell, prior, tx.state.version), nil
}

func undoNothing() bool { return true }

// undoCommit puts prior back into cell if the commit that produced version is
// still the latest. A batch created by that commit is unpublished again.
func (s *Store) undoCommit(batchID string, cell *batchCell, prior batchState, version uint64) func() bool {
	var once sync.Once
	var undone bool
	return func() bool {
		once.Do(func() {
			cell.mu.Lock()
			defer cell.mu.Unlock()
			if cell.state.version != version {
				return
			}
			if !prior.exists {
				s.mu.Lock()
				published := s.cells[batchID] == cell
				if published {
					delete(s.cells, batchID)
				}
				s.mu.Unlock()
				if !published {
					return
				}
			}
			prior.version = version + 1
			cell.state = prior
			undone = true
		})
		return undone
	}
}

// View executes fn against a consistent snapshot of batchID. An unknown id
// yields an empty view rather than an error.
func (s *Store) View(_ context.Context, batchID string, fn func(TransactionView) error) error {
	state := batchState{certificates: map[string]GradingCertificate{}}
	if cell := s.cell(batchID); cell != nil {
		cell.mu.RLock()
		state = cell.state.clone()
		cell.mu.RUnlock()
	}
	return fn(newTransactionView(batchID, &state))
}

func (tx *transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

func changePayloadFromValue[T any](tx *transaction, value T) domain.ChangePayload {
	payload, err := domain.NewChangePayloadFromValue(value)
	if err != nil {
		if tx.err == nil {
			tx.err = fmt.Errorf("encode change payload: %w", err)
		}
		return domain.UndefinedChangePayload()
	}
	return payload
}

// Snapshot returns a read-only view over the transactional state.
func (tx *transaction) Snapshot() TransactionView {
	return newTransactionView(tx.batchID, &tx.state)
}

// FindBatch looks up the transaction's batch.
func (tx *transaction) FindBatch(id string) (Batch, bool) {
	if id != tx.batchID || !tx.state.exists {
		return Batch{}, false
	}
	return cloneBatch(tx.state.batch), true
}

// CreateBatch stores a new batch. The batch id must match the transaction scope.
func (tx *transaction) CreateBatch(b Batch) (Batch, error) {
	if b.ID == "" {
		b.ID = tx.batchID
	}
	if b.ID != tx.batchID {
		return Batch{}, fmt.Errorf("batch %q outside transaction scope %q", b.ID, tx.batchID)
	}
	if tx.state.exists {
		return Batch{}, fmt.Errorf("batch %q already exists", b.ID)
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = tx.now
	}
	if b.UpdatedAt.IsZero() {
		b.UpdatedAt = b.CreatedAt
	}
	if b.PriceHistory == nil {
		b.PriceHistory = []domain.PriceEntry{}
	}
	tx.state.exists = true
	tx.state.batch = cloneBatch(b)
	tx.recordChange(Change{Entity: domain.EntityBatch, Action: domain.ActionCreate, After: changePayloadFromValue(tx, b)})
	return cloneBatch(b), nil
}

// UpdateBatch mutates the batch using the provided mutator function. When the
// mutator leaves UpdatedAt untouched it defaults to the transaction time.
func (tx *transaction) UpdateBatch(id string, mutator func(*Batch) error) (Batch, error) {
	current, ok := tx.FindBatch(id)
	if !ok {
		return Batch{}, domain.NotFoundError{Entity: domain.EntityBatch, ID: id}
	}
	before := cloneBatch(current)
	if err := mutator(&current); err != nil {
		return Batch{}, err
	}
	current.ID = id
	if current.UpdatedAt.Equal(before.UpdatedAt) {
		current.UpdatedAt = tx.now
	}
	tx.state.batch = cloneBatch(current)
	tx.recordChange(Change{
		Entity: domain.EntityBatch,
		Action: domain.ActionUpdate,
		Before: changePayloadFromValue(tx, before),
		After:  changePayloadFromValue(tx, current),
	})
	return cloneBatch(current), nil
}

// AppendTransfer adds a transfer to the end of the batch ledger. Sequence is
// always assigned by the store.
func (tx *transaction) AppendTransfer(t Transfer) (Transfer, error) {
	if !tx.state.exists {
		return Transfer{}, domain.NotFoundError{Entity: domain.EntityBatch, ID: tx.batchID}
	}
	if t.BatchID == "" {
		t.BatchID = tx.batchID
	}
	if t.BatchID != tx.batchID {
		return Transfer{}, fmt.Errorf("transfer for batch %q outside transaction scope %q", t.BatchID, tx.batchID)
	}
	if t.ID == "" {
		t.ID = "transfer_" + uuid.NewString()
	}
	for _, existing := range tx.state.transfers {
		if existing.ID == t.ID {
			return Transfer{}, fmt.Errorf("transfer %q already exists", t.ID)
		}
	}
	if t.Timestamp.IsZero() {
		t.Timestamp = tx.now
	}
	t.Sequence = len(tx.state.transfers) + 1
	tx.state.transfers = append(tx.state.transfers, cloneTransfer(t))
	tx.recordChange(Change{Entity: domain.EntityTransfer, Action: domain.ActionAppend, After: changePayloadFromValue(tx, t)})
	return cloneTransfer(t), nil
}

// ListTransfers returns the batch ledger including uncommitted appends.
func (tx *transaction) ListTransfers() []Transfer {
	return ledger(tx.state.transfers)
}

// CreateCertificate stores a new certificate record for the batch.
func (tx *transaction) CreateCertificate(c GradingCertificate) (GradingCertificate, error) {
	if !tx.state.exists {
		return GradingCertificate{}, domain.NotFoundError{Entity: domain.EntityBatch, ID: tx.batchID}
	}
	if c.BatchID == "" {
		c.BatchID = tx.batchID
	}
	if c.BatchID != tx.batchID {
		return GradingCertificate{}, fmt.Errorf("certificate for batch %q outside transaction scope %q", c.BatchID, tx.batchID)
	}
	if c.ID == "" {
		c.ID = "cert_" + uuid.NewString()
	}
	if _, exists := tx.state.certificates[c.ID]; exists {
		return GradingCertificate{}, fmt.Errorf("certificate %q already exists", c.ID)
	}
	if c.IssueDate.IsZero() {
		c.IssueDate = tx.now
	}
	tx.state.certificates[c.ID] = c
	tx.recordChange(Change{Entity: domain.EntityCertificate, Action: domain.ActionCreate, After: changePayloadFromValue(tx, c)})
	return c, nil
}

// FindCertificate looks up a certificate issued for the batch.
func (tx *transaction) FindCertificate(id string) (GradingCertificate, bool) {
	c, ok := tx.state.certificates[id]
	return c, ok
}

// GetBatch returns a committed batch by id.
func (s *Store) GetBatch(id string) (Batch, bool) {
	cell := s.cell(id)
	if cell == nil {
		return Batch{}, false
	}
	cell.mu.RLock()
	defer cell.mu.RUnlock()
	if !cell.state.exists {
		return Batch{}, false
	}
	return cloneBatch(cell.state.batch), true
}

// ListBatches returns every committed batch, newest first.
func (s *Store) ListBatches() []Batch {
	s.mu.RLock()
	cells := make([]*batchCell, 0, len(s.cells))
	for _, c := range s.cells {
		cells = append(cells, c)
	}
	s.mu.RUnlock()

	out := make([]Batch, 0, len(cells))
	for _, c := range cells {
		c.mu.RLock()
		if c.state.exists {
			out = append(out, cloneBatch(c.state.batch))
		}
		c.mu.RUnlock()
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

// ListTransfers returns the committed ledger of batchID in ledger order.
func (s *Store) ListTransfers(batchID string) []Transfer {
	cell := s.cell(batchID)
	if cell == nil {
		return nil
	}
	cell.mu.RLock()
	defer cell.mu.RUnlock()
	return ledger(cell.state.transfers)
}

// GetCertificate returns a committed certificate by id.
func (s *Store) GetCertificate(id string) (GradingCertificate, bool) {
	s.mu.RLock()
	cells := make([]*batchCell, 0, len(s.cells))
	for _, c := range s.cells {
		cells = append(cells, c)
	}
	s.mu.RUnlock()
	for _, c := range cells {
		c.mu.RLock()
		cert, ok := c.state.certificates[id]
		c.mu.RUnlock()
		if ok {
			return cert, true
		}
	}
	return GradingCertificate{}, false
}
