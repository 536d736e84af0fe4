package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/shubh1021/AgriTrace/internal/infra/persistence/memory"
	"github.com/shubh1021/AgriTrace/pkg/domain"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	return useMock(t, db, mock)
}

func newPingMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(
		sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual),
		sqlmock.MonitorPingsOption(true),
	)
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	return useMock(t, db, mock)
}

func useMock(t *testing.T, db *sql.DB, mock sqlmock.Sqlmock) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	t.Cleanup(func() { _ = db.Close() })
	restore := OverrideSQLOpen(func(driver, _ string) (*sql.DB, error) {
		if driver != defaultDriver {
			t.Fatalf("unexpected driver %s", driver)
		}
		return db, nil
	})
	t.Cleanup(restore)
	return db, mock
}

func expectBoot(mock sqlmock.Sqlmock, rows *sqlmock.Rows) {
	mock.ExpectExec(stateTableDDL).WillReturnResult(sqlmock.NewResult(0, 0))
	if rows == nil {
		rows = sqlmock.NewRows([]string{"bucket", "payload"})
	}
	mock.ExpectQuery(selectStateSQL).WillReturnRows(rows)
}

func TestNewStoreLoadsSnapshot(t *testing.T) {
	_, mock := newMock(t)
	rows := sqlmock.NewRows([]string{"bucket", "payload"}).
		AddRow(memory.BucketBatches, []byte(`{"b1":{"id":"b1","status":"At Retailer","quantity":"100","currentOwnerId":"r1","priceHistory":[]}}`)).
		AddRow(memory.BucketTransfers, []byte(`{"b1":[{"id":"t1","batchId":"b1","sequence":1,"fromId":"f1","toId":"d1"}]}`)).
		AddRow("legacy", []byte(`[]`))
	expectBoot(mock, rows)

	store, err := NewStore("", domain.NewRulesEngine())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	b, ok := store.GetBatch("b1")
	if !ok || b.Status != domain.StatusAtRetailer || b.CurrentOwnerID != "r1" {
		t.Fatalf("unexpected batch %+v", b)
	}
	if got := store.ListTransfers("b1"); len(got) != 1 || got[0].ToActorID != "d1" {
		t.Fatalf("unexpected ledger %+v", got)
	}
	if store.DB() == nil {
		t.Fatalf("expected db handle")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestRunInTransactionPersistsEveryBucket(t *testing.T) {
	_, mock := newMock(t)
	expectBoot(mock, nil)
	store, err := NewStore("postgres://example/agritrace", domain.NewRulesEngine())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	mock.ExpectBegin()
	for _, bucket := range memory.SnapshotBuckets {
		mock.ExpectExec(upsertStateSQL).WithArgs(bucket, sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectCommit()

	if _, err := store.RunInTransaction(context.Background(), "b1", func(tx domain.Transaction) error {
		_, err := tx.CreateBatch(domain.Batch{Status: domain.StatusAtFarm})
		return err
	}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestRunInTransactionRollsBackOnUpsertFailure(t *testing.T) {
	_, mock := newMock(t)
	expectBoot(mock, nil)
	store, err := NewStore("", nil)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	mock.ExpectBegin()
	mock.ExpectExec(upsertStateSQL).WithArgs(memory.BucketBatches, sqlmock.AnyArg()).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err = store.RunInTransaction(context.Background(), "b1", func(tx domain.Transaction) error {
		_, err := tx.CreateBatch(domain.Batch{})
		return err
	})
	if err == nil || !strings.Contains(err.Error(), "upsert batches") {
		t.Fatalf("expected upsert error, got %v", err)
	}
	if _, ok := store.GetBatch("b1"); ok {
		t.Fatalf("batch from a failed snapshot must not stay in memory")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestRunInTransactionSkipsPersistOnDomainError(t *testing.T) {
	_, mock := newMock(t)
	expectBoot(mock, nil)
	store, err := NewStore("", nil)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	_, err = store.RunInTransaction(context.Background(), "missing", func(tx domain.Transaction) error {
		_, err := tx.AppendTransfer(domain.Transfer{})
		return err
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("no SQL expected after a failed transaction: %v", err)
	}
}

func TestNewStoreErrors(t *testing.T) {
	t.Run("open", func(t *testing.T) {
		restore := OverrideSQLOpen(func(string, string) (*sql.DB, error) { return nil, errors.New("no driver") })
		defer restore()
		if _, err := NewStore("", nil); err == nil || !strings.Contains(err.Error(), "open postgres") {
			t.Fatalf("expected open error, got %v", err)
		}
	})
	t.Run("ping", func(t *testing.T) {
		_, mock := newPingMock(t)
		mock.ExpectPing().WillReturnError(errors.New("refused"))
		if _, err := NewStore("", nil); err == nil || !strings.Contains(err.Error(), "ping postgres") {
			t.Fatalf("expected ping error, got %v", err)
		}
	})
	t.Run("ddl", func(t *testing.T) {
		_, mock := newMock(t)
		mock.ExpectExec(stateTableDDL).WillReturnError(errors.New("permission denied"))
		if _, err := NewStore("", nil); err == nil || !strings.Contains(err.Error(), "ensure state table") {
			t.Fatalf("expected ddl error, got %v", err)
		}
	})
	t.Run("decode", func(t *testing.T) {
		_, mock := newMock(t)
		expectBoot(mock, sqlmock.NewRows([]string{"bucket", "payload"}).AddRow(memory.BucketBatches, []byte(`{"b1":`)))
		if _, err := NewStore("", nil); err == nil || !strings.Contains(err.Error(), "decode batches") {
			t.Fatalf("expected decode error, got %v", err)
		}
	})
	t.Run("select", func(t *testing.T) {
		_, mock := newMock(t)
		mock.ExpectExec(stateTableDDL).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(selectStateSQL).WillReturnError(errors.New("relation missing"))
		if _, err := NewStore("", nil); err == nil || !strings.Contains(err.Error(), "select state") {
			t.Fatalf("expected select error, got %v", err)
		}
	})
}
