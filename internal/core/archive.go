package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/shubh1021/AgriTrace/internal/blob"
	"github.com/shubh1021/AgriTrace/pkg/domain"
)

const opArchiveProvenance = "archive_provenance"

// ErrArchiveDisabled is returned by ArchiveProvenance when the service was
// built without WithArchive.
var ErrArchiveDisabled = errors.New("core: provenance archive not configured")

// ProvenanceBundle is the archived record of a batch at one ledger length.
type ProvenanceBundle struct {
	Details      BatchDetails       `json:"details"`
	Timeline     []ProvenanceEvent  `json:"timeline"`
	Verification VerificationReport `json:"verification"`
	ArchivedAt   time.Time          `json:"archivedAt"`
}

// ArchiveResult reports where a bundle lives and whether this call wrote it.
type ArchiveResult struct {
	Key     string    `json:"key"`
	Info    blob.Info `json:"info"`
	Created bool      `json:"created"`
}

// ArchiveKey returns the object key of a batch bundle at ledger length n.
func ArchiveKey(batchID string, n int) string {
	return "provenance/" + batchID + "/ledger-" + strconv.Itoa(n) + ".json"
}

// ArchiveProvenance writes the batch's details, timeline and verification
// report to the archive. Objects are never overwritten: when the bundle for
// the current ledger length already exists its metadata is returned with
// Created false.
func (s *Service) ArchiveProvenance(ctx context.Context, batchID string) (ArchiveResult, error) {
	var out ArchiveResult
	_, err := s.run(ctx, opArchiveProvenance, func(ctx context.Context) (string, Result, error) {
		if s.archive == nil {
			return batchID, Result{}, ErrArchiveDisabled
		}
		bundle, n, err := s.snapshotBundle(ctx, batchID)
		if err != nil {
			return batchID, Result{}, err
		}
		body, err := json.MarshalIndent(bundle, "", "  ")
		if err != nil {
			return batchID, Result{}, fmt.Errorf("encode provenance bundle: %w", err)
		}
		key := ArchiveKey(batchID, n)
		info, err := s.archive.Put(ctx, key, bytes.NewReader(body), blob.PutOptions{
			ContentType: "application/json",
			Metadata: map[string]string{
				"batch-id":      batchID,
				"ledger-length": strconv.Itoa(n),
				"status":        string(bundle.Details.Batch.Status),
			},
		})
		switch {
		case err == nil:
			out = ArchiveResult{Key: key, Info: info, Created: true}
		case errors.Is(err, blob.ErrExists):
			info, err = s.archive.Head(ctx, key)
			if err != nil {
				return batchID, Result{}, fmt.Errorf("read archived bundle %s: %w", key, err)
			}
			out = ArchiveResult{Key: key, Info: info}
		default:
			return batchID, Result{}, fmt.Errorf("archive bundle %s: %w", key, err)
		}
		return batchID, Result{}, nil
	})
	return out, err
}

func (s *Service) snapshotBundle(ctx context.Context, batchID string) (ProvenanceBundle, int, error) {
	var (
		bundle ProvenanceBundle
		n      int
		found  bool
	)
	err := s.store.View(ctx, batchID, func(view TransactionView) error {
		batch, ok := view.FindBatch(batchID)
		if !ok {
			return nil
		}
		found = true
		transfers := view.ListTransfers(batchID)
		cert := certificateOf(view, batch)
		n = len(transfers)
		bundle.Details = s.describe(batch, transfers)
		bundle.Details.Certificate = cert
		bundle.Timeline = BuildTimeline(batch, transfers, s.directory)
		bundle.Verification = buildVerificationReport(batch, transfers, cert)
		return nil
	})
	if err != nil {
		return ProvenanceBundle{}, 0, err
	}
	if !found {
		return ProvenanceBundle{}, 0, domain.NotFoundError{Entity: EntityBatch, ID: batchID}
	}
	bundle.ArchivedAt = s.now()
	return bundle, n, nil
}
