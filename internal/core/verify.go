package core

import (
	"context"

	"github.com/shubh1021/AgriTrace/internal/digest"
	"github.com/shubh1021/AgriTrace/pkg/domain"
)

// VerificationReport lists every fingerprint of a batch with its recomputed
// value.
type VerificationReport struct {
	BatchID string        `json:"batchId"`
	Checks  []DigestCheck `json:"checks"`
	Valid   bool          `json:"valid"`
}

// Mismatches returns the failed checks.
func (r VerificationReport) Mismatches() []DigestCheck {
	var out []DigestCheck
	for _, c := range r.Checks {
		if !c.Valid {
			out = append(out, c)
		}
	}
	return out
}

// VerifyBatch recomputes the creation digest, every receipt and the current
// certificate digest of a batch from one snapshot.
func (s *Service) VerifyBatch(ctx context.Context, batchID string) (VerificationReport, error) {
	var (
		report VerificationReport
		found  bool
	)
	err := s.store.View(ctx, batchID, func(view TransactionView) error {
		batch, ok := view.FindBatch(batchID)
		if !ok {
			return nil
		}
		found = true
		report = buildVerificationReport(batch, view.ListTransfers(batchID), certificateOf(view, batch))
		return nil
	})
	if err != nil {
		return VerificationReport{}, err
	}
	if !found {
		return VerificationReport{}, domain.NotFoundError{Entity: EntityBatch, ID: batchID}
	}
	return report, nil
}

func certificateOf(view TransactionView, batch Batch) *GradingCertificate {
	if batch.GradingCertificateID == nil {
		return nil
	}
	cert, ok := view.FindCertificate(*batch.GradingCertificateID)
	if !ok {
		return nil
	}
	return &cert
}

func buildVerificationReport(batch Batch, transfers []Transfer, cert *GradingCertificate) VerificationReport {
	report := VerificationReport{BatchID: batch.ID, Valid: true}
	report.Checks = append(report.Checks, newDigestCheck(EntityBatch, batch.ID, batch.CreationDigest, digest.CreationOf(batch).Sum()))
	report.Checks = append(report.Checks, receiptChecks(batch, transfers)...)
	if cert != nil {
		report.Checks = append(report.Checks, newDigestCheck(EntityCertificate, cert.ID, cert.CertificateDigest, digest.CertificateOf(*cert).Sum()))
	}
	for _, c := range report.Checks {
		if !c.Valid {
			report.Valid = false
			break
		}
	}
	return report
}
