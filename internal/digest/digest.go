// Package digest computes the content fingerprints that anchor batch
// creation data, transfer receipts and grading certificates.
package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shubh1021/AgriTrace/pkg/domain"
)

// Domain prefixes keep fingerprints of different record kinds disjoint. The
// version suffix leaves room for an algorithm migration.
const (
	DomainBatch       = "agritrace/batch/v1"
	DomainTransfer    = "agritrace/transfer/v1"
	DomainCertificate = "agritrace/certificate/v1"
)

// Sum returns the lowercase hex SHA-256 of domain || 0x00 || Canonical(p).
func Sum(domain string, p Payload) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(Canonical(p))
	return hex.EncodeToString(h.Sum(nil))
}

// BatchCreation is the fingerprinted subset of a newly created batch.
type BatchCreation struct {
	BatchID      string
	FarmerID     string
	ProductType  string
	Quantity     decimal.Decimal
	Location     string
	HarvestDate  string
	QualityGrade string
}

// Payload returns the canonical field map.
func (b BatchCreation) Payload() Payload {
	return Payload{
		"batchId":      b.BatchID,
		"farmerId":     b.FarmerID,
		"productType":  b.ProductType,
		"quantity":     b.Quantity,
		"location":     b.Location,
		"harvestDate":  b.HarvestDate,
		"qualityGrade": b.QualityGrade,
	}
}

// Sum fingerprints the creation payload.
func (b BatchCreation) Sum() string { return Sum(DomainBatch, b.Payload()) }

// CreationOf extracts the creation payload from a stored batch.
func CreationOf(b domain.Batch) BatchCreation {
	return BatchCreation{
		BatchID:      b.ID,
		FarmerID:     b.FarmerID,
		ProductType:  b.ProductType,
		Quantity:     b.Quantity,
		Location:     b.HarvestLocation,
		HarvestDate:  b.HarvestDate,
		QualityGrade: b.CreationGrade(),
	}
}

// TransferReceipt is the fingerprinted content of one custody transfer.
type TransferReceipt struct {
	BatchID     string
	From        string
	To          string
	Timestamp   time.Time
	Quantity    decimal.Decimal
	ProductType string
	Transport   *domain.TransportDetails
}

// Payload returns the canonical field map.
func (r TransferReceipt) Payload() Payload {
	var transport any
	if r.Transport != nil {
		transport = Payload{
			"mode":          r.Transport.Mode,
			"vehicleNumber": r.Transport.VehicleNumber,
			"driverName":    r.Transport.DriverName,
		}
	}
	return Payload{
		"batchId":          r.BatchID,
		"from":             r.From,
		"to":               r.To,
		"timestamp":        r.Timestamp,
		"quantity":         r.Quantity,
		"productType":      r.ProductType,
		"transportDetails": transport,
	}
}

// Sum fingerprints the receipt.
func (r TransferReceipt) Sum() string { return Sum(DomainTransfer, r.Payload()) }

// ReceiptOf rebuilds the receipt payload of t against its batch.
func ReceiptOf(b domain.Batch, t domain.Transfer) TransferReceipt {
	return TransferReceipt{
		BatchID:     t.BatchID,
		From:        t.FromActorID,
		To:          t.ToActorID,
		Timestamp:   t.Timestamp,
		Quantity:    b.Quantity,
		ProductType: b.ProductType,
		Transport:   t.TransportDetails,
	}
}

// Certificate is the fingerprinted content of a grading certificate.
type Certificate struct {
	Grade            string
	QualityStandards string
	IssueDate        time.Time
	FarmerID         string
}

// Payload returns the canonical field map.
func (c Certificate) Payload() Payload {
	return Payload{
		"grade":            c.Grade,
		"qualityStandards": c.QualityStandards,
		"issueDate":        c.IssueDate,
		"farmerId":         c.FarmerID,
	}
}

// Sum fingerprints the certificate.
func (c Certificate) Sum() string { return Sum(DomainCertificate, c.Payload()) }

// CertificateOf rebuilds the certificate payload from a stored record.
func CertificateOf(c domain.GradingCertificate) Certificate {
	return Certificate{
		Grade:            c.Grade,
		QualityStandards: c.QualityStandards,
		IssueDate:        c.IssueDate,
		FarmerID:         c.IssuedByActorID,
	}
}
