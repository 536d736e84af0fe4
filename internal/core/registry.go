package core

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shubh1021/AgriTrace/internal/digest"
	"github.com/shubh1021/AgriTrace/internal/identity"
	"github.com/shubh1021/AgriTrace/pkg/domain"
)

const (
	opCreateBatch        = "create_batch"
	opClaimBatch         = "claim_batch"
	opTransferToRetailer = "transfer_to_retailer"
	opSetPrice           = "set_price"
	opSellToConsumer     = "sell_to_consumer"
	opIssueCertificate   = "issue_certificate"
)

// CreateBatch registers a new batch for farmerID. The draft is validated
// wholesale; the batch starts At Farm, owned by the farmer, with an empty
// price history and a fingerprint of its creation facts.
func (s *Service) CreateBatch(ctx context.Context, farmerID string, draft DraftBatch) (Batch, Result, error) {
	var created Batch
	res, err := s.run(ctx, opCreateBatch, func(ctx context.Context) (string, Result, error) {
		in, err := draft.Validate()
		if err != nil {
			return "", Result{}, err
		}
		farmer, ok := identity.Resolve(s.directory, farmerID, RoleFarmer)
		if !ok {
			return "", Result{}, domain.NotFoundError{Entity: EntityActor, ID: farmerID}
		}
		now := s.now()
		id := s.newID(now)
		batch := Batch{
			ID:              id,
			Name:            s.batchName(ctx, in),
			ProductType:     in.ProductType,
			Quantity:        in.Quantity,
			HarvestLocation: in.Location,
			HarvestDate:     in.HarvestDate,
			QualityGrade:    in.QualityGrade,
			HarvestGrade:    in.QualityGrade,
			FarmerID:        farmer.ID,
			Status:          StatusAtFarm,
			CurrentOwnerID:  farmer.ID,
			PriceHistory:    []PriceEntry{},
			QRCodeURL:       s.referenceURL(id),
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		batch.CreationDigest = digest.CreationOf(batch).Sum()
		res, err := s.store.RunInTransaction(ctx, id, func(tx Transaction) error {
			var err error
			created, err = tx.CreateBatch(batch)
			return err
		})
		return id, res, err
	})
	return created, res, err
}

// ClaimBatch hands an At Farm batch to distributorID and records the
// farm-to-distributor transfer.
func (s *Service) ClaimBatch(ctx context.Context, batchID, distributorID string, transport *TransportDetails) (Batch, Result, error) {
	var updated Batch
	res, err := s.run(ctx, opClaimBatch, func(ctx context.Context) (string, Result, error) {
		res, err := s.inBatch(ctx, batchID, func(tx Transaction) error {
			batch, ok := tx.FindBatch(batchID)
			if !ok {
				return domain.NotFoundError{Entity: EntityBatch, ID: batchID}
			}
			distributor, ok := identity.Resolve(s.directory, distributorID, RoleDistributor)
			if !ok {
				return domain.NotFoundError{Entity: EntityActor, ID: distributorID}
			}
			if batch.Status != StatusAtFarm {
				return domain.InvalidStateError{BatchID: batchID, Status: batch.Status, Operation: "claim", Reason: "batch is not available for claim"}
			}
			var err error
			updated, err = s.handOver(tx, batch, batch.FarmerID, distributor.ID, StatusInTransit, cloneTransport(transport))
			return err
		})
		return batchID, res, err
	})
	return updated, res, err
}

// TransferToRetailer moves an In Transit batch from its distributor to a
// retailer. The retailer leg inherits the carriage details of the last
// transfer addressed to the distributor.
func (s *Service) TransferToRetailer(ctx context.Context, batchID, fromDistributorID, toRetailerID string) (Batch, Result, error) {
	var updated Batch
	res, err := s.run(ctx, opTransferToRetailer, func(ctx context.Context) (string, Result, error) {
		res, err := s.inBatch(ctx, batchID, func(tx Transaction) error {
			batch, ok := tx.FindBatch(batchID)
			if !ok {
				return domain.NotFoundError{Entity: EntityBatch, ID: batchID}
			}
			if batch.CurrentOwnerID != fromDistributorID {
				return domain.OwnershipError{BatchID: batchID, ActorID: fromDistributorID, OwnerID: batch.CurrentOwnerID}
			}
			retailer, ok := identity.Resolve(s.directory, toRetailerID, RoleRetailer)
			if !ok {
				return domain.NotFoundError{Entity: EntityActor, ID: toRetailerID}
			}
			if batch.Status != StatusInTransit {
				return domain.InvalidStateError{BatchID: batchID, Status: batch.Status, Operation: "transfer to retailer"}
			}
			inbound, ok := domain.LastTransferTo(tx.ListTransfers(), fromDistributorID)
			if !ok {
				return domain.InvalidStateError{BatchID: batchID, Status: batch.Status, Operation: "transfer to retailer", Reason: "no inbound transfer to distributor"}
			}
			var err error
			updated, err = s.handOver(tx, batch, fromDistributorID, retailer.ID, StatusAtRetailer, cloneTransport(inbound.TransportDetails))
			return err
		})
		return batchID, res, err
	})
	return updated, res, err
}

// handOver appends the receipt-stamped transfer and moves status and owner
// together in the same transaction.
func (s *Service) handOver(tx Transaction, batch Batch, from, to string, status BatchStatus, transport *TransportDetails) (Batch, error) {
	at := s.ledgerTime(tx, batch)
	transfer := Transfer{
		BatchID:          batch.ID,
		FromActorID:      from,
		ToActorID:        to,
		Timestamp:        at,
		TransportDetails: transport,
	}
	transfer.ReceiptDigest = digest.ReceiptOf(batch, transfer).Sum()
	if _, err := tx.AppendTransfer(transfer); err != nil {
		return Batch{}, err
	}
	return tx.UpdateBatch(batch.ID, func(b *Batch) error {
		b.Status = status
		b.CurrentOwnerID = to
		b.UpdatedAt = at
		return nil
	})
}

// ledgerTime never runs behind the batch's existing history, so timestamp
// order matches commit order even if the clock steps back.
func (s *Service) ledgerTime(tx Transaction, batch Batch) time.Time {
	at := s.now()
	if at.Before(batch.UpdatedAt) {
		at = batch.UpdatedAt
	}
	if transfers := tx.ListTransfers(); len(transfers) > 0 {
		if last := transfers[len(transfers)-1].Timestamp; at.Before(last) {
			at = last
		}
	}
	return at
}

// inBatch runs fn in the write transaction of an existing batch. An empty id
// names no batch.
func (s *Service) inBatch(ctx context.Context, batchID string, fn func(tx Transaction) error) (Result, error) {
	if batchID == "" {
		return Result{}, domain.NotFoundError{Entity: EntityBatch, ID: batchID}
	}
	return s.store.RunInTransaction(ctx, batchID, fn)
}

// SetPrice appends a price entry. Only the owning retailer may price a batch
// and only while it is At Retailer.
func (s *Service) SetPrice(ctx context.Context, batchID, retailerID string, price decimal.Decimal) (Batch, Result, error) {
	var updated Batch
	res, err := s.run(ctx, opSetPrice, func(ctx context.Context) (string, Result, error) {
		if !price.IsPositive() {
			return batchID, Result{}, domain.ValidationError{Field: "price", Reason: "must be greater than zero"}
		}
		res, err := s.inBatch(ctx, batchID, func(tx Transaction) error {
			batch, ok := tx.FindBatch(batchID)
			if !ok {
				return domain.NotFoundError{Entity: EntityBatch, ID: batchID}
			}
			if batch.Status != StatusAtRetailer {
				return domain.InvalidStateError{BatchID: batchID, Status: batch.Status, Operation: "set price"}
			}
			if batch.CurrentOwnerID != retailerID {
				return domain.OwnershipError{BatchID: batchID, ActorID: retailerID, OwnerID: batch.CurrentOwnerID}
			}
			at := s.ledgerTime(tx, batch)
			var err error
			updated, err = tx.UpdateBatch(batchID, func(b *Batch) error {
				p := price
				b.CurrentPrice = &p
				b.PriceHistory = append(b.PriceHistory, PriceEntry{Price: price, SetByActorID: retailerID, Timestamp: at})
				b.UpdatedAt = at
				return nil
			})
			return err
		})
		return batchID, res, err
	})
	return updated, res, err
}

// SellToConsumer marks a priced At Retailer batch as Sold. The owner stays
// the retailer and the ledger is not extended.
func (s *Service) SellToConsumer(ctx context.Context, batchID, retailerID string) (Batch, Result, error) {
	var updated Batch
	res, err := s.run(ctx, opSellToConsumer, func(ctx context.Context) (string, Result, error) {
		res, err := s.inBatch(ctx, batchID, func(tx Transaction) error {
			batch, ok := tx.FindBatch(batchID)
			if !ok {
				return domain.NotFoundError{Entity: EntityBatch, ID: batchID}
			}
			if batch.Status != StatusAtRetailer {
				return domain.InvalidStateError{BatchID: batchID, Status: batch.Status, Operation: "sell"}
			}
			if batch.CurrentOwnerID != retailerID {
				return domain.OwnershipError{BatchID: batchID, ActorID: retailerID, OwnerID: batch.CurrentOwnerID}
			}
			if batch.CurrentPrice == nil {
				return domain.InvalidStateError{BatchID: batchID, Status: batch.Status, Operation: "sell", Reason: "no price set"}
			}
			at := s.ledgerTime(tx, batch)
			var err error
			updated, err = tx.UpdateBatch(batchID, func(b *Batch) error {
				b.Status = StatusSold
				b.SoldAt = &at
				b.UpdatedAt = at
				return nil
			})
			return err
		})
		return batchID, res, err
	})
	return updated, res, err
}

// IssueCertificate records a new grading certificate issued by the batch's
// farmer, swaps the batch's certificate pointer and adopts the new grade.
// Certificates may be issued in any lifecycle state.
func (s *Service) IssueCertificate(ctx context.Context, batchID, grade, qualityStandards string) (GradingCertificate, Result, error) {
	var issued GradingCertificate
	res, err := s.run(ctx, opIssueCertificate, func(ctx context.Context) (string, Result, error) {
		grade := strings.TrimSpace(grade)
		if grade == "" {
			return "", Result{}, domain.ValidationError{Field: "grade", Reason: "is required"}
		}
		res, err := s.inBatch(ctx, batchID, func(tx Transaction) error {
			batch, ok := tx.FindBatch(batchID)
			if !ok {
				return domain.NotFoundError{Entity: EntityBatch, ID: batchID}
			}
			farmer, ok := identity.Resolve(s.directory, batch.FarmerID, RoleFarmer)
			if !ok {
				return domain.NotFoundError{Entity: EntityActor, ID: batch.FarmerID}
			}
			at := s.ledgerTime(tx, batch)
			cert := GradingCertificate{
				BatchID:          batchID,
				Grade:            grade,
				QualityStandards: strings.TrimSpace(qualityStandards),
				IssueDate:        at,
				IssuedByActorID:  farmer.ID,
			}
			cert.CertificateDigest = digest.CertificateOf(cert).Sum()
			var err error
			if issued, err = tx.CreateCertificate(cert); err != nil {
				return err
			}
			_, err = tx.UpdateBatch(batchID, func(b *Batch) error {
				id := issued.ID
				b.GradingCertificateID = &id
				b.QualityGrade = grade
				b.UpdatedAt = at
				return nil
			})
			return err
		})
		return issued.ID, res, err
	})
	return issued, res, err
}

func (s *Service) referenceURL(batchID string) string {
	sep := "?"
	if strings.Contains(s.baseURL, "?") {
		sep = "&"
	}
	return s.baseURL + sep + "batchId=" + url.QueryEscape(batchID)
}

func cloneTransport(t *TransportDetails) *TransportDetails {
	if t == nil {
		return nil
	}
	cp := *t
	return &cp
}
