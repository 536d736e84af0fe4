package core

import (
	"context"
	"fmt"

	"github.com/shubh1021/AgriTrace/internal/digest"
	"github.com/shubh1021/AgriTrace/pkg/domain"
)

const (
	ruleImmutableProvenance = "immutable_provenance"
	ruleDigestIntegrity     = "digest_integrity"
)

// provenanceFields are fixed at creation; CreationDigest covers most of them.
var provenanceFields = []struct {
	name string
	get  func(Batch) string
}{
	{"id", func(b Batch) string { return b.ID }},
	{"farmerId", func(b Batch) string { return b.FarmerID }},
	{"metadataHash", func(b Batch) string { return b.CreationDigest }},
	{"productType", func(b Batch) string { return b.ProductType }},
	{"quantity", func(b Batch) string { return b.Quantity.String() }},
	{"location", func(b Batch) string { return b.HarvestLocation }},
	{"harvestDate", func(b Batch) string { return b.HarvestDate }},
	{"harvestGrade", func(b Batch) string { return b.CreationGrade() }},
	{"createdAt", func(b Batch) string { return b.CreatedAt.UTC().String() }},
}

// ImmutableProvenanceRule blocks updates to a batch's creation facts.
func ImmutableProvenanceRule() domain.Rule {
	return immutableProvenanceRule{}
}

type immutableProvenanceRule struct{}

func (immutableProvenanceRule) Name() string { return ruleImmutableProvenance }

func (immutableProvenanceRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, c := range batchChanges(changes) {
		if !c.hasBefore {
			continue
		}
		for _, f := range provenanceFields {
			if f.get(c.before) == f.get(c.after) {
				continue
			}
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     ruleImmutableProvenance,
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("batch %s field %s is immutable", c.before.ID, f.name),
				Entity:   EntityBatch,
				EntityID: c.before.ID,
			})
		}
	}
	return res, nil
}

// DigestIntegrityRule recomputes the fingerprint of every newly written
// batch, transfer and certificate and blocks the commit on mismatch.
func DigestIntegrityRule() domain.Rule {
	return digestIntegrityRule{}
}

type digestIntegrityRule struct{}

func (digestIntegrityRule) Name() string { return ruleDigestIntegrity }

func (digestIntegrityRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	block := func(entity EntityType, id, what string) {
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     ruleDigestIntegrity,
			Severity: domain.SeverityBlock,
			Message:  fmt.Sprintf("%s %s %s does not match its contents", entity, id, what),
			Entity:   entity,
			EntityID: id,
		})
	}
	for _, c := range changes {
		if c.Action == ActionUpdate {
			continue
		}
		switch c.Entity {
		case EntityBatch:
			b, ok := decodeChangePayload[Batch](c.After)
			if ok && digest.CreationOf(b).Sum() != b.CreationDigest {
				block(EntityBatch, b.ID, "creation digest")
			}
		case EntityTransfer:
			t, ok := decodeChangePayload[Transfer](c.After)
			if !ok {
				continue
			}
			b, found := view.FindBatch(t.BatchID)
			if found && digest.ReceiptOf(b, t).Sum() != t.ReceiptDigest {
				block(EntityTransfer, t.ID, "receipt digest")
			}
		case EntityCertificate:
			cert, ok := decodeChangePayload[GradingCertificate](c.After)
			if ok && digest.CertificateOf(cert).Sum() != cert.CertificateDigest {
				block(EntityCertificate, cert.ID, "certificate digest")
			}
		}
	}
	return res, nil
}
