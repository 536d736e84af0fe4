// Package domain defines the core persistent entities, value types, and
// rule evaluation primitives used by the AgriTrace batch registry.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntityType identifies the type of record stored in the core domain.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntityBatch identifies a produce batch record.
	EntityBatch EntityType = "batch"
	// EntityTransfer identifies a custody transfer appended to a batch ledger.
	EntityTransfer EntityType = "transfer"
	// EntityCertificate identifies a grading certificate record.
	EntityCertificate EntityType = "certificate"
	// EntityActor identifies a registered supply chain participant.
	EntityActor EntityType = "actor"
)

// Role enumerates the supply chain roles an actor can hold.
type Role string

// Canonical actor roles.
const (
	RoleFarmer      Role = "farmer"
	RoleDistributor Role = "distributor"
	RoleRetailer    Role = "retailer"
	RoleConsumer    Role = "consumer"
)

// Valid reports whether r is one of the canonical roles.
func (r Role) Valid() bool {
	switch r {
	case RoleFarmer, RoleDistributor, RoleRetailer, RoleConsumer:
		return true
	}
	return false
}

// BatchStatus is the lifecycle state of a batch. The string values are part of
// the external contract and must not change.
type BatchStatus string

// Canonical batch lifecycle states.
const (
	StatusAtFarm     BatchStatus = "At Farm"
	StatusInTransit  BatchStatus = "In Transit"
	StatusAtRetailer BatchStatus = "At Retailer"
	// StatusSold is terminal.
	StatusSold BatchStatus = "Sold"
)

// Valid reports whether s is one of the canonical lifecycle states.
func (s BatchStatus) Valid() bool {
	switch s {
	case StatusAtFarm, StatusInTransit, StatusAtRetailer, StatusSold:
		return true
	}
	return false
}

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows commit.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// Actor is a registered participant. Actors are immutable reference data.
type Actor struct {
	ID          string `json:"id"`
	DisplayName string `json:"name"`
	Role        Role   `json:"role"`
	Email       string `json:"email,omitempty"`
}

// TransportDetails describes the physical carriage of a batch.
type TransportDetails struct {
	Mode          string `json:"mode"`
	VehicleNumber string `json:"vehicleNumber"`
	DriverName    string `json:"driverName"`
}

// PriceEntry is a single append-only price change.
type PriceEntry struct {
	Price        decimal.Decimal `json:"price"`
	SetByActorID string          `json:"retailerId"`
	Timestamp    time.Time       `json:"timestamp"`
}

// Batch represents one produce lot and its lifecycle. QualityGrade follows the
// latest grading certificate; HarvestGrade keeps the grade recorded at
// creation, which CreationDigest covers. SoldAt is set once, when the batch
// moves to Sold.
type Batch struct {
	ID                   string           `json:"id"`
	Name                 string           `json:"name"`
	ProductType          string           `json:"productType"`
	Quantity             decimal.Decimal  `json:"quantity"`
	HarvestLocation      string           `json:"location"`
	HarvestDate          string           `json:"harvestDate"`
	QualityGrade         string           `json:"qualityGrade"`
	HarvestGrade         string           `json:"harvestGrade,omitempty"`
	FarmerID             string           `json:"farmerId"`
	CreationDigest       string           `json:"metadataHash"`
	Status               BatchStatus      `json:"status"`
	CurrentOwnerID       string           `json:"currentOwnerId"`
	CurrentPrice         *decimal.Decimal `json:"currentPrice,omitempty"`
	PriceHistory         []PriceEntry     `json:"priceHistory"`
	GradingCertificateID *string          `json:"gradingCertificateId,omitempty"`
	QRCodeURL            string           `json:"qrCodeUrl"`
	CreatedAt            time.Time        `json:"createdAt"`
	UpdatedAt            time.Time        `json:"updatedAt"`
	SoldAt               *time.Time       `json:"soldAt,omitempty"`
}

// CreationGrade returns the quality grade recorded when the batch was created.
func (b Batch) CreationGrade() string {
	if b.HarvestGrade != "" {
		return b.HarvestGrade
	}
	return b.QualityGrade
}

// LatestPrice returns the most recent price entry, if any.
func (b Batch) LatestPrice() (PriceEntry, bool) {
	if len(b.PriceHistory) == 0 {
		return PriceEntry{}, false
	}
	return b.PriceHistory[len(b.PriceHistory)-1], true
}

// Transfer is one custody-change event in a batch ledger. Transfers are never
// updated or deleted once appended.
type Transfer struct {
	ID               string            `json:"id"`
	BatchID          string            `json:"batchId"`
	Sequence         int               `json:"sequence"`
	FromActorID      string            `json:"fromId"`
	ToActorID        string            `json:"toId"`
	Timestamp        time.Time         `json:"timestamp"`
	TransportDetails *TransportDetails `json:"transportDetails,omitempty"`
	ReceiptDigest    string            `json:"receiptHash"`
}

// GradingCertificate attaches a quality grade to a batch.
type GradingCertificate struct {
	ID                string    `json:"id"`
	BatchID           string    `json:"batchId"`
	Grade             string    `json:"grade"`
	QualityStandards  string    `json:"qualityStandards"`
	IssueDate         time.Time `json:"issueDate"`
	IssuedByActorID   string    `json:"issuedBy"`
	CertificateDigest string    `json:"certificateHash"`
}

// Change describes a mutation applied to an entity during a transaction.
type Change struct {
	Entity EntityType
	Action Action
	Before ChangePayload
	After  ChangePayload
}

// Action indicates the type of modification performed.
type Action string

// Change actions captured in the audit trail. There is no delete action: batch
// ledgers are append-only.
const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates an entity was updated.
	ActionUpdate Action = "update"
	ActionAppend Action = "append"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID string
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	return "transaction blocked by rules"
}
