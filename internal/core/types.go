package core

import "github.com/shubh1021/AgriTrace/pkg/domain"

type (
	EntityType         = domain.EntityType
	Severity           = domain.Severity
	Role               = domain.Role
	BatchStatus        = domain.BatchStatus
	Actor              = domain.Actor
	Batch              = domain.Batch
	Transfer           = domain.Transfer
	TransportDetails   = domain.TransportDetails
	PriceEntry         = domain.PriceEntry
	GradingCertificate = domain.GradingCertificate
	DraftBatch         = domain.DraftBatch
	BatchInput         = domain.BatchInput
	Change             = domain.Change
	Action             = domain.Action
	Violation          = domain.Violation
	Result             = domain.Result
	Rule               = domain.Rule
	RulesEngine        = domain.RulesEngine
	RuleViolationError = domain.RuleViolationError
	Transaction        = domain.Transaction
	TransactionView    = domain.TransactionView
	PersistentStore    = domain.PersistentStore
)

const (
	EntityBatch       = domain.EntityBatch
	EntityTransfer    = domain.EntityTransfer
	EntityCertificate = domain.EntityCertificate
	EntityActor       = domain.EntityActor
)

const (
	RoleFarmer      = domain.RoleFarmer
	RoleDistributor = domain.RoleDistributor
	RoleRetailer    = domain.RoleRetailer
	RoleConsumer    = domain.RoleConsumer
)

const (
	StatusAtFarm     = domain.StatusAtFarm
	StatusInTransit  = domain.StatusInTransit
	StatusAtRetailer = domain.StatusAtRetailer
	StatusSold       = domain.StatusSold
)

const (
	SeverityBlock = domain.SeverityBlock
	SeverityWarn  = domain.SeverityWarn
	SeverityLog   = domain.SeverityLog
)

const (
	ActionCreate = domain.ActionCreate
	ActionUpdate = domain.ActionUpdate
	ActionAppend = domain.ActionAppend
)

// NewRulesEngine constructs an empty engine.
func NewRulesEngine() *RulesEngine { return domain.NewRulesEngine() }
