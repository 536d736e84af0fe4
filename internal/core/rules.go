package core

// NewDefaultRulesEngine builds an engine with the built-in integrity rules.
func NewDefaultRulesEngine() *RulesEngine {
	engine := NewRulesEngine()
	engine.Register(LifecycleTransitionRule())
	engine.Register(CustodyCouplingRule())
	engine.Register(PriceHistoryRule())
	engine.Register(ImmutableProvenanceRule())
	engine.Register(DigestIntegrityRule())
	return engine
}
