package ordasm

import (
	"github.com/asmtools/hlasm-ordasm/address"
	"github.com/asmtools/hlasm-ordasm/expr"
	"github.com/asmtools/hlasm-ordasm/ident"
	"github.com/asmtools/hlasm-ordasm/symtab"
)

// solverView is the concrete expr.SolverView backing every expression
// evaluation the dispatcher performs: symbol candidates come from the
// live symtab (so retried evaluations see newly-defined symbols), while
// the location-counter value is captured once, at construction, so a
// postponed statement's `*` always means "where this statement was,"
// not "where the location counter is now."
type solverView struct {
	p        *Processor
	frozenLC address.Address
}

// currentView captures "now" as both the live view and the frozen `*`.
func (p *Processor) currentView() *solverView {
	return &solverView{p: p, frozenLC: p.sections.CurrentAddress()}
}

func (v *solverView) GetSymbolCandidate(name ident.ID) expr.Candidate {
	sym := v.p.syms.Lookup(name)
	if sym == nil {
		return expr.Candidate{State: expr.CandidateUnknown}
	}
	if symtab.IsDefined(sym.Value) {
		return expr.Candidate{State: expr.CandidateDefined, Value: sym.Value, Attrs: sym.Attrs}
	}
	return expr.Candidate{State: expr.CandidateDeclaredUndefined}
}

func (v *solverView) GetLocCtr() address.Address { return v.frozenLC }

func (v *solverView) GetUsingEvaluator() expr.UsingView { return v.p.usingT }

// equAttributeView wraps the base attribute-attribute resolution with
// EQU's "unknown reads as declared-undefined" redirect, per the
// dependency-solver-redirect design note.
func (p *Processor) equAttributeView() expr.SolverView {
	return expr.OverrideUnknownAsDeclaredUndefined(p.currentView())
}
