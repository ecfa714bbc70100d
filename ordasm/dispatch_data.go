package ordasm

import (
	"github.com/asmtools/hlasm-ordasm/address"
	"github.com/asmtools/hlasm-ordasm/depsolve"
	"github.com/asmtools/hlasm-ordasm/diag"
	"github.com/asmtools/hlasm-ordasm/expr"
	"github.com/asmtools/hlasm-ordasm/ident"
	"github.com/asmtools/hlasm-ordasm/symtab"
)

// defaultElementLength returns the implied per-element byte length for a
// data-definition type letter when no explicit L(length) modifier is
// given, inferred from the type's fixed width or (for character/hex
// string types) the nominal-value text.
func defaultElementLength(typeLetter byte, nominal string) int32 {
	switch typeLetter {
	case 'F', 'A', 'Y':
		if typeLetter == 'Y' {
			return 2
		}
		return 4
	case 'H':
		return 2
	case 'D':
		return 8
	case 'C':
		return int32(len(stripQuotes(nominal)))
	case 'X':
		hex := stripQuotes(nominal)
		return int32((len(hex) + 1) / 2)
	case 'B':
		bits := stripQuotes(nominal)
		return int32((len(bits) + 7) / 8)
	case 'P', 'Z':
		digits := stripQuotes(nominal)
		return int32((len(digits) + 2) / 2)
	}
	return 1
}

func stripQuotes(s string) string {
	if len(s) >= 2 && s[0] == '\'' && s[len(s)-1] == '\'' {
		return s[1 : len(s)-1]
	}
	return s
}

func alignmentFor(typeLetter byte) address.Alignment {
	switch typeLetter {
	case 'D':
		return address.Alignment{Boundary: 8}
	case 'F', 'A':
		return address.Alignment{Boundary: 4}
	case 'H', 'Y':
		return address.Alignment{Boundary: 2}
	}
	return address.Alignment{Boundary: 1}
}

// dispatchDcDs implements DC (emitDefaults=true) and DS (emitDefaults=
// false, no distinction made here since instruction encoding/initial-
// value emission is out of this component's scope — both reserve storage
// and define the label's attributes identically). Operands are chunked
// by non-decreasing alignment (already true of DataDefs' declared order
// for realistic input; this walks them in order and reserves each in
// turn rather than re-sorting, since HLASM does not reorder DC/DS
// operands against each other). The label, if present, is bound to the
// first operand's address.
func (p *Processor) dispatchDcDs(stmt Statement, emitDefaults bool) {
	_ = emitDefaults
	if len(stmt.DataDefs) == 0 {
		p.sink.Add(diag.Errors.TooFewOperands(stmt.Op, 1, 0, rangeOf(stmt.Pos)))
		return
	}

	var label ident.ID
	hasLabel := stmt.HasLabel && !stmt.Label.IsEmpty()
	if hasLabel {
		label = stmt.Label
	}

	for i, dd := range stmt.DataDefs {
		addr := p.reserveDataDef(stmt, dd)
		if i == 0 && hasLabel {
			p.defineDataLabel(stmt, label, dd, addr)
		}
	}
}

// reserveDataDef reserves storage for one operand, resolving its
// duplication factor and length eagerly when possible and falling back
// to a space + dependency-solver patch otherwise.
func (p *Processor) reserveDataDef(stmt Statement, dd DataDef) address.Address {
	view := p.currentView()
	align := alignmentFor(dd.TypeLetter)

	dup, dupKnown := evalSmallExpr(dd.Dup, dd.HasDup, view, 1)
	length, lengthKnown := evalSmallExpr(dd.Length, dd.HasLength, view, defaultElementLength(dd.TypeLetter, dd.Nominal))

	if dupKnown && lengthKnown {
		return p.sections.Reserve(int64(dup)*int64(length), align)
	}

	addr, sp := p.sections.ReserveSpace(align)
	lc := p.sections.Current().Current()
	pos := toDepsolvePos(stmt.Pos)

	depsOf := func() depsolve.DependencySet {
		var all depsolve.DependencySet
		if dd.HasDup {
			_, d := expr.Eval(dd.Dup, view, expr.CollectDependencies)
			all = depsolve.FromExprDeps(d)
		}
		if dd.HasLength {
			_, d := expr.Eval(dd.Length, view, expr.CollectDependencies)
			all = mergeDepsolveSets(all, depsolve.FromExprDeps(d))
		}
		return all
	}

	resolver := depsolve.ResolverFunc(func() (symtab.SymbolValue, symtab.SymbolAttributes, depsolve.DependencySet, bool) {
		d, dOK := evalSmallExpr(dd.Dup, dd.HasDup, view, 1)
		l, lOK := evalSmallExpr(dd.Length, dd.HasLength, view, defaultElementLength(dd.TypeLetter, dd.Nominal))
		if !dOK || !lOK {
			return nil, symtab.SymbolAttributes{}, depsOf(), false
		}
		lc.CloseSpace(sp, int32(d)*l)
		return symtab.Absolute{V: int32(d) * l}, symtab.SymbolAttributes{}, depsolve.DependencySet{}, true
	})

	p.solver.AddDefine(depsolve.SpaceKeyOf(sp.ID), resolver, pos, func(symtab.SymbolValue, symtab.SymbolAttributes) {
		p.solver.NotifySpaceClosed(sp.ID)
	})

	return addr
}

func mergeDepsolveSets(a, b depsolve.DependencySet) depsolve.DependencySet {
	out := depsolve.DependencySet{Symbols: map[ident.ID]bool{}, Spaces: map[address.SpaceID]bool{}}
	for k := range a.Symbols {
		out.Symbols[k] = true
	}
	for k := range b.Symbols {
		out.Symbols[k] = true
	}
	for k := range a.Spaces {
		out.Spaces[k] = true
	}
	for k := range b.Spaces {
		out.Spaces[k] = true
	}
	return out
}

// evalSmallExpr evaluates an optional expression operand to a concrete
// int32, returning (fallback, true) when absent and (0, false) when
// present but still dependency-bearing.
func evalSmallExpr(e expr.Expr, present bool, view expr.SolverView, fallback int32) (int32, bool) {
	if !present || e == nil {
		return fallback, true
	}
	_, deps := expr.Eval(e, view, expr.CollectDependencies)
	if !deps.Empty() {
		return 0, false
	}
	res, _ := expr.Eval(e, view, expr.Evaluate)
	if abs, ok := res.Value.(symtab.Absolute); ok {
		return abs.V, true
	}
	return 0, false
}

// defineDataLabel binds stmt's label to addr with attributes derived
// from dd's type letter and computed element length, handling the
// self-referencing length/scale pattern: if the length or scale modifier
// mentions the very symbol being defined, the symbol is defined first
// with a length of 1 so the self-reference reads a concrete (if
// provisional) L', then patched via symtab.SetLength once the modifier
// itself is evaluable.
func (p *Processor) defineDataLabel(stmt Statement, label ident.ID, dd DataDef, addr address.Address) {
	if !p.syms.CanDefine(label) {
		p.sink.Add(diag.Errors.DuplicateSymbol(p.interner.Text(label), rangeOf(stmt.Pos), rangeOf(stmt.Pos)))
		return
	}
	defaultLen := defaultElementLength(dd.TypeLetter, dd.Nominal)
	selfRef := dd.HasLength && exprMentions(dd.Length, label)

	// A self-referencing length modifier can't be evaluated yet (the
	// symbol it names is still being defined), so it starts provisional
	// at 1 and gets patched below once defined. Otherwise the explicit L
	// modifier, if any, feeds the attribute directly.
	elemLength := defaultLen
	if selfRef {
		elemLength = 1
	} else if l, ok := evalSmallExpr(dd.Length, dd.HasLength, p.currentView(), defaultLen); ok {
		elemLength = l
	}

	attrs := symtab.SymbolAttributes{Origin: symtab.OriginDAT, Type: dd.TypeLetter, Length: elemLength}
	pos := symtab.SourcePos{Line: stmt.Pos.Line, Char: stmt.Pos.Char}
	if err := p.syms.Define(label, symtab.Relocatable{A: addr}, attrs, pos); err != nil {
		return
	}
	p.solver.NotifySymbolDefined(label)

	view := p.currentView()
	if selfRef {
		_, deps := expr.Eval(dd.Length, view, expr.CollectDependencies)
		p.solver.AddDiagnosticDependency(depsolve.FromExprDeps(deps), toDepsolvePos(stmt.Pos), func() {
			if l, ok := evalSmallExpr(dd.Length, true, view, elemLength); ok {
				p.syms.SetLength(label, l)
			}
		})
	}
	if dd.HasScale && exprMentions(dd.Scale, label) {
		_, deps := expr.Eval(dd.Scale, view, expr.CollectDependencies)
		p.solver.AddDiagnosticDependency(depsolve.FromExprDeps(deps), toDepsolvePos(stmt.Pos), func() {
			if s, ok := evalSmallExpr(dd.Scale, true, view, 0); ok {
				p.syms.SetScale(label, s)
			}
		})
	}
}

// exprMentions reports whether e references name anywhere in its tree,
// used to detect DC/DS's length/scale self-reference pattern.
func exprMentions(e expr.Expr, name ident.ID) bool {
	switch n := e.(type) {
	case expr.SymbolRef:
		return n.Name == name
	case expr.AttrRef:
		return n.Target == name
	case expr.UnOp:
		return exprMentions(n.X, name)
	case expr.BinOp:
		return exprMentions(n.X, name) || exprMentions(n.Y, name)
	}
	return false
}
