package ordasm

import (
	"github.com/asmtools/hlasm-ordasm/address"
	"github.com/asmtools/hlasm-ordasm/diag"
	"github.com/asmtools/hlasm-ordasm/expr"
	"github.com/asmtools/hlasm-ordasm/ident"
	"github.com/asmtools/hlasm-ordasm/section"
	"github.com/asmtools/hlasm-ordasm/symtab"
)

// dispatchCcw implements CCW/CCW0/CCW1: aligns to a doubleword, reserves
// 8 bytes, and binds an optional label to the reserved address.
func (p *Processor) dispatchCcw(stmt Statement) {
	loctr := p.sections.Align(8)
	p.bindSimpleLabel(stmt, loctr, symtab.SymbolAttributes{Origin: symtab.OriginCCW, Type: 'W', Length: 8})
	p.sections.Reserve(8, address.Alignment{Boundary: 8})
}

// dispatchCnop implements CNOP: aligns to a halfword and binds an
// optional label there. Per the documented quirk, when the byte/boundary
// operands carry unresolved dependencies the label is still emitted but
// alignment is silently skipped — no diagnostic, matching upstream's
// long-standing behavior for this rare case.
func (p *Processor) dispatchCnop(stmt Statement) {
	loctr := p.sections.Align(2)
	p.bindSimpleLabel(stmt, loctr, symtab.SymbolAttributes{Origin: symtab.OriginCNOP, Type: 'U', Length: 1})

	if len(stmt.Operands) != 2 {
		return
	}
	view := p.currentView()
	byteVal, byteOK := evalAbsOperand(stmt.Operands[0], view)
	boundary, boundOK := evalAbsOperand(stmt.Operands[1], view)
	if !byteOK || !boundOK {
		return
	}
	if byteVal < 0 || boundary <= 0 || (boundary&(boundary-1)) != 0 || byteVal >= boundary || byteVal%2 != 0 {
		return
	}
	p.sections.Reserve(0, address.Alignment{Boundary: boundary})
}

// evalAbsOperand evaluates op to a concrete absolute int32, returning
// ok=false for a non-expression operand, an expression with unresolved
// dependencies, or a non-absolute result.
func evalAbsOperand(op Operand, view expr.SolverView) (int32, bool) {
	eo, ok := op.(ExprOperand)
	if !ok || eo.E == nil {
		return 0, false
	}
	_, deps := expr.Eval(eo.E, view, expr.CollectDependencies)
	if !deps.Empty() {
		return 0, false
	}
	res, _ := expr.Eval(eo.E, view, expr.Evaluate)
	abs, ok := res.Value.(symtab.Absolute)
	if !ok {
		return 0, false
	}
	return abs.V, true
}

// dispatchCxd implements CXD: aligns to a fullword, reserves 4 bytes,
// and binds an optional label as an address-constant attribute (L'=4,
// T'=A).
func (p *Processor) dispatchCxd(stmt Statement) {
	loctr := p.sections.Align(4)
	p.bindSimpleLabel(stmt, loctr, symtab.SymbolAttributes{Origin: symtab.OriginASM, Type: 'A', Length: 4})
	p.sections.Reserve(4, address.Alignment{Boundary: 4})
}

// bindSimpleLabel defines stmt's label (if present and not already
// defined) at addr with the given attributes, emitting E031 on conflict.
// Used by directives whose label is a plain instruction-address marker
// (CCW/CNOP/CXD) rather than one carrying its own dependency graph.
func (p *Processor) bindSimpleLabel(stmt Statement, addr address.Address, attrs symtab.SymbolAttributes) {
	if !stmt.HasLabel || stmt.Label.IsEmpty() {
		return
	}
	if !p.syms.CanDefine(stmt.Label) {
		if existing := p.syms.Lookup(stmt.Label); existing != nil {
			p.sink.Add(diag.Errors.DuplicateSymbol(p.interner.Text(stmt.Label), rangeOf(stmt.Pos), rangeOf(SourcePos{Line: existing.DefSite.Line, Char: existing.DefSite.Char})))
		}
		return
	}
	p.syms.Define(stmt.Label, symtab.Relocatable{A: addr}, attrs, symtab.SourcePos{Line: stmt.Pos.Line, Char: stmt.Pos.Char})
	p.solver.NotifySymbolDefined(stmt.Label)
}

// dispatchStart implements START: the label (if any) names a fresh
// EXECUTABLE section; START is only valid as the very first control
// section of the program (E073 otherwise). A single operand sets the
// section's initial offset, which must evaluate to a concrete absolute
// value (A250) aligned up to the section-start boundary.
func (p *Processor) dispatchStart(stmt Statement) {
	for _, s := range p.sections.Sections() {
		if s.Kind == section.EXECUTABLE || s.Kind == section.READONLY {
			p.sink.Add(diag.Errors.StartAfterCode(rangeOf(stmt.Pos)))
			return
		}
	}

	name := stmt.Label
	if !stmt.HasLabel {
		name = ident.Empty
	}
	if existing := p.syms.Lookup(name); existing != nil && !name.IsEmpty() {
		p.sink.Add(diag.Errors.DuplicateSymbol(p.interner.Text(name), rangeOf(stmt.Pos), rangeOf(SourcePos{Line: existing.DefSite.Line, Char: existing.DefSite.Char})))
		return
	}
	p.sections.SetSection(name, section.EXECUTABLE)
	if !name.IsEmpty() && p.syms.CanDefine(name) {
		p.syms.Define(name, symtab.Relocatable{A: p.sections.CurrentAddress()}, symtab.SymbolAttributes{
			Origin: symtab.OriginASM, Type: 'J', Length: 1,
		}, symtab.SourcePos{Line: stmt.Pos.Line, Char: stmt.Pos.Char})
		p.solver.NotifySymbolDefined(name)
	}

	if len(stmt.Operands) == 0 {
		return
	}
	if len(stmt.Operands) != 1 {
		p.sink.Add(diag.Errors.WrongOperandCount("START", 1, len(stmt.Operands), rangeOf(stmt.Pos)))
		return
	}
	view := p.currentView()
	offset, ok := evalAbsOperand(stmt.Operands[0], view)
	if !ok {
		p.sink.Add(diag.Errors.StartMustBeAbsolute(rangeOf(stmt.Pos)))
		return
	}
	const startAlign = 8
	if offset%startAlign != 0 {
		offset = (offset + startAlign - 1) &^ (startAlign - 1)
	}
	p.sections.Reserve(int64(offset), address.Alignment{Boundary: 1})
}

// dispatchEnd implements END: an optional operand names the program
// entry point, which must not evaluate to an absolute value (E032).
// Marks the processor EndSeen so any trailing statements are flagged as
// unexpected rather than processed.
func (p *Processor) dispatchEnd(stmt Statement) {
	if len(stmt.Operands) > 0 {
		if eo, ok := stmt.Operands[0].(ExprOperand); ok {
			view := p.currentView()
			res, deps := expr.Eval(eo.E, view, expr.CollectDependencies)
			if deps.Empty() {
				res, _ = expr.Eval(eo.E, view, expr.Evaluate)
				if rel, isRel := res.Value.(symtab.Relocatable); isRel {
					p.entrySet = true
					p.entryAddr = rel.A
				} else if _, isAbs := res.Value.(symtab.Absolute); isAbs {
					p.sink.Add(diag.Errors.EndValueAbsolute(rangeOf(stmt.Pos)))
				}
			}
		}
	}
	p.state = EndSeen
}

// dispatchLtorg implements LTORG: emits the pending literal pool at the
// current (doubleword-aligned) location, binding an optional label to
// the position where the pool begins.
func (p *Processor) dispatchLtorg(stmt Statement) {
	loctr := p.sections.Align(8)
	if stmt.HasLabel && !stmt.Label.IsEmpty() && p.syms.CanDefine(stmt.Label) {
		p.syms.Define(stmt.Label, symtab.Relocatable{A: loctr}, symtab.SymbolAttributes{
			Origin: symtab.OriginEQU, Type: 'U', Length: 1,
		}, symtab.SourcePos{Line: stmt.Pos.Line, Char: stmt.Pos.Char})
		p.solver.NotifySymbolDefined(stmt.Label)
	}
	p.flushLiteralPool()
}

// flushLiteralPool materializes every pending literal and notifies the
// solver of each newly-defined synthetic literal symbol.
func (p *Processor) flushLiteralPool() {
	pending := p.lits.Pending()
	if len(pending) == 0 {
		return
	}
	p.lits.GeneratePool(p.sections, p.syms)
	for _, e := range pending {
		p.solver.NotifySymbolDefined(e.Name)
	}
}

// dispatchTitle implements TITLE: the first TITLE statement's label sets
// the program title; any later one is W016.
func (p *Processor) dispatchTitle(stmt Statement) {
	if !stmt.HasLabel || stmt.LabelRaw == "" {
		return
	}
	if p.titleSet {
		p.sink.Add(diag.Errors.TitleRedefinition(rangeOf(stmt.Pos)))
		return
	}
	p.titleSet = true
	p.titleText = stmt.LabelRaw
}

// dispatchAlias implements ALIAS: requires a label (A163); the alternate
// external name itself carries no further ordinary-assembly semantics
// here (object-code symbol-table emission is out of scope).
func (p *Processor) dispatchAlias(stmt Statement) {
	if !stmt.HasLabel || stmt.Label.IsEmpty() {
		p.sink.Add(diag.Errors.AliasLabelMissing(rangeOf(stmt.Pos)))
	}
}

// dispatchMnote implements MNOTE: 1 or 2 operands. With 2, an empty
// first operand means severity 1; a literal `*` (location-counter
// reference) means severity 0; otherwise it must evaluate to an
// absolute 0-255 value. The last operand is the message text.
func (p *Processor) dispatchMnote(stmt Statement) {
	if len(stmt.Operands) == 0 || len(stmt.Operands) > 2 {
		p.sink.Add(diag.Errors.WrongOperandCount("MNOTE", 2, len(stmt.Operands), rangeOf(stmt.Pos)))
		return
	}

	level := 0
	if len(stmt.Operands) == 2 {
		switch o := stmt.Operands[0].(type) {
		case EmptyOperand:
			level = 1
		case ExprOperand:
			if _, isLoc := o.E.(expr.LocCounterRef); isLoc {
				level = 0
			} else {
				view := p.currentView()
				res, deps := expr.Eval(o.E, view, expr.CollectDependencies)
				if !deps.Empty() {
					p.sink.Add(diag.Errors.MnoteLevelFormat(rangeOf(stmt.Pos)))
					return
				}
				res, _ = expr.Eval(o.E, view, expr.Evaluate)
				abs, ok := res.Value.(symtab.Absolute)
				if !ok {
					p.sink.Add(diag.Errors.MnoteLevelFormat(rangeOf(stmt.Pos)))
					return
				}
				level = int(abs.V)
			}
		default:
			p.sink.Add(diag.Errors.MnoteLevelFormat(rangeOf(stmt.Pos)))
			return
		}
	}
	if level < 0 || level > 255 {
		p.sink.Add(diag.Errors.MnoteLevelRange(rangeOf(stmt.Pos)))
		return
	}

	var text string
	last := stmt.Operands[len(stmt.Operands)-1]
	if so, ok := last.(StringOperand); ok {
		text = so.Text
	}

	const maxLen = 1024
	if len(text) > maxLen {
		p.sink.Add(diag.Errors.MnoteSize(rangeOf(stmt.Pos)))
		text = text[:maxLen]
	}

	p.sink.Add(diag.Mnote.Emit(level, text, rangeOf(stmt.Pos)))
}

// dispatchAinsert implements AINSERT: a quoted string (non-empty, ≤80
// bytes) and a FRONT|BACK destination keyword. Only the operands are
// validated; the record is not injected into any statement stream and
// is not passed to the host.
func (p *Processor) dispatchAinsert(stmt Statement) {
	if len(stmt.Operands) != 2 {
		p.sink.Add(diag.Errors.WrongOperandCount("AINSERT", 2, len(stmt.Operands), rangeOf(stmt.Pos)))
		return
	}
	str, ok := stmt.Operands[0].(StringOperand)
	if !ok {
		p.sink.Add(diag.Errors.AinsertOperandFormat(rangeOf(stmt.Pos)))
		return
	}
	if len(str.Text) == 0 {
		p.sink.Add(diag.Errors.EmptyOperandNotAllowed(rangeOf(stmt.Pos)))
		return
	}
	if len(str.Text) > 80 {
		p.sink.Add(diag.Errors.AinsertOperandTooLong(rangeOf(stmt.Pos)))
		return
	}

	dest, ok := stmt.Operands[1].(NameOperand)
	if !ok {
		p.sink.Add(diag.Errors.AinsertOperandFormat(rangeOf(stmt.Pos)))
		return
	}
	switch upperASCII(p.interner.Text(dest.Name)) {
	case "FRONT", "BACK":
	default:
		p.sink.Add(diag.Errors.AinsertOperandFormat(rangeOf(stmt.Pos)))
	}
}
