package ordasm

import (
	"github.com/asmtools/hlasm-ordasm/diag"
	"github.com/asmtools/hlasm-ordasm/ident"
	"github.com/asmtools/hlasm-ordasm/section"
	"github.com/asmtools/hlasm-ordasm/symtab"
)

// dispatchSection implements CSECT/DSECT/RSECT/COM: switch to (creating
// if needed) a section of the given name and kind. An unnamed section is
// always allowed; a name already bound to a different kind is E031 (the
// name-conflict half of the invariant "a symbol name may name at most one
// section across EXECUTABLE/READONLY/COMMON").
func (p *Processor) dispatchSection(stmt Statement, kind section.Kind) {
	name := stmt.Label
	if !stmt.HasLabel {
		name = ident.Empty
	}
	sec, created, err := p.sections.SetSection(name, kind)
	if err != nil {
		if existing := p.syms.Lookup(name); existing != nil {
			p.sink.Add(diag.Errors.DuplicateSymbol(p.interner.Text(name), rangeOf(stmt.Pos), rangeOf(SourcePos{Line: existing.DefSite.Line, Char: existing.DefSite.Char})))
		} else {
			p.sink.Add(diag.Errors.DuplicateSymbol(p.interner.Text(name), rangeOf(stmt.Pos), rangeOf(stmt.Pos)))
		}
		return
	}
	if created && !name.IsEmpty() && kind != section.DUMMY {
		// The section name itself behaves like a relocatable symbol at
		// offset 0 of its own first location counter.
		if p.syms.CanDefine(name) {
			p.syms.Define(name, symtab.Relocatable{A: p.sections.CurrentAddress()}, symtab.SymbolAttributes{
				Origin: symtab.OriginASM,
				Type:   'J',
				Length: 1,
			}, symtab.SourcePos{Line: stmt.Pos.Line, Char: stmt.Pos.Char})
			p.solver.NotifySymbolDefined(name)
		}
	}
	_ = sec
}

// dispatchLoctr implements LOCTR: requires a non-empty label (E053);
// if that label already names an ordinary (non-counter) symbol it is
// E031; otherwise switches the current section's current counter to it,
// creating a fresh one in source-declaration order if this is the first
// mention.
func (p *Processor) dispatchLoctr(stmt Statement) {
	name, ok := findLabelSymbol(p, stmt, "LOCTR")
	if !ok {
		return
	}
	if existing := p.syms.Lookup(name); existing != nil && symtab.IsDefined(existing.Value) && !p.sections.CounterDefinedAnywhere(name) {
		p.sink.Add(diag.Errors.DuplicateSymbol(p.interner.Text(name), rangeOf(stmt.Pos), rangeOf(SourcePos{Line: existing.DefSite.Line, Char: existing.DefSite.Char})))
		return
	}
	p.sections.SetLocationCounter(name)
}
