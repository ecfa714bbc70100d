package ordasm

import (
	"github.com/asmtools/hlasm-ordasm/diag"
	"github.com/asmtools/hlasm-ordasm/ident"
	"github.com/asmtools/hlasm-ordasm/section"
	"github.com/asmtools/hlasm-ordasm/symtab"
)

// dispatchExtrn implements EXTRN (kind=section.EXTERNAL) and WXTRN
// (kind=section.WEAK_EXTERNAL): each operand symbol is bound as a
// relocatable reference into its own same-named external section, one
// per name, at offset 0. Operands may be bare symbols or a PART(sym,
// sym,...) complex operand; an empty sub-operand inside PART is A129.
func (p *Processor) dispatchExtrn(stmt Statement, kind section.Kind) {
	if len(stmt.Operands) == 0 {
		p.sink.Add(diag.Errors.TooFewOperands(stmt.Op, 1, 0, rangeOf(stmt.Pos)))
		return
	}
	for _, op := range stmt.Operands {
		switch o := op.(type) {
		case NameOperand:
			p.defineExternal(stmt, o.Name, kind)
		case ComplexOperand:
			if len(o.Args) == 0 {
				p.sink.Add(diag.Errors.ExtrnPartEmptyOperand(rangeOf(stmt.Pos)))
				continue
			}
			for _, sub := range o.Args {
				switch s := sub.(type) {
				case NameOperand:
					p.defineExternal(stmt, s.Name, kind)
				case EmptyOperand:
					p.sink.Add(diag.Errors.ExtrnPartEmptyOperand(rangeOf(stmt.Pos)))
				default:
					p.sink.Add(diag.Errors.ExtrnPartEmptyOperand(rangeOf(stmt.Pos)))
				}
			}
		case EmptyOperand:
			p.sink.Add(diag.Errors.ExtrnPartEmptyOperand(rangeOf(stmt.Pos)))
		default:
			p.sink.Add(diag.Errors.ExtrnPartEmptyOperand(rangeOf(stmt.Pos)))
		}
	}
}

func (p *Processor) defineExternal(stmt Statement, name ident.ID, kind section.Kind) {
	if name.IsEmpty() {
		p.sink.Add(diag.Errors.ExtrnPartEmptyOperand(rangeOf(stmt.Pos)))
		return
	}
	prev := p.sections.Current()

	_, _, err := p.sections.SetSection(name, kind)
	if err != nil {
		if existing := p.syms.Lookup(name); existing != nil {
			p.sink.Add(diag.Errors.DuplicateSymbol(p.interner.Text(name), rangeOf(stmt.Pos), rangeOf(SourcePos{Line: existing.DefSite.Line, Char: existing.DefSite.Char})))
		}
		return
	}
	if p.syms.CanDefine(name) {
		addr := p.sections.CurrentAddress()
		p.syms.Define(name, symtab.Relocatable{A: addr}, symtab.SymbolAttributes{
			Origin: symtab.OriginASM,
			Type:   'U',
			Length: 1,
		}, symtab.SourcePos{Line: stmt.Pos.Line, Char: stmt.Pos.Char})
		p.solver.NotifySymbolDefined(name)
	}

	if prev != nil {
		p.sections.SetSection(prev.Name, prev.Kind)
	}
}
