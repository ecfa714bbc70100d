package ordasm

import "github.com/asmtools/hlasm-ordasm/diag"

// ResolveSymbolPos returns name's definition-site range for
// `textDocument/definition`. ok is false if name has never been defined.
func (p *Processor) ResolveSymbolPos(name string) (diag.TextRange, bool) {
	id, ok := p.interner.Lookup(name)
	if !ok {
		return diag.TextRange{}, false
	}
	sym := p.syms.Lookup(id)
	if sym == nil {
		return diag.TextRange{}, false
	}
	return rangeOf(SourcePos{Line: sym.DefSite.Line, Char: sym.DefSite.Char}), true
}

// SymbolNames returns every defined symbol's interned (upper-cased) name, for
// `textDocument/completion`.
func (p *Processor) SymbolNames() []string {
	syms := p.syms.All()
	out := make([]string, 0, len(syms))
	for _, sym := range syms {
		out = append(out, p.interner.Text(sym.Name))
	}
	return out
}
