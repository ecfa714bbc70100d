package ordasm

import (
	"github.com/asmtools/hlasm-ordasm/diag"
	"github.com/asmtools/hlasm-ordasm/ident"
)

// dispatchOpsyn implements OPSYN: `LABEL OPSYN OP` rebinds (or adds) the
// mnemonic LABEL to mean OP; `LABEL OPSYN` with an empty/absent operand
// removes LABEL's rebinding instead, which requires LABEL to already be
// a known OPSYN source.
func (p *Processor) dispatchOpsyn(stmt Statement) {
	if !stmt.HasLabel || stmt.Label.IsEmpty() {
		p.sink.Add(diag.Errors.MissingMandatoryLabel("OPSYN", rangeOf(stmt.Pos)))
		return
	}
	label := stmt.Label

	if len(stmt.Operands) == 0 {
		if _, ok := p.opsyn[label]; !ok {
			p.sink.Add(diag.Errors.UnknownMnemonicForOpsyn(p.interner.Text(label), rangeOf(stmt.Pos)))
			return
		}
		delete(p.opsyn, label)
		return
	}
	if _, empty := stmt.Operands[0].(EmptyOperand); empty {
		if _, ok := p.opsyn[label]; !ok {
			p.sink.Add(diag.Errors.UnknownMnemonicForOpsyn(p.interner.Text(label), rangeOf(stmt.Pos)))
			return
		}
		delete(p.opsyn, label)
		return
	}

	name, ok := stmt.Operands[0].(NameOperand)
	if !ok || name.Name.IsEmpty() {
		p.sink.Add(diag.Errors.OpsynTargetUnknown(p.interner.Text(label), rangeOf(stmt.Pos)))
		return
	}
	if !p.isKnownOperation(name.Name) {
		p.sink.Add(diag.Errors.OpsynTargetUnknown(p.interner.Text(name.Name), rangeOf(stmt.Pos)))
		return
	}
	p.opsyn[label] = name.Name
}

// isKnownOperation reports whether name is a recognized directive
// mnemonic or an already-rebound OPSYN source, the universe OPSYN's
// target operand must resolve into.
func (p *Processor) isKnownOperation(name ident.ID) bool {
	if _, ok := p.opsyn[name]; ok {
		return true
	}
	return isDirectiveMnemonic(p.interner.Text(name))
}
