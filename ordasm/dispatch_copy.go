package ordasm

import (
	"context"

	"github.com/asmtools/hlasm-ordasm/copymgr"
	"github.com/asmtools/hlasm-ordasm/diag"
)

// dispatchCopy implements COPY: a single symbol operand names the
// library member to inline. Entering an already-active member (a COPY
// cycle) is E062; an operand that isn't a bare name is E058. A successful
// COPY enters the member here; the matching exit is exposed via
// ExitCopyMember so a host that owns the actual re-lexing of the fetched
// text can drive the cycle check without this package needing to parse anything itself
// (lexing/parsing stays entirely out of scope, per the non-goals).
func (p *Processor) dispatchCopy(stmt Statement) {
	if len(stmt.Operands) != 1 {
		p.sink.Add(diag.Errors.InvalidCopyOperand(rangeOf(stmt.Pos)))
		return
	}
	name, ok := stmt.Operands[0].(NameOperand)
	if !ok || name.Name.IsEmpty() {
		p.sink.Add(diag.Errors.InvalidCopyOperand(rangeOf(stmt.Pos)))
		return
	}

	_, err := p.copy.Enter(context.Background(), name.Name)
	if err == copymgr.ErrRecursiveCopy {
		p.sink.Add(diag.Errors.RecursiveCopy(p.interner.Text(name.Name), rangeOf(stmt.Pos)))
		return
	}
	if err != nil {
		p.sink.Add(diag.Errors.InvalidCopyOperand(rangeOf(stmt.Pos)))
		return
	}
	// Successful entry: the host's statement provider is responsible for
	// re-lexing the fetched member's text and feeding its statements back
	// through Step, then calling ExitCopyMember once the member's last
	// statement has been fed, per the "COPY/macro expansion is fully
	// inlined before the next outer statement" ordering guarantee.
}

// ExitCopyMember pops the current COPY expansion, to be called by the
// host once every statement of a fetched member has been fed through
// Step.
func (p *Processor) ExitCopyMember() { p.copy.Exit() }
