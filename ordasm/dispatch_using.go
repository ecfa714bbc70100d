package ordasm

import (
	"github.com/asmtools/hlasm-ordasm/address"
	"github.com/asmtools/hlasm-ordasm/diag"
	"github.com/asmtools/hlasm-ordasm/expr"
	"github.com/asmtools/hlasm-ordasm/symtab"
	"github.com/asmtools/hlasm-ordasm/using"
)

// dispatchUsing implements USING (2-17 operands): operand 1 is either a
// relocatable expression or a (base,end) pair; the remaining operands
// name 1-16 registers, each mapped to the base address. A malformed first operand is A104; a register operand that
// doesn't evaluate to an absolute 0-15 is A164.
func (p *Processor) dispatchUsing(stmt Statement) {
	if len(stmt.Operands) < 2 {
		p.sink.Add(diag.Errors.TooFewOperands("USING", 2, len(stmt.Operands), rangeOf(stmt.Pos)))
		return
	}
	if len(stmt.Operands) > 17 {
		p.sink.Add(diag.Errors.TooManyOperands("USING", 17, len(stmt.Operands), rangeOf(stmt.Pos)))
		return
	}

	view := p.currentView()
	var base symtab.Relocatable
	var end *symtab.Relocatable

	switch o := stmt.Operands[0].(type) {
	case ExprOperand:
		rel, ok := p.evalRelocatable(o.E, view)
		if !ok {
			p.sink.Add(diag.Errors.UsingFirstOperand(rangeOf(stmt.Pos)))
			return
		}
		base = rel
	case BaseEndOperand:
		rel, ok := p.evalRelocatable(o.Base, view)
		if !ok {
			p.sink.Add(diag.Errors.UsingFirstOperand(rangeOf(stmt.Pos)))
			return
		}
		base = rel
		if o.HasEnd {
			if e, ok := p.evalRelocatable(o.End, view); ok {
				end = &e
			}
		}
	default:
		p.sink.Add(diag.Errors.UsingFirstOperand(rangeOf(stmt.Pos)))
		return
	}

	// Splitting the mapped range across multiple registers is an
	// instruction-encoder concern (out of scope); every listed register
	// maps to the same base address for attribute/hover purposes.
	regs := map[int]address.Address{}
	for _, op := range stmt.Operands[1:] {
		eo, ok := op.(ExprOperand)
		if !ok {
			p.sink.Add(diag.Errors.UsingMapping(rangeOf(stmt.Pos)))
			continue
		}
		res, deps := expr.Eval(eo.E, view, expr.CollectDependencies)
		if !deps.Empty() {
			p.sink.Add(diag.Errors.UsingMapping(rangeOf(stmt.Pos)))
			continue
		}
		res, _ = expr.Eval(eo.E, view, expr.Evaluate)
		abs, ok := res.Value.(symtab.Absolute)
		if !ok || abs.V < 0 || abs.V > 15 {
			p.sink.Add(diag.Errors.UsingMapping(rangeOf(stmt.Pos)))
			continue
		}
		regs[int(abs.V)] = base.A
	}

	frame := using.Frame{Base: base.A, Registers: regs}
	if stmt.HasLabel {
		frame.Label = stmt.Label
	}
	if end != nil {
		frame.End = &end.A
	}
	p.usingT.Add(frame)
}

// evalRelocatable evaluates e to a concrete relocatable address with no
// outstanding dependencies.
func (p *Processor) evalRelocatable(e expr.Expr, view expr.SolverView) (symtab.Relocatable, bool) {
	if e == nil {
		return symtab.Relocatable{}, false
	}
	_, deps := expr.Eval(e, view, expr.CollectDependencies)
	if !deps.Empty() {
		return symtab.Relocatable{}, false
	}
	res, _ := expr.Eval(e, view, expr.Evaluate)
	rel, ok := res.Value.(symtab.Relocatable)
	return rel, ok
}

// dispatchDrop implements DROP: no operands drops every active frame;
// otherwise each operand names a register (0-15) to drop. A malformed
// register operand is A141.
func (p *Processor) dispatchDrop(stmt Statement) {
	if len(stmt.Operands) == 0 {
		p.usingT.DropAll()
		return
	}
	view := p.currentView()
	var regs []int
	for _, op := range stmt.Operands {
		eo, ok := op.(ExprOperand)
		if !ok {
			p.sink.Add(diag.Errors.DropOperandFormat(rangeOf(stmt.Pos)))
			continue
		}
		res, deps := expr.Eval(eo.E, view, expr.CollectDependencies)
		if !deps.Empty() {
			p.sink.Add(diag.Errors.DropOperandFormat(rangeOf(stmt.Pos)))
			continue
		}
		res, _ = expr.Eval(eo.E, view, expr.Evaluate)
		abs, ok := res.Value.(symtab.Absolute)
		if !ok {
			p.sink.Add(diag.Errors.DropOperandFormat(rangeOf(stmt.Pos)))
			continue
		}
		regs = append(regs, int(abs.V))
	}
	p.usingT.DropRegisters(regs)
}

// dispatchPush/dispatchPop implement PUSH/POP's USING/PRINT/ACONTROL
// sub-keys, each identified by a bare-name complex-operand keyword.
func (p *Processor) dispatchPush(stmt Statement) {
	for _, op := range stmt.Operands {
		switch keywordOf(op) {
		case "USING":
			p.usingT.PushUsing()
		case "PRINT":
			p.usingT.PushPrint(nil)
		case "ACONTROL":
			p.usingT.PushAcontrol(nil)
		}
	}
}

func (p *Processor) dispatchPop(stmt Statement) {
	for _, op := range stmt.Operands {
		switch keywordOf(op) {
		case "USING":
			if err := p.usingT.PopUsing(); err == using.ErrPopMismatch {
				p.sink.Add(diag.Errors.PopUsingMismatch(rangeOf(stmt.Pos)))
			}
		case "PRINT":
			if _, err := p.usingT.PopPrint(); err == using.ErrPopMismatch {
				p.sink.Add(diag.Errors.PopUsingMismatch(rangeOf(stmt.Pos)))
			}
		case "ACONTROL":
			if _, err := p.usingT.PopAcontrol(); err == using.ErrPopMismatch {
				p.sink.Add(diag.Errors.PopUsingMismatch(rangeOf(stmt.Pos)))
			}
		}
	}
}

func keywordOf(op Operand) string {
	switch o := op.(type) {
	case NameOperand:
		return upperASCII(o.Raw)
	case ComplexOperand:
		return upperASCII(o.Keyword)
	}
	return ""
}

func upperASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - 'a' + 'A'
		}
	}
	return string(b)
}
